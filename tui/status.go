package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderStatusBar produces a full-width inverted status line: where the
// player stands and which way they can go on the left, their vitals and
// the turn on the right.
func (m Model) renderStatusBar() string {
	left, right := m.statusText()

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return styleStatusBar.Width(m.width).Render(bar)
}

// statusText builds the unstyled halves of the status bar.
func (m Model) statusText() (left, right string) {
	if m.sess == nil {
		return " " + m.defs.Game.Title, ""
	}
	e := m.sess.Engine
	p := e.Player

	left = " " + p.Location
	if room, err := e.World.GetRoom(p.Location); err == nil {
		left = fmt.Sprintf(" %s | Exits: %s", room.Name, strings.Join(room.ExitDirections(), ","))
	}

	vitals := fmt.Sprintf("HP %d/%d | Score %d | Gold %d", p.Health, p.MaxHealth, p.Score, p.Gold)
	right = fmt.Sprintf("%s | T:%d ", vitals, e.Turn)

	// Show inventory items if they fit, otherwise just the count.
	if n := len(p.Inventory); n > 0 {
		candidate := fmt.Sprintf("Inv: %s | %s", strings.Join(p.Inventory, ", "), right)
		if lipgloss.Width(left)+lipgloss.Width(candidate)+2 < m.width {
			right = candidate
		} else {
			right = fmt.Sprintf("Inv: %d | %s", n, right)
		}
	}
	return left, right
}
