package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/delve/engine/world"
)

// Torchlit palette: warm status bar and prompt, cool vitals, hot danger.
var (
	styleStatusBar = lipgloss.NewStyle().
			Background(lipgloss.Color("94")).
			Foreground(lipgloss.Color("230")).
			Bold(true)

	styleInputPrompt = lipgloss.NewStyle().
				Foreground(lipgloss.Color("214"))

	styleRoomDesc = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	styleHeading = lipgloss.NewStyle().
			Foreground(lipgloss.Color("223")).
			Bold(true)

	styleYouSee = lipgloss.NewStyle().
			Foreground(lipgloss.Color("222")).
			Bold(true)

	styleExits = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	styleChallenge = lipgloss.NewStyle().
			Foreground(lipgloss.Color("141"))

	styleWrongAnswer = lipgloss.NewStyle().
				Foreground(lipgloss.Color("179")).
				Italic(true)

	styleShop = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	styleEncounter = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")).
			Bold(true)

	styleVitals = lipgloss.NewStyle().
			Foreground(lipgloss.Color("80"))

	styleSystem = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	styleError = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	styleDefeat = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	stylePlayerInput = lipgloss.NewStyle().
				Foreground(lipgloss.Color("180"))

	styleTrace = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// lineKind identifies the type of an output line for styling.
type lineKind int

const (
	kindRoomDesc lineKind = iota
	kindHeading
	kindYouSee
	kindExits
	kindChallenge
	kindWrongAnswer
	kindShop
	kindEncounter
	kindVitals
	kindSystem
	kindError
	kindDefeat
	kindTrace
)

// classifier sorts engine output into line kinds. Encounter text comes from
// the world scripts, so it is matched against the loaded catalogue.
type classifier struct {
	encounters map[string]bool
}

func newClassifier(defs *world.Defs) classifier {
	c := classifier{encounters: map[string]bool{}}
	if defs == nil {
		return c
	}
	for _, enc := range defs.Encounters {
		if enc.Text != "" {
			c.encounters[enc.Text] = true
		}
	}
	return c
}

func (c classifier) classify(line string) lineKind {
	if c.encounters[line] {
		return kindEncounter
	}
	return classifyLine(line)
}

// classifyLine determines what kind of output line this is from its text
// alone.
func classifyLine(line string) lineKind {
	switch {
	case strings.HasPrefix(line, "[trace]"):
		return kindTrace
	case strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]"):
		return kindSystem
	case strings.HasPrefix(line, "You enter the "),
		strings.HasPrefix(line, "You return to the "):
		return kindHeading
	case strings.HasPrefix(line, "You see:"),
		strings.HasPrefix(line, "You find:"):
		return kindYouSee
	case strings.HasPrefix(line, "Exits:"):
		return kindExits
	case strings.HasPrefix(line, "A challenge bars your way"):
		return kindChallenge
	case strings.HasPrefix(line, "That doesn't seem right"):
		return kindWrongAnswer
	case isShopLine(line):
		return kindShop
	case strings.HasPrefix(line, "Health:"),
		strings.HasPrefix(line, "Score:"),
		strings.HasPrefix(line, "Final score:"):
		return kindVitals
	case strings.HasPrefix(line, "You have been defeated"):
		return kindDefeat
	case strings.HasPrefix(line, "You can't"),
		strings.HasPrefix(line, "You don't"),
		strings.HasPrefix(line, "There is no"),
		strings.HasPrefix(line, "There is nothing"),
		strings.HasPrefix(line, "I don't"):
		return kindError
	default:
		return kindRoomDesc
	}
}

// isShopLine matches the merchant's list, its price rows and purchases.
func isShopLine(line string) bool {
	switch {
	case strings.HasPrefix(line, "For sale"),
		strings.HasPrefix(line, "You buy the "),
		strings.HasPrefix(line, "The merchant "):
		return true
	case strings.HasPrefix(line, "  ") && strings.HasSuffix(line, " gold"):
		return true
	case strings.HasPrefix(line, "The ") && strings.Contains(line, " costs ") && strings.HasSuffix(line, "."):
		return true
	}
	return false
}

// styledYouSee renders "You see: item1, item2." with item names bold.
func styledYouSee(line string) string {
	for _, prefix := range []string{"You see: ", "You find: "} {
		if strings.HasPrefix(line, prefix) {
			return styleRoomDesc.Render(prefix) + styleYouSee.Render(line[len(prefix):])
		}
	}
	return styleRoomDesc.Render(line)
}

// styledSystemMsg renders a system message in gray with brackets.
func styledSystemMsg(text string) string {
	return styleSystem.Render("[" + text + "]")
}
