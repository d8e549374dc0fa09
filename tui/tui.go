// Package tui provides the full-screen Bubble Tea front end: a scrolling
// narrative pane, a status bar, and a command line with history.
package tui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/session"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/types"
)

// DefaultName is used when the player gives no name.
const DefaultName = "Adventurer"

// rawLine stores an unstyled output line with its classification,
// so we can re-wrap and re-style when the terminal is resized.
type rawLine struct {
	text     string
	kind     lineKind
	isInput  bool
	isSystem bool
}

// Model is the Bubble Tea model for a delve session.
type Model struct {
	ctx    context.Context
	defs   *world.Defs
	store  storage.Store
	logger *slog.Logger
	opts   []engine.Option

	sess *session.Session // nil while the player is still naming themselves

	viewport viewport.Model
	input    textinput.Model
	history  *History

	lines     classifier
	rawLines  []rawLine
	lastBlock []string // narrative lines of the most recent turn, for ctrl+y
	closing   []string // printed to the terminal once the program exits

	copyText func(string) error

	width    int
	height   int
	ready    bool
	trace    bool
	quitting bool
	lastCmd  string
}

// gameOutputMsg carries output into the Update loop.
type gameOutputMsg struct {
	input    string // echoed player input (empty for intro)
	lines    []string
	isSystem bool // true for meta-command output
}

// New creates a TUI model. When player is empty the model first asks for
// a name; otherwise the session begins immediately.
func New(ctx context.Context, defs *world.Defs, store storage.Store, logger *slog.Logger, player string, opts ...engine.Option) Model {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	ti := textinput.New()
	ti.Prompt = "Name: "
	ti.Focus()
	ti.CharLimit = 256
	ti.PromptStyle = styleInputPrompt

	m := Model{
		ctx:      ctx,
		defs:     defs,
		store:    store,
		logger:   logger,
		opts:     opts,
		input:    ti,
		history:  NewHistory(100),
		lines:    newClassifier(defs),
		copyText: clipboard.WriteAll,
	}
	if player != "" {
		m.begin(player)
	} else {
		m = m.appendOutput(gameOutputMsg{lines: []string{defs.Game.Title, "What is your name, adventurer?"}})
	}
	return m
}

// Run starts the Bubble Tea program and, once it exits, prints the closing
// summary to out so it survives the alternate screen.
func Run(ctx context.Context, defs *world.Defs, store storage.Store, logger *slog.Logger, player string, out io.Writer, opts ...engine.Option) error {
	m := New(ctx, defs, store, logger, player, opts...)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	final, err := p.Run()
	if fm, ok := final.(Model); ok {
		if fm.sess != nil && !fm.quitting {
			// The program was stopped from outside; still autosave.
			fm = fm.finish(nil)
		}
		for _, line := range fm.closing {
			fmt.Fprintln(out, line)
		}
	}
	return err
}

// Session returns the running session, or nil before the player is named.
func (m Model) Session() *session.Session {
	return m.sess
}

// Closing returns the lines to print after the program exits.
func (m Model) Closing() []string {
	return m.closing
}

// begin opens the player's session and shows the greeting.
func (m *Model) begin(name string) {
	sess, notices := session.Begin(m.ctx, m.defs, m.store, name, m.logger, m.opts...)
	m.sess = sess
	m.input.Prompt = "> "
	if len(notices) > 0 {
		*m = m.appendOutput(gameOutputMsg{lines: notices, isSystem: true})
	}
	intro := sess.Engine.Intro()
	m.lastBlock = intro
	*m = m.appendOutput(gameOutputMsg{lines: intro})
}

// finish ends the session, autosaving where the session allows, and
// records everything worth printing after the alternate screen closes.
func (m Model) finish(last []string) Model {
	m.quitting = true
	if m.sess == nil {
		return m
	}
	// Save even when the program context is already cancelled.
	res := m.sess.Finish(context.WithoutCancel(m.ctx))
	m.closing = append(append([]string{}, last...), res.Output...)
	return m
}

// Init starts the cursor blinking; the greeting is already buffered.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages (key presses, window resize, game output).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		vpHeight := m.height - 2 // 1 status bar + 1 input line
		if vpHeight < 1 {
			vpHeight = 1
		}

		if !m.ready {
			m.viewport = viewport.New(m.width, vpHeight)
			m.viewport.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = vpHeight
		}

		m.refreshViewport()

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m = m.finish(nil)
			return m, tea.Quit

		case "ctrl+y":
			m = m.appendOutput(gameOutputMsg{lines: []string{m.copyLastBlock()}, isSystem: true})
			return m, nil

		case "enter":
			return m.handleEnter()

		case "up":
			if prev, ok := m.history.Prev(); ok {
				m.input.SetValue(prev)
				m.input.CursorEnd()
			}
			return m, nil

		case "down":
			if next, ok := m.history.Next(); ok {
				m.input.SetValue(next)
				m.input.CursorEnd()
			} else {
				m.input.SetValue("")
				m.history.ResetCursor()
			}
			return m, nil

		case "pgup", "pgdown":
			var vpCmd tea.Cmd
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

	case gameOutputMsg:
		m = m.appendOutput(msg)
	}

	var inputCmd tea.Cmd
	m.input, inputCmd = m.input.Update(msg)
	cmds = append(cmds, inputCmd)

	return m, tea.Batch(cmds...)
}

// handleEnter processes the submitted input line.
func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	m.input.SetValue("")

	if m.sess == nil {
		if input == "" {
			input = DefaultName
		}
		m.begin(input)
		return m, nil
	}

	if input == "" {
		return m, nil
	}

	m.history.Push(input)
	m.history.ResetCursor()

	lower := strings.ToLower(input)
	if lower == "again" || lower == "g" {
		if m.lastCmd == "" {
			m = m.appendOutput(gameOutputMsg{
				input: input, lines: []string{"Nothing to repeat."}, isSystem: true,
			})
			return m, nil
		}
		input = m.lastCmd
	} else if !strings.HasPrefix(input, "/") {
		m.lastCmd = input
	}

	if strings.HasPrefix(input, "/") {
		output, quit := m.handleMeta(input)
		if quit {
			m = m.finish(nil)
			return m, tea.Quit
		}
		m = m.appendOutput(gameOutputMsg{input: input, lines: output, isSystem: true})
		return m, nil
	}

	result := m.sess.Engine.StepContext(m.ctx, input)
	m.lastBlock = result.Output
	if result.Ended {
		m = m.finish(result.Output)
		return m, tea.Quit
	}

	output := result.Output
	if m.trace {
		output = append(output, formatTrace(result)...)
	}
	m = m.appendOutput(gameOutputMsg{input: input, lines: output})
	return m, nil
}

// copyLastBlock puts the most recent narrative block on the system
// clipboard and reports how that went.
func (m Model) copyLastBlock() string {
	if len(m.lastBlock) == 0 {
		return "Nothing to copy."
	}
	if err := m.copyText(strings.Join(m.lastBlock, "\n")); err != nil {
		m.logger.Debug("clipboard copy failed", "error", err)
		return "Clipboard unavailable."
	}
	return "Copied to clipboard."
}

// appendOutput adds lines to the narrative and refreshes the viewport.
func (m Model) appendOutput(msg gameOutputMsg) Model {
	if msg.input != "" {
		m.rawLines = append(m.rawLines, rawLine{
			text: "> " + msg.input, isInput: true,
		})
	}

	for _, line := range msg.lines {
		rl := rawLine{text: line, isSystem: msg.isSystem}
		if !msg.isSystem {
			rl.kind = m.lines.classify(line)
		}
		m.rawLines = append(m.rawLines, rl)
	}

	// Blank line separator between turns.
	m.rawLines = append(m.rawLines, rawLine{})

	m.refreshViewport()

	return m
}

// refreshViewport re-wraps and re-styles all raw lines at the current width
// and updates the viewport content.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}

	width := m.width
	if width < 10 {
		width = 10
	}

	var styled []string
	for _, rl := range m.rawLines {
		if rl.text == "" {
			styled = append(styled, "")
			continue
		}

		switch {
		case rl.isInput:
			styled = append(styled, stylePlayerInput.Render(wordWrap(rl.text, width)))
		case rl.isSystem:
			styled = append(styled, styledSystemMsg(wordWrap(rl.text, width-2)))
		default:
			styled = append(styled, renderLineKind(wordWrap(rl.text, width), rl.kind))
		}
	}

	m.viewport.SetContent(strings.Join(styled, "\n"))
	m.viewport.GotoBottom()
}

// renderLineKind applies the style for a given lineKind.
func renderLineKind(line string, kind lineKind) string {
	switch kind {
	case kindHeading:
		return styleHeading.Render(line)
	case kindYouSee:
		return styledYouSee(line)
	case kindExits:
		return styleExits.Render(line)
	case kindChallenge:
		return styleChallenge.Render(line)
	case kindWrongAnswer:
		return styleWrongAnswer.Render(line)
	case kindShop:
		return styleShop.Render(line)
	case kindEncounter:
		return styleEncounter.Render(line)
	case kindVitals:
		return styleVitals.Render(line)
	case kindSystem:
		return styleSystem.Render(line)
	case kindError:
		return styleError.Render(line)
	case kindDefeat:
		return styleDefeat.Render(line)
	case kindTrace:
		return styleTrace.Render(line)
	default:
		return styleRoomDesc.Render(line)
	}
}

// wordWrap wraps text at word boundaries, then hard-wraps any word still
// longer than width.
func wordWrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	w := wrap.NewWriter(width)
	w.PreserveSpace = true
	_, _ = w.Write([]byte(wordwrap.String(text, width)))
	return w.String()
}

// View renders the full TUI layout: viewport + status bar + input.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Loading..."
	}

	return m.viewport.View() + "\n" + m.renderStatusBar() + "\n" + m.input.View()
}

// handleMeta dispatches meta-commands. Returns output lines and quit flag.
func (m *Model) handleMeta(input string) ([]string, bool) {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "/quit", "/exit":
		return nil, true

	case "/help":
		return cmdHelp(), false

	case "/state":
		return m.cmdState(), false

	case "/copy":
		return []string{m.copyLastBlock()}, false

	case "/trace":
		m.trace = !m.trace
		if m.trace {
			return []string{"Trace output enabled."}, false
		}
		return []string{"Trace output disabled."}, false

	default:
		return []string{fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd)}, false
	}
}

func cmdHelp() []string {
	return []string{
		"System:",
		"  /quit    end the session (your progress is saved)",
		"  /help    show this help",
		"  /state   debug: dump the current state",
		"  /trace   toggle effect and event tracing",
		"  /copy    copy the last response (also ctrl+y)",
		"  again    repeat your last command (g)",
		"",
		"Type 'help' for game commands.",
		"PgUp/PgDn scroll, Up/Down walk command history.",
	}
}

func (m *Model) cmdState() []string {
	e := m.sess.Engine
	p := e.Player
	progress := e.World.Progress()
	output := []string{
		fmt.Sprintf("Turn: %d", e.Turn),
		fmt.Sprintf("Location: %s", p.Location),
		fmt.Sprintf("Health: %d/%d  Score: %d  Gold: %d", p.Health, p.MaxHealth, p.Score, p.Gold),
		fmt.Sprintf("Inventory: %v", p.Inventory),
		fmt.Sprintf("Visited: %v", progress.Visited),
	}
	if len(progress.Solved) > 0 {
		output = append(output, fmt.Sprintf("Solved: %v", progress.Solved))
	}
	return append(output, fmt.Sprintf("RNG: seed %d, %d calls", e.RNG.Seed(), e.RNG.Calls()))
}

func formatTrace(result types.Result) []string {
	var lines []string
	if len(result.Effects) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			lines = append(lines, fmt.Sprintf("[trace]   %s %v", e.Type, e.Params))
		}
	}
	if len(result.Events) > 0 {
		lines = append(lines, fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			lines = append(lines, fmt.Sprintf("[trace]   %s", e.Type))
		}
	}
	return lines
}

// viewportKeyMap returns a viewport keymap with Up/Down disabled
// (we use those for input history).
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
	}
}
