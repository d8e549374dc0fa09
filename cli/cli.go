// Package cli provides the line-oriented front end: terminal I/O, output
// formatting, and meta-command dispatch.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/session"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/types"
)

// DefaultName is used when the player gives no name.
const DefaultName = "Adventurer"

// CLI handles terminal interaction with the player.
type CLI struct {
	Defs       *world.Defs
	Store      storage.Store
	Logger     *slog.Logger
	EngineOpts []engine.Option
	Player     string // asked for at start when empty
	In         io.Reader
	Out        io.Writer
	Trace      bool
	EchoInput  bool // echo each input line after the prompt (for script playback)

	sess    *session.Session
	lastCmd string // for "again"/"g" repeat
}

// New creates a CLI reading stdin and writing stdout.
func New(defs *world.Defs, store storage.Store, logger *slog.Logger) *CLI {
	return &CLI{
		Defs:   defs,
		Store:  store,
		Logger: logger,
		In:     os.Stdin,
		Out:    os.Stdout,
	}
}

// Session returns the running session, or nil before Run has started one.
func (c *CLI) Session() *session.Session {
	return c.sess
}

// Run asks for the player's name, restores or starts their session, then
// loops: prompt → input → step → output. When input runs out or the
// session ends, the closing summary is printed and the game autosaved.
func (c *CLI) Run(ctx context.Context) {
	scanner := bufio.NewScanner(c.In)

	name := c.Player
	if name == "" {
		c.print("What is your name, adventurer? ")
		if !scanner.Scan() {
			c.printLine("")
			return
		}
		name = strings.TrimSpace(scanner.Text())
		if c.EchoInput {
			c.printLine(name)
		}
		if name == "" {
			name = DefaultName
		}
	}

	sess, notices := session.Begin(ctx, c.Defs, c.Store, name, c.Logger, c.EngineOpts...)
	c.sess = sess
	for _, line := range notices {
		c.printSystem(line)
	}
	for _, line := range sess.Engine.Intro() {
		c.printLine(line)
	}

	for {
		c.print("> ")
		if !scanner.Scan() {
			c.printLine("")
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		// Skip comment lines (for script files).
		if strings.HasPrefix(input, "#") {
			continue
		}
		if c.EchoInput {
			c.printLine(input)
		}

		// Meta-commands start with '/'.
		if strings.HasPrefix(input, "/") {
			if c.handleMeta(input) {
				break
			}
			continue
		}

		// "again" / "g" repeats the last game command.
		lower := strings.ToLower(input)
		if lower == "again" || lower == "g" {
			if c.lastCmd == "" {
				c.printLine("Nothing to repeat.")
				continue
			}
			input = c.lastCmd
		} else {
			c.lastCmd = input
		}

		result := sess.Engine.StepContext(ctx, input)
		c.printResult(result)

		if c.Trace {
			c.printTrace(result)
		}
		if result.Ended {
			break
		}
	}

	c.printResult(sess.Finish(ctx))
}

// handleMeta dispatches meta-commands. Returns true if the game should exit.
func (c *CLI) handleMeta(input string) bool {
	cmd := strings.Fields(input)[0]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		c.cmdHelp()

	case "/state":
		c.cmdState()

	case "/trace":
		c.Trace = !c.Trace
		if c.Trace {
			c.printSystem("Trace output enabled.")
		} else {
			c.printSystem("Trace output disabled.")
		}

	default:
		c.printSystem(fmt.Sprintf("Unknown command: %s. Type /help for available commands.", cmd))
	}

	return false
}

func (c *CLI) cmdHelp() {
	help := []string{
		"System:",
		"  /quit         end the session (your progress is saved)",
		"  /help         show this help",
		"  /state        debug: dump the current state",
		"  /trace        toggle effect and event tracing",
		"  again (g)     repeat your last command",
		"",
		"Type 'help' for game commands.",
	}
	for _, line := range help {
		c.printLine(line)
	}
}

func (c *CLI) cmdState() {
	e := c.sess.Engine
	p := e.Player
	progress := e.World.Progress()
	c.printSystem(fmt.Sprintf("Turn: %d", e.Turn))
	c.printSystem(fmt.Sprintf("Location: %s", p.Location))
	c.printSystem(fmt.Sprintf("Health: %d/%d  Score: %d  Gold: %d", p.Health, p.MaxHealth, p.Score, p.Gold))
	c.printSystem(fmt.Sprintf("Inventory: %v", p.Inventory))
	c.printSystem(fmt.Sprintf("Visited: %v", progress.Visited))
	if len(progress.Solved) > 0 {
		c.printSystem(fmt.Sprintf("Solved: %v", progress.Solved))
	}
	c.printSystem(fmt.Sprintf("RNG: seed %d, %d calls", e.RNG.Seed(), e.RNG.Calls()))
}

func (c *CLI) printTrace(result types.Result) {
	if len(result.Effects) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Effects: %d", len(result.Effects)))
		for _, e := range result.Effects {
			c.printSystem(fmt.Sprintf("[trace]   %s %v", e.Type, e.Params))
		}
	}
	if len(result.Events) > 0 {
		c.printSystem(fmt.Sprintf("[trace] Events: %d", len(result.Events)))
		for _, e := range result.Events {
			c.printSystem(fmt.Sprintf("[trace]   %s", e.Type))
		}
	}
}

func (c *CLI) printResult(result types.Result) {
	for _, line := range result.Output {
		c.printLine(line)
	}
}

func (c *CLI) printLine(text string) {
	fmt.Fprintln(c.Out, text)
}

func (c *CLI) print(text string) {
	fmt.Fprint(c.Out, text)
}

func (c *CLI) printSystem(text string) {
	fmt.Fprintf(c.Out, "[%s]\n", text)
}
