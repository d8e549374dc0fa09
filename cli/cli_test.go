package cli

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/types"
)

// testDefs returns minimal game definitions for CLI testing.
func testDefs() *world.Defs {
	return &world.Defs{
		Game: types.GameDef{
			Title:     "Test Game",
			Author:    "Test",
			Version:   "1.0",
			Start:     "hall",
			Intro:     "Welcome to the test.",
			MaxHealth: 100,
		},
		Rooms: map[string]types.RoomDef{
			"hall": {
				ID:          "hall",
				Description: "A grand hall.",
				Items:       []string{"key"},
				Exits:       map[string]string{"north": "garden"},
			},
			"garden": {
				ID:          "garden",
				Description: "A peaceful garden.",
				Exits:       map[string]string{"south": "hall"},
			},
		},
	}
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCLI(t *testing.T, store storage.Store, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	c := &CLI{
		Defs:       testDefs(),
		Store:      store,
		Logger:     quiet(),
		EngineOpts: []engine.Option{engine.WithRNG(engine.NewRNG(1))},
		Player:     "Ada",
		In:         strings.NewReader(input),
		Out:        &out,
	}
	return c, &out
}

func run(t *testing.T, input string) string {
	t.Helper()
	c, out := newTestCLI(t, nil, input)
	c.Run(context.Background())
	return out.String()
}

func TestCLI_IntroAndStartingRoom(t *testing.T) {
	output := run(t, "/quit\n")

	assert.Contains(t, output, "Test Game")
	assert.Contains(t, output, "Welcome to the test.")
	assert.Contains(t, output, "A grand hall.")
}

func TestCLI_AsksForName(t *testing.T) {
	c, out := newTestCLI(t, nil, "Grace\nstatus\n/quit\n")
	c.Player = ""
	c.Run(context.Background())

	output := out.String()
	assert.Contains(t, output, "What is your name, adventurer?")
	assert.Contains(t, output, "Grace, turn 1")
}

func TestCLI_BlankNameUsesDefault(t *testing.T) {
	c, _ := newTestCLI(t, nil, "\n/quit\n")
	c.Player = ""
	c.Run(context.Background())

	require.NotNil(t, c.Session())
	assert.Equal(t, DefaultName, c.Session().Engine.Player.Name)
}

func TestCLI_EOFBeforeName(t *testing.T) {
	c, _ := newTestCLI(t, nil, "")
	c.Player = ""
	c.Run(context.Background())

	assert.Nil(t, c.Session(), "no session should start without a name")
}

func TestCLI_Navigation(t *testing.T) {
	output := run(t, "go north\n/quit\n")

	assert.Contains(t, output, "You enter the Garden.")
	assert.Contains(t, output, "A peaceful garden.")
}

func TestCLI_EndOfInputPrintsSummary(t *testing.T) {
	output := run(t, "take key\nlook\n")

	assert.Contains(t, output, "The path fades. Farewell, Ada.")
	assert.Contains(t, output, "Final score: 10. Turns taken: 2.")
}

func TestCLI_QuitEndsLoop(t *testing.T) {
	output := run(t, "quit\nlook\n")

	assert.Contains(t, output, "Farewell, Ada.")
	assert.Equal(t, 1, strings.Count(output, "A grand hall."), "no command should run after quit")
}

func TestCLI_AutosaveAndResume(t *testing.T) {
	store := storage.NewFileStore(t.TempDir(), quiet())

	c, _ := newTestCLI(t, store, "take key\nn\n")
	c.Run(context.Background())

	c2, out2 := newTestCLI(t, store, "inventory\n/quit\n")
	c2.Run(context.Background())

	output := out2.String()
	assert.Contains(t, output, "[Welcome back, Ada.")
	assert.Contains(t, output, "You are carrying: key.")
	require.NotNil(t, c2.Session())
	assert.Equal(t, "garden", c2.Session().Engine.Player.Location)
}

func TestCLI_HelpCommand(t *testing.T) {
	output := run(t, "/help\n/quit\n")

	for _, want := range []string{"/quit", "/state", "/trace", "Type 'help' for game commands."} {
		assert.Contains(t, output, want)
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	output := run(t, "/bogus\n/quit\n")

	assert.Contains(t, output, "Unknown command")
}

func TestCLI_TraceToggle(t *testing.T) {
	output := run(t, "/trace\ntake key\n/trace\n/quit\n")

	assert.Contains(t, output, "Trace output enabled")
	assert.Contains(t, output, "[trace]   give_item")
	assert.Contains(t, output, "[trace]   item_taken")
	assert.Contains(t, output, "Trace output disabled")
}

func TestCLI_StateCommand(t *testing.T) {
	output := run(t, "/state\n/quit\n")

	assert.Contains(t, output, "Location: hall")
	assert.Contains(t, output, "Turn: 0")
	assert.Contains(t, output, "RNG: seed 1")
}

func TestCLI_EmptyInput(t *testing.T) {
	output := run(t, "\n\n/quit\n")

	// Empty lines are skipped without "What do you want to do?" spam.
	assert.NotContains(t, output, "What do you want to do?")
}

func TestCLI_CommentsAndEcho(t *testing.T) {
	c, out := newTestCLI(t, nil, "# a comment\nlook\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	output := out.String()
	assert.NotContains(t, output, "a comment", "comment lines are skipped")
	assert.Contains(t, output, "> look\n", "input is echoed after the prompt")
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	output := run(t, "look\nagain\n/quit\n")

	// Intro + look + again.
	assert.GreaterOrEqual(t, strings.Count(output, "A grand hall."), 3)
}

func TestCLI_G_RepeatsLastCommand(t *testing.T) {
	output := run(t, "look\ng\n/quit\n")

	assert.GreaterOrEqual(t, strings.Count(output, "A grand hall."), 3)
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	output := run(t, "again\n/quit\n")

	assert.Contains(t, output, "Nothing to repeat")
}
