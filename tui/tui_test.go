package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/types"
)

func TestClassifyLine(t *testing.T) {
	tests := []struct {
		line string
		want lineKind
	}{
		{"You see: key, old map.", kindYouSee},
		{"You find: key.", kindYouSee},
		{"Exits: north, south, east.", kindExits},
		{"You enter the Great Hall.", kindHeading},
		{"You return to the Entrance.", kindHeading},
		{"[Progress saved.]", kindSystem},
		{"[trace] Effects: 2", kindTrace},
		{"You don't have a sword.", kindError},
		{"You can't go west from here.", kindError},
		{"There is no lamp here.", kindError},
		{"There is nothing to buy here.", kindError},
		{"I don't understand that.", kindError},
		{"A challenge bars your way: What am I?", kindChallenge},
		{"That doesn't seem right. Hint: Listen.", kindWrongAnswer},
		{"For sale (you have 20 gold):", kindShop},
		{"  health potion        20 gold", kindShop},
		{"You buy the magic sword for 50 gold.", kindShop},
		{"The merchant doesn't sell lanterns.", kindShop},
		{"The magic sword costs 50 gold. You have 20.", kindShop},
		{"Health: 80/100", kindVitals},
		{"Score: 40", kindVitals},
		{"Final score: 10. Turns taken: 1.", kindVitals},
		{"You have been defeated.", kindDefeat},
		{"A grand hall with stone walls.", kindRoomDesc},
		{"You take the key.", kindRoomDesc},
		{"  Gold:      5", kindRoomDesc},
		{"", kindRoomDesc},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, classifyLine(tt.line))
		})
	}
}

func TestClassifier_EncounterText(t *testing.T) {
	defs := testDefs()
	defs.Encounters = []types.EncounterDef{
		{Text: "A monster lunges from the shadows!", Delta: 10},
		{Text: "", Gold: 3},
	}
	c := newClassifier(defs)

	assert.Equal(t, kindEncounter, c.classify("A monster lunges from the shadows!"))
	assert.Equal(t, kindYouSee, c.classify("You see: key."))
	assert.Equal(t, kindRoomDesc, c.classify(""))
	assert.Equal(t, kindRoomDesc, newClassifier(nil).classify("A monster lunges from the shadows!"))
}

func TestRenderLineKind_StylesEveryKind(t *testing.T) {
	for kind := kindRoomDesc; kind <= kindTrace; kind++ {
		assert.Contains(t, renderLineKind("You see: lamp", kind), "lamp")
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		text  string
		width int
		want  string
	}{
		{"short", 80, "short"},
		{"hello world", 5, "hello\nworld"},
		{"abcdefgh", 4, "abcd\nefgh"},
		{"", 80, ""},
		{"anything", 0, "anything"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, wordWrap(tt.text, tt.width), "wordWrap(%q, %d)", tt.text, tt.width)
	}
}

func TestHistory_PushAndPrev(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")
	h.Push("take key")

	for _, want := range []string{"take key", "go north", "look", "look"} {
		prev, ok := h.Prev()
		assert.True(t, ok)
		assert.Equal(t, want, prev)
	}
}

func TestHistory_Next(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev()
	h.Prev()

	next, ok := h.Next()
	assert.True(t, ok)
	assert.Equal(t, "go north", next)
	_, ok = h.Next()
	assert.False(t, ok, "past the newest entry")
}

func TestHistory_Empty(t *testing.T) {
	h := NewHistory(5)
	_, ok := h.Prev()
	assert.False(t, ok)
	_, ok = h.Next()
	assert.False(t, ok)
}

func TestHistory_MaxSize(t *testing.T) {
	h := NewHistory(2)
	h.Push("a")
	h.Push("b")
	h.Push("c")

	require.Equal(t, 2, h.Len())
	for _, want := range []string{"c", "b", "b"} {
		prev, _ := h.Prev()
		assert.Equal(t, want, prev)
	}
}

func TestHistory_SkipsRepeatsAndBlanks(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("look")
	h.Push("   ")
	h.Push("")

	assert.Equal(t, 1, h.Len())
}

func TestHistory_ResetCursor(t *testing.T) {
	h := NewHistory(5)
	h.Push("look")
	h.Push("go north")

	h.Prev()
	h.ResetCursor()

	prev, ok := h.Prev()
	assert.True(t, ok)
	assert.Equal(t, "go north", prev)
}

func testDefs() *world.Defs {
	return &world.Defs{
		Game: types.GameDef{
			Title:     "Test Game",
			Start:     "hall",
			Intro:     "Welcome to the test.",
			MaxHealth: 100,
			StartGold: 5,
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

// newTestModel builds a sized model with a fixed seed.
func newTestModel(t *testing.T, store storage.Store, player string) Model {
	t.Helper()
	return newTestModelWith(t, testDefs(), store, player)
}

func newTestModelWith(t *testing.T, defs *world.Defs, store storage.Store, player string) Model {
	t.Helper()
	m := New(context.Background(), defs, store, quiet(), player,
		engine.WithRNG(engine.NewRNG(1)))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func submit(t *testing.T, m Model, line string) (Model, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return next.(Model), cmd
}

func narrative(m Model) string {
	lines := make([]string, 0, len(m.rawLines))
	for _, rl := range m.rawLines {
		lines = append(lines, rl.text)
	}
	return strings.Join(lines, "\n")
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestNew_AsksForName(t *testing.T) {
	m := newTestModel(t, nil, "")
	require.Nil(t, m.Session(), "session should not start before the player is named")
	assert.Contains(t, narrative(m), "What is your name, adventurer?")
	left, _ := m.statusText()
	assert.Contains(t, left, "Test Game")

	m, _ = submit(t, m, "Grace")
	require.NotNil(t, m.Session())
	assert.Equal(t, "Grace", m.Session().Engine.Player.Name)
	assert.Contains(t, narrative(m), "Welcome to the test.")
}

func TestNew_BlankNameUsesDefault(t *testing.T) {
	m := newTestModel(t, nil, "")
	m, _ = submit(t, m, "   ")
	require.NotNil(t, m.Session())
	assert.Equal(t, DefaultName, m.Session().Engine.Player.Name)
}

func TestEnter_StepsEngine(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	m, cmd := submit(t, m, "take key")
	require.False(t, isQuit(cmd), "take should not quit")
	assert.Contains(t, narrative(m), "> take key")
	assert.Contains(t, m.lastBlock, "You take the key.")
	_, right := m.statusText()
	assert.Contains(t, right, "Inv: key")
	assert.Contains(t, right, "T:1")
	assert.Contains(t, right, "Gold 5")
}

func TestEnter_Navigation(t *testing.T) {
	m := newTestModel(t, nil, "Ada")
	m, _ = submit(t, m, "north")

	assert.Contains(t, narrative(m), "You enter the Garden.")
	left, _ := m.statusText()
	assert.Contains(t, left, "Garden | Exits: south")
}

func TestEnter_EncounterLinesClassified(t *testing.T) {
	defs := testDefs()
	chance := 1.0
	defs.Game.EncounterChance = &chance
	defs.Encounters = []types.EncounterDef{{Text: "A bat flutters past your ear."}}
	m := newTestModelWith(t, defs, nil, "Ada")

	m, _ = submit(t, m, "north")

	var found bool
	for _, rl := range m.rawLines {
		if rl.text == "A bat flutters past your ear." {
			found = true
			assert.Equal(t, kindEncounter, rl.kind)
		}
		if rl.text == "You enter the Garden." {
			assert.Equal(t, kindHeading, rl.kind)
		}
	}
	assert.True(t, found, "encounter text missing:\n%s", narrative(m))
}

func TestEnter_EmptyInputIgnored(t *testing.T) {
	m := newTestModel(t, nil, "Ada")
	before := len(m.rawLines)
	m, _ = submit(t, m, "")
	assert.Len(t, m.rawLines, before, "empty input adds no output")
}

func TestAgain(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	m, _ = submit(t, m, "g")
	assert.Contains(t, narrative(m), "Nothing to repeat.")

	m, _ = submit(t, m, "look")
	m, _ = submit(t, m, "again")
	assert.Equal(t, 2, m.Session().Engine.Turn)
}

func TestQuit_AutosavesAndQuits(t *testing.T) {
	store := storage.NewFileStore(t.TempDir(), quiet())
	m := newTestModel(t, store, "Ada")
	m, _ = submit(t, m, "take key")

	m, cmd := submit(t, m, "/quit")
	require.True(t, isQuit(cmd), "/quit quits")
	assert.Empty(t, m.View(), "empty view after quitting")
	closing := strings.Join(m.Closing(), "\n")
	assert.Contains(t, closing, "Final score: 10. Turns taken: 1.")
	assert.Contains(t, closing, "Progress saved.")

	resumed := newTestModel(t, store, "Ada")
	assert.Contains(t, narrative(resumed), "Welcome back, Ada.")
	require.NotNil(t, resumed.Session())
	assert.True(t, resumed.Session().Engine.Player.HasItem("key"), "restored inventory")
}

func TestCtrlC_Finishes(t *testing.T) {
	m := newTestModel(t, nil, "Ada")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	require.True(t, isQuit(cmd))
	assert.Contains(t, strings.Join(m.Closing(), "\n"), "The path fades. Farewell, Ada.")
}

func TestCtrlC_BeforeNameQuitsQuietly(t *testing.T) {
	m := newTestModel(t, nil, "")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.True(t, isQuit(cmd))
	assert.Empty(t, next.(Model).Closing(), "nothing to print without a session")
}

func TestCopyLastBlock(t *testing.T) {
	m := newTestModel(t, nil, "Ada")
	var copied string
	m.copyText = func(s string) error {
		copied = s
		return nil
	}

	m, _ = submit(t, m, "take key")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlY})
	m = next.(Model)

	assert.Equal(t, "You take the key.", copied)
	assert.Contains(t, narrative(m), "Copied to clipboard.")

	m.copyText = func(string) error { return errors.New("no clipboard") }
	out, _ := m.handleMeta("/copy")
	require.NotEmpty(t, out)
	assert.Equal(t, "Clipboard unavailable.", out[0])
}

func TestHandleMeta_Quit(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	_, quit := m.handleMeta("/quit")
	assert.True(t, quit)
	_, quit = m.handleMeta("/exit")
	assert.True(t, quit)
}

func TestHandleMeta_Help(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	output, quit := m.handleMeta("/help")
	assert.False(t, quit)
	joined := strings.Join(output, "\n")
	for _, expected := range []string{"/quit", "/state", "/trace", "/copy", "again"} {
		assert.Contains(t, joined, expected)
	}
}

func TestHandleMeta_Trace(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	output, _ := m.handleMeta("/trace")
	assert.True(t, m.trace)
	require.NotEmpty(t, output)
	assert.Contains(t, output[0], "enabled")

	m, _ = submit(t, m, "take key")
	assert.Contains(t, narrative(m), "[trace] Events:")

	output, _ = m.handleMeta("/trace")
	assert.False(t, m.trace)
	require.NotEmpty(t, output)
	assert.Contains(t, output[0], "disabled")
}

func TestHandleMeta_Unknown(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	output, quit := m.handleMeta("/bogus")
	assert.False(t, quit)
	require.NotEmpty(t, output)
	assert.Contains(t, output[0], "Unknown command")
}

func TestHandleMeta_State(t *testing.T) {
	m := newTestModel(t, nil, "Ada")

	output, _ := m.handleMeta("/state")
	joined := strings.Join(output, "\n")
	for _, expected := range []string{"Turn: 0", "Location: hall", "Gold: 5", "RNG: seed 1"} {
		assert.Contains(t, joined, expected)
	}
}

func TestView_LoadingBeforeSize(t *testing.T) {
	m := New(context.Background(), testDefs(), nil, quiet(), "Ada")
	assert.Equal(t, "Loading...", m.View())
}
