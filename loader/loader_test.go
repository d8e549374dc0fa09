package loader

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/save"
	"github.com/nathoo/delve/types"
)

// captureLogger returns a logger whose output lands in the returned buffer.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}

func TestLoad_MinimalGame(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Load("testdata/minimal", logger)
	require.NoError(t, err)

	assert.Equal(t, "Minimal Test Game", defs.Game.Title)
	assert.Equal(t, "hall", defs.Game.Start)
	assert.Equal(t, DefaultMaxHealth, defs.Game.MaxHealth)
	assert.Nil(t, defs.Game.EncounterChance, "absent encounter_chance leaves the engine default")
	assert.Nil(t, defs.Game.TakeScore, "absent take_score leaves the engine default")
	assert.Equal(t, "A grand hall.", defs.Rooms["hall"].Description)
	assert.Empty(t, defs.Encounters)
}

func TestLoad_FullGame(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Load("testdata/full", logger)
	require.NoError(t, err)

	// Game metadata.
	g := defs.Game
	assert.Equal(t, "Full Test Game", g.Title)
	assert.Equal(t, "Tester", g.Author)
	assert.Equal(t, "0.1", g.Version)
	assert.Equal(t, "entrance", g.Start)
	assert.Equal(t, "Welcome, adventurer.", g.Intro)
	assert.Equal(t, 80, g.MaxHealth)
	require.NotNil(t, g.EncounterChance)
	assert.InDelta(t, 0.5, *g.EncounterChance, 1e-9)
	require.NotNil(t, g.TakeScore)
	assert.Equal(t, 5, *g.TakeScore)
	assert.Equal(t, 15, g.StartGold)

	// Rooms.
	assert.Len(t, defs.Rooms, 5)
	entrance := defs.Rooms["entrance"]
	assert.Equal(t, "great_hall", entrance.Exits["north"], "exits %v", entrance.Exits)
	assert.Equal(t, []string{"key", "old map"}, entrance.Items, "item names are normalized")
	assert.Equal(t, "riddle", defs.Rooms["great_hall"].Puzzle)
	assert.Equal(t, "Dusty Library", defs.Rooms["library"].Name)
	market := defs.Rooms["market"]
	assert.True(t, market.Safe, "market should be safe")
	assert.Equal(t, map[string]int{"rope": 5, "lantern": 50}, market.Shop)

	// Puzzles.
	riddle, ok := defs.Puzzles["riddle"]
	require.True(t, ok, "puzzle 'riddle' not found")
	require.Len(t, riddle.Answers, 2)
	assert.Equal(t, "echo", riddle.Answers[0])
	assert.Equal(t, "Listen.", riddle.Hint)
	assert.Equal(t, "Correct, echo!", riddle.SolvedText)
	require.Len(t, riddle.Reward, 2)
	assert.Equal(t, "add_score", riddle.Reward[0].Type)
	assert.Equal(t, 40, riddle.Reward[0].Params["amount"])
	assert.Equal(t, "place_item", riddle.Reward[1].Type)
	assert.Equal(t, "glowing orb", riddle.Reward[1].Params["item"])

	// Usables.
	potion, ok := defs.Usables["health potion"]
	require.True(t, ok, "usable 'health potion' not found; have %v", defs.Usables)
	assert.True(t, potion.Consumable)
	require.Len(t, potion.Effects, 1)
	assert.Equal(t, "heal", potion.Effects[0].Type)
	key := defs.Usables["key"]
	require.Len(t, key.Requires, 2)
	assert.Equal(t, "not", key.Requires[1].Type)
	assert.NotNil(t, key.Requires[1].Inner)
	assert.Equal(t, "Nothing to unlock.", key.Fail)

	// Encounters.
	assert.Equal(t, []types.EncounterDef{
		{Text: "A goblin!", Delta: 10, DeltaMax: 25, Weight: 2},
		{Text: "Treasure.", Gold: 7, Weight: 1},
		{Text: "A spring.", Delta: -15, Weight: 1},
		{Text: "Another goblin!", Delta: 3, DeltaMax: 4, Weight: 1},
	}, defs.Encounters)

	// Handlers.
	require.Len(t, defs.Handlers, 1)
	assert.Equal(t, "puzzle_resolved", defs.Handlers[0].EventType)
}

func TestLoad_ExplicitZeroesKept(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Load("testdata/zero_defaults", logger)
	require.NoError(t, err)

	require.NotNil(t, defs.Game.EncounterChance)
	assert.Zero(t, *defs.Game.EncounterChance)
	require.NotNil(t, defs.Game.TakeScore)
	assert.Zero(t, *defs.Game.TakeScore)

	// No encounter ever fires and taking scores nothing.
	e := engine.New(defs, engine.WithRNG(engine.NewRNG(3)), engine.WithLogger(logger))
	e.Step("take pebble")
	for range 20 {
		e.Step("e")
		e.Step("w")
	}
	assert.Equal(t, e.Player.MaxHealth, e.Player.Health)
	assert.Zero(t, e.Player.Score)
	assert.Zero(t, e.Player.Gold)
	assert.True(t, e.Player.HasItem("pebble"))
}

func TestLoad_ScriptedExitCountsAsReachable(t *testing.T) {
	logger, buf := captureLogger()
	_, err := Load("testdata/full", logger)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "cannot be reached",
		"cellar is opened by the key and should not be flagged")
}

func TestLoad_InvalidRefs_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/invalid_refs", logger)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assertContains(t, ve.Errors, "undefined room")
	assertContains(t, ve.Errors, "undefined puzzle")
}

func TestLoad_DuplicateItems_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/duplicate_items", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `item "key" is placed in both`)
}

func TestLoad_SoldAndPlacedItem_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/sold_and_placed", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `item "lantern" is sold in "b" and also placed in "a"`)
}

func TestLoad_BadLuaSyntax_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/bad_lua", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "game.lua", "error should name the file")
}

func TestLoad_NoGameDef_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/no_game", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no Game{} definition")
}

func TestLoad_BadEncounter_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/bad_encounter", logger)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reversed")
}

func TestLoad_MissingDir_Fails(t *testing.T) {
	logger, _ := captureLogger()
	_, err := Load("testdata/does_not_exist", logger)
	assert.Error(t, err)
}

func TestLoad_FileOrdering(t *testing.T) {
	logger, buf := captureLogger()
	defs, err := Load("testdata/ordering", logger)
	require.NoError(t, err)
	assert.Len(t, defs.Rooms, 3, "rooms across files")
	assert.Contains(t, buf.String(), `room \"island\" cannot be reached`)
}

func TestLoad_SandboxEnforced(t *testing.T) {
	L, _ := newTestVM()
	defer L.Close()

	for _, src := range []string{
		`os.execute("echo pwned")`,
		`io.write("x")`,
		`dofile("x.lua")`,
		`require("os")`,
		`math.random()`,
	} {
		assert.Error(t, L.DoString(src), "sandbox should block %s", src)
	}
}

func TestSortedLuaFiles(t *testing.T) {
	got := sortedLuaFiles([]string{"rooms.lua", "game.lua", "items.lua"})
	assert.Equal(t, []string{"game.lua", "items.lua", "rooms.lua"}, got)
}

func TestDefault_LoadsCleanly(t *testing.T) {
	logger, buf := captureLogger()
	defs, err := Default(logger)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "level=WARN", "bundled world should load without warnings")

	assert.Equal(t, "entrance", defs.Game.Start)
	assert.Equal(t, "riddle", defs.Rooms["great_hall"].Puzzle)
	assert.True(t, defs.Rooms["village"].Safe, "village should be safe")
	assert.Equal(t, map[string]int{"health potion": 20, "magic sword": 50}, defs.Rooms["village"].Shop)
	assert.Len(t, defs.Encounters, 4)
}

// TestDefault_PlayThrough walks the bundled world from the entrance to the
// crypt with encounters switched off.
func TestDefault_PlayThrough(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Default(logger)
	require.NoError(t, err)
	defs.Encounters = nil

	e := engine.New(defs, engine.WithRNG(engine.NewRNG(7)), engine.WithLogger(logger))
	steps := []string{
		"take key",
		"n",
		"echo",
		"take glowing orb",
		"w",
		"take healing salve",
		"use key",
		"d",
		"e",
		"use glowing orb",
		"take silver crown",
	}
	for _, cmd := range steps {
		res := e.Step(cmd)
		require.False(t, res.Ended, "session ended at %q: %v", cmd, res.Output)
	}

	p := e.Player
	assert.Equal(t, "crypt", p.Location)
	assert.Equal(t, p.MaxHealth, p.Health)
	// 4 items taken at 10 each, riddle 40, orb placed 100.
	assert.Equal(t, 180, p.Score)
	assert.False(t, p.HasItem("glowing orb"), "the orb should have been consumed")
	assert.Equal(t, len(steps), e.Turn)
}

// TestDefault_TrapdoorSurvivesSaveAndLoad saves in the cellar after the key
// opened the trapdoor and checks the reloaded session can still climb up and
// go back down.
func TestDefault_TrapdoorSurvivesSaveAndLoad(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Default(logger)
	require.NoError(t, err)
	defs.Encounters = nil

	e := engine.New(defs, engine.WithLogger(logger), engine.WithPlayerName("Ada"))
	for _, cmd := range []string{"take key", "n", "echo", "w", "use key", "d"} {
		e.Step(cmd)
	}
	require.Equal(t, "cellar", e.Player.Location)

	data, err := save.Encode(e.Snapshot())
	require.NoError(t, err)
	rec, err := save.Decode(data)
	require.NoError(t, err)

	defs, err = Default(logger)
	require.NoError(t, err)
	defs.Encounters = nil
	resumed := engine.New(defs, engine.WithLogger(logger))
	require.NoError(t, resumed.Restore(rec))

	resumed.Step("u")
	require.Equal(t, "library", resumed.Player.Location)
	res := resumed.Step("d")
	assert.Equal(t, "cellar", resumed.Player.Location, "output: %v", res.Output)

	// The key has done its job and the cellar has been visited.
	resumed.Step("u")
	res = resumed.Step("use key")
	assert.Contains(t, res.Output, "There is nothing here for the key to open.")
}

func TestDefault_VillageSellsWithoutTouchingRooms(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Default(logger)
	require.NoError(t, err)
	defs.Encounters = nil

	e := engine.New(defs, engine.WithLogger(logger))
	e.Player.Gold = 20
	e.Step("e")
	e.Step("buy potion")
	assert.True(t, e.Player.HasItem("health potion"))
	assert.Zero(t, e.Player.Gold)

	library, err := e.World.GetRoom("library")
	require.NoError(t, err)
	assert.True(t, library.HasItem("healing salve"))
}

func TestDefault_CryptWithoutOrbHurts(t *testing.T) {
	logger, _ := captureLogger()
	defs, err := Default(logger)
	require.NoError(t, err)
	defs.Encounters = nil

	e := engine.New(defs, engine.WithLogger(logger))
	for _, cmd := range []string{"take key", "n", "abandon", "w", "use key", "d", "e"} {
		e.Step(cmd)
	}
	require.Equal(t, "crypt", e.Player.Location)
	assert.Equal(t, e.Player.MaxHealth-10, e.Player.Health)
}
