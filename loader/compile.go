// Package loader loads Lua world scripts into Go structs at start-up.
// The Lua VM is discarded after loading; nothing runs Lua during play.
package loader

import (
	"fmt"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// Defaults applied when the Game table leaves a field out.
const (
	DefaultMaxHealth = 100
	DefaultTitle     = "Untitled Adventure"
)

type rawRoom struct {
	id    string
	table *lua.LTable
}

type rawPuzzle struct {
	id    string
	table *lua.LTable
}

type rawUsable struct {
	item  string
	table *lua.LTable
}

type rawHandler struct {
	eventType string
	table     *lua.LTable
}

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	v := tbl.RawGetString(key)
	if s, ok := v.(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getBool returns a bool field from a Lua table, or the default if missing.
func getBool(tbl *lua.LTable, key string, def bool) bool {
	v := tbl.RawGetString(key)
	if b, ok := v.(lua.LBool); ok {
		return bool(b)
	}
	return def
}

// getNumber returns a numeric field from a Lua table, or 0 if missing.
func getNumber(tbl *lua.LTable, key string) float64 {
	v := tbl.RawGetString(key)
	if n, ok := v.(lua.LNumber); ok {
		return float64(n)
	}
	return 0
}

// optNumber returns a number field from a Lua table, or nil if the key is
// absent, so an explicit 0 can be told apart from a missing value.
func optNumber(tbl *lua.LTable, key string) *float64 {
	if n, ok := tbl.RawGetString(key).(lua.LNumber); ok {
		f := float64(n)
		return &f
	}
	return nil
}

// getInt returns an int field from a Lua table, or 0 if missing.
func getInt(tbl *lua.LTable, key string) int {
	return int(getNumber(tbl, key))
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	v := tbl.RawGetString(key)
	if t, ok := v.(*lua.LTable); ok {
		return t
	}
	return nil
}

// toGoValue converts a Lua value to a Go value recursively.
func toGoValue(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LBool:
		return bool(val)
	case lua.LNumber:
		f := float64(val)
		if f == float64(int(f)) {
			return int(f)
		}
		return f
	case *lua.LNilType:
		return nil
	case lua.LString:
		return string(val)
	case *lua.LTable:
		// Check if it's an array (sequential integer keys starting at 1).
		maxN := val.MaxN()
		if maxN > 0 {
			arr := make([]any, 0, maxN)
			for i := 1; i <= maxN; i++ {
				arr = append(arr, toGoValue(val.RawGetInt(i)))
			}
			return arr
		}
		m := map[string]any{}
		val.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok {
				m[string(ks)] = toGoValue(v)
			}
		})
		return m
	default:
		return nil
	}
}

// tableToStrings returns the array part of a Lua table as strings, in order.
func tableToStrings(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// tableToStringMap converts a Lua table to a map[string]string.
func tableToStringMap(tbl *lua.LTable) map[string]string {
	if tbl == nil {
		return nil
	}
	m := map[string]string{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if vs, ok := v.(lua.LString); ok {
				m[string(ks)] = string(vs)
			}
		}
	})
	return m
}

// tableToIntMap converts a Lua table to a map[string]int.
func tableToIntMap(tbl *lua.LTable) map[string]int {
	if tbl == nil {
		return nil
	}
	m := map[string]int{}
	tbl.ForEach(func(k, v lua.LValue) {
		if ks, ok := k.(lua.LString); ok {
			if n, ok := v.(lua.LNumber); ok {
				m[string(ks)] = int(n)
			}
		}
	})
	return m
}

// normalize folds case and collapses whitespace, matching what the parser
// does to player input. Item names and exit labels go through it so that
// "Health Potion" in a script matches "use health potion" at the prompt.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func normalizeAll(items []string) []string {
	if items == nil {
		return nil
	}
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = normalize(s)
	}
	return out
}

// compile converts all collected Lua data into a Defs struct.
func compile(coll *collector) (*world.Defs, error) {
	defs := &world.Defs{
		Rooms:   map[string]types.RoomDef{},
		Puzzles: map[string]types.PuzzleDef{},
		Usables: map[string]types.UsableDef{},
	}

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	defs.Game = compileGame(coll.game)

	for _, raw := range coll.rooms {
		if _, dup := defs.Rooms[raw.id]; dup {
			return nil, fmt.Errorf("room %q defined twice", raw.id)
		}
		defs.Rooms[raw.id] = compileRoom(raw)
	}

	for _, raw := range coll.puzzles {
		if _, dup := defs.Puzzles[raw.id]; dup {
			return nil, fmt.Errorf("puzzle %q defined twice", raw.id)
		}
		defs.Puzzles[raw.id] = compilePuzzle(raw)
	}

	for _, raw := range coll.usables {
		u := compileUsable(raw)
		if _, dup := defs.Usables[u.Item]; dup {
			return nil, fmt.Errorf("usable %q defined twice", u.Item)
		}
		defs.Usables[u.Item] = u
	}

	for i, tbl := range coll.encounters {
		enc, err := compileEncounter(tbl)
		if err != nil {
			return nil, fmt.Errorf("compiling encounter %d: %w", i+1, err)
		}
		defs.Encounters = append(defs.Encounters, enc)
	}

	for _, raw := range coll.handlers {
		defs.Handlers = append(defs.Handlers, compileHandler(raw))
	}

	return defs, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	game := types.GameDef{
		Title:           getString(tbl, "title"),
		Author:          getString(tbl, "author"),
		Version:         getString(tbl, "version"),
		Start:           getString(tbl, "start"),
		Intro:           getString(tbl, "intro"),
		MaxHealth:       getInt(tbl, "max_health"),
		EncounterChance: optNumber(tbl, "encounter_chance"),
		StartGold:       getInt(tbl, "start_gold"),
	}
	if game.Title == "" {
		game.Title = DefaultTitle
	}
	if game.MaxHealth <= 0 {
		game.MaxHealth = DefaultMaxHealth
	}
	if n := optNumber(tbl, "take_score"); n != nil {
		score := int(*n)
		game.TakeScore = &score
	}
	return game
}

func compileRoom(raw rawRoom) types.RoomDef {
	tbl := raw.table
	room := types.RoomDef{
		ID:          raw.id,
		Name:        getString(tbl, "name"),
		Description: getString(tbl, "description"),
		Items:       normalizeAll(tableToStrings(getTable(tbl, "items"))),
		Puzzle:      getString(tbl, "puzzle"),
		Safe:        getBool(tbl, "safe", false),
	}
	if exits := tableToStringMap(getTable(tbl, "exits")); exits != nil {
		room.Exits = make(map[string]string, len(exits))
		for dir, target := range exits {
			room.Exits[normalize(dir)] = target
		}
	}
	if shop := tableToIntMap(getTable(tbl, "shop")); shop != nil {
		room.Shop = make(map[string]int, len(shop))
		for item, price := range shop {
			room.Shop[normalize(item)] = price
		}
	}
	return room
}

func compilePuzzle(raw rawPuzzle) types.PuzzleDef {
	tbl := raw.table
	p := types.PuzzleDef{
		ID:         raw.id,
		Prompt:     getString(tbl, "prompt"),
		Answers:    normalizeAll(tableToStrings(getTable(tbl, "answers"))),
		Hint:       getString(tbl, "hint"),
		SolvedText: getString(tbl, "solved_text"),
	}
	// A single answer may be given as a plain string.
	if len(p.Answers) == 0 {
		if answer := getString(tbl, "answer"); answer != "" {
			p.Answers = []string{normalize(answer)}
		}
	}
	if rewardTbl := getTable(tbl, "reward"); rewardTbl != nil {
		p.Reward = compileEffects(rewardTbl)
	}
	return p
}

func compileUsable(raw rawUsable) types.UsableDef {
	tbl := raw.table
	u := types.UsableDef{
		Item:       normalize(raw.item),
		Consumable: getBool(tbl, "consumable", false),
		Fail:       getString(tbl, "fail"),
	}
	if reqTbl := getTable(tbl, "requires"); reqTbl != nil {
		u.Requires = compileConditions(reqTbl)
	}
	if effTbl := getTable(tbl, "effects"); effTbl != nil {
		u.Effects = compileEffects(effTbl)
	}
	return u
}

// compileEncounter reads one catalogue entry. delta is either a number or a
// range given as { min, max } or { min = .., max = .. }.
func compileEncounter(tbl *lua.LTable) (types.EncounterDef, error) {
	enc := types.EncounterDef{
		Text:   getString(tbl, "text"),
		Gold:   getInt(tbl, "gold"),
		Weight: getInt(tbl, "weight"),
	}
	if enc.Weight == 0 {
		enc.Weight = 1
	}
	if enc.Weight < 0 {
		return enc, fmt.Errorf("weight must not be negative, got %d", enc.Weight)
	}

	switch v := tbl.RawGetString("delta").(type) {
	case lua.LNumber:
		enc.Delta = int(v)
	case *lua.LTable:
		lo, hi := v.RawGetInt(1), v.RawGetInt(2)
		if lo == lua.LNil {
			lo, hi = v.RawGetString("min"), v.RawGetString("max")
		}
		from, ok1 := lo.(lua.LNumber)
		to, ok2 := hi.(lua.LNumber)
		if !ok1 || !ok2 {
			return enc, fmt.Errorf("delta range needs two numbers")
		}
		if from > to {
			return enc, fmt.Errorf("delta range %v..%v is reversed", from, to)
		}
		enc.Delta, enc.DeltaMax = int(from), int(to)
	case *lua.LNilType:
	default:
		return enc, fmt.Errorf("delta must be a number or a range, got %s", v.Type())
	}
	return enc, nil
}

func compileConditions(tbl *lua.LTable) []types.Condition {
	var conditions []types.Condition
	for i := 1; i <= tbl.MaxN(); i++ {
		if condTbl, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			conditions = append(conditions, compileCondition(condTbl))
		}
	}
	return conditions
}

func compileCondition(tbl *lua.LTable) types.Condition {
	condType := getString(tbl, "type")

	if condType == "not" {
		if innerTbl := getTable(tbl, "inner"); innerTbl != nil {
			inner := compileCondition(innerTbl)
			return types.Condition{
				Type:   "not",
				Negate: true,
				Inner:  &inner,
			}
		}
	}

	return types.Condition{
		Type:   condType,
		Params: compileParams(tbl),
	}
}

func compileEffects(tbl *lua.LTable) []types.Effect {
	var effects []types.Effect
	for i := 1; i <= tbl.MaxN(); i++ {
		if effTbl, ok := tbl.RawGetInt(i).(*lua.LTable); ok {
			effects = append(effects, types.Effect{
				Type:   getString(effTbl, "type"),
				Params: compileParams(effTbl),
			})
		}
	}
	return effects
}

// compileParams copies every field except "type", normalizing item names
// and exit labels.
func compileParams(tbl *lua.LTable) map[string]any {
	params := map[string]any{}
	tbl.ForEach(func(k, v lua.LValue) {
		ks, ok := k.(lua.LString)
		if !ok || ks == "type" {
			return
		}
		key := string(ks)
		val := toGoValue(v)
		if s, ok := val.(string); ok && (key == "item" || key == "direction") {
			val = normalize(s)
		}
		params[key] = val
	})
	return params
}

func compileHandler(raw rawHandler) types.EventHandler {
	handler := types.EventHandler{
		EventType: raw.eventType,
	}
	if condTbl := getTable(raw.table, "conditions"); condTbl != nil {
		handler.Conditions = compileConditions(condTbl)
	}
	if effTbl := getTable(raw.table, "effects"); effTbl != nil {
		handler.Effects = compileEffects(effTbl)
	}
	return handler
}

// sortedLuaFiles returns .lua files with game.lua first and the rest
// sorted alphabetically.
func sortedLuaFiles(files []string) []string {
	var gameFile string
	var others []string
	for _, f := range files {
		if f == "game.lua" {
			gameFile = f
		} else {
			others = append(others, f)
		}
	}
	sort.Strings(others)
	if gameFile != "" {
		return append([]string{gameFile}, others...)
	}
	return others
}
