package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// registerAPI registers all Lua constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructors(L, coll)
	registerConditionHelpers(L)
	registerEffectHelpers(L)
}

// curried registers a constructor of the form Name "id" { ... }.
func curried(L *lua.LState, name string, add func(id string, tbl *lua.LTable)) {
	L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			add(id, L.CheckTable(1))
			return 0
		}))
		return 1
	}))
}

func registerConstructors(L *lua.LState, coll *collector) {
	// Game { title = "...", ... }
	L.SetGlobal("Game", L.NewFunction(func(L *lua.LState) int {
		coll.game = L.CheckTable(1)
		return 0
	}))

	// Room "id" { ... }
	curried(L, "Room", func(id string, tbl *lua.LTable) {
		coll.rooms = append(coll.rooms, rawRoom{id: id, table: tbl})
	})

	// Puzzle "id" { prompt = "...", answers = { ... }, reward = { ... } }
	curried(L, "Puzzle", func(id string, tbl *lua.LTable) {
		coll.puzzles = append(coll.puzzles, rawPuzzle{id: id, table: tbl})
	})

	// Usable "item name" { effects = { ... } }
	curried(L, "Usable", func(item string, tbl *lua.LTable) {
		coll.usables = append(coll.usables, rawUsable{item: item, table: tbl})
	})

	// Encounter { text = "...", delta = 10 | { min, max }, gold = 0, weight = 1 }
	L.SetGlobal("Encounter", L.NewFunction(func(L *lua.LState) int {
		coll.encounters = append(coll.encounters, L.CheckTable(1))
		return 0
	}))

	// On("event_type", { conditions = {...}, effects = {...} })
	L.SetGlobal("On", L.NewFunction(func(L *lua.LState) int {
		eventType := L.CheckString(1)
		tbl := L.CheckTable(2)
		coll.handlers = append(coll.handlers, rawHandler{eventType: eventType, table: tbl})
		return 0
	}))
}

// node builds a {type = kind, ...} table from alternating key/value pairs.
// Empty string values are left out so optional arguments stay absent.
func node(L *lua.LState, kind string, kv ...any) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("type", lua.LString(kind))
	for i := 0; i+1 < len(kv); i += 2 {
		key := kv[i].(string)
		switch v := kv[i+1].(type) {
		case string:
			if v != "" {
				tbl.RawSetString(key, lua.LString(v))
			}
		case lua.LValue:
			tbl.RawSetString(key, v)
		}
	}
	return tbl
}

func registerConditionHelpers(L *lua.LState) {
	// HasItem("key")
	L.SetGlobal("HasItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "has_item", "item", L.CheckString(1)))
		return 1
	}))

	// InRoom("room_id")
	L.SetGlobal("InRoom", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "in_room", "room", L.CheckString(1)))
		return 1
	}))

	// PuzzleSolved(["room_id"]); defaults to the current room.
	L.SetGlobal("PuzzleSolved", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "puzzle_solved", "room", L.OptString(1, "")))
		return 1
	}))

	// Visited(["room_id"]); defaults to the current room.
	L.SetGlobal("Visited", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "visited", "room", L.OptString(1, "")))
		return 1
	}))

	// HealthBelow(n)
	L.SetGlobal("HealthBelow", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "health_below", "value", L.CheckNumber(1)))
		return 1
	}))

	// ScoreAtLeast(n)
	L.SetGlobal("ScoreAtLeast", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "score_at_least", "value", L.CheckNumber(1)))
		return 1
	}))

	// GoldAtLeast(n)
	L.SetGlobal("GoldAtLeast", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "gold_at_least", "value", L.CheckNumber(1)))
		return 1
	}))

	// Not(condition)
	L.SetGlobal("Not", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "not", "inner", L.CheckTable(1)))
		return 1
	}))
}

func registerEffectHelpers(L *lua.LState) {
	// Say("text")
	L.SetGlobal("Say", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "say", "text", L.CheckString(1)))
		return 1
	}))

	// GiveItem("item")
	L.SetGlobal("GiveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "give_item", "item", L.CheckString(1)))
		return 1
	}))

	// RemoveItem("item")
	L.SetGlobal("RemoveItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "remove_item", "item", L.CheckString(1)))
		return 1
	}))

	// PlaceItem("item"[, "room"])
	L.SetGlobal("PlaceItem", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "place_item", "item", L.CheckString(1), "room", L.OptString(2, "")))
		return 1
	}))

	// Damage(n)
	L.SetGlobal("Damage", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "damage", "amount", L.CheckNumber(1)))
		return 1
	}))

	// Heal(n)
	L.SetGlobal("Heal", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "heal", "amount", L.CheckNumber(1)))
		return 1
	}))

	// AddScore(n)
	L.SetGlobal("AddScore", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "add_score", "amount", L.CheckNumber(1)))
		return 1
	}))

	// AddGold(n)
	L.SetGlobal("AddGold", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "add_gold", "amount", L.CheckNumber(1)))
		return 1
	}))

	// MovePlayer("room")
	L.SetGlobal("MovePlayer", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "move_player", "room", L.CheckString(1)))
		return 1
	}))

	// OpenExit(["room",] "direction", "target")
	L.SetGlobal("OpenExit", L.NewFunction(func(L *lua.LState) int {
		if L.GetTop() >= 3 {
			L.Push(node(L, "open_exit",
				"room", L.CheckString(1),
				"direction", L.CheckString(2),
				"target", L.CheckString(3)))
			return 1
		}
		L.Push(node(L, "open_exit", "direction", L.CheckString(1), "target", L.CheckString(2)))
		return 1
	}))

	// CloseExit(["room",] "direction")
	L.SetGlobal("CloseExit", L.NewFunction(func(L *lua.LState) int {
		if L.GetTop() >= 2 {
			L.Push(node(L, "close_exit", "room", L.CheckString(1), "direction", L.CheckString(2)))
			return 1
		}
		L.Push(node(L, "close_exit", "direction", L.CheckString(1)))
		return 1
	}))

	// ResolvePuzzle(["room"])
	L.SetGlobal("ResolvePuzzle", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "resolve_puzzle", "room", L.OptString(1, "")))
		return 1
	}))

	// Stop()
	L.SetGlobal("Stop", L.NewFunction(func(L *lua.LState) int {
		L.Push(node(L, "stop"))
		return 1
	}))
}
