package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nathoo/delve/engine/player"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

func condTestState() (*player.Player, *world.World) {
	defs := &world.Defs{
		Game: types.GameDef{Start: "hall"},
		Rooms: map[string]types.RoomDef{
			"hall":   {ID: "hall", Exits: map[string]string{"down": "cellar"}, Puzzle: "riddle"},
			"cellar": {ID: "cellar"},
		},
	}
	w := world.New(defs)
	hall, _ := w.GetRoom("hall")
	hall.Visited = true
	hall.PuzzleSolved = true

	p := player.New("Ada", "hall", 100, nil)
	p.Inventory = []string{"rusty key"}
	p.Health = 40
	p.Score = 50
	p.Gold = 12
	return p, w
}

func TestEval(t *testing.T) {
	p, w := condTestState()

	inner := types.Condition{Type: "has_item", Params: map[string]any{"item": "sword"}}

	tests := []struct {
		name string
		cond types.Condition
		want bool
	}{
		{
			name: "has_item: player has item",
			cond: types.Condition{Type: "has_item", Params: map[string]any{"item": "rusty key"}},
			want: true,
		},
		{
			name: "has_item: player lacks item",
			cond: types.Condition{Type: "has_item", Params: map[string]any{"item": "sword"}},
			want: false,
		},
		{
			name: "in_room: matches",
			cond: types.Condition{Type: "in_room", Params: map[string]any{"room": "hall"}},
			want: true,
		},
		{
			name: "in_room: elsewhere",
			cond: types.Condition{Type: "in_room", Params: map[string]any{"room": "cellar"}},
			want: false,
		},
		{
			name: "puzzle_solved: defaults to current room",
			cond: types.Condition{Type: "puzzle_solved"},
			want: true,
		},
		{
			name: "puzzle_solved: other room",
			cond: types.Condition{Type: "puzzle_solved", Params: map[string]any{"room": "cellar"}},
			want: false,
		},
		{
			name: "puzzle_solved: unknown room",
			cond: types.Condition{Type: "puzzle_solved", Params: map[string]any{"room": "attic"}},
			want: false,
		},
		{
			name: "visited: hall",
			cond: types.Condition{Type: "visited", Params: map[string]any{"room": "hall"}},
			want: true,
		},
		{
			name: "visited: cellar",
			cond: types.Condition{Type: "visited", Params: map[string]any{"room": "cellar"}},
			want: false,
		},
		{
			name: "health_below: float from Lua",
			cond: types.Condition{Type: "health_below", Params: map[string]any{"value": float64(50)}},
			want: true,
		},
		{
			name: "health_below: not below",
			cond: types.Condition{Type: "health_below", Params: map[string]any{"value": 40}},
			want: false,
		},
		{
			name: "score_at_least: equal",
			cond: types.Condition{Type: "score_at_least", Params: map[string]any{"value": 50}},
			want: true,
		},
		{
			name: "gold_at_least: short",
			cond: types.Condition{Type: "gold_at_least", Params: map[string]any{"value": int64(20)}},
			want: false,
		},
		{
			name: "not: negates",
			cond: types.Condition{Type: "not", Inner: &inner},
			want: true,
		},
		{
			name: "not: without inner",
			cond: types.Condition{Type: "not"},
			want: true,
		},
		{
			name: "unknown type",
			cond: types.Condition{Type: "moon_phase"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Eval(tt.cond, p, w))
		})
	}
}

func TestAll(t *testing.T) {
	p, w := condTestState()

	assert.True(t, All(nil, p, w), "empty list")

	conds := []types.Condition{
		{Type: "has_item", Params: map[string]any{"item": "rusty key"}},
		{Type: "in_room", Params: map[string]any{"room": "hall"}},
	}
	assert.True(t, All(conds, p, w))

	conds = append(conds, types.Condition{Type: "has_item", Params: map[string]any{"item": "lamp"}})
	assert.False(t, All(conds, p, w), "one failing condition fails the list")
}
