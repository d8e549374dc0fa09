// Package conditions evaluates the predicates attached to usables and event
// handlers in world scripts.
package conditions

import (
	"github.com/nathoo/delve/engine/player"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// Eval evaluates a single condition against the player and world.
// Unknown condition types are false.
func Eval(c types.Condition, p *player.Player, w *world.World) bool {
	switch c.Type {
	case "has_item":
		item, _ := c.Params["item"].(string)
		return p.HasItem(item)

	case "in_room":
		room, _ := c.Params["room"].(string)
		return p.Location == room

	case "puzzle_solved":
		r, err := w.GetRoom(roomParam(c, p))
		return err == nil && r.PuzzleSolved

	case "visited":
		r, err := w.GetRoom(roomParam(c, p))
		return err == nil && r.Visited

	case "health_below":
		return p.Health < toInt(c.Params["value"])

	case "score_at_least":
		return p.Score >= toInt(c.Params["value"])

	case "gold_at_least":
		return p.Gold >= toInt(c.Params["value"])

	case "not":
		if c.Inner == nil {
			return true
		}
		return !Eval(*c.Inner, p, w)

	default:
		return false
	}
}

// All returns true if all conditions pass (AND logic).
// An empty condition list is vacuously true.
func All(conds []types.Condition, p *player.Player, w *world.World) bool {
	for _, c := range conds {
		if !Eval(c, p, w) {
			return false
		}
	}
	return true
}

// roomParam defaults to the player's room when "room" is not given.
func roomParam(c types.Condition, p *player.Player) string {
	if room, ok := c.Params["room"].(string); ok && room != "" {
		return room
	}
	return p.Location
}

// toInt converts an any value to int, handling float64 from Lua.
func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	case int64:
		return int(n)
	default:
		return 0
	}
}
