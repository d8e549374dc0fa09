// Package effects implements centralized state mutation via the Apply function.
// Every effect type is one atomic operation. No logic in effects.
package effects

import (
	"strconv"
	"strings"

	"github.com/nathoo/delve/engine/player"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// Context carries the resolved intent context needed for template interpolation.
type Context struct {
	Verb   string
	Object string
}

// Apply applies a list of effects to the player and world, mutating them.
// Returns events emitted and output text collected.
func Apply(p *player.Player, w *world.World, effects []types.Effect, ctx Context) ([]types.Event, []string) {
	var events []types.Event
	var output []string

	for _, eff := range effects {
		switch eff.Type {
		case "say":
			text, _ := eff.Params["text"].(string)
			output = append(output, interpolate(text, p, w, ctx))

		case "give_item":
			// Room to inventory in one step: the item leaves every room
			// before it lands in the inventory.
			item := resolveTemplate(str(eff.Params, "item"), ctx)
			if item == "" || p.HasItem(item) {
				continue
			}
			w.Purge([]string{item})
			p.AddItem(item)
			events = append(events, types.Event{
				Type: "item_taken",
				Data: map[string]any{"item": item, "room": p.Location},
			})

		case "remove_item":
			item := resolveTemplate(str(eff.Params, "item"), ctx)
			if p.RemoveItem(item) {
				events = append(events, types.Event{
					Type: "item_consumed",
					Data: map[string]any{"item": item},
				})
			}

		case "place_item":
			item := resolveTemplate(str(eff.Params, "item"), ctx)
			room := roomOrCurrent(eff.Params, p)
			if item == "" || !w.HasRoom(room) {
				continue
			}
			p.RemoveItem(item)
			w.Purge([]string{item})
			_ = w.AddItem(room, item)

		case "damage":
			amount := toInt(eff.Params["amount"])
			alive := p.ApplyDamage(amount)
			events = append(events, types.Event{
				Type: "player_damaged",
				Data: map[string]any{"amount": amount, "remaining": p.Health},
			})
			if !alive {
				events = append(events, types.Event{
					Type: "player_defeated",
					Data: map[string]any{"room": p.Location},
				})
				return events, output
			}

		case "heal":
			amount := toInt(eff.Params["amount"])
			p.Heal(amount)
			events = append(events, types.Event{
				Type: "player_healed",
				Data: map[string]any{"amount": amount, "current": p.Health},
			})

		case "add_score":
			p.AddScore(toInt(eff.Params["amount"]))

		case "add_gold":
			p.AddGold(toInt(eff.Params["amount"]))

		case "move_player":
			room := str(eff.Params, "room")
			r, err := w.GetRoom(room)
			if err != nil {
				continue
			}
			first := !r.Visited
			p.MoveTo(room)
			r.Visited = true
			events = append(events, types.Event{
				Type: "room_entered",
				Data: map[string]any{"room": room, "first_visit": first},
			})

		case "open_exit":
			room := roomOrCurrent(eff.Params, p)
			direction := str(eff.Params, "direction")
			target := str(eff.Params, "target")
			if err := w.Connect(room, direction, target); err != nil {
				continue
			}
			events = append(events, types.Event{
				Type: "exit_opened",
				Data: map[string]any{"room": room, "direction": direction, "target": target},
			})

		case "close_exit":
			_ = w.Disconnect(roomOrCurrent(eff.Params, p), str(eff.Params, "direction"))

		case "resolve_puzzle":
			room := roomOrCurrent(eff.Params, p)
			r, err := w.GetRoom(room)
			if err != nil || r.Puzzle == "" || r.PuzzleSolved {
				continue
			}
			r.PuzzleSolved = true
			r.PuzzleDeferred = false
			events = append(events, types.Event{
				Type: "puzzle_resolved",
				Data: map[string]any{"room": room, "puzzle": r.Puzzle},
			})

		case "stop":
			return events, output

		default:
			// Unknown effect types are ignored; the loader rejects them.
		}
	}

	return events, output
}

// interpolate replaces template variables in text.
func interpolate(text string, p *player.Player, w *world.World, ctx Context) string {
	if !strings.Contains(text, "{") {
		return text
	}
	roomName := p.Location
	if r, err := w.GetRoom(p.Location); err == nil {
		roomName = r.Name
	}
	r := strings.NewReplacer(
		"{verb}", ctx.Verb,
		"{object}", ctx.Object,
		"{player.name}", p.Name,
		"{player.health}", strconv.Itoa(p.Health),
		"{player.max_health}", strconv.Itoa(p.MaxHealth),
		"{player.score}", strconv.Itoa(p.Score),
		"{player.gold}", strconv.Itoa(p.Gold),
		"{player.location}", p.Location,
		"{player.inventory}", formatInventory(p.Inventory),
		"{room.name}", roomName,
	)
	return r.Replace(text)
}

// resolveTemplate handles {object} in effect params like GiveItem("{object}").
func resolveTemplate(s string, ctx Context) string {
	return strings.ReplaceAll(s, "{object}", ctx.Object)
}

// formatInventory creates a human-readable inventory list.
func formatInventory(items []string) string {
	if len(items) == 0 {
		return "nothing"
	}
	return strings.Join(items, ", ")
}

func roomOrCurrent(params map[string]any, p *player.Player) string {
	if room := str(params, "room"); room != "" {
		return room
	}
	return p.Location
}

func str(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}

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
