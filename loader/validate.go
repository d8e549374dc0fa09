package loader

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// Known effect types.
var validEffectTypes = map[string]bool{
	"say":            true,
	"give_item":      true,
	"remove_item":    true,
	"place_item":     true,
	"damage":         true,
	"heal":           true,
	"add_score":      true,
	"add_gold":       true,
	"move_player":    true,
	"open_exit":      true,
	"close_exit":     true,
	"resolve_puzzle": true,
	"stop":           true,
}

// Known condition types.
var validConditionTypes = map[string]bool{
	"has_item":       true,
	"in_room":        true,
	"puzzle_solved":  true,
	"visited":        true,
	"health_below":   true,
	"score_at_least": true,
	"gold_at_least":  true,
	"not":            true,
}

// Events the engine emits; handlers for anything else never fire.
var knownEvents = map[string]bool{
	"item_taken":      true,
	"item_consumed":   true,
	"player_damaged":  true,
	"player_healed":   true,
	"player_defeated": true,
	"room_entered":    true,
	"exit_opened":     true,
	"puzzle_resolved": true,
}

// validate checks the compiled defs for referential integrity. Warnings are
// logged; errors are returned together as a *ValidationError.
func validate(defs *world.Defs, logger *slog.Logger) error {
	ve := &ValidationError{}

	// Start room exists and leads somewhere.
	if defs.Game.Start == "" {
		ve.Errors = append(ve.Errors, "Game.start is required")
	} else if start, ok := defs.Rooms[defs.Game.Start]; !ok {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start room %q not found in defined rooms", defs.Game.Start))
	} else if len(start.Exits) == 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"start room %q has no exits", defs.Game.Start))
	}

	if c := defs.Game.EncounterChance; c != nil && (*c < 0 || *c > 1) {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Game.encounter_chance %v is outside [0, 1]", *c))
	}
	if s := defs.Game.TakeScore; s != nil && *s < 0 {
		ve.Errors = append(ve.Errors, fmt.Sprintf(
			"Game.take_score %d is negative", *s))
	}

	itemRoom := map[string]string{}
	stockRoom := map[string]string{}
	usedPuzzles := map[string]bool{}
	for _, roomID := range sortedRoomIDs(defs) {
		room := defs.Rooms[roomID]
		for dir, target := range room.Exits {
			if _, ok := defs.Rooms[target]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q exit %q points to undefined room %q", roomID, dir, target))
			}
		}
		if room.Puzzle != "" {
			if _, ok := defs.Puzzles[room.Puzzle]; !ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q references undefined puzzle %q", roomID, room.Puzzle))
			}
			usedPuzzles[room.Puzzle] = true
		}
		for _, item := range room.Items {
			if other, ok := itemRoom[item]; ok {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"item %q is placed in both %q and %q", item, other, roomID))
				continue
			}
			itemRoom[item] = roomID
		}
		for item, price := range room.Shop {
			if price <= 0 {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"room %q sells %q for %d gold; prices must be positive", roomID, item, price))
			}
			if _, ok := stockRoom[item]; !ok {
				stockRoom[item] = roomID
			}
		}
	}

	// Items are identified by name, so a bought item would take the room's
	// copy with it.
	for _, item := range sortedKeys(stockRoom) {
		if roomID, ok := itemRoom[item]; ok {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"item %q is sold in %q and also placed in %q", item, stockRoom[item], roomID))
		}
		for _, placed := range placedItems(defs) {
			if placed == item {
				ve.Errors = append(ve.Errors, fmt.Sprintf(
					"item %q is sold in %q and also placed by a script", item, stockRoom[item]))
				break
			}
		}
	}

	for id, p := range defs.Puzzles {
		if len(p.Answers) == 0 {
			ve.Errors = append(ve.Errors, fmt.Sprintf("puzzle %q has no answers", id))
		}
		if p.Prompt == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("puzzle %q has no prompt", id))
		}
		if !usedPuzzles[id] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("puzzle %q is not used by any room", id))
		}
		validateEffects(p.Reward, defs, ve)
	}

	for _, u := range defs.Usables {
		validateConditions(u.Requires, defs, ve)
		validateEffects(u.Effects, defs, ve)
	}

	for i, enc := range defs.Encounters {
		if enc.Text == "" {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("encounter %d has no text", i+1))
		}
	}

	for _, handler := range defs.Handlers {
		if !knownEvents[handler.EventType] {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"handler for unknown event %q will never fire", handler.EventType))
		}
		validateConditions(handler.Conditions, defs, ve)
		validateEffects(handler.Effects, defs, ve)
	}

	if len(ve.Errors) == 0 {
		for _, id := range unreachable(defs) {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf(
				"room %q cannot be reached from %q", id, defs.Game.Start))
		}
	}

	sort.Strings(ve.Warnings)
	for _, w := range ve.Warnings {
		logger.Warn("world script", "warning", w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// unreachable reports rooms that no path from the start room reaches, even
// after every scripted open_exit has fired.
func unreachable(defs *world.Defs) []string {
	w := world.New(defs)
	connect := func(effs []types.Effect) {
		for _, eff := range effs {
			if eff.Type != "open_exit" {
				continue
			}
			room, _ := eff.Params["room"].(string)
			dir, _ := eff.Params["direction"].(string)
			target, _ := eff.Params["target"].(string)
			if room == "" {
				// Relative to wherever the player stands; any room could do.
				for _, id := range w.RoomIDs() {
					_ = w.Connect(id, dir, target)
				}
				continue
			}
			_ = w.Connect(room, dir, target)
		}
	}
	for _, u := range defs.Usables {
		connect(u.Effects)
	}
	for _, p := range defs.Puzzles {
		connect(p.Reward)
	}
	for _, h := range defs.Handlers {
		connect(h.Effects)
	}
	return w.Unreachable(defs.Game.Start)
}

func validateConditions(conditions []types.Condition, defs *world.Defs, ve *ValidationError) {
	for _, cond := range conditions {
		if !validConditionTypes[cond.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"unknown condition type %q", cond.Type))
		}

		switch cond.Type {
		case "in_room", "puzzle_solved", "visited":
			if room, ok := cond.Params["room"].(string); ok && !isTemplate(room) {
				if _, ok := defs.Rooms[room]; !ok {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"condition %s references undefined room %q", cond.Type, room))
				}
			}
		case "not":
			if cond.Inner != nil {
				validateConditions([]types.Condition{*cond.Inner}, defs, ve)
			}
		}
	}
}

func validateEffects(effects []types.Effect, defs *world.Defs, ve *ValidationError) {
	for _, eff := range effects {
		if !validEffectTypes[eff.Type] {
			ve.Errors = append(ve.Errors, fmt.Sprintf(
				"unknown effect type %q", eff.Type))
		}

		for _, key := range roomParams[eff.Type] {
			if room, ok := eff.Params[key].(string); ok && !isTemplate(room) {
				if _, ok := defs.Rooms[room]; !ok {
					ve.Errors = append(ve.Errors, fmt.Sprintf(
						"effect %s references undefined room %q", eff.Type, room))
				}
			}
		}
	}
}

// roomParams lists, per effect type, the params that name a room.
var roomParams = map[string][]string{
	"place_item":     {"room"},
	"move_player":    {"room"},
	"open_exit":      {"room", "target"},
	"close_exit":     {"room"},
	"resolve_puzzle": {"room"},
}

// placedItems lists the items that place_item effects drop into rooms.
func placedItems(defs *world.Defs) []string {
	var items []string
	collect := func(effs []types.Effect) {
		for _, eff := range effs {
			if eff.Type != "place_item" {
				continue
			}
			if item, ok := eff.Params["item"].(string); ok && !isTemplate(item) {
				items = append(items, item)
			}
		}
	}
	for _, u := range defs.Usables {
		collect(u.Effects)
	}
	for _, p := range defs.Puzzles {
		collect(p.Reward)
	}
	for _, h := range defs.Handlers {
		collect(h.Effects)
	}
	return items
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedRoomIDs(defs *world.Defs) []string {
	ids := make([]string, 0, len(defs.Rooms))
	for id := range defs.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// isTemplate returns true if the string contains a template variable.
func isTemplate(s string) bool {
	return strings.Contains(s, "{") && strings.Contains(s, "}")
}
