package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nathoo/delve/engine/conditions"
	"github.com/nathoo/delve/engine/effects"
	"github.com/nathoo/delve/engine/encounter"
	"github.com/nathoo/delve/engine/resolve"
	"github.com/nathoo/delve/engine/save"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

var helpText = []string{
	"Commands:",
	"  look                 describe the room",
	"  move <direction>     walk through an exit (or just n, s, e, w, u, d)",
	"  take <item>          pick up an item",
	"  use <item>           use an item you carry",
	"  explore              search the room",
	"  inventory, health, score, status",
	"  shop, buy <item>     trade where a merchant is present",
	"  abandon              step away from a challenge",
	"  save                 save your progress",
	"  help, quit",
}

// RoomName returns a room's display name. Rooms without an explicit name
// fall back to a title-cased ID.
func (e *Engine) RoomName(roomID string) string {
	r, err := e.World.GetRoom(roomID)
	if err != nil {
		return roomID
	}
	return displayName(r)
}

func displayName(r *world.Room) string {
	if r.Name != r.ID {
		return r.Name
	}
	return cases.Title(language.English).String(strings.ReplaceAll(r.ID, "_", " "))
}

// describeRoom produces the standard room description output.
func (e *Engine) describeRoom(r *world.Room, heading string) []string {
	output := []string{heading, r.Description}

	if len(r.Items) > 0 {
		output = append(output, "You see: "+strings.Join(r.Items, ", ")+".")
	}
	if len(r.Shop) > 0 {
		output = append(output, "A merchant has set up shop here. Type 'shop' to browse.")
	}

	dirs := r.ExitDirections()
	if len(dirs) > 0 {
		output = append(output, "Exits: "+strings.Join(dirs, ", ")+".")
	}
	return output
}

// puzzlePrompt returns the challenge text if the room's puzzle is pending.
func (e *Engine) puzzlePrompt(roomID string) []string {
	def, ok := e.puzzles.Pending(roomID)
	if !ok {
		return nil
	}
	return []string{
		"A challenge bars your way: " + def.Prompt,
		"(Type your answer, or 'abandon' to step away.)",
	}
}

func (e *Engine) currentRoom() *world.Room {
	r, err := e.World.GetRoom(e.Player.Location)
	if err != nil {
		// The player's location is always a room; anything else is a bug.
		panic(err)
	}
	return r
}

func (e *Engine) builtinLook(res *types.Result) {
	r := e.currentRoom()
	res.Output = append(res.Output, e.describeRoom(r, displayName(r))...)
	res.Output = append(res.Output, e.puzzlePrompt(r.ID)...)
}

func (e *Engine) builtinMove(res *types.Result, direction string) {
	target, ok := e.World.Destination(e.Player.Location, direction)
	if !ok {
		res.Output = append(res.Output, fmt.Sprintf("You can't go %s from here.", direction))
		return
	}
	r, err := e.World.GetRoom(target)
	if err != nil {
		var nf *world.NotFoundError
		if errors.As(err, &nf) {
			e.logger.Error("exit leads nowhere", "from", e.Player.Location, "direction", direction, "to", nf.ID)
		}
		res.Output = append(res.Output, fmt.Sprintf("You can't go %s from here.", direction))
		return
	}

	heading := "You return to the " + displayName(r) + "."
	if !r.Visited {
		heading = "You enter the " + displayName(r) + "."
	}
	res.Output = append(res.Output, e.describeRoom(r, heading)...)

	ctx := effects.Context{Verb: "move", Object: direction}
	e.apply(res, []types.Effect{
		{Type: "move_player", Params: map[string]any{"room": target}},
	}, ctx)

	if !r.Safe {
		if def, ok := e.encounters.Draw(); ok {
			e.logger.Debug("encounter", "room", target, "delta", def.Delta, "gold", def.Gold)
			e.apply(res, encounter.Effects(def), ctx)
		}
	}
	if !e.Player.Alive() {
		return
	}

	// Re-entering a room offers a deferred puzzle again.
	e.puzzles.Reoffer(target)
	res.Output = append(res.Output, e.puzzlePrompt(target)...)
}

// resolveItem expands a typed noun to a full item name, trying each pool
// in order. A name nothing matches comes back unchanged so the caller can
// report it; an ambiguous one is reported here and ok is false.
func (e *Engine) resolveItem(res *types.Result, query string, pools ...[]string) (string, bool) {
	for _, pool := range pools {
		name, err := resolve.Item(query, pool)
		var amb *resolve.AmbiguityError
		switch {
		case err == nil:
			return name, true
		case errors.As(err, &amb):
			res.Output = append(res.Output, amb.Error())
			return "", false
		}
	}
	return query, true
}

func (e *Engine) builtinTake(res *types.Result, item string) {
	r := e.currentRoom()
	item, ok := e.resolveItem(res, item, r.Items, e.Player.Inventory)
	if !ok {
		return
	}
	if !r.HasItem(item) {
		if e.Player.HasItem(item) {
			res.Output = append(res.Output, fmt.Sprintf("You already have the %s.", item))
			return
		}
		res.Output = append(res.Output, fmt.Sprintf("There is no %s here.", item))
		return
	}

	score := DefaultTakeScore
	if s := e.Defs.Game.TakeScore; s != nil {
		score = *s
	}
	res.Output = append(res.Output, fmt.Sprintf("You take the %s.", item))
	e.apply(res, []types.Effect{
		{Type: "give_item", Params: map[string]any{"item": item}},
		{Type: "add_score", Params: map[string]any{"amount": score}},
	}, effects.Context{Verb: "take", Object: item})
}

func (e *Engine) builtinUse(res *types.Result, item string) {
	item, ok := e.resolveItem(res, item, e.Player.Inventory)
	if !ok {
		return
	}
	if !e.Player.HasItem(item) {
		res.Output = append(res.Output, fmt.Sprintf("You don't have a %s.", item))
		return
	}
	def, ok := e.Defs.Usables[item]
	if !ok {
		res.Output = append(res.Output, fmt.Sprintf("You can't use the %s right now.", item))
		return
	}
	if !conditions.All(def.Requires, e.Player, e.World) {
		msg := def.Fail
		if msg == "" {
			msg = fmt.Sprintf("You can't use the %s right now.", item)
		}
		res.Output = append(res.Output, msg)
		return
	}

	effs := append([]types.Effect{}, def.Effects...)
	if def.Consumable {
		effs = append(effs, types.Effect{Type: "remove_item", Params: map[string]any{"item": item}})
	}
	before := len(res.Output)
	e.apply(res, effs, effects.Context{Verb: "use", Object: item})
	if len(res.Output) == before {
		res.Output = append(res.Output, fmt.Sprintf("You use the %s.", item))
	}
}

func (e *Engine) builtinInventory(res *types.Result) {
	inv := e.Player.Inventory
	if len(inv) == 0 {
		res.Output = append(res.Output, "You are carrying nothing.")
		return
	}
	res.Output = append(res.Output, "You are carrying: "+strings.Join(inv, ", ")+".")
}

func (e *Engine) builtinStatus(res *types.Result) {
	p := e.Player
	inv := "nothing"
	if len(p.Inventory) > 0 {
		inv = strings.Join(p.Inventory, ", ")
	}
	res.Output = append(res.Output,
		fmt.Sprintf("%s, turn %d", p.Name, e.Turn),
		fmt.Sprintf("  Health:    %d/%d", p.Health, p.MaxHealth),
		fmt.Sprintf("  Score:     %d", p.Score),
		fmt.Sprintf("  Gold:      %d", p.Gold),
		fmt.Sprintf("  Location:  %s", e.RoomName(p.Location)),
		fmt.Sprintf("  Inventory: %s", inv),
	)
}

// builtinExplore reveals the room's items one at a time and offers a
// deferred puzzle again.
func (e *Engine) builtinExplore(res *types.Result) {
	r := e.currentRoom()
	found := 0
	r.Reveal(func(item string) {
		found++
		res.Output = append(res.Output, fmt.Sprintf("You find: %s.", item))
	})
	if found == 0 {
		res.Output = append(res.Output, "You search carefully but find nothing of interest.")
	}
	if e.puzzles.Reoffer(r.ID) {
		res.Output = append(res.Output, e.puzzlePrompt(r.ID)...)
	}
}

func (e *Engine) builtinSave(ctx context.Context, res *types.Result) {
	if e.saver == nil {
		res.Output = append(res.Output, "Saving is not available.")
		return
	}
	rec := e.Snapshot()
	if err := e.saver.Save(ctx, rec); err != nil {
		e.logger.Error("save failed", "player", rec.Name, "error", err)
		msg := "Could not save your game."
		var ioErr *save.IOError
		if errors.As(err, &ioErr) && ioErr.Err != nil {
			msg = fmt.Sprintf("Could not save your game (%v).", ioErr.Err)
		}
		res.Output = append(res.Output, msg+" Your previous save is untouched.")
		return
	}
	e.logger.Info("game saved", "player", rec.Name, "key", save.Key(rec.Name), "turn", rec.Turn)
	res.Output = append(res.Output, "Game saved.")
}

func (e *Engine) builtinShop(res *types.Result) {
	r := e.currentRoom()
	if len(r.Shop) == 0 {
		res.Output = append(res.Output, "There is nothing to buy here.")
		return
	}
	items := shopItems(r)
	res.Output = append(res.Output, fmt.Sprintf("For sale (you have %d gold):", e.Player.Gold))
	for _, item := range items {
		res.Output = append(res.Output, fmt.Sprintf("  %-20s %d gold", item, r.Shop[item]))
	}
}

// shopItems lists what the room's merchant sells, sorted.
func shopItems(r *world.Room) []string {
	items := make([]string, 0, len(r.Shop))
	for item := range r.Shop {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

func (e *Engine) builtinBuy(res *types.Result, item string) {
	r := e.currentRoom()
	item, ok := e.resolveItem(res, item, shopItems(r))
	if !ok {
		return
	}
	price, ok := r.Shop[item]
	if !ok {
		if len(r.Shop) == 0 {
			res.Output = append(res.Output, "There is nothing to buy here.")
			return
		}
		res.Output = append(res.Output, fmt.Sprintf("The merchant doesn't sell %s.", item))
		return
	}
	if e.Player.HasItem(item) {
		res.Output = append(res.Output, fmt.Sprintf("You already have the %s.", item))
		return
	}
	if e.Player.Gold < price {
		res.Output = append(res.Output, fmt.Sprintf("The %s costs %d gold. You have %d.", item, price, e.Player.Gold))
		return
	}

	res.Output = append(res.Output, fmt.Sprintf("You buy the %s for %d gold.", item, price))
	// give_item purges rooms of the name; the loader keeps stock out of rooms.
	e.apply(res, []types.Effect{
		{Type: "add_gold", Params: map[string]any{"amount": -price}},
		{Type: "give_item", Params: map[string]any{"item": item}},
	}, effects.Context{Verb: "buy", Object: item})
}

func (e *Engine) builtinAbandon(res *types.Result) {
	if !e.puzzles.Defer(e.Player.Location) {
		res.Output = append(res.Output, "There is nothing to step away from.")
		return
	}
	res.Output = append(res.Output, "You step away from the challenge. Type 'explore' to face it again.")
}
