// Package events implements single-pass event handler dispatch.
// Event handlers produce additional effects but do not recurse.
package events

import (
	"github.com/nathoo/delve/engine/conditions"
	"github.com/nathoo/delve/engine/player"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// Dispatch runs event handlers against the emitted events in a single pass,
// without recursion. Returns the effects produced by matching handlers.
func Dispatch(events []types.Event, handlers []types.EventHandler, p *player.Player, w *world.World) []types.Effect {
	var result []types.Effect

	for _, event := range events {
		for _, handler := range handlers {
			if handler.EventType != event.Type {
				continue
			}
			if !conditions.All(handler.Conditions, p, w) {
				continue
			}
			result = append(result, handler.Effects...)
		}
	}

	return result
}
