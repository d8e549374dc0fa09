// Package world holds the room graph: immutable definitions loaded from
// world scripts and the runtime rooms whose items, exits and puzzle state
// change during play.
package world

import (
	"fmt"
	"slices"
	"sort"

	"github.com/nathoo/delve/types"
)

// Defs holds the immutable world definitions loaded from Lua.
type Defs struct {
	Game       types.GameDef
	Rooms      map[string]types.RoomDef
	Puzzles    map[string]types.PuzzleDef
	Usables    map[string]types.UsableDef
	Encounters []types.EncounterDef
	Handlers   []types.EventHandler
}

// NotFoundError reports a reference to a room that does not exist.
// Correct play never produces one; seeing it means a logic bug.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Room is the runtime state of a single location.
type Room struct {
	ID             string
	Name           string
	Description    string
	Items          []string
	Exits          map[string]string
	Puzzle         string
	PuzzleSolved   bool
	PuzzleDeferred bool
	Visited        bool
	Safe           bool
	Shop           map[string]int
}

// HasItem reports whether the item lies in the room.
func (r *Room) HasItem(item string) bool {
	return slices.Contains(r.Items, item)
}

// Reveal calls fn for each item in the room, in order. It iterates over a
// copy, so fn may take items without disturbing the walk.
func (r *Room) Reveal(fn func(item string)) {
	for _, item := range slices.Clone(r.Items) {
		fn(item)
	}
}

// ExitDirections returns the room's exit labels in sorted order.
func (r *Room) ExitDirections() []string {
	dirs := make([]string, 0, len(r.Exits))
	for dir := range r.Exits {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// World is the room graph. Rooms are created once and never destroyed.
type World struct {
	Start string
	rooms map[string]*Room
}

// New builds runtime rooms from definitions. Definitions are copied so the
// runtime graph can be patched without touching Defs.
func New(defs *Defs) *World {
	w := &World{
		Start: defs.Game.Start,
		rooms: make(map[string]*Room, len(defs.Rooms)),
	}
	for id, def := range defs.Rooms {
		exits := make(map[string]string, len(def.Exits))
		for dir, target := range def.Exits {
			exits[dir] = target
		}
		name := def.Name
		if name == "" {
			name = id
		}
		w.rooms[id] = &Room{
			ID:          id,
			Name:        name,
			Description: def.Description,
			Items:       slices.Clone(def.Items),
			Exits:       exits,
			Puzzle:      def.Puzzle,
			Safe:        def.Safe,
			Shop:        def.Shop,
		}
	}
	return w
}

// GetRoom returns the room with the given ID.
func (w *World) GetRoom(id string) (*Room, error) {
	r, ok := w.rooms[id]
	if !ok {
		return nil, &NotFoundError{Kind: "room", ID: id}
	}
	return r, nil
}

// HasRoom reports whether a room with the given ID exists.
func (w *World) HasRoom(id string) bool {
	_, ok := w.rooms[id]
	return ok
}

// RoomIDs returns all room IDs in sorted order.
func (w *World) RoomIDs() []string {
	ids := make([]string, 0, len(w.rooms))
	for id := range w.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Connect registers a directed edge. An existing edge in the same direction
// is replaced: last write wins.
func (w *World) Connect(from, direction, to string) error {
	r, err := w.GetRoom(from)
	if err != nil {
		return err
	}
	if !w.HasRoom(to) {
		return &NotFoundError{Kind: "room", ID: to}
	}
	r.Exits[direction] = to
	return nil
}

// Disconnect removes the edge in the given direction, if any.
func (w *World) Disconnect(from, direction string) error {
	r, err := w.GetRoom(from)
	if err != nil {
		return err
	}
	delete(r.Exits, direction)
	return nil
}

// Destination returns where the given direction leads from a room.
func (w *World) Destination(roomID, direction string) (string, bool) {
	r, ok := w.rooms[roomID]
	if !ok {
		return "", false
	}
	to, ok := r.Exits[direction]
	return to, ok
}

// MovePossible reports whether the room has an exit in the given direction.
func (w *World) MovePossible(roomID, direction string) bool {
	_, ok := w.Destination(roomID, direction)
	return ok
}

// RemoveItem takes an item out of a room. Returns false if it was not there.
func (w *World) RemoveItem(roomID, item string) bool {
	r, ok := w.rooms[roomID]
	if !ok {
		return false
	}
	i := slices.Index(r.Items, item)
	if i < 0 {
		return false
	}
	r.Items = slices.Delete(r.Items, i, i+1)
	return true
}

// AddItem places an item in a room. Items already present are not duplicated.
func (w *World) AddItem(roomID, item string) error {
	r, err := w.GetRoom(roomID)
	if err != nil {
		return err
	}
	if !r.HasItem(item) {
		r.Items = append(r.Items, item)
	}
	return nil
}

// Unreachable returns the IDs of rooms that cannot be reached from start by
// following exits. The graph may legitimately contain such rooms (for
// example ones opened later by a script).
func (w *World) Unreachable(start string) []string {
	seen := map[string]bool{start: true}
	queue := []string{start}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		r, ok := w.rooms[id]
		if !ok {
			continue
		}
		for _, dir := range r.ExitDirections() {
			next := r.Exits[dir]
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	var out []string
	for _, id := range w.RoomIDs() {
		if !seen[id] {
			out = append(out, id)
		}
	}
	return out
}
