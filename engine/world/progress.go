package world

import (
	"maps"
	"slices"
	"sort"
)

// Progress is the part of the world that changes during play and must
// survive a save/load cycle.
type Progress struct {
	Solved  []string            `yaml:"solved,omitempty"`
	Visited []string            `yaml:"visited,omitempty"`
	Items   map[string][]string `yaml:"items,omitempty"`
	// Exits holds every room's exits as they stand, so exits opened or
	// closed by scripts survive a reload. Nil in saves that predate it.
	Exits map[string]map[string]string `yaml:"exits,omitempty"`
}

// Progress exports solved puzzles, visited rooms and every room's items
// and exits.
func (w *World) Progress() Progress {
	p := Progress{Items: map[string][]string{}, Exits: map[string]map[string]string{}}
	for _, id := range w.RoomIDs() {
		r := w.rooms[id]
		if r.PuzzleSolved {
			p.Solved = append(p.Solved, id)
		}
		if r.Visited {
			p.Visited = append(p.Visited, id)
		}
		p.Items[id] = slices.Clone(r.Items)
		p.Exits[id] = maps.Clone(r.Exits)
	}
	return p
}

// ApplyProgress restores previously exported progress. Rooms missing from
// p.Items or p.Exits keep their current items or exits. Unknown room IDs,
// including exit targets, are ignored and returned so the caller can log
// them.
func (w *World) ApplyProgress(p Progress) []string {
	var unknown []string
	for _, r := range w.rooms {
		r.PuzzleSolved = false
		r.PuzzleDeferred = false
		r.Visited = false
	}
	for _, id := range p.Solved {
		if r, ok := w.rooms[id]; ok {
			r.PuzzleSolved = true
		} else {
			unknown = append(unknown, id)
		}
	}
	for _, id := range p.Visited {
		if r, ok := w.rooms[id]; ok {
			r.Visited = true
		} else {
			unknown = append(unknown, id)
		}
	}
	for id, items := range p.Items {
		if r, ok := w.rooms[id]; ok {
			r.Items = slices.Clone(items)
		} else {
			unknown = append(unknown, id)
		}
	}
	for id, exits := range p.Exits {
		r, ok := w.rooms[id]
		if !ok {
			unknown = append(unknown, id)
			continue
		}
		restored := make(map[string]string, len(exits))
		for dir, target := range exits {
			if !w.HasRoom(target) {
				unknown = append(unknown, target)
				continue
			}
			restored[dir] = target
		}
		r.Exits = restored
	}
	sort.Strings(unknown)
	return slices.Compact(unknown)
}

// Purge removes the given items from every room. Used after restoring a
// player so nothing exists both in a room and in the inventory.
func (w *World) Purge(items []string) {
	for _, r := range w.rooms {
		r.Items = slices.DeleteFunc(r.Items, func(it string) bool {
			return slices.Contains(items, it)
		})
	}
}
