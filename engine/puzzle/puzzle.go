// Package puzzle resolves room puzzles. Each room holds at most one puzzle
// and it moves from unresolved to resolved exactly once; wrong answers
// leave it unresolved and may be retried forever.
package puzzle

import (
	"slices"
	"strings"

	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// Status is the result of an answer attempt.
type Status int

const (
	NoPuzzle Status = iota
	Wrong
	Solved
	AlreadySolved
)

func (s Status) String() string {
	switch s {
	case Wrong:
		return "wrong"
	case Solved:
		return "solved"
	case AlreadySolved:
		return "already_solved"
	default:
		return "no_puzzle"
	}
}

// Outcome describes an attempt. Reward is only set when Status is Solved.
type Outcome struct {
	Status   Status
	PuzzleID string
	Reward   []types.Effect
	Message  string
}

// Resolver checks answers against the puzzle definitions and keeps the
// resolved flag on the room.
type Resolver struct {
	world   *world.World
	puzzles map[string]types.PuzzleDef
}

// New creates a resolver over the given world.
func New(w *world.World, puzzles map[string]types.PuzzleDef) *Resolver {
	return &Resolver{world: w, puzzles: puzzles}
}

// Get returns the puzzle attached to a room, solved or not.
func (r *Resolver) Get(roomID string) (types.PuzzleDef, bool) {
	room, err := r.world.GetRoom(roomID)
	if err != nil || room.Puzzle == "" {
		return types.PuzzleDef{}, false
	}
	def, ok := r.puzzles[room.Puzzle]
	return def, ok
}

// Pending returns the room's puzzle if it is unresolved and not deferred.
// A pending puzzle gates the room's commands.
func (r *Resolver) Pending(roomID string) (types.PuzzleDef, bool) {
	def, ok := r.Get(roomID)
	if !ok {
		return types.PuzzleDef{}, false
	}
	room, _ := r.world.GetRoom(roomID)
	if room.PuzzleSolved || room.PuzzleDeferred {
		return types.PuzzleDef{}, false
	}
	return def, true
}

// Attempt checks an answer for the room's puzzle. A correct answer marks
// the room resolved and returns the reward; every later attempt reports
// AlreadySolved and changes nothing.
func (r *Resolver) Attempt(roomID, answer string) Outcome {
	def, ok := r.Get(roomID)
	if !ok {
		return Outcome{Status: NoPuzzle}
	}
	room, _ := r.world.GetRoom(roomID)
	if room.PuzzleSolved {
		return Outcome{Status: AlreadySolved, PuzzleID: def.ID, Message: "You have already solved this."}
	}
	if !Accepts(def, answer) {
		msg := "That doesn't seem right."
		if def.Hint != "" {
			msg += " Hint: " + def.Hint
		}
		return Outcome{Status: Wrong, PuzzleID: def.ID, Message: msg}
	}

	room.PuzzleSolved = true
	room.PuzzleDeferred = false
	msg := def.SolvedText
	if msg == "" {
		msg = "Correct!"
	}
	return Outcome{
		Status:   Solved,
		PuzzleID: def.ID,
		Reward:   slices.Clone(def.Reward),
		Message:  msg,
	}
}

// Defer steps away from the room's pending puzzle. Returns false when
// nothing was pending.
func (r *Resolver) Defer(roomID string) bool {
	if _, ok := r.Pending(roomID); !ok {
		return false
	}
	room, _ := r.world.GetRoom(roomID)
	room.PuzzleDeferred = true
	return true
}

// Reoffer clears a deferral so the puzzle gates the room again. Returns
// true if the puzzle is pending afterwards.
func (r *Resolver) Reoffer(roomID string) bool {
	room, err := r.world.GetRoom(roomID)
	if err != nil {
		return false
	}
	room.PuzzleDeferred = false
	_, ok := r.Pending(roomID)
	return ok
}

// Accepts reports whether answer matches one of the puzzle's answers after
// case folding and whitespace collapsing.
func Accepts(def types.PuzzleDef, answer string) bool {
	got := Normalize(answer)
	if got == "" {
		return false
	}
	for _, a := range def.Answers {
		if Normalize(a) == got {
			return true
		}
	}
	return false
}

// Normalize lower-cases s, trims it and collapses inner whitespace.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
