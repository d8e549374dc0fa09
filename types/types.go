// Package types defines the shared data structures for the delve engine.
// It holds type definitions only; behaviour lives in the engine packages.
package types

// Intent is the parsed representation of a player command.
type Intent struct {
	Verb   string
	Object string // optional, already case-folded and trimmed
	Raw    string // the trimmed input line, used as a puzzle answer
}

// Effect is a single atomic state mutation instruction.
type Effect struct {
	Type   string
	Params map[string]any
}

// Event is emitted after effects are applied.
type Event struct {
	Type string
	Data map[string]any
}

// Outcome describes how a session ended.
type Outcome string

const (
	OutcomeNone   Outcome = ""
	OutcomeQuit   Outcome = "quit"
	OutcomeDefeat Outcome = "defeat"
)

// Result is the output of a single game step.
type Result struct {
	Effects []Effect
	Events  []Event
	Output  []string
	Ended   bool
	Outcome Outcome
}

// Condition is a predicate that must be true for a handler or usable to fire.
type Condition struct {
	Type   string         // "has_item", "in_room", "puzzle_solved", etc.
	Params map[string]any // condition-specific parameters
	Negate bool           // true if wrapped in Not()
	Inner  *Condition     // for Not(): the negated inner condition
}

// GameDef holds game metadata from the world scripts.
type GameDef struct {
	Title           string
	Author          string
	Version         string
	Start           string // starting room ID
	Intro           string
	MaxHealth       int
	EncounterChance *float64 // nil means the engine default
	TakeScore       *int     // nil means the engine default
	StartGold       int
}

// RoomDef is the base definition of a room.
type RoomDef struct {
	ID          string
	Name        string
	Description string
	Items       []string
	Exits       map[string]string // direction → room_id
	Puzzle      string            // optional puzzle ID
	Safe        bool              // no encounters on entry
	Shop        map[string]int    // item → price
}

// PuzzleDef is a one-shot challenge tied to a room.
type PuzzleDef struct {
	ID         string
	Prompt     string
	Answers    []string
	Hint       string
	SolvedText string
	Reward     []Effect
}

// UsableDef maps an item name to what happens when it is used.
type UsableDef struct {
	Item       string
	Consumable bool
	Requires   []Condition
	Effects    []Effect
	Fail       string // shown when Requires is not met
}

// EncounterDef is an event drawn on movement. Positive Delta damages,
// negative Delta heals.
type EncounterDef struct {
	Text     string
	Delta    int
	DeltaMax int // when above Delta, the delta is drawn from [Delta, DeltaMax]
	Gold     int
	Weight   int
}

// EventHandler is a world-script reaction to an emitted event.
type EventHandler struct {
	EventType  string
	Conditions []Condition
	Effects    []Effect
}
