// Package engine provides the Step() orchestrator that wires together
// parsing, puzzle gating, verb handlers, effects, and events into a single
// turn.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/nathoo/delve/engine/effects"
	"github.com/nathoo/delve/engine/encounter"
	"github.com/nathoo/delve/engine/events"
	"github.com/nathoo/delve/engine/parser"
	"github.com/nathoo/delve/engine/player"
	"github.com/nathoo/delve/engine/puzzle"
	"github.com/nathoo/delve/engine/save"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/types"
)

// DefaultTakeScore is awarded for every item taken when the world does not
// set take_score.
const DefaultTakeScore = 10

// Saver persists a save record. storage.Store satisfies it.
type Saver interface {
	Save(ctx context.Context, rec *save.Record) error
}

// Engine holds the game definitions and the mutable session: one player,
// one world, one turn counter.
type Engine struct {
	Defs   *world.Defs
	World  *world.World
	Player *player.Player
	RNG    *RNG
	Turn   int

	puzzles    *puzzle.Resolver
	encounters *encounter.Generator
	saver      Saver
	logger     *slog.Logger
	outcome    types.Outcome
	playerName string
}

// Option configures an Engine.
type Option func(*Engine)

// WithSaver enables the save verb.
func WithSaver(s Saver) Option {
	return func(e *Engine) { e.saver = s }
}

// WithRNG replaces the time-seeded RNG, typically for reproducible sessions.
func WithRNG(r *RNG) Option {
	return func(e *Engine) { e.RNG = r }
}

// WithLogger sets the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithPlayerName names the adventurer.
func WithPlayerName(name string) Option {
	return func(e *Engine) { e.playerName = name }
}

// New creates a new engine from definitions. The player starts at full
// health in the start room, which counts as visited.
func New(defs *world.Defs, opts ...Option) *Engine {
	e := &Engine{
		Defs:       defs,
		World:      world.New(defs),
		logger:     slog.Default(),
		playerName: "Adventurer",
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.RNG == nil {
		e.RNG = NewRNG(time.Now().UnixNano())
	}

	e.Player = player.New(e.playerName, defs.Game.Start, defs.Game.MaxHealth, e.logger)
	e.Player.Gold = defs.Game.StartGold
	if start, err := e.World.GetRoom(defs.Game.Start); err == nil {
		start.Visited = true
	}
	e.puzzles = puzzle.New(e.World, defs.Puzzles)
	chance := encounter.DefaultThreshold
	if c := defs.Game.EncounterChance; c != nil {
		chance = *c
	}
	e.encounters = encounter.New(chance, defs.Encounters, e.RNG)
	return e
}

// Ended reports whether the session is over, and how.
func (e *Engine) Ended() (bool, types.Outcome) {
	return e.outcome != types.OutcomeNone, e.outcome
}

// Step processes one player command and returns the result.
func (e *Engine) Step(input string) types.Result {
	return e.StepContext(context.Background(), input)
}

// StepContext processes one player command. The turn counter advances once
// for every non-empty line, including unknown commands, failed moves and
// turns whose handler panicked.
func (e *Engine) StepContext(ctx context.Context, input string) (result types.Result) {
	// 0. Session over: refuse everything without counting.
	if e.outcome != types.OutcomeNone {
		return types.Result{
			Output:  []string{"The adventure is over."},
			Ended:   true,
			Outcome: e.outcome,
		}
	}

	// 1. Parse input.
	intent, parseErr := parser.Parse(input)

	// 2. Empty input.
	if intent.Raw == "" {
		result.Output = append(result.Output, "What do you want to do?")
		return result
	}

	// 3. Count the turn before anything can fail.
	e.Turn++
	e.logger.Debug("step", "turn", e.Turn, "verb", intent.Verb, "object", intent.Object)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn failed",
				"turn", e.Turn,
				"input", input,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			result = types.Result{
				Output: []string{"Something went wrong. The adventure goes on."},
			}
		}
	}()

	// 4. A pending puzzle treats most lines as answers.
	if _, gated := e.puzzles.Pending(e.Player.Location); gated && !gateExempt[intent.Verb] {
		e.answerPuzzle(&result, intent)
		e.checkDefeat(&result)
		return result
	}

	// 5. Malformed or unknown commands are reported, never fatal.
	if parseErr != nil {
		var ice *parser.InvalidCommandError
		if errors.As(parseErr, &ice) {
			result.Output = append(result.Output, ice.Reason)
		} else {
			result.Output = append(result.Output, parseErr.Error())
		}
		return result
	}

	// 6. Dispatch the verb.
	e.dispatch(ctx, &result, intent)

	// 7. Health at zero ends the session.
	e.checkDefeat(&result)

	return result
}

// gateExempt lists the verbs that still work while a puzzle blocks the room.
var gateExempt = map[string]bool{
	"help":      true,
	"health":    true,
	"score":     true,
	"status":    true,
	"inventory": true,
	"save":      true,
	"quit":      true,
	"abandon":   true,
}

func (e *Engine) dispatch(ctx context.Context, res *types.Result, intent types.Intent) {
	switch intent.Verb {
	case "look":
		e.builtinLook(res)
	case "move":
		e.builtinMove(res, intent.Object)
	case "take":
		e.builtinTake(res, intent.Object)
	case "use":
		e.builtinUse(res, intent.Object)
	case "inventory":
		e.builtinInventory(res)
	case "health":
		res.Output = append(res.Output, fmt.Sprintf("Health: %d/%d", e.Player.Health, e.Player.MaxHealth))
	case "score":
		res.Output = append(res.Output, fmt.Sprintf("Score: %d", e.Player.Score))
	case "status":
		e.builtinStatus(res)
	case "explore":
		e.builtinExplore(res)
	case "save":
		e.builtinSave(ctx, res)
	case "help":
		res.Output = append(res.Output, helpText...)
	case "quit":
		e.end(res, types.OutcomeQuit, fmt.Sprintf("Farewell, %s.", e.Player.Name))
	case "shop":
		e.builtinShop(res)
	case "buy":
		e.builtinBuy(res, intent.Object)
	case "abandon":
		e.builtinAbandon(res)
	default:
		// The parser only returns known verbs.
		res.Output = append(res.Output, fmt.Sprintf("I don't know how to %q.", intent.Verb))
	}
}

// apply applies effects, then dispatches the emitted events (plus any seed
// events) to world-script handlers in a single pass. Handler effects are
// applied but their events are not re-dispatched.
func (e *Engine) apply(res *types.Result, effs []types.Effect, ctx effects.Context, seed ...types.Event) {
	evts, output := effects.Apply(e.Player, e.World, effs, ctx)
	res.Effects = append(res.Effects, effs...)
	res.Events = append(res.Events, seed...)
	res.Events = append(res.Events, evts...)
	res.Output = append(res.Output, output...)

	all := append(append([]types.Event{}, seed...), evts...)
	eventEffs := events.Dispatch(all, e.Defs.Handlers, e.Player, e.World)
	if len(eventEffs) > 0 {
		evts2, output2 := effects.Apply(e.Player, e.World, eventEffs, ctx)
		res.Effects = append(res.Effects, eventEffs...)
		res.Events = append(res.Events, evts2...)
		res.Output = append(res.Output, output2...)
	}
}

func (e *Engine) answerPuzzle(res *types.Result, intent types.Intent) {
	loc := e.Player.Location
	out := e.puzzles.Attempt(loc, intent.Raw)
	res.Output = append(res.Output, out.Message)
	if out.Status != puzzle.Solved {
		return
	}
	e.logger.Info("puzzle solved", "puzzle", out.PuzzleID, "room", loc, "turn", e.Turn)
	e.apply(res, out.Reward, effects.Context{Verb: "answer", Object: intent.Raw}, types.Event{
		Type: "puzzle_resolved",
		Data: map[string]any{"room": loc, "puzzle": out.PuzzleID},
	})
}

func (e *Engine) checkDefeat(res *types.Result) {
	if e.outcome != types.OutcomeNone || e.Player.Alive() {
		return
	}
	e.logger.Info("player defeated", "room", e.Player.Location, "turn", e.Turn)
	e.end(res, types.OutcomeDefeat, "You have been defeated.")
}

func (e *Engine) end(res *types.Result, outcome types.Outcome, message string) {
	e.outcome = outcome
	res.Ended = true
	res.Outcome = outcome
	res.Output = append(res.Output, message, e.summary())
}

func (e *Engine) summary() string {
	return fmt.Sprintf("Final score: %d. Turns taken: %d.", e.Player.Score, e.Turn)
}

// Finish ends the session when input runs out. It reports the same summary
// as quit; if the session already ended it returns an empty result.
func (e *Engine) Finish() types.Result {
	var res types.Result
	if e.outcome != types.OutcomeNone {
		res.Ended = true
		res.Outcome = e.outcome
		return res
	}
	e.end(&res, types.OutcomeQuit, fmt.Sprintf("The path fades. Farewell, %s.", e.Player.Name))
	return res
}

// Intro returns the opening text: title, intro and the starting room.
func (e *Engine) Intro() []string {
	var out []string
	if e.Defs.Game.Title != "" {
		out = append(out, e.Defs.Game.Title)
	}
	if e.Defs.Game.Intro != "" {
		out = append(out, e.Defs.Game.Intro)
	}
	var res types.Result
	e.builtinLook(&res)
	return append(out, res.Output...)
}

// Snapshot builds a save record from the current session.
func (e *Engine) Snapshot() *save.Record {
	p := e.Player
	inv := make([]string, len(p.Inventory))
	copy(inv, p.Inventory)
	return &save.Record{
		Version:   save.FormatVersion,
		ID:        uuid.NewString(),
		Game:      e.Defs.Game.Title,
		Name:      p.Name,
		Health:    p.Health,
		MaxHealth: p.MaxHealth,
		Score:     p.Score,
		Gold:      p.Gold,
		Location:  p.Location,
		Inventory: inv,
		Turn:      e.Turn,
		SavedAt:   time.Now().UTC(),
		World:     e.World.Progress(),
	}
}

// Restore replaces the session with a saved record. The record is checked
// against the world before anything changes, so a failed restore leaves
// the engine untouched.
func (e *Engine) Restore(rec *save.Record) error {
	if rec == nil {
		return errors.New("restore: nil record")
	}
	if err := rec.Validate(); err != nil {
		return fmt.Errorf("restore: %w", err)
	}
	if rec.Health == 0 {
		return errors.New("restore: saved player has no health left")
	}
	if !e.World.HasRoom(rec.Location) {
		return fmt.Errorf("restore: %w", &world.NotFoundError{Kind: "room", ID: rec.Location})
	}

	if unknown := e.World.ApplyProgress(rec.World); len(unknown) > 0 {
		e.logger.Warn("save refers to unknown rooms", "rooms", unknown)
	}

	p := player.New(rec.Name, rec.Location, rec.MaxHealth, e.logger)
	p.SetHealth(rec.Health)
	p.Score = rec.Score
	p.Gold = rec.Gold
	for _, item := range rec.Inventory {
		p.AddItem(item)
	}
	e.World.Purge(p.Inventory)
	if r, err := e.World.GetRoom(rec.Location); err == nil {
		r.Visited = true
	}

	e.Player = p
	e.playerName = rec.Name
	e.Turn = rec.Turn
	e.outcome = types.OutcomeNone
	e.logger.Info("session restored", "player", rec.Name, "room", rec.Location, "turn", rec.Turn)
	return nil
}
