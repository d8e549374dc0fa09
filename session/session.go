// Package session starts and ends a play session: it loads the player's
// save slot (or starts fresh) and autosaves when the session ends.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/save"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/types"
)

// Session pairs one player's engine with the store that keeps their slot.
type Session struct {
	Engine *engine.Engine
	Name   string

	store  storage.Store
	logger *slog.Logger
}

// Begin creates an engine for name and restores the player's save if there
// is one. A missing save starts fresh silently; a corrupt or unreadable
// save is reported in the returned messages and also starts fresh.
func Begin(ctx context.Context, defs *world.Defs, store storage.Store, name string, logger *slog.Logger, opts ...engine.Option) (*Session, []string) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, engine.WithPlayerName(name), engine.WithLogger(logger))
	if store != nil {
		opts = append(opts, engine.WithSaver(store))
	}
	s := &Session{
		Engine: engine.New(defs, opts...),
		Name:   name,
		store:  store,
		logger: logger,
	}
	if store == nil {
		return s, nil
	}

	rec, err := store.Load(ctx, name)
	if err != nil {
		return s, s.fallback(err)
	}
	if err := s.Engine.Restore(rec); err != nil {
		logger.Warn("save does not fit this world, starting fresh", "player", name, "error", err)
		s.Engine = engine.New(defs, opts...)
		return s, []string{"Your saved game no longer fits this world. Starting a new adventure."}
	}
	return s, []string{fmt.Sprintf("Welcome back, %s. Your adventure resumes (turn %d).", rec.Name, rec.Turn)}
}

func (s *Session) fallback(err error) []string {
	var (
		cse   *save.CorruptSaveError
		ioErr *save.IOError
	)
	switch {
	case errors.Is(err, save.ErrNoSave):
		s.logger.Debug("no save found", "player", s.Name)
		return nil
	case errors.As(err, &cse):
		s.logger.Warn("corrupt save, starting fresh", "player", s.Name, "error", err)
		return []string{"Your saved game could not be read. Starting a new adventure."}
	case errors.As(err, &ioErr):
		s.logger.Error("could not load save, starting fresh", "player", s.Name, "error", err)
		return []string{"Your saved game could not be loaded. Starting a new adventure."}
	default:
		s.logger.Error("unexpected load failure, starting fresh", "player", s.Name, "error", err)
		return []string{"Your saved game could not be loaded. Starting a new adventure."}
	}
}

// Finish ends the session. Unless the player was defeated, the game is
// saved one last time. The returned result carries the closing summary for
// sessions that ended because input ran out.
func (s *Session) Finish(ctx context.Context) types.Result {
	res := s.Engine.Finish()
	if res.Outcome == types.OutcomeDefeat || s.store == nil {
		return res
	}
	rec := s.Engine.Snapshot()
	if err := s.store.Save(ctx, rec); err != nil {
		s.logger.Error("autosave failed", "player", rec.Name, "error", err)
		res.Output = append(res.Output, "Your progress could not be saved.")
		return res
	}
	s.logger.Info("autosaved", "player", rec.Name, "turn", rec.Turn)
	res.Output = append(res.Output, "Progress saved.")
	return res
}
