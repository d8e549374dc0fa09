// Delve is a text adventure: walk a room graph, pick things up, answer the
// riddles that bar your way, and survive what the road throws at you.
//
// It takes no flags. Settings come from the environment and an optional
// .env file; see the config package.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/nathoo/delve/cli"
	"github.com/nathoo/delve/config"
	"github.com/nathoo/delve/engine"
	"github.com/nathoo/delve/engine/world"
	"github.com/nathoo/delve/loader"
	"github.com/nathoo/delve/logger"
	"github.com/nathoo/delve/storage"
	"github.com/nathoo/delve/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(); err != nil {
		return fmt.Errorf("reading .env: %w", err)
	}
	cfg := config.Load()

	plain := cfg.Plain || !isTerminal()

	logOut, closeLog, err := logger.Destination(cfg, plain)
	if err != nil {
		return err
	}
	defer closeLog()
	log := logger.Setup(cfg, logOut)
	if cfg.Player != "" {
		log = logger.WithPlayer(log, cfg.Player)
	}

	defs, err := loadWorld(cfg, log)
	if err != nil {
		return fmt.Errorf("loading world: %w", err)
	}

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.StorageOptions(), log)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", cfg.Store, err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("closing store", "error", err)
		}
	}()

	var opts []engine.Option
	if cfg.HasSeed {
		opts = append(opts, engine.WithRNG(engine.NewRNG(cfg.Seed)))
	}

	log.Info("starting", "world", defs.Game.Title, "store", cfg.Store, "plain", plain)

	if plain {
		c := cli.New(defs, store, log)
		c.Player = cfg.Player
		c.EngineOpts = opts
		c.Run(ctx)
		return nil
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGTERM)
	defer stop()
	return tui.Run(ctx, defs, store, log, cfg.Player, os.Stdout, opts...)
}

// loadWorld reads the configured world directory, or the bundled world
// when none is set.
func loadWorld(cfg *config.Config, log *slog.Logger) (*world.Defs, error) {
	if cfg.WorldDir == "" {
		return loader.Default(log)
	}
	return loader.Load(cfg.WorldDir, log)
}

// isTerminal reports whether stdout is an interactive terminal.
func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
