// Package storage keeps one save record per player. Every backend overwrites
// the slot in a single atomic step, so a failed save never damages the
// previous one.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/nathoo/delve/engine/save"
)

// Store is a single-slot-per-player save backend.
type Store interface {
	// Save overwrites the slot for rec.Name.
	Save(ctx context.Context, rec *save.Record) error
	// Load returns the record for name, save.ErrNoSave if there is none,
	// a *save.CorruptSaveError if it cannot be decoded, or a *save.IOError.
	Load(ctx context.Context, name string) (*save.Record, error)
	Close() error
}

// Backend names accepted by Open.
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Options selects and configures a backend.
type Options struct {
	Backend    string
	Dir        string // file backend
	RedisURL   string // redis backend
	SQLitePath string // sqlite backend
}

// Open creates the configured backend. An empty backend means file.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	switch opts.Backend {
	case "", BackendFile:
		return NewFileStore(opts.Dir, logger), nil
	case BackendRedis:
		return NewRedisStore(ctx, opts.RedisURL, logger)
	case BackendSQLite:
		return NewSQLiteStore(ctx, opts.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// decode turns stored bytes into a record, tagging corruption with the key.
func decode(key string, data []byte) (*save.Record, error) {
	rec, err := save.Decode(data)
	if err != nil {
		var cse *save.CorruptSaveError
		if errors.As(err, &cse) && cse.Key == "" {
			cse.Key = key
		}
		return nil, err
	}
	return rec, nil
}
