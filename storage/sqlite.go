package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/delve/engine/save"
)

// SQLiteStore keeps one row per player. Saves are upserted inside a
// transaction.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) the database at path and migrates it.
func NewSQLiteStore(ctx context.Context, path string, logger *slog.Logger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the pragma and the schema on the same handle.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db, logger: logger}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.Debug("sqlite save store ready", "path", path)
	return s, nil
}

func (s *SQLiteStore) migrate(ctx context.Context) error {
	const schema = `CREATE TABLE IF NOT EXISTS saves (
		player_key TEXT PRIMARY KEY,
		record TEXT NOT NULL,
		saved_at TEXT NOT NULL
	)`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

// Save upserts the player's row.
func (s *SQLiteStore) Save(ctx context.Context, rec *save.Record) (err error) {
	key := save.Key(rec.Name)
	data, err := save.Encode(rec)
	if err != nil {
		return &save.IOError{Op: "encode", Key: key, Err: err}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO saves (player_key, record, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(player_key) DO UPDATE SET record = excluded.record, saved_at = excluded.saved_at`,
		key, string(data), rec.SavedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	if err = tx.Commit(); err != nil {
		return &save.IOError{Op: "commit", Key: key, Err: err}
	}
	return nil
}

// Load reads the player's row.
func (s *SQLiteStore) Load(ctx context.Context, name string) (*save.Record, error) {
	key := save.Key(name)
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT record FROM saves WHERE player_key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, save.ErrNoSave
		}
		return nil, &save.IOError{Op: "read", Key: key, Err: err}
	}
	return decode(key, []byte(data))
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
