package storage

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/nathoo/delve/engine/save"
)

// FileStore keeps each player's save as <dir>/<key>.yaml.
type FileStore struct {
	dir    string
	logger *slog.Logger

	// rename is os.Rename; tests replace it to simulate a crash mid-save.
	rename func(oldpath, newpath string) error
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a store rooted at dir. The directory is created on
// the first save.
func NewFileStore(dir string, logger *slog.Logger) *FileStore {
	return &FileStore{dir: dir, logger: logger, rename: os.Rename}
}

// Path returns the file that holds the given player's save.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, save.Key(name)+".yaml")
}

// Save writes the record to a temporary file in the same directory, syncs
// it and renames it over the previous save. The temporary file is removed
// on every error path.
func (s *FileStore) Save(ctx context.Context, rec *save.Record) (err error) {
	key := save.Key(rec.Name)
	if err := ctx.Err(); err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}

	data, err := save.Encode(rec)
	if err != nil {
		return &save.IOError{Op: "encode", Key: key, Err: err}
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	if err = tmp.Sync(); err != nil {
		return &save.IOError{Op: "sync", Key: key, Err: err}
	}
	if err = tmp.Close(); err != nil {
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	if err = s.rename(tmpName, s.Path(rec.Name)); err != nil {
		return &save.IOError{Op: "rename", Key: key, Err: err}
	}

	s.logger.Debug("save written", "path", s.Path(rec.Name), "bytes", len(data))
	return nil
}

// Load reads and decodes the player's save.
func (s *FileStore) Load(ctx context.Context, name string) (*save.Record, error) {
	key := save.Key(name)
	if err := ctx.Err(); err != nil {
		return nil, &save.IOError{Op: "read", Key: key, Err: err}
	}
	data, err := os.ReadFile(s.Path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, save.ErrNoSave
		}
		return nil, &save.IOError{Op: "read", Key: key, Err: err}
	}
	return decode(key, data)
}

// Close is a no-op; files are closed after every operation.
func (s *FileStore) Close() error { return nil }
