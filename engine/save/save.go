// Package save implements YAML serialization of the single save record kept
// per player, and the errors the persistence layer reports.
package save

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/delve/engine/world"
)

// FormatVersion is written into every record. Records with a newer version
// are rejected as corrupt.
const FormatVersion = 1

// ErrNoSave is returned when a player has no saved game.
var ErrNoSave = errors.New("no saved game")

// CorruptSaveError reports a record that cannot be parsed into the expected
// fields. Callers fall back to a fresh player.
type CorruptSaveError struct {
	Key string
	Err error
}

func (e *CorruptSaveError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("corrupt save: %v", e.Err)
	}
	return fmt.Sprintf("corrupt save %q: %v", e.Key, e.Err)
}

func (e *CorruptSaveError) Unwrap() error { return e.Err }

// IOError reports a read or write failure in a store. The previous save, if
// any, is untouched.
type IOError struct {
	Op  string
	Key string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s save %q: %v", e.Op, e.Key, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Record is the durable snapshot of a player and the world progress needed
// to restore them without duplicating items.
type Record struct {
	Version   int            `yaml:"version"`
	ID        string         `yaml:"id"`
	Game      string         `yaml:"game,omitempty"`
	Name      string         `yaml:"name"`
	Health    int            `yaml:"health"`
	MaxHealth int            `yaml:"max_health"`
	Score     int            `yaml:"score"`
	Gold      int            `yaml:"gold"`
	Location  string         `yaml:"location"`
	Inventory []string       `yaml:"inventory"`
	Turn      int            `yaml:"turn"`
	SavedAt   time.Time      `yaml:"saved_at"`
	World     world.Progress `yaml:"world"`
}

// Encode serializes a record to YAML bytes.
func Encode(rec *Record) ([]byte, error) {
	if rec == nil {
		return nil, errors.New("save: nil record")
	}
	if rec.Version == 0 {
		rec.Version = FormatVersion
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(rec); err != nil {
		return nil, fmt.Errorf("encoding save: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding save: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses YAML bytes into a record. Anything unparseable or missing
// a required field is a *CorruptSaveError.
func Decode(data []byte) (*Record, error) {
	var rec Record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return nil, &CorruptSaveError{Err: err}
	}
	if err := rec.Validate(); err != nil {
		return nil, &CorruptSaveError{Key: Key(rec.Name), Err: err}
	}
	if rec.Inventory == nil {
		rec.Inventory = []string{}
	}
	return &rec, nil
}

// Validate checks the fields a restore depends on.
func (r *Record) Validate() error {
	switch {
	case r.Version <= 0 || r.Version > FormatVersion:
		return fmt.Errorf("unsupported version %d", r.Version)
	case strings.TrimSpace(r.Name) == "":
		return errors.New("missing name")
	case r.Location == "":
		return errors.New("missing location")
	case r.MaxHealth <= 0:
		return fmt.Errorf("invalid max_health %d", r.MaxHealth)
	case r.Health < 0 || r.Health > r.MaxHealth:
		return fmt.Errorf("health %d outside [0, %d]", r.Health, r.MaxHealth)
	case r.Score < 0:
		return fmt.Errorf("negative score %d", r.Score)
	case r.Gold < 0:
		return fmt.Errorf("negative gold %d", r.Gold)
	case r.Turn < 0:
		return fmt.Errorf("negative turn %d", r.Turn)
	}
	return nil
}

// Key derives the slot key from a player name: lower-cased, with anything
// outside [a-z0-9_-] replaced by an underscore.
func Key(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return "player"
	}
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
