// Package config reads delve's settings from the environment. An optional
// .env file in the working directory is loaded first; real environment
// variables win over it.
package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/nathoo/delve/storage"
)

type Config struct {
	Player     string
	WorldDir   string
	Store      string
	SaveDir    string
	RedisURL   string
	SQLitePath string
	Seed       int64
	HasSeed    bool
	Plain      bool
	LogLevel   slog.Level
	LogFormat  string
	LogFile    string
}

// LoadDotEnv loads the given .env files (default ".env") into the process
// environment. Missing files are not an error.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	if len(present) == 0 {
		return nil
	}
	return godotenv.Load(present...)
}

func Load() *Config {
	saveDir := getEnv("DELVE_SAVE_DIR", defaultSaveDir())
	cfg := &Config{
		Player:     strings.TrimSpace(os.Getenv("DELVE_PLAYER")),
		WorldDir:   os.Getenv("DELVE_WORLD_DIR"),
		Store:      strings.ToLower(getEnv("DELVE_STORE", storage.BackendFile)),
		SaveDir:    saveDir,
		RedisURL:   getEnv("DELVE_REDIS_URL", "redis://localhost:6379/0"),
		SQLitePath: getEnv("DELVE_SQLITE_PATH", filepath.Join(saveDir, "delve.db")),
		Plain:      parseBool(os.Getenv("DELVE_PLAIN")),
		LogLevel:   parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFormat:  strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:    os.Getenv("DELVE_LOG_FILE"),
	}
	if s := os.Getenv("DELVE_SEED"); s != "" {
		if seed, err := strconv.ParseInt(s, 10, 64); err == nil {
			cfg.Seed, cfg.HasSeed = seed, true
		}
	}
	return cfg
}

// StorageOptions returns the settings for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:    c.Store,
		Dir:        c.SaveDir,
		RedisURL:   c.RedisURL,
		SQLitePath: c.SQLitePath,
	}
}

func defaultSaveDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".delve", "saves")
	}
	return filepath.Join(home, ".delve", "saves")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return strings.EqualFold(strings.TrimSpace(s), "yes")
	}
	return b
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
