package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/nathoo/delve/engine/save"
)

// RedisKeyPrefix namespaces save slots in Redis.
const RedisKeyPrefix = "delve:save:"

// RedisStore keeps each player's save in one Redis string. SET replaces the
// whole value at once.
type RedisStore struct {
	client *redis.Client
	logger *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to the Redis server at redisURL
// (redis://[:password@]host:port/db) and checks the connection.
func NewRedisStore(ctx context.Context, redisURL string, logger *slog.Logger) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Info("Connected to Redis for saves", "addr", opt.Addr)
	return &RedisStore{client: rdb, logger: logger}, nil
}

func redisKey(name string) string {
	return RedisKeyPrefix + save.Key(name)
}

// Save overwrites the player's slot.
func (r *RedisStore) Save(ctx context.Context, rec *save.Record) error {
	key := save.Key(rec.Name)
	data, err := save.Encode(rec)
	if err != nil {
		return &save.IOError{Op: "encode", Key: key, Err: err}
	}
	if err := r.client.Set(ctx, redisKey(rec.Name), data, 0).Err(); err != nil {
		r.logger.Error("Redis SET failed", "key", redisKey(rec.Name), "error", err)
		return &save.IOError{Op: "write", Key: key, Err: err}
	}
	r.logger.Debug("Redis SET successful", "key", redisKey(rec.Name))
	return nil
}

// Load reads the player's slot.
func (r *RedisStore) Load(ctx context.Context, name string) (*save.Record, error) {
	key := save.Key(name)
	data, err := r.client.Get(ctx, redisKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Redis key not found", "key", redisKey(name))
			return nil, save.ErrNoSave
		}
		r.logger.Error("Redis GET failed", "key", redisKey(name), "error", err)
		return nil, &save.IOError{Op: "read", Key: key, Err: err}
	}
	return decode(key, data)
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	return nil
}
