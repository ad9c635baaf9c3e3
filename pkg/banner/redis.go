package banner

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis hash layout for banner records.
const (
	RedisKeyPrefix = "banner:config:"

	FieldConfig    = "config"
	FieldIsActive  = "is_active"
	FieldUpdatedAt = "updated_at" // unix milliseconds
)

// RedisStore reads banner records from Redis hashes.
type RedisStore struct {
	redis *redis.Client
}

// NewRedisStore creates a store backed by the given Redis client.
func NewRedisStore(redisClient *redis.Client) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &RedisStore{
		redis: redisClient,
	}
}

// RedisKey returns the hash key holding the record for id.
func RedisKey(id string) string {
	return RedisKeyPrefix + strings.ToLower(id)
}

// Metadata implements Store. It reads only the active flag and the
// modification time, never the config blob.
func (s *RedisStore) Metadata(ctx context.Context, id string) (*Metadata, error) {
	vals, err := s.redis.HMGet(ctx, RedisKey(id), FieldIsActive, FieldUpdatedAt).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hmget: %w", err)
	}

	// HMGET on a missing key yields nil for every field
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	activeStr, _ := vals[0].(string)
	updatedStr, _ := vals[1].(string)
	return parseMetadata(id, activeStr, updatedStr)
}

// Fetch implements Store.
func (s *RedisStore) Fetch(ctx context.Context, id string) (*Record, error) {
	fields, err := s.redis.HGetAll(ctx, RedisKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	md, err := parseMetadata(id, fields[FieldIsActive], fields[FieldUpdatedAt])
	if err != nil {
		return nil, err
	}

	return &Record{
		Metadata: *md,
		Config:   []byte(fields[FieldConfig]),
	}, nil
}

// Put writes a record. It is the write side used by the admin tooling;
// the delivery endpoint only reads.
func (s *RedisStore) Put(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("record id cannot be empty")
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now()
	}

	pipe := s.redis.TxPipeline()
	key := RedisKey(rec.ID)
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, map[string]interface{}{
		FieldConfig:    string(rec.Config),
		FieldIsActive:  strconv.FormatBool(rec.IsActive),
		FieldUpdatedAt: strconv.FormatInt(rec.UpdatedAt.UnixMilli(), 10),
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store banner record in redis: %w", err)
	}
	return nil
}

// Delete removes a record.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, RedisKey(id)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks connectivity for readiness probes.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

func parseMetadata(id, activeStr, updatedStr string) (*Metadata, error) {
	active, err := strconv.ParseBool(activeStr)
	if err != nil {
		return nil, fmt.Errorf("parse %s for banner %s: %w", FieldIsActive, id, err)
	}

	millis, err := strconv.ParseInt(updatedStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse %s for banner %s: %w", FieldUpdatedAt, id, err)
	}

	return &Metadata{
		ID:        id,
		IsActive:  active,
		UpdatedAt: time.UnixMilli(millis).UTC(),
	}, nil
}
