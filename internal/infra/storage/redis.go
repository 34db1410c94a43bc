package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/learitecnico/learion-glass-sub000/config"
	"github.com/learitecnico/learion-glass-sub000/internal/domain"
)

// RedisStorage implements ThreadStorage using Redis. Thread records are
// stored as JSON values under per-agent keys, with a sorted-set index on
// creation time so expiry sweeps do not require scanning every key.
type RedisStorage struct {
	client *redis.Client
}

// NewRedisStorage creates a new Redis storage instance
func NewRedisStorage(cfg config.RedisConfig) (*RedisStorage, error) {
	options := &redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		DB:       cfg.Database,
		Password: cfg.Password,
		Username: cfg.Username,
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStorage{client: client}, nil
}

func threadKey(agentID string) string {
	return "thread:" + agentID
}

func preferenceKey(key string) string {
	return "preference:" + key
}

const threadIndexKey = "threads:by_created_at"

// SaveThread persists a thread record, replacing any existing record for the agent
func (s *RedisStorage) SaveThread(ctx context.Context, rec domain.ThreadRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal thread record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, threadKey(rec.AgentID), data, 0)
	pipe.ZAdd(ctx, threadIndexKey, &redis.Z{
		Score:  float64(rec.CreatedAt.Unix()),
		Member: rec.AgentID,
	})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save thread: %w", err)
	}

	return nil
}

// LoadThread loads the thread record for an agent
func (s *RedisStorage) LoadThread(ctx context.Context, agentID string) (domain.ThreadRecord, error) {
	data, err := s.client.Get(ctx, threadKey(agentID)).Bytes()
	if err == redis.Nil {
		return domain.ThreadRecord{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return domain.ThreadRecord{}, fmt.Errorf("failed to load thread: %w", err)
	}

	var rec domain.ThreadRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.ThreadRecord{}, fmt.Errorf("failed to unmarshal thread record: %w", err)
	}

	return rec, nil
}

// DeleteThread removes the persisted record for an agent
func (s *RedisStorage) DeleteThread(ctx context.Context, agentID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, threadKey(agentID))
	pipe.ZRem(ctx, threadIndexKey, agentID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete thread: %w", err)
	}

	return nil
}

// ListThreads returns all persisted thread records
func (s *RedisStorage) ListThreads(ctx context.Context) ([]domain.ThreadRecord, error) {
	agentIDs, err := s.client.ZRevRange(ctx, threadIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	records := make([]domain.ThreadRecord, 0, len(agentIDs))
	for _, agentID := range agentIDs {
		rec, err := s.LoadThread(ctx, agentID)
		if err == domain.ErrThreadNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}

// DeleteExpired removes all records created before the cutoff
func (s *RedisStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int, error) {
	max := strconv.FormatInt(cutoff.Unix(), 10)

	agentIDs, err := s.client.ZRangeByScore(ctx, threadIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + max,
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to query expired threads: %w", err)
	}

	for _, agentID := range agentIDs {
		if err := s.DeleteThread(ctx, agentID); err != nil {
			return 0, err
		}
	}

	return len(agentIDs), nil
}

// SavePreference persists a client preference value
func (s *RedisStorage) SavePreference(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, preferenceKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("failed to save preference: %w", err)
	}
	return nil
}

// LoadPreference loads a client preference; returns "" when unset
func (s *RedisStorage) LoadPreference(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, preferenceKey(key)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load preference: %w", err)
	}
	return value, nil
}

// Close closes the storage connection
func (s *RedisStorage) Close() error {
	return s.client.Close()
}

// Health checks if the storage is healthy and reachable
func (s *RedisStorage) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
