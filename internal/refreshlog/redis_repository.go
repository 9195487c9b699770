package refreshlog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisRepository stores runs as JSON in a capped Redis list, newest at the head.
type RedisRepository struct {
	client *redis.Client
	key    string
	size   int64
}

// NewRedisRepository creates a Redis-backed journal. Key may be empty.
func NewRedisRepository(client *redis.Client, key string, size int) *RedisRepository {
	if key == "" {
		key = "country-service:refresh-runs"
	}
	if size <= 0 {
		size = 1
	}
	return &RedisRepository{client: client, key: key, size: int64(size)}
}

func (r *RedisRepository) Append(ctx context.Context, run *Run) error {
	b, err := json.Marshal(run)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.LPush(ctx, r.key, b)
	pipe.LTrim(ctx, r.key, 0, r.size-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("append run: %w", err)
	}
	return nil
}

func (r *RedisRepository) Recent(ctx context.Context, limit int) ([]Run, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	vals, err := r.client.LRange(ctx, r.key, 0, stop).Result()
	if err != nil {
		if err == redis.Nil {
			return []Run{}, nil
		}
		return nil, err
	}
	out := make([]Run, 0, len(vals))
	for _, v := range vals {
		var run Run
		if err := json.Unmarshal([]byte(v), &run); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, run)
	}
	return out, nil
}
