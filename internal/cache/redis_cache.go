package cache

import (
	"context"
	"encoding/json"
	"time"

	redis "github.com/redis/go-redis/v9"

	"lapakpos/backend/internal/domain"
)

type RedisArtifactCache struct {
	client *redis.Client
}

func NewRedisArtifactCache(addr string, password string, db int) *RedisArtifactCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisArtifactCache{client: client}
}

func (c *RedisArtifactCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisArtifactCache) Close() error {
	return c.client.Close()
}

func (c *RedisArtifactCache) Get(ctx context.Context, token string) (*domain.ReportArtifact, bool, error) {
	val, err := c.client.Get(ctx, artifactKey(token)).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var artifact domain.ReportArtifact
	if err := json.Unmarshal([]byte(val), &artifact); err != nil {
		return nil, false, err
	}
	return &artifact, true, nil
}

func (c *RedisArtifactCache) Set(ctx context.Context, token string, artifact *domain.ReportArtifact, ttl time.Duration) error {
	if artifact == nil {
		return nil
	}
	payload, err := json.Marshal(artifact)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, artifactKey(token), payload, ttl).Err()
}

func artifactKey(token string) string {
	return "report-artifact:" + token
}
