package student

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SeakMengs/AutoCertLMS/internal/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheKeyPrefix = "autocert:student:"

// Cache stores raw student records keyed by user id.
type Cache interface {
	Get(ctx context.Context, id string) ([]byte, bool, error)
	Set(ctx context.Context, id string, data []byte) error
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.SugaredLogger
}

func NewRedisCache(cfg config.RedisConfig, logger *zap.SugaredLogger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.ADDR,
		Password: cfg.PASSWORD,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger.Infof("Redis connected successfully, addr: %s, db: %d", cfg.ADDR, cfg.DB)

	return &RedisCache{client: client, ttl: cfg.StudentTTL, logger: logger}, nil
}

func (r *RedisCache) Get(ctx context.Context, id string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, cacheKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (r *RedisCache) Set(ctx context.Context, id string, data []byte) error {
	return r.client.Set(ctx, cacheKeyPrefix+id, data, r.ttl).Err()
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}
