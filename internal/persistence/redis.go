package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/coralises/guildflow/internal/config"
	"github.com/coralises/guildflow/internal/domain"
)

// Redis wraps the go-redis client.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// RedisStore keeps the document under a single key; SET replaces the value
// atomically, satisfying the Driver contract.
type RedisStore struct {
	client *redis.Client
	key    string
	logger *zap.Logger
}

// NewRedisStore creates a redis-backed driver.
func NewRedisStore(r *Redis, key string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: r.Client, key: key, logger: logger}
}

// Load reads the document key, initializing the empty schema on first run.
func (s *RedisStore) Load(ctx context.Context) (*domain.Document, error) {
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			doc := domain.NewDocument()
			if err := s.Save(ctx, doc); err != nil {
				return nil, err
			}
			s.logger.Info("initialized empty document key", zap.String("key", s.key))
			return doc, nil
		}
		return nil, fmt.Errorf("read document key: %w", err)
	}

	doc := domain.NewDocument()
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, fmt.Errorf("decode document key: %w", err)
	}
	return doc, nil
}

// Save replaces the document key.
func (s *RedisStore) Save(ctx context.Context, doc *domain.Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("write document key: %w", err)
	}
	return nil
}
