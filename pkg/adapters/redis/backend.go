// Package redis stores the notes under one Redis string key.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aretw0/stickies/pkg/core"
)

// Backend implements core.Backend on a Redis key.
type Backend struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// Config holds the connection settings.
type Config struct {
	Addr        string        `yaml:"addr" env:"ADDR" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"PASSWORD"`
	DB          int           `yaml:"db" env:"DB"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT" env-default:"5s"`
	Key         string        `yaml:"key" env:"KEY"`
}

// New connects to Redis and verifies the connection with PING.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewFromClient(client, cfg.Key, logger), nil
}

// NewFromClient wraps an existing client.
func NewFromClient(client *redis.Client, key string, logger *slog.Logger) *Backend {
	if key == "" {
		key = core.DefaultKey
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Backend{client: client, key: key, logger: logger}
}

// Load returns the value of the key, or core.ErrNoState when it is unset.
func (b *Backend) Load(ctx context.Context) ([]byte, error) {
	value, err := b.client.Get(ctx, b.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrNoState
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get value from redis: %w", err)
	}
	return value, nil
}

// Save sets the key without expiry.
func (b *Backend) Save(ctx context.Context, data []byte) error {
	if err := b.client.Set(ctx, b.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set value in redis: %w", err)
	}
	b.logger.Debug("saved", "backend", "redis", "key", b.key, "bytes", len(data))
	return nil
}

// Close closes the client.
func (b *Backend) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("failed to close redis connection: %w", err)
	}
	return nil
}

var _ core.Backend = (*Backend)(nil)
