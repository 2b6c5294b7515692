package redis

import (
	"context"
	"fmt"

	"critical-approve/internal/config"
	"github.com/redis/go-redis/v9"
)

type Store struct {
	client *redis.Client
}

// Connect – returns nil when redis is not configured
func Connect(ctx context.Context, cfg config.Redis) (*Store, error) {
	if !cfg.Enabled() {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Store{client: client}, nil
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (r *Store) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Store) Close() error {
	return r.client.Close()
}
