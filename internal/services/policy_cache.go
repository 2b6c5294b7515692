package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"critical-approve/internal/models"
	rdb "critical-approve/pkg/db/redis"
)

// ErrCacheMiss – policy is not cached
var ErrCacheMiss = rdb.ErrMiss

type PolicyCache interface {
	Get(ctx context.Context, id string) (*models.ActionType, error)
	Set(ctx context.Context, at *models.ActionType) error
	Invalidate(ctx context.Context, id string) error
}

// RedisPolicyCache – action type policies as JSON under policy:<id>
type RedisPolicyCache struct {
	store *rdb.Store
	ttl   time.Duration
}

func NewRedisPolicyCache(store *rdb.Store, ttl time.Duration) *RedisPolicyCache {
	return &RedisPolicyCache{store: store, ttl: ttl}
}

func policyKey(id string) string {
	return "policy:" + id
}

func (c *RedisPolicyCache) Get(ctx context.Context, id string) (*models.ActionType, error) {
	raw, err := c.store.GetValue(ctx, policyKey(id))
	if err != nil {
		return nil, err
	}
	var at models.ActionType
	if err := json.Unmarshal(raw, &at); err != nil {
		// corrupted entry behaves like a miss and is overwritten on the next read
		return nil, errors.Join(ErrCacheMiss, err)
	}
	return &at, nil
}

func (c *RedisPolicyCache) Set(ctx context.Context, at *models.ActionType) error {
	raw, err := json.Marshal(at)
	if err != nil {
		return err
	}
	return c.store.SetValue(ctx, policyKey(at.ID), raw, c.ttl)
}

func (c *RedisPolicyCache) Invalidate(ctx context.Context, id string) error {
	return c.store.Delete(ctx, policyKey(id))
}
