// Package cache mirrors the latest view of every entity into Redis hashes,
// one hash per kind keyed by entity id.
package cache

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/go-redis/redis/v8"

	"github.com/anicoll/fleetsync/internal/pkg/model"
	"github.com/anicoll/fleetsync/internal/pkg/views"
)

const keyPrefix = "fleetsync:"

// HashStore writes whole batches of hash fields.
type HashStore interface {
	HSetAll(ctx context.Context, hashes map[string]map[string]any) error
}

type RedisHashStore struct {
	client *redis.Client
}

func NewRedisHashStore(client *redis.Client) *RedisHashStore {
	return &RedisHashStore{client: client}
}

// HSetAll sends every hash in a single pipeline.
func (r *RedisHashStore) HSetAll(ctx context.Context, hashes map[string]map[string]any) error {
	_, err := r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for key, fields := range hashes {
			pipe.HSet(ctx, key, fields)
		}
		return nil
	})
	return err
}

type Cache struct {
	store HashStore
}

func New(store HashStore) *Cache {
	return &Cache{store: store}
}

func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func Key(kind model.Kind) string {
	return keyPrefix + kind.String()
}

func (c *Cache) Write(ctx context.Context, data []views.View) error {
	hashes := make(map[string]map[string]any)
	for _, v := range data {
		payload, err := json.Marshal(v)
		if err != nil {
			return err
		}
		key := Key(v.Kind)
		if hashes[key] == nil {
			hashes[key] = make(map[string]any)
		}
		hashes[key][strconv.FormatInt(int64(v.ID), 10)] = string(payload)
	}
	if len(hashes) == 0 {
		return nil
	}
	return c.store.HSetAll(ctx, hashes)
}
