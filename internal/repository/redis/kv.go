package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/brandcart/storefront/pkg/errors"
)

const (
	keyPrefix = "storefront:"
	tagPrefix = "storefront:tag:"
)

// KV implements repository.KV on Redis. Tags are Redis sets of member keys.
type KV struct {
	client *redis.Client
}

// NewKV creates a Redis-backed KV.
func NewKV(client *redis.Client) *KV {
	return &KV{client: client}
}

// Get reads a key.
func (s *KV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("key", key)
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, nil
}

// Set writes a key with an optional TTL.
func (s *KV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes keys.
func (s *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = keyPrefix + k
	}
	if err := s.client.Del(ctx, full...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Tag adds key to the tag's member set.
func (s *KV) Tag(ctx context.Context, tag, key string) error {
	if err := s.client.SAdd(ctx, tagPrefix+tag, key).Err(); err != nil {
		return fmt.Errorf("redis tag %s: %w", tag, err)
	}
	return nil
}

// DropTag deletes every member key and the tag set itself.
func (s *KV) DropTag(ctx context.Context, tag string) (int, error) {
	members, err := s.client.SMembers(ctx, tagPrefix+tag).Result()
	if err != nil {
		return 0, fmt.Errorf("redis members %s: %w", tag, err)
	}

	if len(members) == 0 {
		return 0, nil
	}

	full := make([]string, len(members))
	for i, m := range members {
		full[i] = keyPrefix + m
	}

	var removed *redis.IntCmd
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		removed = pipe.Del(ctx, full...)
		pipe.Del(ctx, tagPrefix+tag)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("redis drop tag %s: %w", tag, err)
	}
	return int(removed.Val()), nil
}

// Ping checks the connection.
func (s *KV) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
