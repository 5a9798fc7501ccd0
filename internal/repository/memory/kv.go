// Package memory is the in-process KV used when Redis is disabled and in
// tests.
package memory

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/brandcart/storefront/pkg/errors"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// KV is a mutex-guarded map with lazy expiry.
type KV struct {
	mu      sync.RWMutex
	data    map[string]entry
	tags    map[string]map[string]struct{}
	nowFunc func() time.Time
}

// NewKV creates an empty store.
func NewKV() *KV {
	return &KV{
		data:    make(map[string]entry),
		tags:    make(map[string]map[string]struct{}),
		nowFunc: time.Now,
	}
}

// Get returns a copy of the stored value.
func (s *KV) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.data[key]
	s.mu.RUnlock()

	if !ok || e.expired(s.nowFunc()) {
		return nil, apperrors.NotFound("key", key)
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a copy of value.
func (s *KV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.nowFunc().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = e
	return nil
}

// Delete removes keys.
func (s *KV) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Tag records key under tag.
func (s *KV) Tag(_ context.Context, tag, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.tags[tag]
	if !ok {
		members = make(map[string]struct{})
		s.tags[tag] = members
	}
	members[key] = struct{}{}
	return nil
}

// DropTag removes every live key recorded under tag.
func (s *KV) DropTag(_ context.Context, tag string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	n := 0
	for k := range s.tags[tag] {
		if e, ok := s.data[k]; ok && !e.expired(now) {
			n++
		}
		delete(s.data, k)
	}
	delete(s.tags, tag)
	return n, nil
}

// Ping always succeeds.
func (s *KV) Ping(context.Context) error { return nil }

// Sweep drops expired entries and returns how many were removed.
func (s *KV) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	n := 0
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
			n++
		}
	}
	return n
}
