package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/store"
	"github.com/brandcart/storefront/pkg/logger"
)

func newTestManager(t *testing.T) (*SessionManager, *store.Store) {
	t.Helper()
	st, _ := newTestStore()
	m := NewSessionManager(SessionDeps{
		Catalog: newGatedCatalog(),
		Source:  &countingSource{},
		Store:   st,
		Logger:  logger.Discard(),
	}, time.Hour)
	t.Cleanup(m.Stop)
	return m, st
}

func TestSessionManager_RestoresFromStore(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()
	require.NoError(t, st.WriteCart(ctx, testSessionID, []domain.CartLine{{ID: "a", Title: "A", Price: 5, Qty: 2}}))
	require.NoError(t, st.WriteWishlist(ctx, testSessionID, []string{"w1"}))

	s := m.Get(ctx, testSessionID)
	waitIdle(t, s)

	snap := s.Snapshot()
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, 2, snap.Cart[0].Qty)
	assert.Equal(t, []domain.ProductID{"w1"}, snap.Wishlist)

	assert.Same(t, s, m.Get(ctx, testSessionID))
	assert.Equal(t, 1, m.Len())
}

func TestSessionManager_ConcurrentFirstRequests(t *testing.T) {
	m, _ := newTestManager(t)

	var wg sync.WaitGroup
	got := make([]*Session, 8)
	for i := range got {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			got[i] = m.Get(context.Background(), testSessionID)
		}()
	}
	wg.Wait()

	for _, s := range got {
		assert.Same(t, got[0], s)
	}
	assert.Equal(t, 1, m.Len())
}

func TestSessionManager_EvictsIdleSessions(t *testing.T) {
	m, st := newTestManager(t)
	ctx := context.Background()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	m.mu.Lock()
	m.nowFunc = func() time.Time { return now }
	m.mu.Unlock()

	s := m.Get(ctx, testSessionID)
	m.Get(ctx, "other")

	now = now.Add(30 * time.Minute)
	m.Get(ctx, "other")

	now = now.Add(45 * time.Minute)
	assert.Equal(t, 1, m.evictIdle())
	assert.Equal(t, 1, m.Len())

	// The evicted shopper comes back to the persisted state.
	require.NoError(t, st.WriteCart(ctx, testSessionID, []domain.CartLine{{ID: "z", Title: "Z", Price: 1, Qty: 1}}))
	restored := m.Get(ctx, testSessionID)
	assert.NotSame(t, s, restored)
	assert.Len(t, restored.Snapshot().Cart, 1)
}

func TestSessionManager_StopClosesSessions(t *testing.T) {
	m, _ := newTestManager(t)
	s := m.Get(context.Background(), testSessionID)

	m.Stop()
	m.Stop()

	assert.Equal(t, 0, m.Len())
	_, ok := s.Suggest(context.Background(), "phone")
	assert.False(t, ok)
}
