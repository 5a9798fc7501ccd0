package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/repository/memory"
	redisrepo "github.com/brandcart/storefront/internal/repository/redis"
	"github.com/brandcart/storefront/pkg/logger"
)

const sid = "6f1c2a9e-2f0b-4c55-9a0e-0d6f3e1c7b11"

func newMemoryStore(t *testing.T) (*Store, *memory.KV) {
	t.Helper()
	kv := memory.NewKV()
	return New(kv, time.Hour, logger.Discard()), kv
}

// failingKV answers every call with a backend error.
type failingKV struct{ memory.KV }

func (*failingKV) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

// ============================================================================
// Tolerant reads
// ============================================================================

func TestReadList_MalformedReadsEmpty(t *testing.T) {
	cases := map[string]string{
		"invalid json": `{not json`,
		"object":       `{"id":"1"}`,
		"string":       `"hello"`,
		"number":       `42`,
		"null":         `null`,
		"empty":        ``,
	}

	for name, stored := range cases {
		t.Run(name, func(t *testing.T) {
			s, kv := newMemoryStore(t)
			ctx := context.Background()
			require.NoError(t, kv.Set(ctx, Key(sid, CartKey), []byte(stored), 0))
			require.NoError(t, kv.Set(ctx, Key(sid, WishlistKey), []byte(stored), 0))

			assert.NotNil(t, s.ReadList(ctx, Key(sid, CartKey)))
			assert.Empty(t, s.ReadList(ctx, Key(sid, CartKey)))
			assert.Empty(t, s.ReadCart(ctx, sid))
			assert.Empty(t, s.ReadWishlist(ctx, sid))
		})
	}
}

func TestReadList_MissingKey(t *testing.T) {
	s, _ := newMemoryStore(t)
	snap := s.Load(context.Background(), sid)
	assert.Empty(t, snap.Cart)
	assert.Empty(t, snap.Wishlist)
}

func TestReadList_BackendError(t *testing.T) {
	s := New(&failingKV{}, 0, logger.Discard())
	assert.Empty(t, s.ReadList(context.Background(), "k"))
	assert.Empty(t, s.ReadCart(context.Background(), sid))
}

func TestReadCart_FiltersEntries(t *testing.T) {
	s, kv := newMemoryStore(t)
	ctx := context.Background()
	stored := `[
		{"id":"a","title":"Phone","image":"a.jpg","price":999,"qty":2},
		{"id":7,"title":"Case","price":"149","qty":0},
		{"title":"no id","qty":1},
		{"id":"","qty":1},
		{"id":0,"qty":1},
		"string entry",
		null,
		{"id":"b","qty":"abc"}
	]`
	require.NoError(t, kv.Set(ctx, Key(sid, CartKey), []byte(stored), 0))

	got := s.ReadCart(ctx, sid)
	require.Len(t, got, 3)
	assert.Equal(t, domain.CartLine{ID: "a", Title: "Phone", Image: "a.jpg", Price: 999, Qty: 2}, got[0])
	assert.Equal(t, domain.CartLine{ID: "7", Title: "Case", Price: 149, Qty: 1}, got[1])
	assert.Equal(t, domain.ProductID("b"), got[2].ID)
	assert.Equal(t, 1, got[2].Qty)
}

func TestReadWishlist_KeepsStrings(t *testing.T) {
	s, kv := newMemoryStore(t)
	ctx := context.Background()
	require.NoError(t, kv.Set(ctx, Key(sid, WishlistKey), []byte(`["a", 3, null, {"id":"x"}, "b"]`), 0))

	assert.Equal(t, []string{"a", "b"}, s.ReadWishlist(ctx, sid))
}

// ============================================================================
// Writes
// ============================================================================

func TestWrite_ThenLoad(t *testing.T) {
	s, _ := newMemoryStore(t)
	ctx := context.Background()

	lines := []domain.CartLine{{ID: "a", Title: "Phone", Price: 999, Qty: 3}}
	require.NoError(t, s.WriteCart(ctx, sid, lines))
	require.NoError(t, s.WriteWishlist(ctx, sid, []string{"x", "y"}))

	snap := s.Load(ctx, sid)
	assert.Equal(t, lines, snap.Cart)
	assert.Equal(t, []string{"x", "y"}, snap.Wishlist)
}

func TestWrite_EmptyWritesArray(t *testing.T) {
	s, kv := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, s.WriteCart(ctx, sid, nil))
	raw, err := kv.Get(ctx, Key(sid, CartKey))
	require.NoError(t, err)
	assert.Equal(t, "[]", string(raw))
}

func TestWrite_RedisTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	s := New(redisrepo.NewKV(client), 720*time.Hour, logger.Discard())
	require.NoError(t, s.WriteWishlist(context.Background(), sid, []string{"p1"}))

	assert.Equal(t, 720*time.Hour, mr.TTL("storefront:"+Key(sid, WishlistKey)))
	assert.Equal(t, []string{"p1"}, s.ReadWishlist(context.Background(), sid))
}
