package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/repository/memory"
	"github.com/brandcart/storefront/internal/store"
	"github.com/brandcart/storefront/pkg/logger"
)

// --- Fake marketplace API ---

// fakeAPI serves canned catalog data and records every call.
type fakeAPI struct {
	mu sync.Mutex

	sections    map[apiclient.Section][]domain.Product
	sectionErrs map[apiclient.Section]error
	listings    map[string][]domain.Product
	listErr     error
	products    map[domain.ProductID]domain.Product
	reviews     map[domain.ProductID]domain.ReviewPayload
	reviewErrs  map[domain.ProductID]error
	search      func(apiclient.SearchQuery) ([]domain.Product, error)
	categories  []domain.Category
	brands      []domain.Brand

	// reviewGate, when set, runs before a review fetch answers.
	reviewGate func(ctx context.Context, id domain.ProductID) error

	calls []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		sections:    map[apiclient.Section][]domain.Product{},
		sectionErrs: map[apiclient.Section]error{},
		listings:    map[string][]domain.Product{},
		products:    map[domain.ProductID]domain.Product{},
		reviews:     map[domain.ProductID]domain.ReviewPayload{},
		reviewErrs:  map[domain.ProductID]error{},
	}
}

func (f *fakeAPI) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) count(prefix string) int {
	n := 0
	for _, c := range f.Calls() {
		if len(c) >= len(prefix) && c[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func (f *fakeAPI) ListProducts(_ context.Context, search string) ([]domain.Product, error) {
	f.record("list:%s", search)
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.listings[search], nil
}

func (f *fakeAPI) AllProducts(_ context.Context, limit int) ([]domain.Product, error) {
	f.record("all:%d", limit)
	var out []domain.Product
	for _, p := range f.products {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeAPI) SearchProducts(_ context.Context, q apiclient.SearchQuery) ([]domain.Product, error) {
	f.record("search:%s", q.Q)
	if f.search == nil {
		return nil, nil
	}
	return f.search(q)
}

func (f *fakeAPI) Section(_ context.Context, s apiclient.Section, limit int) ([]domain.Product, error) {
	f.record("section:%s:%d", s, limit)
	if err := f.sectionErrs[s]; err != nil {
		return nil, err
	}
	return f.sections[s], nil
}

func (f *fakeAPI) Product(_ context.Context, id domain.ProductID) (domain.Product, error) {
	f.record("product:%s", id)
	p, ok := f.products[id]
	if !ok {
		return domain.Product{}, &apiclient.StatusError{Status: 404}
	}
	return p, nil
}

func (f *fakeAPI) ProductReviews(ctx context.Context, id domain.ProductID) (domain.ReviewPayload, error) {
	f.record("reviews:%s", id)
	if f.reviewGate != nil {
		if err := f.reviewGate(ctx, id); err != nil {
			return domain.ReviewPayload{}, err
		}
	}
	if err := f.reviewErrs[id]; err != nil {
		return domain.ReviewPayload{}, err
	}
	return f.reviews[id], nil
}

func (f *fakeAPI) Categories(context.Context) ([]domain.Category, error) {
	f.record("categories")
	return f.categories, nil
}

func (f *fakeAPI) Banners(context.Context) ([]domain.Banner, error) {
	f.record("banners")
	return []domain.Banner{}, nil
}

func (f *fakeAPI) TopBrands(context.Context) ([]domain.Brand, error) {
	f.record("brands")
	return f.brands, nil
}

// --- Blocking catalog for session tests ---

// gatedCatalog lets a test decide when each detail load returns.
type gatedCatalog struct {
	mu       sync.Mutex
	listings map[string][]domain.Product
	listErr  error
	details  map[domain.ProductID]domain.Product
	gates    map[domain.ProductID]chan struct{}
	started  chan domain.ProductID
	similar  []domain.Product
	listed   []string
}

func newGatedCatalog() *gatedCatalog {
	return &gatedCatalog{
		listings: map[string][]domain.Product{},
		details:  map[domain.ProductID]domain.Product{},
		gates:    map[domain.ProductID]chan struct{}{},
		started:  make(chan domain.ProductID, 16),
	}
}

// gate makes LoadDetail(id) block until the returned func is called.
func (c *gatedCatalog) gate(id domain.ProductID) func() {
	ch := make(chan struct{})
	c.mu.Lock()
	c.gates[id] = ch
	c.mu.Unlock()
	return func() { close(ch) }
}

func (c *gatedCatalog) LoadListing(_ context.Context, search string) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listed = append(c.listed, search)
	if c.listErr != nil {
		return nil, c.listErr
	}
	return c.listings[search], nil
}

func (c *gatedCatalog) Listed() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.listed...)
}

// LoadDetail ignores cancellation on purpose: a superseded load must still
// be kept from committing when it finally returns.
func (c *gatedCatalog) LoadDetail(_ context.Context, id domain.ProductID) (domain.Product, error) {
	c.mu.Lock()
	gate := c.gates[id]
	p, ok := c.details[id]
	c.mu.Unlock()

	c.started <- id
	if gate != nil {
		<-gate
	}
	if !ok {
		return domain.Product{}, &apiclient.StatusError{Status: 500}
	}
	return p, nil
}

func (c *gatedCatalog) LoadReviews(context.Context, domain.ProductID) domain.ReviewSummary {
	return domain.EmptyReviewSummary()
}

func (c *gatedCatalog) ResolveSeller(_ context.Context, _ domain.ProductID, summary *domain.Product) *domain.Seller {
	if summary != nil {
		return summary.Seller
	}
	return nil
}

func (c *gatedCatalog) LoadSimilar(_ context.Context, _ string, exclude domain.ProductID) []domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := []domain.Product{}
	for _, p := range c.similar {
		if p.ID != exclude {
			out = append(out, p)
		}
	}
	return out
}

func (c *gatedCatalog) ResolveWishlist(_ context.Context, ids []domain.ProductID, pools ...[]domain.Product) []domain.Product {
	out := []domain.Product{}
	for _, id := range ids {
		for i := len(pools) - 1; i >= 0; i-- {
			if p, ok := findProduct(pools[i], id); ok {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

func findProduct(pool []domain.Product, id domain.ProductID) (domain.Product, bool) {
	for _, p := range pool {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// --- Mock publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) CartUpdated(ctx context.Context, sessionID string, cart *domain.Cart) error {
	return m.Called(ctx, sessionID, cart).Error(0)
}

func (m *mockPublisher) WishlistUpdated(ctx context.Context, sessionID string, ids []string) error {
	return m.Called(ctx, sessionID, ids).Error(0)
}

func (m *mockPublisher) CheckoutCompleted(ctx context.Context, sessionID string, lines []domain.CartLine) error {
	return m.Called(ctx, sessionID, lines).Error(0)
}

// --- Helpers ---

const testSessionID = "0d8a4bc4-5d43-4c1b-9f5e-3b7a7e2f9c10"

func product(id, title string, price float64) domain.Product {
	return domain.Product{
		ID:           domain.ProductID(id),
		Title:        title,
		SellingPrice: price,
		Images:       []string{"https://img.example/" + id + ".jpg"},
	}
}

func reviewPayload(t *testing.T, raw string) domain.ReviewPayload {
	t.Helper()
	var p domain.ReviewPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	return p
}

func newTestStore() (*store.Store, *memory.KV) {
	kv := memory.NewKV()
	return store.New(kv, 0, logger.Discard()), kv
}

func waitIdle(t *testing.T, s *Session) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, s.WaitIdle(ctx))
}
