package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/brandcart/storefront/internal/async"
	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/event"
	"github.com/brandcart/storefront/internal/store"
)

// CatalogLoader is the part of Catalog a session drives.
type CatalogLoader interface {
	LoadListing(ctx context.Context, search string) ([]domain.Product, error)
	LoadDetail(ctx context.Context, id domain.ProductID) (domain.Product, error)
	LoadReviews(ctx context.Context, id domain.ProductID) domain.ReviewSummary
	ResolveSeller(ctx context.Context, id domain.ProductID, summary *domain.Product) *domain.Seller
	LoadSimilar(ctx context.Context, category string, excludeID domain.ProductID) []domain.Product
	ResolveWishlist(ctx context.Context, ids []domain.ProductID, pools ...[]domain.Product) []domain.Product
}

// SessionDeps are shared by every session.
type SessionDeps struct {
	Catalog CatalogLoader
	Source  SuggestionSource
	Store   *store.Store
	Events  event.Publisher
	Clock   async.Clock
	Logger  *slog.Logger
	// SiteURL prefixes share links. Empty yields relative links.
	SiteURL string
}

// effect is the bookkeeping of one asynchronous load.
type effect struct {
	guard   async.Latest
	loading bool
	err     string
}

// cancel drops the in-flight load, if any.
func (fx *effect) cancel() {
	fx.guard.Cancel()
	fx.loading = false
	fx.err = ""
}

// Session is the state of one shopper. Every mutation and every effect
// commit happens under mu, in the order they acquire it.
type Session struct {
	id     string
	deps   SessionDeps
	engine *SuggestionEngine

	mu sync.Mutex

	view          domain.View
	searchText    string
	categoryQuery string

	products []domain.Product
	listing  effect

	summary   *domain.Product
	detail    *domain.Product
	image     string
	reviews   domain.ReviewSummary
	seller    *domain.Seller
	similar   []domain.Product
	detailFx  effect
	reviewFx  effect
	sellerFx  effect
	similarFx effect

	cart          *domain.Cart
	wishlist      *domain.Wishlist
	wishlistItems []domain.Product
	wishlistFx    effect

	notice        domain.Notice
	language      string
	notifications bool
	shareURL      string

	pending int
	idle    chan struct{}
	closed  bool
}

// NewSession restores a session from snap and starts loading the trending
// listing. ctx only contributes values; effects outlive it.
func NewSession(ctx context.Context, id string, snap store.Snapshot, deps SessionDeps) *Session {
	if deps.Clock == nil {
		deps.Clock = async.RealClock{}
	}
	if deps.Events == nil {
		deps.Events = event.Noop{}
	}

	idle := make(chan struct{})
	close(idle)

	s := &Session{
		id:            id,
		deps:          deps,
		view:          domain.HomeView{},
		categoryQuery: domain.DefaultCategoryQuery,
		reviews:       domain.EmptyReviewSummary(),
		cart:          domain.NewCart(snap.Cart),
		wishlist:      domain.NewWishlist(snap.Wishlist),
		language:      domain.Languages[0],
		notifications: true,
		idle:          idle,
	}
	s.engine = NewSuggestionEngine(deps.Source, s.suggestionPools, deps.Clock, deps.Logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadListingLocked(ctx, "")
	s.refreshWishlistLocked(ctx)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// runEffect starts work for fx, superseding whatever fx was doing. work runs
// on a context detached from ctx's cancellation; commit runs under mu only if
// no newer run of fx started meanwhile. Caller holds mu.
func runEffect[T any](s *Session, ctx context.Context, fx *effect, work func(context.Context) (T, error), commit func(T, error)) {
	fxCtx, ticket := fx.guard.Begin(context.WithoutCancel(ctx))
	fx.loading = true
	fx.err = ""
	s.begin()

	go func() {
		v, err := work(fxCtx)

		s.mu.Lock()
		defer s.mu.Unlock()
		defer s.end()

		if s.closed || !ticket.Current() {
			return
		}
		fx.loading = false
		commit(v, err)
	}()
}

func (s *Session) begin() {
	if s.pending == 0 {
		s.idle = make(chan struct{})
	}
	s.pending++
}

func (s *Session) end() {
	s.pending--
	if s.pending == 0 {
		close(s.idle)
	}
}

// WaitIdle blocks until no effect is in flight or ctx ends.
func (s *Session) WaitIdle(ctx context.Context) error {
	for {
		s.mu.Lock()
		idle, pending := s.idle, s.pending
		s.mu.Unlock()
		if pending == 0 {
			return nil
		}

		select {
		case <-idle:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close cancels every effect and the suggestion engine. Nothing is committed
// afterwards.
func (s *Session) Close() {
	s.engine.Close()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for _, fx := range []*effect{&s.listing, &s.detailFx, &s.reviewFx, &s.sellerFx, &s.similarFx, &s.wishlistFx} {
		fx.guard.Cancel()
	}
}

// ----------------------------------------------------------------------------
// Effects. All of them are called with mu held.
// ----------------------------------------------------------------------------

func (s *Session) loadListingLocked(ctx context.Context, search string) {
	catalog := s.deps.Catalog
	runEffect(s, ctx, &s.listing,
		func(ctx context.Context) ([]domain.Product, error) {
			return catalog.LoadListing(ctx, search)
		},
		func(items []domain.Product, err error) {
			if err != nil {
				s.deps.Logger.WarnContext(ctx, "listing failed",
					slog.String("search", search),
					slog.String("error", err.Error()),
				)
				s.products = []domain.Product{}
				s.listing.err = err.Error()
			} else {
				s.products = items
			}
			s.refreshWishlistLocked(ctx)
		},
	)
}

// openProductLocked makes summary's product the active one and starts its
// detail, reviews and seller loads.
func (s *Session) openProductLocked(ctx context.Context, summary domain.Product) {
	if summary.ID == "" {
		return
	}
	id := summary.ID
	s.view = domain.WithBase(s.view, domain.ProductView{ID: id})
	s.summary = &summary
	s.detail = nil
	s.image = ""
	s.seller = nil
	s.similar = nil
	s.similarFx.cancel()
	s.reviews = domain.EmptyReviewSummary()
	s.shareURL = ""

	catalog := s.deps.Catalog
	runEffect(s, ctx, &s.detailFx,
		func(ctx context.Context) (domain.Product, error) {
			return catalog.LoadDetail(ctx, id)
		},
		func(p domain.Product, err error) {
			if err != nil {
				s.deps.Logger.WarnContext(ctx, "product detail failed",
					slog.String("product_id", id.String()),
					slog.String("error", err.Error()),
				)
				s.detail = nil
				s.image = ""
				s.detailFx.err = err.Error()
				s.similar = []domain.Product{}
				s.refreshWishlistLocked(ctx)
				return
			}
			s.detail = &p
			s.image = p.FirstImage()
			s.loadSimilarLocked(ctx, id, p.Category)
			s.refreshWishlistLocked(ctx)
		},
	)

	runEffect(s, ctx, &s.reviewFx,
		func(ctx context.Context) (domain.ReviewSummary, error) {
			return catalog.LoadReviews(ctx, id), nil
		},
		func(r domain.ReviewSummary, _ error) {
			s.reviews = r
		},
	)

	summaryCopy := summary
	runEffect(s, ctx, &s.sellerFx,
		func(ctx context.Context) (*domain.Seller, error) {
			return catalog.ResolveSeller(ctx, id, &summaryCopy), nil
		},
		func(seller *domain.Seller, _ error) {
			s.seller = seller
		},
	)

	s.refreshWishlistLocked(ctx)
}

func (s *Session) loadSimilarLocked(ctx context.Context, id domain.ProductID, category string) {
	if strings.TrimSpace(category) == "" {
		s.similarFx.cancel()
		s.similar = []domain.Product{}
		return
	}
	catalog := s.deps.Catalog
	runEffect(s, ctx, &s.similarFx,
		func(ctx context.Context) ([]domain.Product, error) {
			return catalog.LoadSimilar(ctx, category, id), nil
		},
		func(items []domain.Product, _ error) {
			s.similar = items
			s.refreshWishlistLocked(ctx)
		},
	)
}

// closeProductLocked clears the active product and everything loaded for it.
func (s *Session) closeProductLocked(ctx context.Context) {
	if _, ok := domain.ActiveProduct(s.view); !ok {
		return
	}
	s.view = domain.WithBase(s.view, domain.HomeView{})
	for _, fx := range []*effect{&s.detailFx, &s.reviewFx, &s.sellerFx, &s.similarFx} {
		fx.cancel()
	}
	s.summary = nil
	s.detail = nil
	s.image = ""
	s.reviews = domain.EmptyReviewSummary()
	s.seller = nil
	s.similar = nil
	s.shareURL = ""
	s.refreshWishlistLocked(ctx)
}

// refreshWishlistLocked re-resolves the wishlist products against the
// current local pools.
func (s *Session) refreshWishlistLocked(ctx context.Context) {
	ids := s.wishlist.IDs()
	if len(ids) == 0 {
		s.wishlistFx.cancel()
		s.wishlistItems = []domain.Product{}
		return
	}

	pools := s.localPoolsLocked()
	catalog := s.deps.Catalog
	runEffect(s, ctx, &s.wishlistFx,
		func(ctx context.Context) ([]domain.Product, error) {
			return catalog.ResolveWishlist(ctx, ids, pools...), nil
		},
		func(items []domain.Product, _ error) {
			s.wishlistItems = items
		},
	)
}

// localPoolsLocked returns the products the session already holds: the
// listing, the similar strip, the detail and the clicked summary.
func (s *Session) localPoolsLocked() [][]domain.Product {
	pools := [][]domain.Product{s.products, s.similar}
	if s.detail != nil {
		pools = append(pools, []domain.Product{*s.detail})
	}
	if s.summary != nil {
		pools = append(pools, []domain.Product{*s.summary})
	}
	return pools
}

func (s *Session) suggestionPools() [][]domain.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.localPoolsLocked()
}

// findLocalLocked looks id up in the local pools and the wishlist items.
func (s *Session) findLocalLocked(id domain.ProductID) (domain.Product, bool) {
	if s.detail != nil && s.detail.ID == id {
		return *s.detail, true
	}
	for _, pool := range append(s.localPoolsLocked(), s.wishlistItems) {
		for _, p := range pool {
			if p.ID == id {
				return p, true
			}
		}
	}
	return domain.Product{}, false
}

// ----------------------------------------------------------------------------
// Write-through and events. Called with mu held.
// ----------------------------------------------------------------------------

func (s *Session) flashLocked(text string) {
	s.notice = domain.NewNotice(text, s.deps.Clock.Now())
}

func (s *Session) saveCartLocked(ctx context.Context) {
	if err := s.deps.Store.WriteCart(ctx, s.id, s.cart.Lines()); err != nil {
		s.deps.Logger.WarnContext(ctx, "cart not persisted", slog.String("error", err.Error()))
	}
	cart := domain.NewCart(s.cart.Lines())
	s.publishLocked(ctx, event.TopicCartUpdated, func(ctx context.Context) error {
		return s.deps.Events.CartUpdated(ctx, s.id, cart)
	})
}

func (s *Session) saveWishlistLocked(ctx context.Context) {
	ids := s.wishlist.Strings()
	if err := s.deps.Store.WriteWishlist(ctx, s.id, ids); err != nil {
		s.deps.Logger.WarnContext(ctx, "wishlist not persisted", slog.String("error", err.Error()))
	}
	s.publishLocked(ctx, event.TopicWishlistUpdated, func(ctx context.Context) error {
		return s.deps.Events.WishlistUpdated(ctx, s.id, ids)
	})
}

// publishLocked sends an event in the background. Failures are logged only.
func (s *Session) publishLocked(ctx context.Context, topic string, send func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	s.begin()
	go func() {
		err := send(ctx)

		s.mu.Lock()
		s.end()
		s.mu.Unlock()

		if err != nil {
			s.deps.Logger.WarnContext(ctx, "storefront event dropped",
				slog.String("topic", topic),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// ----------------------------------------------------------------------------
// Snapshot
// ----------------------------------------------------------------------------

// Snapshot is a consistent copy of the session state for rendering.
type Snapshot struct {
	SessionID       string                 `json:"session_id"`
	View            string                 `json:"view"`
	Panel           domain.Panel           `json:"panel,omitempty"`
	ActiveProductID domain.ProductID       `json:"active_product_id,omitempty"`
	SearchText      string                 `json:"search_text"`
	CategoryQuery   string                 `json:"category_query"`
	Category        *domain.CategoryLayout `json:"category,omitempty"`

	Products        []domain.Product `json:"products"`
	ProductsLoading bool             `json:"products_loading"`
	ProductsError   string           `json:"products_error,omitempty"`

	Summary        *domain.Product      `json:"summary,omitempty"`
	Detail         *domain.Product      `json:"detail,omitempty"`
	DetailLoading  bool                 `json:"detail_loading"`
	DetailError    string               `json:"detail_error,omitempty"`
	SelectedImage  string               `json:"selected_image,omitempty"`
	Reviews        domain.ReviewSummary `json:"reviews"`
	ReviewsLoading bool                 `json:"reviews_loading"`
	Seller         *domain.Seller       `json:"seller,omitempty"`
	Similar        []domain.Product     `json:"similar"`
	SimilarLoading bool                 `json:"similar_loading"`
	Wishlisted     bool                 `json:"wishlisted"`
	ShareURL       string               `json:"share_url,omitempty"`

	Cart            []domain.CartLine  `json:"cart"`
	CartCount       int                `json:"cart_count"`
	CartSubtotal    float64            `json:"cart_subtotal"`
	Wishlist        []domain.ProductID `json:"wishlist"`
	WishlistItems   []domain.Product   `json:"wishlist_items"`
	WishlistLoading bool               `json:"wishlist_loading"`

	Notice        string `json:"notice,omitempty"`
	Language      string `json:"language"`
	Notifications bool   `json:"notifications"`
}

// Snapshot copies the current state. An expired notice is left out.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:       s.id,
		View:            s.view.Name(),
		SearchText:      s.searchText,
		CategoryQuery:   s.categoryQuery,
		Products:        cloneProducts(s.products),
		ProductsLoading: s.listing.loading,
		ProductsError:   s.listing.err,
		SelectedImage:   s.image,
		DetailLoading:   s.detailFx.loading,
		DetailError:     s.detailFx.err,
		Reviews:         s.reviews,
		ReviewsLoading:  s.reviewFx.loading,
		Seller:          s.seller,
		Similar:         cloneProducts(s.similar),
		SimilarLoading:  s.similarFx.loading,
		ShareURL:        s.shareURL,
		Cart:            s.cart.Lines(),
		CartCount:       s.cart.ItemCount(),
		CartSubtotal:    s.cart.Subtotal(),
		Wishlist:        s.wishlist.IDs(),
		WishlistItems:   cloneProducts(s.wishlistItems),
		WishlistLoading: s.wishlistFx.loading,
		Language:        s.language,
		Notifications:   s.notifications,
	}
	if p, ok := s.view.(domain.PanelView); ok {
		snap.Panel = p.Panel
	}
	if id, ok := domain.ActiveProduct(s.view); ok {
		snap.ActiveProductID = id
		snap.Wishlisted = s.wishlist.Contains(id)
	}
	if _, ok := domain.Base(s.view).(domain.CategoryView); ok {
		layout := domain.LayoutCategory(s.products, s.categoryQuery)
		snap.Category = &layout
	}
	if s.summary != nil {
		summary := *s.summary
		snap.Summary = &summary
	}
	if s.detail != nil {
		detail := *s.detail
		snap.Detail = &detail
	}
	if s.notice.Active(s.deps.Clock.Now()) {
		snap.Notice = s.notice.Text
	}
	return snap
}

// Location is the URL the session is showing: the home page, with the
// active product as the p parameter.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return locationOf(s.view)
}

func locationOf(v domain.View) string {
	id, ok := domain.ActiveProduct(v)
	if !ok {
		return "/"
	}
	return "/?" + url.Values{"p": {id.String()}}.Encode()
}

func cloneProducts(in []domain.Product) []domain.Product {
	out := make([]domain.Product, len(in))
	copy(out, in)
	return out
}
