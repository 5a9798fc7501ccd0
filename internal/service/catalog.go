package service

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/repository"
)

const (
	// ListingLimit is the size of the default (trending) listing.
	ListingLimit = 24
	// SimilarLimit caps the similar products strip.
	SimilarLimit = 16
	// sellerScanLimit is how many products each fallback section is scanned.
	sellerScanLimit = 60
	// defaultFanOut bounds concurrent per-product fetches.
	defaultFanOut = 8
)

// sellerScanSections are scanned in order when the clicked product carried
// no seller.
var sellerScanSections = []apiclient.Section{
	apiclient.SectionTrending,
	apiclient.SectionRecommended,
	apiclient.SectionTopDiscounts,
}

// Catalog loads listings, product details and their secondary data. Every
// operation degrades on its own: only LoadListing and LoadDetail report
// errors.
type Catalog struct {
	api    CatalogAPI
	cache  repository.KV
	logger *slog.Logger
	fanOut int
}

// NewCatalog creates a catalog. cache may be nil, in which case cached
// lookups always hit the API.
func NewCatalog(api CatalogAPI, cache repository.KV, logger *slog.Logger) *Catalog {
	return &Catalog{api: api, cache: cache, logger: logger, fanOut: defaultFanOut}
}

// LoadListing fetches the listing for search, or the trending listing when
// search is blank, and enriches it with review statistics.
func (c *Catalog) LoadListing(ctx context.Context, search string) ([]domain.Product, error) {
	var (
		items []domain.Product
		err   error
	)
	if q := strings.TrimSpace(search); q != "" {
		items, err = c.api.ListProducts(ctx, q)
	} else {
		items, err = c.api.Section(ctx, apiclient.SectionTrending, ListingLimit)
	}
	if err != nil {
		return nil, err
	}
	return c.Enrich(ctx, items), nil
}

// Enrich attaches review statistics to every item. Fetches run concurrently;
// the output keeps the input order. An item without an id, or whose review
// fetch fails, gets a zero count and no average.
func (c *Catalog) Enrich(ctx context.Context, items []domain.Product) []domain.Product {
	out := make([]domain.Product, len(items))

	var g errgroup.Group
	g.SetLimit(c.fanOut)
	for i, p := range items {
		i, p := i, p
		g.Go(func() error {
			out[i] = p.WithReviews(c.summaryFor(ctx, p.ID))
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (c *Catalog) summaryFor(ctx context.Context, id domain.ProductID) domain.ReviewSummary {
	if id == "" {
		return domain.EmptyReviewSummary()
	}
	payload, err := c.api.ProductReviews(ctx, id)
	if err != nil {
		if ctx.Err() != nil {
			return domain.EmptyReviewSummary()
		}
		enrichmentFailures.Inc()
		c.logger.DebugContext(ctx, "review enrichment failed",
			slog.String("product_id", id.String()),
			slog.String("error", err.Error()),
		)
		return domain.EmptyReviewSummary()
	}
	return domain.SummarizeReviews(payload)
}

// LoadDetail fetches one product.
func (c *Catalog) LoadDetail(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	return c.api.Product(ctx, id)
}

// LoadReviews returns the review summary of a product, or an empty summary.
func (c *Catalog) LoadReviews(ctx context.Context, id domain.ProductID) domain.ReviewSummary {
	return c.summaryFor(ctx, id)
}

// ResolveSeller prefers the seller embedded in summary, the card the user
// clicked. Otherwise it scans the curated sections in order and returns the
// seller of the first card with the same id that carries one.
func (c *Catalog) ResolveSeller(ctx context.Context, id domain.ProductID, summary *domain.Product) *domain.Seller {
	if summary != nil && summary.Seller != nil {
		return summary.Seller
	}
	if id == "" {
		return nil
	}

	for _, section := range sellerScanSections {
		items, err := c.api.Section(ctx, section, sellerScanLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			continue
		}
		for _, item := range items {
			if item.ID == id && item.Seller != nil {
				return item.Seller
			}
		}
	}
	return nil
}

// LoadSimilar searches by category, drops the active product and items
// without an id, keeps the first SimilarLimit and enriches them. Failures
// yield an empty list.
func (c *Catalog) LoadSimilar(ctx context.Context, category string, excludeID domain.ProductID) []domain.Product {
	if strings.TrimSpace(category) == "" {
		return []domain.Product{}
	}
	items, err := c.api.ListProducts(ctx, category)
	if err != nil {
		c.logger.DebugContext(ctx, "similar products unavailable",
			slog.String("category", category),
			slog.String("error", err.Error()),
		)
		return []domain.Product{}
	}

	similar := make([]domain.Product, 0, SimilarLimit)
	for _, item := range items {
		if item.ID == "" || item.ID == excludeID {
			continue
		}
		similar = append(similar, item)
		if len(similar) == SimilarLimit {
			break
		}
	}
	return c.Enrich(ctx, similar)
}

// ResolveWishlist turns wishlist ids into products. Ids found in pools are
// used as is, with later pools overriding earlier ones; the rest are fetched
// concurrently and omitted on failure. The result follows the order of ids.
func (c *Catalog) ResolveWishlist(ctx context.Context, ids []domain.ProductID, pools ...[]domain.Product) []domain.Product {
	local := make(map[domain.ProductID]domain.Product)
	for _, pool := range pools {
		for _, p := range pool {
			if p.ID != "" {
				local[p.ID] = p
			}
		}
	}

	resolved := make([]*domain.Product, len(ids))
	var g errgroup.Group
	g.SetLimit(c.fanOut)
	for i, id := range ids {
		i, id := i, id
		if p, ok := local[id]; ok {
			resolved[i] = &p
			continue
		}
		g.Go(func() error {
			p, err := c.api.Product(ctx, id)
			if err != nil {
				c.logger.DebugContext(ctx, "wishlist item unavailable",
					slog.String("product_id", id.String()),
					slog.String("error", err.Error()),
				)
				return nil
			}
			resolved[i] = &p
			return nil
		})
	}
	_ = g.Wait()

	out := make([]domain.Product, 0, len(ids))
	for _, p := range resolved {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out
}

// AllProducts lists up to limit products for the sitemap.
func (c *Catalog) AllProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	return c.api.AllProducts(ctx, limit)
}
