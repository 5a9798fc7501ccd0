package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/domain"
	apperrors "github.com/brandcart/storefront/pkg/errors"
)

// Revalidation tags and their freshness hints.
const (
	TagCategories = "categories"
	TagBanners    = "banners"
	TagBrands     = "brands"

	categoriesTTL = 3600 * time.Second
	bannersTTL    = 1800 * time.Second
	brandsTTL     = 1800 * time.Second
)

// Home holds the pincode-gated home sections.
type Home struct {
	FlashDeals   []domain.Product `json:"flash_deals"`
	TopDiscounts []domain.Product `json:"top_discounts"`
	Trending     []domain.Product `json:"trending"`
	Recommended  []domain.Product `json:"recommended"`
	Brands       []domain.Brand   `json:"brands"`
}

// Empty reports whether no section has anything to show.
func (h Home) Empty() bool {
	return len(h.FlashDeals)+len(h.TopDiscounts)+len(h.Trending)+len(h.Recommended)+len(h.Brands) == 0
}

// HomeSections fetches every home section concurrently. A failed section is
// empty.
func (c *Catalog) HomeSections(ctx context.Context) Home {
	var h Home
	var g errgroup.Group

	section := func(dst *[]domain.Product, s apiclient.Section) {
		g.Go(func() error {
			items, err := c.api.Section(ctx, s, 0)
			if err != nil {
				c.logger.WarnContext(ctx, "home section unavailable",
					slog.String("section", string(s)),
					slog.String("error", err.Error()),
				)
				items = []domain.Product{}
			}
			*dst = items
			return nil
		})
	}
	section(&h.FlashDeals, apiclient.SectionFlashDeals)
	section(&h.TopDiscounts, apiclient.SectionTopDiscounts)
	section(&h.Trending, apiclient.SectionTrending)
	section(&h.Recommended, apiclient.SectionRecommended)
	g.Go(func() error {
		brands, err := c.TopBrands(ctx)
		if err != nil {
			brands = []domain.Brand{}
		}
		h.Brands = brands
		return nil
	})

	_ = g.Wait()
	return h
}

// Categories returns the category list, cached for an hour under the
// "categories" tag.
func (c *Catalog) Categories(ctx context.Context) ([]domain.Category, error) {
	return cached(ctx, c, "cache:categories", TagCategories, categoriesTTL, c.api.Categories)
}

// Banners returns the home banners, cached for 30 minutes.
func (c *Catalog) Banners(ctx context.Context) ([]domain.Banner, error) {
	return cached(ctx, c, "cache:banners", TagBanners, bannersTTL, c.api.Banners)
}

// TopBrands returns the top brands, cached for 30 minutes.
func (c *Catalog) TopBrands(ctx context.Context) ([]domain.Brand, error) {
	return cached(ctx, c, "cache:brands", TagBrands, brandsTTL, c.api.TopBrands)
}

// Revalidate drops every cached response recorded under tag.
func (c *Catalog) Revalidate(ctx context.Context, tag string) (int, error) {
	switch tag {
	case TagCategories, TagBanners, TagBrands:
	default:
		return 0, apperrors.InvalidInput(fmt.Sprintf("unknown revalidation tag %q", tag))
	}
	if c.cache == nil {
		return 0, nil
	}
	n, err := c.cache.DropTag(ctx, tag)
	if err != nil {
		return 0, fmt.Errorf("revalidate %s: %w", tag, err)
	}
	c.logger.InfoContext(ctx, "cache revalidated", slog.String("tag", tag), slog.Int("keys", n))
	return n, nil
}

// cached serves key from the KV when present and otherwise calls fetch and
// stores its answer for ttl. Cache failures only cost a refetch.
func cached[T any](ctx context.Context, c *Catalog, key, tag string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, key); err == nil {
			var v T
			if json.Unmarshal(data, &v) == nil {
				return v, nil
			}
		}
	}

	v, err := fetch(ctx)
	if err != nil || c.cache == nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := c.cache.Set(ctx, key, data, ttl); err != nil {
		c.logger.WarnContext(ctx, "response cache write failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return v, nil
	}
	if err := c.cache.Tag(ctx, tag, key); err != nil {
		c.logger.WarnContext(ctx, "response cache tag failed",
			slog.String("tag", tag),
			slog.String("error", err.Error()),
		)
	}
	return v, nil
}
