package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/seo"
	"github.com/brandcart/storefront/internal/service"
	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/pagination"
)

// Search page paging.
const (
	searchPageSize    = 20
	searchMaxPageSize = 50
)

// Catalog is the read side the pages need.
type Catalog interface {
	LoadDetail(ctx context.Context, id domain.ProductID) (domain.Product, error)
	LoadReviews(ctx context.Context, id domain.ProductID) domain.ReviewSummary
	Search(ctx context.Context, p service.SearchParams) (service.SearchResult, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Banners(ctx context.Context) ([]domain.Banner, error)
	HomeSections(ctx context.Context) service.Home
	AllProducts(ctx context.Context, limit int) ([]domain.Product, error)
	Revalidate(ctx context.Context, tag string) (int, error)
}

// PageHandler serves the crawlable pages: product, category and search
// pages plus the sitemap and robots rules.
type PageHandler struct {
	catalog Catalog
	render  *Renderer
	siteURL string
	now     func() time.Time
	logger  *slog.Logger
}

// NewPageHandler creates the public page handler.
func NewPageHandler(catalog Catalog, render *Renderer, siteURL string, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		catalog: catalog,
		render:  render,
		siteURL: siteURL,
		now:     time.Now,
		logger:  logger,
	}
}

type productPage struct {
	Product *domain.Product
	Reviews domain.ReviewSummary
}

type pager struct {
	Prev, Next       int
	PrevURL, NextURL string
}

type listingPage struct {
	Name     string
	Query    string
	Category string
	Result   service.SearchResult
	Pager    pager
	Error    string
}

// Product handles GET /product/{id}
func (h *PageHandler) Product(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := idParam(r)

	var (
		p       domain.Product
		reviews domain.ReviewSummary
		err     error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err = h.catalog.LoadDetail(gctx, id)
		return nil
	})
	g.Go(func() error {
		reviews = h.catalog.LoadReviews(gctx, id)
		return nil
	})
	_ = g.Wait()

	if err != nil {
		status := http.StatusNotFound
		if !errors.Is(err, apperrors.ErrNotFound) {
			status = apperrors.HTTPStatus(err)
			h.logger.WarnContext(ctx, "product page unavailable",
				slog.String("product_id", id.String()),
				slog.String("error", err.Error()),
			)
		}
		h.render.HTML(w, r, status, "product", seo.ProductMeta(h.siteURL, nil), productPage{})
		return
	}

	h.render.HTML(w, r, http.StatusOK, "product", seo.ProductMeta(h.siteURL, &p),
		productPage{Product: &p, Reviews: reviews},
		seo.ProductJSONLD(p),
		seo.BreadcrumbJSONLD(h.siteURL, p),
	)
}

// Category handles GET /category/{slug}
func (h *PageHandler) Category(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slug := strings.ToLower(chi.URLParam(r, "slug"))

	categories, err := h.catalog.Categories(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "categories unavailable", slog.String("error", err.Error()))
	}

	page := listingPage{
		Name:     seo.CategoryName(slug, categories),
		Category: slug,
	}
	h.fillListing(r, &page, service.SearchParams{
		Category: slug,
		Page:     pagination.FromRequest(r, searchPageSize, searchMaxPageSize),
	})

	h.render.HTML(w, r, http.StatusOK, "category", seo.CategoryMeta(h.siteURL, slug, categories), page)
}

// Search handles GET /search
func (h *PageHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := listingPage{
		Name:     "Search",
		Query:    q.Get("q"),
		Category: q.Get("category"),
	}
	h.fillListing(r, &page, service.SearchParams{
		Query:    page.Query,
		Category: page.Category,
		Sort:     q.Get("sort"),
		Price:    q.Get("price"),
		Page:     pagination.FromRequest(r, searchPageSize, searchMaxPageSize),
	})

	h.render.HTML(w, r, http.StatusOK, "search", seo.SearchMeta(h.siteURL), page)
}

func (h *PageHandler) fillListing(r *http.Request, page *listingPage, params service.SearchParams) {
	res, err := h.catalog.Search(r.Context(), params)
	if err != nil {
		_, page.Error = describe(err)
		res.Page = params.Page
	}
	page.Result = res
	page.Pager = pager{Prev: res.PrevPage, Next: res.NextPage}
	if res.PrevPage > 0 {
		page.Pager.PrevURL = withPage(r.URL, res.PrevPage)
	}
	if res.NextPage > 0 {
		page.Pager.NextURL = withPage(r.URL, res.NextPage)
	}
}

func withPage(u *url.URL, page int) string {
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	return u.Path + "?" + q.Encode()
}

// Sitemap handles GET /sitemap.xml. Categories or products that fail to load
// are left out.
func (h *PageHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		categories []domain.Category
		products   []domain.Product
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if categories, err = h.catalog.Categories(gctx); err != nil {
			h.logger.DebugContext(ctx, "sitemap without categories", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if products, err = h.catalog.AllProducts(gctx, seo.SitemapProductLimit); err != nil {
			h.logger.DebugContext(ctx, "sitemap without products", slog.String("error", err.Error()))
		}
		return nil
	})
	_ = g.Wait()

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	if err := seo.WriteSitemap(w, seo.Sitemap(h.siteURL, categories, products, h.now())); err != nil {
		h.logger.ErrorContext(ctx, "write sitemap", slog.String("error", err.Error()))
	}
}

// Robots handles GET /robots.txt
func (h *PageHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(seo.RobotsFor(h.siteURL).String()))
}
