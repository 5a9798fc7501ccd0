package service

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/pkg/pagination"
)

// Sort orders accepted by the search page.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortRating    = "rating"
)

type priceRange struct{ min, max int }

// priceBuckets maps the price filter onto min_price/max_price.
var priceBuckets = map[string]priceRange{
	"0-500":     {0, 500},
	"500-1000":  {500, 1000},
	"1000-5000": {1000, 5000},
}

// SearchParams is a search page request.
type SearchParams struct {
	Query    string
	Category string
	Sort     string
	Price    string
	Page     pagination.Params
}

// SearchResult is one page of search results.
type SearchResult struct {
	Products []domain.Product
	Page     pagination.Params
	Sort     string
	Price    string
	NextPage int
	PrevPage int
}

// Search runs the search page query. Unknown sort orders and price buckets
// are ignored.
func (c *Catalog) Search(ctx context.Context, p SearchParams) (SearchResult, error) {
	q := apiclient.SearchQuery{
		Q:        strings.TrimSpace(p.Query),
		Category: strings.TrimSpace(p.Category),
		Page:     p.Page.Page,
		Limit:    p.Page.Limit,
	}
	price := ""
	if r, ok := priceBuckets[p.Price]; ok {
		lo, hi := r.min, r.max
		q.MinPrice, q.MaxPrice = &lo, &hi
		price = p.Price
	}

	items, err := c.api.SearchProducts(ctx, q)
	if err != nil {
		return SearchResult{Page: p.Page, Price: price}, err
	}
	items = c.Enrich(ctx, items)

	order := ""
	switch p.Sort {
	case SortPriceAsc:
		slices.SortStableFunc(items, func(a, b domain.Product) int { return cmp.Compare(a.SellingPrice, b.SellingPrice) })
		order = p.Sort
	case SortPriceDesc:
		slices.SortStableFunc(items, func(a, b domain.Product) int { return cmp.Compare(b.SellingPrice, a.SellingPrice) })
		order = p.Sort
	case SortRating:
		slices.SortStableFunc(items, func(a, b domain.Product) int { return cmp.Compare(ratingOf(b), ratingOf(a)) })
		order = p.Sort
	}

	return SearchResult{
		Products: items,
		Page:     p.Page,
		Sort:     order,
		Price:    price,
		NextPage: p.Page.Next(len(items)),
		PrevPage: p.Page.Prev(),
	}, nil
}

// ratingOf prefers the review average and falls back to the card rating.
func ratingOf(p domain.Product) float64 {
	if p.ReviewAverage != nil {
		return *p.ReviewAverage
	}
	return p.Rating
}
