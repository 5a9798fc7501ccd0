// Package seo builds page metadata, structured data, the sitemap and
// robots rules for the public storefront pages.
package seo

import (
	"strings"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/pkg/slug"
)

// SiteName is the brand used in titles and OpenGraph tags.
const SiteName = "Brandcart"

// OpenGraph holds the og:* tags of a page.
type OpenGraph struct {
	Title       string
	Description string
	URL         string
	SiteName    string
	Type        string
	Images      []string
}

// Meta is everything a page puts into <head>.
type Meta struct {
	Title       string
	Description string
	Canonical   string
	OpenGraph   OpenGraph
}

// Base trims trailing slashes off the configured site URL.
func Base(site string) string {
	return strings.TrimRight(site, "/")
}

// HomeMeta describes the storefront landing page.
func HomeMeta(site string) Meta {
	base := Base(site)
	return Meta{
		Title:       "Brandcart | Local-first Indian Marketplace",
		Description: "Shop from verified local sellers with COD, fast delivery and best prices on Brandcart.",
		Canonical:   base,
		OpenGraph: OpenGraph{
			Title:       "Brandcart | Local-first Indian Marketplace",
			Description: "Buy products online from verified sellers with COD and fast delivery.",
			URL:         base,
			SiteName:    SiteName,
			Type:        "website",
		},
	}
}

// ProductURL is the canonical address of a product page.
func ProductURL(site string, id domain.ProductID) string {
	return Base(site) + "/product/" + string(id)
}

// ProductMeta describes a product page. A nil product yields the not-found
// metadata.
func ProductMeta(site string, p *domain.Product) Meta {
	if p == nil {
		return Meta{
			Title:       "Product not found | Brandcart",
			Description: "This product is no longer available on Brandcart.",
		}
	}

	u := ProductURL(site, p.ID)
	og := OpenGraph{
		Title:       p.Title,
		Description: p.Description,
		URL:         u,
		SiteName:    SiteName,
		Type:        "product",
	}
	if img := p.FirstImage(); img != "" {
		og.Images = []string{img}
	}

	return Meta{
		Title:       p.Title + " | Brandcart",
		Description: p.Title + " at best price with COD from verified seller " + brandOf(p) + ".",
		Canonical:   u,
		OpenGraph:   og,
	}
}

// CategoryName resolves the display name of a category slug, falling back
// to the humanized slug for categories the API does not list.
func CategoryName(categorySlug string, categories []domain.Category) string {
	for _, c := range categories {
		if c.Slug == categorySlug && c.Name != "" {
			return c.Name
		}
	}
	return slug.Humanize(categorySlug)
}

// CategoryMeta describes a category landing page.
func CategoryMeta(site, categorySlug string, categories []domain.Category) Meta {
	name := CategoryName(categorySlug, categories)
	u := Base(site) + "/category/" + categorySlug
	return Meta{
		Title:       name + " Products Online | Brandcart",
		Description: "Buy " + name + " products online at best price with COD & verified sellers on Brandcart.",
		Canonical:   u,
		OpenGraph: OpenGraph{
			Title:       name + " Products | Brandcart",
			Description: "Shop " + name + " products with fast delivery and COD on Brandcart.",
			URL:         u,
			SiteName:    SiteName,
			Type:        "website",
		},
	}
}

// SearchMeta describes the search page.
func SearchMeta(site string) Meta {
	u := Base(site) + "/search"
	return Meta{
		Title:       "Search Products Online | Brandcart",
		Description: "Search products across categories on Brandcart with COD and verified sellers.",
		Canonical:   u,
		OpenGraph: OpenGraph{
			Title:    "Search Products Online | Brandcart",
			URL:      u,
			SiteName: SiteName,
			Type:     "website",
		},
	}
}

func brandOf(p *domain.Product) string {
	if p.Seller != nil && p.Seller.BrandName != "" {
		return p.Seller.BrandName
	}
	return SiteName
}
