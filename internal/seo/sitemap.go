package seo

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brandcart/storefront/internal/domain"
)

// SitemapProductLimit caps the products listed in the sitemap.
const SitemapProductLimit = 500

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

// SitemapURL is one <url> entry.
type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// URLSet is the sitemap document root.
type URLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

// Sitemap lists the landing pages, every category and the given products.
// Categories without a slug and products without an id are skipped.
func Sitemap(site string, categories []domain.Category, products []domain.Product, now time.Time) URLSet {
	base := Base(site)
	lastMod := now.UTC().Format(time.RFC3339)
	entry := func(loc, freq string, priority float64) SitemapURL {
		return SitemapURL{
			Loc:        loc,
			LastMod:    lastMod,
			ChangeFreq: freq,
			Priority:   fmt.Sprintf("%.1f", priority),
		}
	}

	set := URLSet{XMLNS: sitemapNS}
	set.URLs = append(set.URLs,
		entry(base, "daily", 1.0),
		entry(base+"/search", "daily", 0.9),
	)
	for _, c := range categories {
		if c.Slug == "" {
			continue
		}
		set.URLs = append(set.URLs, entry(base+"/category/"+c.Slug, "daily", 0.8))
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		set.URLs = append(set.URLs, entry(ProductURL(site, p.ID), "weekly", 0.7))
	}
	return set
}

// WriteSitemap encodes set as an XML document.
func WriteSitemap(w io.Writer, set URLSet) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return fmt.Errorf("encode sitemap: %w", err)
	}
	return enc.Close()
}

// Robots holds the crawler rules served at /robots.txt.
type Robots struct {
	UserAgent string
	Allow     []string
	Disallow  []string
	Sitemap   string
}

// RobotsFor keeps crawlers out of the personal and action routes.
func RobotsFor(site string) Robots {
	return Robots{
		UserAgent: "*",
		Allow:     []string{"/"},
		Disallow:  []string{"/cart", "/checkout", "/login", "/orders", "/api", "/actions"},
		Sitemap:   Base(site) + "/sitemap.xml",
	}
}

func (r Robots) String() string {
	var b strings.Builder
	b.WriteString("User-Agent: " + r.UserAgent + "\n")
	for _, a := range r.Allow {
		b.WriteString("Allow: " + a + "\n")
	}
	for _, d := range r.Disallow {
		b.WriteString("Disallow: " + d + "\n")
	}
	if r.Sitemap != "" {
		b.WriteString("\nSitemap: " + r.Sitemap + "\n")
	}
	return b.String()
}
