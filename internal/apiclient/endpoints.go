package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/brandcart/storefront/internal/domain"
)

// Section names a curated product list.
type Section string

const (
	SectionTrending     Section = "trending"
	SectionRecommended  Section = "recommended"
	SectionTopDiscounts Section = "top-discounts"
	SectionFlashDeals   Section = "flash-deals"
)

// SearchQuery maps onto /api/products/search.
type SearchQuery struct {
	Q        string
	Category string
	MinPrice *int
	MaxPrice *int
	Page     int
	Limit    int
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("min_price", strconv.Itoa(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		v.Set("max_price", strconv.Itoa(*q.MaxPrice))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	return v
}

// getList fetches a list endpoint. A 2xx body that is not an array reads as
// an empty list and malformed elements are dropped; see domain.DecodeList.
func getList[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}
	return domain.DecodeList[T](raw), nil
}

// encodeQuery is url.Values.Encode with spaces sent as %20.
func encodeQuery(v url.Values) string {
	return strings.ReplaceAll(v.Encode(), "+", "%20")
}

// ListProducts calls /api/products?search=.
func (c *Client) ListProducts(ctx context.Context, search string) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "/api/products?"+encodeQuery(url.Values{"search": {search}}))
}

// AllProducts calls /api/products?limit=n; the sitemap uses it.
func (c *Client) AllProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "/api/products?limit="+strconv.Itoa(limit))
}

// SearchProducts calls /api/products/search.
func (c *Client) SearchProducts(ctx context.Context, q SearchQuery) ([]domain.Product, error) {
	return getList[domain.Product](ctx, c, "/api/products/search?"+encodeQuery(q.values()))
}

// Section calls /api/products/{section}. A limit of 0 leaves the API
// default in place.
func (c *Client) Section(ctx context.Context, s Section, limit int) ([]domain.Product, error) {
	path := "/api/products/" + string(s)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	return getList[domain.Product](ctx, c, path)
}

// Product calls /api/products/{id}.
func (c *Client) Product(ctx context.Context, id domain.ProductID) (domain.Product, error) {
	var out domain.Product
	err := c.Get(ctx, "/api/products/"+url.PathEscape(id.String()), &out)
	return out, err
}

// ProductReviews calls /api/reviews/product/{id}.
func (c *Client) ProductReviews(ctx context.Context, id domain.ProductID) (domain.ReviewPayload, error) {
	var out domain.ReviewPayload
	err := c.Get(ctx, "/api/reviews/product/"+url.PathEscape(id.String()), &out)
	return out, err
}

// Categories calls /api/public/categories.
func (c *Client) Categories(ctx context.Context) ([]domain.Category, error) {
	return getList[domain.Category](ctx, c, "/api/public/categories")
}

// Banners calls /api/public/banners.
func (c *Client) Banners(ctx context.Context) ([]domain.Banner, error) {
	return getList[domain.Banner](ctx, c, "/api/public/banners")
}

// TopBrands calls /api/brands/top.
func (c *Client) TopBrands(ctx context.Context) ([]domain.Brand, error) {
	return getList[domain.Brand](ctx, c, "/api/brands/top")
}

// Token is the verify-otp answer.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

// SendOTP asks the API to text a one-time password to phone.
func (c *Client) SendOTP(ctx context.Context, phone string) error {
	return c.Post(ctx, "/api/auth/send-otp", map[string]string{"phone": phone}, nil)
}

// VerifyOTP exchanges phone and otp for an access token.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (Token, error) {
	var out Token
	err := c.Post(ctx, "/api/auth/verify-otp", map[string]string{"phone": phone, "otp": otp}, &out)
	return out, err
}

// UploadBrandLogo forwards a logo file and returns the stored logo URL.
func (c *Client) UploadBrandLogo(ctx context.Context, filename string, r io.Reader) (string, error) {
	var out struct {
		LogoURL string `json:"logo_url"`
	}
	if err := c.PostMultipart(ctx, "/api/uploads/brand-logo", "file", filename, r, &out); err != nil {
		return "", err
	}
	return out.LogoURL, nil
}
