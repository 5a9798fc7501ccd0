package domain

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ProductID is a product identifier. The marketplace API emits ids as
// strings, but numeric ids are accepted too.
type ProductID string

// UnmarshalJSON accepts a JSON string or number. null leaves the id empty.
func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ProductID(n.String())
	return nil
}

func (id ProductID) String() string { return string(id) }

// Seller is the seller reference embedded in product cards.
type Seller struct {
	BrandName    string   `json:"brand_name"`
	Slug         string   `json:"slug"`
	LogoURL      string   `json:"logo_url,omitempty"`
	TrustScore   float64  `json:"trust_score"`
	CODSupported bool     `json:"cod_supported"`
	Badges       []string `json:"badges,omitempty"`
}

// TrustLabel buckets the trust score for display.
func (s *Seller) TrustLabel() string {
	switch {
	case s == nil:
		return "New Seller"
	case s.TrustScore >= 80:
		return "Verified Seller"
	case s.TrustScore >= 60:
		return "Trusted Seller"
	default:
		return "New Seller"
	}
}

// Initials returns up to two upper-cased initials of the brand name, or "BR".
func (s *Seller) Initials() string {
	if s == nil {
		return "BR"
	}
	return Initials(s.BrandName)
}

// Initials returns the first letter of up to two words of name, upper-cased.
func Initials(name string) string {
	fields := strings.Fields(name)
	if len(fields) > 2 {
		fields = fields[:2]
	}
	var b strings.Builder
	for _, f := range fields {
		r := []rune(f)
		b.WriteString(strings.ToUpper(string(r[0])))
	}
	if b.Len() == 0 {
		return "BR"
	}
	return b.String()
}

// Product is a product card or product detail as returned by the API. After
// enrichment it also carries review statistics.
type Product struct {
	ID           ProductID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	Category     string    `json:"category,omitempty"`
	SubCategory  string    `json:"sub_category,omitempty"`
	Images       []string  `json:"images"`
	SellingPrice float64   `json:"selling_price"`
	MRP          float64   `json:"mrp,omitempty"`
	Stock        int       `json:"stock"`
	Rating       float64   `json:"rating,omitempty"`
	Seller       *Seller   `json:"seller,omitempty"`

	ReviewCount   float64  `json:"review_count"`
	ReviewAverage *float64 `json:"review_average"`
}

// productWire is the union of the detail shape and the public card shape,
// which names the price "price" and carries a single "image". Scalar fields
// are decoded loosely: numbers may arrive as numeric strings, and a field of
// the wrong type reads as absent.
type productWire struct {
	ID           ProductID       `json:"id"`
	Title        any             `json:"title"`
	Description  any             `json:"description"`
	Category     any             `json:"category"`
	SubCategory  any             `json:"sub_category"`
	Image        any             `json:"image"`
	Images       any             `json:"images"`
	SellingPrice any             `json:"selling_price"`
	Price        any             `json:"price"`
	MRP          any             `json:"mrp"`
	Stock        any             `json:"stock"`
	Rating       any             `json:"rating"`
	Seller       json.RawMessage `json:"seller"`
	ReviewCount  any             `json:"review_count"`
	ReviewAvg    any             `json:"review_average"`
}

// UnmarshalJSON normalizes both wire shapes into Product. Nulls are treated
// as absent. Only a malformed object or id is an error.
func (p *Product) UnmarshalJSON(data []byte) error {
	var w productWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	*p = Product{
		ID:          w.ID,
		Title:       looseString(w.Title),
		Description: looseString(w.Description),
		Category:    looseString(w.Category),
		SubCategory: looseString(w.SubCategory),
		Seller:      looseSeller(w.Seller),
	}

	if images, ok := w.Images.([]any); ok {
		for _, img := range images {
			if s, ok := img.(string); ok && s != "" {
				p.Images = append(p.Images, s)
			}
		}
	}
	if img, ok := w.Image.(string); ok && len(p.Images) == 0 && img != "" {
		p.Images = []string{img}
	}

	if v, ok := looseNumber(w.SellingPrice); ok {
		p.SellingPrice = v
	} else if v, ok := looseNumber(w.Price); ok {
		p.SellingPrice = v
	}
	if v, ok := looseNumber(w.MRP); ok {
		p.MRP = v
	}
	if v, ok := looseNumber(w.Stock); ok {
		p.Stock = int(v)
	}
	if v, ok := looseNumber(w.Rating); ok {
		p.Rating = v
	}
	if v, ok := looseNumber(w.ReviewCount); ok {
		p.ReviewCount = v
	}
	if v, ok := w.ReviewAvg.(float64); ok {
		p.ReviewAverage = &v
	}
	return nil
}

// looseNumber is toNumber for optional product fields: null, booleans and
// arrays count as absent.
func looseNumber(v any) (float64, bool) {
	switch v.(type) {
	case float64, string:
		return toNumber(v)
	}
	return 0, false
}

func looseString(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return ""
}

// looseSeller drops a seller that is not an object of the expected shape
// instead of failing the product.
func looseSeller(raw json.RawMessage) *Seller {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s Seller
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return &s
}

// FirstImage returns the first gallery image, or "".
func (p Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// HasStrike reports whether the list price should be shown struck through.
func (p Product) HasStrike() bool {
	return p.MRP > p.SellingPrice && p.SellingPrice > 0
}

// DiscountPercent returns the rounded-down discount off MRP, or 0.
func (p Product) DiscountPercent() int {
	if !p.HasStrike() {
		return 0
	}
	return int((p.MRP - p.SellingPrice) * 100 / p.MRP)
}

// InStock reports whether the detail payload declares stock.
func (p Product) InStock() bool {
	return p.Stock > 0
}

// WithReviews returns a copy of p carrying the summary statistics.
func (p Product) WithReviews(s ReviewSummary) Product {
	p.ReviewCount = s.Count
	p.ReviewAverage = s.Average
	return p
}

// Category is a storefront category.
type Category struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
	Icon string `json:"icon,omitempty"`
}

// Banner is a home page banner.
type Banner struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	CTA      string `json:"cta,omitempty"`
	Image    string `json:"image"`
	Link     string `json:"link,omitempty"`
}

// Brand is an entry of the top brands list.
type Brand struct {
	ID         string  `json:"id,omitempty"`
	BrandName  string  `json:"brand_name"`
	Slug       string  `json:"slug"`
	LogoURL    string  `json:"logo_url,omitempty"`
	TrustScore float64 `json:"trust_score"`
}

// Initials returns the brand initials used when no logo is available.
func (b Brand) Initials() string { return Initials(b.BrandName) }
