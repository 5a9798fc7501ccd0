package seo

import "github.com/brandcart/storefront/internal/domain"

const schemaContext = "https://schema.org"

// Availability values used in product offers.
const (
	InStock    = "https://schema.org/InStock"
	OutOfStock = "https://schema.org/OutOfStock"
)

type Brand struct {
	Type string `json:"@type"`
	Name string `json:"name"`
}

type Offer struct {
	Type          string  `json:"@type"`
	PriceCurrency string  `json:"priceCurrency"`
	Price         float64 `json:"price"`
	Availability  string  `json:"availability"`
}

// ProductLD is a schema.org Product.
type ProductLD struct {
	Context     string `json:"@context"`
	Type        string `json:"@type"`
	Name        string `json:"name"`
	Image       string `json:"image,omitempty"`
	Description string `json:"description,omitempty"`
	Brand       Brand  `json:"brand"`
	Offers      Offer  `json:"offers"`
}

type ListItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Name     string `json:"name"`
	Item     string `json:"item"`
}

// BreadcrumbLD is a schema.org BreadcrumbList.
type BreadcrumbLD struct {
	Context string     `json:"@context"`
	Type    string     `json:"@type"`
	Items   []ListItem `json:"itemListElement"`
}

// ProductJSONLD builds the Product structured data of a product page.
func ProductJSONLD(p domain.Product) ProductLD {
	availability := OutOfStock
	if p.InStock() {
		availability = InStock
	}
	return ProductLD{
		Context:     schemaContext,
		Type:        "Product",
		Name:        p.Title,
		Image:       p.FirstImage(),
		Description: p.Description,
		Brand:       Brand{Type: "Brand", Name: brandOf(&p)},
		Offers: Offer{
			Type:          "Offer",
			PriceCurrency: "INR",
			Price:         p.SellingPrice,
			Availability:  availability,
		},
	}
}

// BreadcrumbJSONLD builds the Home > Products > product trail.
func BreadcrumbJSONLD(site string, p domain.Product) BreadcrumbLD {
	base := Base(site)
	return BreadcrumbLD{
		Context: schemaContext,
		Type:    "BreadcrumbList",
		Items: []ListItem{
			{Type: "ListItem", Position: 1, Name: "Home", Item: base},
			{Type: "ListItem", Position: 2, Name: "Products", Item: base + "/search"},
			{Type: "ListItem", Position: 3, Name: p.Title, Item: ProductURL(site, p.ID)},
		},
	}
}
