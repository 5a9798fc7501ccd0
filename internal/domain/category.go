package domain

import "strings"

// CategoryShortcut is an entry of the category strip and rail.
type CategoryShortcut struct {
	Label string `json:"label"`
	Icon  string `json:"icon"`
	Query string `json:"query"`
}

// DefaultCategoryQuery is the rail selection of a new session.
const DefaultCategoryQuery = "mobile"

// CategoryShortcuts is the fixed category list.
var CategoryShortcuts = []CategoryShortcut{
	{Label: "Mobiles", Icon: "mobiles", Query: "mobile"},
	{Label: "Electronics", Icon: "electronics", Query: "electronics"},
	{Label: "Fashion", Icon: "fashion", Query: "fashion"},
	{Label: "Home", Icon: "home", Query: "home"},
	{Label: "Beauty", Icon: "beauty", Query: "beauty"},
	{Label: "Appliances", Icon: "appliances", Query: "appliances"},
	{Label: "Grocery", Icon: "grocery", Query: "grocery"},
	{Label: "Furniture", Icon: "furniture", Query: "furniture"},
	{Label: "Sports", Icon: "sports", Query: "sports"},
	{Label: "Books", Icon: "books", Query: "books"},
	{Label: "Toys", Icon: "toys", Query: "toys"},
	{Label: "Deals", Icon: "deals", Query: "deals"},
}

// IsCategoryQuery reports whether q is one of the shortcut queries.
func IsCategoryQuery(q string) bool {
	for _, c := range CategoryShortcuts {
		if c.Query == q {
			return true
		}
	}
	return false
}

// CategoryLayout is the category browser content.
type CategoryLayout struct {
	Hero      *Product
	Spotlight []Product
	Launches  []Product
}

// LayoutCategory filters products by query the way the local suggestion
// scan matches, falling back to all products when nothing matches. The
// first eight are the spotlight and the next eight the launches; when
// there are no launches the spotlight is reused.
func LayoutCategory(products []Product, query string) CategoryLayout {
	needle := strings.ToLower(query)
	matched := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(Haystack(p), needle) {
			matched = append(matched, p)
		}
	}
	if len(matched) == 0 {
		matched = products
	}

	var layout CategoryLayout
	if len(matched) > 0 {
		hero := matched[0]
		layout.Hero = &hero
	}
	layout.Spotlight = window(matched, 0, 8)
	layout.Launches = window(matched, 8, 16)
	if len(layout.Launches) == 0 {
		layout.Launches = layout.Spotlight
	}
	return layout
}

func window(ps []Product, from, to int) []Product {
	if from >= len(ps) {
		return []Product{}
	}
	if to > len(ps) {
		to = len(ps)
	}
	return ps[from:to]
}
