package domain

import "strings"

// MaxSuggestions caps every suggestion list.
const MaxSuggestions = 8

// MinQueryRunes is the shortest trimmed query that produces suggestions.
const MinQueryRunes = 2

// Suggestion is a search-as-you-type entry.
type Suggestion struct {
	ID          ProductID `json:"id,omitempty"`
	Title       string    `json:"title"`
	Category    string    `json:"category,omitempty"`
	SubCategory string    `json:"sub_category,omitempty"`
	Image       string    `json:"image,omitempty"`
	Price       float64   `json:"selling_price,omitempty"`
}

// SuggestionFrom projects a product onto a suggestion.
func SuggestionFrom(p Product) Suggestion {
	return Suggestion{
		ID:          p.ID,
		Title:       p.Title,
		Category:    p.Category,
		SubCategory: p.SubCategory,
		Image:       p.FirstImage(),
		Price:       p.SellingPrice,
	}
}

// QueryTooShort reports whether q is too short to suggest anything.
func QueryTooShort(q string) bool {
	return len([]rune(strings.TrimSpace(q))) < MinQueryRunes
}

// LocalSuggestions scans pools in order for products whose title, category
// or sub-category contain query, case-insensitively. Entries are keyed by id,
// else title; keyless entries and repeated keys are skipped. At most
// MaxSuggestions entries are returned.
func LocalSuggestions(query string, pools ...[]Product) []Suggestion {
	needle := strings.ToLower(strings.TrimSpace(query))
	if QueryTooShort(needle) {
		return []Suggestion{}
	}

	out := make([]Suggestion, 0, MaxSuggestions)
	seen := make(map[string]struct{})
	for _, pool := range pools {
		for _, p := range pool {
			key := string(p.ID)
			if key == "" {
				key = p.Title
			}
			if key == "" {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			if !strings.Contains(Haystack(p), needle) {
				continue
			}

			seen[key] = struct{}{}
			out = append(out, SuggestionFrom(p))
			if len(out) >= MaxSuggestions {
				return out
			}
		}
	}
	return out
}

// Haystack joins the non-empty title, category and sub-category, lowercased.
func Haystack(p Product) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Title, p.Category, p.SubCategory} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
