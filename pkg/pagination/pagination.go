package pagination

import (
	"net/http"
	"strconv"
)

// Params holds pagination parameters extracted from query strings.
type Params struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// FromRequest reads `page` and `limit` from the query string. Missing or
// malformed values fall back to page 1 and defaultLimit; limit is clamped to
// [1, maxLimit].
func FromRequest(r *http.Request, defaultLimit, maxLimit int) Params {
	p := Params{Page: 1, Limit: defaultLimit}

	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil {
		p.Limit = v
	}

	p.Limit = Clamp(p.Limit, 1, maxLimit)
	return p
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Prev returns the previous page number, or 0 on the first page.
func (p Params) Prev() int {
	if p.Page <= 1 {
		return 0
	}
	return p.Page - 1
}

// Next returns the next page number when the current page came back full,
// or 0 when there is nothing more to fetch.
func (p Params) Next(got int) int {
	if got < p.Limit {
		return 0
	}
	return p.Page + 1
}
