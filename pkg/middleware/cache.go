package middleware

import (
	"fmt"
	"net/http"
)

// CacheControl marks GET and HEAD responses as publicly cacheable for maxAge
// seconds and lets caches serve a stale copy while they revalidate.
func CacheControl(maxAge, staleWhileRevalidate int) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", maxAge)
	if staleWhileRevalidate > 0 {
		value += fmt.Sprintf(", stale-while-revalidate=%d", staleWhileRevalidate)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead {
				w.Header().Set("Cache-Control", value)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// NoStore forbids caching. Used for pages rendered from session state.
func NoStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
