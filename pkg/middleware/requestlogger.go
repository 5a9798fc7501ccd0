package middleware

import (
	"log/slog"
	"net/http"

	"github.com/brandcart/storefront/pkg/logger"
)

// RequestLogger puts base, tagged with the request's correlation, session,
// user and trace ids, into the context for logger.FromContext. It belongs
// after RequestLogging, Tracing, Session and Credentials.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ctx = logger.NewContext(ctx, logger.ForRequest(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
