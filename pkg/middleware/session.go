package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/brandcart/storefront/pkg/logger"
)

// SessionCookie names the per-browser session cookie.
const SessionCookie = "bc_session"

type sessionKeyType struct{}

// SessionOptions controls the session cookie.
type SessionOptions struct {
	MaxAge time.Duration
	Secure bool
}

// Session makes sure every request carries a session id. A missing or
// malformed bc_session cookie is replaced with a fresh uuid. The id is stored
// in the request context and on the request-scoped logger fields.
func Session(opts SessionOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(SessionCookie); err == nil {
				if _, err := uuid.Parse(c.Value); err == nil {
					id = c.Value
				}
			}
			if id == "" {
				id = uuid.NewString()
			}

			// Refreshed on every response so the cookie slides with activity.
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(opts.MaxAge.Seconds()),
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			})

			ctx := context.WithValue(r.Context(), sessionKeyType{}, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SessionIDFromContext returns the id assigned by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(sessionKeyType{}).(string)
	return v
}
