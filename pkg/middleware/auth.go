package middleware

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandcart/storefront/pkg/logger"
)

// AccessTokenCookie is the cookie holding the marketplace access token.
const AccessTokenCookie = "access_token"

type contextKeyType string

const (
	userIDKey contextKeyType = "user_id"
	roleKey   contextKeyType = "role"
	tokenKey  contextKeyType = "access_token"
)

// Claims is the subset of the access token the storefront reads. The token is
// never verified here; the marketplace API does that on every call.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// ParseClaims decodes the token payload without checking the signature.
func ParseClaims(token string) (*Claims, error) {
	var mc jwt.MapClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &mc); err != nil {
		return nil, err
	}

	c := &Claims{}
	c.Subject, _ = mc.GetSubject()
	c.Role, _ = mc["role"].(string)
	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		c.ExpiresAt = exp.Time
	}
	return c, nil
}

// Attacher stores the raw token in a context for outgoing API calls.
type Attacher func(ctx context.Context, token string) context.Context

// Credentials picks up the caller's access token from the Authorization
// header or the access_token cookie. Expired or malformed tokens are ignored.
// The token is handed to attach so API calls made while serving the request
// carry it.
func Credentials(attach Attacher) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(AccessTokenCookie); err == nil {
					token = c.Value
				}
			}
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := ParseClaims(token)
			if err != nil || (!claims.ExpiresAt.IsZero() && claims.ExpiresAt.Before(time.Now())) {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), tokenKey, token)
			ctx = context.WithValue(ctx, userIDKey, claims.Subject)
			ctx = context.WithValue(ctx, roleKey, claims.Role)
			if claims.Subject != "" {
				ctx = logger.WithUserID(ctx, claims.Subject)
			}
			if attach != nil {
				ctx = attach(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireLogin redirects anonymous visitors to loginPath, carrying the
// current path in the redirect parameter.
func RequireLogin(loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if AccessTokenFromContext(r.Context()) == "" {
				target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
				http.Redirect(w, r, target, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireRole answers 403 unless the token carries one of roles. Mount after
// RequireLogin.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	roleSet := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := roleSet[RoleFromContext(r.Context())]; !ok {
				http.Error(w, "this page is only available to sellers", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserIDFromContext returns the token subject, or "".
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(userIDKey).(string)
	return v
}

// RoleFromContext returns the token role, or "".
func RoleFromContext(ctx context.Context) string {
	v, _ := ctx.Value(roleKey).(string)
	return v
}

// AccessTokenFromContext returns the raw token accepted by Credentials.
func AccessTokenFromContext(ctx context.Context) string {
	v, _ := ctx.Value(tokenKey).(string)
	return v
}
