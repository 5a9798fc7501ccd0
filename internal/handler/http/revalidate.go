package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/httputil"
)

// RevalidateKeyHeader carries the shared secret of the revalidation hook.
const RevalidateKeyHeader = "X-Revalidate-Key"

// RevalidateHandler drops cached API responses by tag.
type RevalidateHandler struct {
	catalog Catalog
	key     string
	logger  *slog.Logger
}

// NewRevalidateHandler creates the hook. An empty key disables it.
func NewRevalidateHandler(catalog Catalog, key string, logger *slog.Logger) *RevalidateHandler {
	return &RevalidateHandler{catalog: catalog, key: key, logger: logger}
}

// Revalidate handles POST /internal/revalidate?tag=
func (h *RevalidateHandler) Revalidate(w http.ResponseWriter, r *http.Request) {
	if h.key == "" {
		httputil.WriteError(w, r, apperrors.NotFound("route", r.URL.Path), h.logger)
		return
	}
	if subtle.ConstantTimeCompare([]byte(r.Header.Get(RevalidateKeyHeader)), []byte(h.key)) != 1 {
		httputil.WriteError(w, r, apperrors.Unauthorized("invalid revalidation key"), h.logger)
		return
	}

	tag := r.URL.Query().Get("tag")
	dropped, err := h.catalog.Revalidate(r.Context(), tag)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.logger.InfoContext(r.Context(), "cache revalidated",
		slog.String("tag", tag),
		slog.Int("dropped", dropped),
	)
	httputil.WriteData(w, map[string]any{"tag": tag, "dropped": dropped})
}
