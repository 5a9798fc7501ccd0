package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/seo"
	"github.com/brandcart/storefront/internal/service"
	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/httputil"
	"github.com/brandcart/storefront/pkg/middleware"
	"github.com/brandcart/storefront/pkg/validator"
)

// DefaultRenderWait bounds how long the session screen waits for loads.
const DefaultRenderWait = 3 * time.Second

// PincodeCookie holds the delivery pincode that unlocks the home sections.
const PincodeCookie = "pincode"

// SessionSource hands out the live session of a browser.
type SessionSource interface {
	Get(ctx context.Context, id string) *service.Session
}

// StorefrontHandler serves the session screen, its form actions and the
// JSON endpoints the page script calls.
type StorefrontHandler struct {
	sessions   SessionSource
	catalog    Catalog
	render     *Renderer
	siteURL    string
	renderWait time.Duration
	logger     *slog.Logger
}

// NewStorefrontHandler creates the session screen handler. renderWait bounds
// how long GET / waits for in-flight loads before rendering what it has.
func NewStorefrontHandler(sessions SessionSource, catalog Catalog, render *Renderer, siteURL string, renderWait time.Duration, logger *slog.Logger) *StorefrontHandler {
	return &StorefrontHandler{
		sessions:   sessions,
		catalog:    catalog,
		render:     render,
		siteURL:    siteURL,
		renderWait: renderWait,
		logger:     logger,
	}
}

// --- Form DTOs ---

type cartAddForm struct {
	ID    string `form:"id" validate:"required,max=128"`
	Image string `form:"image" validate:"omitempty,url"`
}

type quantityForm struct {
	Delta int `form:"delta" validate:"oneof=-1 1"`
}

type homePage struct {
	S          service.Snapshot
	Home       service.Home
	Banners    []domain.Banner
	Pincode    string
	HasPincode bool
}

// --- Handlers ---

// Home handles GET /
func (h *StorefrontHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s := h.session(r)
	s.Sync(ctx, r.URL.Query().Get("p"))

	waitCtx, cancel := context.WithTimeout(ctx, h.renderWait)
	defer cancel()
	if err := s.WaitIdle(waitCtx); err != nil {
		h.logger.DebugContext(ctx, "rendering before session settled", slog.String("error", err.Error()))
	}

	data := homePage{S: s.Snapshot()}
	data.Pincode, data.HasPincode = pincodeFrom(r)
	if data.HasPincode {
		data.Home = h.catalog.HomeSections(ctx)
	}
	if banners, err := h.catalog.Banners(ctx); err == nil {
		data.Banners = banners
	} else {
		h.logger.WarnContext(ctx, "banners unavailable", slog.String("error", err.Error()))
	}

	h.render.HTML(w, r, http.StatusOK, "home", seo.HomeMeta(h.siteURL), data)
}

// Cart handles GET /cart
func (h *StorefrontHandler) Cart(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "cart", seo.Meta{Title: "Cart | Brandcart"}, h.session(r).Snapshot())
}

// Checkout handles GET /checkout
func (h *StorefrontHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "checkout", seo.Meta{Title: "Checkout | Brandcart"}, h.session(r).Snapshot())
}

// Suggestions handles GET /api/suggestions?q=
func (h *StorefrontHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	list, ok := h.session(r).Suggest(r.Context(), r.URL.Query().Get("q"))
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httputil.WriteData(w, list)
}

// Snapshot handles GET /api/session
func (h *StorefrontHandler) Snapshot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteData(w, h.session(r).Snapshot())
}

// --- Actions ---

// Search handles POST /actions/search
func (h *StorefrontHandler) Search(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.Search(ctx, r.FormValue("q"))
		return nil
	})
}

// SelectSuggestion handles POST /actions/suggestion
func (h *StorefrontHandler) SelectSuggestion(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.SelectSuggestion(ctx, domain.Suggestion{
			ID:    domain.ProductID(strings.TrimSpace(r.FormValue("id"))),
			Title: r.FormValue("title"),
		})
		return nil
	})
}

// SelectCategory handles POST /actions/category
func (h *StorefrontHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.SelectCategory(ctx, r.FormValue("query"))
		return nil
	})
}

// OpenCategories handles POST /actions/categories
func (h *StorefrontHandler) OpenCategories(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.OpenCategories(ctx, r.FormValue("query"))
		return nil
	})
}

// GoHome handles POST /actions/home
func (h *StorefrontHandler) GoHome(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.GoHome(ctx)
		return nil
	})
}

// TogglePanel handles POST /actions/panel/{panel}
func (h *StorefrontHandler) TogglePanel(w http.ResponseWriter, r *http.Request) {
	panel, ok := domain.ParsePanel(chi.URLParam(r, "panel"))
	if !ok {
		h.render.Error(w, r, http.StatusNotFound, "Unknown panel")
		return
	}
	h.act(w, r, func(_ context.Context, s *service.Session) error {
		s.TogglePanel(panel)
		return nil
	})
}

// ClosePanel handles POST /actions/panel/close
func (h *StorefrontHandler) ClosePanel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *service.Session) error {
		s.ClosePanel()
		return nil
	})
}

// CloseProduct handles POST /actions/product/close
func (h *StorefrontHandler) CloseProduct(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.CloseProduct(ctx)
		return nil
	})
}

// SelectImage handles POST /actions/image
func (h *StorefrontHandler) SelectImage(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *service.Session) error {
		s.SelectImage(r.FormValue("image"))
		return nil
	})
}

// AddToCart handles POST /actions/cart/add
func (h *StorefrontHandler) AddToCart(w http.ResponseWriter, r *http.Request) {
	form := cartAddForm{
		ID:    strings.TrimSpace(r.FormValue("id")),
		Image: strings.TrimSpace(r.FormValue("image")),
	}
	if err := validator.Validate(form); err != nil {
		h.fail(w, r, err)
		return
	}
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		return s.AddToCart(ctx, domain.ProductID(form.ID), form.Image)
	})
}

// ChangeQuantity handles POST /actions/cart/{id}/qty
func (h *StorefrontHandler) ChangeQuantity(w http.ResponseWriter, r *http.Request) {
	delta, err := strconv.Atoi(r.FormValue("delta"))
	if err != nil {
		h.fail(w, r, apperrors.InvalidInput("delta must be a number"))
		return
	}
	if err := validator.Validate(quantityForm{Delta: delta}); err != nil {
		h.fail(w, r, err)
		return
	}
	id := idParam(r)
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.ChangeQuantity(ctx, id, delta)
		return nil
	})
}

// RemoveFromCart handles POST /actions/cart/{id}/remove
func (h *StorefrontHandler) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.RemoveFromCart(ctx, id)
		return nil
	})
}

// PlaceOrder handles POST /actions/checkout
func (h *StorefrontHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.Checkout(ctx)
		return nil
	})
}

// ToggleWishlist handles POST /actions/wishlist/toggle
func (h *StorefrontHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.ToggleWishlist(ctx)
		return nil
	})
}

// RemoveFromWishlist handles POST /actions/wishlist/{id}/remove
func (h *StorefrontHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
	id := idParam(r)
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.RemoveFromWishlist(ctx, id)
		return nil
	})
}

// AccountAction handles POST /actions/account/{action}
func (h *StorefrontHandler) AccountAction(w http.ResponseWriter, r *http.Request) {
	action := domain.AccountAction(chi.URLParam(r, "action"))
	h.act(w, r, func(ctx context.Context, s *service.Session) error {
		s.AccountAction(ctx, action)
		return nil
	})
}

// Share handles POST /actions/share
func (h *StorefrontHandler) Share(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, func(_ context.Context, s *service.Session) error {
		s.Share()
		return nil
	})
}

// --- Helpers ---

// idParam reads the {id} route parameter, which chi leaves escaped when the
// path was.
func idParam(r *http.Request) domain.ProductID {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return domain.ProductID(id)
	}
	return domain.ProductID(raw)
}

func (h *StorefrontHandler) session(r *http.Request) *service.Session {
	return h.sessions.Get(r.Context(), middleware.SessionIDFromContext(r.Context()))
}

// act runs fn against the caller's session and redirects to what the session
// now shows.
func (h *StorefrontHandler) act(w http.ResponseWriter, r *http.Request, fn func(context.Context, *service.Session) error) {
	s := h.session(r)
	if err := fn(r.Context(), s); err != nil {
		h.fail(w, r, err)
		return
	}
	http.Redirect(w, r, s.Location(), http.StatusSeeOther)
}

func (h *StorefrontHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, message := describe(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "action failed",
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
	}
	h.render.Error(w, r, status, message)
}

// describe turns err into a status and a message fit for the shopper.
func describe(err error) (int, string) {
	var valErr *validator.ValidationError
	if errors.As(err, &valErr) {
		return http.StatusBadRequest, valErr.First()
	}

	status := apperrors.HTTPStatus(err)
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && status < http.StatusInternalServerError {
		return status, appErr.Message
	}
	if status >= http.StatusInternalServerError {
		return status, "Something went wrong. Please try again."
	}
	return status, http.StatusText(status)
}

// pincodeFrom returns the pincode cookie and whether it is a valid 6-digit
// code.
func pincodeFrom(r *http.Request) (string, bool) {
	c, err := r.Cookie(PincodeCookie)
	if err != nil {
		return "", false
	}
	return c.Value, validator.Validate(pincodeForm{Pincode: c.Value}) == nil
}
