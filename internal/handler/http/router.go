package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/config"
	"github.com/brandcart/storefront/pkg/health"
	pkgmiddleware "github.com/brandcart/storefront/pkg/middleware"
)

// serviceName labels metrics and spans.
const serviceName = "storefront"

// Handlers groups the route handlers mounted by NewRouter.
type Handlers struct {
	Storefront *StorefrontHandler
	Pages      *PageHandler
	Account    *AccountHandler
	Seller     *SellerHandler
	Revalidate *RevalidateHandler
	Health     *health.Handler
	// Limiter guards every route except health and ops. Optional.
	Limiter *pkgmiddleware.RateLimiter
}

// NewRouter creates a chi router with the global middleware stack, the
// session screen, the public pages and the operational endpoints.
func NewRouter(cfg *config.Config, h Handlers, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware stack (applied in order).
	r.Use(pkgmiddleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	if cfg.RequestTimeout > 0 {
		r.Use(chimw.Timeout(cfg.RequestTimeout))
	}
	r.Use(pkgmiddleware.RequestLogging(logger))
	r.Use(pkgmiddleware.PrometheusMetrics(serviceName))
	r.Use(pkgmiddleware.Tracing(serviceName))

	// Health and ops endpoints sit outside sessions and rate limiting.
	r.Get("/health/live", h.Health.LivenessHandler())
	r.Get("/health/ready", h.Health.ReadinessHandler())
	pkgmiddleware.RegisterOps(r, cfg.OpsAllowedCIDRs, logger)

	r.Group(func(r chi.Router) {
		if h.Limiter != nil {
			r.Use(h.Limiter.Handler)
		}
		r.Use(pkgmiddleware.Session(pkgmiddleware.SessionOptions{
			MaxAge: cfg.SessionTTL,
			Secure: cfg.CookieSecure,
		}))
		r.Use(pkgmiddleware.Credentials(apiclient.WithCredentials))
		r.Use(pkgmiddleware.RequestLogger(logger))

		// Crawlable pages.
		r.Group(func(r chi.Router) {
			r.Use(pkgmiddleware.CacheControl(60, 300))
			r.Get("/product/{id}", h.Pages.Product)
			r.Get("/category/{slug}", h.Pages.Category)
			r.Get("/search", h.Pages.Search)
			r.Get("/sitemap.xml", h.Pages.Sitemap)
			r.Get("/robots.txt", h.Pages.Robots)
		})

		// Session screen and everything personal.
		r.Group(func(r chi.Router) {
			r.Use(pkgmiddleware.NoStore)

			r.Get("/", h.Storefront.Home)
			r.Get("/cart", h.Storefront.Cart)
			r.With(pkgmiddleware.RequireLogin("/login")).Get("/checkout", h.Storefront.Checkout)

			r.Route("/actions", func(r chi.Router) {
				r.Post("/search", h.Storefront.Search)
				r.Post("/suggestion", h.Storefront.SelectSuggestion)
				r.Post("/category", h.Storefront.SelectCategory)
				r.Post("/categories", h.Storefront.OpenCategories)
				r.Post("/home", h.Storefront.GoHome)
				r.Post("/panel/close", h.Storefront.ClosePanel)
				r.Post("/panel/{panel}", h.Storefront.TogglePanel)
				r.Post("/product/close", h.Storefront.CloseProduct)
				r.Post("/image", h.Storefront.SelectImage)
				r.Post("/cart/add", h.Storefront.AddToCart)
				r.Post("/cart/{id}/qty", h.Storefront.ChangeQuantity)
				r.Post("/cart/{id}/remove", h.Storefront.RemoveFromCart)
				r.Post("/checkout", h.Storefront.PlaceOrder)
				r.Post("/wishlist/toggle", h.Storefront.ToggleWishlist)
				r.Post("/wishlist/{id}/remove", h.Storefront.RemoveFromWishlist)
				r.Post("/account/{action}", h.Storefront.AccountAction)
				r.Post("/share", h.Storefront.Share)
			})

			r.Route("/api", func(r chi.Router) {
				r.Get("/suggestions", h.Storefront.Suggestions)
				r.Get("/session", h.Storefront.Snapshot)
			})

			r.Get("/login", h.Account.LoginForm)
			r.Post("/login", h.Account.SendOTP)
			r.Get("/otp", h.Account.OTPForm)
			r.Post("/otp", h.Account.VerifyOTP)
			r.Post("/logout", h.Account.Logout)
			r.Post("/location", h.Account.SetLocation)

			r.Route("/seller", func(r chi.Router) {
				r.Use(pkgmiddleware.RequireLogin("/login"))
				r.Use(pkgmiddleware.RequireRole("seller"))
				r.Get("/brand-logo", h.Seller.BrandLogoForm)
				r.Post("/brand-logo", h.Seller.UploadBrandLogo)
			})
		})

		r.Post("/internal/revalidate", h.Revalidate.Revalidate)
	})

	return r
}
