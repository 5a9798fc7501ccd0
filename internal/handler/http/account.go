package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/brandcart/storefront/internal/seo"
	"github.com/brandcart/storefront/internal/service"
	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/middleware"
	"github.com/brandcart/storefront/pkg/validator"
)

// pincodeMaxAge is how long the delivery pincode is remembered.
const pincodeMaxAge = 30 * 24 * time.Hour

// Authenticator runs the OTP login.
type Authenticator interface {
	SendOTP(ctx context.Context, in service.SendOTPInput) (string, error)
	VerifyOTP(ctx context.Context, in service.VerifyOTPInput) (*service.Login, error)
}

// Limiter admits or rejects a request.
type Limiter interface {
	Allow(r *http.Request) bool
}

// AccountHandler serves login, logout and the delivery location.
type AccountHandler struct {
	auth         Authenticator
	otpLimiter   Limiter
	render       *Renderer
	cookieSecure bool
	logger       *slog.Logger
}

// NewAccountHandler creates the account handler. otpLimiter gates OTP sends.
func NewAccountHandler(auth Authenticator, otpLimiter Limiter, render *Renderer, cookieSecure bool, logger *slog.Logger) *AccountHandler {
	return &AccountHandler{
		auth:         auth,
		otpLimiter:   otpLimiter,
		render:       render,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

type pincodeForm struct {
	Pincode string `form:"pincode" validate:"required,pincode"`
}

type loginPage struct {
	Phone    string
	Redirect string
	Error    string
}

// LoginForm handles GET /login
func (h *AccountHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render.HTML(w, r, http.StatusOK, "login", seo.Meta{Title: "Login | Brandcart"}, loginPage{
		Redirect: localRedirect(r.URL.Query().Get("redirect")),
	})
}

// SendOTP handles POST /login
func (h *AccountHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	page := loginPage{
		Phone:    r.FormValue("phone"),
		Redirect: localRedirect(r.FormValue("redirect")),
	}

	if h.otpLimiter != nil && !h.otpLimiter.Allow(r) {
		page.Error = "Too many OTP requests. Please wait a minute and try again."
		h.render.HTML(w, r, http.StatusTooManyRequests, "login", seo.Meta{Title: "Login | Brandcart"}, page)
		return
	}

	phone, err := h.auth.SendOTP(r.Context(), service.SendOTPInput{Phone: page.Phone})
	if err != nil {
		status, message := describe(err)
		page.Error = message
		h.render.HTML(w, r, status, "login", seo.Meta{Title: "Login | Brandcart"}, page)
		return
	}

	q := url.Values{"phone": {phone}, "redirect": {page.Redirect}}
	http.Redirect(w, r, "/otp?"+q.Encode(), http.StatusSeeOther)
}

// OTPForm handles GET /otp
func (h *AccountHandler) OTPForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	phone := service.NormalizePhone(q.Get("phone"))
	if phone == "" {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	h.render.HTML(w, r, http.StatusOK, "otp", seo.Meta{Title: "Verify OTP | Brandcart"}, loginPage{
		Phone:    phone,
		Redirect: localRedirect(q.Get("redirect")),
	})
}

// VerifyOTP handles POST /otp
func (h *AccountHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	page := loginPage{
		Phone:    service.NormalizePhone(r.FormValue("phone")),
		Redirect: localRedirect(r.FormValue("redirect")),
	}

	login, err := h.auth.VerifyOTP(r.Context(), service.VerifyOTPInput{
		Phone: page.Phone,
		OTP:   r.FormValue("otp"),
	})
	if err != nil {
		status, message := describe(err)
		if errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrInvalidInput) {
			message = "Invalid or expired OTP"
		}
		var valErr *validator.ValidationError
		if errors.As(err, &valErr) {
			message = valErr.First()
		}
		page.Error = message
		h.render.HTML(w, r, status, "otp", seo.Meta{Title: "Verify OTP | Brandcart"}, page)
		return
	}

	cookie := &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    login.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
	if !login.ExpiresAt.IsZero() {
		cookie.Expires = login.ExpiresAt
	}
	http.SetCookie(w, cookie)

	h.logger.InfoContext(r.Context(), "shopper logged in",
		slog.String("user_id", login.Subject),
		slog.String("role", login.Role),
	)
	http.Redirect(w, r, page.Redirect, http.StatusSeeOther)
}

// Logout handles POST /logout
func (h *AccountHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// SetLocation handles POST /location
func (h *AccountHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	form := pincodeForm{Pincode: strings.TrimSpace(r.FormValue("pincode"))}
	if err := validator.Validate(form); err != nil {
		h.render.Error(w, r, http.StatusBadRequest, "Enter a valid 6-digit pincode.")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     PincodeCookie,
		Value:    form.Pincode,
		Path:     "/",
		MaxAge:   int(pincodeMaxAge.Seconds()),
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// localRedirect keeps only same-site paths; anything else becomes "/".
func localRedirect(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}
