package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/brandcart/storefront/internal/domain"
	"github.com/brandcart/storefront/internal/seo"
	"github.com/brandcart/storefront/pkg/middleware"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages are the templates rendered inside the shared layout.
var pages = []string{
	"home", "product", "category", "search",
	"cart", "checkout", "login", "otp", "brand_logo", "error",
}

// view is the data handed to every page template.
type view struct {
	Meta     seo.Meta
	JSONLD   []any
	LoggedIn bool
	Role     string
	Data     any
}

// Renderer executes the embedded page templates.
type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses the layout and every page template.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	base, err := template.New("layout").Funcs(templateFuncs).
		ParseFS(templateFS, "templates/layout.html", "templates/partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	rd := &Renderer{pages: make(map[string]*template.Template, len(pages)), logger: logger}
	for _, name := range pages {
		t, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		if _, err := t.ParseFS(templateFS, "templates/"+name+".html"); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		rd.pages[name] = t
	}
	return rd, nil
}

// HTML renders page with status. The page is rendered into a buffer first so
// a template error still produces a clean 500.
func (rd *Renderer) HTML(w http.ResponseWriter, r *http.Request, status int, page string, meta seo.Meta, data any, jsonld ...any) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.ErrorContext(r.Context(), "unknown page template", slog.String("page", page))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	v := view{
		Meta:     meta,
		JSONLD:   jsonld,
		LoggedIn: middleware.AccessTokenFromContext(r.Context()) != "",
		Role:     middleware.RoleFromContext(r.Context()),
		Data:     data,
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		rd.logger.ErrorContext(r.Context(), "render page",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Error renders the error page with message.
func (rd *Renderer) Error(w http.ResponseWriter, r *http.Request, status int, message string) {
	rd.HTML(w, r, status, "error", seo.Meta{Title: http.StatusText(status) + " | Brandcart"}, errorPage{
		Status:  status,
		Message: message,
	})
}

type errorPage struct {
	Status  int
	Message string
}

var templateFuncs = template.FuncMap{
	"inr": domain.FormatINR,
	"rating": func(avg *float64) string {
		if avg == nil {
			return "No ratings"
		}
		return fmt.Sprintf("%.1f", *avg)
	},
	"productURL": func(id domain.ProductID) string {
		return "/?" + url.Values{"p": {id.String()}}.Encode()
	},
	"pathEscape": url.PathEscape,
	"lower":      strings.ToLower,
	"add":        func(a, b int) int { return a + b },
	"shortcuts":  func() []domain.CategoryShortcut { return domain.CategoryShortcuts },
	"accountActions": func() []accountEntry {
		return accountEntries
	},
}

type accountEntry struct {
	Action domain.AccountAction
	Label  string
}

var accountEntries = []accountEntry{
	{domain.ActionManageDevices, "Manage devices"},
	{domain.ActionEditProfile, "Edit profile"},
	{domain.ActionSavedCards, "Saved cards"},
	{domain.ActionSavedAddresses, "Saved addresses"},
	{domain.ActionLanguage, "Language"},
	{domain.ActionNotifications, "Notifications"},
	{domain.ActionPrivacy, "Privacy"},
	{domain.ActionReviews, "My reviews"},
	{domain.ActionQA, "Questions & answers"},
	{domain.ActionSell, "Sell on Brandcart"},
	{domain.ActionTerms, "Terms & policies"},
	{domain.ActionFAQs, "Help & FAQs"},
}
