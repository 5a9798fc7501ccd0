package http

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/brandcart/storefront/internal/apiclient"
	"github.com/brandcart/storefront/internal/config"
	"github.com/brandcart/storefront/internal/repository/memory"
	"github.com/brandcart/storefront/internal/service"
	"github.com/brandcart/storefront/internal/store"
	"github.com/brandcart/storefront/pkg/health"
	"github.com/brandcart/storefront/pkg/logger"
	pkgmiddleware "github.com/brandcart/storefront/pkg/middleware"
)

// ============================================================================
// Fake marketplace API
// ============================================================================

const testOTP = "123456"

var testProducts = []map[string]any{
	{
		"id":            "42",
		"title":         "Galaxy M14 5G",
		"description":   "6000 mAh battery, 50 MP camera.",
		"category":      "mobiles",
		"images":        []string{"https://cdn.example.com/m14-front.jpg", "https://cdn.example.com/m14-back.jpg"},
		"selling_price": 13999,
		"mrp":           17999,
		"stock":         12,
		"seller":        map[string]any{"brand_name": "Galaxy Hub", "slug": "galaxy-hub", "trust_score": 4.6, "cod_supported": true},
	},
	{
		"id":            "7",
		"title":         "Trail Running Shoes",
		"category":      "footwear",
		"images":        []string{"https://cdn.example.com/shoes.jpg"},
		"selling_price": 2499,
		"mrp":           3999,
		"stock":         0,
	},
	{
		"id":            "9",
		"title":         "Phone Stand",
		"category":      "mobiles",
		"images":        []string{"https://cdn.example.com/stand.jpg"},
		"selling_price": 299,
		"stock":         40,
	},
}

type fakeMarketplace struct {
	categoryCalls atomic.Int32

	mu         sync.Mutex
	lastSearch url.Values
	uploadAuth string
	uploadName string
}

func (f *fakeMarketplace) routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/api/products", f.listProducts)
	r.Get("/api/products/search", f.searchProducts)
	r.Get("/api/products/{id}", f.product)
	r.Get("/api/reviews/product/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"count":   2,
			"average": 4.5,
			"reviews": []map[string]any{{"rating": 5, "comment": "Great phone"}, {"rating": 4}},
		})
	})
	r.Get("/api/public/categories", func(w http.ResponseWriter, r *http.Request) {
		f.categoryCalls.Add(1)
		writeJSON(w, http.StatusOK, []map[string]any{{"name": "Mobiles", "slug": "mobiles"}})
	})
	r.Get("/api/public/banners", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"title": "Festive Sale", "image": "https://cdn.example.com/b1.jpg"}})
	})
	r.Get("/api/brands/top", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []map[string]any{{"brand_name": "Galaxy Hub", "slug": "galaxy-hub", "trust_score": 4.6}})
	})
	r.Post("/api/auth/send-otp", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "OTP sent"})
	})
	r.Post("/api/auth/verify-otp", f.verifyOTP)
	r.Post("/api/uploads/brand-logo", f.uploadLogo)
	return r
}

func (f *fakeMarketplace) listProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, matching(r.URL.Query().Get("search"), ""))
}

func (f *fakeMarketplace) searchProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f.mu.Lock()
	f.lastSearch = q
	f.mu.Unlock()

	items := matching(q.Get("q"), q.Get("category"))
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	writeJSON(w, http.StatusOK, items)
}

func (f *fakeMarketplace) product(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	switch id {
	case "trending", "recommended", "top-discounts", "flash-deals":
		writeJSON(w, http.StatusOK, testProducts)
		return
	}
	for _, p := range testProducts {
		if p["id"] == id {
			writeJSON(w, http.StatusOK, p)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Product not found"})
}

func (f *fakeMarketplace) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phone string `json:"phone"`
		OTP   string `json:"otp"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	if body.OTP != testOTP {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid OTP"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access_token": testToken("user-"+body.Phone, "customer"),
		"token_type":   "bearer",
		"role":         "customer",
	})
}

func (f *fakeMarketplace) uploadLogo(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "file missing"})
		return
	}
	_, _ = io.Copy(io.Discard, file)
	_ = file.Close()

	f.mu.Lock()
	f.uploadAuth = r.Header.Get("Authorization")
	f.uploadName = header.Filename
	f.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"logo_url": "https://cdn.example.com/logos/" + header.Filename})
}

func (f *fakeMarketplace) searchQuery() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSearch
}

func matching(text, category string) []map[string]any {
	text = strings.ToLower(strings.TrimSpace(text))
	out := []map[string]any{}
	for _, p := range testProducts {
		if category != "" && p["category"] != category {
			continue
		}
		title := strings.ToLower(p["title"].(string))
		if text != "" && !strings.Contains(title, text) && p["category"] != text {
			continue
		}
		out = append(out, p)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func testToken(subject, role string) string {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return tok
}

// ============================================================================
// Storefront under test
// ============================================================================

const (
	testSiteURL       = "https://brandcart.test"
	testRevalidateKey = "s3cret"
)

type testEnv struct {
	api    *fakeMarketplace
	server *httptest.Server
}

// newTestEnv wires the real services against the fake marketplace and serves
// the router. otpBurst bounds OTP sends per client.
func newTestEnv(t *testing.T, otpBurst int) *testEnv {
	t.Helper()
	log := logger.Discard()

	api := &fakeMarketplace{}
	upstream := httptest.NewServer(api.routes())
	t.Cleanup(upstream.Close)

	client := apiclient.New(apiclient.Config{BaseURL: upstream.URL, Timeout: 5 * time.Second}, log)
	catalog := service.NewCatalog(client, memory.NewKV(), log)
	sessions := service.NewSessionManager(service.SessionDeps{
		Catalog: catalog,
		Source:  client,
		Store:   store.New(memory.NewKV(), time.Hour, log),
		Logger:  log,
		SiteURL: testSiteURL,
	}, time.Hour)
	t.Cleanup(sessions.Stop)

	otpLimiter := pkgmiddleware.NewRateLimiter(rate.Every(time.Minute), otpBurst, log)
	t.Cleanup(otpLimiter.Stop)

	render, err := NewRenderer(log)
	require.NoError(t, err)

	cfg := &config.Config{
		SiteURL:         testSiteURL,
		RequestTimeout:  10 * time.Second,
		SessionTTL:      24 * time.Hour,
		OpsAllowedCIDRs: []string{"127.0.0.0/8", "::1/128"},
	}
	router := NewRouter(cfg, Handlers{
		Storefront: NewStorefrontHandler(sessions, catalog, render, testSiteURL, DefaultRenderWait, log),
		Pages:      NewPageHandler(catalog, render, testSiteURL, log),
		Account:    NewAccountHandler(service.NewAuthService(client, log), otpLimiter, render, false, log),
		Seller:     NewSellerHandler(service.NewUploadService(client, log), render, log),
		Revalidate: NewRevalidateHandler(catalog, testRevalidateKey, log),
		Health:     health.NewHandler(),
	}, log)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testEnv{api: api, server: srv}
}

// browser keeps cookies between requests and never follows redirects.
func (e *testEnv) browser(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{
		Jar:     jar,
		Timeout: 10 * time.Second,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (e *testEnv) get(t *testing.T, c *http.Client, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.Get(e.server.URL + path)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

func (e *testEnv) post(t *testing.T, c *http.Client, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	resp, err := c.PostForm(e.server.URL+path, form)
	require.NoError(t, err)
	return resp, readBody(t, resp)
}

// snapshot reads the session as the page script sees it.
func (e *testEnv) snapshot(t *testing.T, c *http.Client) service.Snapshot {
	t.Helper()
	resp, body := e.get(t, c, "/api/session")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env struct {
		Data service.Snapshot `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env))
	return env.Data
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func cookieNamed(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}
