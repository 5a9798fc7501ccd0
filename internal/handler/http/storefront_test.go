package http

import (
	"encoding/json"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/internal/domain"
	pkgmiddleware "github.com/brandcart/storefront/pkg/middleware"
)

// ============================================================================
// Session screen
// ============================================================================

func TestHome_RendersTrendingListing(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, body := env.get(t, b, "/")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, resp.Header.Get("Cache-Control"), "no-store")
	assert.NotNil(t, cookieNamed(resp, pkgmiddleware.SessionCookie), "session cookie issued")
	assert.Contains(t, body, "Galaxy M14 5G")
	assert.Contains(t, body, "Festive Sale")
	assert.Contains(t, body, `<link rel="canonical" href="https://brandcart.test"`)
}

func TestHome_OpensProductFromQuery(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, body := env.get(t, b, "/?p=42")

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "6000 mAh battery")
	assert.Contains(t, body, "Galaxy Hub")

	snap := env.snapshot(t, b)
	assert.Equal(t, domain.ProductID("42"), snap.ActiveProductID)
	require.NotNil(t, snap.Detail)
	assert.Equal(t, "Galaxy M14 5G", snap.Detail.Title)
}

func TestHome_PincodeUnlocksSections(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, _ := env.post(t, b, "/location", url.Values{"pincode": {"560001"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	require.NotNil(t, cookieNamed(resp, PincodeCookie))

	_, body := env.get(t, b, "/")
	assert.Contains(t, body, "560001")
	assert.Contains(t, body, "Flash deals")
	assert.NotContains(t, body, "Enter a valid 6-digit pincode")
}

func TestHome_InvalidPincodeRejected(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, body := env.post(t, b, "/location", url.Values{"pincode": {"56A"}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, body, "Enter a valid 6-digit pincode.")
	assert.Nil(t, cookieNamed(resp, PincodeCookie))
}

// ============================================================================
// Actions
// ============================================================================

func TestActions_SearchRedirectsToScreen(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, _ := env.post(t, b, "/actions/search", url.Values{"q": {"shoes"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	_, body := env.get(t, b, "/")
	assert.Contains(t, body, "Trail Running Shoes")
	assert.NotContains(t, body, "Phone Stand")

	assert.Equal(t, "shoes", env.snapshot(t, b).SearchText)
}

func TestActions_AddToCartAndChangeQuantity(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	env.get(t, b, "/?p=42")

	resp, _ := env.post(t, b, "/actions/cart/add", url.Values{"id": {"42"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/?p=42", resp.Header.Get("Location"))

	snap := env.snapshot(t, b)
	require.Len(t, snap.Cart, 1)
	assert.Equal(t, 1, snap.CartCount)
	assert.InDelta(t, 13999, snap.CartSubtotal, 0.001)

	resp, _ = env.post(t, b, "/actions/cart/42/qty", url.Values{"delta": {"1"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 2, env.snapshot(t, b).CartCount)

	resp, _ = env.post(t, b, "/actions/cart/42/remove", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, env.snapshot(t, b).Cart)
}

func TestActions_CartShowsLines(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	env.post(t, b, "/actions/cart/add", url.Values{"id": {"42"}})

	resp, body := env.get(t, b, "/cart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Galaxy M14 5G")
}

func TestActions_RejectsBadInput(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	tests := []struct {
		name   string
		path   string
		form   url.Values
		status int
	}{
		{"missing product id", "/actions/cart/add", url.Values{}, http.StatusBadRequest},
		{"image not a url", "/actions/cart/add", url.Values{"id": {"42"}, "image": {"not a url"}}, http.StatusBadRequest},
		{"delta out of range", "/actions/cart/42/qty", url.Values{"delta": {"5"}}, http.StatusBadRequest},
		{"delta not a number", "/actions/cart/42/qty", url.Values{"delta": {"up"}}, http.StatusBadRequest},
		{"unknown product", "/actions/cart/add", url.Values{"id": {"404"}}, http.StatusNotFound},
		{"unknown panel", "/actions/panel/orders", nil, http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := env.post(t, b, tc.path, tc.form)
			assert.Equal(t, tc.status, resp.StatusCode)
			assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
			assert.NotEmpty(t, body)
		})
	}
}

func TestActions_PanelToggle(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, _ := env.post(t, b, "/actions/panel/cart", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, domain.PanelCart, env.snapshot(t, b).Panel)

	resp, _ = env.post(t, b, "/actions/panel/close", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Empty(t, env.snapshot(t, b).Panel)
}

func TestActions_ShareActiveProduct(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	env.get(t, b, "/?p=42")
	resp, _ := env.post(t, b, "/actions/share", nil)
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)

	assert.Equal(t, "https://brandcart.test/?p=42", env.snapshot(t, b).ShareURL)
}

func TestActions_CloseProductReturnsHome(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	env.get(t, b, "/?p=42")
	resp, _ := env.post(t, b, "/actions/product/close", nil)

	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Empty(t, env.snapshot(t, b).ActiveProductID)
}

func TestActions_SessionsAreIsolated(t *testing.T) {
	env := newTestEnv(t, 5)
	alice, bob := env.browser(t), env.browser(t)

	env.post(t, alice, "/actions/cart/add", url.Values{"id": {"42"}})

	assert.Equal(t, 1, env.snapshot(t, alice).CartCount)
	assert.Equal(t, 0, env.snapshot(t, bob).CartCount)
}

// ============================================================================
// JSON endpoints
// ============================================================================

func TestSuggestions(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, body := env.get(t, b, "/api/suggestions?q=phone")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env1 struct {
		Data []domain.Suggestion `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env1))
	require.NotEmpty(t, env1.Data)
	assert.Equal(t, "Phone Stand", env1.Data[0].Title)
}

func TestSuggestions_ShortQueryIsEmpty(t *testing.T) {
	env := newTestEnv(t, 5)
	b := env.browser(t)

	resp, body := env.get(t, b, "/api/suggestions?q=p")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var env1 struct {
		Data []domain.Suggestion `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(body), &env1))
	assert.Empty(t, env1.Data)
}

// ============================================================================
// Helpers
// ============================================================================

func TestDescribe(t *testing.T) {
	status, msg := describe(assert.AnError)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Something went wrong. Please try again.", msg)
}
