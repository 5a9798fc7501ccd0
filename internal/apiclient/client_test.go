package apiclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/internal/domain"
	apperrors "github.com/brandcart/storefront/pkg/errors"
	"github.com/brandcart/storefront/pkg/logger"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL + "/", Timeout: 5 * time.Second}, logger.Discard())
}

// ============================================================================
// Transport behavior
// ============================================================================

func TestGet_DecodesJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/products/trending", r.URL.Path)
		assert.Equal(t, "24", r.URL.Query().Get("limit"))
		_, _ = io.WriteString(w, `[{"id":1,"title":"Phone","price":999,"image":"a.jpg"},{"id":"b2","title":"Case","selling_price":199.5}]`)
	})

	got, err := c.Section(context.Background(), SectionTrending, 24)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.ProductID("1"), got[0].ID)
	assert.Equal(t, 999.0, got[0].SellingPrice)
	assert.Equal(t, []string{"a.jpg"}, got[0].Images)
	assert.Equal(t, 199.5, got[1].SellingPrice)
}

func TestGet_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"detail":"Product not found"}`)
	})

	_, err := c.Product(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, "HTTP 404", err.Error())
	assert.Equal(t, http.StatusNotFound, StatusOf(err))
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Equal(t, "Product not found", UserMessage(err, "fallback"))
}

func TestGet_ServerErrorKeepsStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	err := c.Get(context.Background(), "/api/products", nil)
	require.Error(t, err)
	assert.Equal(t, "HTTP 500", err.Error())
	assert.Equal(t, http.StatusBadGateway, apperrors.HTTPStatus(err))
}

func TestGet_InvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `<html>`)
	})

	_, err := c.Categories(context.Background())
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "/api/public/categories", de.Path)
}

func TestGet_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(Config{BaseURL: url}, logger.Discard())
	err := c.Get(context.Background(), "/api/products", nil)
	require.Error(t, err)
	assert.Equal(t, 0, StatusOf(err))
}

func TestRequest_ForwardsCredentialsAndCorrelation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		cookie, err := r.Cookie("access_token")
		require.NoError(t, err)
		assert.Equal(t, "tok-123", cookie.Value)
		assert.Equal(t, "corr-1", r.Header.Get("X-Correlation-ID"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, `[]`)
	})

	ctx := WithCredentials(context.Background(), "tok-123")
	ctx = logger.WithCorrelationID(ctx, "corr-1")
	_, err := c.Banners(ctx)
	require.NoError(t, err)
}

func TestRequest_AnonymousSendsNoCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		_, err := r.Cookie("access_token")
		assert.ErrorIs(t, err, http.ErrNoCookie)
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.TopBrands(WithCredentials(context.Background(), ""))
	require.NoError(t, err)
}

// ============================================================================
// Endpoints
// ============================================================================

func TestSearchProducts_Query(t *testing.T) {
	lo, hi := 500, 1000
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/products/search", r.URL.Path)
		assert.Equal(t, "red shoes", q.Get("q"))
		assert.Equal(t, "fashion", q.Get("category"))
		assert.Equal(t, "500", q.Get("min_price"))
		assert.Equal(t, "1000", q.Get("max_price"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "8", q.Get("limit"))
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.SearchProducts(context.Background(), SearchQuery{
		Q: "red shoes", Category: "fashion", MinPrice: &lo, MaxPrice: &hi, Page: 2, Limit: 8,
	})
	require.NoError(t, err)
}

func TestListProducts_EscapesSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "a&b c", r.URL.Query().Get("search"))
		assert.Equal(t, "search=a%26b%20c", r.URL.RawQuery)
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.ListProducts(context.Background(), "a&b c")
	require.NoError(t, err)
}

func TestSearchProducts_SpacesAsPercent20(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "limit=8&page=1&q=running%20shoes%2B", r.URL.RawQuery)
		_, _ = io.WriteString(w, `[]`)
	})

	_, err := c.SearchProducts(context.Background(), SearchQuery{Q: "running shoes+", Page: 1, Limit: 8})
	require.NoError(t, err)
}

func TestSection_LooseListBodies(t *testing.T) {
	tests := []struct {
		name string
		body string
		ids  []domain.ProductID
	}{
		{"object body", `{"items":[{"id":"a"}]}`, nil},
		{"null body", `null`, nil},
		{"price as string", `[{"id":"a","selling_price":"499"},{"id":"b","selling_price":199}]`, []domain.ProductID{"a", "b"}},
		{"images as string", `[{"id":"a","images":"x.jpg"},{"id":"b","images":["y.jpg"]}]`, []domain.ProductID{"a", "b"}},
		{"malformed element", `[{"id":"a"},{"id":[1,2]},7,{"id":"c"}]`, []domain.ProductID{"a", "c"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			})

			got, err := c.Section(context.Background(), SectionTrending, 24)
			require.NoError(t, err)
			require.NotNil(t, got)
			ids := make([]domain.ProductID, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.ID)
			}
			assert.ElementsMatch(t, tt.ids, ids)
		})
	}
}

func TestProductReviews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/reviews/product/p1", r.URL.Path)
		_, _ = io.WriteString(w, `{"count":2,"reviews":[{"rating":4},{"rating":"5"}]}`)
	})

	payload, err := c.ProductReviews(context.Background(), "p1")
	require.NoError(t, err)
	s := domain.SummarizeReviews(payload)
	assert.Equal(t, 2.0, s.Count)
	require.NotNil(t, s.Average)
	assert.Equal(t, 4.5, *s.Average)
}

func TestVerifyOTP(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"phone":"9876543210","otp":"123456"}`, string(body))
		_, _ = io.WriteString(w, `{"access_token":"jwt","token_type":"bearer","role":"buyer"}`)
	})

	tok, err := c.VerifyOTP(context.Background(), "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, "jwt", tok.AccessToken)
	assert.Equal(t, "buyer", tok.Role)
}

func TestUploadBrandLogo(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "logo.png", hdr.Filename)
		assert.Equal(t, "image/png", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "PNGDATA", string(data))
		_, _ = io.WriteString(w, `{"message":"Brand logo uploaded","logo_url":"https://cdn/logo.png"}`)
	})

	got, err := c.UploadBrandLogo(context.Background(), "logo.png", strings.NewReader("PNGDATA"))
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/logo.png", got)
}

func TestBaseURL_TrimsTrailingSlash(t *testing.T) {
	c := New(Config{BaseURL: "http://api.local///"}, logger.Discard())
	assert.Equal(t, "http://api.local", c.BaseURL())
}
