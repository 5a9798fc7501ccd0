package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brandcart/storefront/pkg/logger"
)

func serveSession(t *testing.T, cookie string) (ctxID string, rec *httptest.ResponseRecorder) {
	t.Helper()
	h := Session(SessionOptions{MaxAge: 24 * time.Hour})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxID = SessionIDFromContext(r.Context())
		assert.Equal(t, ctxID, logger.SessionIDFromContext(r.Context()))
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: cookie})
	}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return ctxID, rec
}

func TestSession_IssuesNewID(t *testing.T) {
	id, rec := serveSession(t, "")

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, SessionCookie, cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 86400, cookies[0].MaxAge)
}

func TestSession_KeepsExistingID(t *testing.T) {
	existing := uuid.NewString()
	id, _ := serveSession(t, existing)
	assert.Equal(t, existing, id)
}

func TestSession_ReplacesMalformedID(t *testing.T) {
	id, _ := serveSession(t, "../../etc/passwd")
	assert.NotEqual(t, "../../etc/passwd", id)
	_, err := uuid.Parse(id)
	assert.NoError(t, err)
}
