package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})

	return exporter
}

func tracedRouter(status int) http.Handler {
	r := chi.NewRouter()
	r.Use(Tracing("storefront"))
	r.Get("/product/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func TestTracing_NamesSpanAfterRoutePattern(t *testing.T) {
	exporter := setupTestTracer(t)

	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/product/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "GET /product/{id}", spans[0].Name)

	attrs := map[string]string{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "/product/{id}", attrs["http.route"])
	assert.Equal(t, kindPage, attrs["storefront.route_kind"])
}

func TestTracing_RecordsStatusCode(t *testing.T) {
	exporter := setupTestTracer(t)

	tracedRouter(http.StatusNotFound).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/1", nil))

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)

	var status int64
	for _, attr := range spans[0].Attributes {
		if string(attr.Key) == "http.status_code" {
			status = attr.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(404), status)
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exporter := setupTestTracer(t)

	tracedRouter(http.StatusInternalServerError).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/product/1", nil))

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ContinuesInboundTrace(t *testing.T) {
	exporter := setupTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/product/1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rec := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rec, req)

	spans := exporter.GetSpans()
	require.NotEmpty(t, spans)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.NotEmpty(t, rec.Header().Get("traceparent"))
}
