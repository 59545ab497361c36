package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// ============================================================================
// Tracing
// ============================================================================

func installTestTracer(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return exporter
}

func tracedRouter(status int) *chi.Mux {
	r := chi.NewRouter()
	r.Use(Tracing("tasks-api-test"))
	r.Get("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	return r
}

func TestTracing_SpanNamedAfterRoute(t *testing.T) {
	exporter := installTestTracer(t)

	tracedRouter(http.StatusOK).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/123", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "GET /tasks/{id}", spans[0].Name)
	assert.NotEqual(t, codes.Error, spans[0].Status.Code)

	attrs := map[string]any{}
	for _, kv := range spans[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.AsInterface()
	}
	assert.Equal(t, "/tasks/{id}", attrs["http.route"])
	assert.EqualValues(t, http.StatusOK, attrs["http.status_code"])
}

func TestTracing_ServerErrorMarksSpan(t *testing.T) {
	exporter := installTestTracer(t)

	tracedRouter(http.StatusInternalServerError).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/tasks/1", nil))

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	exporter := installTestTracer(t)

	req := httptest.NewRequest(http.MethodGet, "/tasks/1", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	rr := httptest.NewRecorder()
	tracedRouter(http.StatusOK).ServeHTTP(rr, req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
	assert.Contains(t, rr.Header().Get("traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")
}

// ============================================================================
// Metrics
// ============================================================================

func TestPrometheusMetrics_LabelsByRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("metrics-route-test"))
	r.Delete("/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodDelete, "/tasks/"+id, nil))
	}
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	assert.Equal(t, 3.0, testutil.ToFloat64(requestsTotal.WithLabelValues("metrics-route-test", http.MethodDelete, "/tasks/{id}", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(requestsTotal.WithLabelValues("metrics-route-test", http.MethodGet, "unmatched", "404")))
	assert.Equal(t, 0.0, testutil.ToFloat64(requestsInFlight.WithLabelValues("metrics-route-test")))
}

func TestPrometheusMetrics_InFlightDuringRequest(t *testing.T) {
	var during float64
	h := PrometheusMetrics("metrics-inflight-test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		during = testutil.ToFloat64(requestsInFlight.WithLabelValues("metrics-inflight-test"))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, 1.0, during)
	assert.Equal(t, 0.0, testutil.ToFloat64(requestsInFlight.WithLabelValues("metrics-inflight-test")))
}

// ============================================================================
// CORS
// ============================================================================

func corsResponse(cfg CORSConfig, method, origin string, preflight bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/tasks", nil)
	if origin != "" {
		req.Header.Set("Origin", origin)
	}
	if preflight {
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	rr := httptest.NewRecorder()
	CORS(cfg)(okHandler()).ServeHTTP(rr, req)
	return rr
}

func TestCORS_AllowOrigin(t *testing.T) {
	strict := CORSConfig{AllowedOrigins: []string{"https://app.example.com"}, Environment: "production"}

	tests := []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   string
	}{
		{"default wildcard", DefaultCORSConfig(), "https://any.example", "*"},
		{"empty list in development", CORSConfig{Environment: "development"}, "https://any.example", "*"},
		{"empty list in production", CORSConfig{Environment: "production"}, "https://any.example", ""},
		{"listed origin", strict, "https://app.example.com", "https://app.example.com"},
		{"unlisted origin", strict, "https://evil.example", ""},
		{"no origin", strict, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := corsResponse(tt.cfg, http.MethodGet, tt.origin, false)
			assert.Equal(t, tt.want, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, http.StatusOK, rr.Code)
		})
	}
}

func TestCORS_EchoedOriginVaries(t *testing.T) {
	cfg := CORSConfig{AllowedOrigins: []string{"https://app.example.com"}}
	rr := corsResponse(cfg, http.MethodGet, "https://app.example.com", false)

	assert.Equal(t, "Origin", rr.Header().Get("Vary"))
}

func TestCORS_Preflight(t *testing.T) {
	rr := corsResponse(DefaultCORSConfig(), http.MethodOptions, "https://app.example.com", true)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", rr.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Authorization, X-Request-Id", rr.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, RequestIDHeader, rr.Header().Get("Access-Control-Expose-Headers"))
	assert.Equal(t, "600", rr.Header().Get("Access-Control-Max-Age"))
}

func TestCORS_PlainOptionsReachesHandler(t *testing.T) {
	rr := corsResponse(DefaultCORSConfig(), http.MethodOptions, "", false)

	assert.Equal(t, http.StatusOK, rr.Code)
}

// ============================================================================
// pprof allowlist
// ============================================================================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestIPAllowlist(t *testing.T) {
	h := IPAllowlist([]string{"10.0.0.0/8", "::1/128", "not-a-cidr"}, discardLogger())(okHandler())

	tests := []struct {
		remote string
		xff    string
		want   int
	}{
		{"10.1.2.3:5555", "", http.StatusOK},
		{"[::1]:5555", "", http.StatusOK},
		{"10.9.9.9", "", http.StatusOK},
		{"192.168.1.1:5555", "", http.StatusForbidden},
		{"192.168.1.1:5555", "10.1.2.3", http.StatusForbidden},
		{"garbage", "", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.remote+"|"+tt.xff, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, req)
			assert.Equal(t, tt.want, rr.Code)
		})
	}
}

func TestIPAllowlist_EmptyDeniesAll(t *testing.T) {
	h := IPAllowlist(nil, discardLogger())(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "127.0.0.1:1"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Contains(t, rr.Body.String(), "FORBIDDEN")
}

func TestRegisterPprof(t *testing.T) {
	r := chi.NewRouter()
	RegisterPprof(r, []string{"127.0.0.0/8"}, discardLogger())

	for _, path := range []string{"/debug/pprof/", "/debug/pprof/cmdline", "/debug/pprof/heap?debug=1"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "127.0.0.1:4000"
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil)
	req.RemoteAddr = "203.0.113.5:4000"
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
