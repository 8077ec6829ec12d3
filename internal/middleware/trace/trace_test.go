package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	m := NewMiddleware(nil)

	var seen string
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if !strings.HasPrefix(seen, "req_") {
		t.Errorf("request id = %q, want req_ prefix", seen)
	}
}

func TestGetRequestIDWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if got := GetRequestID(req.Context()); got != "" {
		t.Errorf("request id = %q, want empty outside the middleware", got)
	}
}

func TestMetricsCountRequests(t *testing.T) {
	m := NewMiddleware(nil)
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 5; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))
	}

	got := m.GetMetrics()
	if got.TotalRequests != 5 {
		t.Errorf("TotalRequests = %d, want 5", got.TotalRequests)
	}
	if got.AverageResponseTime < 0 {
		t.Errorf("AverageResponseTime = %d, want >= 0", got.AverageResponseTime)
	}
}

func TestMetricsAverageIsMean(t *testing.T) {
	m := NewMiddleware(nil)
	atomic.StoreInt64(&m.totalRequests, 4)
	atomic.StoreInt64(&m.totalDurationUs, 4400)

	if got := m.GetMetrics().AverageResponseTime; got != 1100 {
		t.Errorf("AverageResponseTime = %d, want 1100", got)
	}
}

func TestMetricsEmpty(t *testing.T) {
	m := NewMiddleware(nil)
	if got := m.GetMetrics(); got.TotalRequests != 0 || got.AverageResponseTime != 0 {
		t.Errorf("metrics = %+v, want zeros before any request", got)
	}
}
