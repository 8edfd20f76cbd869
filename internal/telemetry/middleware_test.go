package telemetry

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMiddleware_RecordsStatusAndRoute(t *testing.T) {
	m := NewMetrics()
	handler := HTTPMiddleware(m, func(r *http.Request) string { return "/chat" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/chat", nil))

	count := testutil.ToFloat64(m.HTTPRequestCounter.WithLabelValues(http.MethodPost, "/chat", "418"))
	if count != 1 {
		t.Errorf("expected counter to record one request, got %v", count)
	}
}
