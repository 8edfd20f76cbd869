package telemetry

import (
	"net/http"
	"strconv"
	"time"
)

// HTTPMiddleware records HTTPRequestCounter/HTTPRequestDuration for
// every request. path should already be a low-cardinality route
// template (e.g. "/services/{class}/tools"), not the raw URL, to keep
// the label space bounded.
func HTTPMiddleware(m *Metrics, routeLabel func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			path := r.URL.Path
			if routeLabel != nil {
				path = routeLabel(r)
			}
			status := strconv.Itoa(wrapped.status)
			m.HTTPRequestCounter.WithLabelValues(r.Method, path, status).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if !s.wroteHeader {
		s.status = code
		s.wroteHeader = true
		s.ResponseWriter.WriteHeader(code)
	}
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	return s.ResponseWriter.Write(b)
}
