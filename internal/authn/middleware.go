package authn

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// Middleware enforces bearer-token authentication on every request
// except the given bypass paths (typically /health). A nil or
// disabled TokenService turns the middleware into a no-op, matching
// deployments that delegate auth to a fronting proxy.
func Middleware(ts *TokenService, logger *slog.Logger, bypass ...string) func(http.Handler) http.Handler {
	skip := make(map[string]bool, len(bypass))
	for _, p := range bypass {
		skip[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if skip[r.URL.Path] || !ts.Enabled() {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				writeUnauthorized(w, "missing bearer token")
				return
			}
			token := strings.TrimSpace(header[len("bearer "):])
			id, err := ts.Verify(token)
			if err != nil {
				if logger != nil {
					logger.Warn("jwt verification failed", "error", err)
				}
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	gwErr := engine.NewGatewayError(engine.CodeAuthentication, message)
	_ = json.NewEncoder(w).Encode(struct {
		Error *engine.GatewayError `json:"error"`
	}{Error: gwErr})
}
