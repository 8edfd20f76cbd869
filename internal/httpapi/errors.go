// Package httpapi implements the gateway's HTTP surface: the /chat,
// /chat/stream, /enhance-prompt, /services, and /health endpoints, plus
// the middleware chain (request logging, metrics, auth, rate limiting)
// every request passes through before reaching a handler.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/haasonsaas/agentgateway/internal/authn"
	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/logging"
)

// errorEnvelope is the uniform HTTP error body:
// {"error": {code, message, details?, request_id}}.
type errorEnvelope struct {
	Error *engine.GatewayError `json:"error"`
}

// writeError renders a GatewayError at its taxonomy-mapped HTTP status,
// stamping the request id for log correlation.
func writeError(w http.ResponseWriter, r *http.Request, gerr *engine.GatewayError) {
	gerr = gerr.WithRequestID(logging.RequestIDFromContext(r.Context()))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(gerr.Code.HTTPStatus())
	_ = json.NewEncoder(w).Encode(errorEnvelope{Error: gerr})
}

// writeInternalError logs the underlying cause and reports a generic
// INTERNAL_ERROR to the caller without leaking internals, per §7's
// propagation policy for uncaught exceptions.
func writeInternalError(w http.ResponseWriter, r *http.Request, logger *logging.Logger, cause error) {
	if logger != nil {
		logger.Error(r.Context(), "unhandled request error", "error", cause, "path", r.URL.Path)
	}
	writeError(w, r, engine.NewGatewayError(engine.CodeInternal, "an internal error occurred"))
}

// writeJSON renders v as the 200 JSON response body.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// identityFromRequest returns the authenticated subject, or "" when
// auth is disabled or the identity is otherwise absent.
func identityFromRequest(r *http.Request) string {
	id, ok := authn.FromContext(r.Context())
	if !ok {
		return ""
	}
	return id.Subject
}
