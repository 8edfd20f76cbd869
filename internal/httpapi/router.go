package httpapi

import (
	"net/http"
	"strings"

	"github.com/haasonsaas/agentgateway/internal/authn"
	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/logging"
	"github.com/haasonsaas/agentgateway/internal/ratelimit"
	"github.com/haasonsaas/agentgateway/internal/registry"
	"github.com/haasonsaas/agentgateway/internal/telemetry"
)

// Server holds everything an httpapi request handler needs. It has no
// mutable per-request state — every field is either immutable after
// construction or independently thread-safe (the registry after
// Freeze, the rate limiter, the provider map).
type Server struct {
	providers       map[string]engine.LLMProvider
	defaultProvider string
	registry        *registry.Registry
	loopConfig      engine.LoopConfig

	auth        *authn.TokenService
	rateLimiter *ratelimit.Limiter
	logger      *logging.Logger
	metrics     *telemetry.Metrics
	allowedOrigins []string
}

// Config bundles Server's construction-time dependencies.
type Config struct {
	Providers      map[string]engine.LLMProvider
	Registry       *registry.Registry
	LoopConfig     engine.LoopConfig
	Auth           *authn.TokenService
	RateLimiter    *ratelimit.Limiter
	Logger         *logging.Logger
	Metrics        *telemetry.Metrics
	AllowedOrigins []string
}

// NewServer builds a Server from its dependencies. loopConfig falls
// back to engine.DefaultLoopConfig when zero-valued.
func NewServer(cfg Config) *Server {
	loopCfg := cfg.LoopConfig
	if loopCfg.MaxIterations <= 0 {
		loopCfg = engine.DefaultLoopConfig()
	}

	var defaultProvider string
	for _, name := range []string{"anthropic", "openai", "google", "ollama"} {
		if _, ok := cfg.Providers[name]; ok {
			defaultProvider = name
			break
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.New(logging.Config{})
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}

	return &Server{
		providers:       cfg.Providers,
		defaultProvider: defaultProvider,
		registry:        cfg.Registry,
		loopConfig:      loopCfg,
		auth:            cfg.Auth,
		rateLimiter:     cfg.RateLimiter,
		logger:          logger,
		metrics:         metrics,
		allowedOrigins:  cfg.AllowedOrigins,
	}
}

// Handler builds the complete gateway mux: routes wrapped in the
// logging -> metrics -> CORS -> auth -> rate-limit middleware chain,
// applied outermost-first in that order.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /chat/stream", s.handleChatStream)
	mux.HandleFunc("POST /enhance-prompt", s.handleEnhancePrompt)
	mux.HandleFunc("GET /services", s.handleListServices)
	mux.HandleFunc("GET /services/{class}/tools", s.handleServiceTools)
	mux.HandleFunc("POST /services/{class}/execute", s.handleServiceExecute)

	// routeLabel resolves the matched mux pattern (e.g.
	// "GET /services/{class}/tools") rather than the raw path, keeping
	// the metrics label space bounded regardless of the {class} value.
	routeLabel := func(r *http.Request) string {
		if _, pattern := mux.Handler(r); pattern != "" {
			return pattern
		}
		return r.URL.Path
	}

	var handler http.Handler = mux
	handler = s.rateLimitMiddleware(handler)
	handler = authn.Middleware(s.auth, s.logger.Slog(), "/health")(handler)
	handler = s.corsMiddleware(handler)
	handler = telemetry.HTTPMiddleware(s.metrics, routeLabel)(handler)
	handler = logging.Middleware(s.logger)(handler)
	return handler
}

// corsMiddleware answers preflight requests and stamps
// Access-Control-Allow-Origin for allowed origins. A "*" entry (or an
// empty AllowedOrigins list, the conservative default) disables CORS
// entirely rather than reflecting every origin.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.allowedOrigins))
	allowAll := false
	for _, o := range s.allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies the per-caller token bucket to /chat and
// /chat/stream, keyed by the authenticated subject when present and
// falling back to the remote address for unauthenticated deployments.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.rateLimiter == nil || !strings.HasPrefix(r.URL.Path, "/chat") {
			next.ServeHTTP(w, r)
			return
		}

		key := identityFromRequest(r)
		if key == "" {
			key = r.RemoteAddr
		}
		if !s.rateLimiter.Allow(key) {
			writeError(w, r, engine.NewGatewayError(engine.CodeRateLimitExceeded, "rate limit exceeded"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
