package httpapi

import (
	"net/http"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// handleEnhancePrompt implements POST /enhance-prompt: a one-shot,
// non-streaming system-prompt expansion that never enters the agent
// loop or binds tools.
func (s *Server) handleEnhancePrompt(w http.ResponseWriter, r *http.Request) {
	var body enhancePromptRequest
	if gerr := decodeJSON(r, &body); gerr != nil {
		writeError(w, r, gerr)
		return
	}

	providerName := body.Provider
	if providerName == "" {
		providerName = s.defaultProvider
	}
	provider, ok := s.providers[providerName]
	if !ok {
		writeError(w, r, engine.NewGatewayError(engine.CodeInvalidProvider, "no provider available for prompt enhancement"))
		return
	}

	result, err := engine.RewritePrompt(r.Context(), provider, body.Model, body.CurrentPrompt)
	if err != nil {
		if gerr, ok := err.(*engine.GatewayError); ok {
			writeError(w, r, gerr)
			return
		}
		writeInternalError(w, r, s.logger, err)
		return
	}

	writeJSON(w, enhancePromptResponse{
		EnhancedPrompt: result.EnhancedPrompt,
		Metadata:       enhancePromptMetadata{OriginalLength: result.OriginalLength},
	})
}
