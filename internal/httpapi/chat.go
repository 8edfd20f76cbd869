package httpapi

import (
	"fmt"
	"net/http"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
	"github.com/haasonsaas/agentgateway/internal/stream"
)

// buildEngineRequest resolves the AgentRequest body into an
// engine.Request: provider lookup, tool-catalog assembly from the
// request's service bindings filtered by allowed_tools, and model
// parameter defaults. Returns a GatewayError for anything §6/§7
// classifies as a plain HTTP validation failure rather than a stream
// error.
func (s *Server) buildEngineRequest(r *http.Request, req *agentRequest) (*engine.Request, engine.LoopConfig, *engine.GatewayError) {
	if gerr := req.validate(); gerr != nil {
		return nil, engine.LoopConfig{}, gerr
	}

	provider, ok := s.providers[req.AgentConfig.Provider]
	if !ok {
		return nil, engine.LoopConfig{}, engine.NewGatewayError(engine.CodeInvalidProvider, fmt.Sprintf("unknown provider %q", req.AgentConfig.Provider))
	}

	catalog := registry.AssembleCatalog(r.Context(), s.registry, req.bindings(), s.logger.Slog())
	tools := catalog.Filter(req.AllowedTools).Tools()

	persona := engine.Persona(req.AgentConfig.Persona)
	if persona == "" {
		persona = engine.DefaultPersona
	}

	maxTokens := req.AgentConfig.MaxTokens
	if maxTokens == 0 {
		maxTokens = engine.DefaultLoopConfig().MaxTokens
	}

	engineReq := &engine.Request{
		ConversationID:     req.ConversationID,
		Provider:           provider,
		Model:              req.AgentConfig.Model,
		Persona:            persona,
		CustomSystemPrompt: req.AgentConfig.CustomSystemPrompt,
		UserName:           req.UserID,
		CompletionMode:     req.completionMode(),
		History:            req.history(),
		UserMessage:        req.Message,
		Tools:              tools,
		Temperature:        req.AgentConfig.Temperature,
	}

	if gerr := engine.Validate(engineReq); gerr != nil {
		return nil, engine.LoopConfig{}, gerr
	}

	loopCfg := s.loopConfig
	loopCfg.MaxTokens = maxTokens

	return engineReq, loopCfg, nil
}

// handleChat implements POST /chat: non-streaming, waits for the
// engine's terminal event and renders it as one JSON response.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var body agentRequest
	if gerr := decodeJSON(r, &body); gerr != nil {
		writeError(w, r, gerr)
		return
	}

	engineReq, loopCfg, gerr := s.buildEngineRequest(r, &body)
	if gerr != nil {
		writeError(w, r, gerr)
		return
	}

	bus := stream.NewBus(stream.DefaultBufferSize)
	go engine.Run(r.Context(), bus, engineReq, loopCfg)

	for event := range bus.Events() {
		switch event.Kind {
		case stream.KindDone:
			writeJSON(w, chatResponseFromDone(event.Done))
			return
		case stream.KindError:
			writeError(w, r, engine.NewGatewayError(engine.ErrorCode(event.Error.Code), event.Error.Message))
			return
		}
	}
}

// handleChatStream implements POST /chat/stream: frames the engine's
// event bus as text/event-stream.
func (s *Server) handleChatStream(w http.ResponseWriter, r *http.Request) {
	var body agentRequest
	if gerr := decodeJSON(r, &body); gerr != nil {
		writeError(w, r, gerr)
		return
	}

	engineReq, loopCfg, gerr := s.buildEngineRequest(r, &body)
	if gerr != nil {
		writeError(w, r, gerr)
		return
	}

	bus := stream.NewBus(stream.DefaultBufferSize)
	go engine.Run(r.Context(), bus, engineReq, loopCfg)

	if err := stream.WriteSSE(w, r, bus); err != nil {
		s.logger.Warn(r.Context(), "sse stream ended with error", "error", err)
	}
}

func chatResponseFromDone(done *stream.DonePayload) chatResponse {
	calls := make([]toolCallResponse, 0, len(done.ToolCalls))
	for _, c := range done.ToolCalls {
		calls = append(calls, toolCallResponse{
			Name:       c.Name,
			Input:      c.Input,
			Output:     c.Output,
			Error:      c.Error,
			Status:     c.Status,
			DurationMS: c.DurationMS,
		})
	}
	return chatResponse{
		ConversationID: done.ConversationID,
		Message:        done.Message,
		ToolCalls:      calls,
		Metadata: metadataResponse{
			Provider:         done.Metadata.Provider,
			Model:            done.Metadata.Model,
			PromptTokens:     done.Metadata.PromptTokens,
			CompletionTokens: done.Metadata.CompletionTokens,
			TotalTokens:      done.Metadata.TotalTokens,
			ProcessingTimeMS: done.Metadata.ProcessingTimeMS,
			ToolsAvailable:   done.Metadata.ToolsAvailable,
		},
	}
}
