package httpapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

const maxMessageLen = 10000

// agentConfigRequest is the AgentRequest body's agent_config block.
type agentConfigRequest struct {
	Provider           string  `json:"provider"`
	Model              string  `json:"model"`
	Temperature        float64 `json:"temperature"`
	MaxTokens          int     `json:"max_tokens"`
	Persona            string  `json:"persona"`
	CustomSystemPrompt string  `json:"custom_system_prompt,omitempty"`
}

// serviceBindingRequest mirrors registry.ServiceBinding for JSON decoding.
type serviceBindingRequest struct {
	Class         string         `json:"class"`
	SelectionMode string         `json:"selection_mode"`
	SelectedTools []string       `json:"selected_tools,omitempty"`
	Credentials   map[string]any `json:"credentials,omitempty"`
	Config        map[string]any `json:"config,omitempty"`
}

func (b serviceBindingRequest) toBinding() registry.ServiceBinding {
	mode := registry.SelectionAll
	if b.SelectionMode == string(registry.SelectionSelected) {
		mode = registry.SelectionSelected
	}
	return registry.ServiceBinding{
		Class:         b.Class,
		SelectionMode: mode,
		SelectedTools: b.SelectedTools,
		Credentials:   b.Credentials,
		Config:        b.Config,
	}
}

// chatTurnRequest is one entry of conversation_history.
type chatTurnRequest struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// agentRequest is the full /chat and /chat/stream JSON body (§6).
type agentRequest struct {
	UserID             string                  `json:"user_id"`
	ConversationID     string                  `json:"conversation_id"`
	Message            string                  `json:"message"`
	CompletionMode     string                  `json:"completion_mode"`
	AllowedTools       *[]string               `json:"allowed_tools"`
	AgentConfig        agentConfigRequest      `json:"agent_config"`
	Services           []serviceBindingRequest `json:"services"`
	ConversationHistory []chatTurnRequest      `json:"conversation_history"`
}

// decodeJSON reads and strictly decodes r.Body into dst, rejecting
// trailing data and unknown fields so a malformed body fails fast as
// VALIDATION_ERROR rather than silently dropping fields.
func decodeJSON(r *http.Request, dst any) *engine.GatewayError {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if err == io.EOF {
			return engine.NewGatewayError(engine.CodeValidation, "request body must not be empty")
		}
		return engine.NewGatewayError(engine.CodeValidation, fmt.Sprintf("malformed request body: %s", err))
	}
	if dec.More() {
		return engine.NewGatewayError(engine.CodeValidation, "request body must contain a single JSON object")
	}
	return nil
}

// validate applies the AgentRequest field contract from §6, ahead of
// provider/tool resolution.
func (req *agentRequest) validate() *engine.GatewayError {
	if req.Message == "" || len(req.Message) > maxMessageLen {
		return engine.NewGatewayError(engine.CodeValidation, fmt.Sprintf("message must be 1..%d characters", maxMessageLen))
	}
	if req.AgentConfig.Provider == "" {
		return engine.NewGatewayError(engine.CodeInvalidProvider, "agent_config.provider is required")
	}
	if req.AgentConfig.Temperature < 0 || req.AgentConfig.Temperature > 2 {
		return engine.NewGatewayError(engine.CodeValidation, "agent_config.temperature must be between 0 and 2")
	}
	if req.AgentConfig.MaxTokens < 0 || req.AgentConfig.MaxTokens > 8000 {
		return engine.NewGatewayError(engine.CodeValidation, "agent_config.max_tokens must be between 1 and 8000")
	}
	for _, turn := range req.ConversationHistory {
		switch turn.Role {
		case "user", "assistant", "system":
		default:
			return engine.NewGatewayError(engine.CodeValidation, fmt.Sprintf("conversation_history entry has invalid role %q", turn.Role))
		}
	}
	return nil
}

func (req *agentRequest) history() []engine.CompletionMessage {
	out := make([]engine.CompletionMessage, 0, len(req.ConversationHistory))
	for _, turn := range req.ConversationHistory {
		out = append(out, engine.CompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	return out
}

func (req *agentRequest) bindings() []registry.ServiceBinding {
	out := make([]registry.ServiceBinding, 0, len(req.Services))
	for _, b := range req.Services {
		out = append(out, b.toBinding())
	}
	return out
}

func (req *agentRequest) completionMode() engine.CompletionMode {
	if req.CompletionMode == "" {
		return engine.ModeAuto
	}
	return engine.CompletionMode(req.CompletionMode)
}

// chatResponse is the non-streaming /chat success body.
type chatResponse struct {
	ConversationID string              `json:"conversation_id"`
	Message        string              `json:"message"`
	ToolCalls      []toolCallResponse  `json:"tool_calls"`
	Metadata       metadataResponse    `json:"metadata"`
}

type toolCallResponse struct {
	Name       string `json:"name"`
	Input      string `json:"input"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

type metadataResponse struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	ToolsAvailable   int    `json:"tools_available"`
}

// enhancePromptRequest is the /enhance-prompt body.
type enhancePromptRequest struct {
	CurrentPrompt string `json:"current_prompt"`
	Provider      string `json:"provider"`
	Model         string `json:"model"`
}

type enhancePromptResponse struct {
	EnhancedPrompt string                   `json:"enhanced_prompt"`
	Metadata       enhancePromptMetadata    `json:"metadata"`
}

type enhancePromptMetadata struct {
	OriginalLength int `json:"original_length"`
}

// executeToolRequest is the POST /services/{class}/execute body.
type executeToolRequest struct {
	ToolName  string         `json:"tool_name"`
	Arguments json.RawMessage `json:"arguments"`
	Config    map[string]any `json:"config,omitempty"`
	Auth      map[string]any `json:"auth,omitempty"`
}

type executeToolResponse struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}
