package engine

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentgateway/pkg/models"
)

// LLMProvider is the uniform facade the execution engine drives every
// model vendor through. Implementations handle the wire specifics of a
// given vendor (Anthropic, OpenAI, Google, a local Ollama endpoint)
// while presenting the same streaming shape to the loop.
//
// Implementations must be safe for concurrent use: the engine may run
// Complete for several in-flight conversations at once.
type LLMProvider interface {
	// Complete sends a request and returns a channel of streamed chunks.
	// The channel is closed after a chunk with Done=true or Error!=nil.
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name identifies the provider ("anthropic", "openai", "google", "ollama").
	Name() string

	// Models lists the models this provider can serve.
	Models() []Model

	// SupportsTools reports whether this provider issues native
	// function/tool calls. Providers that return false are driven with
	// the text-protocol fallback strategy instead.
	SupportsTools() bool
}

// CompletionRequest carries everything a provider needs to produce one
// assistant turn: the conversation so far, the tool catalog available
// for this call, and generation parameters.
type CompletionRequest struct {
	Model                string               `json:"model"`
	System               string               `json:"system,omitempty"`
	Messages             []CompletionMessage  `json:"messages"`
	Tools                []Tool               `json:"tools,omitempty"`
	MaxTokens            int                  `json:"max_tokens,omitempty"`
	Temperature          float64              `json:"temperature,omitempty"`
	EnableThinking       bool                 `json:"enable_thinking,omitempty"`
	ThinkingBudgetTokens int                  `json:"thinking_budget_tokens,omitempty"`
}

// CompletionMessage is one turn of the conversation sent to a provider.
// Role is one of "user", "assistant", "tool".
type CompletionMessage struct {
	Role        string              `json:"role"`
	Content     string              `json:"content,omitempty"`
	ToolCalls   []models.ToolCall   `json:"tool_calls,omitempty"`
	ToolResults []models.ToolResult `json:"tool_results,omitempty"`
}

// CompletionChunk is one unit of a streamed provider response. Exactly
// one of Text, ToolCall, Done, or Error is meaningful per chunk; Done
// and Error chunks terminate the stream.
type CompletionChunk struct {
	Text                 string          `json:"text,omitempty"`
	ToolCall             *models.ToolCall `json:"tool_call,omitempty"`
	Done                 bool            `json:"done,omitempty"`
	Error                error           `json:"-"`
	Thinking             string          `json:"thinking,omitempty"`
	ThinkingStart        bool            `json:"thinking_start,omitempty"`
	ThinkingEnd          bool            `json:"thinking_end,omitempty"`
	InputTokens          int             `json:"input_tokens,omitempty"`
	OutputTokens         int             `json:"output_tokens,omitempty"`
}

// Model describes one model a provider can serve. Engine configuration
// supplies the catalog (see internal/config); providers never bake a
// model list into code beyond a fallback default.
type Model struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ContextSize    int    `json:"context_size"`
	SupportsVision bool   `json:"supports_vision"`
}

// Tool is the engine-facing contract every registry entry must satisfy
// before it can be offered to a provider as a callable function.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error)
}

// ToolResult is the raw return value of a Tool.Execute call, before the
// engine attaches the originating ToolCall's ID and folds it into the
// conversation as a models.ToolResult.
type ToolResult struct {
	Content string `json:"content"`
	IsError bool   `json:"is_error,omitempty"`
}
