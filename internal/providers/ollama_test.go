package providers

import (
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/pkg/models"
)

func TestBuildOllamaMessagesOrdersSystemFirst(t *testing.T) {
	req := &engine.CompletionRequest{
		System: "be terse",
		Messages: []engine.CompletionMessage{
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "", ToolCalls: []models.ToolCall{
				{ID: "call_1", Name: "calculator", Input: json.RawMessage(`{"expression":"2+2"}`)},
			}},
			{Role: "tool", ToolResults: []models.ToolResult{{ToolCallID: "call_1", Content: "4"}}},
		},
	}

	got := buildOllamaMessages(req)
	if len(got) != 4 {
		t.Fatalf("expected 4 messages (system + 3), got %d", len(got))
	}
	if got[0].Role != "system" || got[0].Content != "be terse" {
		t.Fatalf("expected system message first, got %+v", got[0])
	}
	if got[2].ToolCalls[0].Function.Name != "calculator" {
		t.Fatalf("expected tool call name preserved, got %+v", got[2])
	}
	if got[3].Role != "tool" || got[3].ToolName != "calculator" {
		t.Fatalf("expected tool result to resolve tool name from prior call, got %+v", got[3])
	}
}

func TestNewOllamaProviderDefaultsBaseURL(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{})
	if p.baseURL != "http://localhost:11434" {
		t.Fatalf("expected default base URL, got %s", p.baseURL)
	}
}

func TestOllamaModelsEmptyWithoutDefault(t *testing.T) {
	p := NewOllamaProvider(OllamaConfig{})
	if models := p.Models(); models != nil {
		t.Fatalf("expected nil models without a configured default, got %v", models)
	}
}
