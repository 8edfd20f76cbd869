package wrapper

import (
	"context"
	"testing"

	"github.com/haasonsaas/agentgateway/internal/registry"
)

func TestWebSearchService_ToolDescriptors(t *testing.T) {
	svc := NewWebSearchService()
	tools := svc.ToolDescriptors()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tool descriptors, got %d", len(tools))
	}
	names := map[string]bool{}
	for _, td := range tools {
		names[td.Name] = true
	}
	if !names["web_search"] || !names["web_fetch"] {
		t.Errorf("unexpected tool names: %+v", names)
	}
}

func TestWebSearchService_Instantiate_NoCredentials(t *testing.T) {
	svc := NewWebSearchService()
	inst, err := svc.Instantiate(context.Background(), registry.ServiceBinding{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inst.Tools()) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(inst.Tools()))
	}
}

func TestWebSearchService_Instantiate_WithBraveKey(t *testing.T) {
	svc := NewWebSearchService()
	inst, err := svc.Instantiate(context.Background(), registry.ServiceBinding{
		Credentials: map[string]any{"brave_api_key": "fake-key"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tools := inst.Tools()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	search, ok := tools[0].(*WebSearchTool)
	if !ok {
		t.Fatalf("expected first tool to be *WebSearchTool, got %T", tools[0])
	}
	if search.config.BraveAPIKey != "fake-key" {
		t.Errorf("expected brave_api_key to be wired into config, got %q", search.config.BraveAPIKey)
	}
	if search.config.DefaultBackend != BackendBraveSearch {
		t.Errorf("expected default backend to be Brave, got %q", search.config.DefaultBackend)
	}
}

func TestWebSearchService_Instantiate_WithSearXNGURL(t *testing.T) {
	svc := NewWebSearchService()
	inst, err := svc.Instantiate(context.Background(), registry.ServiceBinding{
		Config: map[string]any{"searxng_url": "https://searx.example.com"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	search, ok := inst.Tools()[0].(*WebSearchTool)
	if !ok {
		t.Fatalf("expected first tool to be *WebSearchTool, got %T", inst.Tools()[0])
	}
	if search.config.SearXNGURL != "https://searx.example.com" {
		t.Errorf("expected searxng_url to be wired into config, got %q", search.config.SearXNGURL)
	}
	if search.config.DefaultBackend != BackendSearXNG {
		t.Errorf("expected default backend to be SearXNG, got %q", search.config.DefaultBackend)
	}
}
