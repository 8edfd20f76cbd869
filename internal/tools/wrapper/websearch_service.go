package wrapper

import (
	"context"
	"encoding/json"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

// WebSearchService exposes web_search (multi-backend: SearXNG, Brave,
// DuckDuckGo fallback) and web_fetch. Brave Search and SearXNG both
// need credentials/config to use as a non-default backend; neither is
// required — with nothing configured the service falls back to
// DuckDuckGo, which needs no credential at all.
type WebSearchService struct{}

func NewWebSearchService() *WebSearchService {
	return &WebSearchService{}
}

func (s *WebSearchService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "web_search",
		DisplayName: "Web Search",
		Kind:        registry.KindAPIWrapper,
		CredentialSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"brave_api_key": {"type": "string", "description": "Brave Search API key (optional; enables the brave backend)"}
			},
			"required": []
		}`),
	}
}

func (s *WebSearchService) ToolDescriptors() []registry.ToolDescriptor {
	search := NewWebSearchTool(&Config{})
	fetch := NewWebFetchTool(&FetchConfig{})
	return []registry.ToolDescriptor{
		{Name: search.Name(), Description: search.Description(), Schema: search.Schema(), Category: "search"},
		{Name: fetch.Name(), Description: fetch.Description(), Schema: fetch.Schema(), Category: "search"},
	}
}

func (s *WebSearchService) Instantiate(_ context.Context, binding registry.ServiceBinding) (registry.Instance, error) {
	cfg := &Config{ExtractContent: false}

	if key, ok := binding.Credentials["brave_api_key"].(string); ok && key != "" {
		cfg.BraveAPIKey = key
		cfg.DefaultBackend = BackendBraveSearch
	}
	if searxngURL, ok := binding.Config["searxng_url"].(string); ok && searxngURL != "" {
		cfg.SearXNGURL = searxngURL
		if cfg.DefaultBackend == "" {
			cfg.DefaultBackend = BackendSearXNG
		}
	}

	return &instance{
		tools: []engine.Tool{
			NewWebSearchTool(cfg),
			NewWebFetchTool(&FetchConfig{}),
		},
	}, nil
}
