package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// FetchConfig controls web_fetch defaults.
type FetchConfig struct {
	MaxChars int
}

const defaultFetchMaxChars = 10000

// WebFetchTool fetches one URL and returns its readable content,
// delegating the actual HTTP round trip and SSRF guard to a
// ContentExtractor.
type WebFetchTool struct {
	maxChars  int
	extractor *ContentExtractor
}

// WebFetchOption customizes WebFetchTool construction.
type WebFetchOption func(*WebFetchTool)

// WithExtractor overrides the default content extractor (useful for tests).
func WithExtractor(extractor *ContentExtractor) WebFetchOption {
	return func(tool *WebFetchTool) {
		if extractor != nil {
			tool.extractor = extractor
		}
	}
}

// NewWebFetchTool creates a new web_fetch tool with defaults applied.
func NewWebFetchTool(config *FetchConfig, opts ...WebFetchOption) *WebFetchTool {
	maxChars := defaultFetchMaxChars
	if config != nil && config.MaxChars > 0 {
		maxChars = config.MaxChars
	}
	tool := &WebFetchTool{maxChars: maxChars, extractor: NewContentExtractor()}
	for _, opt := range opts {
		opt(tool)
	}
	return tool
}

func (t *WebFetchTool) Name() string { return "web_fetch" }

func (t *WebFetchTool) Description() string {
	return "Fetch and extract readable content from a URL without full browser automation."
}

func (t *WebFetchTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "URL to fetch (http/https only)",
			},
			"extract_mode": map[string]any{
				"type":        "string",
				"enum":        []string{"markdown", "text"},
				"description": "Extraction mode (markdown or text). Default: markdown",
			},
			"max_chars": map[string]any{
				"type":        "integer",
				"description": "Maximum characters to return (default: 10000)",
				"minimum":     0,
			},
		},
		"required": []string{"url"},
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schemaBytes
}

// fetchParams is the tool-call argument bag, tolerant of both
// snake_case and camelCase keys since different vendors emit either.
type fetchParams struct {
	url         string
	extractMode string
	maxChars    int
}

func parseFetchParams(raw json.RawMessage) (fetchParams, error) {
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fetchParams{}, fmt.Errorf("invalid parameters: %w", err)
	}
	p := fetchParams{
		url:         stringField(decoded, "url"),
		extractMode: normalizeExtractMode(stringField(decoded, "extract_mode", "extractMode")),
		maxChars:    intField(decoded, "max_chars", "maxChars"),
	}
	if p.url == "" {
		return fetchParams{}, fmt.Errorf("missing required parameter: url")
	}
	return p, nil
}

func (p fetchParams) effectiveLimit(configured int) int {
	if p.maxChars > 0 && (configured == 0 || p.maxChars < configured) {
		return p.maxChars
	}
	return configured
}

// Execute runs the fetch + extraction with SSRF protection, delegated
// to the underlying ContentExtractor's egress guard.
func (t *WebFetchTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	p, err := parseFetchParams(params)
	if err != nil {
		return &engine.ToolResult{Content: err.Error(), IsError: true}, nil
	}

	content, err := t.extractor.Extract(ctx, p.url)
	if err != nil {
		return &engine.ToolResult{Content: fmt.Sprintf("fetch failed: %v", err), IsError: true}, nil
	}

	limit := p.effectiveLimit(t.maxChars)
	truncated := false
	if limit > 0 && len(content) > limit {
		content = content[:limit] + "..."
		truncated = true
	}

	response := map[string]any{
		"url":          p.url,
		"extract_mode": p.extractMode,
		"content":      content,
	}
	if truncated {
		response["truncated"] = true
	}

	payload, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return &engine.ToolResult{Content: fmt.Sprintf("failed to format response: %v", err), IsError: true}, nil
	}
	return &engine.ToolResult{Content: string(payload)}, nil
}

func normalizeExtractMode(value string) string {
	if strings.EqualFold(strings.TrimSpace(value), "text") {
		return "text"
	}
	return "markdown"
}

func stringField(raw map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := raw[key].(string); ok {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func intField(raw map[string]any, keys ...string) int {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case json.Number:
			if parsed, err := n.Int64(); err == nil {
				return int(parsed)
			}
		}
	}
	return 0
}
