package wrapper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWebFetchTool_Success(t *testing.T) {
	htmlContent := `
<!DOCTYPE html>
<html>
<head><title>Fetch Test</title></head>
<body><main><p>Hello from fetch.</p></main></body>
</html>`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlContent))
	}))
	defer server.Close()

	tool := NewWebFetchTool(&FetchConfig{MaxChars: 500}, WithExtractor(NewContentExtractorForTesting()))
	raw, _ := json.Marshal(map[string]any{"url": server.URL, "extractMode": "text"})

	result, err := tool.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", result.Content)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	content, _ := payload["content"].(string)
	if !strings.Contains(content, "Hello from fetch") {
		t.Fatalf("content = %q, want it to include the fetched text", content)
	}
	if payload["extract_mode"] != "text" {
		t.Errorf("extract_mode = %v, want %q", payload["extract_mode"], "text")
	}
}

func TestWebFetchTool_Truncates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body>" + strings.Repeat("A", 200) + "</body></html>"))
	}))
	defer server.Close()

	tool := NewWebFetchTool(&FetchConfig{MaxChars: 50}, WithExtractor(NewContentExtractorForTesting()))
	raw, _ := json.Marshal(map[string]any{"url": server.URL, "maxChars": 50})

	result, err := tool.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("expected success, got error: %s", result.Content)
	}

	var payload map[string]any
	if err := json.Unmarshal([]byte(result.Content), &payload); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if truncated, _ := payload["truncated"].(bool); !truncated {
		t.Fatalf("truncated = %v, want true", payload["truncated"])
	}
	content, _ := payload["content"].(string)
	if len(content) > 53 {
		t.Fatalf("content len = %d, want <= 53 (50 chars + \"...\")", len(content))
	}
}

func TestWebFetchTool_MissingURL(t *testing.T) {
	tool := NewWebFetchTool(nil)
	raw, _ := json.Marshal(map[string]any{})

	result, err := tool.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Fatal("expected an error result for a missing url parameter")
	}
}

func TestWebFetchTool_SSRFBlocked(t *testing.T) {
	tool := NewWebFetchTool(nil)
	raw, _ := json.Marshal(map[string]any{"url": "http://localhost:1234"})

	result, err := tool.Execute(context.Background(), raw)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !result.IsError {
		t.Fatalf("expected an egress-blocked error, got success: %s", result.Content)
	}
	if !strings.Contains(result.Content, "egress blocked") {
		t.Fatalf("result.Content = %q, want it to mention the egress guard", result.Content)
	}
}
