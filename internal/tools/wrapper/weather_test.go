package wrapper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWeatherService_Descriptor(t *testing.T) {
	svc := NewWeatherService()
	desc := svc.Descriptor()
	if desc.Class != "weather" {
		t.Errorf("expected class 'weather', got %q", desc.Class)
	}
	if desc.CredentialSchema != nil {
		t.Error("weather should not require a credential schema")
	}
}

func TestWeatherService_ToolDescriptors(t *testing.T) {
	svc := NewWeatherService()
	tools := svc.ToolDescriptors()
	if len(tools) != 2 {
		t.Fatalf("expected 2 tools, got %d", len(tools))
	}
	names := map[string]bool{}
	for _, td := range tools {
		names[td.Name] = true
		if td.Description == "" {
			t.Errorf("tool %q missing description", td.Name)
		}
	}
	if !names["get_weather"] || !names["get_detailed_weather"] {
		t.Errorf("unexpected tool names: %+v", names)
	}
}

func TestWeatherTool_Execute_MissingCity(t *testing.T) {
	tool := &weatherTool{client: defaultClient(0), baseURL: "http://unused"}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result for missing city")
	}
}

func TestWeatherTool_Execute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "3" {
			t.Errorf("expected format=3 query param, got %q", r.URL.Query().Get("format"))
		}
		w.Write([]byte("Tokyo: ☀️ +28°C"))
	}))
	defer server.Close()

	tool := &weatherTool{client: server.Client(), detailed: false, baseURL: server.URL}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"city":"Tokyo"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if result.Content != "Tokyo: ☀️ +28°C" {
		t.Errorf("unexpected content: %q", result.Content)
	}
}

func TestWeatherTool_Execute_UpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	tool := &weatherTool{client: server.Client(), baseURL: server.URL}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"city":"Nowhere"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result on 503")
	}
}
