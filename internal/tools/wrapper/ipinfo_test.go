package wrapper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestIPInfoService_ToolDescriptors(t *testing.T) {
	svc := NewIPInfoService()
	tools := svc.ToolDescriptors()
	if len(tools) != 1 || tools[0].Name != "get_ip_info" {
		t.Fatalf("unexpected tool descriptors: %+v", tools)
	}
}

func TestIPInfoTool_Execute_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "8.8.8.8") {
			t.Errorf("expected path to contain queried IP, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success", "country": "United States", "countryCode": "US",
			"regionName": "California", "city": "Mountain View", "zip": "94043",
			"lat": 37.386, "lon": -122.084, "timezone": "America/Los_Angeles",
			"isp": "Google LLC", "org": "Google LLC", "as": "AS15169 Google LLC", "query": "8.8.8.8",
		})
	}))
	defer server.Close()

	tool := &ipInfoTool{client: server.Client(), baseURL: server.URL}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"ip_address":"8.8.8.8"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if !strings.Contains(result.Content, "Mountain View") {
		t.Errorf("expected city in output, got %q", result.Content)
	}
}

func TestIPInfoTool_Execute_APIFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "fail", "message": "invalid query"})
	}))
	defer server.Close()

	tool := &ipInfoTool{client: server.Client(), baseURL: server.URL}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{"ip_address":"not-an-ip"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Error("expected error result on API-level failure")
	}
}

func TestIPInfoTool_Execute_NoAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Count(r.URL.Path, "/") > 1 {
			t.Errorf("expected no IP path segment, got %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{"status": "success", "query": "203.0.113.1"})
	}))
	defer server.Close()

	tool := &ipInfoTool{client: server.Client(), baseURL: server.URL}
	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
}
