package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestCalculateDateTool(t *testing.T) {
	tool := newCalculateDateTool()
	params, _ := json.Marshal(map[string]any{"days": 10, "from_date": "2026-01-01"})

	result, _ := tool.Execute(context.Background(), params)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "2026-01-11") {
		t.Errorf("expected 2026-01-11, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "after") {
		t.Errorf("expected positive days to be described as \"after\", got %q", result.Content)
	}
}

func TestCalculateDateToolRejectsBadFormat(t *testing.T) {
	tool := newCalculateDateTool()
	params, _ := json.Marshal(map[string]any{"days": 1, "from_date": "01/01/2026"})

	result, _ := tool.Execute(context.Background(), params)
	if !result.IsError {
		t.Fatal("expected an error result for a malformed from_date")
	}
}

func TestDaysBetweenTool(t *testing.T) {
	tool := newDaysBetweenTool()
	params, _ := json.Marshal(map[string]string{"date1": "2026-01-01", "date2": "2026-01-11"})

	result, _ := tool.Execute(context.Background(), params)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "10 day(s)") {
		t.Errorf("expected 10 day(s), got %q", result.Content)
	}
}
