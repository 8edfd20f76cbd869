package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestCalculateTool(t *testing.T) {
	tool := newCalculateTool()

	cases := []struct {
		expression string
		wantErr    bool
		wantSubstr string
	}{
		{"2 + 3 * 4", false, "= 14"},
		{"(2 + 3) * 4", false, "= 20"},
		{"10 / 0", true, "division by zero"},
		{"2 + ; DROP TABLE", true, "disallowed character"},
		{"(1 + 2", true, "closing parenthesis"},
	}

	for _, tc := range cases {
		params, _ := json.Marshal(map[string]string{"expression": tc.expression})
		result, err := tool.Execute(context.Background(), params)
		if err != nil {
			t.Fatalf("Execute returned an error (should only return via result): %v", err)
		}
		if tc.wantErr && !result.IsError {
			t.Errorf("expression %q: expected an error result, got %q", tc.expression, result.Content)
		}
		if !tc.wantErr && result.IsError {
			t.Errorf("expression %q: unexpected error result: %q", tc.expression, result.Content)
		}
		if !strings.Contains(result.Content, tc.wantSubstr) {
			t.Errorf("expression %q: expected content to contain %q, got %q", tc.expression, tc.wantSubstr, result.Content)
		}
	}
}

func TestStatisticsTool(t *testing.T) {
	tool := newStatisticsTool()
	params, _ := json.Marshal(map[string]string{"numbers": "1,2,3,4,5"})

	result, err := tool.Execute(context.Background(), params)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatalf("unexpected error result: %s", result.Content)
	}
	if !strings.Contains(result.Content, "mean: 3") {
		t.Errorf("expected mean of 3, got %q", result.Content)
	}
	if !strings.Contains(result.Content, "stddev:") {
		t.Errorf("expected stddev to be included for n>=2, got %q", result.Content)
	}
}

func TestStatisticsToolRejectsNonNumeric(t *testing.T) {
	tool := newStatisticsTool()
	params, _ := json.Marshal(map[string]string{"numbers": "1,abc,3"})

	result, _ := tool.Execute(context.Background(), params)
	if !result.IsError {
		t.Fatal("expected an error result for non-numeric input")
	}
	if !strings.HasPrefix(result.Content, "Error:") {
		t.Errorf("expected error content prefixed with \"Error:\", got %q", result.Content)
	}
}

func TestPercentageTool(t *testing.T) {
	tool := newPercentageTool()

	params, _ := json.Marshal(map[string]float64{"value": 25, "total": 200})
	result, _ := tool.Execute(context.Background(), params)
	if result.IsError || !strings.Contains(result.Content, "12.50%") {
		t.Errorf("expected 12.50%%, got %q (error=%v)", result.Content, result.IsError)
	}

	zeroTotal, _ := json.Marshal(map[string]float64{"value": 1, "total": 0})
	result, _ = tool.Execute(context.Background(), zeroTotal)
	if !result.IsError {
		t.Fatal("expected an error result when total is zero")
	}
}
