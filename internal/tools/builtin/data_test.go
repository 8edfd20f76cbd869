package builtin

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestFormatJSONTool(t *testing.T) {
	tool := newFormatJSONTool()
	params, _ := json.Marshal(map[string]string{"json_string": `{"a":1,"b":[1,2]}`})

	result, _ := tool.Execute(context.Background(), params)
	if result.IsError {
		t.Fatalf("unexpected error: %s", result.Content)
	}
	if !strings.Contains(result.Content, "\n  \"a\": 1") {
		t.Errorf("expected indented output, got %q", result.Content)
	}

	bad, _ := json.Marshal(map[string]string{"json_string": "{not json"})
	result, _ = tool.Execute(context.Background(), bad)
	if !result.IsError {
		t.Fatal("expected an error result for malformed JSON")
	}
}

func TestBase64RoundTrip(t *testing.T) {
	enc := newBase64EncodeTool()
	dec := newBase64DecodeTool()

	params, _ := json.Marshal(map[string]string{"text": "hello, world"})
	encoded, _ := enc.Execute(context.Background(), params)
	if encoded.IsError {
		t.Fatalf("unexpected error: %s", encoded.Content)
	}

	decodeParams, _ := json.Marshal(map[string]string{"encoded_text": encoded.Content})
	decoded, _ := dec.Execute(context.Background(), decodeParams)
	if decoded.IsError || decoded.Content != "hello, world" {
		t.Errorf("expected round-trip to recover original text, got %q (error=%v)", decoded.Content, decoded.IsError)
	}
}

func TestBase64DecodeInvalid(t *testing.T) {
	dec := newBase64DecodeTool()
	params, _ := json.Marshal(map[string]string{"encoded_text": "not-base64!!"})
	result, _ := dec.Execute(context.Background(), params)
	if !result.IsError {
		t.Fatal("expected an error result for invalid Base64")
	}
}

func TestURLEncodeDecodeRoundTrip(t *testing.T) {
	enc := newURLEncodeTool()
	dec := newURLDecodeTool()

	params, _ := json.Marshal(map[string]string{"text": "a b&c"})
	encoded, _ := enc.Execute(context.Background(), params)

	decodeParams, _ := json.Marshal(map[string]string{"encoded_text": encoded.Content})
	decoded, _ := dec.Execute(context.Background(), decodeParams)
	if decoded.Content != "a b&c" {
		t.Errorf("expected round-trip to recover original text, got %q", decoded.Content)
	}
}
