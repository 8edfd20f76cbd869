package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

type fakeTool struct {
	name   string
	schema json.RawMessage
}

func (t fakeTool) Name() string               { return t.name }
func (t fakeTool) Description() string        { return "a fake tool" }
func (t fakeTool) Schema() json.RawMessage     { return t.schema }
func (t fakeTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	return &engine.ToolResult{Content: string(params)}, nil
}

const locationSchema = `{
	"type": "object",
	"properties": {"location": {"type": "string"}},
	"required": ["location"]
}`

func TestArgumentValidator_Valid(t *testing.T) {
	v := NewArgumentValidator()
	err := v.Validate("get_weather", json.RawMessage(locationSchema), json.RawMessage(`{"location":"Paris"}`))
	if err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestArgumentValidator_MissingRequiredField(t *testing.T) {
	v := NewArgumentValidator()
	err := v.Validate("get_weather", json.RawMessage(locationSchema), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("Validate() error = nil, want a missing-field error")
	}
}

func TestArgumentValidator_WrongType(t *testing.T) {
	v := NewArgumentValidator()
	err := v.Validate("get_weather", json.RawMessage(locationSchema), json.RawMessage(`{"location":42}`))
	if err == nil {
		t.Fatal("Validate() error = nil, want a type-mismatch error")
	}
}

func TestArgumentValidator_EmptySchemaAcceptsAnything(t *testing.T) {
	v := NewArgumentValidator()
	if err := v.Validate("no_args_tool", nil, json.RawMessage(`{"anything":true}`)); err != nil {
		t.Fatalf("Validate() error = %v, want nil for an empty schema", err)
	}
}

func TestArgumentValidator_CachesCompiledSchema(t *testing.T) {
	v := NewArgumentValidator()
	if err := v.Validate("get_weather", json.RawMessage(locationSchema), json.RawMessage(`{"location":"Tokyo"}`)); err != nil {
		t.Fatalf("first Validate() error = %v", err)
	}
	if _, ok := v.cached["get_weather"]; !ok {
		t.Fatal("expected schema to be cached after first Validate() call")
	}
	if err := v.Validate("get_weather", json.RawMessage(locationSchema), json.RawMessage(`{"location":"Berlin"}`)); err != nil {
		t.Fatalf("second Validate() error = %v", err)
	}
}

func TestArgumentValidator_InvalidSchemaIsRejected(t *testing.T) {
	v := NewArgumentValidator()
	err := v.Validate("broken_tool", json.RawMessage(`{"type": "not-a-real-type"}`), json.RawMessage(`{}`))
	if err == nil {
		t.Fatal("Validate() error = nil, want a schema-compile error")
	}
}

func TestValidateArguments(t *testing.T) {
	tool := fakeTool{name: "get_weather", schema: json.RawMessage(locationSchema)}

	if err := ValidateArguments(tool, json.RawMessage(`{"location":"Rome"}`)); err != nil {
		t.Fatalf("ValidateArguments() error = %v, want nil", err)
	}
	if err := ValidateArguments(tool, json.RawMessage(`{}`)); err == nil {
		t.Fatal("ValidateArguments() error = nil, want a missing-field error")
	}
}
