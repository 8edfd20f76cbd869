package registry

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// fakeService implements Service for catalog assembly tests, returning
// tools that require a "location" argument so validation behavior is
// exercised end to end.
type fakeService struct {
	class string
	tools []fakeTool
}

func (s fakeService) Descriptor() ServiceDescriptor {
	return ServiceDescriptor{Class: s.class, DisplayName: s.class, Kind: KindBuiltIn}
}

func (s fakeService) ToolDescriptors() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, ToolDescriptor{Name: t.name, Description: "fake", Schema: t.schema})
	}
	return out
}

func (s fakeService) Instantiate(ctx context.Context, binding ServiceBinding) (Instance, error) {
	return fakeServiceInstance{tools: s.tools}, nil
}

type fakeServiceInstance struct {
	tools []fakeTool
}

func (i fakeServiceInstance) Tools() []engine.Tool {
	out := make([]engine.Tool, 0, len(i.tools))
	for _, t := range i.tools {
		out = append(out, t)
	}
	return out
}

func newRegistryWithFakeService(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	svc := fakeService{
		class: "weather",
		tools: []fakeTool{{name: "get_weather", schema: json.RawMessage(locationSchema)}},
	}
	if err := reg.Register(svc); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	reg.Freeze()
	return reg
}

func TestAssembleCatalog_ValidatesArgumentsBeforeExecute(t *testing.T) {
	reg := newRegistryWithFakeService(t)
	bindings := []ServiceBinding{{Class: "weather", SelectionMode: SelectionAll}}

	cat := AssembleCatalog(context.Background(), reg, bindings, nil)
	tool, ok := cat.Get("get_weather")
	if !ok {
		t.Fatal("expected get_weather to be in the assembled catalog")
	}

	result, err := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("Execute() error = %v, want a validation failure result instead", err)
	}
	if !result.IsError {
		t.Fatal("expected Execute() with missing required field to return an error result")
	}

	result, err = tool.Execute(context.Background(), json.RawMessage(`{"location":"Oslo"}`))
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.IsError {
		t.Fatalf("expected Execute() with valid arguments to succeed, got error: %s", result.Content)
	}
}

func TestCatalog_Filter_PreservesValidator(t *testing.T) {
	reg := newRegistryWithFakeService(t)
	bindings := []ServiceBinding{{Class: "weather", SelectionMode: SelectionAll}}

	cat := AssembleCatalog(context.Background(), reg, bindings, nil)
	allowed := []string{"get_weather"}
	filtered := cat.Filter(&allowed)

	tool, ok := filtered.Get("get_weather")
	if !ok {
		t.Fatal("expected get_weather to survive the filter")
	}
	result, _ := tool.Execute(context.Background(), json.RawMessage(`{}`))
	if !result.IsError {
		t.Fatal("expected filtered catalog's tool to still validate arguments")
	}
}

func TestCatalog_Filter_EmptyAllowedBlocksEverything(t *testing.T) {
	reg := newRegistryWithFakeService(t)
	bindings := []ServiceBinding{{Class: "weather", SelectionMode: SelectionAll}}

	cat := AssembleCatalog(context.Background(), reg, bindings, nil)
	empty := []string{}
	filtered := cat.Filter(&empty)

	if filtered.Len() != 0 {
		t.Fatalf("Len() = %d, want 0 for an empty allow-list", filtered.Len())
	}
}
