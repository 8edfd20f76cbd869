// Package builtin implements the pure-function tool family: no network
// I/O, no shared state, each call finishing in well under a millisecond.
// Every tool returns a human-readable string and signals failure only
// through that string's content (prefixed "Error:"), never through a Go
// error — the agent loop folds tool output into the conversation the
// same way whether it succeeded or not, so the distinction has to live
// in the text the model reads.
package builtin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// fn is the shape every built-in tool reduces to: decoded arguments in,
// a result string out. Argument decoding and error-string formatting
// are handled once in Execute so individual tools stay one-liners.
type fn func(args json.RawMessage) (string, error)

// tool adapts a name/description/schema/fn quadruple to engine.Tool.
type tool struct {
	name        string
	description string
	schema      json.RawMessage
	run         fn
}

func newTool(name, description string, schema json.RawMessage, run fn) *tool {
	return &tool{name: name, description: description, schema: schema, run: run}
}

func (t *tool) Name() string            { return t.name }
func (t *tool) Description() string     { return t.description }
func (t *tool) Schema() json.RawMessage { return t.schema }

func (t *tool) Execute(_ context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	out, err := t.run(params)
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	return &engine.ToolResult{Content: out}, nil
}

func decodeArgs(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}
