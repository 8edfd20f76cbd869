package registry

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidateArguments is a one-shot convenience for callers (such as a
// direct /services/{class}/execute request) that invoke a single tool
// outside of an assembled Catalog and so gain nothing from
// ArgumentValidator's compiled-schema cache.
func ValidateArguments(tool engine.Tool, args json.RawMessage) error {
	return NewArgumentValidator().Validate(tool.Name(), tool.Schema(), args)
}

// ArgumentValidator compiles and caches a tool's declared JSON-Schema
// so repeated calls to the same tool don't recompile it every time.
// Compilation failures are cached too (a malformed schema never
// becomes valid on retry), keeping a bad remote-catalog schema from
// burning CPU on every call it's asked to validate against.
type ArgumentValidator struct {
	mu     sync.Mutex
	cached map[string]*compiledSchema
}

type compiledSchema struct {
	schema *jsonschema.Schema
	err    error
}

// NewArgumentValidator returns a ready-to-use, empty validator.
func NewArgumentValidator() *ArgumentValidator {
	return &ArgumentValidator{cached: make(map[string]*compiledSchema)}
}

// Validate checks args against the tool's declared schema, compiling
// and caching the schema under toolName on first use. A tool with an
// empty or "{}" schema is treated as accepting any arguments.
func (v *ArgumentValidator) Validate(toolName string, schema, args json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}

	compiled := v.compile(toolName, schema)
	if compiled.err != nil {
		return fmt.Errorf("tool %q has an invalid schema: %w", toolName, compiled.err)
	}

	var payload any
	if len(args) == 0 {
		payload = map[string]any{}
	} else if err := json.Unmarshal(args, &payload); err != nil {
		return fmt.Errorf("tool %q arguments are not valid JSON: %w", toolName, err)
	}

	if err := compiled.schema.Validate(payload); err != nil {
		return fmt.Errorf("tool %q arguments do not match its schema: %w", toolName, err)
	}
	return nil
}

func (v *ArgumentValidator) compile(toolName string, schema json.RawMessage) *compiledSchema {
	v.mu.Lock()
	defer v.mu.Unlock()

	if c, ok := v.cached[toolName]; ok {
		return c
	}

	var schemaDoc any
	if err := json.Unmarshal(schema, &schemaDoc); err != nil {
		c := &compiledSchema{err: fmt.Errorf("unmarshal schema: %w", err)}
		v.cached[toolName] = c
		return c
	}

	compiler := jsonschema.NewCompiler()
	resource := "tool:" + toolName
	if err := compiler.AddResource(resource, schemaDoc); err != nil {
		c := &compiledSchema{err: err}
		v.cached[toolName] = c
		return c
	}
	s, err := compiler.Compile(resource)
	c := &compiledSchema{schema: s, err: err}
	v.cached[toolName] = c
	return c
}
