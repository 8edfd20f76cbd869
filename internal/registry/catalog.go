package registry

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// Catalog is the ordered, de-duplicated set of Tools materialized from
// a request's ServiceBindings, each carrying a bound invocation closure
// over its originating Service instance and credentials.
type Catalog struct {
	tools     []engine.Tool
	byName    map[string]engine.Tool
	validator *ArgumentValidator
}

// AssembleCatalog instantiates every bound Service and collects its
// tools. A binding whose Instantiate call fails (e.g. an unreachable
// remote-catalog server) does not fail the whole request: per §4.4, the
// engine proceeds with the remaining servers' tools after logging a
// warning. Every collected tool is wrapped so its arguments are
// validated against its own declared schema before Execute runs — this
// matters most for remote-catalog tools (§4.4), whose schemas arrive
// over the wire from a server the gateway does not control.
func AssembleCatalog(ctx context.Context, reg *Registry, bindings []ServiceBinding, logger *slog.Logger) *Catalog {
	cat := &Catalog{byName: make(map[string]engine.Tool), validator: NewArgumentValidator()}

	for _, binding := range bindings {
		svc, ok := reg.Get(binding.Class)
		if !ok {
			if logger != nil {
				logger.Warn("service binding references unknown class", "class", binding.Class)
			}
			continue
		}

		instance, err := svc.Instantiate(ctx, binding)
		if err != nil {
			if logger != nil {
				logger.Warn("service instantiation failed, skipping its tools", "class", binding.Class, "error", err)
			}
			continue
		}

		allowed := selectedToolSet(binding)
		for _, tool := range instance.Tools() {
			if allowed != nil {
				if _, ok := allowed[tool.Name()]; !ok {
					continue
				}
			}
			cat.insert(&validatingTool{Tool: tool, validator: cat.validator})
		}
	}

	return cat
}

func selectedToolSet(binding ServiceBinding) map[string]struct{} {
	if binding.SelectionMode != SelectionSelected {
		return nil
	}
	set := make(map[string]struct{}, len(binding.SelectedTools))
	for _, name := range binding.SelectedTools {
		set[name] = struct{}{}
	}
	return set
}

// insert adds an already-wrapped tool to the catalog, de-duplicating by
// name. Used both by assembly (which wraps each tool fresh) and by
// Filter (which reuses the already-wrapped tools of its source catalog).
func (c *Catalog) insert(tool engine.Tool) {
	if _, dup := c.byName[tool.Name()]; dup {
		return
	}
	c.byName[tool.Name()] = tool
	c.tools = append(c.tools, tool)
}

// validatingTool wraps a Tool so Execute rejects arguments that don't
// match the tool's own declared schema before the underlying Tool ever
// sees them.
type validatingTool struct {
	engine.Tool
	validator *ArgumentValidator
}

func (t *validatingTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	if err := t.validator.Validate(t.Name(), t.Schema(), params); err != nil {
		return &engine.ToolResult{Content: err.Error(), IsError: true}, nil
	}
	return t.Tool.Execute(ctx, params)
}

// Filter applies the allowed-tool filter: nil means pass-through
// (keep everything), a non-nil empty slice means pass-nothing, else
// keep only tools whose name appears in the list.
func (c *Catalog) Filter(allowed *[]string) *Catalog {
	if allowed == nil {
		return c
	}
	filtered := &Catalog{byName: make(map[string]engine.Tool), validator: c.validator}
	if len(*allowed) == 0 {
		return filtered
	}
	keep := make(map[string]struct{}, len(*allowed))
	for _, name := range *allowed {
		keep[name] = struct{}{}
	}
	for _, tool := range c.tools {
		if _, ok := keep[tool.Name()]; ok {
			filtered.insert(tool)
		}
	}
	return filtered
}

// Tools returns the catalog's tools in assembly order.
func (c *Catalog) Tools() []engine.Tool {
	return c.tools
}

// Len reports the catalog size.
func (c *Catalog) Len() int {
	return len(c.tools)
}

// Get looks up a tool by name.
func (c *Catalog) Get(name string) (engine.Tool, bool) {
	t, ok := c.byName[name]
	return t, ok
}
