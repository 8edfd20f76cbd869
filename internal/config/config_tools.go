package config

// ToolsConfig toggles which declarative tool families are registered
// at startup. Per-request service bindings (credentials, selected
// tools, remote catalog URLs) travel in the AgentRequest body itself
// (§6) — this section only controls which families exist to be bound.
type ToolsConfig struct {
	Builtin       bool `yaml:"builtin"`
	Wrapper       bool `yaml:"wrapper"`
	RemoteCatalog bool `yaml:"remote_catalog"`
}

// DefaultToolsConfig enables every family; an operator narrows this
// down explicitly rather than opting in.
func DefaultToolsConfig() ToolsConfig {
	return ToolsConfig{Builtin: true, Wrapper: true, RemoteCatalog: true}
}
