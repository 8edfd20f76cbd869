// Package registry implements the Service & Tool Registry: the uniform
// abstraction over built-in, API-wrapper, and remote-catalog tool
// sources, including per-request credential carriage and tool-catalog
// assembly.
package registry

import "encoding/json"

// Kind distinguishes the three tool-source shapes the registry serves.
type Kind string

const (
	KindBuiltIn       Kind = "built_in"
	KindAPIWrapper    Kind = "api_wrapper"
	KindRemoteCatalog Kind = "remote_catalog"
)

// ServiceDescriptor is the process-lifetime metadata for a registered
// Service class.
type ServiceDescriptor struct {
	Class            string          `json:"class"`
	DisplayName      string          `json:"display_name"`
	Kind             Kind            `json:"kind"`
	CredentialSchema json.RawMessage `json:"credential_schema,omitempty"`
}

// ToolDescriptor is the process-lifetime metadata for one tool exposed
// by a Service: name is unique within the service, description is
// required non-empty (model binding depends on it).
type ToolDescriptor struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"input_schema"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
}

// SelectionMode controls which of a bound Service's tools are
// materialized into the request's catalog.
type SelectionMode string

const (
	SelectionAll      SelectionMode = "all"
	SelectionSelected SelectionMode = "selected"
)

// ServiceBinding is a request-scoped instantiation request for one
// Service class: credentials and config are opaque to the registry and
// are never logged or persisted by it.
type ServiceBinding struct {
	Class         string
	SelectionMode SelectionMode
	SelectedTools []string
	Credentials   map[string]any
	Config        map[string]any
}
