package registry

import (
	"context"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// Service is a registered capability group: a declarative tool metadata
// list plus a factory that, given per-request config and credentials,
// produces a live Instance whose tools can be invoked.
//
// Every registered class must expose at least one tool (enforced at
// Register); ToolDescriptors is frozen once the Registry leaves its
// initialization phase.
type Service interface {
	Descriptor() ServiceDescriptor
	ToolDescriptors() []ToolDescriptor
	Instantiate(ctx context.Context, binding ServiceBinding) (Instance, error)
}

// Instance is a live, request-scoped Service instantiation: the
// credentials and config it was built with are captured in its tool
// closures and held only for the request's duration.
type Instance interface {
	Tools() []engine.Tool
}
