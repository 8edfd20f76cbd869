package config

import (
	"fmt"

	"github.com/haasonsaas/agentgateway/internal/registry"
	"github.com/haasonsaas/agentgateway/internal/tools/builtin"
	"github.com/haasonsaas/agentgateway/internal/tools/wrapper"
)

// RegistryConfig controls the process-level service registry built at
// startup from ToolsConfig's family toggles.
type RegistryConfig struct {
	// RemoteCatalogHTTPTimeoutSeconds overrides registry.CatalogFetchTimeout
	// when positive; zero keeps the package default.
	RemoteCatalogHTTPTimeoutSeconds int `yaml:"remote_catalog_http_timeout_seconds"`
}

// BuildRegistry registers every enabled tool family and freezes the
// registry — after this call no further Register calls are accepted,
// matching the teacher's ToolManager.RegisterTools-then-lock lifecycle.
func BuildRegistry(tools ToolsConfig) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	if tools.Builtin {
		if err := reg.Register(builtin.NewService()); err != nil {
			return nil, fmt.Errorf("config: registering builtin tools: %w", err)
		}
	}

	if tools.Wrapper {
		if err := wrapper.RegisterAll(reg); err != nil {
			return nil, fmt.Errorf("config: registering wrapper tools: %w", err)
		}
	}

	if tools.RemoteCatalog {
		if err := reg.Register(registry.NewRemoteCatalogService(nil)); err != nil {
			return nil, fmt.Errorf("config: registering remote catalog service: %w", err)
		}
	}

	reg.Freeze()
	return reg, nil
}
