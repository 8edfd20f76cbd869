package config

import (
	"fmt"
	"os"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/providers"
)

// ProvidersConfig declares which model-vendor adapters the gateway can
// route to. Each vendor's API key is read from an environment
// variable named in the YAML, never from the file itself.
type ProvidersConfig struct {
	Anthropic *AnthropicProviderConfig `yaml:"anthropic"`
	OpenAI    *OpenAIProviderConfig    `yaml:"openai"`
	Google    *GoogleProviderConfig    `yaml:"google"`
	Ollama    *OllamaProviderConfig    `yaml:"ollama"`
}

// AnthropicProviderConfig configures the Anthropic vendor adapter.
type AnthropicProviderConfig struct {
	APIKeyEnv    string `yaml:"api_key_env"`
	DefaultModel string `yaml:"default_model"`
}

// OpenAIProviderConfig configures the OpenAI vendor adapter.
type OpenAIProviderConfig struct {
	APIKeyEnv string `yaml:"api_key_env"`
}

// GoogleProviderConfig configures the Google vendor adapter.
type GoogleProviderConfig struct {
	APIKeyEnv    string `yaml:"api_key_env"`
	DefaultModel string `yaml:"default_model"`
}

// OllamaProviderConfig configures the local/self-hosted text-protocol
// fallback vendor. It has no credential since Ollama serves
// unauthenticated by default.
type OllamaProviderConfig struct {
	BaseURL      string        `yaml:"base_url"`
	DefaultModel string        `yaml:"default_model"`
	Timeout      time.Duration `yaml:"timeout"`
}

// HasAny reports whether at least one provider is configured with a
// usable credential (or, for Ollama, is declared at all).
func (c ProvidersConfig) HasAny() bool {
	if c.Anthropic != nil && os.Getenv(c.Anthropic.APIKeyEnv) != "" {
		return true
	}
	if c.OpenAI != nil && os.Getenv(c.OpenAI.APIKeyEnv) != "" {
		return true
	}
	if c.Google != nil && os.Getenv(c.Google.APIKeyEnv) != "" {
		return true
	}
	if c.Ollama != nil {
		return true
	}
	return false
}

// BuildProviders instantiates an engine.LLMProvider for every
// configured, credentialed vendor and returns them keyed by the name
// the /chat request body's agent_config.provider field uses
// ("anthropic", "openai", "google", "ollama"). A vendor declared in
// YAML but missing its API key env var is skipped rather than erroring
// the whole gateway — it simply won't be selectable, and a request
// naming it fails validation with INVALID_PROVIDER.
func BuildProviders(c ProvidersConfig) (map[string]engine.LLMProvider, error) {
	out := make(map[string]engine.LLMProvider, 4)

	if c.Anthropic != nil {
		if key := os.Getenv(c.Anthropic.APIKeyEnv); key != "" {
			p, err := providers.NewAnthropicProvider(providers.AnthropicConfig{
				APIKey:       key,
				DefaultModel: c.Anthropic.DefaultModel,
			})
			if err != nil {
				return nil, fmt.Errorf("config: building anthropic provider: %w", err)
			}
			out["anthropic"] = p
		}
	}

	if c.OpenAI != nil {
		if key := os.Getenv(c.OpenAI.APIKeyEnv); key != "" {
			out["openai"] = providers.NewOpenAIProvider(key)
		}
	}

	if c.Google != nil {
		if key := os.Getenv(c.Google.APIKeyEnv); key != "" {
			p, err := providers.NewGoogleProvider(providers.GoogleConfig{
				APIKey:       key,
				DefaultModel: c.Google.DefaultModel,
			})
			if err != nil {
				return nil, fmt.Errorf("config: building google provider: %w", err)
			}
			out["google"] = p
		}
	}

	if c.Ollama != nil {
		out["ollama"] = providers.NewOllamaProvider(providers.OllamaConfig{
			BaseURL:      c.Ollama.BaseURL,
			DefaultModel: c.Ollama.DefaultModel,
			Timeout:      c.Ollama.Timeout,
		})
	}

	return out, nil
}
