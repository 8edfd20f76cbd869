package builtin

import (
	"context"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

// categoryOf maps a tool name to the declarative category surfaced in
// its ToolDescriptor.
var categoryOf = map[string]string{
	"calculate":            "calculation",
	"calculate_statistics": "calculation",
	"percentage":           "calculation",
	"get_current_time":     "datetime",
	"calculate_date":       "datetime",
	"days_between":         "datetime",
	"count_characters":     "text",
	"text_case":            "text",
	"search_text":          "text",
	"replace_text":         "text",
	"format_json":          "data",
	"base64_encode":        "data",
	"base64_decode":        "data",
	"url_encode":           "data",
	"url_decode":           "data",
	"generate_uuid":        "utility",
	"hash_text":            "utility",
	"convert_temperature":  "utility",
	"convert_length":       "utility",
}

// Service exposes the built-in pure-function tool family as a single
// registry.Service. Every tool is available regardless of credentials
// or config, so Instantiate ignores its binding entirely.
type Service struct {
	tools []engine.Tool
}

// NewService builds the built-in tool family.
func NewService() *Service {
	return &Service{
		tools: []engine.Tool{
			newCalculateTool(),
			newStatisticsTool(),
			newPercentageTool(),
			newCurrentTimeTool(),
			newCalculateDateTool(),
			newDaysBetweenTool(),
			newCountCharactersTool(),
			newTextCaseTool(),
			newSearchTextTool(),
			newReplaceTextTool(),
			newFormatJSONTool(),
			newBase64EncodeTool(),
			newBase64DecodeTool(),
			newURLEncodeTool(),
			newURLDecodeTool(),
			newGenerateUUIDTool(),
			newHashTextTool(),
			newConvertTemperatureTool(),
			newConvertLengthTool(),
		},
	}
}

func (s *Service) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "builtin",
		DisplayName: "Built-in Tools",
		Kind:        registry.KindBuiltIn,
	}
}

func (s *Service) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, registry.ToolDescriptor{
			Name:        t.Name(),
			Description: t.Description(),
			Schema:      t.Schema(),
			Category:    categoryOf[t.Name()],
		})
	}
	return out
}

func (s *Service) Instantiate(_ context.Context, _ registry.ServiceBinding) (registry.Instance, error) {
	return &instance{tools: s.tools}, nil
}

type instance struct {
	tools []engine.Tool
}

func (i *instance) Tools() []engine.Tool { return i.tools }
