package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

const weatherBaseURL = "https://wttr.in"

// WeatherService wraps wttr.in's plain-text weather endpoint. No
// credential is required.
type WeatherService struct {
	tools []engine.Tool
}

func NewWeatherService() *WeatherService {
	client := defaultClient(10 * time.Second)
	return &WeatherService{
		tools: []engine.Tool{
			&weatherTool{client: client, detailed: false, baseURL: weatherBaseURL},
			&weatherTool{client: client, detailed: true, baseURL: weatherBaseURL},
		},
	}
}

func (s *WeatherService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "weather",
		DisplayName: "Weather",
		Kind:        registry.KindAPIWrapper,
	}
}

func (s *WeatherService) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, registry.ToolDescriptor{
			Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "weather",
		})
	}
	return out
}

func (s *WeatherService) Instantiate(_ context.Context, _ registry.ServiceBinding) (registry.Instance, error) {
	return &instance{tools: s.tools}, nil
}

type weatherTool struct {
	client   *http.Client
	detailed bool
	baseURL  string
}

func (t *weatherTool) Name() string {
	if t.detailed {
		return "get_detailed_weather"
	}
	return "get_weather"
}

func (t *weatherTool) Description() string {
	if t.detailed {
		return "Get a detailed multi-day weather report for a city."
	}
	return "Get a one-line current weather summary for a city."
}

func (t *weatherTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"city":{"type":"string","description":"City name"}},"required":["city"]}`)
}

func (t *weatherTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		City string `json:"city"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.City == "" {
		return &engine.ToolResult{Content: "Error: city is required", IsError: true}, nil
	}

	query := url.Values{}
	if !t.detailed {
		query.Set("format", "3")
	}
	reqURL := fmt.Sprintf("%s/%s?%s", t.baseURL, url.PathEscape(args.City), query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	res, err := doRequest(ctx, t.client, req)
	if err != nil {
		return networkError(err), nil
	}
	if res.statusCode != http.StatusOK {
		return &engine.ToolResult{Content: taxonomyError(res.statusCode, ""), IsError: true}, nil
	}

	text := string(res.body)
	if text == "" {
		return &engine.ToolResult{Content: fmt.Sprintf("No weather data found for %q", args.City), IsError: true}, nil
	}
	return &engine.ToolResult{Content: text}, nil
}
