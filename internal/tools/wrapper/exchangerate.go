package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

const exchangeRateBaseURL = "https://api.exchangerate-api.com/v4/latest"

var majorCurrencies = []string{"USD", "EUR", "JPY", "GBP", "AUD", "CAD", "CHF", "CNY"}

// ExchangeRateService wraps exchangerate-api.com's free latest-rates
// endpoint. No credential is required.
type ExchangeRateService struct {
	tools []engine.Tool
}

func NewExchangeRateService() *ExchangeRateService {
	client := defaultClient(10 * time.Second)
	return &ExchangeRateService{
		tools: []engine.Tool{
			&exchangeRatesTool{client: client, baseURL: exchangeRateBaseURL},
			&convertCurrencyTool{client: client, baseURL: exchangeRateBaseURL},
		},
	}
}

func (s *ExchangeRateService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{Class: "exchange_rate", DisplayName: "Exchange Rates", Kind: registry.KindAPIWrapper}
}

func (s *ExchangeRateService) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, registry.ToolDescriptor{Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "finance"})
	}
	return out
}

func (s *ExchangeRateService) Instantiate(_ context.Context, _ registry.ServiceBinding) (registry.Instance, error) {
	return &instance{tools: s.tools}, nil
}

type exchangeRateResponse struct {
	Base  string             `json:"base"`
	Date  string             `json:"date"`
	Rates map[string]float64 `json:"rates"`
}

func fetchRates(ctx context.Context, client *http.Client, baseURL, base string) (*exchangeRateResponse, *engine.ToolResult) {
	reqURL := fmt.Sprintf("%s/%s", baseURL, strings.ToUpper(base))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}
	}

	res, err := doRequest(ctx, client, req)
	if err != nil {
		return nil, networkError(err)
	}
	if res.statusCode != http.StatusOK {
		return nil, &engine.ToolResult{Content: taxonomyError(res.statusCode, ""), IsError: true}
	}

	var data exchangeRateResponse
	if err := json.Unmarshal(res.body, &data); err != nil {
		return nil, &engine.ToolResult{Content: "Error: malformed response from exchangerate-api.com", IsError: true}
	}
	return &data, nil
}

type exchangeRatesTool struct {
	client  *http.Client
	baseURL string
}

func (t *exchangeRatesTool) Name() string        { return "get_exchange_rates" }
func (t *exchangeRatesTool) Description() string { return "Get current exchange rates for major currencies against a base currency." }
func (t *exchangeRatesTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"base_currency":{"type":"string","description":"Three-letter base currency code (default USD)"}},"required":[]}`)
}

func (t *exchangeRatesTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		BaseCurrency string `json:"base_currency"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.BaseCurrency == "" {
		args.BaseCurrency = "USD"
	}

	data, errResult := fetchRates(ctx, t.client, t.baseURL, args.BaseCurrency)
	if errResult != nil {
		return errResult, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Exchange rates for %s (as of %s):\n\n", data.Base, data.Date)
	for _, code := range majorCurrencies {
		if code == data.Base {
			continue
		}
		if rate, ok := data.Rates[code]; ok {
			fmt.Fprintf(&b, "%s: %.4f\n", code, rate)
		}
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

type convertCurrencyTool struct {
	client  *http.Client
	baseURL string
}

func (t *convertCurrencyTool) Name() string        { return "convert_currency" }
func (t *convertCurrencyTool) Description() string { return "Convert an amount from one currency to another using current exchange rates." }
func (t *convertCurrencyTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"amount":{"type":"number"},"from_currency":{"type":"string"},"to_currency":{"type":"string"}},"required":["amount","from_currency","to_currency"]}`)
}

func (t *convertCurrencyTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Amount       float64 `json:"amount"`
		FromCurrency string  `json:"from_currency"`
		ToCurrency   string  `json:"to_currency"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	from := strings.ToUpper(args.FromCurrency)
	to := strings.ToUpper(args.ToCurrency)

	data, errResult := fetchRates(ctx, t.client, t.baseURL, from)
	if errResult != nil {
		return errResult, nil
	}

	rate, ok := data.Rates[to]
	if !ok {
		return &engine.ToolResult{Content: fmt.Sprintf("Error: unknown target currency %q", to), IsError: true}, nil
	}

	converted := args.Amount * rate
	return &engine.ToolResult{Content: fmt.Sprintf("%.2f %s = %.2f %s (rate: %.6f)", args.Amount, from, converted, to, rate)}, nil
}
