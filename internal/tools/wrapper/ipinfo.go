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

const ipAPIBaseURL = "http://ip-api.com/json"

const ipAPIFields = "status,message,country,countryCode,region,regionName,city,zip,lat,lon,timezone,isp,org,as,query"

// IPInfoService wraps ip-api.com's free geolocation lookup. No
// credential is required.
type IPInfoService struct {
	tools []engine.Tool
}

func NewIPInfoService() *IPInfoService {
	return &IPInfoService{tools: []engine.Tool{&ipInfoTool{client: defaultClient(10 * time.Second), baseURL: ipAPIBaseURL}}}
}

func (s *IPInfoService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{Class: "ip_info", DisplayName: "IP Info", Kind: registry.KindAPIWrapper}
}

func (s *IPInfoService) ToolDescriptors() []registry.ToolDescriptor {
	t := s.tools[0]
	return []registry.ToolDescriptor{{Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "network"}}
}

func (s *IPInfoService) Instantiate(_ context.Context, _ registry.ServiceBinding) (registry.Instance, error) {
	return &instance{tools: s.tools}, nil
}

type ipInfoTool struct {
	client  *http.Client
	baseURL string
}

func (t *ipInfoTool) Name() string        { return "get_ip_info" }
func (t *ipInfoTool) Description() string { return "Look up geolocation and ISP info for an IP address (or the caller's own, if omitted)." }
func (t *ipInfoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"ip_address":{"type":"string","description":"IP address to look up; omit to look up the requesting host"}},"required":[]}`)
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"regionName"`
	City        string  `json:"city"`
	Zip         string  `json:"zip"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	Org         string  `json:"org"`
	AS          string  `json:"as"`
	Query       string  `json:"query"`
}

func (t *ipInfoTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		IPAddress string `json:"ip_address"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	reqURL := t.baseURL
	if args.IPAddress != "" {
		reqURL = fmt.Sprintf("%s/%s", t.baseURL, url.PathEscape(args.IPAddress))
	}
	reqURL += "?" + url.Values{"fields": {ipAPIFields}}.Encode()

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

	var data ipAPIResponse
	if err := json.Unmarshal(res.body, &data); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from ip-api.com", IsError: true}, nil
	}
	if data.Status == "fail" {
		return &engine.ToolResult{Content: "Error: " + data.Message, IsError: true}, nil
	}

	out := fmt.Sprintf(
		"IP: %s\nCountry: %s (%s)\nRegion: %s\nCity: %s\nZip: %s\nCoordinates: %.4f, %.4f\nTimezone: %s\nISP: %s\nOrganization: %s\nAS: %s",
		data.Query, data.Country, data.CountryCode, data.Region, data.City, data.Zip, data.Lat, data.Lon, data.Timezone, data.ISP, data.Org, data.AS,
	)
	return &engine.ToolResult{Content: out}, nil
}
