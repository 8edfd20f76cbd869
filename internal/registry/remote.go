package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

const (
	// CatalogFetchTimeout bounds the GET /catalog round trip.
	CatalogFetchTimeout = 10 * time.Second
	// RemoteToolCallTimeout bounds a single POST /call_tool round trip.
	RemoteToolCallTimeout = 30 * time.Second
)

// RemoteCatalogService discovers its tools at request time: given a
// server URL (carried in ServiceBinding.Config["url"]) it fetches
// `GET <url>/catalog` and materializes each descriptor as a proxy Tool
// that POSTs `{tool, arguments}` to `<url>/call_tool`.
type RemoteCatalogService struct {
	client *http.Client
}

// NewRemoteCatalogService builds the remote-catalog Service using the
// given HTTP client (or a sane default with no timeout set at the
// client level — per-call context deadlines govern instead).
func NewRemoteCatalogService(client *http.Client) *RemoteCatalogService {
	if client == nil {
		client = &http.Client{}
	}
	return &RemoteCatalogService{client: client}
}

func (s *RemoteCatalogService) Descriptor() ServiceDescriptor {
	return ServiceDescriptor{
		Class:       "remote_catalog",
		DisplayName: "Remote Tool Catalog",
		Kind:        KindRemoteCatalog,
		CredentialSchema: json.RawMessage(`{"type":"object","properties":{"token":{"type":"string"}}}`),
	}
}

// ToolDescriptors is empty at the process level: this service's tools
// only exist once a request supplies a catalog URL, so declarative
// registration would have nothing to list.
func (s *RemoteCatalogService) ToolDescriptors() []ToolDescriptor {
	return nil
}

type remoteCatalogResponse struct {
	Server struct {
		Name        string `json:"name"`
		Version     string `json:"version"`
		Description string `json:"description"`
	} `json:"server"`
	Tools []struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"input_schema"`
		Category    string          `json:"category,omitempty"`
		Tags        []string        `json:"tags,omitempty"`
	} `json:"tools"`
}

// Instantiate fetches the remote catalog and returns an Instance whose
// Tools() are proxies over it. A fetch failure is returned to the
// caller (AssembleCatalog treats it as a skippable, logged failure —
// it does not fail the whole request).
func (s *RemoteCatalogService) Instantiate(ctx context.Context, binding ServiceBinding) (Instance, error) {
	url, _ := binding.Config["url"].(string)
	url = strings.TrimRight(url, "/")
	if url == "" {
		return nil, fmt.Errorf("remote_catalog: binding config missing \"url\"")
	}

	var token string
	if t, ok := binding.Credentials["token"].(string); ok {
		token = t
	}

	fetchCtx, cancel := context.WithTimeout(ctx, CatalogFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, url+"/catalog", nil)
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: build request: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: fetch %s/catalog: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("remote_catalog: %s/catalog returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: read catalog body: %w", err)
	}

	var catalog remoteCatalogResponse
	if err := json.Unmarshal(body, &catalog); err != nil {
		return nil, fmt.Errorf("remote_catalog: decode catalog: %w", err)
	}

	tools := make([]engine.Tool, 0, len(catalog.Tools))
	for _, td := range catalog.Tools {
		tools = append(tools, &remoteProxyTool{
			client:      s.client,
			baseURL:     url,
			token:       token,
			name:        td.Name,
			description: td.Description,
			schema:      NormalizeSchema(td.InputSchema),
		})
	}

	return &remoteCatalogInstance{tools: tools}, nil
}

type remoteCatalogInstance struct {
	tools []engine.Tool
}

func (i *remoteCatalogInstance) Tools() []engine.Tool { return i.tools }

// remoteProxyTool invokes a tool on its origin server by POSTing
// `{tool, arguments}` to `<baseURL>/call_tool`.
type remoteProxyTool struct {
	client      *http.Client
	baseURL     string
	token       string
	name        string
	description string
	schema      json.RawMessage
}

func (t *remoteProxyTool) Name() string            { return t.name }
func (t *remoteProxyTool) Description() string     { return t.description }
func (t *remoteProxyTool) Schema() json.RawMessage { return t.schema }

func (t *remoteProxyTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	callCtx, cancel := context.WithTimeout(ctx, RemoteToolCallTimeout)
	defer cancel()

	var args any
	if len(params) > 0 {
		if err := json.Unmarshal(params, &args); err != nil {
			return &engine.ToolResult{Content: fmt.Sprintf("Error: invalid arguments: %v", err), IsError: true}, nil
		}
	}

	body, err := json.Marshal(map[string]any{"tool": t.name, "arguments": args})
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: marshal call_tool body: %w", err)
	}

	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, t.baseURL+"/call_tool", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: build call_tool request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return &engine.ToolResult{Content: fmt.Sprintf("Error: call_tool request failed: %v", err), IsError: true}, nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("remote_catalog: read call_tool response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return &engine.ToolResult{Content: fmt.Sprintf("Error: call_tool returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), IsError: true}, nil
	}

	var decoded struct {
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(respBody, &decoded); err != nil {
		return &engine.ToolResult{Content: string(respBody)}, nil
	}

	return &engine.ToolResult{Content: string(decoded.Result)}, nil
}
