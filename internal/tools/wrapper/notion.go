package wrapper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

const (
	notionBaseURL    = "https://api.notion.com/v1"
	notionAPIVersion = "2022-06-28"
)

// NotionService wraps the Notion API. Requires an Integration Token.
type NotionService struct{}

func NewNotionService() *NotionService {
	return &NotionService{}
}

func (s *NotionService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "notion",
		DisplayName: "Notion",
		Kind:        registry.KindAPIWrapper,
		CredentialSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"api_key": {"type": "string", "description": "Notion Integration Token", "minLength": 1}
			},
			"required": ["api_key"]
		}`),
	}
}

func (s *NotionService) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(notionToolFactories))
	for _, f := range notionToolFactories {
		t := f(nil, "")
		out = append(out, registry.ToolDescriptor{Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "notion"})
	}
	return out
}

func (s *NotionService) Instantiate(_ context.Context, binding registry.ServiceBinding) (registry.Instance, error) {
	apiKey, _ := binding.Credentials["api_key"].(string)
	if apiKey == "" {
		return &instance{tools: []engine.Tool{&missingCredentialTool{name: "notion_unconfigured", cred: "Notion api_key"}}}, nil
	}

	client := defaultClient(15 * time.Second)
	tools := make([]engine.Tool, 0, len(notionToolFactories))
	for _, f := range notionToolFactories {
		tools = append(tools, f(client, apiKey))
	}
	return &instance{tools: tools}, nil
}

type missingCredentialTool struct {
	name string
	cred string
}

func (t *missingCredentialTool) Name() string            { return t.name }
func (t *missingCredentialTool) Description() string     { return fmt.Sprintf("%s is not configured.", t.cred) }
func (t *missingCredentialTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *missingCredentialTool) Execute(context.Context, json.RawMessage) (*engine.ToolResult, error) {
	return missingCredential(t.cred), nil
}

type notionToolFactory func(*http.Client, string) engine.Tool

var notionToolFactories = []notionToolFactory{
	func(c *http.Client, k string) engine.Tool { return &notionSearchPagesTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionGetPageTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionCreatePageTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionAppendBlocksTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionUpdatePageTitleTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionDeletePageTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionQueryDatabaseTool{client: c, apiKey: k} },
	func(c *http.Client, k string) engine.Tool { return &notionCreateDatabaseTool{client: c, apiKey: k} },
}

func notionHeaders(apiKey string) map[string]string {
	return map[string]string{
		"Authorization":  "Bearer " + apiKey,
		"Notion-Version": notionAPIVersion,
		"Content-Type":   "application/json",
	}
}

func notionRequest(ctx context.Context, client *http.Client, apiKey, method, path string, payload any) ([]byte, *engine.ToolResult) {
	var body *bytes.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}
		}
		body = bytes.NewReader(encoded)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, notionBaseURL+path, body)
	if err != nil {
		return nil, &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}
	}
	for k, v := range notionHeaders(apiKey) {
		req.Header.Set(k, v)
	}

	res, err := doRequest(ctx, client, req)
	if err != nil {
		return nil, networkError(err)
	}
	if res.statusCode < 200 || res.statusCode >= 300 {
		return nil, &engine.ToolResult{Content: taxonomyError(res.statusCode, ""), IsError: true}
	}
	return res.body, nil
}

func notionPageID(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), "-", "")
}

func notionPageURL(id string) string {
	return "https://notion.so/" + strings.ReplaceAll(id, "-", "")
}

func notionTitleFromProperties(props map[string]json.RawMessage) string {
	for _, raw := range props {
		var prop struct {
			Type  string `json:"type"`
			Title []struct {
				PlainText string `json:"plain_text"`
			} `json:"title"`
		}
		if err := json.Unmarshal(raw, &prop); err != nil || prop.Type != "title" {
			continue
		}
		var b strings.Builder
		for _, t := range prop.Title {
			b.WriteString(t.PlainText)
		}
		if b.Len() > 0 {
			return b.String()
		}
	}
	return "Untitled"
}

// --- search_pages ---

type notionSearchPagesTool struct {
	client *http.Client
	apiKey string
}

func (t *notionSearchPagesTool) Name() string        { return "search_pages" }
func (t *notionSearchPagesTool) Description() string { return "Search the Notion workspace for pages by title." }
func (t *notionSearchPagesTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"page_size":{"type":"integer","minimum":1,"maximum":100}},"required":[]}`)
}

func (t *notionSearchPagesTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Query    string `json:"query"`
		PageSize int    `json:"page_size"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.PageSize <= 0 || args.PageSize > 100 {
		args.PageSize = 10
	}

	body, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPost, "/search", map[string]any{
		"query":     args.Query,
		"page_size": args.PageSize,
		"filter":    map[string]string{"value": "page", "property": "object"},
	})
	if errResult != nil {
		return errResult, nil
	}

	var resp struct {
		Results []struct {
			ID         string                     `json:"id"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Notion", IsError: true}, nil
	}
	if len(resp.Results) == 0 {
		return &engine.ToolResult{Content: fmt.Sprintf("No pages found for query %q", args.Query)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results (%d):\n\n", len(resp.Results))
	for i, page := range resp.Results {
		fmt.Fprintf(&b, "%d. %s\n   ID: %s\n   URL: %s\n\n", i+1, notionTitleFromProperties(page.Properties), page.ID, notionPageURL(page.ID))
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- get_page_content ---

type notionGetPageTool struct {
	client *http.Client
	apiKey string
}

func (t *notionGetPageTool) Name() string        { return "get_page_content" }
func (t *notionGetPageTool) Description() string { return "Get a Notion page's properties and child blocks." }
func (t *notionGetPageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"page_id":{"type":"string"}},"required":["page_id"]}`)
}

func (t *notionGetPageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		PageID string `json:"page_id"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	id := notionPageID(args.PageID)
	pageBody, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodGet, "/pages/"+id, nil)
	if errResult != nil {
		return errResult, nil
	}

	var page struct {
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(pageBody, &page); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Notion", IsError: true}, nil
	}

	blocksBody, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodGet, "/blocks/"+id+"/children", nil)
	if errResult != nil {
		return errResult, nil
	}

	var blocks struct {
		Results []struct {
			Type string `json:"type"`
		} `json:"results"`
	}
	_ = json.Unmarshal(blocksBody, &blocks)

	return &engine.ToolResult{Content: fmt.Sprintf("Title: %s\nBlocks: %d\nURL: %s",
		notionTitleFromProperties(page.Properties), len(blocks.Results), notionPageURL(id))}, nil
}

// --- create_page ---

type notionCreatePageTool struct {
	client *http.Client
	apiKey string
}

func (t *notionCreatePageTool) Name() string        { return "create_page" }
func (t *notionCreatePageTool) Description() string { return "Create a new Notion page under a parent page." }
func (t *notionCreatePageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"parent_id":{"type":"string"},"title":{"type":"string"},"content":{"type":"string"}},"required":["parent_id","title"]}`)
}

func (t *notionCreatePageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		ParentID string `json:"parent_id"`
		Title    string `json:"title"`
		Content  string `json:"content"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	payload := map[string]any{
		"parent": map[string]string{"page_id": notionPageID(args.ParentID)},
		"properties": map[string]any{
			"title": map[string]any{
				"title": []map[string]any{{"text": map[string]string{"content": args.Title}}},
			},
		},
	}
	if args.Content != "" {
		payload["children"] = []map[string]any{{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]any{
				"rich_text": []map[string]any{{"text": map[string]string{"content": args.Content}}},
			},
		}}
	}

	body, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPost, "/pages", payload)
	if errResult != nil {
		return errResult, nil
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Notion", IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Page created.\nTitle: %s\nID: %s\nURL: %s", args.Title, resp.ID, notionPageURL(resp.ID))}, nil
}

// --- append_blocks ---

type notionAppendBlocksTool struct {
	client *http.Client
	apiKey string
}

func (t *notionAppendBlocksTool) Name() string        { return "append_blocks" }
func (t *notionAppendBlocksTool) Description() string { return "Append a content block to a Notion page." }
func (t *notionAppendBlocksTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"page_id":{"type":"string"},"block_type":{"type":"string","enum":["paragraph","heading_2","bulleted_list_item"]},"content":{"type":"string"}},"required":["page_id","block_type","content"]}`)
}

func (t *notionAppendBlocksTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		PageID    string `json:"page_id"`
		BlockType string `json:"block_type"`
		Content   string `json:"content"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.BlockType == "" {
		args.BlockType = "paragraph"
	}

	payload := map[string]any{
		"children": []map[string]any{{
			"object": "block",
			"type":   args.BlockType,
			args.BlockType: map[string]any{
				"rich_text": []map[string]any{{"text": map[string]string{"content": args.Content}}},
			},
		}},
	}

	id := notionPageID(args.PageID)
	_, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPatch, "/blocks/"+id+"/children", payload)
	if errResult != nil {
		return errResult, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Block appended to page %s", id)}, nil
}

// --- update_page_title ---

type notionUpdatePageTitleTool struct {
	client *http.Client
	apiKey string
}

func (t *notionUpdatePageTitleTool) Name() string        { return "update_page_title" }
func (t *notionUpdatePageTitleTool) Description() string { return "Rename a Notion page." }
func (t *notionUpdatePageTitleTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"page_id":{"type":"string"},"new_title":{"type":"string"}},"required":["page_id","new_title"]}`)
}

func (t *notionUpdatePageTitleTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		PageID   string `json:"page_id"`
		NewTitle string `json:"new_title"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	payload := map[string]any{
		"properties": map[string]any{
			"title": map[string]any{
				"title": []map[string]any{{"text": map[string]string{"content": args.NewTitle}}},
			},
		},
	}

	id := notionPageID(args.PageID)
	_, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPatch, "/pages/"+id, payload)
	if errResult != nil {
		return errResult, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Page %s renamed to %q", id, args.NewTitle)}, nil
}

// --- delete_page ---

type notionDeletePageTool struct {
	client *http.Client
	apiKey string
}

func (t *notionDeletePageTool) Name() string        { return "delete_page" }
func (t *notionDeletePageTool) Description() string { return "Archive (delete) a Notion page." }
func (t *notionDeletePageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"page_id":{"type":"string"}},"required":["page_id"]}`)
}

func (t *notionDeletePageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		PageID string `json:"page_id"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	id := notionPageID(args.PageID)
	_, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPatch, "/pages/"+id, map[string]any{"archived": true})
	if errResult != nil {
		return errResult, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Page %s archived", id)}, nil
}

// --- query_database ---

type notionQueryDatabaseTool struct {
	client *http.Client
	apiKey string
}

func (t *notionQueryDatabaseTool) Name() string        { return "query_database" }
func (t *notionQueryDatabaseTool) Description() string { return "Query entries in a Notion database." }
func (t *notionQueryDatabaseTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"database_id":{"type":"string"}},"required":["database_id"]}`)
}

func (t *notionQueryDatabaseTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		DatabaseID string `json:"database_id"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	id := notionPageID(args.DatabaseID)
	body, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPost, "/databases/"+id+"/query", map[string]any{})
	if errResult != nil {
		return errResult, nil
	}

	var resp struct {
		Results []struct {
			ID         string                     `json:"id"`
			Properties map[string]json.RawMessage `json:"properties"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Notion", IsError: true}, nil
	}
	if len(resp.Results) == 0 {
		return &engine.ToolResult{Content: "Database has no entries"}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Database entries (%d):\n\n", len(resp.Results))
	for i, entry := range resp.Results {
		fmt.Fprintf(&b, "%d. %s (id: %s)\n", i+1, notionTitleFromProperties(entry.Properties), entry.ID)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- create_database ---

type notionCreateDatabaseTool struct {
	client *http.Client
	apiKey string
}

func (t *notionCreateDatabaseTool) Name() string        { return "create_database" }
func (t *notionCreateDatabaseTool) Description() string { return "Create a new Notion database under a parent page." }
func (t *notionCreateDatabaseTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"parent_page_id":{"type":"string"},"title":{"type":"string"}},"required":["parent_page_id","title"]}`)
}

func (t *notionCreateDatabaseTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		ParentPageID string `json:"parent_page_id"`
		Title        string `json:"title"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	payload := map[string]any{
		"parent": map[string]string{"page_id": notionPageID(args.ParentPageID)},
		"title":  []map[string]any{{"text": map[string]string{"content": args.Title}}},
		"properties": map[string]any{
			"Name": map[string]any{"title": map[string]any{}},
		},
	}

	body, errResult := notionRequest(ctx, t.client, t.apiKey, http.MethodPost, "/databases", payload)
	if errResult != nil {
		return errResult, nil
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Notion", IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Database created.\nTitle: %s\nID: %s", args.Title, resp.ID)}, nil
}
