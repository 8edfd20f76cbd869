package wrapper

import (
	"container/list"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
)

// SearchBackend identifies which vendor serves a query.
type SearchBackend string

const (
	BackendSearXNG     SearchBackend = "searxng"
	BackendDuckDuckGo  SearchBackend = "duckduckgo"
	BackendBraveSearch SearchBackend = "brave"
)

// SearchType is the kind of result set requested.
type SearchType string

const (
	SearchTypeWeb   SearchType = "web"
	SearchTypeImage SearchType = "image"
	SearchTypeNews  SearchType = "news"
)

// maxCacheSize bounds the number of distinct queries the response cache
// holds before it starts evicting the least recently used entry.
const maxCacheSize = 1000

// Config holds web_search's backend credentials and default behavior.
type Config struct {
	SearXNGURL         string        `json:"searxng_url,omitempty"`
	BraveAPIKey        string        `json:"brave_api_key,omitempty"`
	DefaultBackend     SearchBackend `json:"default_backend"`
	ExtractContent     bool          `json:"extract_content"`
	DefaultResultCount int           `json:"default_result_count"`
	CacheTTL           int           `json:"cache_ttl"`
}

// SearchParams is one search request.
type SearchParams struct {
	Query          string        `json:"query"`
	Type           SearchType    `json:"type,omitempty"`
	ResultCount    int           `json:"result_count,omitempty"`
	ExtractContent bool          `json:"extract_content,omitempty"`
	Backend        SearchBackend `json:"backend,omitempty"`
}

// cacheKey identifies a SearchParams value for the response cache.
func (p SearchParams) cacheKey() string {
	return fmt.Sprintf("%s:%s:%d:%v:%s", p.Backend, p.Type, p.ResultCount, p.ExtractContent, p.Query)
}

// SearchResult is one hit in a SearchResponse.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Snippet     string `json:"snippet"`
	Content     string `json:"content,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

// SearchResponse is the full result of one query.
type SearchResponse struct {
	Query       string         `json:"query"`
	Type        SearchType     `json:"type"`
	Results     []SearchResult `json:"results"`
	ResultCount int            `json:"result_count"`
	Backend     SearchBackend  `json:"backend"`
}

// searchBackend is the strategy every vendor implements, letting Execute
// dispatch on SearchParams.Backend without a type switch baked into the
// tool itself.
type searchBackend interface {
	search(ctx context.Context, params *SearchParams) (*SearchResponse, error)
}

// WebSearchTool implements engine.Tool for web_search: it resolves a
// query against a configured backend, falling back to DuckDuckGo (which
// needs no credential) when the primary backend errors, and caches
// responses for a configurable TTL.
type WebSearchTool struct {
	config    *Config
	backends  map[SearchBackend]searchBackend
	cache     *searchCache
	extractor *ContentExtractor
}

// NewWebSearchTool creates a web_search tool, applying Config defaults
// and wiring one backend implementation per known SearchBackend value.
func NewWebSearchTool(config *Config) *WebSearchTool {
	if config.DefaultResultCount == 0 {
		config.DefaultResultCount = 5
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 300
	}
	if config.DefaultBackend == "" {
		if config.SearXNGURL != "" {
			config.DefaultBackend = BackendSearXNG
		} else {
			config.DefaultBackend = BackendDuckDuckGo
		}
	}

	client := &http.Client{Timeout: 30 * time.Second}
	return &WebSearchTool{
		config: config,
		backends: map[SearchBackend]searchBackend{
			BackendSearXNG:     &searxngBackend{baseURL: config.SearXNGURL, client: client},
			BackendDuckDuckGo:  &duckDuckGoBackend{client: client},
			BackendBraveSearch: &braveBackend{apiKey: config.BraveAPIKey, client: client},
		},
		cache:     newSearchCache(maxCacheSize, time.Duration(config.CacheTTL)*time.Second),
		extractor: NewContentExtractor(),
	}
}

func (t *WebSearchTool) Name() string { return "web_search" }

func (t *WebSearchTool) Description() string {
	return "Search the web for information. Supports web search, image search, and news search. Can optionally extract full content from result URLs."
}

func (t *WebSearchTool) Schema() json.RawMessage {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "The search query"},
			"type": map[string]any{
				"type": "string", "enum": []string{"web", "image", "news"},
				"description": "Type of search to perform (default: web)",
			},
			"result_count": map[string]any{
				"type": "integer", "minimum": 1, "maximum": 20,
				"description": "Number of results to return (default: 5, max: 20)",
			},
			"extract_content": map[string]any{
				"type": "boolean", "description": "Whether to extract full content from result URLs (default: false)",
			},
			"backend": map[string]any{
				"type": "string", "enum": []string{"searxng", "duckduckgo", "brave"},
				"description": "Search backend to use (default: configured default)",
			},
		},
		"required": []string{"query"},
	}
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return schemaBytes
}

// resolveParams applies Config defaults to a parsed SearchParams.
func (t *WebSearchTool) resolveParams(p SearchParams) SearchParams {
	if p.Type == "" {
		p.Type = SearchTypeWeb
	}
	switch {
	case p.ResultCount == 0:
		p.ResultCount = t.config.DefaultResultCount
	case p.ResultCount > 20:
		p.ResultCount = 20
	}
	if p.Backend == "" {
		p.Backend = t.config.DefaultBackend
	}
	if !p.ExtractContent {
		p.ExtractContent = t.config.ExtractContent
	}
	return p
}

// Execute resolves the request's backend, consults the cache, and
// falls back to DuckDuckGo if the primary backend errors.
func (t *WebSearchTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var searchParams SearchParams
	if err := json.Unmarshal(params, &searchParams); err != nil {
		return errorResult("invalid parameters: %v", err), nil
	}
	if searchParams.Query == "" {
		return errorResult("query parameter is required"), nil
	}
	searchParams = t.resolveParams(searchParams)

	key := searchParams.cacheKey()
	if cached, ok := t.cache.get(key); ok {
		return formatSearchResponse(cached), nil
	}

	response, err := t.runSearch(ctx, &searchParams)
	if err != nil {
		return errorResult("search failed: %v", err), nil
	}

	if searchParams.ExtractContent && searchParams.Type == SearchTypeWeb {
		t.extractContentForResults(ctx, response)
	}

	t.cache.put(key, response)
	return formatSearchResponse(response), nil
}

// runSearch dispatches to the requested backend, retrying against
// DuckDuckGo once if the primary backend fails and wasn't already
// DuckDuckGo itself.
func (t *WebSearchTool) runSearch(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	backend, ok := t.backends[params.Backend]
	if !ok {
		return nil, fmt.Errorf("unknown backend: %s", params.Backend)
	}

	response, err := backend.search(ctx, params)
	if err == nil {
		return response, nil
	}
	if params.Backend == BackendDuckDuckGo {
		return nil, err
	}

	fallback, ferr := t.backends[BackendDuckDuckGo].search(ctx, params)
	if ferr != nil {
		return nil, err
	}
	fallback.Backend = BackendDuckDuckGo
	return fallback, nil
}

func (t *WebSearchTool) extractContentForResults(ctx context.Context, response *SearchResponse) {
	var wg sync.WaitGroup
	for i := range response.Results {
		wg.Add(1)
		go func(result *SearchResult) {
			defer wg.Done()
			if content, err := t.extractor.Extract(ctx, result.URL); err == nil && content != "" {
				result.Content = content
			}
		}(&response.Results[i])
	}
	wg.Wait()
}

func errorResult(format string, args ...any) *engine.ToolResult {
	return &engine.ToolResult{Content: fmt.Sprintf(format, args...), IsError: true}
}

func formatSearchResponse(response *SearchResponse) *engine.ToolResult {
	output, err := json.MarshalIndent(response, "", "  ")
	if err != nil {
		return errorResult("failed to format response: %v", err)
	}
	return &engine.ToolResult{Content: string(output)}
}

// searchCache is a size-bounded, TTL-expiring LRU cache of search
// responses, backed by container/list so both "touch on hit" and
// "evict oldest" are O(1) instead of the linear scan a plain map would
// need to find the least-recently-used key.
type searchCache struct {
	mu       sync.Mutex
	order    *list.List
	entries  map[string]*list.Element
	capacity int
	ttl      time.Duration
}

type searchCacheEntry struct {
	key       string
	response  *SearchResponse
	expiresAt time.Time
}

func newSearchCache(capacity int, ttl time.Duration) *searchCache {
	return &searchCache{
		order:    list.New(),
		entries:  make(map[string]*list.Element),
		capacity: capacity,
		ttl:      ttl,
	}
}

func (c *searchCache) get(key string) (*SearchResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	entry := el.Value.(*searchCacheEntry)
	if time.Now().After(entry.expiresAt) {
		c.order.Remove(el)
		delete(c.entries, key)
		return nil, false
	}
	c.order.MoveToFront(el)
	return entry.response, true
}

func (c *searchCache) put(key string, response *SearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}

	entry := &searchCacheEntry{key: key, response: response, expiresAt: time.Now().Add(c.ttl)}
	el := c.order.PushFront(entry)
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*searchCacheEntry).key)
	}
}

// searxngBackend queries a self-hosted SearXNG instance's JSON API.
type searxngBackend struct {
	baseURL string
	client  *http.Client
}

func (b *searxngBackend) search(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	if b.baseURL == "" {
		return nil, fmt.Errorf("searxng URL not configured")
	}
	searchURL, err := url.Parse(b.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid searxng URL: %w", err)
	}

	query := url.Values{"q": {params.Query}, "format": {"json"}, "pageno": {"1"}}
	switch params.Type {
	case SearchTypeImage:
		query.Set("categories", "images")
	case SearchTypeNews:
		query.Set("categories", "news")
	default:
		query.Set("categories", "general")
	}
	searchURL.Path = "/search"
	searchURL.RawQuery = query.Encode()

	body, err := doGet(ctx, b.client, searchURL.String(), nil)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Results []struct {
			Title         string `json:"title"`
			URL           string `json:"url"`
			Content       string `json:"content"`
			ImgSrc        string `json:"img_src,omitempty"`
			PublishedDate string `json:"publishedDate,omitempty"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse searxng response: %w", err)
	}

	results := make([]SearchResult, 0, params.ResultCount)
	for i := 0; i < len(parsed.Results) && i < params.ResultCount; i++ {
		r := parsed.Results[i]
		results = append(results, SearchResult{
			Title: r.Title, URL: r.URL, Snippet: r.Content,
			ImageURL: r.ImgSrc, PublishedAt: r.PublishedDate,
		})
	}
	return &SearchResponse{Query: params.Query, Type: params.Type, Results: results, ResultCount: len(results), Backend: BackendSearXNG}, nil
}

// duckDuckGoBackend queries DuckDuckGo's Instant Answer API. It needs no
// credential, which is why it is also the universal fallback backend.
type duckDuckGoBackend struct {
	client *http.Client
}

func (b *duckDuckGoBackend) search(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	endpoint := fmt.Sprintf("https://api.duckduckgo.com/?q=%s&format=json&no_html=1", url.QueryEscape(params.Query))
	body, err := doGet(ctx, b.client, endpoint, map[string]string{"User-Agent": "Mozilla/5.0 (compatible; AgentGatewayBot/1.0)"})
	if err != nil {
		return nil, err
	}

	var parsed struct {
		AbstractText  string `json:"AbstractText"`
		AbstractURL   string `json:"AbstractURL"`
		Heading       string `json:"Heading"`
		RelatedTopics []struct {
			FirstURL string `json:"FirstURL"`
			Text     string `json:"Text"`
		} `json:"RelatedTopics"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse duckduckgo response: %w", err)
	}

	var results []SearchResult
	if parsed.AbstractText != "" && parsed.AbstractURL != "" {
		results = append(results, SearchResult{Title: parsed.Heading, URL: parsed.AbstractURL, Snippet: parsed.AbstractText})
	}
	for _, topic := range parsed.RelatedTopics {
		if len(results) >= params.ResultCount {
			break
		}
		if topic.FirstURL == "" || topic.Text == "" {
			continue
		}
		title := topic.Text
		if len(title) > 100 {
			title = title[:100]
		}
		results = append(results, SearchResult{Title: title, URL: topic.FirstURL, Snippet: topic.Text})
	}

	return &SearchResponse{Query: params.Query, Type: params.Type, Results: results, ResultCount: len(results), Backend: BackendDuckDuckGo}, nil
}

// braveBackend queries the Brave Search API, which exposes a distinct
// response shape per search type.
type braveBackend struct {
	apiKey string
	client *http.Client
}

func (b *braveBackend) search(ctx context.Context, params *SearchParams) (*SearchResponse, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("brave API key not configured")
	}

	endpoint := "/web/search"
	switch params.Type {
	case SearchTypeImage:
		endpoint = "/images/search"
	case SearchTypeNews:
		endpoint = "/news/search"
	}
	searchURL, err := url.Parse("https://api.search.brave.com/res/v1" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid brave URL: %w", err)
	}
	query := url.Values{"q": {params.Query}, "count": {fmt.Sprintf("%d", params.ResultCount)}}
	searchURL.RawQuery = query.Encode()

	body, err := doGet(ctx, b.client, searchURL.String(), map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": b.apiKey,
	})
	if err != nil {
		return nil, err
	}

	results, err := parseBraveResults(params.Type, body)
	if err != nil {
		return nil, err
	}
	return &SearchResponse{Query: params.Query, Type: params.Type, Results: results, ResultCount: len(results), Backend: BackendBraveSearch}, nil
}

func parseBraveResults(searchType SearchType, body []byte) ([]SearchResult, error) {
	switch searchType {
	case SearchTypeImage:
		var parsed struct {
			Results []struct {
				Title      string `json:"title"`
				Thumbnail  struct{ Src string `json:"src"` } `json:"thumbnail"`
				Properties struct{ URL string `json:"url"` } `json:"properties"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse brave image response: %w", err)
		}
		results := make([]SearchResult, 0, len(parsed.Results))
		for _, r := range parsed.Results {
			results = append(results, SearchResult{Title: r.Title, URL: r.Properties.URL, ImageURL: r.Thumbnail.Src})
		}
		return results, nil

	case SearchTypeNews:
		var parsed struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
				Age         string `json:"age"`
			} `json:"results"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse brave news response: %w", err)
		}
		results := make([]SearchResult, 0, len(parsed.Results))
		for _, r := range parsed.Results {
			results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description, PublishedAt: r.Age})
		}
		return results, nil

	default:
		var parsed struct {
			Web struct {
				Results []struct {
					Title       string `json:"title"`
					URL         string `json:"url"`
					Description string `json:"description"`
				} `json:"results"`
			} `json:"web"`
		}
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse brave web response: %w", err)
		}
		results := make([]SearchResult, 0, len(parsed.Web.Results))
		for _, r := range parsed.Web.Results {
			results = append(results, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
		}
		return results, nil
	}
}

// doGet is the shared GET-and-read helper every backend uses, folding
// non-2xx statuses into the returned error.
func doGet(ctx context.Context, client *http.Client, rawURL string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
