// Package wrapper implements the API-wrapper tool family: thin,
// credential-bound bindings over third-party HTTP APIs (weather, IP
// lookup, exchange rates, web search, Notion, Slack, Google Calendar).
// Every wrapper shares one contract: a declared credential schema
// validated at invocation entry, a bounded timeout with limited retry
// on transient network failure, and HTTP status mapped to a vendor-
// agnostic taxonomy rather than surfaced raw.
package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/retry"
)

// httpResult is the signature every service Execute method reduces to
// before it is formatted into an engine.ToolResult.
type httpResult struct {
	body       []byte
	statusCode int
}

// retryConfig is shared across wrappers: up to 3 attempts, at least a
// 2s delay between them, exponential after that, bounded at 10s.
func retryConfig() retry.Config {
	return retry.Exponential(3, 2*time.Second, 10*time.Second)
}

// doRequest executes req with retry on transient network failure (not
// on HTTP error responses — those are taxonomy-mapped by the caller,
// not retried here, since a 404 or 401 will not resolve itself). It
// never logs the request (and so never logs its Authorization header).
func doRequest(ctx context.Context, client *http.Client, req *http.Request) (*httpResult, error) {
	var result *httpResult

	r := retry.Do(ctx, retryConfig(), func() error {
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		result = &httpResult{body: body, statusCode: resp.StatusCode}
		return nil
	})

	if r.Err != nil {
		return nil, r.Err
	}
	return result, nil
}

// taxonomyError maps an HTTP status to the vendor-agnostic failure
// taxonomy shared by every wrapper. retryAfter is surfaced verbatim
// when the upstream sent a Retry-After header on a 429.
func taxonomyError(statusCode int, retryAfter string) string {
	switch {
	case statusCode == http.StatusUnauthorized:
		return "Error: authentication failed — check the configured credential"
	case statusCode == http.StatusForbidden:
		return "Error: insufficient permission for this operation"
	case statusCode == http.StatusNotFound:
		return "Error: the requested resource was not found"
	case statusCode == http.StatusConflict || statusCode == http.StatusGone:
		return fmt.Sprintf("Error: conflict or resource no longer available (status %d)", statusCode)
	case statusCode == http.StatusTooManyRequests:
		if retryAfter != "" {
			return fmt.Sprintf("Error: rate limit exceeded — retry after %s seconds", retryAfter)
		}
		return "Error: rate limit exceeded — retry later"
	case statusCode >= 500:
		return fmt.Sprintf("Error: upstream service failure (status %d)", statusCode)
	default:
		return fmt.Sprintf("Error: request failed (status %d)", statusCode)
	}
}

// networkError formats a transient network failure after retries are
// exhausted.
func networkError(err error) *engine.ToolResult {
	return &engine.ToolResult{Content: fmt.Sprintf("Error: network request failed — %s", err.Error()), IsError: true}
}

// missingCredential formats the standard failure for an unset
// credential, per the shared wrapper contract.
func missingCredential(name string) *engine.ToolResult {
	return &engine.ToolResult{Content: fmt.Sprintf("Error: %s is not configured", name), IsError: true}
}

// decodeArgs decodes a tool's JSON arguments, tolerating an empty
// params payload for no-argument tools.
func decodeArgs(params json.RawMessage, v any) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// defaultClient is shared by wrappers that have no reason to tune
// transport settings individually.
func defaultClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// instance is the shared registry.Instance implementation for every
// wrapper service in this package: a frozen tool slice built either at
// construction time (no-auth wrappers) or at Instantiate time
// (credentialed wrappers).
type instance struct {
	tools []engine.Tool
}

func (i *instance) Tools() []engine.Tool { return i.tools }
