package wrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

const (
	googleCalendarBaseURL = "https://www.googleapis.com/calendar/v3"
	googleCalendarID      = "primary"
)

// GoogleCalendarService wraps the Google Calendar v3 REST API using a
// caller-supplied OAuth 2.0 access token (refresh is the caller's
// responsibility — the gateway never stores Google credentials).
type GoogleCalendarService struct{}

func NewGoogleCalendarService() *GoogleCalendarService {
	return &GoogleCalendarService{}
}

func (s *GoogleCalendarService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "google_calendar",
		DisplayName: "Google Calendar",
		Kind:        registry.KindAPIWrapper,
		CredentialSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"access_token": {"type": "string", "description": "Google Calendar OAuth 2.0 access token", "minLength": 1}
			},
			"required": ["access_token"]
		}`),
	}
}

func (s *GoogleCalendarService) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(gcalToolFactories))
	for _, f := range gcalToolFactories {
		t := f(nil)
		out = append(out, registry.ToolDescriptor{Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "calendar"})
	}
	return out
}

func (s *GoogleCalendarService) Instantiate(_ context.Context, binding registry.ServiceBinding) (registry.Instance, error) {
	token, _ := binding.Credentials["access_token"].(string)
	if token == "" {
		return &instance{tools: []engine.Tool{&missingCredentialTool{name: "google_calendar_unconfigured", cred: "Google Calendar access_token"}}}, nil
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := oauth2.NewClient(context.Background(), src)
	client.Timeout = 30 * time.Second

	tools := make([]engine.Tool, 0, len(gcalToolFactories))
	for _, f := range gcalToolFactories {
		tools = append(tools, f(client))
	}
	return &instance{tools: tools}, nil
}

type gcalToolFactory func(*http.Client) engine.Tool

var gcalToolFactories = []gcalToolFactory{
	func(c *http.Client) engine.Tool { return &gcalTodayEventsTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalUpcomingEventsTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalCreateEventTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalEventDetailsTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalUpdateEventTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalDeleteEventTool{client: c} },
	func(c *http.Client) engine.Tool { return &gcalSearchEventsTool{client: c} },
}

type gcalEvent struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Location string `json:"location,omitempty"`
	HTMLLink string `json:"htmlLink"`
	Start    struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
		Date     string `json:"date"`
	} `json:"end"`
}

func gcalEventTime(e gcalEvent, start bool) string {
	if start {
		if e.Start.DateTime != "" {
			return e.Start.DateTime
		}
		return e.Start.Date
	}
	if e.End.DateTime != "" {
		return e.End.DateTime
	}
	return e.End.Date
}

func gcalGet(ctx context.Context, client *http.Client, path string, query url.Values) ([]byte, *engine.ToolResult) {
	reqURL := fmt.Sprintf("%s%s", googleCalendarBaseURL, path)
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}
	}
	return gcalDo(ctx, client, req)
}

func gcalDo(ctx context.Context, client *http.Client, req *http.Request) ([]byte, *engine.ToolResult) {
	res, err := doRequest(ctx, client, req)
	if err != nil {
		return nil, networkError(err)
	}
	if res.statusCode < 200 || res.statusCode >= 300 {
		return nil, &engine.ToolResult{Content: taxonomyError(res.statusCode, ""), IsError: true}
	}
	return res.body, nil
}

func gcalEventsList(ctx context.Context, client *http.Client, timeMin, timeMax time.Time) ([]gcalEvent, *engine.ToolResult) {
	query := url.Values{
		"orderBy":      {"startTime"},
		"singleEvents": {"true"},
		"timeMin":      {timeMin.Format(time.RFC3339)},
	}
	if !timeMax.IsZero() {
		query.Set("timeMax", timeMax.Format(time.RFC3339))
	}

	body, errResult := gcalGet(ctx, client, fmt.Sprintf("/calendars/%s/events", googleCalendarID), query)
	if errResult != nil {
		return nil, errResult
	}

	var resp struct {
		Items []gcalEvent `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &engine.ToolResult{Content: "Error: malformed response from Google Calendar", IsError: true}
	}
	return resp.Items, nil
}

func formatEventList(events []gcalEvent) string {
	var b strings.Builder
	for i, e := range events {
		fmt.Fprintf(&b, "%d. %s\n   Start: %s\n   End: %s\n   ID: %s\n", i+1, e.Summary, gcalEventTime(e, true), gcalEventTime(e, false), e.ID)
	}
	return strings.TrimRight(b.String(), "\n")
}

// --- get_today_events ---

type gcalTodayEventsTool struct{ client *http.Client }

func (t *gcalTodayEventsTool) Name() string        { return "get_today_events" }
func (t *gcalTodayEventsTool) Description() string { return "List today's events on the primary calendar." }
func (t *gcalTodayEventsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
}

func (t *gcalTodayEventsTool) Execute(ctx context.Context, _ json.RawMessage) (*engine.ToolResult, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events, errResult := gcalEventsList(ctx, t.client, start, start.Add(24*time.Hour))
	if errResult != nil {
		return errResult, nil
	}
	if len(events) == 0 {
		return &engine.ToolResult{Content: "No events today"}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Today's events (%d):\n\n%s", len(events), formatEventList(events))}, nil
}

// --- get_upcoming_events ---

type gcalUpcomingEventsTool struct{ client *http.Client }

func (t *gcalUpcomingEventsTool) Name() string        { return "get_upcoming_events" }
func (t *gcalUpcomingEventsTool) Description() string { return "List events on the primary calendar over the next N days." }
func (t *gcalUpcomingEventsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"days":{"type":"integer","minimum":1}},"required":[]}`)
}

func (t *gcalUpcomingEventsTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Days int `json:"days"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.Days <= 0 {
		args.Days = 7
	}

	now := time.Now()
	events, errResult := gcalEventsList(ctx, t.client, now, now.Add(time.Duration(args.Days)*24*time.Hour))
	if errResult != nil {
		return errResult, nil
	}
	if len(events) == 0 {
		return &engine.ToolResult{Content: fmt.Sprintf("No events in the next %d day(s)", args.Days)}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Events in the next %d day(s) (%d):\n\n%s", args.Days, len(events), formatEventList(events))}, nil
}

// --- create_event ---

type gcalCreateEventTool struct{ client *http.Client }

func (t *gcalCreateEventTool) Name() string        { return "create_event" }
func (t *gcalCreateEventTool) Description() string { return "Create a new event on the primary calendar." }
func (t *gcalCreateEventTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"summary":{"type":"string"},"start_datetime":{"type":"string","description":"ISO 8601, e.g. 2026-12-25T10:00:00"},"end_datetime":{"type":"string"},"description":{"type":"string"},"location":{"type":"string"}},"required":["summary","start_datetime","end_datetime"]}`)
}

func (t *gcalCreateEventTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Summary       string `json:"summary"`
		StartDatetime string `json:"start_datetime"`
		EndDatetime   string `json:"end_datetime"`
		Description   string `json:"description"`
		Location      string `json:"location"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	payload := map[string]any{
		"summary": args.Summary,
		"start":   map[string]string{"dateTime": args.StartDatetime},
		"end":     map[string]string{"dateTime": args.EndDatetime},
	}
	if args.Description != "" {
		payload["description"] = args.Description
	}
	if args.Location != "" {
		payload["location"] = args.Location
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/calendars/%s/events", googleCalendarBaseURL, googleCalendarID), strings.NewReader(string(encoded)))
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	body, errResult := gcalDo(ctx, t.client, req)
	if errResult != nil {
		return errResult, nil
	}

	var created gcalEvent
	if err := json.Unmarshal(body, &created); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Google Calendar", IsError: true}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Event created.\nSummary: %s\nStart: %s\nEnd: %s\n", args.Summary, args.StartDatetime, args.EndDatetime)
	if args.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", args.Location)
	}
	fmt.Fprintf(&b, "Event ID: %s\nURL: %s", created.ID, created.HTMLLink)
	return &engine.ToolResult{Content: b.String()}, nil
}

// --- get_event_details ---

type gcalEventDetailsTool struct{ client *http.Client }

func (t *gcalEventDetailsTool) Name() string        { return "get_event_details" }
func (t *gcalEventDetailsTool) Description() string { return "Get full details for one calendar event." }
func (t *gcalEventDetailsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"event_id":{"type":"string"}},"required":["event_id"]}`)
}

func (t *gcalEventDetailsTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		EventID string `json:"event_id"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	body, errResult := gcalGet(ctx, t.client, fmt.Sprintf("/calendars/%s/events/%s", googleCalendarID, args.EventID), nil)
	if errResult != nil {
		return errResult, nil
	}

	var e gcalEvent
	if err := json.Unmarshal(body, &e); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Google Calendar", IsError: true}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary: %s\nStart: %s\nEnd: %s\n", e.Summary, gcalEventTime(e, true), gcalEventTime(e, false))
	if e.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", e.Location)
	}
	fmt.Fprintf(&b, "URL: %s", e.HTMLLink)
	return &engine.ToolResult{Content: b.String()}, nil
}

// --- update_event ---

type gcalUpdateEventTool struct{ client *http.Client }

func (t *gcalUpdateEventTool) Name() string        { return "update_event" }
func (t *gcalUpdateEventTool) Description() string { return "Update fields on an existing calendar event." }
func (t *gcalUpdateEventTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"event_id":{"type":"string"},"summary":{"type":"string"},"start_datetime":{"type":"string"},"end_datetime":{"type":"string"},"location":{"type":"string"}},"required":["event_id"]}`)
}

func (t *gcalUpdateEventTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		EventID       string `json:"event_id"`
		Summary       string `json:"summary"`
		StartDatetime string `json:"start_datetime"`
		EndDatetime   string `json:"end_datetime"`
		Location      string `json:"location"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	payload := map[string]any{}
	if args.Summary != "" {
		payload["summary"] = args.Summary
	}
	if args.StartDatetime != "" {
		payload["start"] = map[string]string{"dateTime": args.StartDatetime}
	}
	if args.EndDatetime != "" {
		payload["end"] = map[string]string{"dateTime": args.EndDatetime}
	}
	if args.Location != "" {
		payload["location"] = args.Location
	}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, fmt.Sprintf("%s/calendars/%s/events/%s", googleCalendarBaseURL, googleCalendarID, args.EventID), strings.NewReader(string(encoded)))
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	req.Header.Set("Content-Type", "application/json")

	_, errResult := gcalDo(ctx, t.client, req)
	if errResult != nil {
		return errResult, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Event %s updated", args.EventID)}, nil
}

// --- delete_event ---

type gcalDeleteEventTool struct{ client *http.Client }

func (t *gcalDeleteEventTool) Name() string        { return "delete_event" }
func (t *gcalDeleteEventTool) Description() string { return "Delete a calendar event." }
func (t *gcalDeleteEventTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"event_id":{"type":"string"}},"required":["event_id"]}`)
}

func (t *gcalDeleteEventTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		EventID string `json:"event_id"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, fmt.Sprintf("%s/calendars/%s/events/%s", googleCalendarBaseURL, googleCalendarID, args.EventID), nil)
	if err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	_, errResult := gcalDo(ctx, t.client, req)
	if errResult != nil {
		return errResult, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Event %s deleted", args.EventID)}, nil
}

// --- search_events ---

type gcalSearchEventsTool struct{ client *http.Client }

func (t *gcalSearchEventsTool) Name() string        { return "search_events" }
func (t *gcalSearchEventsTool) Description() string { return "Search events on the primary calendar by keyword." }
func (t *gcalSearchEventsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"keyword":{"type":"string"}},"required":["keyword"]}`)
}

func (t *gcalSearchEventsTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Keyword string `json:"keyword"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	query := url.Values{"q": {args.Keyword}, "singleEvents": {"true"}, "orderBy": {"startTime"}}
	body, errResult := gcalGet(ctx, t.client, fmt.Sprintf("/calendars/%s/events", googleCalendarID), query)
	if errResult != nil {
		return errResult, nil
	}

	var resp struct {
		Items []gcalEvent `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return &engine.ToolResult{Content: "Error: malformed response from Google Calendar", IsError: true}, nil
	}
	if len(resp.Items) == 0 {
		return &engine.ToolResult{Content: fmt.Sprintf("No events matched %q", args.Keyword)}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Matching events (%d):\n\n%s", len(resp.Items), formatEventList(resp.Items))}, nil
}
