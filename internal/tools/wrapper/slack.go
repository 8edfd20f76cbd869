package wrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/slack-go/slack"

	"github.com/haasonsaas/agentgateway/internal/engine"
	"github.com/haasonsaas/agentgateway/internal/registry"
)

// slackErrorMessages translates Slack's own error codes (the `error`
// field on a non-ok response) into a vendor-agnostic message. Slack
// returns dozens of these; this covers the ones callers are most
// likely to hit.
var slackErrorMessages = map[string]string{
	"invalid_auth":         "authentication failed — the bot token is invalid",
	"not_authed":           "authentication failed — no bot token was supplied",
	"account_inactive":     "the Slack account for this token has been deactivated",
	"token_revoked":        "authentication failed — the bot token has been revoked",
	"token_expired":        "authentication failed — the bot token has expired",
	"missing_scope":        "insufficient permission — the bot token is missing a required OAuth scope",
	"channel_not_found":    "the requested channel was not found",
	"not_in_channel":       "the bot is not a member of this channel",
	"is_archived":          "this channel is archived",
	"message_not_found":    "the requested message was not found",
	"cant_update_message":  "only messages posted by this bot can be edited",
	"cant_delete_message":  "only messages posted by this bot can be deleted",
	"msg_too_long":         "the message exceeds Slack's length limit",
	"no_text":              "the message body is empty",
	"user_not_found":       "the requested user was not found",
	"rate_limited":         "rate limit exceeded — retry later",
}

// SlackService wraps the Slack Web API via slack-go/slack. Requires a
// Bot User OAuth token (xoxb-...).
type SlackService struct{}

func NewSlackService() *SlackService {
	return &SlackService{}
}

func (s *SlackService) Descriptor() registry.ServiceDescriptor {
	return registry.ServiceDescriptor{
		Class:       "slack",
		DisplayName: "Slack",
		Kind:        registry.KindAPIWrapper,
		CredentialSchema: json.RawMessage(`{
			"type": "object",
			"properties": {
				"bot_token": {"type": "string", "description": "Slack Bot User OAuth Token (starts with xoxb-)", "pattern": "^xoxb-"}
			},
			"required": ["bot_token"]
		}`),
	}
}

func (s *SlackService) ToolDescriptors() []registry.ToolDescriptor {
	out := make([]registry.ToolDescriptor, 0, len(slackToolFactories))
	for _, f := range slackToolFactories {
		t := f(nil)
		out = append(out, registry.ToolDescriptor{Name: t.Name(), Description: t.Description(), Schema: t.Schema(), Category: "slack"})
	}
	return out
}

func (s *SlackService) Instantiate(_ context.Context, binding registry.ServiceBinding) (registry.Instance, error) {
	token, _ := binding.Credentials["bot_token"].(string)
	if token == "" {
		return &instance{tools: []engine.Tool{&missingCredentialTool{name: "slack_unconfigured", cred: "Slack bot_token"}}}, nil
	}

	client := slack.New(token)
	tools := make([]engine.Tool, 0, len(slackToolFactories))
	for _, f := range slackToolFactories {
		tools = append(tools, f(client))
	}
	return &instance{tools: tools}, nil
}

func formatSlackError(err error) string {
	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return fmt.Sprintf("Error: rate limit exceeded — retry after %s", rateLimited.RetryAfter)
	}

	code := err.Error()
	if msg, ok := slackErrorMessages[code]; ok {
		return fmt.Sprintf("Error: %s (%s)", msg, code)
	}
	return fmt.Sprintf("Error: Slack API request failed — %s", code)
}

type slackToolFactory func(*slack.Client) engine.Tool

var slackToolFactories = []slackToolFactory{
	func(c *slack.Client) engine.Tool { return &slackSendMessageTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackListChannelsTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackUpdateMessageTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackDeleteMessageTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackChannelHistoryTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackAddReactionTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackThreadRepliesTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackListUsersTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackUserInfoTool{client: c} },
	func(c *slack.Client) engine.Tool { return &slackSearchMessagesTool{client: c} },
}

// --- send_message ---

type slackSendMessageTool struct{ client *slack.Client }

func (t *slackSendMessageTool) Name() string        { return "send_message" }
func (t *slackSendMessageTool) Description() string { return "Send a message to a Slack channel or thread." }
func (t *slackSendMessageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"text":{"type":"string"},"thread_ts":{"type":"string"}},"required":["channel","text"]}`)
}

func (t *slackSendMessageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel  string `json:"channel"`
		Text     string `json:"text"`
		ThreadTS string `json:"thread_ts"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	opts := []slack.MsgOption{slack.MsgOptionText(args.Text, false)}
	if args.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(args.ThreadTS))
	}

	channel, ts, err := t.client.PostMessageContext(ctx, args.Channel, opts...)
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Message sent to %s at %s", channel, ts)}, nil
}

// --- list_channels ---

type slackListChannelsTool struct{ client *slack.Client }

func (t *slackListChannelsTool) Name() string        { return "list_channels" }
func (t *slackListChannelsTool) Description() string { return "List channels in the workspace." }
func (t *slackListChannelsTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"limit":{"type":"integer","minimum":1,"maximum":1000}},"required":[]}`)
}

func (t *slackListChannelsTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Limit int `json:"limit"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.Limit <= 0 || args.Limit > 1000 {
		args.Limit = 100
	}

	channels, _, err := t.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Limit:           args.Limit,
		ExcludeArchived: true,
		Types:           []string{"public_channel", "private_channel"},
	})
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	if len(channels) == 0 {
		return &engine.ToolResult{Content: "No channels found"}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Channels (%d):\n\n", len(channels))
	for _, c := range channels {
		fmt.Fprintf(&b, "#%s (id: %s, members: %d, private: %v)\n", c.Name, c.ID, c.NumMembers, c.IsPrivate)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- update_message ---

type slackUpdateMessageTool struct{ client *slack.Client }

func (t *slackUpdateMessageTool) Name() string        { return "update_message" }
func (t *slackUpdateMessageTool) Description() string { return "Update the text of a previously sent message." }
func (t *slackUpdateMessageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"ts":{"type":"string"},"text":{"type":"string"}},"required":["channel","ts","text"]}`)
}

func (t *slackUpdateMessageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel string `json:"channel"`
		TS      string `json:"ts"`
		Text    string `json:"text"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	_, _, _, err := t.client.UpdateMessageContext(ctx, args.Channel, args.TS, slack.MsgOptionText(args.Text, false))
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Message %s in %s updated", args.TS, args.Channel)}, nil
}

// --- delete_message ---

type slackDeleteMessageTool struct{ client *slack.Client }

func (t *slackDeleteMessageTool) Name() string        { return "delete_message" }
func (t *slackDeleteMessageTool) Description() string { return "Delete a previously sent message." }
func (t *slackDeleteMessageTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"ts":{"type":"string"}},"required":["channel","ts"]}`)
}

func (t *slackDeleteMessageTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	_, _, err := t.client.DeleteMessageContext(ctx, args.Channel, args.TS)
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Message %s in %s deleted", args.TS, args.Channel)}, nil
}

// --- get_channel_history ---

type slackChannelHistoryTool struct{ client *slack.Client }

func (t *slackChannelHistoryTool) Name() string        { return "get_channel_history" }
func (t *slackChannelHistoryTool) Description() string { return "Get recent message history for a channel." }
func (t *slackChannelHistoryTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"limit":{"type":"integer","minimum":1,"maximum":1000}},"required":["channel"]}`)
}

func (t *slackChannelHistoryTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel string `json:"channel"`
		Limit   int    `json:"limit"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.Limit <= 0 || args.Limit > 1000 {
		args.Limit = 100
	}

	resp, err := t.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: args.Channel,
		Limit:     args.Limit,
	})
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	if len(resp.Messages) == 0 {
		return &engine.ToolResult{Content: fmt.Sprintf("No messages found in %s", args.Channel)}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Channel history (%d messages, newest first):\n\n", len(resp.Messages))
	for i, msg := range resp.Messages {
		text := truncateForDisplay(msg.Text, 100)
		fmt.Fprintf(&b, "%d. [%s] %s (ts: %s)\n", i+1, msg.User, text, msg.Timestamp)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- add_reaction ---

type slackAddReactionTool struct{ client *slack.Client }

func (t *slackAddReactionTool) Name() string        { return "add_reaction" }
func (t *slackAddReactionTool) Description() string { return "Add an emoji reaction to a message." }
func (t *slackAddReactionTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"timestamp":{"type":"string"},"name":{"type":"string","description":"emoji name without colons"}},"required":["channel","timestamp","name"]}`)
}

func (t *slackAddReactionTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel   string `json:"channel"`
		Timestamp string `json:"timestamp"`
		Name      string `json:"name"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	ref := slack.NewRefToMessage(args.Channel, args.Timestamp)
	if err := t.client.AddReactionContext(ctx, args.Name, ref); err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Reaction :%s: added in %s", args.Name, args.Channel)}, nil
}

// --- get_thread_replies ---

type slackThreadRepliesTool struct{ client *slack.Client }

func (t *slackThreadRepliesTool) Name() string        { return "get_thread_replies" }
func (t *slackThreadRepliesTool) Description() string { return "Get replies in a message thread." }
func (t *slackThreadRepliesTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"channel":{"type":"string"},"ts":{"type":"string"}},"required":["channel","ts"]}`)
}

func (t *slackThreadRepliesTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Channel string `json:"channel"`
		TS      string `json:"ts"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	messages, _, _, err := t.client.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: args.Channel,
		Timestamp: args.TS,
	})
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	if len(messages) <= 1 {
		return &engine.ToolResult{Content: "No replies in this thread"}, nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thread replies (%d):\n\n", len(messages)-1)
	for i, msg := range messages[1:] {
		text := truncateForDisplay(msg.Text, 100)
		fmt.Fprintf(&b, "%d. [%s] %s (ts: %s)\n", i+1, msg.User, text, msg.Timestamp)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- list_users ---

type slackListUsersTool struct{ client *slack.Client }

func (t *slackListUsersTool) Name() string        { return "list_users" }
func (t *slackListUsersTool) Description() string { return "List members of the workspace." }
func (t *slackListUsersTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{},"required":[]}`)
}

func (t *slackListUsersTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	users, err := t.client.GetUsersContext(ctx)
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}

	var b strings.Builder
	count := 0
	for _, u := range users {
		if u.Deleted || u.IsBot {
			continue
		}
		count++
		name := u.RealName
		if name == "" {
			name = u.Name
		}
		fmt.Fprintf(&b, "%s (id: %s, username: %s", name, u.ID, u.Name)
		if u.Profile.Email != "" {
			fmt.Fprintf(&b, ", email: %s", u.Profile.Email)
		}
		b.WriteString(")\n")
	}
	if count == 0 {
		return &engine.ToolResult{Content: "No users found"}, nil
	}
	return &engine.ToolResult{Content: fmt.Sprintf("Users (%d):\n\n%s", count, strings.TrimRight(b.String(), "\n"))}, nil
}

// --- get_user_info ---

type slackUserInfoTool struct{ client *slack.Client }

func (t *slackUserInfoTool) Name() string        { return "get_user_info" }
func (t *slackUserInfoTool) Description() string { return "Get profile details for a single user." }
func (t *slackUserInfoTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"user":{"type":"string"}},"required":["user"]}`)
}

func (t *slackUserInfoTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		User string `json:"user"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}

	u, err := t.client.GetUserInfoContext(ctx, args.User)
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}

	name := u.RealName
	if name == "" {
		name = u.Name
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nID: %s\nUsername: %s\n", name, u.ID, u.Name)
	if u.Profile.Email != "" {
		fmt.Fprintf(&b, "Email: %s\n", u.Profile.Email)
	}
	if u.Profile.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\n", u.Profile.Phone)
	}
	if u.Profile.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", u.Profile.Title)
	}
	if u.TZ != "" {
		fmt.Fprintf(&b, "Timezone: %s\n", u.TZ)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

// --- search_messages ---

type slackSearchMessagesTool struct{ client *slack.Client }

func (t *slackSearchMessagesTool) Name() string        { return "search_messages" }
func (t *slackSearchMessagesTool) Description() string { return "Search messages across the workspace." }
func (t *slackSearchMessagesTool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"query":{"type":"string"},"count":{"type":"integer","minimum":1,"maximum":100}},"required":["query"]}`)
}

func (t *slackSearchMessagesTool) Execute(ctx context.Context, params json.RawMessage) (*engine.ToolResult, error) {
	var args struct {
		Query string `json:"query"`
		Count int    `json:"count"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return &engine.ToolResult{Content: "Error: " + err.Error(), IsError: true}, nil
	}
	if args.Count <= 0 || args.Count > 100 {
		args.Count = 20
	}

	results, err := t.client.SearchMessagesContext(ctx, args.Query, slack.NewSearchParameters())
	if err != nil {
		return &engine.ToolResult{Content: formatSlackError(err), IsError: true}, nil
	}
	if results == nil || len(results.Matches) == 0 {
		return &engine.ToolResult{Content: fmt.Sprintf("No messages matched %q", args.Query)}, nil
	}

	matches := results.Matches
	if len(matches) > args.Count {
		matches = matches[:args.Count]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Search results for %q (%d of %d):\n\n", args.Query, len(matches), results.Total)
	for i, m := range matches {
		text := truncateForDisplay(m.Text, 100)
		fmt.Fprintf(&b, "%d. [%s in #%s] %s (ts: %s)\n", i+1, m.Username, m.Channel.Name, text, m.Timestamp)
	}
	return &engine.ToolResult{Content: strings.TrimRight(b.String(), "\n")}, nil
}

func truncateForDisplay(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
