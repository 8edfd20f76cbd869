// Package models holds the wire-level data types shared between the
// engine, the registry, and the HTTP surface.
package models

import (
	"encoding/json"
	"time"
)

// Role identifies the speaker of a ChatTurn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatTurn is one turn of prior conversation history supplied by the caller.
type ChatTurn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ToolCall represents a model's request to execute a named tool with
// JSON-encoded arguments.
type ToolCall struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Input json.RawMessage `json:"input"`
}

// ToolResult represents the outcome of executing a ToolCall.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	IsError    bool   `json:"is_error,omitempty"`
}

// ToolCallRecord is the request-scoped record of one tool invocation,
// truncated for transport per the 500-character output budget.
type ToolCallRecord struct {
	Name          string    `json:"name"`
	Input         string    `json:"input"`
	Output        string    `json:"output"`
	Error         string    `json:"error,omitempty"`
	Status        string    `json:"status"`
	DurationMS    int64     `json:"duration_ms"`
	InsertPos     int       `json:"insert_position"`
}

// TokenUsage carries vendor-reported prompt/completion token counts.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolSummary describes one registered tool for listing endpoints.
type ToolSummary struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Schema      json.RawMessage `json:"input_schema"`
	Category    string          `json:"category,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Service     string          `json:"service"`
}

// ServiceSummary describes one registered Service for listing endpoints.
type ServiceSummary struct {
	Class        string          `json:"class"`
	DisplayName  string          `json:"display_name"`
	Kind         string          `json:"kind"`
	CredSchema   json.RawMessage `json:"credential_schema,omitempty"`
	ToolCount    int             `json:"tool_count"`
}

// Timestamp is a small helper used by handlers that need a stable,
// mockable "now"; kept here so tests can swap it without touching
// call sites across packages.
var Timestamp = time.Now
