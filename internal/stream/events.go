// Package stream implements the bounded, ordered event bus and SSE
// framer that carry one request's agent-loop progress to its caller.
package stream

import "encoding/json"

// Kind names an event's shape. Exactly one of {Done, Error} terminates
// a stream (§4.5 invariant 2).
type Kind string

const (
	KindToken    Kind = "token"
	KindToolStart Kind = "tool_start"
	KindToolEnd  Kind = "tool_end"
	KindDone     Kind = "done"
	KindError    Kind = "error"
)

// Event is one item on a request's event bus. Only the field matching
// Kind is populated.
type Event struct {
	Kind Kind `json:"-"`

	Token    *TokenPayload    `json:"-"`
	ToolStart *ToolStartPayload `json:"-"`
	ToolEnd  *ToolEndPayload  `json:"-"`
	Done     *DonePayload     `json:"-"`
	Error    *ErrorPayload    `json:"-"`
}

// TokenPayload carries one incremental assistant text fragment.
type TokenPayload struct {
	Content string `json:"content"`
}

// ToolStartPayload announces a tool invocation beginning. InsertPosition
// equals the sum of lengths of all prior token contents, letting a UI
// anchor a tool card between text runs.
type ToolStartPayload struct {
	ToolCallID    string          `json:"tool_id"`
	ToolName      string          `json:"tool_name"`
	Input         json.RawMessage `json:"input"`
	InsertPosition int            `json:"insert_position"`
}

// ToolEndPayload reports a tool invocation's outcome. Output is
// truncated to the event budget; the full result lives only in the
// scratchpad fed back to the model.
type ToolEndPayload struct {
	ToolCallID      string `json:"tool_id"`
	Status          string `json:"status"`
	Output          string `json:"output,omitempty"`
	Error           string `json:"error,omitempty"`
	ExecutionTimeMS int64  `json:"execution_time_ms"`
}

// DonePayload is the terminal success event.
type DonePayload struct {
	ConversationID string         `json:"conversation_id"`
	Message        string         `json:"message"`
	ToolCalls      []ToolCallView `json:"tool_calls"`
	Metadata       Metadata       `json:"metadata"`
}

// ToolCallView is the tool-call summary embedded in a done event.
type ToolCallView struct {
	Name       string `json:"name"`
	Input      string `json:"input"`
	Output     string `json:"output"`
	Error      string `json:"error,omitempty"`
	Status     string `json:"status"`
	DurationMS int64  `json:"duration_ms"`
}

// Metadata is the done event's bookkeeping block: provider/model
// identity, token usage, timing, and tool-count resolution.
type Metadata struct {
	Provider         string `json:"provider"`
	Model            string `json:"model"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
	ToolsAvailable   int    `json:"tools_available"`
}

// ErrorPayload is the terminal failure event.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MarshalJSON renders an Event as the tagged payload the SSE framer and
// the non-streaming /chat handler both serialize: `{"type": ..., ...}`.
func (e Event) MarshalJSON() ([]byte, error) {
	var body any
	switch e.Kind {
	case KindToken:
		body = e.Token
	case KindToolStart:
		body = e.ToolStart
	case KindToolEnd:
		body = e.ToolEnd
	case KindDone:
		body = e.Done
	case KindError:
		body = e.Error
	}

	envelope := struct {
		Type string `json:"type"`
		Data any    `json:"data"`
	}{Type: string(e.Kind), Data: body}

	return json.Marshal(envelope)
}

// TerminalEvent builds an Event given either a done or error payload.
func TerminalEvent(done *DonePayload, err *ErrorPayload) Event {
	if err != nil {
		return Event{Kind: KindError, Error: err}
	}
	return Event{Kind: KindDone, Done: done}
}
