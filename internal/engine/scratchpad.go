package engine

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/agentgateway/pkg/models"
)

// ScratchpadEntry records one (call, result) pair produced during an
// iteration of the agent loop.
type ScratchpadEntry struct {
	Call   models.ToolCall
	Result models.ToolResult
}

// Scratchpad accumulates tool call/result pairs across loop iterations.
// The function-calling agent folds it back into CompletionMessages; the
// text-protocol agent folds it into an Observation block appended to the
// running transcript.
type Scratchpad struct {
	entries []ScratchpadEntry
}

// Append records one tool call and its (possibly errored) result. The
// full, untruncated result content is retained here even though the
// emitted tool_end event truncates it for the event stream.
func (s *Scratchpad) Append(call models.ToolCall, result models.ToolResult) {
	s.entries = append(s.entries, ScratchpadEntry{Call: call, Result: result})
}

// Len reports how many (call, result) pairs are recorded.
func (s *Scratchpad) Len() int {
	return len(s.entries)
}

// Entries returns the recorded pairs in insertion order.
func (s *Scratchpad) Entries() []ScratchpadEntry {
	return s.entries
}

// AsCompletionMessages renders the scratchpad as an assistant tool-call
// turn followed by a tool-result turn, for function-calling vendors.
func (s *Scratchpad) AsCompletionMessages(assistantText string) []CompletionMessage {
	if len(s.entries) == 0 {
		return nil
	}

	calls := make([]models.ToolCall, len(s.entries))
	results := make([]models.ToolResult, len(s.entries))
	for i, e := range s.entries {
		calls[i] = e.Call
		results[i] = e.Result
	}

	return []CompletionMessage{
		{Role: "assistant", Content: assistantText, ToolCalls: calls},
		{Role: "tool", ToolResults: results},
	}
}

// AsObservationText renders the scratchpad as Observation blocks for the
// text-protocol agent, which carries history as plain transcript text
// rather than structured tool_calls/tool_results.
func (s *Scratchpad) AsObservationText() string {
	if len(s.entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range s.entries {
		status := "succeeded"
		if e.Result.IsError {
			status = "failed"
		}
		fmt.Fprintf(&b, "Observation: tool %q %s: %s\n", e.Call.Name, status, e.Result.Content)
	}
	return b.String()
}

// TruncateForEvent truncates tool output to the fixed event budget (500
// characters) without mutating the full content retained in the
// scratchpad.
func TruncateForEvent(content string, limit int) string {
	if limit <= 0 {
		limit = 500
	}
	if len(content) <= limit {
		return content
	}
	return content[:limit]
}
