package engine

import (
	"encoding/json"
	"regexp"
	"strings"
)

// TextProtocolDirectives is appended to the system prompt for vendors
// without reliable native function calling. It instructs the model to
// emit a fixed Thought/Action/Action Input/Observation/Final Answer
// grammar that ParseTextAction can recover structured tool calls from.
const TextProtocolDirectives = `You do not have native tool calling. Instead, respond using exactly this format for each step:

Thought: <your reasoning>
Action: <tool name, or "none">
Action Input: <JSON object of arguments, or {} if no tool>

Wait for an Observation before continuing. When you have the final answer, respond with:

Thought: <your reasoning>
Final Answer: <your answer to the user>

Never include both an Action and a Final Answer in the same response.`

var (
	thoughtLine     = regexp.MustCompile(`(?m)^Thought:\s*(.*)$`)
	actionLine      = regexp.MustCompile(`(?m)^Action:\s*(.*)$`)
	actionInputLine = regexp.MustCompile(`(?m)^Action Input:\s*(.*)$`)
	finalAnswerLine = regexp.MustCompile(`(?mi)^Final Answer:\s*([\s\S]*)$`)
)

// TextAction is the structured result of parsing one text-protocol
// model turn: either a tool invocation (Action set, non-"none") or a
// final answer.
type TextAction struct {
	Thought      string
	Action       string
	ActionInput  json.RawMessage
	FinalAnswer  string
	IsFinal      bool
}

// ParseTextAction parses one Thought/Action/Action Input or
// Thought/Final Answer turn out of raw model text. It returns an error
// when neither an Action nor a Final Answer can be located, signaling
// the caller should attempt one recovery round before the iteration cap
// takes effect.
func ParseTextAction(text string) (*TextAction, error) {
	ta := &TextAction{}

	if m := thoughtLine.FindStringSubmatch(text); m != nil {
		ta.Thought = strings.TrimSpace(m[1])
	}

	if m := finalAnswerLine.FindStringSubmatch(text); m != nil {
		ta.IsFinal = true
		ta.FinalAnswer = strings.TrimSpace(m[1])
		return ta, nil
	}

	actionMatch := actionLine.FindStringSubmatch(text)
	if actionMatch == nil {
		return nil, errUnparseableTextAction
	}

	action := strings.TrimSpace(actionMatch[1])
	if action == "" || strings.EqualFold(action, "none") {
		return nil, errUnparseableTextAction
	}
	ta.Action = action

	if m := actionInputLine.FindStringSubmatch(text); m != nil {
		raw := strings.TrimSpace(m[1])
		if raw == "" {
			raw = "{}"
		}
		if !json.Valid([]byte(raw)) {
			return nil, errUnparseableTextAction
		}
		ta.ActionInput = json.RawMessage(raw)
	} else {
		ta.ActionInput = json.RawMessage("{}")
	}

	return ta, nil
}

// RecoveryObservation is fed back to the model as the one tolerated
// recovery attempt when its output didn't match the text protocol.
const RecoveryObservation = `Observation: your previous response did not match the required Thought/Action/Action Input or Thought/Final Answer format. Respond again using exactly that format.`
