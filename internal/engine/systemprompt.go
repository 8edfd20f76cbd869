package engine

import (
	"fmt"
	"strings"
)

// Persona selects a base system-prompt voice. The zero value behaves like
// PersonaNone.
type Persona string

const (
	PersonaNone       Persona = "none"
	PersonaAssistant  Persona = "assistant"
	PersonaCreative   Persona = "creative"
	PersonaAnalytical Persona = "analytical"
	PersonaConcise    Persona = "concise"

	DefaultPersona = PersonaAssistant
)

var personaBase = map[Persona]string{
	PersonaNone:       "",
	PersonaAssistant:  "You are a helpful, direct AI assistant. Answer clearly and admit uncertainty rather than guessing.",
	PersonaCreative:   "You are an imaginative collaborator. Favor vivid, original phrasing while staying accurate about facts.",
	PersonaAnalytical: "You are a rigorous analyst. Show your reasoning, quantify claims where possible, and flag assumptions.",
	PersonaConcise:    "You are terse. Answer in as few words as correctness allows; no preamble, no summary.",
}

const toolUseDirectives = `When a tool would materially improve the accuracy or completeness of your answer, call it instead of guessing. Use at most one tool call per step, read its result before deciding on the next step, and never call a tool whose name is not in the tools you were given. When you are done, answer the user directly — do not narrate that you used a tool.`

// personaPrompt resolves a persona identifier to its base prompt text,
// falling back to DefaultPersona for unknown identifiers.
func personaPrompt(persona Persona) string {
	if base, ok := personaBase[persona]; ok {
		return base
	}
	return personaBase[DefaultPersona]
}

// ComposeSystemPrompt builds the system prompt sent to the model: persona
// (or caller-supplied override) + a user-context sentence when userName is
// known + tool-use directives (always appended, even when the caller
// supplied a custom prompt).
func ComposeSystemPrompt(persona Persona, customPrompt, userName string, hasTools bool) string {
	var b strings.Builder

	base := strings.TrimSpace(customPrompt)
	if base == "" {
		base = personaPrompt(persona)
	}
	if base != "" {
		b.WriteString(base)
	}

	if name := strings.TrimSpace(userName); name != "" {
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(fmt.Sprintf("You are speaking with %s.", name))
	}

	if hasTools {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(toolUseDirectives)
	}

	return b.String()
}

// FilterEmptyTurns drops chat turns with no text content, since some
// model vendors reject empty-content messages.
func FilterEmptyTurns(turns []CompletionMessage) []CompletionMessage {
	filtered := make([]CompletionMessage, 0, len(turns))
	for _, t := range turns {
		if strings.TrimSpace(t.Content) == "" && len(t.ToolCalls) == 0 && len(t.ToolResults) == 0 {
			continue
		}
		filtered = append(filtered, t)
	}
	return filtered
}
