package engine

import (
	"context"
	"fmt"
	"strings"
)

// MaxPromptRewriteInput bounds the user-authored prompt accepted by the
// rewrite operation.
const MaxPromptRewriteInput = 5000

// MaxPromptRewriteOutputTokens bounds the rewritten prompt's length.
const MaxPromptRewriteOutputTokens = 2000

const promptRewriteMetaPrompt = `You are a prompt engineering assistant. Expand the following system prompt into a more detailed, effective version while strictly preserving its original intent, tone, and constraints. Do not introduce new capabilities or change what the assistant is permitted to do. Return only the expanded prompt text, with no preamble or explanation.

Prompt to expand:
%s`

const defaultPromptRewriteInput = "You are a helpful, general-purpose AI assistant. Be accurate, concise, and honest about uncertainty."

// PromptRewriteResult is the one-shot /enhance-prompt response.
type PromptRewriteResult struct {
	EnhancedPrompt string
	OriginalLength int
}

// RewritePrompt invokes provider/model with a fixed meta-prompt to
// expand currentPrompt. It is non-streaming, does not enter the agent
// loop, and never binds tools. An empty input is replaced with a
// generic default before expansion rather than failing.
func RewritePrompt(ctx context.Context, provider LLMProvider, model string, currentPrompt string) (*PromptRewriteResult, error) {
	if provider == nil {
		return nil, ErrNoProvider
	}

	originalLength := len(currentPrompt)

	input := strings.TrimSpace(currentPrompt)
	if len(input) > MaxPromptRewriteInput {
		return nil, NewGatewayError(CodeValidation, fmt.Sprintf("current_prompt exceeds maximum length of %d characters", MaxPromptRewriteInput))
	}
	if input == "" {
		input = defaultPromptRewriteInput
	}

	req := &CompletionRequest{
		Model:     model,
		Messages:  []CompletionMessage{{Role: "user", Content: fmt.Sprintf(promptRewriteMetaPrompt, input)}},
		MaxTokens: MaxPromptRewriteOutputTokens,
	}

	chunks, err := provider.Complete(ctx, req)
	if err != nil {
		return nil, NewGatewayError(CodeModelAPIError, err.Error())
	}

	var b strings.Builder
	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, NewGatewayError(CodeModelAPIError, chunk.Error.Error())
		}
		b.WriteString(chunk.Text)
	}

	enhanced := strings.TrimSpace(b.String())
	if enhanced == "" {
		enhanced = input
	}

	return &PromptRewriteResult{EnhancedPrompt: enhanced, OriginalLength: originalLength}, nil
}
