package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/haasonsaas/agentgateway/internal/stream"
	"github.com/haasonsaas/agentgateway/pkg/models"
)

// CompletionMode controls whether the model is required, forbidden, or
// left free to invoke tools.
type CompletionMode string

const (
	ModeAuto           CompletionMode = "auto"
	ModeToolsRequired  CompletionMode = "tools_required"
	ModeCompletionOnly CompletionMode = "completion_only"
)

// LoopConfig bounds one run of the agent loop.
type LoopConfig struct {
	MaxIterations int
	MaxWallTime   time.Duration
	MaxTokens     int
	ToolTimeout   time.Duration
}

// DefaultLoopConfig matches the spec's fixed bounds: 10 iterations,
// 120s wall time, 4096 max tokens, 30s per tool call.
func DefaultLoopConfig() LoopConfig {
	return LoopConfig{
		MaxIterations: 10,
		MaxWallTime:   120 * time.Second,
		MaxTokens:     4096,
		ToolTimeout:   30 * time.Second,
	}
}

// Request is everything the agent loop needs for one run. Tools is the
// already-assembled, already-filtered catalog (registry.Catalog.Tools())
// — the engine package never imports the registry, to keep the
// dependency direction one-way.
type Request struct {
	ConversationID     string
	Provider           LLMProvider
	Model              string
	Persona            Persona
	CustomSystemPrompt string
	UserName           string
	CompletionMode     CompletionMode
	History            []CompletionMessage
	UserMessage        string
	Tools              []Tool
	Temperature        float64
}

// Validate applies the loop's entry guards: model/provider presence,
// the tools_required-with-empty-catalog failure, and completion-mode
// well-formedness. It is called before any stream event is produced so
// the caller can fail the request with a plain HTTP error instead.
func Validate(req *Request) *GatewayError {
	if req.Provider == nil {
		return NewGatewayError(CodeInvalidProvider, "no provider configured for this request")
	}
	switch req.CompletionMode {
	case ModeAuto, ModeToolsRequired, ModeCompletionOnly, "":
	default:
		return NewGatewayError(CodeInvalidCompletionMode, fmt.Sprintf("unknown completion_mode %q", req.CompletionMode))
	}
	if req.CompletionMode == ModeToolsRequired && len(req.Tools) == 0 {
		return NewGatewayError(CodeToolsRequiredButNone, "completion_mode is tools_required but the assembled tool catalog is empty")
	}
	return nil
}

// EffectiveTools returns the tools to bind to the model for this
// request's completion mode: completion_only binds none (the model
// must never be offered tools to call), auto/tools_required bind the
// full assembled catalog.
func (r *Request) EffectiveTools() []Tool {
	if r.CompletionMode == ModeCompletionOnly {
		return nil
	}
	return r.Tools
}

func toolByName(tools []Tool, name string) (Tool, bool) {
	for _, t := range tools {
		if t.Name() == name {
			return t, true
		}
	}
	return nil, false
}

// Run drives the bounded iterative agent loop, emitting token/tool_start/
// tool_end events onto bus and exactly one terminal done/error event.
// The caller is responsible for calling Validate first.
func Run(ctx context.Context, bus *stream.Bus, req *Request, cfg LoopConfig) {
	start := time.Now()

	runCtx := ctx
	var cancel context.CancelFunc
	if cfg.MaxWallTime > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cfg.MaxWallTime)
		defer cancel()
	}

	if cfg.MaxIterations <= 0 {
		cfg = DefaultLoopConfig()
	}

	tools := req.EffectiveTools()

	var (
		textBuilder strings.Builder
		scratchpad  Scratchpad
		allEntries  []ScratchpadEntry
		toolUsed    bool
		usage       models.TokenUsage
		iteration   int
	)

	messages := FilterEmptyTurns(req.History)
	messages = append(messages, CompletionMessage{Role: "user", Content: req.UserMessage})

	useTextProtocol := !req.Provider.SupportsTools() && len(tools) > 0

	for iteration = 0; iteration < cfg.MaxIterations; iteration++ {
		select {
		case <-runCtx.Done():
			bus.Finish(ctx, nil, &stream.ErrorPayload{Code: string(CodeTimeout), Message: "wall time exceeded"})
			return
		default:
		}

		systemPrompt := ComposeSystemPrompt(req.Persona, req.CustomSystemPrompt, req.UserName, len(tools) > 0)
		if useTextProtocol {
			systemPrompt = strings.TrimSpace(systemPrompt + "\n\n" + TextProtocolDirectives)
		}

		calls, iterText, iterUsage, err := runModelIteration(runCtx, bus, req, cfg, systemPrompt, messages, tools, useTextProtocol)
		if err != nil {
			bus.Finish(ctx, nil, &stream.ErrorPayload{Code: string(CodeModelAPIError), Message: err.Error()})
			return
		}
		usage.PromptTokens += iterUsage.PromptTokens
		usage.CompletionTokens += iterUsage.CompletionTokens
		usage.TotalTokens += iterUsage.TotalTokens

		textBuilder.WriteString(iterText)

		if len(calls) == 0 {
			messages = append(messages, CompletionMessage{Role: "assistant", Content: iterText})
			break
		}

		toolUsed = true
		for _, call := range calls {
			result := executeTool(runCtx, bus, tools, call, cfg.ToolTimeout)
			scratchpad.Append(call, result)
		}
		allEntries = append(allEntries, scratchpad.Entries()...)

		if useTextProtocol {
			messages = append(messages, CompletionMessage{Role: "assistant", Content: iterText})
			messages = append(messages, CompletionMessage{Role: "user", Content: scratchpad.AsObservationText()})
			scratchpad = Scratchpad{}
		} else {
			messages = append(messages, scratchpad.AsCompletionMessages(iterText)...)
			scratchpad = Scratchpad{}
		}
	}

	if req.CompletionMode == ModeToolsRequired && !toolUsed {
		bus.Finish(ctx, nil, &stream.ErrorPayload{Code: string(CodeToolsRequiredButUnused), Message: "mode is tools_required but the model never invoked a tool"})
		return
	}

	bus.Finish(ctx, &stream.DonePayload{
		ConversationID: req.ConversationID,
		Message:        textBuilder.String(),
		ToolCalls:      toolCallViews(allEntries),
		Metadata: stream.Metadata{
			Provider:         req.Provider.Name(),
			Model:            req.Model,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
			ProcessingTimeMS: time.Since(start).Milliseconds(),
			ToolsAvailable:   len(tools),
		},
	}, nil)
}

// runModelIteration sends one completion request and streams its
// output onto bus as token events, returning any tool calls the model
// requested. For the text-protocol shape it parses the accumulated
// text for the Thought/Action grammar instead of reading structured
// tool-call chunks.
func runModelIteration(ctx context.Context, bus *stream.Bus, req *Request, cfg LoopConfig, systemPrompt string, messages []CompletionMessage, tools []Tool, textProtocol bool) ([]models.ToolCall, string, models.TokenUsage, error) {
	completionReq := &CompletionRequest{
		Model:       req.Model,
		System:      systemPrompt,
		Messages:    messages,
		MaxTokens:   cfg.MaxTokens,
		Temperature: req.Temperature,
	}
	if !textProtocol {
		completionReq.Tools = tools
	}

	chunks, err := req.Provider.Complete(ctx, completionReq)
	if err != nil {
		return nil, "", models.TokenUsage{}, err
	}

	var textBuilder strings.Builder
	var toolCalls []models.ToolCall
	var usage models.TokenUsage

	for chunk := range chunks {
		if chunk.Error != nil {
			return nil, "", usage, chunk.Error
		}
		if chunk.Text != "" {
			textBuilder.WriteString(chunk.Text)
			if !textProtocol {
				bus.PublishToken(ctx, chunk.Text)
			}
		}
		if chunk.ToolCall != nil && !textProtocol {
			toolCalls = append(toolCalls, *chunk.ToolCall)
		}
		if chunk.InputTokens > 0 {
			usage.PromptTokens += chunk.InputTokens
		}
		if chunk.OutputTokens > 0 {
			usage.CompletionTokens += chunk.OutputTokens
		}
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	text := textBuilder.String()

	if !textProtocol {
		return toolCalls, text, usage, nil
	}

	action, parseErr := ParseTextAction(text)
	if parseErr != nil {
		// One tolerated recovery attempt: surface the malformed output as
		// an observation and let the next iteration retry, rather than
		// failing the run outright.
		bus.PublishToken(ctx, text)
		return nil, text + "\n" + RecoveryObservation, usage, nil
	}

	bus.PublishToken(ctx, text)

	if action.IsFinal {
		return nil, action.FinalAnswer, usage, nil
	}

	if _, ok := toolByName(tools, action.Action); !ok {
		return nil, text, usage, nil
	}
	return []models.ToolCall{{
		ID:    fmt.Sprintf("tp_%d", time.Now().UnixNano()),
		Name:  action.Action,
		Input: action.ActionInput,
	}}, text, usage, nil
}

// executeTool runs one tool call with its timeout, emitting the paired
// tool_start/tool_end events. Tool errors are not fatal to the run —
// they are fed back into the scratchpad so the model can react.
func executeTool(ctx context.Context, bus *stream.Bus, tools []Tool, call models.ToolCall, timeout time.Duration) models.ToolResult {
	bus.PublishToolStart(ctx, stream.ToolStartPayload{
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Input:      call.Input,
	})

	started := time.Now()

	tool, ok := toolByName(tools, call.Name)
	if !ok {
		result := models.ToolResult{ToolCallID: call.ID, Content: "tool not found: " + call.Name, IsError: true}
		bus.PublishToolEnd(ctx, stream.ToolEndPayload{
			ToolCallID:      call.ID,
			Status:          "failed",
			Error:           result.Content,
			ExecutionTimeMS: time.Since(started).Milliseconds(),
		})
		return result
	}

	toolCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		toolCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	res, err := tool.Execute(toolCtx, call.Input)
	elapsed := time.Since(started)

	var result models.ToolResult
	if err != nil {
		result = models.ToolResult{ToolCallID: call.ID, Content: err.Error(), IsError: true}
	} else if res != nil {
		result = models.ToolResult{ToolCallID: call.ID, Content: res.Content, IsError: res.IsError}
	} else {
		result = models.ToolResult{ToolCallID: call.ID, Content: "tool returned no result", IsError: true}
	}

	status := "completed"
	var errMsg string
	if result.IsError {
		status = "failed"
		errMsg = result.Content
	}

	bus.PublishToolEnd(ctx, stream.ToolEndPayload{
		ToolCallID:      call.ID,
		Status:          status,
		Output:          TruncateForEvent(result.Content, 500),
		Error:           errMsg,
		ExecutionTimeMS: elapsed.Milliseconds(),
	})

	return result
}

func toolCallViews(entries []ScratchpadEntry) []stream.ToolCallView {
	views := make([]stream.ToolCallView, 0, len(entries))
	for _, e := range entries {
		status := "completed"
		var errMsg string
		if e.Result.IsError {
			status = "failed"
			errMsg = e.Result.Content
		}
		views = append(views, stream.ToolCallView{
			Name:    e.Call.Name,
			Input:   string(e.Call.Input),
			Output:  e.Result.Content,
			Error:   errMsg,
			Status:  status,
		})
	}
	return views
}
