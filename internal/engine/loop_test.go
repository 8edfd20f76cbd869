package engine

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"testing"
	"time"

	"github.com/haasonsaas/agentgateway/internal/stream"
	"github.com/haasonsaas/agentgateway/pkg/models"
)

// loopTestProvider returns one canned set of chunks per call to
// Complete, in order, letting a test script a multi-iteration run.
type loopTestProvider struct {
	responses   [][]CompletionChunk
	currentCall int32
	supportsTools bool
}

func (p *loopTestProvider) Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error) {
	call := int(atomic.AddInt32(&p.currentCall, 1)) - 1
	ch := make(chan *CompletionChunk, 10)
	go func() {
		defer close(ch)
		if call >= len(p.responses) {
			return
		}
		for _, chunk := range p.responses[call] {
			c := chunk
			select {
			case ch <- &c:
			case <-ctx.Done():
				ch <- &CompletionChunk{Error: ctx.Err()}
				return
			}
		}
	}()
	return ch, nil
}

func (p *loopTestProvider) Name() string        { return "loop-test" }
func (p *loopTestProvider) Models() []Model     { return nil }
func (p *loopTestProvider) SupportsTools() bool { return p.supportsTools }

func newFunctionCallingProvider(responses [][]CompletionChunk) *loopTestProvider {
	return &loopTestProvider{responses: responses, supportsTools: true}
}

// echoTool returns its own arguments as the result content, recording
// how many times it was invoked.
type echoTool struct {
	calls int32
}

func (t *echoTool) Name() string           { return "echo" }
func (t *echoTool) Description() string    { return "echoes its input" }
func (t *echoTool) Schema() json.RawMessage { return json.RawMessage(`{"type":"object"}`) }
func (t *echoTool) Execute(ctx context.Context, params json.RawMessage) (*ToolResult, error) {
	atomic.AddInt32(&t.calls, 1)
	return &ToolResult{Content: string(params)}, nil
}

func drainBus(bus *stream.Bus) []stream.Event {
	var events []stream.Event
	for e := range bus.Events() {
		events = append(events, e)
	}
	return events
}

func terminalOf(events []stream.Event) stream.Event {
	return events[len(events)-1]
}

func TestRun_NoToolCall_SingleIteration(t *testing.T) {
	provider := newFunctionCallingProvider([][]CompletionChunk{
		{{Text: "hello there"}},
	})
	req := &Request{
		ConversationID: "conv-1",
		Provider:       provider,
		Model:          "loop-test-model",
		CompletionMode: ModeAuto,
		UserMessage:    "hi",
	}

	bus := stream.NewBus(0)
	go Run(context.Background(), bus, req, DefaultLoopConfig())
	events := drainBus(bus)

	done := terminalOf(events).Done
	if done == nil {
		t.Fatalf("expected a done event, got %+v", terminalOf(events))
	}
	if done.Message != "hello there" {
		t.Errorf("Message = %q, want %q", done.Message, "hello there")
	}
	if len(done.ToolCalls) != 0 {
		t.Errorf("ToolCalls = %v, want empty for a tool-less run", done.ToolCalls)
	}
}

// TestRun_ToolCallThenFinalAnswer_AccumulatesAcrossIterations covers the
// exact bug shape the maintainer review flagged: an earlier iteration
// emits text and a tool call, a later iteration gives the final answer.
// done.tool_calls must still carry the earlier call and done.message
// must be the concatenation of every iteration's streamed text, not
// just the last one.
func TestRun_ToolCallThenFinalAnswer_AccumulatesAcrossIterations(t *testing.T) {
	tool := &echoTool{}
	provider := newFunctionCallingProvider([][]CompletionChunk{
		{
			{Text: "let me check that"},
			{ToolCall: &models.ToolCall{ID: "call_1", Name: "echo", Input: json.RawMessage(`{"q":"x"}`)}},
		},
		{{Text: " the answer is 42"}},
	})
	req := &Request{
		ConversationID: "conv-2",
		Provider:       provider,
		Model:          "loop-test-model",
		CompletionMode: ModeAuto,
		UserMessage:    "what is it",
		Tools:          []Tool{tool},
	}

	bus := stream.NewBus(0)
	go Run(context.Background(), bus, req, DefaultLoopConfig())
	events := drainBus(bus)

	done := terminalOf(events).Done
	if done == nil {
		t.Fatalf("expected a done event, got %+v", terminalOf(events))
	}
	if want := "let me check that the answer is 42"; done.Message != want {
		t.Errorf("Message = %q, want %q", done.Message, want)
	}
	if len(done.ToolCalls) != 1 {
		t.Fatalf("ToolCalls = %v, want exactly one entry for the earlier iteration's call", done.ToolCalls)
	}
	if done.ToolCalls[0].Name != "echo" {
		t.Errorf("ToolCalls[0].Name = %q, want %q", done.ToolCalls[0].Name, "echo")
	}
	if atomic.LoadInt32(&tool.calls) != 1 {
		t.Errorf("tool invoked %d times, want 1", tool.calls)
	}
}

func TestRun_ToolsRequiredButNeverInvoked_Fails(t *testing.T) {
	tool := &echoTool{}
	provider := newFunctionCallingProvider([][]CompletionChunk{
		{{Text: "no tool needed here"}},
	})
	req := &Request{
		ConversationID: "conv-3",
		Provider:       provider,
		Model:          "loop-test-model",
		CompletionMode: ModeToolsRequired,
		UserMessage:    "hi",
		Tools:          []Tool{tool},
	}

	bus := stream.NewBus(0)
	go Run(context.Background(), bus, req, DefaultLoopConfig())
	events := drainBus(bus)

	term := terminalOf(events)
	if term.Error == nil {
		t.Fatalf("expected an error event, got %+v", term)
	}
	if term.Error.Code != string(CodeToolsRequiredButUnused) {
		t.Errorf("Error.Code = %q, want %q", term.Error.Code, CodeToolsRequiredButUnused)
	}
}

func TestRun_MaxIterationsExhausted_StillEmitsDone(t *testing.T) {
	tool := &echoTool{}
	// Every iteration calls the tool again, so the loop never reaches
	// the tool-less break and must stop once MaxIterations is hit.
	responses := make([][]CompletionChunk, 3)
	for i := range responses {
		responses[i] = []CompletionChunk{
			{ToolCall: &models.ToolCall{ID: "call", Name: "echo", Input: json.RawMessage(`{}`)}},
		}
	}
	provider := newFunctionCallingProvider(responses)
	req := &Request{
		ConversationID: "conv-4",
		Provider:       provider,
		Model:          "loop-test-model",
		CompletionMode: ModeAuto,
		UserMessage:    "loop forever",
		Tools:          []Tool{tool},
	}

	bus := stream.NewBus(0)
	go Run(context.Background(), bus, req, LoopConfig{MaxIterations: 3, MaxTokens: 4096, ToolTimeout: time.Second})
	events := drainBus(bus)

	done := terminalOf(events).Done
	if done == nil {
		t.Fatalf("expected a done event once MaxIterations is exhausted, got %+v", terminalOf(events))
	}
	if len(done.ToolCalls) != 3 {
		t.Errorf("ToolCalls = %d entries, want 3 (one per exhausted iteration)", len(done.ToolCalls))
	}
}

func TestRun_WallTimeExceeded_EmitsTimeoutError(t *testing.T) {
	provider := &loopTestProvider{supportsTools: true}
	provider.responses = [][]CompletionChunk{{{Text: "unreachable"}}}

	req := &Request{
		ConversationID: "conv-5",
		Provider:       provider,
		Model:          "loop-test-model",
		CompletionMode: ModeAuto,
		UserMessage:    "hi",
	}

	bus := stream.NewBus(0)
	cfg := DefaultLoopConfig()
	cfg.MaxWallTime = time.Nanosecond
	go Run(context.Background(), bus, req, cfg)
	events := drainBus(bus)

	term := terminalOf(events)
	if term.Error == nil {
		t.Fatalf("expected a timeout error event, got %+v", term)
	}
	if term.Error.Code != string(CodeTimeout) {
		t.Errorf("Error.Code = %q, want %q", term.Error.Code, CodeTimeout)
	}
}
