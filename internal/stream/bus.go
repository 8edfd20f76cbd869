package stream

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBusClosed is returned by Publish once the bus has emitted its
// terminal event or been explicitly closed.
var ErrBusClosed = errors.New("stream: bus closed")

// Bus is a bounded, single-producer/single-consumer ordered channel of
// Events for one request. It enforces the §4.5 invariants: events are
// totally ordered, and exactly one terminal event (done or error) is
// produced — anything published after is discarded.
type Bus struct {
	events   chan Event
	closed   atomic.Bool
	closeOnce sync.Once

	mu            sync.Mutex
	insertPos     int
	terminalSent  bool
}

// DefaultBufferSize bounds the number of undelivered events held for a
// slow consumer before Publish blocks.
const DefaultBufferSize = 64

// NewBus allocates a bus with the given buffer size (DefaultBufferSize
// if size <= 0).
func NewBus(size int) *Bus {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Bus{events: make(chan Event, size)}
}

// Events exposes the consumer-side read channel.
func (b *Bus) Events() <-chan Event {
	return b.events
}

// PublishToken emits a token event and advances the running insert-position
// counter used to stamp subsequent tool_start events.
func (b *Bus) PublishToken(ctx context.Context, content string) error {
	b.mu.Lock()
	b.insertPos += len(content)
	b.mu.Unlock()
	return b.publish(ctx, Event{Kind: KindToken, Token: &TokenPayload{Content: content}})
}

// PublishToolStart emits a tool_start event stamped with the current
// insert position (sum of lengths of all prior token contents).
func (b *Bus) PublishToolStart(ctx context.Context, p ToolStartPayload) error {
	b.mu.Lock()
	p.InsertPosition = b.insertPos
	b.mu.Unlock()
	return b.publish(ctx, Event{Kind: KindToolStart, ToolStart: &p})
}

// PublishToolEnd emits the matching tool_end event for a prior tool_start.
func (b *Bus) PublishToolEnd(ctx context.Context, p ToolEndPayload) error {
	return b.publish(ctx, Event{Kind: KindToolEnd, ToolEnd: &p})
}

// Finish publishes the terminal event (done or error, whichever is
// non-nil) and closes the bus. Only the first call has effect; later
// calls return ErrBusClosed.
func (b *Bus) Finish(ctx context.Context, done *DonePayload, errPayload *ErrorPayload) error {
	b.mu.Lock()
	if b.terminalSent {
		b.mu.Unlock()
		return ErrBusClosed
	}
	b.terminalSent = true
	b.mu.Unlock()

	err := b.publish(ctx, TerminalEvent(done, errPayload))
	b.Close()
	return err
}

// Close shuts the bus down; further Publish calls return ErrBusClosed.
// Safe to call multiple times and from a consumer that is abandoning
// the stream (cancellation path).
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		b.closed.Store(true)
		close(b.events)
	})
}

func (b *Bus) publish(ctx context.Context, e Event) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	select {
	case b.events <- e:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
