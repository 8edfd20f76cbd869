package stream

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// IdleTimeout bounds how long the consumer waits for the next event
// before treating the stream as stalled and closing it.
const IdleTimeout = 60 * time.Second

// ErrIdleTimeout is surfaced (as a log field, not an event — the bus is
// already past delivering events at this point) when no event arrives
// within IdleTimeout.
var ErrIdleTimeout = errors.New("stream: idle timeout waiting for next event")

// WriteSSE frames a bus's events onto w as `text/event-stream`, one
// `data: <json>\n\n` record per event, until the bus closes or the
// client disconnects. It returns the error that ended the stream, if
// any (nil on a clean terminal event).
func WriteSSE(w http.ResponseWriter, r *http.Request, bus *Bus) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return errors.New("stream: response writer does not support flushing")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	idle := time.NewTimer(IdleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			bus.Close()
			return ctx.Err()

		case <-idle.C:
			bus.Close()
			return ErrIdleTimeout

		case event, ok := <-bus.Events():
			if !ok {
				return nil
			}
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(IdleTimeout)

			payload, err := json.Marshal(event)
			if err != nil {
				return fmt.Errorf("stream: marshal event: %w", err)
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return err
			}
			flusher.Flush()

			if event.Kind == KindDone || event.Kind == KindError {
				return nil
			}
		}
	}
}
