package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// ErrStreamingUnsupported is returned when the ResponseWriter cannot flush.
var ErrStreamingUnsupported = errors.New("httpx: streaming unsupported")

// EventStream writes text/event-stream frames.
type EventStream struct {
	w  http.ResponseWriter
	fl http.Flusher
}

// NewEventStream sends the stream headers and returns a writer for frames.
func NewEventStream(w http.ResponseWriter) (*EventStream, error) {
	fl, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	NoCache(w)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fl.Flush()

	return &EventStream{w: w, fl: fl}, nil
}

// Send writes one named event with a JSON payload.
func (s *EventStream) Send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}

// Ping writes a comment frame to keep intermediaries from closing the stream.
func (s *EventStream) Ping() error {
	if _, err := fmt.Fprint(s.w, ": ping\n\n"); err != nil {
		return err
	}
	s.fl.Flush()
	return nil
}
