package http

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/aussiebroadwan/gather/pkg/gathersdk"
	"github.com/aussiebroadwan/gather/pkg/httpx"
	"github.com/aussiebroadwan/gather/pkg/slogx"
)

// StreamConfig controls server-sent event streams.
type StreamConfig struct {
	// Ping is the keep-alive interval. Defaults to DefaultStreamPing.
	Ping time.Duration

	// Closing ends every open stream when closed, so server shutdown does
	// not wait on them.
	Closing <-chan struct{}
}

type frame[T any] struct {
	v   T
	err error
}

// serveStream writes every snapshot of seq as a named server-sent event
// until the client goes away or seq ends. A terminal error is sent as an
// "error" event carrying the usual error body.
func serveStream[T, R any](w http.ResponseWriter, r *http.Request, cfg StreamConfig, seq iter.Seq2[T, error], name string, render func(T) R) {
	log := slogx.FromContext(r.Context())

	es, err := httpx.NewEventStream(w)
	if err != nil {
		writeServiceError(w, r, "open event stream", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Only the handler goroutine writes to w.
	frames := make(chan frame[T])
	go func() {
		defer close(frames)
		for v, err := range seq {
			select {
			case frames <- frame[T]{v: v, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	ping := cfg.Ping
	if ping <= 0 {
		ping = DefaultStreamPing
	}
	ticker := time.NewTicker(ping)
	defer ticker.Stop()

	log.Debug("event stream opened", "stream", name)
	defer log.Debug("event stream closed", "stream", name)

	for {
		select {
		case <-ctx.Done():
			return

		case <-cfg.Closing:
			return

		case <-ticker.C:
			if err := es.Ping(); err != nil {
				return
			}

		case f, ok := <-frames:
			if !ok {
				return
			}
			if f.err != nil {
				status, body := apiError(f.err)
				if status >= http.StatusInternalServerError {
					log.Error("event stream failed", "stream", name, "err", f.err)
				}
				_ = es.Send(gathersdk.StreamError, body)
				return
			}
			if err := es.Send(name, render(f.v)); err != nil {
				return
			}
		}
	}
}
