package livesync

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// Subscription delivers snapshots to a callback on its own goroutine.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
	closed atomic.Bool

	mu  sync.Mutex
	err error
}

func subscribe[T any](ctx context.Context, open func(context.Context) iter.Seq2[T, error], onChange func(T)) *Subscription {
	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription{cancel: cancel, done: make(chan struct{})}
	seq := open(ctx)

	go func() {
		defer close(s.done)
		defer cancel()

		for v, err := range seq {
			if err != nil {
				s.mu.Lock()
				s.err = err
				s.mu.Unlock()
				return
			}
			if s.closed.Load() || ctx.Err() != nil {
				return
			}
			onChange(v)
		}
	}()

	return s
}

// Stop asks delivery to end without waiting. It is safe to call from inside
// the callback; no further callback starts once the current one returns.
func (s *Subscription) Stop() {
	s.closed.Store(true)
	s.cancel()
}

// Close stops delivery and waits for the delivery goroutine to exit. Once it
// returns the callback will not run again. Calling Close from inside the
// callback deadlocks; use Stop there.
func (s *Subscription) Close() {
	s.Stop()
	<-s.done
}

// Done is closed when delivery has ended.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Err returns the terminal error that ended delivery, if any.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
