package summarizer

import (
	"context"
	"sync"
)

// StreamEvent is one increment of summary output. The final event carries
// the complete summary.
type StreamEvent struct {
	TextFragment string `json:"text"`
	IsFinal      bool   `json:"final"`
	Step         int    `json:"step"`
	Omitted      []int  `json:"omitted,omitempty"`
}

// emitFunc hands one event to the consumer, blocking until it is taken.
type emitFunc func(ev StreamEvent) error

// Stream is a pull-based, cancellable sequence of events. The producer
// runs in its own goroutine and hands events over an unbuffered channel,
// so it never gets more than one event ahead of the consumer.
type Stream struct {
	events chan StreamEvent
	done   chan struct{}
	cancel context.CancelFunc

	mu  sync.Mutex
	err error
}

func newStream(parent context.Context, produce func(ctx context.Context, emit emitFunc) error) *Stream {
	ctx, cancel := context.WithCancel(parent)
	s := &Stream{
		events: make(chan StreamEvent),
		done:   make(chan struct{}),
		cancel: cancel,
	}

	go func() {
		defer close(s.done)
		defer cancel()

		err := produce(ctx, func(ev StreamEvent) error {
			select {
			case s.events <- ev:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})

		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.events)
	}()

	return s
}

// Next blocks for the next event. It returns false once the producer is
// exhausted, failed, or ctx is done; check Err to tell them apart.
func (s *Stream) Next(ctx context.Context) (StreamEvent, bool) {
	select {
	case ev, ok := <-s.events:
		return ev, ok
	case <-ctx.Done():
		s.Close()
		return StreamEvent{}, false
	}
}

// Err returns the producer error after Next has reported false.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close cancels the producer. It does not wait for an in-flight model
// call to return; use Done for that.
func (s *Stream) Close() {
	s.cancel()
}

// Done is closed when the producer goroutine has exited.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}
