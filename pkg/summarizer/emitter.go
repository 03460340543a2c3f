package summarizer

import (
	"context"
	"errors"
	"fmt"
)

// ErrConsumerGone wraps the sink error that signalled a disconnect.
var ErrConsumerGone = errors.New("stream consumer disconnected")

// Sink receives stream events, e.g. an HTTP response body.
type Sink interface {
	Write(ev StreamEvent) error
	// WriteError writes the error marker. The sink decides how much of err
	// the consumer gets to see.
	WriteError(err error) error
	Close() error
}

// Emit drains stream into sink one event at a time. A failed write cancels
// the producer and returns an error wrapping ErrConsumerGone.
func Emit(ctx context.Context, stream *Stream, sink Sink) error {
	defer stream.Close()

	for {
		ev, ok := stream.Next(ctx)
		if !ok {
			break
		}
		if err := sink.Write(ev); err != nil {
			stream.Close()
			return fmt.Errorf("%w: %w", ErrConsumerGone, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrConsumerGone, err)
	}

	if err := stream.Err(); err != nil {
		if werr := sink.WriteError(err); werr != nil {
			return fmt.Errorf("%w: %w", ErrConsumerGone, werr)
		}
		_ = sink.Close()
		return err
	}

	return sink.Close()
}
