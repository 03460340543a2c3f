package summarizer

import (
	"context"
	"errors"
	"fmt"

	"video-summary-be/internal/pkg/logger"
	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/store"
)

const (
	StrategyMapReduce = "map_reduce"
	StrategyRefine    = "refine"
)

// ErrNoPartials is returned by map-reduce when every chunk failed.
var ErrNoPartials = errors.New("summarizer: no chunk produced a partial summary")

// Result is the outcome of a synchronous summarization.
type Result struct {
	Summary  string
	Strategy string
	Chunks   int
	// Omitted lists the indices of chunks whose summary failed after retries.
	Omitted []int
}

// Summarizer turns an ordered chunk set into one summary.
type Summarizer interface {
	Name() string
	Summarize(ctx context.Context, chunks store.ChunkSet) (*Result, error)
	// Stream runs the same pipeline and yields incremental output. The
	// returned stream must be drained or closed.
	Stream(ctx context.Context, chunks store.ChunkSet) *Stream
}

// StepError reports the chunk at which a sequential summarization failed.
type StepError struct {
	Index int
	Total int
	Cause error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("summarize chunk %d of %d: %v", e.Index, e.Total, e.Cause)
}

func (e *StepError) Unwrap() error {
	return e.Cause
}

// invoke issues one model call. No call is made once ctx is done, so a
// cancelled request never starts new work.
func invoke(ctx context.Context, model llm.LanguageModel, prompt string, onToken llm.TokenFunc) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if onToken == nil {
		return model.Generate(ctx, prompt)
	}
	return model.GenerateStream(ctx, prompt, onToken)
}

func orNop(l logger.ILogger) logger.ILogger {
	if l == nil {
		return logger.NewNopLogger()
	}
	return l
}
