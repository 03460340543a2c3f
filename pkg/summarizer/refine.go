package summarizer

import (
	"context"

	"video-summary-be/internal/pkg/logger"
	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/prompt"
	"video-summary-be/pkg/store"
)

type RefineConfig struct {
	// Initial summarizes the first chunk; Refine folds each later chunk
	// into the running summary ({existing_answer}, {text}).
	Initial prompt.Template
	Refine  prompt.Template
}

// RefineSummarizer folds chunks into a running summary one at a time.
type RefineSummarizer struct {
	model  llm.LanguageModel
	cfg    RefineConfig
	logger logger.ILogger
}

var _ Summarizer = (*RefineSummarizer)(nil)

func NewRefineSummarizer(model llm.LanguageModel, cfg RefineConfig, log logger.ILogger) *RefineSummarizer {
	return &RefineSummarizer{model: model, cfg: cfg, logger: orNop(log)}
}

func (s *RefineSummarizer) Name() string { return StrategyRefine }

type refinePhase int

const (
	phaseStart refinePhase = iota
	phaseRefining
	phaseDone
)

// refineState belongs to exactly one request.
type refineState struct {
	phase          refinePhase
	step           int
	runningSummary string
}

func (st *refineState) prompt(cfg RefineConfig, chunk store.Chunk) (string, error) {
	if st.phase == phaseStart {
		return prompt.Render(cfg.Initial, map[string]string{"text": chunk.Text})
	}
	return prompt.Render(cfg.Refine, map[string]string{
		"existing_answer": st.runningSummary,
		"text":            chunk.Text,
	})
}

func (st *refineState) fold(summary string) {
	st.runningSummary = summary
	st.step++
	st.phase = phaseRefining
}

func (st *refineState) finish() {
	st.phase = phaseDone
}

func (s *RefineSummarizer) Summarize(ctx context.Context, chunks store.ChunkSet) (*Result, error) {
	summary, err := s.run(ctx, chunks, nil)
	if err != nil {
		return nil, err
	}
	return &Result{Summary: summary, Strategy: StrategyRefine, Chunks: len(chunks)}, nil
}

// Stream surfaces the tokens of every step tagged with the chunk index,
// then a final event carrying the complete summary.
func (s *RefineSummarizer) Stream(ctx context.Context, chunks store.ChunkSet) *Stream {
	return newStream(ctx, func(ctx context.Context, emit emitFunc) error {
		summary, err := s.run(ctx, chunks, func(step int) llm.TokenFunc {
			return func(_ context.Context, token string) error {
				return emit(StreamEvent{TextFragment: token, Step: step})
			}
		})
		if err != nil {
			return err
		}
		last := len(chunks) - 1
		if last < 0 {
			last = 0
		}
		return emit(StreamEvent{TextFragment: summary, IsFinal: true, Step: last})
	})
}

func (s *RefineSummarizer) run(ctx context.Context, chunks store.ChunkSet, tokens func(step int) llm.TokenFunc) (string, error) {
	st := &refineState{}

	for _, chunk := range chunks {
		p, err := st.prompt(s.cfg, chunk)
		if err != nil {
			return "", err
		}

		var onToken llm.TokenFunc
		if tokens != nil {
			onToken = tokens(st.step)
		}
		out, err := invoke(ctx, s.model, p, onToken)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return "", ctxErr
			}
			s.logger.Error("SUMMARIZER", "Refine step failed", map[string]interface{}{
				"step":  st.step,
				"total": len(chunks),
				"error": err,
			})
			return "", &StepError{Index: st.step, Total: len(chunks), Cause: err}
		}
		st.fold(out)
	}

	st.finish()
	return st.runningSummary, nil
}
