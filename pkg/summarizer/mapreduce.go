package summarizer

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"video-summary-be/internal/pkg/logger"
	"video-summary-be/pkg/chunker"
	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/prompt"
	"video-summary-be/pkg/store"

	"golang.org/x/sync/errgroup"
)

const (
	defaultMaxConcurrency   = 4
	defaultMaxCollapseDepth = 4
	partialSeparator        = "\n\n"
)

type MapReduceConfig struct {
	// Question summarizes a single chunk; Combine merges the partials.
	Question prompt.Template
	Combine  prompt.Template
	// Chunker re-splits the combined partials when they are too large for
	// one combine call.
	Chunker          *chunker.Chunker
	MaxConcurrency   int
	MaxCollapseDepth int
}

// MapReduceSummarizer summarizes chunks independently, then combines the
// partial summaries in chunk order.
type MapReduceSummarizer struct {
	model  llm.LanguageModel
	cfg    MapReduceConfig
	logger logger.ILogger
}

var _ Summarizer = (*MapReduceSummarizer)(nil)

func NewMapReduceSummarizer(model llm.LanguageModel, cfg MapReduceConfig, log logger.ILogger) *MapReduceSummarizer {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = defaultMaxConcurrency
	}
	if cfg.MaxCollapseDepth <= 0 {
		cfg.MaxCollapseDepth = defaultMaxCollapseDepth
	}
	return &MapReduceSummarizer{model: model, cfg: cfg, logger: orNop(log)}
}

func (s *MapReduceSummarizer) Name() string { return StrategyMapReduce }

func (s *MapReduceSummarizer) Summarize(ctx context.Context, chunks store.ChunkSet) (*Result, error) {
	res := &Result{Strategy: StrategyMapReduce, Chunks: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}

	combined, omitted, err := s.reduceInput(ctx, chunks)
	if err != nil {
		return nil, err
	}
	res.Omitted = omitted

	summary, err := s.combine(ctx, combined, nil)
	if err != nil {
		return nil, err
	}
	res.Summary = summary
	return res, nil
}

// Stream runs the map phase silently, then streams the combine call. Its
// tokens carry Step == len(chunks).
func (s *MapReduceSummarizer) Stream(ctx context.Context, chunks store.ChunkSet) *Stream {
	return newStream(ctx, func(ctx context.Context, emit emitFunc) error {
		if len(chunks) == 0 {
			return emit(StreamEvent{IsFinal: true})
		}

		combined, omitted, err := s.reduceInput(ctx, chunks)
		if err != nil {
			return err
		}

		step := len(chunks)
		summary, err := s.combine(ctx, combined, func(_ context.Context, token string) error {
			return emit(StreamEvent{TextFragment: token, Step: step})
		})
		if err != nil {
			return err
		}
		return emit(StreamEvent{TextFragment: summary, IsFinal: true, Step: step, Omitted: omitted})
	})
}

// reduceInput runs the map phase over chunks and collapses the joined
// partials until they fit one combine call.
func (s *MapReduceSummarizer) reduceInput(ctx context.Context, chunks store.ChunkSet) (string, []int, error) {
	texts := chunks.Texts()
	results, failed, err := s.mapPhase(ctx, texts, 0)
	if err != nil {
		return "", nil, err
	}

	partials := make([]string, 0, len(texts))
	var omitted []int
	for i := range texts {
		if failed[i] {
			omitted = append(omitted, i)
			continue
		}
		partials = append(partials, results[i])
	}
	if len(partials) == 0 {
		return "", omitted, fmt.Errorf("%w (%d chunks)", ErrNoPartials, len(texts))
	}
	if len(omitted) > 0 {
		s.logger.Warn("SUMMARIZER", "Chunks omitted from summary", map[string]interface{}{
			"omitted": omitted,
			"total":   len(chunks),
		})
	}

	combined := strings.Join(partials, partialSeparator)
	if s.cfg.Chunker == nil {
		return combined, omitted, nil
	}

	for depth := 1; depth <= s.cfg.MaxCollapseDepth && utf8.RuneCountInString(combined) > s.cfg.Chunker.Size(); depth++ {
		collapsed, ok, err := s.collapse(ctx, combined, depth)
		if err != nil {
			return "", nil, err
		}
		if !ok {
			break
		}
		combined = collapsed
	}
	return combined, omitted, nil
}

// collapse summarizes one round of joined partials. A piece whose call
// fails keeps its input text, so no partial is lost; ok is false when the
// round made no progress.
func (s *MapReduceSummarizer) collapse(ctx context.Context, combined string, depth int) (string, bool, error) {
	texts := s.cfg.Chunker.Split(store.NewDocument(combined, nil)).Texts()
	results, failed, err := s.mapPhase(ctx, texts, depth)
	if err != nil {
		return "", false, err
	}

	next := make([]string, len(texts))
	kept := 0
	for i := range texts {
		if failed[i] {
			next[i] = texts[i]
			kept++
			continue
		}
		next[i] = results[i]
	}
	if kept == len(texts) {
		s.logger.Warn("SUMMARIZER", "Collapse round failed, combining uncollapsed partials", map[string]interface{}{"depth": depth})
		return combined, false, nil
	}

	collapsed := strings.Join(next, partialSeparator)
	if utf8.RuneCountInString(collapsed) >= utf8.RuneCountInString(combined) {
		s.logger.Warn("SUMMARIZER", "Collapse did not shrink partial summaries", map[string]interface{}{"depth": depth})
		return combined, false, nil
	}
	return collapsed, true, nil
}

// mapPhase summarizes every text with the question prompt on a bounded
// worker group. Results are indexed like texts; model failures are
// isolated and flagged in failed. Prompt errors and cancellation abort
// the phase.
func (s *MapReduceSummarizer) mapPhase(ctx context.Context, texts []string, depth int) ([]string, []bool, error) {
	results := make([]string, len(texts))
	failed := make([]bool, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrency)

	for i, text := range texts {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			p, err := prompt.Render(s.cfg.Question, map[string]string{"text": text})
			if err != nil {
				return err
			}
			out, err := invoke(gctx, s.model, p, nil)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				s.logger.Warn("SUMMARIZER", "Chunk summary failed", map[string]interface{}{
					"chunk": i,
					"depth": depth,
					"error": err.Error(),
				})
				failed[i] = true
				return nil
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return results, failed, nil
}

func (s *MapReduceSummarizer) combine(ctx context.Context, combined string, onToken llm.TokenFunc) (string, error) {
	p, err := prompt.Render(s.cfg.Combine, map[string]string{"text": combined})
	if err != nil {
		return "", err
	}
	out, err := invoke(ctx, s.model, p, onToken)
	if err != nil {
		if ctx.Err() != nil {
			return "", err
		}
		return "", fmt.Errorf("combine partial summaries: %w", err)
	}
	return out, nil
}
