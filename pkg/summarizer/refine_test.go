package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"

	"video-summary-be/pkg/prompt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRefine(model *scriptedModel) *RefineSummarizer {
	return NewRefineSummarizer(model, RefineConfig{Initial: testInitial, Refine: testRefine}, nil)
}

func TestRefineEmptyMakesNoCalls(t *testing.T) {
	model := newScriptedModel()
	res, err := newRefine(model).Summarize(context.Background(), nil)

	require.NoError(t, err)
	assert.Equal(t, "", res.Summary)
	assert.Empty(t, model.Calls())
}

func TestRefineSingleChunkIsOneInitialCall(t *testing.T) {
	model := newScriptedModel()
	res, err := newRefine(model).Summarize(context.Background(), chunksOf("only"))

	require.NoError(t, err)
	direct, _ := newScriptedModel().Generate(context.Background(), "I:only")
	assert.Equal(t, direct, res.Summary)
	assert.Equal(t, []string{"I:only"}, model.Calls())
}

func TestRefineFoldsSequentially(t *testing.T) {
	model := newScriptedModel()
	res, err := newRefine(model).Summarize(context.Background(), chunksOf("a", "b", "c"))

	require.NoError(t, err)
	assert.Equal(t, "init(a)+b+c", res.Summary)
	assert.Equal(t, StrategyRefine, res.Strategy)
	assert.Equal(t, []string{"I:a", "R:init(a)|b", "R:init(a)+b|c"}, model.Calls())
}

func TestRefineAbortsAtFailingStep(t *testing.T) {
	model := newScriptedModel()
	model.fail = func(p string, _ int) bool { return strings.HasSuffix(p, "|c") }

	s := NewRefineSummarizer(fastRetry(model, 3), RefineConfig{Initial: testInitial, Refine: testRefine}, nil)
	res, err := s.Summarize(context.Background(), chunksOf("a", "b", "c", "d", "e"))

	assert.Nil(t, res)
	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr), "got %v", err)
	assert.Equal(t, 2, stepErr.Index)
	assert.Equal(t, 5, stepErr.Total)
	assert.ErrorIs(t, err, errRateLimited)

	calls := model.Calls()
	assert.Len(t, calls, 5) // a, b, then three attempts at c
	for _, c := range calls {
		assert.NotContains(t, c, "|d")
	}
}

func TestRefineMissingVariableIsFatal(t *testing.T) {
	model := newScriptedModel()
	refine := prompt.MustNew("refine", "{existing_answer} {text} {style}", "existing_answer", "text", "style")

	s := NewRefineSummarizer(model, RefineConfig{Initial: testInitial, Refine: refine}, nil)
	_, err := s.Summarize(context.Background(), chunksOf("a", "b"))

	var missing *prompt.MissingVariableError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, []string{"I:a"}, model.Calls())
}

func TestRefineStreamEvents(t *testing.T) {
	model := newScriptedModel()
	sink := &recordingSink{}

	err := Emit(context.Background(), newRefine(model).Stream(context.Background(), chunksOf("a b", "c")), sink)
	require.NoError(t, err)

	require.NotEmpty(t, sink.events)
	last := sink.events[len(sink.events)-1]
	assert.True(t, last.IsFinal)
	assert.Equal(t, "init(a b)+c", last.TextFragment)

	steps := map[int]string{}
	for _, ev := range sink.events[:len(sink.events)-1] {
		assert.False(t, ev.IsFinal)
		steps[ev.Step] += ev.TextFragment
	}
	assert.Equal(t, map[int]string{0: "init(a b)", 1: "init(a b)+c"}, steps)
	assert.True(t, sink.closed)
}

func TestRefineStreamFailureWritesErrorMarker(t *testing.T) {
	model := newScriptedModel()
	model.fail = func(p string, _ int) bool { return strings.HasPrefix(p, "R:") }
	sink := &recordingSink{}

	err := Emit(context.Background(), newRefine(model).Stream(context.Background(), chunksOf("a", "b")), sink)

	var stepErr *StepError
	require.True(t, errors.As(err, &stepErr))
	assert.Equal(t, 1, stepErr.Index)
	assert.Equal(t, err, sink.errMarker)
	assert.True(t, sink.closed)
	for _, ev := range sink.events {
		assert.False(t, ev.IsFinal)
	}
}
