package summarizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/prompt"
	"video-summary-be/pkg/store"
)

var (
	testQuestion = prompt.MustNew("question", "Q:{text}", "text")
	testCombine  = prompt.MustNew("combine", "C:{text}", "text")
	testInitial  = prompt.MustNew("refine_initial", "I:{text}", "text")
	testRefine   = prompt.MustNew("refine", "R:{existing_answer}|{text}", "existing_answer", "text")
)

var errRateLimited = errors.New("429 rate limited")

// scriptedModel answers by prompt prefix and records every invocation.
type scriptedModel struct {
	mu        sync.Mutex
	calls     []string
	seen      map[string]int
	fail      func(prompt string, n int) bool
	delay     func(prompt string) time.Duration
	inFlight  atomic.Int32
	maxFlight atomic.Int32
}

func newScriptedModel() *scriptedModel {
	return &scriptedModel{seen: make(map[string]int)}
}

func (m *scriptedModel) Generate(ctx context.Context, p string, _ ...llm.Option) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, p)
	m.seen[p]++
	n := m.seen[p]
	m.mu.Unlock()

	cur := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		prev := m.maxFlight.Load()
		if cur <= prev || m.maxFlight.CompareAndSwap(prev, cur) {
			break
		}
	}

	if m.delay != nil {
		select {
		case <-time.After(m.delay(p)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if m.fail != nil && m.fail(p, n) {
		return "", errRateLimited
	}
	return answer(p), nil
}

func (m *scriptedModel) GenerateStream(ctx context.Context, p string, onToken llm.TokenFunc, opts ...llm.Option) (string, error) {
	out, err := m.Generate(ctx, p, opts...)
	if err != nil {
		return "", err
	}
	for _, tok := range strings.SplitAfter(out, " ") {
		if err := onToken(ctx, tok); err != nil {
			return "", err
		}
	}
	return out, nil
}

func (m *scriptedModel) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *scriptedModel) CallsWithPrefix(prefix string) []string {
	var out []string
	for _, c := range m.Calls() {
		if strings.HasPrefix(c, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func answer(p string) string {
	switch {
	case strings.HasPrefix(p, "Q:"):
		return "sum(" + strings.TrimPrefix(p, "Q:") + ")"
	case strings.HasPrefix(p, "C:"):
		return "final " + strings.TrimPrefix(p, "C:")
	case strings.HasPrefix(p, "I:"):
		return "init(" + strings.TrimPrefix(p, "I:") + ")"
	case strings.HasPrefix(p, "R:"):
		parts := strings.SplitN(strings.TrimPrefix(p, "R:"), "|", 2)
		return parts[0] + "+" + parts[1]
	}
	return p
}

func chunksOf(texts ...string) store.ChunkSet {
	set := make(store.ChunkSet, len(texts))
	for i, t := range texts {
		set[i] = store.Chunk{Index: i, Text: t}
	}
	return set
}

// recordingSink collects events. A broken sink fails every write.
type recordingSink struct {
	mu        sync.Mutex
	events    []StreamEvent
	errMarker error
	closed    bool
	broken    bool
}

var errClientGone = errors.New("broken pipe")

func (s *recordingSink) Write(ev StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.broken {
		return errClientGone
	}
	s.events = append(s.events, ev)
	return nil
}

func (s *recordingSink) WriteError(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMarker = err
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func fastRetry(model llm.LanguageModel, attempts int) llm.LanguageModel {
	return llm.NewRetryingModel("fake", model, llm.RetryPolicy{
		Attempts:    attempts,
		BackoffBase: time.Millisecond,
		BackoffMax:  2 * time.Millisecond,
	}, nil)
}
