package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyModel struct {
	failures int32
	calls    atomic.Int32
	tokens   []string
	block    bool
}

func (f *flakyModel) Generate(ctx context.Context, prompt string, _ ...Option) (string, error) {
	n := f.calls.Add(1)
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if n <= f.failures {
		return "", errors.New("rate limited")
	}
	return "ok:" + prompt, nil
}

func (f *flakyModel) GenerateStream(ctx context.Context, prompt string, onToken TokenFunc, _ ...Option) (string, error) {
	n := f.calls.Add(1)
	for _, tok := range f.tokens {
		if err := onToken(ctx, tok); err != nil {
			return "", err
		}
	}
	if n <= f.failures {
		return "", errors.New("stream broke")
	}
	return "ok:" + prompt, nil
}

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{Attempts: attempts, BackoffBase: time.Millisecond, BackoffMax: 2 * time.Millisecond}
}

func TestRetryingModelRecovers(t *testing.T) {
	model := &flakyModel{failures: 2}
	var retries []int
	m := NewRetryingModel("fake", model, fastPolicy(3), func(attempt int, err error) {
		retries = append(retries, attempt)
	})

	out, err := m.Generate(context.Background(), "p")
	require.NoError(t, err)
	assert.Equal(t, "ok:p", out)
	assert.EqualValues(t, 3, model.calls.Load())
	assert.Equal(t, []int{1, 2}, retries)
}

func TestRetryingModelExhausts(t *testing.T) {
	model := &flakyModel{failures: 5}
	m := NewRetryingModel("fake", model, fastPolicy(3), nil)

	_, err := m.Generate(context.Background(), "p")
	var modelErr *ModelError
	require.True(t, errors.As(err, &modelErr), "want ModelError, got %v", err)
	assert.Equal(t, "fake", modelErr.Provider)
	assert.EqualError(t, modelErr.Cause, "rate limited")
	assert.EqualValues(t, 3, model.calls.Load())
}

func TestRetryingModelPerAttemptTimeout(t *testing.T) {
	model := &flakyModel{block: true}
	policy := fastPolicy(2)
	policy.Timeout = 5 * time.Millisecond
	m := NewRetryingModel("fake", model, policy, nil)

	_, err := m.Generate(context.Background(), "p")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.EqualValues(t, 2, model.calls.Load())
}

func TestRetryingModelStopsOnParentCancel(t *testing.T) {
	model := &flakyModel{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := NewRetryingModel("fake", model, fastPolicy(3), nil)

	_, err := m.Generate(ctx, "p")
	assert.ErrorIs(t, err, context.Canceled)
	assert.LessOrEqual(t, model.calls.Load(), int32(1))
}

func TestRetryingModelStreamNoRetryAfterOutput(t *testing.T) {
	model := &flakyModel{failures: 1, tokens: []string{"a", "b"}}
	m := NewRetryingModel("fake", model, fastPolicy(3), nil)

	var got []string
	_, err := m.GenerateStream(context.Background(), "p", func(_ context.Context, tok string) error {
		got = append(got, tok)
		return nil
	})
	var modelErr *ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.EqualValues(t, 1, model.calls.Load())
	assert.Equal(t, []string{"a", "b"}, got)
}

func TestRetryingModelStreamRetriesBeforeOutput(t *testing.T) {
	model := &flakyModel{failures: 1}
	m := NewRetryingModel("fake", model, fastPolicy(3), nil)

	out, err := m.GenerateStream(context.Background(), "p", func(context.Context, string) error { return nil })
	require.NoError(t, err)
	assert.Equal(t, "ok:p", out)
	assert.EqualValues(t, 2, model.calls.Load())
}

func TestRetryingModelStreamSinkError(t *testing.T) {
	model := &flakyModel{tokens: []string{"a", "b"}}
	m := NewRetryingModel("fake", model, fastPolicy(3), nil)
	gone := errors.New("client gone")

	_, err := m.GenerateStream(context.Background(), "p", func(context.Context, string) error { return gone })
	assert.ErrorIs(t, err, gone)
	assert.EqualValues(t, 1, model.calls.Load())
}
