package llm

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBackoff    = 500 * time.Millisecond
	defaultRetryBackoffMax = 10 * time.Second
)

// RetryPolicy bounds every invocation: Attempts counts the first call too.
type RetryPolicy struct {
	Attempts    int
	BackoffBase time.Duration
	BackoffMax  time.Duration
	Timeout     time.Duration // per attempt, 0 disables
}

// RetryHook is called before a failed attempt is retried.
type RetryHook func(attempt int, err error)

// RetryingModel retries transient model failures with exponential backoff.
type RetryingModel struct {
	provider string
	model    LanguageModel
	policy   RetryPolicy
	onRetry  RetryHook
}

var _ LanguageModel = (*RetryingModel)(nil)

func NewRetryingModel(provider string, model LanguageModel, policy RetryPolicy, onRetry RetryHook) *RetryingModel {
	if policy.Attempts <= 0 || policy.Attempts > 100 {
		policy.Attempts = defaultRetryAttempts
	}
	if policy.BackoffBase <= 0 {
		policy.BackoffBase = defaultRetryBackoff
	}
	if policy.BackoffMax <= 0 {
		policy.BackoffMax = defaultRetryBackoffMax
	}
	return &RetryingModel{
		provider: provider,
		model:    model,
		policy:   policy,
		onRetry:  onRetry,
	}
}

func (m *RetryingModel) backoff() retry.Backoff {
	b := retry.NewExponential(m.policy.BackoffBase)
	b = retry.WithCappedDuration(m.policy.BackoffMax, b)
	return retry.WithMaxRetries(uint64(m.policy.Attempts-1), b) // #nosec G115 -- bounded in constructor
}

func (m *RetryingModel) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	var out string
	err := m.do(ctx, func(ctx context.Context) (bool, error) {
		var err error
		out, err = m.model.Generate(ctx, prompt, options...)
		return true, err
	})
	return out, err
}

// GenerateStream only retries attempts that failed before the first token;
// once output has reached the caller a retry would duplicate it.
func (m *RetryingModel) GenerateStream(ctx context.Context, prompt string, onToken TokenFunc, options ...Option) (string, error) {
	var out string
	var sinkErr error
	err := m.do(ctx, func(ctx context.Context) (bool, error) {
		emitted := false
		sinkErr = nil
		wrapped := func(ctx context.Context, token string) error {
			emitted = true
			if err := onToken(ctx, token); err != nil {
				sinkErr = err
				return err
			}
			return nil
		}
		var err error
		out, err = m.model.GenerateStream(ctx, prompt, wrapped, options...)
		if sinkErr != nil {
			return false, sinkErr
		}
		return !emitted, err
	})
	if sinkErr != nil {
		return out, sinkErr
	}
	return out, err
}

func (m *RetryingModel) do(ctx context.Context, call func(ctx context.Context) (bool, error)) error {
	attempt := 0
	err := retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		attempt++
		callCtx := ctx
		if m.policy.Timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, m.policy.Timeout)
			defer cancel()
		}

		retryable, err := call(callCtx)
		if err == nil {
			return nil
		}
		if !retryable || ctx.Err() != nil {
			return err
		}
		if attempt < m.policy.Attempts && m.onRetry != nil {
			m.onRetry(attempt, err)
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return NewModelError(m.provider, err)
}
