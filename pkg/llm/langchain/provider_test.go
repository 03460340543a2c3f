package langchain

import (
	"context"
	"errors"
	"testing"

	"video-summary-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type scriptedModel struct {
	chunks []string
	seen   llms.CallOptions
	prompt string
}

func (m *scriptedModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, opt := range options {
		opt(&m.seen)
	}
	for _, msg := range messages {
		for _, part := range msg.Parts {
			if text, ok := part.(llms.TextContent); ok {
				m.prompt += text.Text
			}
		}
	}
	var full string
	for _, c := range m.chunks {
		if m.seen.StreamingFunc != nil {
			if err := m.seen.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
		full += c
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: full}}}, nil
}

func (m *scriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

func TestGenerateMapsOptions(t *testing.T) {
	model := &scriptedModel{chunks: []string{"all ", "done"}}
	p := NewProvider(model)

	out, err := p.Generate(context.Background(), "summarize", llm.WithMaxTokens(256), llm.WithModel("gpt-4o-mini"), llm.WithTemperature(0.2))
	require.NoError(t, err)
	assert.Equal(t, "all done", out)
	assert.Equal(t, "summarize", model.prompt)
	assert.Equal(t, 256, model.seen.MaxTokens)
	assert.Equal(t, "gpt-4o-mini", model.seen.Model)
	assert.InDelta(t, 0.2, model.seen.Temperature, 1e-9)
	assert.Nil(t, model.seen.StreamingFunc)
}

func TestGenerateStream(t *testing.T) {
	model := &scriptedModel{chunks: []string{"a", "", "b"}}
	p := NewProvider(model)

	var tokens []string
	out, err := p.GenerateStream(context.Background(), "p", func(_ context.Context, tok string) error {
		tokens = append(tokens, tok)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ab", out)
	assert.Equal(t, []string{"a", "b"}, tokens)
}

func TestGenerateStreamPropagatesSinkError(t *testing.T) {
	p := NewProvider(&scriptedModel{chunks: []string{"a", "b"}})
	stop := errors.New("stop")

	_, err := p.GenerateStream(context.Background(), "p", func(context.Context, string) error { return stop })
	assert.ErrorIs(t, err, stop)
}
