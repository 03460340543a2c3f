package langchain

import (
	"context"
	"fmt"

	"video-summary-be/pkg/llm"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/openai"
)

// Provider adapts any langchaingo model to llm.LanguageModel.
type Provider struct {
	model llms.Model
}

var _ llm.LanguageModel = &Provider{}

func NewProvider(model llms.Model) *Provider {
	return &Provider{model: model}
}

// NewOpenAI also covers OpenAI-compatible routers (HuggingFace, Groq, ...) through baseURL.
func NewOpenAI(model, apiKey, baseURL string) (*Provider, error) {
	opts := []openai.Option{openai.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, openai.WithToken(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}
	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	return NewProvider(m), nil
}

func NewAnthropic(model, apiKey string) (*Provider, error) {
	opts := []anthropic.Option{anthropic.WithModel(model)}
	if apiKey != "" {
		opts = append(opts, anthropic.WithToken(apiKey))
	}
	m, err := anthropic.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create anthropic client: %w", err)
	}
	return NewProvider(m), nil
}

func NewGoogle(ctx context.Context, model, apiKey string) (*Provider, error) {
	opts := []googleai.Option{googleai.WithDefaultModel(model)}
	if apiKey != "" {
		opts = append(opts, googleai.WithAPIKey(apiKey))
	}
	m, err := googleai.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create googleai client: %w", err)
	}
	return NewProvider(m), nil
}

func (p *Provider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, p.model, prompt, callOptions(opts)...)
}

func (p *Provider) GenerateStream(ctx context.Context, prompt string, onToken llm.TokenFunc, opts ...llm.Option) (string, error) {
	callOpts := append(callOptions(opts), llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
		if len(chunk) == 0 {
			return nil
		}
		return onToken(ctx, string(chunk))
	}))
	return llms.GenerateFromSinglePrompt(ctx, p.model, prompt, callOpts...)
}

func callOptions(opts []llm.Option) []llms.CallOption {
	o := llm.ApplyOptions(llm.Options{}, opts...)
	var out []llms.CallOption
	if o.Model != "" {
		out = append(out, llms.WithModel(o.Model))
	}
	if o.MaxTokens > 0 {
		out = append(out, llms.WithMaxTokens(o.MaxTokens))
	}
	if o.Temperature > 0 {
		out = append(out, llms.WithTemperature(o.Temperature))
	}
	return out
}
