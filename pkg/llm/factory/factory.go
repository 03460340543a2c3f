package factory

import (
	"context"
	"fmt"

	"video-summary-be/pkg/llm"
	"video-summary-be/pkg/llm/cloudflare"
	"video-summary-be/pkg/llm/langchain"
	"video-summary-be/pkg/llm/ollama"
)

const (
	ProviderCloudflare  = "cloudflare"
	ProviderOllama      = "ollama"
	ProviderOpenAI      = "openai"
	ProviderHuggingFace = "huggingface"
	ProviderAnthropic   = "anthropic"
	ProviderGoogle      = "google"
)

const huggingFaceRouterURL = "https://router.huggingface.co/v1"

// ProviderConfig carries everything needed to build one language model client.
type ProviderConfig struct {
	Provider  string
	Model     string
	BaseURL   string
	APIKey    string
	AccountID string // Cloudflare only
}

func NewLanguageModel(ctx context.Context, cfg ProviderConfig) (llm.LanguageModel, error) {
	switch cfg.Provider {
	case ProviderCloudflare:
		if cfg.AccountID == "" || cfg.APIKey == "" {
			return nil, fmt.Errorf("cloudflare provider requires account id and api key")
		}
		return cloudflare.NewWorkersAIProvider(cfg.BaseURL, cfg.AccountID, cfg.APIKey, cfg.Model), nil
	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434" // Default
		}
		return ollama.NewOllamaProvider(baseURL, cfg.Model), nil
	case ProviderOpenAI:
		return langchain.NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL)
	case ProviderHuggingFace:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = huggingFaceRouterURL
		}
		return langchain.NewOpenAI(cfg.Model, cfg.APIKey, baseURL)
	case ProviderAnthropic:
		return langchain.NewAnthropic(cfg.Model, cfg.APIKey)
	case ProviderGoogle:
		return langchain.NewGoogle(ctx, cfg.Model, cfg.APIKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
