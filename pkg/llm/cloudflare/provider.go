package cloudflare

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"video-summary-be/pkg/llm"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultBaseURL = "https://api.cloudflare.com/client/v4"
	DefaultModel   = "@cf/meta/llama-3-8b-instruct"
)

// WorkersAIProvider calls the Cloudflare Workers AI REST API.
type WorkersAIProvider struct {
	client    *resty.Client
	accountID string
	model     string
}

var _ llm.LanguageModel = &WorkersAIProvider{}

func NewWorkersAIProvider(baseURL, accountID, apiToken, model string) *WorkersAIProvider {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	client := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiToken).
		SetHeader("Content-Type", "application/json").
		SetTimeout(120 * time.Second)

	return &WorkersAIProvider{
		client:    client,
		accountID: accountID,
		model:     model,
	}
}

type runRequest struct {
	Messages    []llm.Message `json:"messages"`
	Stream      bool          `json:"stream,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type runResponse struct {
	Result struct {
		Response string `json:"response"`
	} `json:"result"`
	Success bool       `json:"success"`
	Errors  []apiError `json:"errors"`
}

type streamChunk struct {
	Response string `json:"response"`
}

func (p *WorkersAIProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{}, opts...)

	var out runResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(p.request(prompt, false, options)).
		SetResult(&out).
		SetError(&out).
		Post(p.path(options))
	if err != nil {
		return "", fmt.Errorf("cloudflare request failed: %w", err)
	}
	if resp.StatusCode() != http.StatusOK || !out.Success {
		return "", fmt.Errorf("cloudflare error: status %d: %s", resp.StatusCode(), describe(out.Errors, resp.Body()))
	}
	return out.Result.Response, nil
}

// GenerateStream consumes the server-sent events stream ("data: {...}",
// terminated by "data: [DONE]").
func (p *WorkersAIProvider) GenerateStream(ctx context.Context, prompt string, onToken llm.TokenFunc, opts ...llm.Option) (string, error) {
	options := llm.ApplyOptions(llm.Options{}, opts...)

	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(p.request(prompt, true, options)).
		SetHeader("Accept", "text/event-stream").
		SetDoNotParseResponse(true).
		Post(p.path(options))
	if err != nil {
		return "", fmt.Errorf("cloudflare request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		var out runResponse
		raw := new(bytes.Buffer)
		_, _ = raw.ReadFrom(body)
		_ = json.Unmarshal(raw.Bytes(), &out)
		return "", fmt.Errorf("cloudflare error: status %d: %s", resp.StatusCode(), describe(out.Errors, raw.Bytes()))
	}

	var full strings.Builder
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			return full.String(), nil
		}
		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return full.String(), fmt.Errorf("decode stream event: %w", err)
		}
		if chunk.Response == "" {
			continue
		}
		full.WriteString(chunk.Response)
		if err := onToken(ctx, chunk.Response); err != nil {
			return full.String(), err
		}
	}
	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("read stream: %w", err)
	}
	return full.String(), nil
}

func (p *WorkersAIProvider) request(prompt string, stream bool, options llm.Options) runRequest {
	return runRequest{
		Messages:    []llm.Message{{Role: "user", Content: prompt}},
		Stream:      stream,
		MaxTokens:   options.MaxTokens,
		Temperature: options.Temperature,
	}
}

func (p *WorkersAIProvider) path(options llm.Options) string {
	model := p.model
	if options.Model != "" {
		model = options.Model
	}
	return fmt.Sprintf("/accounts/%s/ai/run/%s", p.accountID, model)
}

func describe(errs []apiError, body []byte) string {
	if len(errs) == 0 {
		return strings.TrimSpace(string(body))
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, fmt.Sprintf("%d %s", e.Code, e.Message))
	}
	return strings.Join(msgs, "; ")
}
