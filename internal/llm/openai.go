package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

type OpenAIBackend struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewOpenAIBackend builds a chat completion backend. baseURL overrides the
// API endpoint when set, for OpenAI-compatible gateways.
func NewOpenAIBackend(apiKey, baseURL, model string, temperature float32, maxTokens int) *OpenAIBackend {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	logger.Info("OpenAI scoring backend initialized", zap.String("model", model))

	return &OpenAIBackend{
		client:      openai.NewClientWithConfig(cfg),
		model:       model,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (b *OpenAIBackend) Name() string  { return "openai" }
func (b *OpenAIBackend) Model() string { return b.model }

func (b *OpenAIBackend) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	prompt, err := userPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: b.temperature,
		MaxTokens:   b.maxTokens,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, classifyOpenAIError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices returned", ErrMalformedResponse)
	}

	logger.Debug("AI scores generated",
		zap.String("backend", b.Name()),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)

	out, err := ParseResponse([]byte(resp.Choices[0].Message.Content), req)
	if err != nil {
		return nil, err
	}
	if out.ModelUsed == "" {
		out.ModelUsed = resp.Model
	}
	return out, nil
}

func classifyOpenAIError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrBadStatus, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: status %d", ErrBadStatus, reqErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
