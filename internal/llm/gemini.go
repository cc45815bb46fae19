package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

type GeminiBackend struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

func NewGeminiBackend(ctx context.Context, apiKey, model string, temperature float32, maxTokens int) (*GeminiBackend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("genai client init failed: %w", err)
	}

	m := client.GenerativeModel(model)
	m.SetTemperature(temperature)
	if maxTokens > 0 {
		m.SetMaxOutputTokens(int32(maxTokens))
	}
	m.ResponseMIMEType = "application/json"
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	logger.Info("Gemini scoring backend initialized", zap.String("model", model))

	return &GeminiBackend{client: client, model: m, name: model}, nil
}

func (b *GeminiBackend) Name() string  { return "gemini" }
func (b *GeminiBackend) Model() string { return b.name }

func (b *GeminiBackend) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	prompt, err := userPrompt(req)
	if err != nil {
		return nil, err
	}

	resp, err := b.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifyGeminiError(ctx, err)
	}

	text, err := firstText(resp)
	if err != nil {
		return nil, err
	}

	out, err := ParseResponse([]byte(text), req)
	if err != nil {
		return nil, err
	}
	if out.ModelUsed == "" {
		out.ModelUsed = b.name
	}
	return out, nil
}

func (b *GeminiBackend) Close() error {
	return b.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("%w: no content returned", ErrMalformedResponse)
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("%w: response has no text part", ErrMalformedResponse)
	}
	return sb.String(), nil
}

func classifyGeminiError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: status %d: %s", ErrBadStatus, apiErr.Code, apiErr.Message)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
