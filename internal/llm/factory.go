package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/agri-platform/subsidy-matcher/pkg/config"
)

const (
	ProviderNone   = "none"
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderHTTP   = "http"
)

// New builds the configured backend. It returns nil without error when AI
// scoring is disabled.
func New(ctx context.Context, cfg config.AIConfig) (Backend, error) {
	switch cfg.Provider {
	case "", ProviderNone:
		return nil, nil
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, errors.New("openai provider requires ai.apiKey")
		}
		return NewOpenAIBackend(cfg.APIKey, cfg.Endpoint, cfg.Model, cfg.Temperature, cfg.MaxTokens), nil
	case ProviderGemini:
		b, err := NewGeminiBackend(ctx, cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return b, nil
	case ProviderHTTP:
		if cfg.Endpoint == "" {
			return nil, errors.New("http provider requires ai.endpoint")
		}
		return NewHTTPBackend(cfg.Endpoint, cfg.APIKey, cfg.Model, cfg.Timeout()), nil
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
}
