package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

const maxResponseBytes = 1 << 20

// HTTPBackend posts the score request contract to a remote scoring service.
type HTTPBackend struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
}

func NewHTTPBackend(endpoint, apiKey, model string, timeout time.Duration) *HTTPBackend {
	return &HTTPBackend{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   endpoint,
		apiKey:     apiKey,
		model:      model,
	}
}

func (b *HTTPBackend) Name() string  { return "http" }
func (b *HTTPBackend) Model() string { return b.model }

func (b *HTTPBackend) Score(ctx context.Context, req ScoreRequest) (*ScoreResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode score request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.Warn("AI scoring service returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("endpoint", b.endpoint),
		)
		return nil, fmt.Errorf("%w: status %d", ErrBadStatus, resp.StatusCode)
	}

	out, err := ParseResponse(raw, req)
	if err != nil {
		return nil, err
	}
	if out.ModelUsed == "" {
		out.ModelUsed = b.model
	}
	return out, nil
}
