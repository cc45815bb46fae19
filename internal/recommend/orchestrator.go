// Package recommend turns a farmer profile into a ranked recommendation
// response over the loaded catalog.
package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
	"github.com/agri-platform/subsidy-matcher/internal/metrics"
	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
	"github.com/agri-platform/subsidy-matcher/pkg/utils"
)

type RecommendationResponse struct {
	RequestID       string                 `json:"requestId,omitempty"`
	Success         bool                   `json:"success"`
	Recommendations []matching.MatchResult `json:"recommendations"`
	AIPowered       bool                   `json:"aiPowered"`
	ModelUsed       string                 `json:"modelUsed,omitempty"`
	Error           string                 `json:"error,omitempty"`
	ErrorCode       ErrorCode              `json:"errorCode,omitempty"`
	Language        string                 `json:"language"`
	Total           int                    `json:"total"`
}

// Cache stores AI-powered responses.
type Cache interface {
	GetRecommendation(ctx context.Context, key string, dst any) (bool, error)
	SetRecommendation(ctx context.Context, key string, v any, ttl time.Duration) error
}

// Recorder keeps a log of served recommendations.
type Recorder interface {
	LogRecommendation(ctx context.Context, log *models.RecommendationLog) error
}

type Options struct {
	// IncludeIneligible keeps subsidies the profile does not qualify for,
	// ranked below on their partial match.
	IncludeIneligible bool
	// TopN truncates the ranking; 0 keeps everything.
	TopN            int
	StrictDistricts bool
	CacheTTL        time.Duration
}

func DefaultOptions() Options {
	return Options{IncludeIneligible: true, StrictDistricts: true, CacheTTL: 15 * time.Minute}
}

type Orchestrator struct {
	catalog  *catalog.Catalog
	scorer   Scorer
	opts     Options
	cache    Cache
	recorder Recorder
}

func NewOrchestrator(c *catalog.Catalog, scorer Scorer, opts Options) *Orchestrator {
	if c == nil {
		c = catalog.Empty()
	}
	if scorer == nil {
		scorer = NewRuleBasedScorer(nil)
	}
	if opts.TopN < 0 {
		opts.TopN = 0
	}
	return &Orchestrator{catalog: c, scorer: scorer, opts: opts}
}

func (o *Orchestrator) WithCache(cache Cache) *Orchestrator {
	o.cache = cache
	return o
}

func (o *Orchestrator) WithRecorder(r Recorder) *Orchestrator {
	o.recorder = r
	return o
}

func (o *Orchestrator) Catalog() *catalog.Catalog {
	return o.catalog
}

// Recommend never returns an error: failures are reported through the
// response's Success, Error and ErrorCode fields.
func (o *Orchestrator) Recommend(ctx context.Context, profile matching.FarmerProfile, language string) (resp RecommendationResponse) {
	start := time.Now()
	requestID := uuid.New().String()
	lang := matching.ResolveLanguage(language, profile)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("Recommendation panicked",
				zap.String("request_id", requestID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			resp = failure(requestID, lang, &Error{Code: CodeInternal, Message: "internal error", Err: fmt.Errorf("%v", r)})
		}
		metrics.RecommendTotal.WithLabelValues(status(resp)).Inc()
	}()

	if err := profile.Validate(o.opts.StrictDistricts); err != nil {
		logger.Debug("Rejected farmer profile", zap.String("request_id", requestID), zap.Error(err))
		return failure(requestID, lang, NewInputError(err))
	}

	if o.catalog.Len() == 0 {
		return RecommendationResponse{
			RequestID:       requestID,
			Success:         true,
			Recommendations: []matching.MatchResult{},
			ModelUsed:       ModelRuleBased,
			Language:        lang,
		}
	}

	key := o.cacheKey(profile, lang)
	if cached, ok := o.lookup(ctx, key); ok {
		cached.RequestID = requestID
		latency := time.Since(start)
		metrics.RecommendDuration.WithLabelValues("cache").Observe(latency.Seconds())
		o.record(ctx, requestID, profile, cached, nil, latency)
		logger.Info("Recommendation served from cache",
			zap.String("request_id", requestID),
			zap.Int("results", len(cached.Recommendations)),
		)
		return cached
	}

	outcome, err := o.scorer.Score(ctx, profile, o.catalog, lang)
	if err != nil {
		logger.Error("Scoring failed", zap.String("request_id", requestID), zap.Error(err))
		return failure(requestID, lang, &Error{Code: CodeInternal, Message: "scoring failed", Err: err})
	}

	results := o.applyPolicy(outcome.Results)
	resp = RecommendationResponse{
		RequestID:       requestID,
		Success:         true,
		Recommendations: results,
		AIPowered:       outcome.AIPowered,
		ModelUsed:       outcome.ModelUsed,
		Language:        lang,
		Total:           len(results),
	}

	mode := "rules"
	if outcome.AIPowered {
		mode = "ai"
		o.store(ctx, key, resp)
	}

	latency := time.Since(start)
	metrics.RecommendDuration.WithLabelValues(mode).Observe(latency.Seconds())
	observe(results)
	o.record(ctx, requestID, profile, resp, outcome.Fallback, latency)

	logger.Info("Recommendation served",
		zap.String("request_id", requestID),
		zap.Int("results", len(results)),
		zap.Bool("ai_powered", resp.AIPowered),
		zap.String("model_used", resp.ModelUsed),
		zap.Duration("latency", latency),
	)

	return resp
}

func (o *Orchestrator) applyPolicy(ranked []matching.MatchResult) []matching.MatchResult {
	out := make([]matching.MatchResult, 0, len(ranked))
	for _, r := range ranked {
		if !r.Eligible && !o.opts.IncludeIneligible {
			continue
		}
		out = append(out, r)
	}
	if o.opts.TopN > 0 && len(out) > o.opts.TopN {
		out = out[:o.opts.TopN]
	}
	return out
}

// cacheKey hashes the normalized profile, so inputs that match identically
// share an entry. The language preference is covered by lang.
func (o *Orchestrator) cacheKey(profile matching.FarmerProfile, lang string) string {
	normalized := profile.Normalized()
	normalized.LanguagePreference = ""
	data, _ := json.Marshal(normalized)
	return utils.HashParts(
		string(data),
		lang,
		strconv.FormatBool(o.opts.IncludeIneligible),
		strconv.Itoa(o.opts.TopN),
	)
}

func (o *Orchestrator) lookup(ctx context.Context, key string) (RecommendationResponse, bool) {
	if o.cache == nil {
		return RecommendationResponse{}, false
	}

	var cached RecommendationResponse
	hit, err := o.cache.GetRecommendation(ctx, key, &cached)
	if err != nil {
		logger.Warn("Recommendation cache read failed", zap.Error(err))
		return RecommendationResponse{}, false
	}
	if !hit {
		metrics.CacheMisses.WithLabelValues("recommendation").Inc()
		return RecommendationResponse{}, false
	}

	metrics.CacheHits.WithLabelValues("recommendation").Inc()
	return cached, true
}

func (o *Orchestrator) store(ctx context.Context, key string, resp RecommendationResponse) {
	if o.cache == nil {
		return
	}
	if err := o.cache.SetRecommendation(ctx, key, resp, o.opts.CacheTTL); err != nil {
		logger.Warn("Recommendation cache write failed", zap.Error(err))
	}
}

func (o *Orchestrator) record(ctx context.Context, id string, profile matching.FarmerProfile, resp RecommendationResponse, fallback *Error, latency time.Duration) {
	if o.recorder == nil {
		return
	}

	entry := &models.RecommendationLog{
		ID:            id,
		LandSizeAcres: profile.LandSizeAcres,
		FarmerType:    profile.FarmerType,
		District:      profile.District,
		Crops:         profile.Crops,
		Language:      resp.Language,
		AIPowered:     resp.AIPowered,
		ModelUsed:     resp.ModelUsed,
		ResultCount:   len(resp.Recommendations),
		LatencyMS:     int(latency.Milliseconds()),
		CreatedAt:     time.Now(),
	}
	if fallback != nil {
		entry.ErrorCode = string(fallback.Code)
	}
	for i, r := range resp.Recommendations {
		if r.Eligible {
			entry.EligibleCount++
		}
		entry.Items = append(entry.Items, models.RecommendationItem{
			LogID:           id,
			SubsidyID:       r.Subsidy.ID,
			Rank:            i + 1,
			MatchPercentage: r.MatchPercentage,
			Eligible:        r.Eligible,
		})
	}

	if err := o.recorder.LogRecommendation(ctx, entry); err != nil {
		metrics.RecordFailures.Inc()
		logger.Warn("Failed to record recommendation", zap.String("request_id", id), zap.Error(err))
	}
}

func failure(requestID, lang string, err *Error) RecommendationResponse {
	return RecommendationResponse{
		RequestID:       requestID,
		Success:         false,
		Recommendations: []matching.MatchResult{},
		Error:           err.Error(),
		ErrorCode:       err.Code,
		Language:        lang,
	}
}

func status(resp RecommendationResponse) string {
	switch {
	case resp.Success:
		return "success"
	case resp.ErrorCode == CodeInvalidProfile:
		return "invalid"
	default:
		return "error"
	}
}

func observe(results []matching.MatchResult) {
	eligible := 0
	for _, r := range results {
		if r.Eligible {
			eligible++
		}
	}
	metrics.EligibleCount.Observe(float64(eligible))
	if len(results) > 0 {
		metrics.TopMatchScore.Observe(results[0].MatchPercentage)
	}
}
