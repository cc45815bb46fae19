package recommend

import (
	"context"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/llm"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
	"github.com/agri-platform/subsidy-matcher/internal/metrics"
	"github.com/agri-platform/subsidy-matcher/pkg/circuitbreaker"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

const ModelRuleBased = "rule-based"

// Outcome is a ranked scoring of the whole catalog.
type Outcome struct {
	Results   []matching.MatchResult
	AIPowered bool
	ModelUsed string
	// Fallback is set when AI scoring was attempted and failed.
	Fallback *Error
}

// Scorer scores every subsidy of a catalog for a profile.
type Scorer interface {
	Score(ctx context.Context, profile matching.FarmerProfile, c *catalog.Catalog, language string) (Outcome, error)
}

type RuleBasedScorer struct {
	engine *matching.Engine
}

func NewRuleBasedScorer(engine *matching.Engine) *RuleBasedScorer {
	if engine == nil {
		engine = matching.NewEngine()
	}
	return &RuleBasedScorer{engine: engine}
}

func (s *RuleBasedScorer) Score(_ context.Context, profile matching.FarmerProfile, c *catalog.Catalog, language string) (Outcome, error) {
	return Outcome{
		Results:   s.engine.MatchAll(profile, c, language),
		ModelUsed: ModelRuleBased,
	}, nil
}

// AIScorer delegates scores and reasons to an AI backend and falls back to
// the rule engine when the backend fails. Eligibility and contributing
// factors always come from the rules.
type AIScorer struct {
	backend llm.Backend
	rules   *RuleBasedScorer
	breaker *circuitbreaker.CircuitBreaker
	timeout time.Duration
}

func NewAIScorer(backend llm.Backend, rules *RuleBasedScorer, breaker *circuitbreaker.CircuitBreaker, timeout time.Duration) *AIScorer {
	if rules == nil {
		rules = NewRuleBasedScorer(nil)
	}
	if breaker == nil {
		breaker = circuitbreaker.New("ai-"+backend.Name(), circuitbreaker.Config{Logger: logger.GetLogger()})
	}
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &AIScorer{backend: backend, rules: rules, breaker: breaker, timeout: timeout}
}

func (s *AIScorer) Score(ctx context.Context, profile matching.FarmerProfile, c *catalog.Catalog, language string) (Outcome, error) {
	base, err := s.rules.Score(ctx, profile, c, language)
	if err != nil {
		return Outcome{}, err
	}
	if len(base.Results) == 0 {
		return base, nil
	}

	req := llm.ScoreRequest{
		Profile:    profile,
		Candidates: candidates(base.Results),
		Language:   language,
	}

	var resp *llm.ScoreResponse
	start := time.Now()
	err = s.breaker.Execute(ctx, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		r, err := s.backend.Score(callCtx, req)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	metrics.AIDuration.WithLabelValues(s.backend.Name()).Observe(time.Since(start).Seconds())

	if err != nil {
		fallback := classifyAIError(err)
		metrics.AIRequests.WithLabelValues(s.backend.Name(), "failure").Inc()
		metrics.AIFallbacks.WithLabelValues(string(fallback.Code)).Inc()
		logger.Warn("AI scoring failed, using rule-based results",
			zap.String("backend", s.backend.Name()),
			zap.String("code", string(fallback.Code)),
			zap.Error(err),
		)
		base.Fallback = fallback
		return base, nil
	}
	metrics.AIRequests.WithLabelValues(s.backend.Name(), "success").Inc()

	model := resp.ModelUsed
	if model == "" {
		model = s.backend.Model()
	}

	return Outcome{
		Results:   merge(base.Results, resp),
		AIPowered: true,
		ModelUsed: model,
	}, nil
}

func (s *AIScorer) Breaker() *circuitbreaker.CircuitBreaker {
	return s.breaker
}

func candidates(results []matching.MatchResult) []llm.Candidate {
	out := make([]llm.Candidate, 0, len(results))
	for _, r := range results {
		out = append(out, llm.Candidate{
			ID:          r.Subsidy.ID,
			Name:        r.Subsidy.Name,
			Category:    string(r.Subsidy.Category),
			Amount:      r.Subsidy.Amount,
			Eligibility: r.Subsidy.Eligibility,
			Eligible:    r.Eligible,
			RuleScore:   r.MatchPercentage,
		})
	}
	return out
}

// merge takes scores and non-empty reasons from the AI and re-ranks.
func merge(results []matching.MatchResult, resp *llm.ScoreResponse) []matching.MatchResult {
	scores := resp.ByID()
	merged := make([]matching.MatchResult, len(results))
	for i, r := range results {
		if s, ok := scores[r.Subsidy.ID]; ok {
			r.MatchPercentage = math.Round(s.Score*100) / 100
			if reasons := cleanReasons(s.Reasons); len(reasons) > 0 {
				r.Reasons = reasons
			}
		}
		merged[i] = r
	}
	matching.Rank(merged)
	return merged
}

func cleanReasons(reasons []string) []string {
	out := make([]string, 0, len(reasons))
	for _, r := range reasons {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}
