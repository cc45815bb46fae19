// Package matching evaluates a farmer profile against subsidies. Every
// function here is pure: the same inputs always produce the same results.
package matching

import (
	"cmp"
	"slices"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
)

// MatchResult is the scored outcome for one subsidy.
type MatchResult struct {
	Subsidy             *catalog.Subsidy     `json:"subsidy"`
	MatchPercentage     float64              `json:"matchPercentage"`
	Eligible            bool                 `json:"eligible"`
	Reasons             []string             `json:"reasons"`
	ContributingFactors map[Criterion]Factor `json:"contributingFactors"`
	// Position is the subsidy's catalog index, the final tie-breaker.
	Position int `json:"-"`
}

type Engine struct {
	weights  Weights
	messages Dictionary
}

type Option func(*Engine)

func WithWeights(w Weights) Option {
	return func(e *Engine) {
		if w.Valid() {
			e.weights = w
		}
	}
}

// WithMessages layers message overrides on top of the built-in dictionary.
func WithMessages(overrides map[string]map[string]string) Option {
	return func(e *Engine) {
		e.messages = e.messages.Merge(overrides)
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		weights:  DefaultWeights(),
		messages: DefaultDictionary(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Weights() Weights {
	return e.weights
}

func (e *Engine) Messages() Dictionary {
	return e.messages
}

// Match evaluates, scores and explains a single subsidy.
func (e *Engine) Match(profile FarmerProfile, s *catalog.Subsidy, position int, language string) MatchResult {
	elig := Evaluate(profile, s)
	scoring := ScoreWith(e.weights, profile, s, elig)
	return MatchResult{
		Subsidy:             s,
		MatchPercentage:     scoring.MatchPercentage,
		Eligible:            elig.Eligible,
		Reasons:             e.messages.Explain(profile, s, elig.PerCriterion, language),
		ContributingFactors: scoring.Factors,
		Position:            position,
	}
}

// MatchAll matches every subsidy of the catalog and returns the ranked
// results.
func (e *Engine) MatchAll(profile FarmerProfile, c *catalog.Catalog, language string) []MatchResult {
	subsidies := c.All()
	results := make([]MatchResult, 0, len(subsidies))
	for i, s := range subsidies {
		results = append(results, e.Match(profile, s, i, language))
	}
	Rank(results)
	return results
}

// Rank orders results by match percentage, then amount, both descending,
// then by catalog position.
func Rank(results []MatchResult) {
	slices.SortStableFunc(results, func(a, b MatchResult) int {
		if c := cmp.Compare(b.MatchPercentage, a.MatchPercentage); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Subsidy.Amount, a.Subsidy.Amount); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
}
