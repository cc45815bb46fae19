// Package evaluation measures recommendation quality from farmer feedback.
package evaluation

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

const (
	ModeAI        = "ai"
	ModeRuleBased = "rule-based"

	// topMatchRank is the last rank flagged as a top match.
	topMatchRank = 3
)

type SampleSource interface {
	FeedbackSamples(ctx context.Context, since time.Time) ([]models.FeedbackSample, error)
}

type Evaluator struct {
	source SampleSource
	now    func() time.Time
}

type Stats struct {
	Total             int     `json:"total"`
	Helpful           int     `json:"helpful"`
	HelpfulPercentage float64 `json:"helpfulPercentage"`
}

type SubsidyStats struct {
	SubsidyID string `json:"subsidyId"`
	Stats
}

// Report aggregates feedback. TopMatches covers results ranked within the
// top three; the AvgMatch fields average the match percentage of ranked
// results by verdict.
type Report struct {
	Since             time.Time        `json:"since"`
	Overall           Stats            `json:"overall"`
	ByMode            map[string]Stats `json:"byMode"`
	TopMatches        Stats            `json:"topMatches"`
	AvgMatchHelpful   float64          `json:"avgMatchHelpful"`
	AvgMatchUnhelpful float64          `json:"avgMatchUnhelpful"`
	PerSubsidy        []SubsidyStats   `json:"perSubsidy"`
}

func NewEvaluator(source SampleSource) *Evaluator {
	return &Evaluator{
		source: source,
		now:    time.Now,
	}
}

// Evaluate builds a report over feedback from the last window.
func (e *Evaluator) Evaluate(ctx context.Context, window time.Duration) (*Report, error) {
	since := e.now().Add(-window)

	samples, err := e.source.FeedbackSamples(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load feedback samples: %w", err)
	}

	report := Summarize(samples)
	report.Since = since

	logger.Info("Recommendation feedback evaluated",
		zap.Int("samples", report.Overall.Total),
		zap.Float64("helpful_percentage", report.Overall.HelpfulPercentage),
	)

	return report, nil
}

// Summarize aggregates samples. It is pure so reports can be rebuilt
// from any sample set.
func Summarize(samples []models.FeedbackSample) *Report {
	report := &Report{
		ByMode:     map[string]Stats{},
		PerSubsidy: []SubsidyStats{},
	}

	perSubsidy := map[string]*Stats{}
	var helpfulMatch, unhelpfulMatch float64
	var helpfulRanked, unhelpfulRanked int

	for _, s := range samples {
		report.Overall.add(s.Helpful)

		mode := ModeRuleBased
		if s.AIPowered {
			mode = ModeAI
		}
		st := report.ByMode[mode]
		st.add(s.Helpful)
		report.ByMode[mode] = st

		if s.Rank > 0 && s.Rank <= topMatchRank {
			report.TopMatches.add(s.Helpful)
		}

		if s.Rank > 0 {
			if s.Helpful {
				helpfulMatch += s.MatchPercentage
				helpfulRanked++
			} else {
				unhelpfulMatch += s.MatchPercentage
				unhelpfulRanked++
			}
		}

		if s.SubsidyID != "" {
			ps, ok := perSubsidy[s.SubsidyID]
			if !ok {
				ps = &Stats{}
				perSubsidy[s.SubsidyID] = ps
			}
			ps.add(s.Helpful)
		}
	}

	report.Overall.finish()
	report.TopMatches.finish()
	for mode, st := range report.ByMode {
		st.finish()
		report.ByMode[mode] = st
	}

	report.AvgMatchHelpful = average(helpfulMatch, helpfulRanked)
	report.AvgMatchUnhelpful = average(unhelpfulMatch, unhelpfulRanked)

	for id, st := range perSubsidy {
		st.finish()
		report.PerSubsidy = append(report.PerSubsidy, SubsidyStats{SubsidyID: id, Stats: *st})
	}
	sort.Slice(report.PerSubsidy, func(i, j int) bool {
		a, b := report.PerSubsidy[i], report.PerSubsidy[j]
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return a.SubsidyID < b.SubsidyID
	})

	return report
}

func (s *Stats) add(helpful bool) {
	s.Total++
	if helpful {
		s.Helpful++
	}
}

func (s *Stats) finish() {
	if s.Total == 0 {
		s.HelpfulPercentage = 0
		return
	}
	s.HelpfulPercentage = round2(float64(s.Helpful) / float64(s.Total) * 100)
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func GenerateReport(report *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Recommendation Feedback Report\n")
	fmt.Fprintf(&b, "==============================\n\n")
	fmt.Fprintf(&b, "Since: %s\n", report.Since.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Feedback: %d (%.1f%% helpful)\n\n", report.Overall.Total, report.Overall.HelpfulPercentage)

	fmt.Fprintf(&b, "By scoring mode:\n")
	for _, mode := range []string{ModeAI, ModeRuleBased} {
		st := report.ByMode[mode]
		fmt.Fprintf(&b, "- %s: %d (%.1f%% helpful)\n", mode, st.Total, st.HelpfulPercentage)
	}

	fmt.Fprintf(&b, "\nTop matches: %d (%.1f%% helpful)\n", report.TopMatches.Total, report.TopMatches.HelpfulPercentage)
	fmt.Fprintf(&b, "Average match: %.2f helpful, %.2f not helpful\n", report.AvgMatchHelpful, report.AvgMatchUnhelpful)

	if len(report.PerSubsidy) > 0 {
		fmt.Fprintf(&b, "\nPer subsidy:\n")
		for _, s := range report.PerSubsidy {
			fmt.Fprintf(&b, "- %s: %d (%.1f%% helpful)\n", s.SubsidyID, s.Total, s.HelpfulPercentage)
		}
	}

	return b.String()
}
