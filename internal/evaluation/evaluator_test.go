package evaluation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
)

type fakeSource struct {
	samples []models.FeedbackSample
	err     error
	since   time.Time
}

func (f *fakeSource) FeedbackSamples(_ context.Context, since time.Time) ([]models.FeedbackSample, error) {
	f.since = since
	return f.samples, f.err
}

func samples() []models.FeedbackSample {
	return []models.FeedbackSample{
		{SubsidyID: "pm-kisan", Helpful: true, AIPowered: true, Rank: 1, MatchPercentage: 100},
		{SubsidyID: "pm-kisan", Helpful: true, Rank: 2, MatchPercentage: 90},
		{SubsidyID: "pmfby", Helpful: false, Rank: 5, MatchPercentage: 40},
		{SubsidyID: "drip", Helpful: false, AIPowered: true},
	}
}

func TestSummarize(t *testing.T) {
	r := Summarize(samples())

	assert.Equal(t, Stats{Total: 4, Helpful: 2, HelpfulPercentage: 50}, r.Overall)
	assert.Equal(t, Stats{Total: 2, Helpful: 1, HelpfulPercentage: 50}, r.ByMode[ModeAI])
	assert.Equal(t, Stats{Total: 2, Helpful: 1, HelpfulPercentage: 50}, r.ByMode[ModeRuleBased])
	assert.Equal(t, Stats{Total: 2, Helpful: 2, HelpfulPercentage: 100}, r.TopMatches)
	assert.Equal(t, 95.0, r.AvgMatchHelpful)
	assert.Equal(t, 40.0, r.AvgMatchUnhelpful)

	require.Len(t, r.PerSubsidy, 3)
	assert.Equal(t, "pm-kisan", r.PerSubsidy[0].SubsidyID)
	assert.Equal(t, 2, r.PerSubsidy[0].Total)
	assert.Equal(t, "drip", r.PerSubsidy[1].SubsidyID)
	assert.Equal(t, "pmfby", r.PerSubsidy[2].SubsidyID)
}

func TestSummarize_Empty(t *testing.T) {
	r := Summarize(nil)

	assert.Zero(t, r.Overall.Total)
	assert.Zero(t, r.Overall.HelpfulPercentage)
	assert.Empty(t, r.PerSubsidy)
	assert.NotNil(t, r.PerSubsidy)
}

func TestSummarize_RoundsPercentages(t *testing.T) {
	r := Summarize([]models.FeedbackSample{{Helpful: true}, {}, {}})
	assert.Equal(t, 33.33, r.Overall.HelpfulPercentage)
}

func TestEvaluate(t *testing.T) {
	src := &fakeSource{samples: samples()}
	e := NewEvaluator(src)
	now := time.Unix(1700000000, 0)
	e.now = func() time.Time { return now }

	r, err := e.Evaluate(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-24*time.Hour), src.since)
	assert.Equal(t, src.since, r.Since)
	assert.Equal(t, 4, r.Overall.Total)
}

func TestEvaluate_SourceError(t *testing.T) {
	e := NewEvaluator(&fakeSource{err: errors.New("database is locked")})

	_, err := e.Evaluate(context.Background(), time.Hour)
	assert.ErrorContains(t, err, "database is locked")
}

func TestGenerateReport(t *testing.T) {
	out := GenerateReport(Summarize(samples()))

	assert.Contains(t, out, "Feedback: 4 (50.0% helpful)")
	assert.Contains(t, out, "- ai: 2 (50.0% helpful)")
	assert.Contains(t, out, "Top matches: 2 (100.0% helpful)")
	assert.Contains(t, out, "- pm-kisan: 2 (100.0% helpful)")
}
