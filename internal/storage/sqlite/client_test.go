package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
)

var subsidyColumns = []string{"id", "position", "name", "description", "category", "amount",
	"eligibility", "translations", "documents", "application_url", "created_at", "updated_at"}

func newMock(t *testing.T) (*Client, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewFromDB(db), mock
}

func TestSaveSubsidies(t *testing.T) {
	c, mock := newMock(t)
	subsidies := catalog.SeedCatalog().All()[:2]

	mock.ExpectBegin()
	for i, s := range subsidies {
		mock.ExpectExec(`INSERT INTO subsidies`).
			WithArgs(s.ID, i, s.Name, s.Description, string(s.Category), s.Amount,
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), s.ApplicationURL,
				sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, c.SaveSubsidies(context.Background(), subsidies))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveSubsidies_RollsBackOnError(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO subsidies`).WillReturnError(errors.New("disk I/O error"))
	mock.ExpectRollback()

	err := c.SaveSubsidies(context.Background(), catalog.SeedCatalog().All()[:1])
	assert.ErrorContains(t, err, "disk I/O error")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCatalog(t *testing.T) {
	c, mock := newMock(t)
	now := time.Now().Unix()

	rows := sqlmock.NewRows(subsidyColumns).
		AddRow("drip", 0, "Drip Irrigation", "Micro irrigation", "Irrigation", 50000.0,
			`{"minLandSize":1,"farmerType":["small","marginal"],"crops":"all","district":"all"}`,
			`{"ta":{"name":"சொட்டு நீர் பாசனம்"}}`, `["Aadhaar Card"]`, nil, now, now).
		AddRow("open", 1, "Open Scheme", nil, "Credit", 1000.0, `{}`, nil, nil, nil, now, now)
	mock.ExpectQuery(`SELECT .* FROM subsidies ORDER BY position ASC`).WillReturnRows(rows)

	cat, err := c.LoadCatalog(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	drip, err := cat.Get("drip")
	require.NoError(t, err)
	assert.True(t, drip.Eligibility.FarmerType.Allows("marginal"))
	assert.False(t, drip.Eligibility.Crops.IsRestricted())
	assert.Equal(t, "சொட்டு நீர் பாசனம்", drip.DisplayName("ta"))
	assert.Equal(t, []string{"Aadhaar Card"}, drip.Documents)
	assert.Equal(t, 1, cat.Position("open"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCatalog_InvalidEligibility(t *testing.T) {
	c, mock := newMock(t)
	now := time.Now().Unix()

	rows := sqlmock.NewRows(subsidyColumns).
		AddRow("bad", 0, "Bad", "", "Credit", 1.0, `{"crops":"paddy"}`, nil, nil, nil, now, now)
	mock.ExpectQuery(`SELECT .* FROM subsidies`).WillReturnRows(rows)

	_, err := c.LoadCatalog(context.Background())
	assert.ErrorContains(t, err, "invalid eligibility")
}

func TestLogRecommendation(t *testing.T) {
	c, mock := newMock(t)
	log := &models.RecommendationLog{
		ID:            "req-1",
		LandSizeAcres: 2,
		FarmerType:    "small",
		District:      "Erode",
		Crops:         []string{"paddy"},
		Language:      "en",
		ModelUsed:     "rule-based",
		ResultCount:   2,
		EligibleCount: 1,
		LatencyMS:     3,
		CreatedAt:     time.Unix(1700000000, 0),
		Items: []models.RecommendationItem{
			{SubsidyID: "pm-kisan", Rank: 1, MatchPercentage: 100, Eligible: true},
			{SubsidyID: "pmfby", Rank: 2, MatchPercentage: 70},
		},
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO recommendation_log`).
		WithArgs("req-1", 2.0, "small", "Erode", `["paddy"]`, "en", 0, "rule-based", "", 2, 1, 3, int64(1700000000)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO recommendation_items`).
		WithArgs("req-1", "pm-kisan", 1, 100.0, 1, "req-1", "pmfby", 2, 70.0, 0).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectCommit()

	require.NoError(t, c.LogRecommendation(context.Background(), log))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecentRecommendations(t *testing.T) {
	c, mock := newMock(t)

	rows := sqlmock.NewRows([]string{"id", "land_size_acres", "farmer_type", "district", "crops", "language",
		"ai_powered", "model_used", "error_code", "result_count", "eligible_count", "latency_ms", "created_at"}).
		AddRow("req-2", 4.0, "marginal", "Erode", `["millets"]`, "ta", 1, "gpt-4o-mini", nil, 5, 3, 120, int64(1700000100))
	mock.ExpectQuery(`SELECT .* FROM recommendation_log WHERE district = \? ORDER BY created_at DESC LIMIT 10`).
		WithArgs("Erode").
		WillReturnRows(rows)

	logs, err := c.RecentRecommendations(context.Background(), "Erode", 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.True(t, logs[0].AIPowered)
	assert.Equal(t, []string{"millets"}, logs[0].Crops)
	assert.Equal(t, "", logs[0].ErrorCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFeedback(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO feedback`).
		WithArgs("req-1", "pm-kisan", 1, "Got the money", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := c.StoreFeedback(context.Background(), &models.Feedback{LogID: "req-1", SubsidyID: "pm-kisan", Helpful: true, Comment: "Got the money"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreFeedback_UnknownRequest(t *testing.T) {
	c, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO feedback`).
		WillReturnError(sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey})
	mock.ExpectExec(`INSERT INTO feedback`).
		WillReturnError(errors.New("database is locked"))

	err := c.StoreFeedback(context.Background(), &models.Feedback{LogID: "req-404", SubsidyID: "pm-kisan"})
	assert.ErrorIs(t, err, models.ErrUnknownRecommendation)

	err = c.StoreFeedback(context.Background(), &models.Feedback{LogID: "req-1", SubsidyID: "pm-kisan"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrUnknownRecommendation)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoundTrip(t *testing.T) {
	c, err := NewClient(filepath.Join(t.TempDir(), "subsidy.db"))
	if err != nil {
		t.Skipf("sqlite3 driver unavailable: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	require.NoError(t, c.InitSchema(ctx))

	seed := catalog.SeedCatalog()
	require.NoError(t, c.SaveSubsidies(ctx, seed.All()))
	require.NoError(t, c.SaveSubsidies(ctx, seed.All()))

	loaded, err := c.LoadCatalog(ctx)
	require.NoError(t, err)
	require.Equal(t, seed.Len(), loaded.Len())
	for i, s := range seed.All() {
		got := loaded.All()[i]
		assert.Equal(t, s.ID, got.ID)
		assert.Equal(t, s.Eligibility.Crops.Values(), got.Eligibility.Crops.Values())
		assert.Equal(t, s.DisplayName("ta"), got.DisplayName("ta"))
	}

	log := &models.RecommendationLog{ID: "req-1", FarmerType: "small", District: "Erode", Language: "en", CreatedAt: time.Now(),
		Items: []models.RecommendationItem{{SubsidyID: "pm-kisan", Rank: 1, MatchPercentage: 100, Eligible: true}}}
	require.NoError(t, c.LogRecommendation(ctx, log))
	require.NoError(t, c.StoreFeedback(ctx, &models.Feedback{LogID: "req-1", SubsidyID: "pm-kisan", Helpful: true}))
	err = c.StoreFeedback(ctx, &models.Feedback{LogID: "req-unknown", SubsidyID: "pm-kisan"})
	assert.ErrorIs(t, err, models.ErrUnknownRecommendation)

	logs, err := c.RecentRecommendations(ctx, "", 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "req-1", logs[0].ID)

	samples, err := c.FeedbackSamples(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, samples, 1)
	assert.Equal(t, 1, samples[0].Rank)
	assert.True(t, samples[0].Helpful)
}

func TestFeedbackSamples(t *testing.T) {
	c, mock := newMock(t)
	since := time.Unix(1700000000, 0)

	rows := sqlmock.NewRows([]string{"subsidy_id", "helpful", "ai_powered", "model_used", "rank", "match_percentage", "created_at"}).
		AddRow("pm-kisan", 1, 1, "gpt-4o-mini", 1, 95.5, int64(1700000100)).
		AddRow("pmfby", 0, 0, "rule-based", 0, 0.0, int64(1700000200))
	mock.ExpectQuery(`SELECT f.subsidy_id, .* FROM feedback f JOIN recommendation_log l .* LEFT JOIN recommendation_items i .* WHERE f.created_at >= \?`).
		WithArgs(int64(1700000000)).
		WillReturnRows(rows)

	samples, err := c.FeedbackSamples(context.Background(), since)
	require.NoError(t, err)
	require.Len(t, samples, 2)
	assert.True(t, samples[0].Helpful)
	assert.True(t, samples[0].AIPowered)
	assert.Equal(t, 1, samples[0].Rank)
	assert.Equal(t, 95.5, samples[0].MatchPercentage)
	assert.False(t, samples[1].Helpful)
	assert.Equal(t, "rule-based", samples[1].ModelUsed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
