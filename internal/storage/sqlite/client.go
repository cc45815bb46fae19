package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

// NewFromDB wraps an open database handle.
func NewFromDB(db *sql.DB) *Client {
	return &Client{db: db}
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

func (c *Client) InitSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS subsidies (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		category TEXT NOT NULL,
		amount REAL NOT NULL,
		eligibility TEXT NOT NULL,
		translations TEXT,
		documents TEXT,
		application_url TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_subsidies_category ON subsidies(category);
	CREATE INDEX IF NOT EXISTS idx_subsidies_position ON subsidies(position);

	CREATE TABLE IF NOT EXISTS recommendation_log (
		id TEXT PRIMARY KEY,
		land_size_acres REAL NOT NULL,
		farmer_type TEXT NOT NULL,
		district TEXT NOT NULL,
		crops TEXT,
		language TEXT NOT NULL,
		ai_powered INTEGER DEFAULT 0,
		model_used TEXT,
		error_code TEXT,
		result_count INTEGER,
		eligible_count INTEGER,
		latency_ms INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reclog_district ON recommendation_log(district);
	CREATE INDEX IF NOT EXISTS idx_reclog_created ON recommendation_log(created_at);

	CREATE TABLE IF NOT EXISTS recommendation_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_id TEXT NOT NULL,
		subsidy_id TEXT NOT NULL,
		rank INTEGER NOT NULL,
		match_percentage REAL NOT NULL,
		eligible INTEGER NOT NULL,
		FOREIGN KEY (log_id) REFERENCES recommendation_log(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_items_log ON recommendation_items(log_id);

	CREATE TABLE IF NOT EXISTS feedback (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		log_id TEXT NOT NULL,
		subsidy_id TEXT,
		helpful INTEGER NOT NULL,
		comment TEXT,
		created_at INTEGER NOT NULL,
		FOREIGN KEY (log_id) REFERENCES recommendation_log(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_feedback_log ON feedback(log_id);
	`

	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

// SaveSubsidies upserts subsidies, keeping their slice order as the catalog
// order.
func (c *Client) SaveSubsidies(ctx context.Context, subsidies []*catalog.Subsidy) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	for i, s := range subsidies {
		rec, err := toRecord(s, i, now)
		if err != nil {
			return err
		}

		_, err = sq.Insert("subsidies").
			Columns("id", "position", "name", "description", "category", "amount",
				"eligibility", "translations", "documents", "application_url", "created_at", "updated_at").
			Values(rec.ID, rec.Position, rec.Name, rec.Description, rec.Category, rec.Amount,
				rec.Eligibility, rec.Translations, rec.Documents, rec.ApplicationURL,
				rec.CreatedAt.Unix(), rec.UpdatedAt.Unix()).
			Suffix(`ON CONFLICT(id) DO UPDATE SET
				position = excluded.position,
				name = excluded.name,
				description = excluded.description,
				category = excluded.category,
				amount = excluded.amount,
				eligibility = excluded.eligibility,
				translations = excluded.translations,
				documents = excluded.documents,
				application_url = excluded.application_url,
				updated_at = excluded.updated_at`).
			RunWith(tx).
			ExecContext(ctx)
		if err != nil {
			return fmt.Errorf("failed to upsert subsidy %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit subsidies: %w", err)
	}

	logger.Info("Subsidies saved", zap.Int("count", len(subsidies)))
	return nil
}

func (c *Client) ListSubsidies(ctx context.Context) ([]models.SubsidyRecord, error) {
	rows, err := sq.Select("id", "position", "name", "description", "category", "amount",
		"eligibility", "translations", "documents", "application_url", "created_at", "updated_at").
		From("subsidies").
		OrderBy("position ASC", "id ASC").
		RunWith(c.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list subsidies: %w", err)
	}
	defer rows.Close()

	var records []models.SubsidyRecord
	for rows.Next() {
		var r models.SubsidyRecord
		var description, translations, documents, applicationURL sql.NullString
		var createdAt, updatedAt int64

		err := rows.Scan(&r.ID, &r.Position, &r.Name, &description, &r.Category, &r.Amount,
			&r.Eligibility, &translations, &documents, &applicationURL, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Description = description.String
		r.Translations = translations.String
		r.Documents = documents.String
		r.ApplicationURL = applicationURL.String
		r.CreatedAt = time.Unix(createdAt, 0)
		r.UpdatedAt = time.Unix(updatedAt, 0)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read subsidies: %w", err)
	}

	return records, nil
}

// LoadCatalog builds a validated catalog from the subsidies table.
func (c *Client) LoadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	records, err := c.ListSubsidies(ctx)
	if err != nil {
		return nil, err
	}

	subsidies := make([]catalog.Subsidy, 0, len(records))
	for _, r := range records {
		s, err := fromRecord(r)
		if err != nil {
			return nil, err
		}
		subsidies = append(subsidies, s)
	}

	return catalog.New(subsidies)
}

func (c *Client) LogRecommendation(ctx context.Context, log *models.RecommendationLog) error {
	crops, err := json.Marshal(log.Crops)
	if err != nil {
		return fmt.Errorf("failed to encode crops: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = sq.Insert("recommendation_log").
		Columns("id", "land_size_acres", "farmer_type", "district", "crops", "language",
			"ai_powered", "model_used", "error_code", "result_count", "eligible_count", "latency_ms", "created_at").
		Values(log.ID, log.LandSizeAcres, log.FarmerType, log.District, string(crops), log.Language,
			boolInt(log.AIPowered), log.ModelUsed, log.ErrorCode, log.ResultCount, log.EligibleCount,
			log.LatencyMS, log.CreatedAt.Unix()).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert recommendation log: %w", err)
	}

	if len(log.Items) > 0 {
		insert := sq.Insert("recommendation_items").
			Columns("log_id", "subsidy_id", "rank", "match_percentage", "eligible")
		for _, item := range log.Items {
			insert = insert.Values(log.ID, item.SubsidyID, item.Rank, item.MatchPercentage, boolInt(item.Eligible))
		}
		if _, err := insert.RunWith(tx).ExecContext(ctx); err != nil {
			return fmt.Errorf("failed to insert recommendation items: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit recommendation log: %w", err)
	}

	logger.Debug("Recommendation recorded",
		zap.String("log_id", log.ID),
		zap.Int("items", len(log.Items)),
	)
	return nil
}

// RecentRecommendations lists the newest log entries, optionally limited
// to one district. Items are not loaded.
func (c *Client) RecentRecommendations(ctx context.Context, district string, limit int) ([]models.RecommendationLog, error) {
	query := sq.Select("id", "land_size_acres", "farmer_type", "district", "crops", "language",
		"ai_powered", "model_used", "error_code", "result_count", "eligible_count", "latency_ms", "created_at").
		From("recommendation_log").
		OrderBy("created_at DESC").
		Limit(uint64(limit))
	if district != "" {
		query = query.Where(sq.Eq{"district": district})
	}

	rows, err := query.RunWith(c.db).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get recommendation history: %w", err)
	}
	defer rows.Close()

	var logs []models.RecommendationLog
	for rows.Next() {
		var l models.RecommendationLog
		var crops, modelUsed, errorCode sql.NullString
		var aiPowered int
		var createdAt int64

		err := rows.Scan(&l.ID, &l.LandSizeAcres, &l.FarmerType, &l.District, &crops, &l.Language,
			&aiPowered, &modelUsed, &errorCode, &l.ResultCount, &l.EligibleCount, &l.LatencyMS, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if crops.Valid && crops.String != "" {
			_ = json.Unmarshal([]byte(crops.String), &l.Crops)
		}
		l.AIPowered = aiPowered == 1
		l.ModelUsed = modelUsed.String
		l.ErrorCode = errorCode.String
		l.CreatedAt = time.Unix(createdAt, 0)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read recommendation history: %w", err)
	}

	return logs, nil
}

func (c *Client) StoreFeedback(ctx context.Context, feedback *models.Feedback) error {
	_, err := sq.Insert("feedback").
		Columns("log_id", "subsidy_id", "helpful", "comment", "created_at").
		Values(feedback.LogID, feedback.SubsidyID, boolInt(feedback.Helpful), feedback.Comment, time.Now().Unix()).
		RunWith(c.db).
		ExecContext(ctx)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
		return fmt.Errorf("%w: %s", models.ErrUnknownRecommendation, feedback.LogID)
	}
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}

	logger.Info("Feedback stored",
		zap.String("log_id", feedback.LogID),
		zap.String("subsidy_id", feedback.SubsidyID),
		zap.Bool("helpful", feedback.Helpful),
	)
	return nil
}

// FeedbackSamples returns feedback given since the cutoff, joined with the
// log entry and, when present, the rated result item.
func (c *Client) FeedbackSamples(ctx context.Context, since time.Time) ([]models.FeedbackSample, error) {
	rows, err := sq.Select("f.subsidy_id", "f.helpful", "l.ai_powered", "l.model_used",
		"COALESCE(i.rank, 0)", "COALESCE(i.match_percentage, 0)", "f.created_at").
		From("feedback f").
		Join("recommendation_log l ON l.id = f.log_id").
		LeftJoin("recommendation_items i ON i.log_id = f.log_id AND i.subsidy_id = f.subsidy_id").
		Where(sq.GtOrEq{"f.created_at": since.Unix()}).
		OrderBy("f.created_at ASC").
		RunWith(c.db).
		QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	var samples []models.FeedbackSample
	for rows.Next() {
		var s models.FeedbackSample
		var subsidyID, modelUsed sql.NullString
		var helpful, aiPowered int
		var createdAt int64

		if err := rows.Scan(&subsidyID, &helpful, &aiPowered, &modelUsed, &s.Rank, &s.MatchPercentage, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan feedback: %w", err)
		}
		s.SubsidyID = subsidyID.String
		s.Helpful = helpful == 1
		s.AIPowered = aiPowered == 1
		s.ModelUsed = modelUsed.String
		s.CreatedAt = time.Unix(createdAt, 0)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}

	return samples, nil
}

func toRecord(s *catalog.Subsidy, position int, now time.Time) (models.SubsidyRecord, error) {
	eligibility, err := json.Marshal(s.Eligibility)
	if err != nil {
		return models.SubsidyRecord{}, fmt.Errorf("failed to encode eligibility of %s: %w", s.ID, err)
	}
	translations, err := json.Marshal(s.Translations)
	if err != nil {
		return models.SubsidyRecord{}, fmt.Errorf("failed to encode translations of %s: %w", s.ID, err)
	}
	documents, err := json.Marshal(s.Documents)
	if err != nil {
		return models.SubsidyRecord{}, fmt.Errorf("failed to encode documents of %s: %w", s.ID, err)
	}

	return models.SubsidyRecord{
		ID:             s.ID,
		Position:       position,
		Name:           s.Name,
		Description:    s.Description,
		Category:       string(s.Category),
		Amount:         s.Amount,
		Eligibility:    string(eligibility),
		Translations:   string(translations),
		Documents:      string(documents),
		ApplicationURL: s.ApplicationURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func fromRecord(r models.SubsidyRecord) (catalog.Subsidy, error) {
	s := catalog.Subsidy{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Category:       catalog.Category(r.Category),
		Amount:         r.Amount,
		ApplicationURL: r.ApplicationURL,
	}

	if err := json.Unmarshal([]byte(r.Eligibility), &s.Eligibility); err != nil {
		return s, fmt.Errorf("invalid eligibility for %s: %w", r.ID, err)
	}
	if t := strings.TrimSpace(r.Translations); t != "" && t != "null" {
		if err := json.Unmarshal([]byte(t), &s.Translations); err != nil {
			return s, fmt.Errorf("invalid translations for %s: %w", r.ID, err)
		}
	}
	if d := strings.TrimSpace(r.Documents); d != "" && d != "null" {
		if err := json.Unmarshal([]byte(d), &s.Documents); err != nil {
			return s, fmt.Errorf("invalid documents for %s: %w", r.ID, err)
		}
	}
	return s, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
