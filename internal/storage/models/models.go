package models

import (
	"errors"
	"time"
)

// ErrUnknownRecommendation is returned when feedback references a request
// id that was never logged.
var ErrUnknownRecommendation = errors.New("unknown recommendation")

// SubsidyRecord is a row of the subsidies table. Eligibility, Translations
// and Documents hold JSON.
type SubsidyRecord struct {
	ID             string
	Position       int
	Name           string
	Description    string
	Category       string
	Amount         float64
	Eligibility    string
	Translations   string
	Documents      string
	ApplicationURL string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type RecommendationLog struct {
	ID            string
	LandSizeAcres float64
	FarmerType    string
	District      string
	Crops         []string
	Language      string
	AIPowered     bool
	ModelUsed     string
	ErrorCode     string
	ResultCount   int
	EligibleCount int
	LatencyMS     int
	Items         []RecommendationItem
	CreatedAt     time.Time
}

type RecommendationItem struct {
	ID              int
	LogID           string
	SubsidyID       string
	Rank            int
	MatchPercentage float64
	Eligible        bool
}

type Feedback struct {
	ID        int
	LogID     string
	SubsidyID string
	Helpful   bool
	Comment   string
	CreatedAt time.Time
}

// FeedbackSample joins a feedback row with the recommendation it rates.
// Rank and MatchPercentage are zero when the subsidy was not in the
// logged result list.
type FeedbackSample struct {
	SubsidyID       string
	Helpful         bool
	AIPowered       bool
	ModelUsed       string
	Rank            int
	MatchPercentage float64
	CreatedAt       time.Time
}
