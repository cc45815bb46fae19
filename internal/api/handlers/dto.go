package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
	"github.com/agri-platform/subsidy-matcher/internal/recommend"
)

// topMatchCount is how many leading results of the full ranking are
// flagged as top matches.
const topMatchCount = 3

type SubsidyDTO struct {
	ID                 string                         `json:"id"`
	Name               string                         `json:"name"`
	Description        string                         `json:"description"`
	DisplayName        string                         `json:"displayName"`
	DisplayDescription string                         `json:"displayDescription"`
	Translations       map[string]catalog.Translation `json:"translations,omitempty"`
	Category           catalog.Category               `json:"category"`
	Amount             float64                        `json:"amount"`
	Eligibility        catalog.Eligibility            `json:"eligibility"`
	Documents          []string                       `json:"documents"`
	ApplicationURL     string                         `json:"applicationUrl,omitempty"`
}

type RecommendationDTO struct {
	Subsidy             SubsidyDTO                             `json:"subsidy"`
	MatchPercentage     float64                                `json:"matchPercentage"`
	Eligible            bool                                   `json:"eligible"`
	Reasons             []string                               `json:"reasons"`
	ContributingFactors map[matching.Criterion]matching.Factor `json:"contributingFactors"`
	TopMatch            bool                                   `json:"topMatch"`
}

type RecommendResponseDTO struct {
	RequestID       string              `json:"request_id,omitempty"`
	Success         bool                `json:"success"`
	Recommendations []RecommendationDTO `json:"recommendations"`
	AIPowered       bool                `json:"ai_powered"`
	ModelUsed       string              `json:"model_used,omitempty"`
	Error           string              `json:"error,omitempty"`
	ErrorCode       string              `json:"error_code,omitempty"`
	Total           int                 `json:"total"`
	Offset          int                 `json:"offset"`
	Language        string              `json:"language"`
}

// recommendRequest is a profile plus the requested reason language.
type recommendRequest struct {
	Profile  matching.FarmerProfile
	Language string
}

// UnmarshalJSON decodes the flat request body twice: FarmerProfile has its
// own decoder, so embedding it would hide the language field.
func (r *recommendRequest) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, &r.Profile); err != nil {
		return err
	}
	var aux struct {
		Language string `json:"language"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Language = aux.Language
	return nil
}

func toSubsidyDTO(s *catalog.Subsidy, language string) SubsidyDTO {
	return SubsidyDTO{
		ID:                 s.ID,
		Name:               s.Name,
		Description:        s.Description,
		DisplayName:        s.DisplayName(language),
		DisplayDescription: s.DisplayDescription(language),
		Translations:       s.Translations,
		Category:           s.Category,
		Amount:             s.Amount,
		Eligibility:        s.Eligibility,
		Documents:          s.Documents,
		ApplicationURL:     s.ApplicationURL,
	}
}

// toResponseDTO pages resp.Recommendations. limit 0 means everything from
// offset on; topMatch is decided on the full ranking.
func toResponseDTO(resp recommend.RecommendationResponse, offset, limit int) RecommendResponseDTO {
	out := RecommendResponseDTO{
		RequestID:       resp.RequestID,
		Success:         resp.Success,
		Recommendations: []RecommendationDTO{},
		AIPowered:       resp.AIPowered,
		ModelUsed:       resp.ModelUsed,
		Error:           resp.Error,
		ErrorCode:       string(resp.ErrorCode),
		Total:           resp.Total,
		Offset:          offset,
		Language:        resp.Language,
	}

	all := resp.Recommendations
	if offset >= len(all) {
		return out
	}
	end := len(all)
	if limit > 0 && limit < end-offset {
		end = offset + limit
	}

	for i := offset; i < end; i++ {
		out.Recommendations = append(out.Recommendations, toRecommendationDTO(all[i], resp.Language, i < topMatchCount))
	}
	return out
}

func toRecommendationDTO(r matching.MatchResult, language string, top bool) RecommendationDTO {
	reasons := r.Reasons
	if reasons == nil {
		reasons = []string{}
	}
	return RecommendationDTO{
		Subsidy:             toSubsidyDTO(r.Subsidy, language),
		MatchPercentage:     r.MatchPercentage,
		Eligible:            r.Eligible,
		Reasons:             reasons,
		ContributingFactors: r.ContributingFactors,
		TopMatch:            top,
	}
}

func errorResponse(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"message": message,
			"status":  status,
		},
	})
}

// ErrorHandler renders unhandled errors with the same envelope as the
// handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "Internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
		message = fe.Message
	}
	return errorResponse(c, status, message)
}

func NotFound(c *fiber.Ctx) error {
	return errorResponse(c, fiber.StatusNotFound, "Route not found")
}

func parsePaging(c *fiber.Ctx) (int, int, error) {
	offset := c.QueryInt("offset", 0)
	limit := c.QueryInt("limit", 0)
	if offset < 0 || limit < 0 {
		return 0, 0, errors.New("offset and limit must be non-negative")
	}
	return offset, limit, nil
}
