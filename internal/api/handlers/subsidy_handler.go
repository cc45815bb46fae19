package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/catalog"
	"github.com/agri-platform/subsidy-matcher/internal/evaluation"
	"github.com/agri-platform/subsidy-matcher/internal/matching"
	"github.com/agri-platform/subsidy-matcher/internal/recommend"
	"github.com/agri-platform/subsidy-matcher/internal/storage/models"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
	defaultReportDays   = 30
)

// Recommender is the orchestrator surface the handlers need.
type Recommender interface {
	Recommend(ctx context.Context, profile matching.FarmerProfile, language string) recommend.RecommendationResponse
	Catalog() *catalog.Catalog
}

type FeedbackStore interface {
	StoreFeedback(ctx context.Context, feedback *models.Feedback) error
	RecentRecommendations(ctx context.Context, district string, limit int) ([]models.RecommendationLog, error)
}

type CacheInvalidator interface {
	InvalidateRecommendations(ctx context.Context) (int, error)
}

type FeedbackEvaluator interface {
	Evaluate(ctx context.Context, window time.Duration) (*evaluation.Report, error)
}

type SubsidyHandler struct {
	recommender Recommender
	store       FeedbackStore
	cache       CacheInvalidator
	evaluator   FeedbackEvaluator
}

// NewSubsidyHandler wires the recommend and catalog routes. store and
// cache may be nil; their endpoints then answer 503.
func NewSubsidyHandler(recommender Recommender, store FeedbackStore, cache CacheInvalidator) *SubsidyHandler {
	return &SubsidyHandler{
		recommender: recommender,
		store:       store,
		cache:       cache,
	}
}

func (h *SubsidyHandler) WithEvaluator(e FeedbackEvaluator) *SubsidyHandler {
	h.evaluator = e
	return h
}

func (h *SubsidyHandler) Register(router fiber.Router) {
	router.Post("/recommend", h.Recommend)
	router.Get("/catalog", h.ListCatalog)
	router.Get("/history", h.History)
	router.Post("/feedback", h.Feedback)
	router.Get("/feedback/report", h.FeedbackReport)
	router.Delete("/cache", h.InvalidateCache)
	router.Get("/:id", h.GetSubsidy)
}

func (h *SubsidyHandler) Recommend(c *fiber.Ctx) error {
	offset, limit, err := parsePaging(c)
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, err.Error())
	}

	var req recommendRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}

	resp := h.recommender.Recommend(c.UserContext(), req.Profile, req.Language)

	status := fiber.StatusOK
	if !resp.Success {
		status = fiber.StatusInternalServerError
		if resp.ErrorCode == recommend.CodeInvalidProfile {
			status = fiber.StatusBadRequest
		}
	}

	return c.Status(status).JSON(toResponseDTO(resp, offset, limit))
}

func (h *SubsidyHandler) ListCatalog(c *fiber.Ctx) error {
	language := matching.ResolveLanguage(c.Query("language"), matching.FarmerProfile{})
	cat := h.recommender.Catalog()

	subsidies := cat.All()
	if category := c.Query("category"); category != "" {
		subsidies = cat.ByCategory(catalog.Category(category))
	}

	out := make([]SubsidyDTO, 0, len(subsidies))
	for _, s := range subsidies {
		out = append(out, toSubsidyDTO(s, language))
	}

	return c.JSON(fiber.Map{
		"subsidies":  out,
		"categories": cat.Categories(),
		"total":      len(out),
		"language":   language,
	})
}

func (h *SubsidyHandler) GetSubsidy(c *fiber.Ctx) error {
	language := matching.ResolveLanguage(c.Query("language"), matching.FarmerProfile{})

	s, err := h.recommender.Catalog().Get(c.Params("id"))
	if errors.Is(err, catalog.ErrNotFound) {
		return errorResponse(c, fiber.StatusNotFound, "Subsidy not found")
	}
	if err != nil {
		return err
	}

	return c.JSON(toSubsidyDTO(s, language))
}

func (h *SubsidyHandler) Feedback(c *fiber.Ctx) error {
	if h.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Feedback storage is disabled")
	}

	var req struct {
		RequestID string `json:"requestId"`
		SubsidyID string `json:"subsidyId"`
		Helpful   bool   `json:"helpful"`
		Comment   string `json:"comment"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "Invalid request body")
	}
	if req.RequestID == "" || req.SubsidyID == "" {
		return errorResponse(c, fiber.StatusBadRequest, "requestId and subsidyId are required")
	}
	if _, err := h.recommender.Catalog().Get(req.SubsidyID); err != nil {
		return errorResponse(c, fiber.StatusNotFound, "Subsidy not found")
	}

	fb := &models.Feedback{
		LogID:     req.RequestID,
		SubsidyID: req.SubsidyID,
		Helpful:   req.Helpful,
		Comment:   req.Comment,
		CreatedAt: time.Now(),
	}
	err := h.store.StoreFeedback(c.UserContext(), fb)
	if errors.Is(err, models.ErrUnknownRecommendation) {
		return errorResponse(c, fiber.StatusNotFound, "Recommendation not found")
	}
	if err != nil {
		logger.Error("Failed to store feedback", zap.Error(err), zap.String("request_id", req.RequestID))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to store feedback")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true})
}

func (h *SubsidyHandler) History(c *fiber.Ctx) error {
	if h.store == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Recommendation history is disabled")
	}

	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	logs, err := h.store.RecentRecommendations(c.UserContext(), c.Query("district"), limit)
	if err != nil {
		logger.Error("Failed to load recommendation history", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to load history")
	}

	entries := make([]fiber.Map, 0, len(logs))
	for _, l := range logs {
		entries = append(entries, fiber.Map{
			"id":             l.ID,
			"district":       l.District,
			"farmer_type":    l.FarmerType,
			"land_size":      l.LandSizeAcres,
			"crops":          l.Crops,
			"language":       l.Language,
			"ai_powered":     l.AIPowered,
			"model_used":     l.ModelUsed,
			"error_code":     l.ErrorCode,
			"result_count":   l.ResultCount,
			"eligible_count": l.EligibleCount,
			"latency_ms":     l.LatencyMS,
			"created_at":     l.CreatedAt,
		})
	}

	return c.JSON(fiber.Map{"history": entries, "total": len(entries)})
}

// FeedbackReport summarizes feedback of the last ?days= days. format=text
// renders the plain report.
func (h *SubsidyHandler) FeedbackReport(c *fiber.Ctx) error {
	if h.evaluator == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Feedback evaluation is disabled")
	}

	days := c.QueryInt("days", defaultReportDays)
	if days <= 0 {
		days = defaultReportDays
	}

	report, err := h.evaluator.Evaluate(c.UserContext(), time.Duration(days)*24*time.Hour)
	if err != nil {
		logger.Error("Failed to evaluate feedback", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to evaluate feedback")
	}

	if c.Query("format") == "text" {
		return c.SendString(evaluation.GenerateReport(report))
	}
	return c.JSON(report)
}

func (h *SubsidyHandler) InvalidateCache(c *fiber.Ctx) error {
	if h.cache == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "Cache is disabled")
	}

	removed, err := h.cache.InvalidateRecommendations(c.UserContext())
	if err != nil {
		logger.Error("Failed to invalidate cache", zap.Error(err))
		return errorResponse(c, fiber.StatusInternalServerError, "Failed to invalidate cache")
	}

	return c.JSON(fiber.Map{"removed": removed})
}
