package handlers

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/agri-platform/subsidy-matcher/internal/metrics"
	"github.com/agri-platform/subsidy-matcher/pkg/logger"
)

const wsRequestTimeout = 30 * time.Second

type WebSocketHandler struct {
	recommender Recommender
}

func NewWebSocketHandler(recommender Recommender) *WebSocketHandler {
	return &WebSocketHandler{
		recommender: recommender,
	}
}

// Upgrade rejects plain HTTP requests on the WebSocket route.
func (h *WebSocketHandler) Upgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("WebSocket connection established")
	metrics.WebSocketConnections.Inc()

	defer func() {
		metrics.WebSocketConnections.Dec()
		c.Close()
		logger.Info("WebSocket connection closed")
	}()

	for {
		var msg struct {
			Type     string          `json:"type"`
			Profile  json.RawMessage `json:"profile"`
			Language string          `json:"language"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Error("Failed to read WebSocket message", zap.Error(err))
			}
			break
		}

		if msg.Type != "recommend" {
			h.sendError(c, "Unsupported message type")
			continue
		}

		var req recommendRequest
		if len(msg.Profile) == 0 || json.Unmarshal(msg.Profile, &req) != nil {
			h.sendError(c, "Invalid profile")
			continue
		}
		if msg.Language != "" {
			req.Language = msg.Language
		}

		if err := h.stream(c, req); err != nil {
			logger.Error("Failed to stream recommendations", zap.Error(err))
			break
		}
	}
}

// stream writes a status frame, one result frame per recommendation and a
// closing complete frame.
func (h *WebSocketHandler) stream(c *websocket.Conn, req recommendRequest) error {
	ctx, cancel := context.WithTimeout(context.Background(), wsRequestTimeout)
	defer cancel()

	if err := c.WriteJSON(fiber.Map{"type": "status", "content": "Matching subsidies..."}); err != nil {
		return err
	}

	resp := h.recommender.Recommend(ctx, req.Profile, req.Language)
	if !resp.Success {
		return c.WriteJSON(fiber.Map{
			"type":       "error",
			"error":      resp.Error,
			"error_code": resp.ErrorCode,
		})
	}

	for i, r := range resp.Recommendations {
		frame := fiber.Map{
			"type":           "result",
			"index":          i,
			"recommendation": toRecommendationDTO(r, resp.Language, i < topMatchCount),
		}
		if err := c.WriteJSON(frame); err != nil {
			return err
		}
	}

	return c.WriteJSON(fiber.Map{
		"type":       "complete",
		"request_id": resp.RequestID,
		"total":      resp.Total,
		"ai_powered": resp.AIPowered,
		"model_used": resp.ModelUsed,
		"language":   resp.Language,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	msg := fiber.Map{
		"type":  "error",
		"error": errorMsg,
	}

	if err := c.WriteJSON(msg); err != nil {
		logger.Warn("Failed to send WebSocket error", zap.Error(err))
	}
}
