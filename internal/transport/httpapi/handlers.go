package httpapi

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/sandevgo/coinbot/internal/core"
)

type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response   string      `json:"response"`
	Source     string      `json:"source,omitempty"`
	Confidence float64     `json:"confidence"`
	Entity     string      `json:"entity,omitempty"`
	Intent     core.Intent `json:"intent"`
	SessionID  string      `json:"session_id"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req chatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}

	req.Message = strings.TrimSpace(req.Message)
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "Message is required"})
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	result := s.pipeline.ProcessQuery(s.ctx, req.SessionID, req.Message)

	return c.JSON(chatResponse{
		Response:   result.Response,
		Source:     result.Source,
		Confidence: result.Confidence,
		Entity:     result.Entity,
		Intent:     result.Intent,
		SessionID:  req.SessionID,
	})
}

type resetRequest struct {
	SessionID string `json:"session_id"`
}

func (s *Server) handleReset(c *fiber.Ctx) error {
	var req resetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid request body"})
	}
	if req.SessionID == "" {
		req.SessionID = "default"
	}

	s.pipeline.Reset(req.SessionID)

	return c.JSON(fiber.Map{
		"message":    "Conversation reset successfully",
		"session_id": req.SessionID,
	})
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":      "healthy",
		"version":     core.Version,
		"coins_in_kb": s.coins,
	})
}

func (s *Server) handleSessions(c *fiber.Ctx) error {
	sessions := s.pipeline.ActiveSessions()
	return c.JSON(fiber.Map{
		"active_sessions": sessions,
		"count":           len(sessions),
	})
}
