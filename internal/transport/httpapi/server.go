// Package httpapi exposes the query pipeline over a small REST surface.
package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/sandevgo/coinbot/internal/core"
	"github.com/sandevgo/coinbot/pkg/log"
)

// QueryPipeline is the part of the pipeline the HTTP layer needs.
type QueryPipeline interface {
	ProcessQuery(ctx context.Context, sessionID, query string) core.PipelineResult
	Reset(sessionID string)
	ActiveSessions() []string
}

// Server implements srv.Service.
type Server struct {
	addr     string
	pipeline QueryPipeline
	coins    int
	app      *fiber.App

	// base context for request processing, set on Start
	ctx context.Context
}

func NewServer(addr string, pipeline QueryPipeline, coinsInKB int) *Server {
	app := fiber.New(fiber.Config{
		AppName:               core.AppName,
		DisableStartupMessage: true,
	})

	s := &Server{
		addr:     addr,
		pipeline: pipeline,
		coins:    coinsInKB,
		app:      app,
		ctx:      context.Background(),
	}

	app.Post("/api/chat", s.handleChat)
	app.Post("/api/reset", s.handleReset)
	app.Get("/api/health", s.handleHealth)
	app.Get("/api/sessions", s.handleSessions)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	s.ctx = ctx
	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting HTTP API")
	return s.app.Listen(s.addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
