// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the research engine over REST plus SSE.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshintel/counsel-engine/internal/research"
	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

// Server routes API requests into the research engine and chat store.
type Server struct {
	engine *research.Engine
	store  *store.Store
	cfg    types.ServerConfig
}

// New builds a Server. The engine's store is reused for chat CRUD.
func New(engine *research.Engine, cfg types.ServerConfig) *Server {
	return &Server{engine: engine, store: engine.Store, cfg: cfg}
}

// Router assembles the gin engine with middleware and all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if s.cfg.RateLimit > 0 {
		r.Use(rateLimitMiddleware(s.cfg.RateLimit, s.cfg.RateBurst))
	}

	r.GET("/healthz", s.handleHealth)

	v1 := r.Group("/v1")
	{
		v1.POST("/chats", s.handleCreateChat)
		v1.GET("/chats", s.handleListChats)
		v1.GET("/chats/:id", s.handleGetChat)
		v1.PATCH("/chats/:id", s.handleRenameChat)
		v1.DELETE("/chats/:id", s.handleDeleteChat)
		v1.POST("/chats/:id/messages/stream", s.handleStream)
		v1.GET("/messages/search", s.handleSearchMessages)
		v1.POST("/research/search", s.handleResearchSearch)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// errorJSON maps store errors onto HTTP status codes.
func errorJSON(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, store.ErrNotFound) {
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
