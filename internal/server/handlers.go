// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/meshintel/counsel-engine/internal/search"
)

type createChatRequest struct {
	Title string `json:"title"`
}

func (s *Server) handleCreateChat(c *gin.Context) {
	var req createChatRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat, err := s.store.CreateChat(c.Request.Context(), req.Title)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusCreated, chat)
}

func (s *Server) handleListChats(c *gin.Context) {
	chats, err := s.store.ListChats(c.Request.Context())
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

func (s *Server) handleGetChat(c *gin.Context) {
	chat, err := s.store.GetChat(c.Request.Context(), c.Param("id"))
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, chat)
}

type renameChatRequest struct {
	Title string `json:"title" binding:"required,min=1,max=200"`
}

func (s *Server) handleRenameChat(c *gin.Context) {
	var req renameChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.store.RenameChat(c.Request.Context(), c.Param("id"), req.Title); err != nil {
		errorJSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleDeleteChat(c *gin.Context) {
	if err := s.store.DeleteChat(c.Request.Context(), c.Param("id")); err != nil {
		errorJSON(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type searchMessagesRequest struct {
	Query string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (s *Server) handleSearchMessages(c *gin.Context) {
	var req searchMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	hits, err := s.store.SearchMessages(c.Request.Context(), req.Query, req.Limit)
	if err != nil {
		errorJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"hits": hits})
}

type researchSearchRequest struct {
	Query        string `json:"query" binding:"required"`
	Jurisdiction string `json:"jurisdiction" binding:"omitempty,courtslug"`
	Author       string `json:"author"`
	DateFrom     string `json:"date_from" binding:"omitempty,datetime=2006-01-02"`
	DateTo       string `json:"date_to" binding:"omitempty,datetime=2006-01-02"`
}

func (s *Server) handleResearchSearch(c *gin.Context) {
	var req researchSearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	query := search.Query{
		FreeText:     req.Query,
		Jurisdiction: req.Jurisdiction,
		Author:       req.Author,
	}
	if req.DateFrom != "" {
		query.DateFrom, _ = time.Parse("2006-01-02", req.DateFrom)
	}
	if req.DateTo != "" {
		query.DateTo, _ = time.Parse("2006-01-02", req.DateTo)
	}

	logw := s.engine.Log
	if logw == nil {
		logw = io.Discard
	}
	out, err := search.Search(c.Request.Context(), query, s.engine.Backends, s.engine.SearchCfg, logw)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results":            out.Results,
		"duplicates_removed": out.DupsRemoved,
		"source_counts":      out.SourceCounts,
		"backend_errors":     out.BackendErrors,
	})
}
