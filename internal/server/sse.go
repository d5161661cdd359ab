// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/meshintel/counsel-engine/internal/research"
	"github.com/meshintel/counsel-engine/internal/safety"
	"github.com/meshintel/counsel-engine/internal/store"
	"github.com/meshintel/counsel-engine/pkg/types"
)

// sseSink writes research turn events in SSE wire format
// (event: type\ndata: json\n\n) and flushes after each one.
type sseSink struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSSESink(w http.ResponseWriter) (*sseSink, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}
	return &sseSink{w: w, flusher: flusher}, nil
}

func (s *sseSink) write(event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", event, err)
	}
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return fmt.Errorf("writing %s event: %w", event, err)
	}
	s.flusher.Flush()
	return nil
}

func (s *sseSink) OnStatus(stage string) {
	s.write("status", gin.H{"stage": stage})
}

func (s *sseSink) OnToken(token string) error {
	return s.write("token", gin.H{"content": token})
}

// OnContent carries the final message text, with citation markers
// renumbered and any safety rewrite applied. Clients replace the
// accumulated token stream with it.
func (s *sseSink) OnContent(content string) {
	s.write("content", gin.H{"content": content})
}

func (s *sseSink) OnCitations(citations []types.Citation) {
	s.write("citations", gin.H{"citations": citations})
}

type streamRequest struct {
	Question string `json:"question" binding:"required,min=1,max=4000"`
}

// handleStream runs a full research turn over SSE. Validation failures
// are plain JSON errors; once the stream opens, failures become SSE
// error or block events.
func (s *Server) handleStream(c *gin.Context) {
	var req streamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	sink, err := newSSESink(c.Writer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := s.engine.Turn(c.Request.Context(), c.Param("id"), req.Question, sink)
	if err != nil {
		var blocked *research.BlockedError
		switch {
		case errors.As(err, &blocked):
			sink.write("block", gin.H{"matches": blocked.Report.Matches})
		case errors.Is(err, store.ErrNotFound):
			sink.write("error", gin.H{"error": "chat not found"})
		default:
			sink.write("error", gin.H{"error": err.Error()})
		}
		return
	}

	switch {
	case result.OutputReport.Blocked():
		// The streamed tokens were withheld; tell the client what
		// replaced them.
		sink.write("blocked", gin.H{"matches": result.OutputReport.Matches, "notice": result.Message.Content})
	case result.OutputReport.Flagged():
		sink.write("disclaimer", gin.H{"text": safety.Disclaimer})
	}
	sink.write("done", gin.H{"message_id": result.Message.ID})
}
