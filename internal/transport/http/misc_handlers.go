package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/store"
)

// MiscHandlers provides stats, feedback and health endpoints.
type MiscHandlers struct {
	store    store.Store
	registry *core.Registry
	log      *zerolog.Logger
}

// NewMiscHandlers creates a new misc handlers instance.
func NewMiscHandlers(st store.Store, registry *core.Registry, logger *zerolog.Logger) *MiscHandlers {
	return &MiscHandlers{
		store:    st,
		registry: registry,
		log:      logger,
	}
}

// StatsResponse aggregates live usage numbers.
type StatsResponse struct {
	TotalRooms    int    `json:"totalRooms"`
	TotalPeople   int    `json:"totalPeople"`
	TotalMessages int    `json:"totalMessages"`
	CreatedToday  int    `json:"createdToday"`
	TotalImages   int    `json:"totalImages"`
	Timestamp     string `json:"timestamp"`
}

// FeedbackRequest is a user-submitted feedback entry.
type FeedbackRequest struct {
	Email      string `json:"email"`
	Text       string `json:"text" binding:"required"`
	Timestamp  string `json:"timestamp"`
	UserAgent  string `json:"userAgent"`
	ScreenSize string `json:"screenSize"`
}

// Stats reports totals across all active rooms.
// GET /api/stats
func (h *MiscHandlers) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	rooms, err := h.store.List(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms for stats")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	stats := StatsResponse{
		TotalRooms: len(rooms),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}

	for _, room := range rooms {
		stats.TotalPeople += h.registry.Count(room.Name)

		messages, err := h.store.Read(ctx, room.Name)
		if err != nil {
			h.log.Error().Err(err).Str("room", room.Name).Msg("failed to read messages for stats")
			continue
		}
		stats.TotalMessages += len(messages)
		for _, msg := range messages {
			if strings.Contains(msg.Content, "![") {
				stats.TotalImages++
			}
		}
	}

	count, err := h.store.CreatedToday(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read daily counter for stats")
	} else {
		stats.CreatedToday = count
	}

	c.JSON(http.StatusOK, stats)
}

// Feedback stores a feedback entry.
// POST /api/feedback
func (h *MiscHandlers) Feedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "feedback text is required"})
		return
	}

	fb := store.Feedback{
		Email:      req.Email,
		Text:       req.Text,
		Timestamp:  req.Timestamp,
		UserAgent:  req.UserAgent,
		ScreenSize: req.ScreenSize,
	}
	if err := h.store.SaveFeedback(c.Request.Context(), fb); err != nil {
		h.log.Error().Err(err).Msg("failed to save feedback")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// Health verifies the backing store connection.
// GET /health
func (h *MiscHandlers) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.log.Error().Err(err).Msg("store ping failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "store unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
