package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/arenachat/arena-server/internal/core"
	"github.com/arenachat/arena-server/internal/store"
)

// RoomHandlers provides HTTP handlers for room management endpoints.
type RoomHandlers struct {
	store     store.Store
	registry  *core.Registry
	lifecycle *core.Lifecycle
	log       *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(st store.Store, registry *core.Registry, lifecycle *core.Lifecycle, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		store:     st,
		registry:  registry,
		lifecycle: lifecycle,
		log:       logger,
	}
}

// CreateRoomRequest represents the create room request body.
type CreateRoomRequest struct {
	Name string `json:"name" binding:"required"`
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	Name      string `json:"name"`
	Total     int    `json:"total"`
	CreatedAt string `json:"createdAt"`
	ExpiresAt string `json:"expiresAt"`
}

// CreateRoomResponse confirms room creation.
type CreateRoomResponse struct {
	Success bool   `json:"success"`
	Room    string `json:"room"`
}

// QuotaResponse reports today's creation quota state.
type QuotaResponse struct {
	Count        int  `json:"count"`
	Limit        int  `json:"limit"`
	LimitReached bool `json:"limitReached"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// CreateRoom handles room creation.
// POST /api/rooms
func (h *RoomHandlers) CreateRoom(c *gin.Context) {
	var req CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Debug().Err(err).Msg("invalid create room request")
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name is required"})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name is required"})
		return
	}
	if len(name) > store.MaxRoomNameLen {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "room name must be at most 8 characters"})
		return
	}

	ctx := c.Request.Context()

	active, err := h.store.Active(ctx, name)
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("check room exists")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	if active {
		c.JSON(http.StatusConflict, ErrorResponse{Error: "room already exists"})
		return
	}

	// An expired namesake may have left keys behind; clear them so the
	// new room starts empty.
	if err := h.lifecycle.PurgeRoom(ctx, name); err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("purge stale room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if err := h.store.Create(ctx, name); err != nil {
		switch {
		case errors.Is(err, store.ErrRoomExists):
			c.JSON(http.StatusConflict, ErrorResponse{Error: "room already exists"})
		case errors.Is(err, store.ErrQuotaExceeded):
			c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: "daily limit of 100 rooms reached, try again tomorrow"})
		default:
			h.log.Error().Err(err).Str("room", name).Msg("failed to create room")
			c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		}
		return
	}

	h.log.Info().Str("room", name).Msg("room created")
	c.JSON(http.StatusCreated, CreateRoomResponse{Success: true, Room: name})
}

// ListRooms handles listing active rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.store.List(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	response := make([]RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		response = append(response, roomResponse(room, h.registry.Count(room.Name)))
	}
	c.JSON(http.StatusOK, response)
}

// GetRoom returns a single room's metadata. Looking up an expired room
// triggers its cleanup and reports not-found.
// GET /api/rooms/:name
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	name := c.Param("name")
	ctx := c.Request.Context()

	info, err := h.store.Info(ctx, name)
	if errors.Is(err, store.ErrRoomNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("room", name).Msg("failed to get room")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	if !info.Active(time.Now()) {
		if err := h.lifecycle.PurgeRoom(ctx, name); err != nil {
			h.log.Error().Err(err).Str("room", name).Msg("purge expired room")
		}
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room expired"})
		return
	}

	c.JSON(http.StatusOK, roomResponse(*info, h.registry.Count(name)))
}

// Quota reports the state of today's room-creation quota.
// GET /api/quota
func (h *RoomHandlers) Quota(c *gin.Context) {
	count, err := h.store.CreatedToday(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read quota")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	c.JSON(http.StatusOK, QuotaResponse{
		Count:        count,
		Limit:        store.DailyRoomQuota,
		LimitReached: count >= store.DailyRoomQuota,
	})
}

func roomResponse(info store.RoomInfo, total int) RoomResponse {
	return RoomResponse{
		Name:      info.Name,
		Total:     total,
		CreatedAt: info.CreatedAt.Format(time.RFC3339),
		ExpiresAt: info.ExpiresAt.Format(time.RFC3339),
	}
}
