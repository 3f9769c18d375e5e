package http

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/banndicoot-king/stream-pru/internal/control"
	"github.com/banndicoot-king/stream-pru/internal/core"
)

// APIHandlers provides HTTP handlers for REST API endpoints.
type APIHandlers struct {
	hub   *core.Hub
	sends *control.SendList
	log   *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub *core.Hub, sends *control.SendList, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:   hub,
		sends: sends,
		log:   logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse is the body of the send-toggle endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// StreamResponse is one entry of the stream list.
type StreamResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListenersResponse lists the connections subscribed to a room.
type ListenersResponse struct {
	RoomID    string   `json:"room_id"`
	Listeners []string `json:"listeners"`
}

// SendListResponse lists the ids with sending switched on.
type SendListResponse struct {
	Streaming []string `json:"streaming"`
}

// ListStreams returns the rooms currently registered.
// GET /api/streams
func (h *APIHandlers) ListStreams(c *gin.Context) {
	rooms, err := h.hub.ListRooms()
	if err != nil {
		h.log.Warn().Err(err).Msg("list streams")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server shutting down"})
		return
	}

	resp := make([]StreamResponse, 0, len(rooms))
	for _, r := range rooms {
		resp = append(resp, StreamResponse{ID: r.ID, Name: r.Name})
	}
	c.JSON(http.StatusOK, resp)
}

// ListListeners returns the connection ids subscribed to a room, publisher included.
// GET /api/streams/:id/listeners
func (h *APIHandlers) ListListeners(c *gin.Context) {
	id := c.Param("id")
	ids, ok, err := h.hub.RoomListeners(id)
	if err != nil {
		h.log.Warn().Err(err).Str("room_id", id).Msg("list listeners")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server shutting down"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "stream not found"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	slices.Sort(ids)
	c.JSON(http.StatusOK, ListenersResponse{RoomID: id, Listeners: ids})
}

// StartSending switches sending on for a room.
// POST /audio/:id
func (h *APIHandlers) StartSending(c *gin.Context) {
	id := c.Param("id")
	if err := h.sends.Start(id); err != nil {
		if errors.Is(err, control.ErrAlreadySending) {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: "Already streaming"})
			return
		}
		h.log.Error().Err(err).Str("room_id", id).Msg("failed to start sending")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", id).Msg("audio sending started")
	c.JSON(http.StatusOK, MessageResponse{Message: "Audio streaming started"})
}

// StopSending switches sending off for a room.
// DELETE /audio/:id
func (h *APIHandlers) StopSending(c *gin.Context) {
	id := c.Param("id")
	if err := h.sends.Stop(id); err != nil {
		if errors.Is(err, control.ErrNotSending) {
			c.JSON(http.StatusBadRequest, MessageResponse{Message: "Not streaming"})
			return
		}
		h.log.Error().Err(err).Str("room_id", id).Msg("failed to stop sending")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	h.log.Info().Str("room_id", id).Msg("audio sending stopped")
	c.JSON(http.StatusOK, MessageResponse{Message: "Audio streaming stopped"})
}

// ListSending returns the ids with sending switched on.
// GET /audio
func (h *APIHandlers) ListSending(c *gin.Context) {
	c.JSON(http.StatusOK, SendListResponse{Streaming: h.sends.List()})
}
