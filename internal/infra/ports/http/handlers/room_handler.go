package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/vgrebnev/duolink/internal/infra/adapters/memory"
)

type RoomHandler struct {
	registry *memory.RoomRegistry
}

func NewRoomHandler(registry *memory.RoomRegistry) *RoomHandler {
	return &RoomHandler{registry: registry}
}

type roomInfoResponse struct {
	RoomID           string    `json:"room_id"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// GetRoom lets an invite page show whether a room exists and how many
// participants it holds before the visitor opens the websocket.
func (h *RoomHandler) GetRoom(c echo.Context) error {
	roomID := c.Param("id")

	count, createdAt, ok := h.registry.Info(roomID)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "room not found"})
	}

	return c.JSON(http.StatusOK, roomInfoResponse{
		RoomID:           roomID,
		ParticipantCount: count,
		CreatedAt:        createdAt,
	})
}
