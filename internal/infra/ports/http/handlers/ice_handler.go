package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vgrebnev/duolink/internal/application/config"
)

type IceHandler struct {
	cfg *config.Config
}

func NewIceHandler(cfg *config.Config) *IceHandler {
	return &IceHandler{cfg: cfg}
}

// IceServers hands clients the STUN/TURN list for their RTCPeerConnection.
func (h *IceHandler) IceServers(c echo.Context) error {
	return c.JSON(http.StatusOK, h.cfg.ICEServers)
}
