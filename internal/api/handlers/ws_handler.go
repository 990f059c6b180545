package handlers

import (
	"log/slog"

	ws "github.com/fieldline/comms-backend/internal/websocket"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

// WSHandler upgrades HTTP connections to the notification feed
type WSHandler struct {
	hub    *ws.Hub
	logger *slog.Logger

	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler
func NewWSHandler(hub *ws.Hub, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:      hub,
		logger:   logger,
		upgrader: ws.NewSecureUpgrader(allowedOrigins, logger),
	}
}

// Serve handles GET /ws
func (h *WSHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("websocket upgrade failed", slog.Any("error", err))
		}
		return err
	}

	client := ws.NewClient(h.hub, conn, h.logger)
	h.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	return nil
}
