package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/modularwolf/impostergame.io/internal/domain"
	"github.com/modularwolf/impostergame.io/internal/engine"
	"github.com/modularwolf/impostergame.io/internal/replication"
	"github.com/modularwolf/impostergame.io/internal/session"
)

// Handler upgrades HTTP requests to WebSocket connections, giving each
// connection its own session controller.
type Handler struct {
	eng      *engine.Engine
	codes    *domain.CodeGenerator
	channel  replication.Channel
	hub      *session.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eng *engine.Engine, codes *domain.CodeGenerator, channel replication.Channel, hub *session.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		eng:     eng,
		codes:   codes,
		channel: channel,
		hub:     hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// Allow all origins for development
				// In production, you should validate the origin
				return true
			},
		},
		logger: logger,
	}
}

// ServeHTTP handles WebSocket upgrade requests. The mode query param
// selects pass-and-play ("local") or networked play; networked is the
// default.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mode := domain.ModeNetworked
	channel := h.channel
	if r.URL.Query().Get("mode") == "local" {
		mode = domain.ModeLocal
		channel = nil
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	controller := session.NewController(mode, h.eng, h.codes, channel, nil, h.logger)
	client := NewClient(conn, controller, h.hub, h.logger)

	h.logger.Info("websocket connected", "mode", mode, "remote", r.RemoteAddr)

	client.Run()
}
