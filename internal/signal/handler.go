package signal

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/dankrut/callisto-server/internal/logger"
	"github.com/dankrut/callisto-server/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Credential cookies gate the upgrade; cross-origin pages never
		// reach this handler with a valid identity.
		return true
	},
}

// Handler upgrades authenticated HTTP requests to signaling connections.
type Handler struct {
	hub            *Hub
	contextManager model.ContextManager
	logger         *logger.Logger
}

// NewHandler creates a new signaling handler.
func NewHandler(hub *Hub, contextManager model.ContextManager, logger *logger.Logger) *Handler {
	return &Handler{
		hub:            hub,
		contextManager: contextManager,
		logger:         logger,
	}
}

// HandleConnection upgrades the request and registers the client.
func (h *Handler) HandleConnection(c *gin.Context) {
	identity, ok := h.contextManager.GetIdentity(c.Request.Context())
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade signaling connection",
			"user_id", identity.ID,
			"error", err.Error())
		return
	}

	client := NewClient(h.hub, conn, identity.ID.String(), h.logger)
	h.hub.register <- client

	go client.WritePump()
	go client.ReadPump()
}

// HandleStats reports current room occupancy.
func (h *Handler) HandleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": h.hub.RoomSizes()})
}
