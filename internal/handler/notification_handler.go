package handler

import (
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	internalWS "github.com/ashebbar-dev/Ojas-EB/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// NotificationHandler upgrades websocket connections that want completion
// notifications for a chat session.
type NotificationHandler struct {
	hub    *internalWS.Hub
	logger logger.ILogger
}

func NewNotificationHandler(hub *internalWS.Hub, log logger.ILogger) *NotificationHandler {
	return &NotificationHandler{
		hub:    hub,
		logger: log,
	}
}

// ServeWs handles websocket requests from the peer.
func (h *NotificationHandler) ServeWs(c *fiber.Ctx) error {
	chatIDStr := c.Query("chat_id")
	if chatIDStr == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Missing 'chat_id' query parameter"})
	}
	chatID, err := uuid.Parse(chatIDStr)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid chat ID format"})
	}

	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(func(conn *websocket.Conn) {
			h.logger.Info("NotificationHandler", "Starting WebSocket session", map[string]interface{}{"chat_id": chatID.String()})
			internalWS.ServeWs(h.hub, conn, chatID.String())
			h.logger.Info("NotificationHandler", "WebSocket session ended", map[string]interface{}{"chat_id": chatID.String()})
		})(c)
	}
	return fiber.ErrUpgradeRequired
}

// RegisterRoutes registers the notification routes.
func (h *NotificationHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
