package service

import (
	"context"
	"strings"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/websocket"
	"github.com/ashebbar-dev/Ojas-EB/pkg/events"
	pktNats "github.com/ashebbar-dev/Ojas-EB/pkg/nats"
)

// NotificationService bridges the NATS event bus to websocket subscribers:
// an answer completed anywhere in the cluster reaches every connection
// watching that chat.
type NotificationService struct {
	subscriber *pktNats.Subscriber
	hub        *websocket.Hub
	logger     logger.ILogger
}

func NewNotificationService(sub *pktNats.Subscriber, hub *websocket.Hub, log logger.ILogger) *NotificationService {
	return &NotificationService{
		subscriber: sub,
		hub:        hub,
		logger:     log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.ANSWER_COMPLETED", "chat-notify-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.ANSWER_COMPLETED", nil)
}

func (s *NotificationService) handleEvent(_ context.Context, event events.Event) error {
	payload := event.Payload()

	chatID, _ := payload["chat_id"].(string)
	if chatID == "" {
		s.logger.Warn("NotificationService", "Event without chat_id, skipping", map[string]interface{}{
			"type": event.EventType(),
		})
		return nil
	}

	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	s.hub.Notify(chatID, map[string]interface{}{
		"event":   typeCode,
		"chat_id": chatID,
		"payload": payload,
	})
	return nil
}
