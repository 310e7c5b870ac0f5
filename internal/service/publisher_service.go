package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/internal/dto"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService publishes completed chat exchanges onto the internal
// bus for asynchronous transcript persistence.
type IPublisherService interface {
	PublishExchange(ctx context.Context, exchange dto.ChatExchangeMessage) error
}

type publisherService struct {
	pubSub *gochannel.GoChannel
	topic  string
	logger logger.ILogger
}

func NewPublisherService(pubSub *gochannel.GoChannel, topic string, log logger.ILogger) IPublisherService {
	return &publisherService{
		pubSub: pubSub,
		topic:  topic,
		logger: log,
	}
}

func (s *publisherService) PublishExchange(ctx context.Context, exchange dto.ChatExchangeMessage) error {
	payload, err := json.Marshal(exchange)
	if err != nil {
		return fmt.Errorf("failed to marshal exchange: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := s.pubSub.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("failed to publish exchange: %w", err)
	}

	s.logger.Info("PublisherService", "Chat exchange published", map[string]interface{}{
		"chat_id": exchange.ChatID,
		"topic":   s.topic,
	})
	return nil
}
