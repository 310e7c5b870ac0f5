package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ashebbar-dev/Ojas-EB/internal/constant"
	"github.com/ashebbar-dev/Ojas-EB/internal/dto"
	"github.com/ashebbar-dev/Ojas-EB/internal/entity"
	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/contract"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/specification"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// ITranscriptConsumer drains the exchange topic and writes the durable
// transcript. Persistence is off the request path on purpose: a slow or
// briefly unavailable database never delays an answer.
type ITranscriptConsumer interface {
	Consume(ctx context.Context) error
}

type transcriptConsumer struct {
	pubSub      *gochannel.GoChannel
	topic       string
	sessionRepo contract.ChatSessionRepository
	messageRepo contract.ChatMessageRepository
	logger      logger.ILogger
}

func NewTranscriptConsumer(
	pubSub *gochannel.GoChannel,
	topic string,
	sessionRepo contract.ChatSessionRepository,
	messageRepo contract.ChatMessageRepository,
	log logger.ILogger,
) ITranscriptConsumer {
	return &transcriptConsumer{
		pubSub:      pubSub,
		topic:       topic,
		sessionRepo: sessionRepo,
		messageRepo: messageRepo,
		logger:      log,
	}
}

func (c *transcriptConsumer) Consume(ctx context.Context) error {
	messages, err := c.pubSub.Subscribe(ctx, c.topic)
	if err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", c.topic, err)
	}

	go func() {
		for msg := range messages {
			c.processMessage(ctx, msg)
		}
	}()

	c.logger.Info("TranscriptConsumer", "Listening for chat exchanges", map[string]interface{}{
		"topic": c.topic,
	})
	return nil
}

func (c *transcriptConsumer) processMessage(ctx context.Context, msg *message.Message) {
	var exchange dto.ChatExchangeMessage
	if err := json.Unmarshal(msg.Payload, &exchange); err != nil {
		c.logger.Error("TranscriptConsumer", "Unparseable exchange payload, discarding", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      err.Error(),
		})
		msg.Ack() // poison message, retrying cannot help
		return
	}

	if err := c.persistExchange(ctx, exchange); err != nil {
		c.logger.Error("TranscriptConsumer", "Failed to persist exchange, will retry", map[string]interface{}{
			"message_id": msg.UUID,
			"chat_id":    exchange.ChatID,
			"error":      err.Error(),
		})
		msg.Nack()
		return
	}

	c.logger.Info("TranscriptConsumer", "Exchange persisted", map[string]interface{}{
		"chat_id": exchange.ChatID,
	})
	msg.Ack()
}

func (c *transcriptConsumer) persistExchange(ctx context.Context, exchange dto.ChatExchangeMessage) error {
	sessionID, err := uuid.Parse(exchange.ChatID)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", exchange.ChatID, err)
	}

	session, err := c.sessionRepo.FindOne(ctx, specification.ByID{ID: sessionID})
	if err != nil {
		return fmt.Errorf("failed to look up session: %w", err)
	}
	if session == nil {
		// Session rows can lag behind in-memory sessions after a restart
		if err := c.sessionRepo.Create(ctx, &entity.ChatSession{
			Id:    sessionID,
			Title: "New Chat",
		}); err != nil {
			return fmt.Errorf("failed to recreate session: %w", err)
		}
	}

	userMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       exchange.Query,
		Role:          constant.ChatMessageRoleUser,
		ChatSessionId: sessionID,
	}
	if err := c.messageRepo.Create(ctx, userMessage); err != nil {
		return fmt.Errorf("failed to persist user message: %w", err)
	}

	assistantMessage := &entity.ChatMessage{
		Id:            uuid.New(),
		Content:       exchange.Answer,
		Role:          constant.ChatMessageRoleAssistant,
		ChatSessionId: sessionID,
		Sources:       exchange.Sources,
	}
	if err := c.messageRepo.Create(ctx, assistantMessage); err != nil {
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}
	return nil
}
