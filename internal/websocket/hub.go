package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/ashebbar-dev/Ojas-EB/internal/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const clusterChannel = "cluster_events"

// Hub tracks websocket subscribers keyed by chat id. A chat can have several
// connections (multiple tabs watching the same conversation). Redis pub/sub
// relays notifications across instances.
type Hub struct {
	clients map[string][]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex

	rdb *redis.Client

	logger logger.ILogger
}

func NewHub(rdb *redis.Client, log logger.ILogger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string][]*Client),
		rdb:        rdb,
		logger:     log,
	}
}

func (h *Hub) Run() {
	if h.rdb != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ChatID] = append(h.clients[client.ChatID], client)
			h.mu.Unlock()
			h.logger.Info("Hub", "Client registered", map[string]interface{}{"chat_id": client.ChatID})

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.clients[client.ChatID]; ok {
				for i, c := range clients {
					if c == client {
						h.clients[client.ChatID] = append(clients[:i], clients[i+1:]...)
						close(client.Send)
						break
					}
				}
				if len(h.clients[client.ChatID]) == 0 {
					delete(h.clients, client.ChatID)
					h.logger.Info("Hub", "Client completely unregistered", map[string]interface{}{"chat_id": client.ChatID})
				}
			}
			h.mu.Unlock()
		}
	}
}

// Notify sends a payload to every local subscriber of the chat and relays
// it through Redis for subscribers on other instances.
func (h *Hub) Notify(chatID string, payload map[string]interface{}) {
	data, _ := json.Marshal(map[string]interface{}{
		"type": "notification",
		"data": payload,
	})

	h.mu.RLock()
	clients, localFound := h.clients[chatID]
	h.mu.RUnlock()

	if localFound {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
				// Only the unregister branch in Run closes Send
				h.logger.Warn("Hub", "Client send buffer full, dropping client", map[string]interface{}{"chat_id": chatID})
				h.unregister <- client
			}
		}
	}

	if h.rdb != nil {
		envelope, _ := json.Marshal(map[string]interface{}{
			"target_chat_id": chatID,
			"message":        json.RawMessage(data),
		})
		h.rdb.Publish(context.Background(), clusterChannel, envelope)
	}
}

func (h *Hub) subscribeToRedis() {
	ctx := context.Background()
	pubsub := h.rdb.Subscribe(ctx, clusterChannel)
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		var payload struct {
			TargetChatID string          `json:"target_chat_id"`
			Message      json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal([]byte(msg.Payload), &payload); err != nil {
			log.Printf("Redis msg parse error: %v", err)
			continue
		}

		h.mu.RLock()
		clients, ok := h.clients[payload.TargetChatID]
		h.mu.RUnlock()

		if ok {
			for _, client := range clients {
				select {
				case client.Send <- payload.Message:
				default:
					h.unregister <- client
				}
			}
		}
	}
}
