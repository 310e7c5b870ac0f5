package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs attaches one upgraded connection to the hub for a chat id.
func ServeWs(hub *Hub, c *websocket.Conn, chatID string) {
	client := &Client{Hub: hub, Conn: c, ChatID: chatID, Send: make(chan []byte, 256)}
	client.Hub.register <- client

	go client.writePump()
	client.readPump() // runs in the handler goroutine until disconnect
}
