package signal

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/dankrut/callisto-server/internal/logger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Client represents one signaling connection.
type Client struct {
	id     string
	userID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	rooms  map[string]bool
	logger *logger.Logger
}

// NewClient creates a client for an upgraded connection owned by userID.
func NewClient(hub *Hub, conn *websocket.Conn, userID string, logger *logger.Logger) *Client {
	return &Client{
		id:     uuid.New().String(),
		userID: userID,
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 64),
		rooms:  make(map[string]bool),
		logger: logger,
	}
}

// ID returns the connection identifier peers address this client by.
func (c *Client) ID() string {
	return c.id
}

// ReadPump pumps messages from the connection to the hub.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("signaling read failed",
					"client_id", c.id,
					"error", err.Error())
			}
			break
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.logger.Debug("dropping malformed signaling message",
				"client_id", c.id,
				"error", err.Error())
			continue
		}

		msg.From = c.id
		c.handleMessage(&msg)
	}
}

// WritePump pumps messages from the hub to the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeJoin:
		if msg.Room != "" {
			c.hub.JoinRoom(c, msg.Room)
		}

	case MessageTypeLeave:
		if msg.Room != "" {
			c.hub.LeaveRoom(c, msg.Room)
		}

	case MessageTypeOffer, MessageTypeAnswer, MessageTypeICE:
		if len(msg.Payload) == 0 {
			return
		}
		c.hub.forward <- msg
	}
}

// enqueue hands a message to the client's writer without blocking the hub.
// Slow clients lose messages rather than stall everyone else.
func (c *Client) enqueue(m *Message) {
	data, ok := marshalMessage(m)
	if !ok {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Debug("signaling send buffer full",
			"client_id", c.id)
	}
}
