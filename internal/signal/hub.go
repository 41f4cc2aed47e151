// Package signal implements the WebRTC call-signaling relay: clients join
// rooms and exchange session descriptions and ICE candidates through the
// server without the server inspecting them.
package signal

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/dankrut/callisto-server/internal/logger"
)

// Hub maintains the room registry and routes signaling messages between
// connected clients.
type Hub struct {
	clients    map[string]*Client
	rooms      map[string]map[string]*Client
	forward    chan *Message
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	logger     *logger.Logger
}

// NewHub creates a new signaling hub.
func NewHub(logger *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]*Client),
		forward:    make(chan *Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes hub events until ctx is canceled. Callers run it in its
// own goroutine.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("signaling client connected",
				"client_id", client.id,
				"user_id", client.userID)

		case client := <-h.unregister:
			h.removeClient(client)

		case message := <-h.forward:
			h.route(message)
		}
	}
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client.id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	for roomID, members := range h.rooms {
		if _, ok := members[client.id]; ok {
			delete(members, client.id)
			if len(members) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	close(client.send)
	h.mu.Unlock()

	h.logger.Info("signaling client disconnected",
		"client_id", client.id,
		"user_id", client.userID)
}

// JoinRoom adds a client to a room, asks every existing member to prepare
// an offer for the newcomer, and acknowledges the join to the caller.
func (h *Hub) JoinRoom(client *Client, roomID string) {
	h.mu.Lock()
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Client)
	}
	h.rooms[roomID][client.id] = client
	client.rooms[roomID] = true

	// Notify under the lock: removeClient closes a member's send channel
	// while holding it, so a send can never hit a closed channel.
	peers := 0
	for id, member := range h.rooms[roomID] {
		if id == client.id {
			continue
		}
		peers++
		member.enqueue(&Message{
			Type: MessageTypeNeedsOffer,
			Room: roomID,
			From: client.id,
		})
	}

	client.enqueue(&Message{
		Type: MessageTypeRoomJoined,
		Room: roomID,
	})
	h.mu.Unlock()

	h.logger.Info("client joined room",
		"client_id", client.id,
		"room", roomID,
		"peers", peers)
}

// LeaveRoom removes a client from a room.
func (h *Hub) LeaveRoom(client *Client, roomID string) {
	h.mu.Lock()
	if members, ok := h.rooms[roomID]; ok {
		delete(members, client.id)
		if len(members) == 0 {
			delete(h.rooms, roomID)
		}
	}
	delete(client.rooms, roomID)
	h.mu.Unlock()

	h.logger.Info("client left room",
		"client_id", client.id,
		"room", roomID)
}

// route delivers a signaling message either directly to its target or to
// every other member of the sender's room.
func (h *Hub) route(message *Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if message.Target != "" {
		if target, ok := h.clients[message.Target]; ok {
			target.enqueue(message)
		}
		return
	}

	members, ok := h.rooms[message.Room]
	if !ok {
		return
	}
	for id, member := range members {
		if id == message.From {
			continue
		}
		member.enqueue(message)
	}
}

// RoomSizes reports the current member count per room.
func (h *Hub) RoomSizes() map[string]int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sizes := make(map[string]int, len(h.rooms))
	for roomID, members := range h.rooms {
		sizes[roomID] = len(members)
	}
	return sizes
}

func marshalMessage(m *Message) ([]byte, bool) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, false
	}
	return data, true
}
