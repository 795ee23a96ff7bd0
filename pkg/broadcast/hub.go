/*
 * Copyright 2025 Aercore Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package broadcast

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/aercore/aqengine/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	clientSendBuffer = 16
	writeWait        = 5 * time.Second
)

// envelope wraps every message sent over the websocket.
type envelope struct {
	Event string      `json:"event"` // "room-update" or "dashboard-update"
	Data  interface{} `json:"data"`
}

type client struct {
	conn   *websocket.Conn
	send   chan []byte
	roomID uuid.UUID // zero value means dashboard-only
}

// Hub is a websocket Gateway. Clients subscribe to a single room via the
// ?room query parameter; every client receives dashboard updates.
type Hub struct {
	upgrader websocket.Upgrader
	logger   logger.Logger

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// NewHub creates an empty websocket hub.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:  log,
		clients: make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the connection and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var roomID uuid.UUID

	if raw := r.URL.Query().Get("room"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid room id", http.StatusBadRequest)
			return
		}

		roomID = parsed
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("remote_addr", r.RemoteAddr).Msg("Failed to upgrade to WebSocket")
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan []byte, clientSendBuffer),
		roomID: roomID,
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	h.logger.Debug().
		Str("remote_addr", r.RemoteAddr).
		Str("room_id", roomID.String()).
		Msg("WebSocket client connected")

	go h.writePump(c)
	go h.readPump(c)
}

// BroadcastRoomUpdate delivers to clients subscribed to the event's room.
func (h *Hub) BroadcastRoomUpdate(event *RoomUpdateEvent) {
	payload, err := json.Marshal(envelope{Event: "room-update", Data: event})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal room update")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		if c.roomID == event.RoomID {
			h.enqueue(c, payload)
		}
	}
}

// BroadcastDashboardUpdate delivers to every connected client.
func (h *Hub) BroadcastDashboardUpdate(event *DashboardUpdateEvent) {
	payload, err := json.Marshal(envelope{Event: "dashboard-update", Data: event})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to marshal dashboard update")
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		h.enqueue(c, payload)
	}
}

// enqueue hands a payload to a client without blocking. A client whose send
// buffer is full is dropped.
func (h *Hub) enqueue(c *client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn().Msg("Dropping slow WebSocket client")

		go h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()

	if _, ok := h.clients[c]; !ok {
		h.mu.Unlock()
		return
	}

	delete(h.clients, c)
	h.mu.Unlock()

	close(c.send)
	_ = c.conn.Close()
}

func (h *Hub) writePump(c *client) {
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))

		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(c)
			return
		}
	}
}

// readPump discards inbound messages and detects disconnects.
func (h *Hub) readPump(c *client) {
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			h.remove(c)
			return
		}
	}
}

// ClientCount reports the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := make([]*client, 0, len(h.clients))

	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		h.remove(c)
	}
}
