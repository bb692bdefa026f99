// Package socket relays realtime ride events between passengers and drivers
// over WebSocket rooms.
package socket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
	"chovha/internal/metrics"
)

const (
	pingInterval   = 30 * time.Second
	pongWait       = 60 * time.Second
	writeWait      = 10 * time.Second
	maxMessageSize = 8192
	sendBufferSize = 256
)

// OnlineDriversRoom holds every driver currently accepting requests.
const OnlineDriversRoom = "online-drivers"

// PassengerRoom is the private room of a passenger.
func PassengerRoom(id string) string { return "passenger-" + id }

// DriverRoom is the private room of a driver.
func DriverRoom(id string) string { return "driver-" + id }

// RideRoom is shared by everyone following a ride.
func RideRoom(id string) string { return "ride-" + id }

// UserRoom is the private room for a user of the given type.
func UserRoom(userType domain.UserType, id string) string {
	if userType == domain.UserTypeDriver {
		return DriverRoom(id)
	}
	return PassengerRoom(id)
}

// Emitter pushes server-side events into rooms.
type Emitter interface {
	EmitToRoom(room, event string, data any)
}

// Message is the frame exchanged with clients.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Hub tracks connected clients and their room memberships.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	log     logrus.FieldLogger
	metrics *metrics.Metrics
}

// NewHub creates a Hub. m may be nil.
func NewHub(log logrus.FieldLogger, m *metrics.Metrics) *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		rooms:      make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        log,
		metrics:    m,
	}
}

// Run processes registrations until ctx is done, then disconnects everyone.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.removeLocked(c)
			}
			h.mu.Unlock()
			h.log.Info("socket hub stopped")
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.joinLocked(c, UserRoom(c.UserType, c.UserID))
			count := len(h.clients)
			h.mu.Unlock()
			h.setGauge(count)
			h.log.WithFields(logrus.Fields{
				"client_id": c.ID,
				"user_id":   c.UserID,
				"user_type": c.UserType,
			}).Info("socket client connected")

		case c := <-h.unregister:
			h.mu.Lock()
			removed := h.removeLocked(c)
			count := len(h.clients)
			h.mu.Unlock()
			if removed {
				h.setGauge(count)
				h.log.WithFields(logrus.Fields{
					"client_id": c.ID,
					"user_id":   c.UserID,
				}).Info("socket client disconnected")
			}
		}
	}
}

// Register adds c to the hub. Blocks until Run has accepted it.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// Unregister removes c and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// removeLocked drops c from every room. Callers hold h.mu.
func (h *Hub) removeLocked(c *Client) bool {
	if _, ok := h.clients[c]; !ok {
		return false
	}
	delete(h.clients, c)
	for room := range c.rooms {
		h.leaveLocked(c, room)
	}
	close(c.send)
	return true
}

// Join adds c to room.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.joinLocked(c, room)
}

// Leave removes c from room.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(c, room)
}

// joinLocked ignores clients that are no longer registered; their send
// channel is already closed.
func (h *Hub) joinLocked(c *Client, room string) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
}

func (h *Hub) leaveLocked(c *Client, room string) {
	delete(c.rooms, room)
	members, ok := h.rooms[room]
	if !ok {
		return
	}
	delete(members, c)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// EmitToRoom sends event to every member of room.
func (h *Hub) EmitToRoom(room, event string, data any) {
	h.emit(event, data, func() []*Client {
		members := h.rooms[room]
		out := make([]*Client, 0, len(members))
		for c := range members {
			out = append(out, c)
		}
		return out
	})
}

// BroadcastExcept sends event to every connected client other than except.
func (h *Hub) BroadcastExcept(except *Client, event string, data any) {
	h.emit(event, data, func() []*Client {
		out := make([]*Client, 0, len(h.clients))
		for c := range h.clients {
			if c != except {
				out = append(out, c)
			}
		}
		return out
	})
}

// emit fans a frame out to the clients picked under the read lock. Clients
// whose buffer is full are disconnected.
func (h *Hub) emit(event string, data any, pick func() []*Client) {
	frame, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		h.log.WithError(err).WithField("event", event).Error("marshal socket event")
		return
	}

	var slow []*Client
	h.mu.RLock()
	for _, c := range pick() {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.log.WithField("client_id", c.ID).Warn("socket client too slow, dropping")
		go h.Unregister(c)
	}
}

func (h *Hub) setGauge(n int) {
	if h.metrics != nil {
		h.metrics.SocketClients.Set(float64(n))
	}
}

// newClient builds a client for an authenticated user. conn may be nil in tests.
func (h *Hub) newClient(conn *websocket.Conn, userID string, userType domain.UserType) *Client {
	return &Client{
		ID:       uuid.NewString(),
		UserID:   userID,
		UserType: userType,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, sendBufferSize),
		rooms:    make(map[string]struct{}),
	}
}

var _ Emitter = (*Hub)(nil)
