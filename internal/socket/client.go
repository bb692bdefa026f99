package socket

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"chovha/internal/domain"
)

// Client is one authenticated WebSocket connection.
type Client struct {
	ID       string
	UserID   string
	UserType domain.UserType

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// rooms is guarded by hub.mu.
	rooms map[string]struct{}
}

// sendEvent queues a frame for this client only. Frames for a client that
// already left the hub are dropped.
func (c *Client) sendEvent(event string, data any) {
	frame, err := json.Marshal(outbound{Event: event, Data: data})
	if err != nil {
		return
	}

	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- frame:
	default:
	}
}

func (c *Client) logger() logrus.FieldLogger {
	return c.hub.log.WithFields(logrus.Fields{
		"client_id": c.ID,
		"user_id":   c.UserID,
	})
}

// readPump reads frames until the connection fails, then unregisters.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger().WithError(err).Warn("socket read error")
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.sendEvent(EventError, errorPayload{Message: "malformed message"})
			continue
		}

		if err := c.hub.handle(c, msg); err != nil {
			c.logger().WithError(err).WithField("event", msg.Event).Debug("socket event rejected")
			c.sendEvent(EventError, errorPayload{Event: msg.Event, Message: err.Error()})
		}
	}
}

// writePump drains the send channel and keeps the connection alive with pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
