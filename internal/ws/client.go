package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oggyb/campusmatch/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16384
	sendQueueSize  = 64
)

// Handler processes inbound frames that the hub does not handle itself.
type Handler interface {
	HandleFrame(ctx context.Context, c *Client, f Frame)
}

// Client is one websocket connection owned by an authenticated email.
type Client struct {
	ID    string
	Email string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	rooms  map[string]struct{}
	closed bool
}

func newClient(h *Hub, conn *websocket.Conn, email string) *Client {
	return &Client{
		ID:    uuid.NewString(),
		Email: email,
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendQueueSize),
		rooms: map[string]struct{}{},
	}
}

// Send queues payload for delivery. A full queue drops the frame.
func (c *Client) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		metrics.FramesDropped.Inc()
		c.hub.logger.Warn("client queue full, frame dropped", "client", c.ID, "email", c.Email)
		return false
	}
}

// SendEvent encodes and queues a frame.
func (c *Client) SendEvent(event string, data any) {
	payload, err := Encode(event, data)
	if err != nil {
		c.hub.logger.Error("encode frame failed", "event", event, "err", err)
		return
	}
	c.Send(payload)
}

// SendError queues a chat error frame.
func (c *Client) SendError(msg string) {
	c.SendEvent(EventChatError, ErrorPayload{Error: msg})
}

// Rooms returns the rooms the client currently joined.
func (c *Client) Rooms() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.rooms))
	for r := range c.rooms {
		out = append(out, r)
	}
	return out
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) readPump(ctx context.Context, h Handler) {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		var f Frame
		if err := json.Unmarshal(data, &f); err != nil || f.Event == "" {
			c.SendError("malformed frame")
			continue
		}
		metrics.WSEvents.WithLabelValues(f.Event).Inc()
		h.HandleFrame(ctx, c, f)
	}
}

func (c *Client) logReadError(err error) {
	log := c.hub.logger.With("client", c.ID, "email", c.Email)
	switch {
	case websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived):
		log.Debug("peer closed", "err", err)
	default:
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			log.Info("read timeout", "err", err)
			return
		}
		log.Warn("read error", "err", err)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

// Logger returns the hub logger scoped to this client.
func (c *Client) Logger() *slog.Logger {
	return c.hub.logger.With("client", c.ID, "email", c.Email)
}
