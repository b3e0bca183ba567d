// Package ws is the websocket relay: clients, rooms and the optional Redis
// bridge that lets several server processes share the same rooms.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/oggyb/campusmatch/internal/cache"
	"github.com/oggyb/campusmatch/internal/metrics"
)

// Hub tracks room membership of every local client.
type Hub struct {
	logger   *slog.Logger
	upgrader websocket.Upgrader
	nodeID   string

	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}

	bridge *cache.RedisCache
}

// NewHub builds a hub. An empty allowedOrigins accepts every origin.
func NewHub(logger *slog.Logger, allowedOrigins []string) *Hub {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return &Hub{
		logger: logger.With("component", "ws"),
		nodeID: uuid.NewString(),
		rooms:  map[string]map[*Client]struct{}{},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				_, ok := allowed[r.Header.Get("Origin")]
				return ok
			},
		},
	}
}

// bridgeEnvelope is what travels over Redis between processes.
type bridgeEnvelope struct {
	Node    string          `json:"node"`
	Except  string          `json:"except,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// EnableBridge subscribes to every room channel so frames broadcast by other
// processes reach local clients. It returns once the subscription is live.
func (h *Hub) EnableBridge(ctx context.Context, rc *cache.RedisCache) error {
	err := rc.SubscribeRooms(ctx, func(roomID string, payload []byte) {
		var env bridgeEnvelope
		if err := json.Unmarshal(payload, &env); err != nil {
			h.logger.Warn("bad bridge frame", "room", roomID, "err", err)
			return
		}
		if env.Node == h.nodeID {
			return
		}
		h.deliver(roomID, env.Payload, env.Except)
	})
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.bridge = rc
	h.mu.Unlock()
	return nil
}

// Serve upgrades the request and runs the client until the connection ends.
// Every well-formed inbound frame goes to handler.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, email string, handler Handler) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := newClient(h, conn, email)
	metrics.WSConnections.Inc()
	h.logger.Debug("client connected", "client", c.ID, "email", email)

	go c.writePump()
	c.readPump(r.Context(), handler)
	return nil
}

// Join adds c to roomID.
func (h *Hub) Join(c *Client, roomID string) {
	h.mu.Lock()
	set, ok := h.rooms[roomID]
	if !ok {
		set = map[*Client]struct{}{}
		h.rooms[roomID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	c.mu.Lock()
	c.rooms[roomID] = struct{}{}
	c.mu.Unlock()
}

// Leave removes c from roomID. Unknown rooms are ignored.
func (h *Hub) Leave(c *Client, roomID string) {
	h.mu.Lock()
	if set, ok := h.rooms[roomID]; ok {
		delete(set, c)
		if len(set) == 0 {
			delete(h.rooms, roomID)
		}
	}
	h.mu.Unlock()

	c.mu.Lock()
	delete(c.rooms, roomID)
	c.mu.Unlock()
}

// RoomSize is the number of local clients in roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// Broadcast sends an event to every client in the room except the given one,
// which may be nil. With a bridge the frame is also published to other processes.
func (h *Hub) Broadcast(ctx context.Context, roomID, event string, data any, except *Client) error {
	payload, err := Encode(event, data)
	if err != nil {
		return err
	}

	exceptID := ""
	if except != nil {
		exceptID = except.ID
	}
	h.deliver(roomID, payload, exceptID)

	h.mu.RLock()
	bridge := h.bridge
	h.mu.RUnlock()
	if bridge == nil {
		return nil
	}
	env, err := json.Marshal(bridgeEnvelope{Node: h.nodeID, Except: exceptID, Payload: payload})
	if err != nil {
		return err
	}
	if err := bridge.PublishRoom(ctx, roomID, env); err != nil {
		h.logger.Warn("bridge publish failed", "room", roomID, "err", err)
	}
	return nil
}

func (h *Hub) deliver(roomID string, payload []byte, exceptID string) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[roomID]))
	for c := range h.rooms[roomID] {
		if c.ID != exceptID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Send(payload)
	}
}

func (h *Hub) unregister(c *Client) {
	for _, r := range c.Rooms() {
		h.Leave(c, r)
	}
	c.close()
	metrics.WSConnections.Dec()
	h.logger.Debug("client disconnected", "client", c.ID, "email", c.Email)
}
