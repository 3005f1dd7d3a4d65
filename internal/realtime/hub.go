package realtime

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Heartbeat timings for dashboard connections.
const (
	PingInterval = 30 * time.Second
	PongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
)

// Events pushed to dashboards.
const (
	EventSubscribed         = "subscribed"
	EventPlaylistChanged    = "playlist_changed"
	EventMediaStatusChanged = "media_status_changed"
)

// AssetRoom is the room of dashboards watching a panel's bookings.
func AssetRoom(assetID uuid.UUID) string { return "asset:" + assetID.String() }

// QuoteRoom is the room of dashboards watching a campaign's media status.
func QuoteRoom(quoteID uuid.UUID) string { return "quote:" + quoteID.String() }

// ParseRoom validates a room name of the form asset:<uuid> or quote:<uuid>.
func ParseRoom(room string) (string, error) {
	kind, id, ok := strings.Cut(room, ":")
	if !ok || (kind != "asset" && kind != "quote") {
		return "", fmt.Errorf("unknown room %q", room)
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", fmt.Errorf("invalid room id: %w", err)
	}
	return kind + ":" + parsed.String(), nil
}

// Hub maintains room -> set of connections and broadcasts messages.
// Uses Redis pub/sub for horizontal scaling so every instance delivers each event once.
type Hub struct {
	rooms    map[string]map[string]*Client
	subs     map[string]*roomSub // Redis subscription per room
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
}

// roomSub is nil-cancel while SubscribeRoom is in flight.
type roomSub struct {
	cancel func()
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishRoomEvent(room, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeRoom(room string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Both Redis arguments may be nil for a single instance.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:    make(map[string]map[string]*Client),
		subs:     make(map[string]*roomSub),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
	}
}

// Register adds a client to its room. Starts the Redis subscription for the room if first client.
// The subscription round-trip runs without holding the hub lock.
func (h *Hub) Register(c *Client) {
	room := c.Room
	var sub *roomSub
	h.mu.Lock()
	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*Client)
		if h.redisSub != nil {
			sub = &roomSub{}
			h.subs[room] = sub
		}
	}
	h.rooms[room][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("room", room))

	if sub != nil {
		h.subscribe(room, sub)
	}
}

func (h *Hub) subscribe(room string, sub *roomSub) {
	cancel, err := h.redisSub.SubscribeRoom(room, func(event string, payload []byte) {
		h.Broadcast(room, event, json.RawMessage(payload))
	})

	h.mu.Lock()
	current := h.subs[room] == sub
	if err != nil {
		if current {
			delete(h.subs, room)
		}
		h.mu.Unlock()
		h.logger.Warn("room subscription failed", zap.String("room", room), zap.Error(err))
		return
	}
	if current {
		sub.cancel = cancel
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	// room emptied while subscribing
	cancel()
}

// Unregister removes a client from its room. Cancels the Redis subscription when the last client leaves.
func (h *Hub) Unregister(c *Client) {
	var cancel func()
	h.mu.Lock()
	if m, ok := h.rooms[c.Room]; ok {
		if _, present := m[c.ID]; present {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.rooms, c.Room)
			if sub, ok := h.subs[c.Room]; ok {
				cancel = sub.cancel
				delete(h.subs, c.Room)
			}
		}
	}
	h.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("room", c.Room))
}

// Broadcast sends a message to all clients in a room on this instance.
func (h *Hub) Broadcast(room, event string, payload interface{}) {
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to a room on every instance. With Redis configured the subscriber
// callback performs the broadcast, including for this instance; otherwise it broadcasts locally.
func (h *Hub) Publish(room, event string, payload interface{}) {
	if h.redis == nil {
		h.Broadcast(room, event, payload)
		return
	}
	data, err := encode(payload)
	if err != nil {
		h.logger.Warn("encode event failed", zap.String("event", event), zap.Error(err))
		return
	}
	if err := h.redis.PublishRoomEvent(room, event, data); err != nil {
		h.logger.Warn("publish room event failed, broadcasting locally", zap.String("room", room), zap.Error(err))
		h.Broadcast(room, event, json.RawMessage(data))
	}
}

// ClientCount returns the number of connected clients in a room.
func (h *Hub) ClientCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func encode(payload interface{}) (json.RawMessage, error) {
	switch v := payload.(type) {
	case json.RawMessage:
		return v, nil
	case []byte:
		return v, nil
	default:
		return json.Marshal(payload)
	}
}
