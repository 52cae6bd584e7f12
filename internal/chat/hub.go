// Package chat provides per-community WebSocket rooms with Redis pub/sub
// fan-out and message persistence.
package chat

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait (seconds) drive the connection heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// MessageHandler persists an inbound chat message before it is published.
type MessageHandler func(communityID, userID uuid.UUID, senderName, body string)

// RedisPublisher publishes room events for cross-instance broadcast.
type RedisPublisher interface {
	PublishRoomEvent(communityID uuid.UUID, event string, payload []byte) error
}

// RedisSubscriber subscribes to room channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeRoom(communityID uuid.UUID, handler func(event string, payload []byte)) (cancel func(), err error)
}

// Hub maintains community_id -> set of connections and broadcasts messages.
// Local broadcast plus Redis pub/sub keeps rooms consistent across instances.
type Hub struct {
	rooms     map[uuid.UUID]map[string]*Client
	subs      map[uuid.UUID]func() // cancel Redis subscription per room
	mu        sync.RWMutex
	logger    *zap.Logger
	redisPub  RedisPublisher
	redisSub  RedisSubscriber
	onMessage MessageHandler
}

// NewHub creates a chat hub.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	return &Hub{
		rooms:    make(map[uuid.UUID]map[string]*Client),
		subs:     make(map[uuid.UUID]func()),
		logger:   logger,
		redisPub: redisPub,
		redisSub: redisSub,
	}
}

// SetMessageHandler sets the persistence callback for inbound chat messages.
func (h *Hub) SetMessageHandler(fn MessageHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onMessage = fn
}

// Register adds a client to a community room. The first client of a room
// starts its Redis subscription.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.CommunityID] == nil {
		h.rooms[c.CommunityID] = make(map[string]*Client)
		if h.redisSub != nil {
			cancel, err := h.redisSub.SubscribeRoom(c.CommunityID, func(event string, payload []byte) {
				h.BroadcastToRoom(c.CommunityID, event, json.RawMessage(payload))
			})
			if err == nil {
				h.subs[c.CommunityID] = cancel
			}
		}
	}
	h.rooms[c.CommunityID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined room", zap.String("client_id", c.ID), zap.String("community_id", c.CommunityID.String()))
}

// Unregister removes a client. The last client leaving a room cancels its
// Redis subscription.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.CommunityID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.CommunityID)
			if cancel, ok := h.subs[c.CommunityID]; ok {
				cancel()
				delete(h.subs, c.CommunityID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left room", zap.String("client_id", c.ID), zap.String("community_id", c.CommunityID.String()))
}

// BroadcastToRoom sends a message to all local clients in a room.
func (h *Hub) BroadcastToRoom(communityID uuid.UUID, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	clients := h.rooms[communityID]
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// PublishToRoom publishes to Redis only, so the subscriber callback performs
// the broadcast exactly once per instance (including this one). Falls back
// to a local broadcast when no publisher is wired.
func (h *Hub) PublishToRoom(communityID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redisPub != nil {
		_ = h.redisPub.PublishRoomEvent(communityID, event, data)
		return
	}
	h.BroadcastToRoom(communityID, event, payload)
}

// RoomSize returns the number of connected clients in a room.
func (h *Hub) RoomSize(communityID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[communityID])
}

func (h *Hub) messageHandler() MessageHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.onMessage
}
