package chat

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // allow all origins in dev; restrict in production
	},
}

// WSMessage is the WebSocket message envelope.
type WSMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// chatPayload is the body of a chat_message event.
type chatPayload struct {
	Body string `json:"body"`
}

// outboundChat is the broadcast shape of a chat message.
type outboundChat struct {
	CommunityID uuid.UUID `json:"community_id"`
	UserID      uuid.UUID `json:"user_id"`
	SenderName  string    `json:"sender_name"`
	Body        string    `json:"body"`
	SentAt      time.Time `json:"sent_at"`
}

// Client represents a single WebSocket connection in a community room.
type Client struct {
	ID          string
	CommunityID uuid.UUID
	UserID      uuid.UUID
	Name        string
	hub         *Hub
	conn        *websocket.Conn
	send        chan WSMessage
	logger      *zap.Logger
}

// TokenValidator validates a JWT token from the query string.
type TokenValidator func(token string) (userID uuid.UUID, displayName string, err error)

// ServeWs handles the WebSocket upgrade and runs the client loop. The token
// travels in the query string because browsers cannot set headers on
// WebSocket dials.
func ServeWs(hub *Hub, logger *zap.Logger, validate TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		communityIDStr := c.Query("community_id")
		token := c.Query("token")
		if communityIDStr == "" || token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "community_id and token required"})
			return
		}
		communityID, err := uuid.Parse(communityIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid community_id"})
			return
		}
		userID, name, err := validate(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:          uuid.New().String(),
			CommunityID: communityID,
			UserID:      userID,
			Name:        name,
			hub:         hub,
			conn:        conn,
			send:        make(chan WSMessage, 256),
			logger:      logger,
		}
		hub.Register(client)
		go client.writePump()
		client.readPump()
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(65536)
	_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		var msg WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			break
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))

		switch msg.Event {
		case "chat_message":
			var payload chatPayload
			if err := json.Unmarshal(msg.Data, &payload); err != nil || payload.Body == "" {
				continue
			}
			if fn := c.hub.messageHandler(); fn != nil {
				fn(c.CommunityID, c.UserID, c.Name, payload.Body)
			}
			c.hub.PublishToRoom(c.CommunityID, "chat_message", outboundChat{
				CommunityID: c.CommunityID,
				UserID:      c.UserID,
				SenderName:  c.Name,
				Body:        payload.Body,
				SentAt:      time.Now().UTC(),
			})
		case "presence":
			c.hub.PublishToRoom(c.CommunityID, "presence", map[string]interface{}{
				"user_id": c.UserID.String(),
				"name":    c.Name,
				"online":  c.hub.RoomSize(c.CommunityID),
			})
		default:
			// ignore
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
