package websocket

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"coursenova-backend/internal/logger"
	"coursenova-backend/internal/models"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	sendBuffer = 16
)

// TokenParser resolves a bearer token to a user id. *middleware.JWTAuth implements it.
type TokenParser interface {
	ParseToken(token string) (uuid.UUID, string, error)
}

// client owns one socket. Only writePump writes to conn.
type client struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Hub relays per-user events from Redis pub/sub to that user's open sockets.
// One subscription is held per user while at least one socket is open.
type Hub struct {
	mu          sync.RWMutex
	connections map[uuid.UUID]map[*client]struct{}
	cancelFuncs map[uuid.UUID]context.CancelFunc
	redisClient *redis.Client
	auth        TokenParser
	upgrader    websocket.Upgrader
	log         *logger.Logger
}

// NewHub builds a hub. redisClient may be nil, in which case sockets are
// accepted but receive no events.
func NewHub(redisClient *redis.Client, auth TokenParser, allowedOrigin string, log *logger.Logger) *Hub {
	return &Hub{
		connections: make(map[uuid.UUID]map[*client]struct{}),
		cancelFuncs: make(map[uuid.UUID]context.CancelFunc),
		redisClient: redisClient,
		auth:        auth,
		log:         log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowedOrigin == "*" || origin == allowedOrigin
			},
		},
	}
}

func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Authenticate via token query param
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	userID, _, err := h.auth.ParseToken(tokenStr)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", "user_id", userID.String(), "error", err)
		return
	}

	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)

	go h.writePump(c)
	go h.readPump(c)
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.connections[c.userID]
	if !ok {
		set = make(map[*client]struct{})
		h.connections[c.userID] = set
	}
	set[c] = struct{}{}

	// Start pub/sub subscription if this is the first connection for this user
	if len(set) == 1 && h.redisClient != nil {
		ctx, cancel := context.WithCancel(context.Background())
		h.cancelFuncs[c.userID] = cancel
		go h.subscribe(ctx, c.userID)
	}

	h.log.Debug("WebSocket connected", "user_id", c.userID.String(), "connections", len(set))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set := h.connections[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	c.close()

	// If no more connections, cancel pub/sub
	if len(set) == 0 {
		delete(h.connections, c.userID)
		if cancel, ok := h.cancelFuncs[c.userID]; ok {
			cancel()
			delete(h.cancelFuncs, c.userID)
		}
	}

	h.log.Debug("WebSocket disconnected", "user_id", c.userID.String())
}

// readPump drains client frames so pongs and close frames are processed.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
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

func (h *Hub) subscribe(ctx context.Context, userID uuid.UUID) {
	pubsub := h.redisClient.Subscribe(ctx, models.UserUpdatesChannel(userID))
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			h.broadcast(userID, []byte(msg.Payload))
		}
	}
}

// broadcast queues data for every socket of userID. A socket whose buffer is
// full is skipped for this message.
func (h *Hub) broadcast(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.connections[userID] {
		select {
		case c.send <- data:
		default:
			h.log.Warn("Dropping WebSocket message for slow client", "user_id", userID.String())
		}
	}
}

// Shutdown stops all subscriptions and closes every socket.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, cancel := range h.cancelFuncs {
		cancel()
		delete(h.cancelFuncs, userID)
	}
	for userID, set := range h.connections {
		for c := range set {
			c.close()
		}
		delete(h.connections, userID)
	}
}
