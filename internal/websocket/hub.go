package websocket

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"

	"refyn-backend/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans generation progress events out to each user's open websocket
// connections. Workers publish to the per-user redis channel; the hub
// keeps a single subscription per user alive while that user has at
// least one connection.
type Hub struct {
	mu       sync.RWMutex
	conns    map[uuid.UUID]map[*websocket.Conn]struct{}
	watchers map[uuid.UUID]context.CancelFunc

	events    *redis.Client
	jwtSecret []byte
}

func NewHub(events *redis.Client, jwtSecret string) *Hub {
	return &Hub{
		conns:     make(map[uuid.UUID]map[*websocket.Conn]struct{}),
		watchers:  make(map[uuid.UUID]context.CancelFunc),
		events:    events,
		jwtSecret: []byte(jwtSecret),
	}
}

// HandleWebSocket upgrades the request after validating the access token
// passed as a query parameter (browsers cannot set an Authorization
// header on a websocket handshake).
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.authenticate(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed for user %s: %v", userID, err)
		return
	}

	h.attach(userID, conn)

	// Drain the connection until the client goes away. Inbound frames
	// are ignored; the socket is push-only.
	go func() {
		defer h.detach(userID, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (h *Hub) authenticate(r *http.Request) (uuid.UUID, bool) {
	tokenStr := r.URL.Query().Get("token")
	if tokenStr == "" {
		return uuid.Nil, false
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, false
	}

	sub, _ := claims["sub"].(string)
	userID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return userID, true
}

func (h *Hub) attach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*websocket.Conn]struct{})
		h.conns[userID] = set

		// First connection for this user: start watching their channel.
		ctx, cancel := context.WithCancel(context.Background())
		h.watchers[userID] = cancel
		go h.watchUserEvents(ctx, userID)
	}
	set[conn] = struct{}{}

	log.Printf("websocket: user %s connected (%d open)", userID, len(set))
}

func (h *Hub) detach(userID uuid.UUID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn.Close()

	set := h.conns[userID]
	delete(set, conn)
	if len(set) == 0 {
		delete(h.conns, userID)
		if cancel, ok := h.watchers[userID]; ok {
			cancel()
			delete(h.watchers, userID)
		}
	}

	log.Printf("websocket: user %s disconnected", userID)
}

func (h *Hub) watchUserEvents(ctx context.Context, userID uuid.UUID) {
	sub := h.events.Subscribe(ctx, models.UserEventChannel(userID))
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			h.fanOut(userID, []byte(msg.Payload))
		}
	}
}

func (h *Hub) fanOut(userID uuid.UUID, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for conn := range h.conns[userID] {
		conn.WriteMessage(websocket.TextMessage, data)
	}
}

// SendToUser pushes a message to the user's connections on this instance
// directly, bypassing redis.
func (h *Hub) SendToUser(userID uuid.UUID, msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	h.fanOut(userID, data)
}
