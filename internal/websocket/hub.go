package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/metrics"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8192
)

// Inbound routes a player's point-to-point message to the owning room.
type Inbound func(roomCode string, msg models.ClientMessage)

// Hub maintains active websocket connections per room and carries the
// host's broadcast and targeted streams.
type Hub struct {
	log     *zap.Logger
	metrics *metrics.Metrics
	inbound Inbound

	clients    map[*Client]bool
	rooms      map[string]map[*Client]bool
	broadcast  chan *outbound
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

// outbound is one message queued for fan-out.
type outbound struct {
	RoomCode string
	ToUID    string // empty means everyone in the room
	Message  models.PublicMessage
}

// NewHub creates a hub. The inbound callback receives every parsed player
// message.
func NewHub(log *zap.Logger, m *metrics.Metrics, inbound Inbound) *Hub {
	return &Hub{
		log:        log,
		metrics:    m,
		inbound:    inbound,
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		broadcast:  make(chan *outbound, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.log.Info("hub shutting down")
			return
		case client := <-h.register:
			h.registerClient(client)
		case client := <-h.unregister:
			h.unregisterClient(client)
		case msg := <-h.broadcast:
			h.fanOut(msg)
		}
	}
}

// RoomTransport adapts the hub to one room's outbound streams.
func (h *Hub) RoomTransport(roomCode string) *RoomTransport {
	return &RoomTransport{hub: h, roomCode: roomCode}
}

// RoomTransport implements the coordinator's Transport over the hub.
type RoomTransport struct {
	hub      *Hub
	roomCode string
}

// Broadcast fans a public message out to the whole room.
func (t *RoomTransport) Broadcast(msg models.PublicMessage) {
	t.hub.broadcast <- &outbound{RoomCode: t.roomCode, Message: msg}
	if t.hub.metrics != nil {
		t.hub.metrics.PublicBroadcasts.Inc()
	}
}

// SendTo targets one UID in the room.
func (t *RoomTransport) SendTo(uid string, msg models.PublicMessage) {
	t.hub.broadcast <- &outbound{RoomCode: t.roomCode, ToUID: uid, Message: msg}
	if t.hub.metrics != nil {
		t.hub.metrics.TargetedSends.Inc()
		if msg.Private != nil && msg.Private.Payload.Kind == models.PrivateActionRejected {
			t.hub.metrics.RejectedActions.Inc()
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	if h.rooms[client.RoomCode] == nil {
		h.rooms[client.RoomCode] = make(map[*Client]bool)
	}
	h.rooms[client.RoomCode][client] = true
	if h.metrics != nil {
		h.metrics.ActiveConnections.Inc()
	}
	h.log.Info("client joined room",
		zap.String("uid", client.UID), zap.String("room", client.RoomCode))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.send)
	if clients, ok := h.rooms[client.RoomCode]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.rooms, client.RoomCode)
		}
	}
	if h.metrics != nil {
		h.metrics.ActiveConnections.Dec()
	}
	h.log.Info("client left room",
		zap.String("uid", client.UID), zap.String("room", client.RoomCode))
}

func (h *Hub) fanOut(msg *outbound) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[msg.RoomCode]
	if !ok {
		return
	}

	data, err := json.Marshal(msg.Message)
	if err != nil {
		h.log.Error("marshal outbound message", zap.Error(err))
		return
	}

	for client := range clients {
		if msg.ToUID != "" && client.UID != msg.ToUID {
			continue
		}
		select {
		case client.send <- data:
		default:
			// Send buffer full; drop the laggard, it can resync.
			close(client.send)
			delete(h.clients, client)
			delete(clients, client)
		}
	}
}

// RoomClientCount returns the live connection count for a room.
func (h *Hub) RoomClientCount(roomCode string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomCode])
}

// Client is one websocket connection.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	UID      string
	RoomCode string
}

// NewClient wraps an upgraded connection.
func NewClient(hub *Hub, conn *websocket.Conn, uid, roomCode string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		UID:      uid,
		RoomCode: roomCode,
	}
}

// Register announces the client to the hub.
func (c *Client) Register() {
	c.hub.register <- c
}

// ReadPump parses inbound player messages and routes them to the room.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.log.Warn("websocket read", zap.Error(err))
			}
			break
		}

		var msg models.ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.Warn("dropping unparseable player message", zap.Error(err))
			continue
		}
		// The socket identity wins over whatever UID the payload claims.
		msg.UID = c.UID
		if c.hub.inbound != nil {
			c.hub.inbound(c.RoomCode, msg)
		}
	}
}

// WritePump flushes queued messages and keeps the connection alive.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
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
