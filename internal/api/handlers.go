package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/config"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/metrics"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/room"
	ws "github.com/olveryu/WerewolfGameJudge-sub003/internal/websocket"
)

// Handler wires the HTTP surface to the room registry and hub.
type Handler struct {
	log      *zap.Logger
	cfg      *config.Config
	rooms    *room.Registry
	hub      *ws.Hub
	metrics  *metrics.Metrics
	upgrader websocket.Upgrader
}

// NewHandler builds the API handler.
func NewHandler(log *zap.Logger, cfg *config.Config, rooms *room.Registry, hub *ws.Hub, m *metrics.Metrics) *Handler {
	return &Handler{
		log:     log,
		cfg:     cfg,
		rooms:   rooms,
		hub:     hub,
		metrics: m,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type createRoomRequest struct {
	HostUID     string   `json:"hostUid" binding:"required"`
	Template    []string `json:"template" binding:"required,min=1"`
	Passcode    string   `json:"passcode"`
	DisplayName string   `json:"displayName"`
}

type createRoomResponse struct {
	RoomCode string `json:"roomCode"`
	Token    string `json:"token"`
}

// CreateRoom allocates a room for a template and returns the host's token.
func (h *Handler) CreateRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	template := make([]game.RoleID, len(req.Template))
	for i, r := range req.Template {
		id := game.RoleID(r)
		if !game.KnownRole(id) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role: " + r})
			return
		}
		template[i] = id
	}

	rm, err := h.rooms.Create(c.Request.Context(), req.HostUID, template, req.Passcode)
	if err != nil {
		h.log.Error("create room", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create room"})
		return
	}

	token, err := GenerateRoomToken(req.HostUID, rm.Code, h.cfg.JWT.Secret, h.cfg.JWT.ExpiryHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	c.JSON(http.StatusCreated, createRoomResponse{RoomCode: rm.Code, Token: token})
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode" binding:"required"`
	UID      string `json:"uid"`
	Passcode string `json:"passcode"`
}

type joinRoomResponse struct {
	RoomCode string `json:"roomCode"`
	UID      string `json:"uid"`
	Token    string `json:"token"`
}

// JoinRoom validates the passcode and issues a room-scoped token. The seat
// itself is claimed later over the websocket seat protocol.
func (h *Handler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rm, ok := h.rooms.Get(req.RoomCode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	if !rm.CheckPasscode(req.Passcode) {
		c.JSON(http.StatusForbidden, gin.H{"error": "wrong passcode"})
		return
	}

	uid := req.UID
	if uid == "" {
		uid = uuid.NewString()
	}
	token, err := GenerateRoomToken(uid, rm.Code, h.cfg.JWT.Secret, h.cfg.JWT.ExpiryHours)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}
	h.rooms.Touch(c.Request.Context(), rm.Code)
	c.JSON(http.StatusOK, joinRoomResponse{RoomCode: rm.Code, UID: uid, Token: token})
}

// GetRoomState answers an HTTP poll with the current snapshot.
func (h *Handler) GetRoomState(c *gin.Context) {
	rm, ok := h.roomFromContext(c)
	if !ok {
		return
	}
	state, revision := rm.Coordinator.SnapshotState()
	if h.metrics != nil {
		h.metrics.SnapshotRequests.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"state": state, "revision": revision})
}

// HandleWebSocket upgrades a token-bearing connection and pumps it. The
// token rides a query param because browsers cannot set headers here.
func (h *Handler) HandleWebSocket(c *gin.Context) {
	claims, err := ParseRoomToken(c.Query("token"), h.cfg.JWT.Secret)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}
	rm, ok := h.rooms.Get(claims.RoomCode)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade", zap.Error(err))
		return
	}

	client := ws.NewClient(h.hub, conn, claims.UID, claims.RoomCode)
	client.Register()
	go client.WritePump()
	go client.ReadPump()

	// Late joiners get the current state without asking.
	rm.Coordinator.HandleRequestState(claims.UID)
	h.rooms.Touch(c.Request.Context(), claims.RoomCode)
}

// ==== host-only operations ====

// AssignRoles shuffles and deals the template.
func (h *Handler) AssignRoles(c *gin.Context) {
	h.hostOp(c, func(rm *room.Room) error { return rm.Coordinator.AssignRoles() })
}

// StartGame begins the night.
func (h *Handler) StartGame(c *gin.Context) {
	h.hostOp(c, func(rm *room.Room) error { return rm.Coordinator.StartGame() })
}

// RestartGame returns an ended room to the lobby.
func (h *Handler) RestartGame(c *gin.Context) {
	h.hostOp(c, func(rm *room.Room) error { return rm.Coordinator.RestartGame() })
}

// EmergencyRestart recovers a stuck mid-game room.
func (h *Handler) EmergencyRestart(c *gin.Context) {
	h.hostOp(c, func(rm *room.Room) error { return rm.Coordinator.EmergencyRestartAndReshuffleRoles() })
}

type seatBotRequest struct {
	Seat        int    `json:"seat"`
	DisplayName string `json:"displayName"`
}

// SeatBot fills a seat with a host-controlled bot.
func (h *Handler) SeatBot(c *gin.Context) {
	var req seatBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.hostOp(c, func(rm *room.Room) error { return rm.Coordinator.SeatBot(req.Seat, req.DisplayName) })
}

// CloseRoom tears the room down.
func (h *Handler) CloseRoom(c *gin.Context) {
	rm, ok := h.roomFromContext(c)
	if !ok {
		return
	}
	if c.GetString("uid") != rm.HostUID {
		c.JSON(http.StatusForbidden, gin.H{"error": "host only"})
		return
	}
	h.rooms.Remove(c.Request.Context(), rm.Code)
	c.JSON(http.StatusOK, gin.H{"status": "closed"})
}

func (h *Handler) hostOp(c *gin.Context, op func(rm *room.Room) error) {
	rm, ok := h.roomFromContext(c)
	if !ok {
		return
	}
	if c.GetString("uid") != rm.HostUID {
		c.JSON(http.StatusForbidden, gin.H{"error": "host only"})
		return
	}
	if err := op(rm); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	h.rooms.Touch(c.Request.Context(), rm.Code)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) roomFromContext(c *gin.Context) (*room.Room, bool) {
	code := c.Param("roomCode")
	if code == "" {
		code = c.GetString("roomCode")
	}
	rm, ok := h.rooms.Get(code)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	// A token minted for one room does not open another.
	if claimed := c.GetString("roomCode"); claimed != "" && claimed != rm.Code {
		c.JSON(http.StatusForbidden, gin.H{"error": "token not valid for this room"})
		return nil, false
	}
	return rm, true
}
