package room

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/metrics"
)

const (
	// CleanupInterval is how often the idle sweep runs.
	CleanupInterval = 2 * time.Minute
	// presenceTTL bounds a room's redis registration between refreshes.
	presenceTTL = 30 * time.Minute

	roomCodeLength = 6
	roomCodeDigits = "0123456789"
)

// Room is one live game on this host.
type Room struct {
	Code         string
	HostUID      string
	Coordinator  *game.Coordinator
	PasscodeHash []byte
	CreatedAt    time.Time
	LastActivity time.Time
}

// RequiresPasscode reports whether joiners must present a passcode.
func (r *Room) RequiresPasscode() bool {
	return len(r.PasscodeHash) > 0
}

// CheckPasscode verifies a join passcode against the stored hash.
func (r *Room) CheckPasscode(passcode string) bool {
	if !r.RequiresPasscode() {
		return true
	}
	return bcrypt.CompareHashAndPassword(r.PasscodeHash, []byte(passcode)) == nil
}

// TransportFactory builds the outbound streams for a new room.
type TransportFactory func(roomCode string) game.Transport

// AudioFactory builds the audio player for a new room.
type AudioFactory func(roomCode string) game.AudioPlayer

// Registry owns every room on this host instance. An optional redis client
// keeps an ephemeral cross-instance presence record per room code; nil
// degrades to single-instance in-memory lookup.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*Room

	log         *zap.Logger
	rdb         *redis.Client
	metrics     *metrics.Metrics
	transports  TransportFactory
	audios      AudioFactory
	idleTimeout time.Duration
	gameOpts    game.Options
	rng         *rand.Rand
}

// NewRegistry builds the room registry.
func NewRegistry(log *zap.Logger, rdb *redis.Client, m *metrics.Metrics, transports TransportFactory, audios AudioFactory, idleTimeout time.Duration, gameOpts game.Options) *Registry {
	return &Registry{
		rooms:       make(map[string]*Room),
		log:         log,
		rdb:         rdb,
		metrics:     m,
		transports:  transports,
		audios:      audios,
		idleTimeout: idleTimeout,
		gameOpts:    gameOpts,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Create allocates a room code, builds its coordinator and registers
// presence.
func (reg *Registry) Create(ctx context.Context, hostUID string, template []game.RoleID, passcode string) (*Room, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	code, err := reg.allocateCodeLocked()
	if err != nil {
		return nil, err
	}

	var hash []byte
	if passcode != "" {
		hash, err = bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash passcode: %w", err)
		}
	}

	coord, err := game.NewCoordinator(code, hostUID, template,
		reg.transports(code), reg.audios(code), reg.log.Named("room."+code), reg.gameOpts)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := &Room{
		Code:         code,
		HostUID:      hostUID,
		Coordinator:  coord,
		PasscodeHash: hash,
		CreatedAt:    now,
		LastActivity: now,
	}
	reg.rooms[code] = room
	if reg.metrics != nil {
		reg.metrics.RoomsActive.Set(float64(len(reg.rooms)))
	}
	reg.refreshPresence(ctx, code)
	reg.log.Info("room created", zap.String("room", code), zap.String("host", hostUID))
	return room, nil
}

func (reg *Registry) allocateCodeLocked() (string, error) {
	for attempt := 0; attempt < 64; attempt++ {
		buf := make([]byte, roomCodeLength)
		for i := range buf {
			buf[i] = roomCodeDigits[reg.rng.Intn(len(roomCodeDigits))]
		}
		code := string(buf)
		if _, taken := reg.rooms[code]; !taken {
			return code, nil
		}
	}
	return "", fmt.Errorf("room code space exhausted")
}

// Get looks a room up by code.
func (reg *Registry) Get(code string) (*Room, bool) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	room, ok := reg.rooms[code]
	return room, ok
}

// Touch records activity and refreshes the presence TTL.
func (reg *Registry) Touch(ctx context.Context, code string) {
	reg.mu.Lock()
	if room, ok := reg.rooms[code]; ok {
		room.LastActivity = time.Now()
	}
	reg.mu.Unlock()
	reg.refreshPresence(ctx, code)
}

// Remove tears a room down and clears its presence record.
func (reg *Registry) Remove(ctx context.Context, code string) {
	reg.mu.Lock()
	room, ok := reg.rooms[code]
	if ok {
		delete(reg.rooms, code)
	}
	if reg.metrics != nil {
		reg.metrics.RoomsActive.Set(float64(len(reg.rooms)))
	}
	reg.mu.Unlock()

	if !ok {
		return
	}
	room.Coordinator.Close()
	if reg.rdb != nil {
		reg.rdb.Del(ctx, presenceKey(code))
	}
	reg.log.Info("room closed", zap.String("room", code))
}

// Start runs the idle cleanup loop until ctx ends.
func (reg *Registry) Start(ctx context.Context) {
	ticker := time.NewTicker(CleanupInterval)
	defer ticker.Stop()

	reg.log.Info("room registry cleanup started", zap.Duration("interval", CleanupInterval))
	for {
		select {
		case <-ctx.Done():
			reg.log.Info("room registry cleanup stopped")
			return
		case <-ticker.C:
			reg.sweepIdle(ctx)
		}
	}
}

func (reg *Registry) sweepIdle(ctx context.Context) {
	cutoff := time.Now().Add(-reg.idleTimeout)

	reg.mu.RLock()
	var idle []string
	for code, room := range reg.rooms {
		if room.LastActivity.Before(cutoff) {
			idle = append(idle, code)
		}
	}
	reg.mu.RUnlock()

	for _, code := range idle {
		reg.log.Info("closing idle room", zap.String("room", code))
		reg.Remove(ctx, code)
	}
}

func (reg *Registry) refreshPresence(ctx context.Context, code string) {
	if reg.rdb == nil {
		return
	}
	if err := reg.rdb.Set(ctx, presenceKey(code), "1", presenceTTL).Err(); err != nil {
		reg.log.Warn("refresh room presence", zap.String("room", code), zap.Error(err))
	}
}

func presenceKey(code string) string {
	return "werewolf:room:" + code
}
