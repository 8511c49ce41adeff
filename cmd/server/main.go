package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/olveryu/WerewolfGameJudge-sub003/internal/api"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/audio"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/config"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/game"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/metrics"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/models"
	"github.com/olveryu/WerewolfGameJudge-sub003/internal/room"
	ws "github.com/olveryu/WerewolfGameJudge-sub003/internal/websocket"
)

func main() {
	// Load .env if present; production sets env vars directly.
	_ = godotenv.Load(".env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	var logger *zap.Logger
	if cfg.Server.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, presence registry disabled", zap.Error(err))
			rdb = nil
		} else {
			logger.Info("connected to redis", zap.String("addr", cfg.Redis.Address))
		}
	}

	promReg := prometheus.NewRegistry()
	m := metrics.New(promReg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Registry and hub reference each other through narrow callbacks; the
	// hub is constructed first with a late-bound inbound route.
	var rooms *room.Registry
	hub := ws.NewHub(logger.Named("hub"), m, func(roomCode string, msg models.ClientMessage) {
		rm, ok := rooms.Get(roomCode)
		if !ok {
			return
		}
		rm.Coordinator.HandleMessage(msg)
		rooms.Touch(ctx, roomCode)
	})
	go hub.Run(ctx)
	logger.Info("websocket hub started")

	rooms = room.NewRegistry(
		logger.Named("rooms"),
		rdb,
		m,
		func(roomCode string) game.Transport { return hub.RoomTransport(roomCode) },
		func(string) game.AudioPlayer {
			return audio.NewStaticPlayer(cfg.Audio.ClipDuration, cfg.Audio.SafetyTimeout)
		},
		cfg.Game.RoomIdleTimeout,
		game.Options{NightBeginPause: cfg.Game.NightBeginPause},
	)
	go rooms.Start(ctx)

	handler := api.NewHandler(logger.Named("api"), cfg, rooms, hub, m)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	public := router.Group("/api/v1")
	{
		public.POST("/rooms", handler.CreateRoom)
		public.POST("/rooms/join", handler.JoinRoom)

		// WebSocket authenticates via query param token.
		public.GET("/ws", handler.HandleWebSocket)
	}

	protected := router.Group("/api/v1")
	protected.Use(api.AuthMiddleware(cfg.JWT.Secret))
	{
		protected.GET("/rooms/:roomCode", handler.GetRoomState)
		protected.POST("/rooms/:roomCode/assign", handler.AssignRoles)
		protected.POST("/rooms/:roomCode/start", handler.StartGame)
		protected.POST("/rooms/:roomCode/restart", handler.RestartGame)
		protected.POST("/rooms/:roomCode/emergency-restart", handler.EmergencyRestart)
		protected.POST("/rooms/:roomCode/bots", handler.SeatBot)
		protected.POST("/rooms/:roomCode/close", handler.CloseRoom)
	}

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server exited gracefully")
}
