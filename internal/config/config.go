package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server ServerConfig
	Redis  RedisConfig
	JWT    JWTConfig
	Audio  AudioConfig
	Game   GameConfig
}

type ServerConfig struct {
	Address        string
	Environment    string
	AllowedOrigins []string
}

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// Enabled turns the cross-instance room presence registry on.
	Enabled bool
}

type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type AudioConfig struct {
	// ClipDuration is the fixed narration clip length for the static player.
	ClipDuration time.Duration
	// SafetyTimeout caps any single clip so a wedged player never blocks
	// the night.
	SafetyTimeout time.Duration
}

type GameConfig struct {
	// NightBeginPause is the fixed pause after the night-begin clip.
	NightBeginPause time.Duration
	// RoomIdleTimeout closes rooms with no activity.
	RoomIdleTimeout time.Duration
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Address:        getEnv("SERVER_ADDRESS", ":8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
		},
		Redis: RedisConfig{
			Address:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			Enabled:  getEnvBool("REDIS_ENABLED", false),
		},
		JWT: JWTConfig{
			Secret:      getEnv("JWT_SECRET", ""),
			ExpiryHours: getEnvInt("JWT_EXPIRY_HOURS", 24),
		},
		Audio: AudioConfig{
			ClipDuration:  getEnvDuration("AUDIO_CLIP_DURATION", 4*time.Second),
			SafetyTimeout: getEnvDuration("AUDIO_SAFETY_TIMEOUT", 15*time.Second),
		},
		Game: GameConfig{
			NightBeginPause: getEnvDuration("NIGHT_BEGIN_PAUSE", 5*time.Second),
			RoomIdleTimeout: getEnvDuration("ROOM_IDLE_TIMEOUT", 20*time.Minute),
		},
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.Environment == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWT.Secret = "dev-secret-do-not-use"
	}
	if cfg.Audio.SafetyTimeout < 15*time.Second {
		cfg.Audio.SafetyTimeout = 15 * time.Second
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
