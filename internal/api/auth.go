package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// RoomClaims scope a join token to one UID in one room.
type RoomClaims struct {
	UID      string `json:"uid"`
	RoomCode string `json:"roomCode"`
	jwt.RegisteredClaims
}

// GenerateRoomToken mints a room-scoped join token.
func GenerateRoomToken(uid, roomCode, secret string, expiryHours int) (string, error) {
	claims := RoomClaims{
		UID:      uid,
		RoomCode: roomCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Duration(expiryHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseRoomToken validates a join token and returns its claims.
func ParseRoomToken(tokenString, secret string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid room token")
	}
	return claims, nil
}

// AuthMiddleware requires a bearer room token and stashes its claims on the
// context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		claims, err := ParseRoomToken(strings.TrimPrefix(header, "Bearer "), secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set("uid", claims.UID)
		c.Set("roomCode", claims.RoomCode)
		c.Next()
	}
}
