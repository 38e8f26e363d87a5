// Package auth issues and verifies session tokens. A token binds a user id
// to the player seats that user owns in one room; the game layer turns the
// verified claims into the engine's AuthContext. This is a thin guard for
// shared sessions, not a hardened security boundary.
package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/antialias/abaci-one-sub007/engine"
)

// Claims is the JWT payload for a room session.
type Claims struct {
	UserID  string   `json:"uid"`
	RoomID  string   `json:"room"`
	Players []string `json:"players,omitempty"`
	jwt.RegisteredClaims
}

// CreateToken signs a session token for the user and their seats.
func CreateToken(secret []byte, userID, roomID uuid.UUID, players []engine.PlayerID, ttl time.Duration) (string, error) {
	seats := make([]string, len(players))
	copy(seats, players)
	claims := Claims{
		UserID:  userID.String(),
		RoomID:  roomID.String(),
		Players: seats,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses and validates a session token.
func VerifyToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthContext converts verified claims into the engine's ownership guard.
func (c *Claims) AuthContext() *engine.AuthContext {
	ownership := make(map[engine.PlayerID]string, len(c.Players))
	for _, p := range c.Players {
		ownership[p] = c.UserID
	}
	return &engine.AuthContext{
		ActingUserID:    c.UserID,
		PlayerOwnership: ownership,
	}
}

// HashPasscode hashes a private-room passcode for storage.
func HashPasscode(passcode string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash passcode: %w", err)
	}
	return string(hash), nil
}

// CheckPasscode compares a passcode attempt against the stored hash.
func CheckPasscode(hash, passcode string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
