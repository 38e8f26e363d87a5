// Package models holds the service-side data shapes shared across the
// session layer. The engine has its own plain types; these wrap them with
// identity the service cares about.
package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/antialias/abaci-one-sub007/engine"
)

// User is one authenticated (possibly guest) person connected to the
// service. A user may own several player seats in a shared session.
type User struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Seat binds an engine player id to the user who owns it.
type Seat struct {
	Player engine.PlayerID `json:"player"`
	UserID uuid.UUID       `json:"userId"`
}

// RoomInfo is the REST-facing summary of a room.
type RoomInfo struct {
	ID        uuid.UUID `json:"id"`
	Variant   string    `json:"variant"`
	Phase     string    `json:"phase"`
	Seats     []Seat    `json:"seats"`
	Private   bool      `json:"private"`
	CreatedAt time.Time `json:"createdAt"`
}
