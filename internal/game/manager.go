package game

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/engine"
	"github.com/antialias/abaci-one-sub007/engine/variants"
	"github.com/antialias/abaci-one-sub007/internal/models"
)

// ErrRoomNotFound is returned when a room id does not resolve.
var ErrRoomNotFound = errors.New("room not found")

// Manager is the registry of live rooms.
type Manager struct {
	mu            sync.RWMutex
	rooms         map[uuid.UUID]*Room
	mismatchDelay time.Duration
}

// NewManager creates an empty registry. mismatchDelay is how long a
// mismatched pair stays face up before the room clears it.
func NewManager(mismatchDelay time.Duration) *Manager {
	return &Manager{
		rooms:         make(map[uuid.UUID]*Room),
		mismatchDelay: mismatchDelay,
	}
}

// Create builds a room for the named variant and registers it.
func (m *Manager) Create(variantName string, cfg engine.Config, passcodeHash string) (*Room, error) {
	v, err := variants.ByName(variantName)
	if err != nil {
		return nil, err
	}
	if err := checkInitialConfig(v, cfg); err != nil {
		return nil, err
	}
	room := NewRoom(v, cfg, m.mismatchDelay)
	room.PasscodeHash = passcodeHash

	m.mu.Lock()
	m.rooms[room.ID] = room
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"room": room.ID, "variant": variantName}).Info("room created")
	return room, nil
}

// checkInitialConfig validates whatever the creator supplied. Unset fields
// stay unset — the setup phase fills them in through SetConfig, and the
// engine validates the whole config again at StartGame — but a field the
// creator did set must pass the variant's validator before the room exists.
func checkInitialConfig(v engine.Variant, cfg engine.Config) error {
	if cfg.Difficulty != 0 {
		if err := v.ValidateConfigField("difficulty", cfg.Difficulty); err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
	}
	if cfg.TurnTimer != 0 {
		if err := v.ValidateConfigField("turnTimer", cfg.TurnTimer); err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
	}
	for field, value := range cfg.Fields {
		if err := v.ValidateConfigField(field, value); err != nil {
			return fmt.Errorf("invalid config: %v", err)
		}
	}
	return nil
}

// Get resolves a room by id.
func (m *Manager) Get(id uuid.UUID) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[id]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

// List summarizes every live room.
func (m *Manager) List() []models.RoomInfo {
	m.mu.RLock()
	rooms := make([]*Room, 0, len(m.rooms))
	for _, r := range m.rooms {
		rooms = append(rooms, r)
	}
	m.mu.RUnlock()

	out := make([]models.RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Info())
	}
	return out
}

// Remove closes and deregisters a room.
func (m *Manager) Remove(id uuid.UUID) {
	m.mu.Lock()
	room, ok := m.rooms[id]
	delete(m.rooms, id)
	m.mu.Unlock()
	if ok {
		room.Close()
		logrus.WithField("room", id).Info("room removed")
	}
}
