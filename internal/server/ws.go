package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/engine"
	"github.com/antialias/abaci-one-sub007/internal/game"
)

// wsClient is one live websocket connection. Outbound frames go through the
// send channel so a slow reader never blocks the room's broadcast path.
type wsClient struct {
	userID uuid.UUID
	conn   *websocket.Conn
	send   chan []byte
}

// hub fans room events out to every connection attached to one room.
type hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	log     *logrus.Entry
}

func newHub(roomID uuid.UUID) *hub {
	return &hub{
		clients: make(map[*wsClient]struct{}),
		log:     logrus.WithField("room", roomID),
	}
}

// attach wires the hub into the room's broadcast callbacks. Called once,
// right after room creation.
func (h *hub) attach(r *game.Room) {
	r.BroadcastFn = func(ev game.Event) {
		h.broadcast(ev)
	}
	r.BroadcastToUserFn = func(userID uuid.UUID, ev game.Event) {
		h.broadcastToUser(userID, ev)
	}
}

func (h *hub) add(c *wsClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	close(c.send)
}

func (h *hub) broadcast(ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Drop rather than stall; the client resyncs on reconnect.
		}
	}
}

func (h *hub) broadcastToUser(userID uuid.UUID, ev game.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.log.WithError(err).Error("failed to encode event")
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		if c.userID != userID {
			continue
		}
		select {
		case c.send <- data:
		default:
		}
	}
}

// writeLoop ships queued frames and keeps the connection alive with pings.
func (c *wsClient) writeLoop(ctx context.Context) {
	ping := time.NewTicker(15 * time.Second)
	defer func() {
		ping.Stop()
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.Write(ctx, websocket.MessageText, msg); err != nil {
				return
			}
		case <-ping.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// readLoop decodes move frames and submits them to the room. Decode
// failures close the connection; gameplay rejections do not — the room
// already answered those with a move_rejected event.
func (c *wsClient) readLoop(ctx context.Context, r *game.Room) {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			return
		}
		var mv engine.Move
		if err := json.Unmarshal(data, &mv); err != nil {
			c.conn.Close(websocket.StatusInvalidFramePayloadData, "malformed move frame")
			return
		}
		// Rejections are expected traffic under optimistic prediction.
		_ = r.Apply(c.userID, mv)
	}
}
