// Package game is the session adapter around the engine: it owns the one
// canonical GameState per room, funnels every move through it in receipt
// order, and fans the resulting state out to connected clients. The engine
// stays a pure function; everything stateful lives here.
package game

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/antialias/abaci-one-sub007/engine"
	"github.com/antialias/abaci-one-sub007/internal/cache"
	"github.com/antialias/abaci-one-sub007/internal/database"
	"github.com/antialias/abaci-one-sub007/internal/models"
)

// EventType tags a frame sent to clients.
type EventType string

const (
	// EventState carries the full canonical state after an accepted move.
	EventState EventType = "state"
	// EventMoveRejected is sent privately to the submitter of a rejected move.
	EventMoveRejected EventType = "move_rejected"
	// EventResults carries the results report exactly once per finished round.
	EventResults EventType = "results"
)

// Event is the frame shipped over the room's broadcast channels.
type Event struct {
	Type   EventType `json:"type"`
	Seq    int       `json:"seq"`
	State  *StateMsg `json:"state,omitempty"`
	// Move is the accepted, authority-stamped move on state frames and the
	// offending move on rejection frames.
	Move   *engine.Move          `json:"move,omitempty"`
	Error  string                `json:"error,omitempty"`
	Report *engine.ResultsReport `json:"report,omitempty"`
}

// OnRoundEndFunc runs after a round reaches results and is summarized.
type OnRoundEndFunc func(roomID uuid.UUID, report *engine.ResultsReport)

// Room hosts one shared game. All access to the canonical state goes
// through Apply under the room mutex, so moves are applied exactly in the
// order they arrive — the single-writer rule that makes client-side
// prediction safe to overwrite.
type Room struct {
	ID           uuid.UUID
	Variant      engine.Variant
	CreatedAt    time.Time
	PasscodeHash string // empty for public rooms

	mu         sync.Mutex
	state      *engine.GameState
	moveIndex  int
	transcript []cache.MoveRecord
	seats      map[engine.PlayerID]uuid.UUID
	summarized bool

	mismatchDelay time.Duration
	mismatchTimer *time.Timer

	log *logrus.Entry

	// Communication callbacks, installed by the transport layer.
	BroadcastFn       func(ev Event)
	BroadcastToUserFn func(userID uuid.UUID, ev Event)
	OnRoundEnd        OnRoundEndFunc
}

// NewRoom creates a room in the setup phase for the given variant.
func NewRoom(v engine.Variant, cfg engine.Config, mismatchDelay time.Duration) *Room {
	id := uuid.New()
	return &Room{
		ID:            id,
		Variant:       v,
		CreatedAt:     time.Now(),
		state:         engine.NewGame(v, cfg),
		seats:         make(map[engine.PlayerID]uuid.UUID),
		mismatchDelay: mismatchDelay,
		log:           logrus.WithFields(logrus.Fields{"room": id, "variant": v.Name()}),
	}
}

// State returns the current canonical state. The engine copies on write, so
// the returned pointer is a stable snapshot.
func (r *Room) State() *engine.GameState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ClaimSeat records that a user owns a player seat.
func (r *Room) ClaimSeat(player engine.PlayerID, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if owner, taken := r.seats[player]; taken && owner != userID {
		return errors.New("seat already claimed")
	}
	r.seats[player] = userID
	r.log.WithFields(logrus.Fields{"player": player, "user": userID}).Info("seat claimed")
	return nil
}

// Seats returns the current seat ownership.
func (r *Room) Seats() []models.Seat {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.Seat, 0, len(r.seats))
	for p, u := range r.seats {
		out = append(out, models.Seat{Player: p, UserID: u})
	}
	return out
}

// authContext builds the engine's ownership guard from the seat map.
// Assumes lock is held by caller.
func (r *Room) authContext(userID uuid.UUID) *engine.AuthContext {
	ownership := make(map[engine.PlayerID]string, len(r.seats))
	for p, u := range r.seats {
		ownership[p] = u.String()
	}
	return &engine.AuthContext{
		ActingUserID:    userID.String(),
		PlayerOwnership: ownership,
	}
}

// Apply submits one move on behalf of a user. Rejections are reported back
// to the submitter only; accepted moves are recorded, published to the
// historian, and broadcast as the new canonical state.
func (r *Room) Apply(userID uuid.UUID, mv engine.Move) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.applyLocked(userID, mv)
}

func (r *Room) applyLocked(userID uuid.UUID, mv engine.Move) error {
	// The authority stamps receipt time and deal seed; clients predicting
	// locally use the stamped move echoed back in the state broadcast.
	if mv.At == 0 {
		mv.At = time.Now().UnixMilli()
	}
	if mv.Type == engine.MoveStartGame && mv.Seed == 0 && mv.Cards == nil {
		mv.Seed = uint64(time.Now().UnixNano())
	}

	next, err := engine.ProcessMove(r.Variant, r.state, mv, r.authContext(userID))
	if err != nil {
		r.log.WithError(err).WithFields(logrus.Fields{"user": userID, "move": mv.Type}).Debug("move rejected")
		r.fireEventToUser(userID, Event{
			Type:  EventMoveRejected,
			Seq:   r.moveIndex,
			Move:  &mv,
			Error: err.Error(),
		})
		return err
	}

	r.state = next
	r.moveIndex++
	r.record(userID, mv)

	if mv.Type == engine.MoveStartGame {
		// New round: the previous round's report guard resets.
		r.summarized = false
	}

	r.scheduleMismatchClear()
	r.finishRoundIfTerminal()
	r.broadcastState(&mv)
	return nil
}

// record appends to the in-memory transcript and hands the entry to the
// redis historian. Assumes lock is held by caller.
func (r *Room) record(userID uuid.UUID, mv engine.Move) {
	payload, err := json.Marshal(mv)
	if err != nil {
		r.log.WithError(err).Error("failed to encode move for transcript")
		payload = nil
	}
	rec := cache.MoveRecord{
		RoomID:      r.ID,
		Index:       r.moveIndex,
		ActorUserID: userID,
		MoveType:    string(mv.Type),
		Payload:     payload,
		Timestamp:   mv.At,
	}
	r.transcript = append(r.transcript, rec)
	cache.PublishMoveRecordAsync(rec)
}

// scheduleMismatchClear arms the display-delay timer after a mismatch. The
// engine never clears the buffer itself; the room submits ClearMismatch as
// a regular move so every participant sees it in the transcript.
// Assumes lock is held by caller.
func (r *Room) scheduleMismatchClear() {
	if r.mismatchTimer != nil {
		r.mismatchTimer.Stop()
		r.mismatchTimer = nil
	}
	if !r.state.MismatchVisible || r.mismatchDelay <= 0 {
		return
	}
	r.mismatchTimer = time.AfterFunc(r.mismatchDelay, func() {
		if err := r.Apply(uuid.Nil, engine.Move{Type: engine.MoveClearMismatch}); err != nil {
			r.log.WithError(err).Warn("scheduled mismatch clear rejected")
		}
	})
}

// finishRoundIfTerminal summarizes a freshly finished round exactly once,
// persists the report, and notifies everyone. Assumes lock is held.
func (r *Room) finishRoundIfTerminal() {
	if !r.state.IsTerminal() || r.summarized {
		return
	}
	r.summarized = true

	report := engine.Summarize(r.Variant, r.state, r.state.Config)
	r.log.WithField("headline", report.Headline).Info("round finished")

	database.StoreResultsReportAsync(r.ID, report)
	r.fireEvent(Event{Type: EventResults, Seq: r.moveIndex, Report: report})

	if r.OnRoundEnd != nil {
		r.OnRoundEnd(r.ID, report)
	}
}

// broadcastState ships the canonical state to every participant, together
// with the accepted move that produced it so predicting clients can pick up
// the authority-stamped Seed and At. Assumes lock is held by caller.
func (r *Room) broadcastState(mv *engine.Move) {
	r.fireEvent(Event{
		Type:  EventState,
		Seq:   r.moveIndex,
		Move:  mv,
		State: BuildStateMsg(r.Variant, r.state),
	})
}

// HandleReconnect resends the canonical state to one user. The state is
// complete, so no per-move replay is needed; the transcript tail is for
// spectator UIs that render a move log.
func (r *Room) HandleReconnect(userID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log.WithField("user", userID).Info("reconnect, resyncing state")
	r.fireEventToUser(userID, Event{
		Type:  EventState,
		Seq:   r.moveIndex,
		State: BuildStateMsg(r.Variant, r.state),
	})
}

// TranscriptTail returns the last n transcript entries.
func (r *Room) TranscriptTail(n int) []cache.MoveRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > len(r.transcript) {
		n = len(r.transcript)
	}
	out := make([]cache.MoveRecord, n)
	copy(out, r.transcript[len(r.transcript)-n:])
	return out
}

// Info returns the REST-facing room summary.
func (r *Room) Info() models.RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	seats := make([]models.Seat, 0, len(r.seats))
	for p, u := range r.seats {
		seats = append(seats, models.Seat{Player: p, UserID: u})
	}
	return models.RoomInfo{
		ID:        r.ID,
		Variant:   r.Variant.Name(),
		Phase:     string(r.state.Phase),
		Seats:     seats,
		Private:   r.PasscodeHash != "",
		CreatedAt: r.CreatedAt,
	}
}

// Close stops the room's timers.
func (r *Room) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mismatchTimer != nil {
		r.mismatchTimer.Stop()
		r.mismatchTimer = nil
	}
}

// fireEvent broadcasts to all participants. Assumes lock is held by caller.
func (r *Room) fireEvent(ev Event) {
	if r.BroadcastFn == nil {
		r.log.WithField("event", ev.Type).Warn("BroadcastFn is nil, dropping event")
		return
	}
	r.BroadcastFn(ev)
}

// fireEventToUser sends to a single participant. Assumes lock is held.
func (r *Room) fireEventToUser(userID uuid.UUID, ev Event) {
	if r.BroadcastToUserFn == nil {
		return
	}
	r.BroadcastToUserFn(userID, ev)
}
