package game

import (
	"sync"

	"github.com/antialias/abaci-one-sub007/engine"
)

// Mirror is the client-side picture of a shared session: the last state
// confirmed by the authority plus at most the client's own optimistic
// prediction layered on top. Because the engine is deterministic, a
// prediction made from the latest confirmed state matches the authority's
// outcome whenever no other move raced in ahead of it; either way the next
// confirmed broadcast is authoritative and the prediction is discarded.
type Mirror struct {
	mu        sync.Mutex
	confirmed *engine.GameState
	predicted *engine.GameState
}

// NewMirror starts a mirror from an initial confirmed state.
func NewMirror(initial *engine.GameState) *Mirror {
	return &Mirror{confirmed: initial}
}

// Current returns what the client should render: the prediction if one is
// pending, otherwise the confirmed state.
func (m *Mirror) Current() *engine.GameState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.predicted != nil {
		return m.predicted
	}
	return m.confirmed
}

// Predict applies the client's own move locally for immediate feedback. A
// rejection here is final — the authority would reject it identically — so
// the caller need not send a move Predict refuses.
func (m *Mirror) Predict(v engine.Variant, mv engine.Move, actx *engine.AuthContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.confirmed
	if m.predicted != nil {
		base = m.predicted
	}
	next, err := engine.ProcessMove(v, base, mv, actx)
	if err != nil {
		return err
	}
	m.predicted = next
	return nil
}

// Reconcile installs a confirmed state from the authority and discards any
// pending prediction, whether or not the two agree.
func (m *Mirror) Reconcile(confirmed *engine.GameState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmed = confirmed
	m.predicted = nil
}
