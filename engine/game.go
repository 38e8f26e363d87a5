// Package engine implements the generic turn-based matching-game core.
//
// The engine is a pure, deterministic reducer: ProcessMove maps
// (state, move, authorization context) to either a rejection or a wholly new
// state. It performs no I/O, starts no goroutines, and reads no clocks, so
// the same inputs produce bit-identical output on every machine — the
// property that lets clients predict an outcome locally while a remote
// authority computes the canonical one from the same transcript.
package engine

const (
	// maxFlipped is the flip buffer capacity. Length 2 exists only for the
	// instant between the second flip and pair resolution.
	maxFlipped = 2
)

// GameState is the single source of truth for one round. It is mutated
// exclusively by ProcessMove, which copies before writing; holders of a
// stale pointer always observe a complete, un-torn state.
type GameState struct {
	Variant string `json:"variant"`
	Phase   Phase  `json:"phase"`
	Config  Config `json:"config"`

	Dealt   []Card `json:"dealt"`
	Flipped []Card `json:"flipped"`

	// Players is the turn rotation order captured at StartGame. Mid-round
	// roster changes are unsupported; the order never changes afterwards.
	Players   []PlayerID `json:"players"`
	TurnOwner PlayerID   `json:"turnOwner,omitempty"`

	MatchedPairs int `json:"matchedPairs"`
	TotalPairs   int `json:"totalPairs"`
	Moves        int `json:"moves"`

	Scores      map[PlayerID]int `json:"scores,omitempty"`
	Streaks     map[PlayerID]int `json:"streaks,omitempty"`
	BestStreaks map[PlayerID]int `json:"bestStreaks,omitempty"`

	// MismatchVisible is set after a failed pair resolution; the two cards
	// stay face-up until the caller issues ClearMismatch.
	MismatchVisible bool `json:"mismatchVisible,omitempty"`

	// Hovers is best-effort presence information, never authoritative over
	// gameplay.
	Hovers map[PlayerID]string `json:"hovers,omitempty"`

	// Paused holds the snapshot taken when a running round leaves for setup;
	// nil otherwise. OriginalConfig is the config in effect at StartGame,
	// kept to detect drift while paused.
	Paused         *PausedSnapshot `json:"paused,omitempty"`
	OriginalConfig *Config         `json:"originalConfig,omitempty"`

	// Recorded timestamps (unix ms), supplied by the caller through moves.
	// Never read back for gameplay decisions.
	GameStartAt int64 `json:"gameStartAt,omitempty"`
	GameEndAt   int64 `json:"gameEndAt,omitempty"`

	// Seed is the deal seed recorded at StartGame, for audit and replay.
	Seed uint64 `json:"seed,omitempty"`
}

// PausedSnapshot is a full copy of the round-progress fields taken at the
// moment the round is paused.
type PausedSnapshot struct {
	Phase           Phase            `json:"phase"`
	Dealt           []Card           `json:"dealt"`
	Flipped         []Card           `json:"flipped"`
	Players         []PlayerID       `json:"players"`
	TurnOwner       PlayerID         `json:"turnOwner,omitempty"`
	MatchedPairs    int              `json:"matchedPairs"`
	TotalPairs      int              `json:"totalPairs"`
	Moves           int              `json:"moves"`
	Scores          map[PlayerID]int `json:"scores,omitempty"`
	Streaks         map[PlayerID]int `json:"streaks,omitempty"`
	BestStreaks     map[PlayerID]int `json:"bestStreaks,omitempty"`
	MismatchVisible bool             `json:"mismatchVisible,omitempty"`
	GameStartAt     int64            `json:"gameStartAt,omitempty"`
	GameEndAt       int64            `json:"gameEndAt,omitempty"`
	Seed            uint64           `json:"seed,omitempty"`
}

// ---------------------------------------------------------------------------
// Copy-on-write
// ---------------------------------------------------------------------------

// Clone returns a deep copy. ProcessMove clones before every write so that
// mirrors held elsewhere remain valid snapshots.
func (g *GameState) Clone() *GameState {
	out := *g
	out.Dealt = cloneCards(g.Dealt)
	out.Flipped = cloneCards(g.Flipped)
	out.Players = clonePlayers(g.Players)
	out.Scores = cloneCounts(g.Scores)
	out.Streaks = cloneCounts(g.Streaks)
	out.BestStreaks = cloneCounts(g.BestStreaks)
	out.Config = g.Config.Clone()
	if g.Hovers != nil {
		out.Hovers = make(map[PlayerID]string, len(g.Hovers))
		for k, v := range g.Hovers {
			out.Hovers[k] = v
		}
	}
	if g.OriginalConfig != nil {
		oc := g.OriginalConfig.Clone()
		out.OriginalConfig = &oc
	}
	if g.Paused != nil {
		out.Paused = g.Paused.clone()
	}
	return &out
}

func (s *PausedSnapshot) clone() *PausedSnapshot {
	out := *s
	out.Dealt = cloneCards(s.Dealt)
	out.Flipped = cloneCards(s.Flipped)
	out.Players = clonePlayers(s.Players)
	out.Scores = cloneCounts(s.Scores)
	out.Streaks = cloneCounts(s.Streaks)
	out.BestStreaks = cloneCounts(s.BestStreaks)
	return &out
}

func cloneCards(cards []Card) []Card {
	if cards == nil {
		return nil
	}
	out := make([]Card, len(cards))
	copy(out, cards)
	return out
}

func clonePlayers(players []PlayerID) []PlayerID {
	if players == nil {
		return nil
	}
	out := make([]PlayerID, len(players))
	copy(out, players)
	return out
}

func cloneCounts(m map[PlayerID]int) map[PlayerID]int {
	if m == nil {
		return nil
	}
	out := make(map[PlayerID]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ---------------------------------------------------------------------------
// Query methods
// ---------------------------------------------------------------------------

// IsTerminal reports whether the round has finished.
func (g *GameState) IsTerminal() bool { return g.Phase == PhaseResults }

// CardByID returns the dealt card with the given id, or -1 if absent.
func (g *GameState) CardByID(id string) int {
	for i := range g.Dealt {
		if g.Dealt[i].ID == id {
			return i
		}
	}
	return -1
}

// NextPlayer returns the player after p in the fixed rotation order captured
// at StartGame. With a single player it returns that player.
func (g *GameState) NextPlayer(p PlayerID) PlayerID {
	n := len(g.Players)
	if n == 0 {
		return p
	}
	for i, id := range g.Players {
		if id == p {
			return g.Players[(i+1)%n]
		}
	}
	return g.Players[0]
}

// isFlipped reports whether the card id is currently in the flip buffer.
func (g *GameState) isFlipped(id string) bool {
	for _, f := range g.Flipped {
		if f.ID == id {
			return true
		}
	}
	return false
}
