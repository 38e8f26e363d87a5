package engine

import "fmt"

// PlayerID identifies one seat in a round. IDs are assigned by the caller
// (the session layer maps them to real users) and are stable for the
// lifetime of one round.
type PlayerID = string

// Phase is the lifecycle phase of a round. Exactly one is active at a time.
type Phase string

const (
	PhaseSetup   Phase = "setup"
	PhasePlaying Phase = "playing"
	PhaseResults Phase = "results"
)

// Card is one face-down tile in the deal. Kind and Value are written by the
// variant's DealCards and interpreted only by that variant's IsMatch; the
// engine treats them as opaque.
type Card struct {
	ID        string   `json:"id"`
	Kind      string   `json:"kind"`
	Value     int      `json:"value"`
	Label     string   `json:"label,omitempty"`
	Pair      string   `json:"pair,omitempty"`
	Matched   bool     `json:"matched"`
	MatchedBy PlayerID `json:"matchedBy,omitempty"`
}

// Config holds a round's settings. Difficulty and TurnTimer are common to
// every variant; variant-specific fields live in Fields.
type Config struct {
	Difficulty int            `json:"difficulty"`
	TurnTimer  int            `json:"turnTimer"`
	Fields     map[string]int `json:"fields,omitempty"`
}

// Get returns the named field value and whether it is set.
func (c Config) Get(field string) (int, bool) {
	switch field {
	case "difficulty":
		return c.Difficulty, true
	case "turnTimer":
		return c.TurnTimer, true
	}
	v, ok := c.Fields[field]
	return v, ok
}

// Set writes the named field, routing unknown names into Fields.
func (c *Config) Set(field string, value int) {
	switch field {
	case "difficulty":
		c.Difficulty = value
	case "turnTimer":
		c.TurnTimer = value
	default:
		if c.Fields == nil {
			c.Fields = make(map[string]int)
		}
		c.Fields[field] = value
	}
}

// Clone returns an independent copy of the config.
func (c Config) Clone() Config {
	out := c
	if c.Fields != nil {
		out.Fields = make(map[string]int, len(c.Fields))
		for k, v := range c.Fields {
			out.Fields[k] = v
		}
	}
	return out
}

// Merge returns a copy of c with the override fields applied on top.
func (c Config) Merge(overrides map[string]int) Config {
	out := c.Clone()
	for k, v := range overrides {
		out.Set(k, v)
	}
	return out
}

// MoveType tags a Move.
type MoveType string

const (
	MoveStartGame     MoveType = "start_game"
	MoveFlipCard      MoveType = "flip_card"
	MoveClearMismatch MoveType = "clear_mismatch"
	MoveGoToSetup     MoveType = "go_to_setup"
	MoveSetConfig     MoveType = "set_config"
	MoveResumeGame    MoveType = "resume_game"
	MoveHoverCard     MoveType = "hover_card"
)

// Move is a single intended state transition. It is plain data so the
// session layer can ship it over any serializer unchanged.
//
// At is a caller-supplied unix-millisecond timestamp. The engine records it
// into the state (round start/end stamps) but never branches on it, so the
// same move always produces the same output on every machine.
type Move struct {
	Type MoveType `json:"type"`

	// Actor is the player the move is attributed to (FlipCard, HoverCard).
	Actor PlayerID `json:"actor,omitempty"`

	// StartGame payload.
	Players []PlayerID `json:"players,omitempty"`
	Seed    uint64     `json:"seed,omitempty"`
	Cards   []Card     `json:"cards,omitempty"` // pre-dealt deck; overrides DealCards

	// FlipCard / HoverCard payload. Empty CardID on HoverCard clears the hover.
	CardID string `json:"cardId,omitempty"`

	// SetConfig payload.
	Field string `json:"field,omitempty"`
	Value int    `json:"value,omitempty"`

	At int64 `json:"at,omitempty"`
}

func (m Move) String() string {
	return fmt.Sprintf("%s(actor=%s card=%s field=%s)", m.Type, m.Actor, m.CardID, m.Field)
}

// AuthContext carries the acting user and the player seats that user owns.
// Ownership enforcement is a thin guard for shared sessions, not a security
// boundary; a nil context skips the check entirely.
type AuthContext struct {
	ActingUserID    string
	PlayerOwnership map[PlayerID]string
}

// Owns reports whether the acting user owns the given player seat.
// Seats with no recorded owner are open to anyone.
func (a *AuthContext) Owns(player PlayerID) bool {
	if a == nil {
		return true
	}
	owner, ok := a.PlayerOwnership[player]
	if !ok {
		return true
	}
	return owner == a.ActingUserID
}

// MatchResult is the variant's verdict on two face-up cards.
type MatchResult struct {
	IsValid bool   `json:"isValid"`
	Kind    string `json:"kind,omitempty"` // e.g. "equal", "complement"
}
