package game

import (
	"github.com/antialias/abaci-one-sub007/engine"
)

// CardView is a card as clients are allowed to see it. Face-down cards
// expose only identity and position; value, label, and pairing stay on the
// server until the card is flipped or matched.
type CardView struct {
	ID      string `json:"id"`
	Kind    string `json:"kind,omitempty"`
	Value   int    `json:"value,omitempty"`
	Label   string `json:"label,omitempty"`
	Matched bool   `json:"matched"`
	// MatchedBy is set once the card's pair is resolved.
	MatchedBy engine.PlayerID `json:"matchedBy,omitempty"`
	FaceUp    bool            `json:"faceUp"`
}

// StateMsg is the full canonical state broadcast after every accepted move.
type StateMsg struct {
	Phase           engine.Phase               `json:"phase"`
	Variant         string                     `json:"variant"`
	Config          engine.Config              `json:"config"`
	Cards           []CardView                 `json:"cards"`
	Flipped         []string                   `json:"flipped"`
	Players         []engine.PlayerID          `json:"players"`
	TurnOwner       engine.PlayerID            `json:"turnOwner,omitempty"`
	MatchedPairs    int                        `json:"matchedPairs"`
	TotalPairs      int                        `json:"totalPairs"`
	Moves           int                        `json:"moves"`
	Scores          map[engine.PlayerID]int    `json:"scores,omitempty"`
	Streaks         map[engine.PlayerID]int    `json:"streaks,omitempty"`
	MismatchVisible bool                       `json:"mismatchVisible"`
	Hovers          map[engine.PlayerID]string `json:"hovers,omitempty"`
	HasPausedRound  bool                       `json:"hasPausedRound"`
	Flippable       []string                   `json:"flippable,omitempty"`
	GameStartAt     int64                      `json:"gameStartAt,omitempty"`
	GameEndAt       int64                      `json:"gameEndAt,omitempty"`
}

// BuildStateMsg projects the canonical state into its client-visible form.
// The projection is the same for every participant: in a shared-screen
// matching game nobody holds private cards, the only secret is the face-down
// values, and those are secret from everyone alike.
func BuildStateMsg(v engine.Variant, st *engine.GameState) *StateMsg {
	flipped := make([]string, len(st.Flipped))
	faceUp := make(map[string]bool, len(st.Flipped))
	for i, c := range st.Flipped {
		flipped[i] = c.ID
		faceUp[c.ID] = true
	}
	msg := &StateMsg{
		Phase:           st.Phase,
		Variant:         st.Variant,
		Config:          st.Config.Clone(),
		Cards:           make([]CardView, len(st.Dealt)),
		Flipped:         flipped,
		Players:         append([]engine.PlayerID(nil), st.Players...),
		TurnOwner:       st.TurnOwner,
		MatchedPairs:    st.MatchedPairs,
		TotalPairs:      st.TotalPairs,
		Moves:           st.Moves,
		MismatchVisible: st.MismatchVisible,
		HasPausedRound:  st.Paused != nil,
		Flippable:       engine.FlippableCards(v, st),
		GameStartAt:     st.GameStartAt,
		GameEndAt:       st.GameEndAt,
	}
	for i, c := range st.Dealt {
		view := CardView{ID: c.ID, Matched: c.Matched, MatchedBy: c.MatchedBy}
		if c.Matched || faceUp[c.ID] {
			view.FaceUp = true
			view.Kind = c.Kind
			view.Value = c.Value
			view.Label = c.Label
		}
		msg.Cards[i] = view
	}
	if len(st.Scores) > 0 {
		msg.Scores = make(map[engine.PlayerID]int, len(st.Scores))
		for p, s := range st.Scores {
			msg.Scores[p] = s
		}
	}
	if len(st.Streaks) > 0 {
		msg.Streaks = make(map[engine.PlayerID]int, len(st.Streaks))
		for p, s := range st.Streaks {
			msg.Streaks[p] = s
		}
	}
	if len(st.Hovers) > 0 {
		msg.Hovers = make(map[engine.PlayerID]string, len(st.Hovers))
		for p, id := range st.Hovers {
			msg.Hovers[p] = id
		}
	}
	return msg
}
