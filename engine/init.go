package engine

// PracticePlayerID is the synthetic single player used by practice-break
// rounds.
const PracticePlayerID PlayerID = "practice"

// NewGame builds the setup-phase state for a fresh round.
func NewGame(v Variant, cfg Config) *GameState {
	return &GameState{
		Variant:    v.Name(),
		Phase:      PhaseSetup,
		Config:     cfg.Clone(),
		TotalPairs: v.PairCount(cfg),
	}
}

// NewGameSkipSetup deals immediately and starts in the playing phase, for
// contexts where a setup screen is redundant.
func NewGameSkipSetup(v Variant, cfg Config, players []PlayerID, seed uint64, at int64) (*GameState, error) {
	st := NewGame(v, cfg)
	return ProcessMove(v, st, Move{
		Type:    MoveStartGame,
		Players: players,
		Seed:    seed,
		At:      at,
	}, nil)
}

// NewPracticeBreak starts a constrained practice round: caller overrides are
// merged over the variant's practice defaults, the difficulty is shrunk to
// fit maxMinutes, and a single synthetic player starts directly in playing.
// Practice rounds never show a setup screen.
func NewPracticeBreak(v Variant, overrides map[string]int, maxMinutes int, seed uint64, at int64) (*GameState, error) {
	cfg := v.PracticeDefaults().Merge(overrides)
	if maxMinutes > 0 {
		cfg = v.PracticeShrink(cfg, maxMinutes)
	}
	return NewGameSkipSetup(v, cfg, []PlayerID{PracticePlayerID}, seed, at)
}
