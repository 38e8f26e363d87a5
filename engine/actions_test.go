package engine

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

// testVariant deals an unshuffled deck of value pairs laid out in order
// (ids p0-a, p0-b, p1-a, ...) so tests can flip known pairs by id.
type testVariant struct{}

func (testVariant) Name() string { return "test" }

func (testVariant) DealCards(cfg Config, rng *Rand) []Card {
	cards := make([]Card, 0, cfg.Difficulty*2)
	for i := 0; i < cfg.Difficulty; i++ {
		for _, side := range [2]string{"a", "b"} {
			cards = append(cards, Card{
				ID:    fmt.Sprintf("p%d-%s", i, side),
				Kind:  "test",
				Value: i,
				Pair:  fmt.Sprintf("p%d", i),
			})
		}
	}
	return cards
}

func (testVariant) IsMatch(a, b Card) MatchResult {
	if a.ID != b.ID && a.Value == b.Value {
		return MatchResult{IsValid: true, Kind: "equal"}
	}
	return MatchResult{}
}

func (testVariant) ValidateConfigField(field string, value int) error {
	switch field {
	case "difficulty":
		if value < 2 || value > 12 {
			return fmt.Errorf("difficulty out of range")
		}
	case "turnTimer":
		if value < 0 {
			return fmt.Errorf("negative turnTimer")
		}
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	return nil
}

func (testVariant) PairCount(cfg Config) int { return cfg.Difficulty }

func (testVariant) PersistableConfig(cfg Config) Config {
	return Config{Difficulty: cfg.Difficulty, TurnTimer: cfg.TurnTimer}
}

func (testVariant) ConfigsDiffer(a, b Config) bool {
	return a.Difficulty != b.Difficulty || a.TurnTimer != b.TurnTimer
}

func (testVariant) CanFlip(card Card, flipped []Card, resolving bool) bool {
	return DefaultCanFlip(card, flipped, resolving)
}

func (testVariant) PracticeDefaults() Config { return Config{Difficulty: 6, TurnTimer: 0} }

func (testVariant) PracticeShrink(cfg Config, maxMinutes int) Config {
	if maxMinutes < 5 && cfg.Difficulty > 4 {
		cfg.Difficulty = 4
	}
	return cfg
}

var tv = testVariant{}

// startPlaying builds a playing-phase state for the given players.
func startPlaying(t *testing.T, difficulty int, players ...PlayerID) *GameState {
	t.Helper()
	st := NewGame(tv, Config{Difficulty: difficulty, TurnTimer: 30})
	next, err := ProcessMove(tv, st, Move{Type: MoveStartGame, Players: players, Seed: 7, At: 1000}, nil)
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	return next
}

// mustMove applies a move that is expected to be accepted.
func mustMove(t *testing.T, st *GameState, mv Move) *GameState {
	t.Helper()
	next, err := ProcessMove(tv, st, mv, nil)
	if err != nil {
		t.Fatalf("%s rejected: %v", mv.Type, err)
	}
	return next
}

func flip(t *testing.T, st *GameState, actor PlayerID, cardID string) *GameState {
	t.Helper()
	return mustMove(t, st, Move{Type: MoveFlipCard, Actor: actor, CardID: cardID, At: 2000})
}

func TestStartGameEmptyPlayersRejected(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 4})
	_, err := ProcessMove(tv, st, Move{Type: MoveStartGame}, nil)
	if !errors.Is(err, ErrEmptyPlayers) {
		t.Fatalf("err = %v, want ErrEmptyPlayers", err)
	}
}

func TestStartGameInvalidConfigRejected(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 0})
	_, err := ProcessMove(tv, st, Move{Type: MoveStartGame, Players: []PlayerID{"p1"}, Seed: 1}, nil)
	if !errors.Is(err, ErrInvalidConfigValue) {
		t.Fatalf("err = %v, want ErrInvalidConfigValue", err)
	}
	if st.Phase != PhaseSetup || st.Dealt != nil {
		t.Error("rejected StartGame must leave the state untouched")
	}
}

func TestStartGameUnknownConfigFieldRejected(t *testing.T) {
	cfg := Config{Difficulty: 4}
	cfg.Set("bogus", 1)
	st := NewGame(tv, cfg)
	_, err := ProcessMove(tv, st, Move{Type: MoveStartGame, Players: []PlayerID{"p1"}, Seed: 1}, nil)
	if !errors.Is(err, ErrInvalidConfigValue) {
		t.Fatalf("err = %v, want ErrInvalidConfigValue", err)
	}
}

func TestStartGameDealsAndResets(t *testing.T) {
	st := startPlaying(t, 6, "p1", "p2")

	if st.Phase != PhasePlaying {
		t.Errorf("Phase = %s, want playing", st.Phase)
	}
	if len(st.Dealt) != 12 {
		t.Errorf("len(Dealt) = %d, want 12", len(st.Dealt))
	}
	if st.TotalPairs != 6 || st.MatchedPairs != 0 || st.Moves != 0 {
		t.Errorf("counters = %d/%d/%d, want 6/0/0", st.TotalPairs, st.MatchedPairs, st.Moves)
	}
	if st.TurnOwner != "p1" {
		t.Errorf("TurnOwner = %s, want first player", st.TurnOwner)
	}
	if st.OriginalConfig == nil || st.OriginalConfig.Difficulty != 6 {
		t.Errorf("OriginalConfig not snapshotted: %+v", st.OriginalConfig)
	}
	if st.Scores["p1"] != 0 || st.Scores["p2"] != 0 {
		t.Errorf("scores not reset: %v", st.Scores)
	}
}

// TestSoloPerfectGame walks a full round: 6 pairs, one player, no
// mismatches. Ends in results with moves == 6 and 100% accuracy.
func TestSoloPerfectGame(t *testing.T) {
	st := startPlaying(t, 6, "p1")

	for i := 0; i < 6; i++ {
		st = flip(t, st, "p1", fmt.Sprintf("p%d-a", i))
		if len(st.Flipped) != 1 {
			t.Fatalf("pair %d: len(Flipped) = %d after first flip, want 1", i, len(st.Flipped))
		}
		st = flip(t, st, "p1", fmt.Sprintf("p%d-b", i))
		if len(st.Flipped) != 0 {
			t.Fatalf("pair %d: flip buffer not cleared on match", i)
		}
		if st.MatchedPairs != i+1 {
			t.Fatalf("pair %d: MatchedPairs = %d, want %d", i, st.MatchedPairs, i+1)
		}
		if st.MatchedPairs > st.TotalPairs {
			t.Fatalf("MatchedPairs %d exceeds TotalPairs %d", st.MatchedPairs, st.TotalPairs)
		}
	}

	if st.Phase != PhaseResults {
		t.Errorf("Phase = %s, want results", st.Phase)
	}
	if st.Moves != 6 {
		t.Errorf("Moves = %d, want 6", st.Moves)
	}
	if st.GameEndAt == 0 {
		t.Error("GameEndAt not stamped")
	}

	report := Summarize(tv, st, st.Config)
	if report.Players[0].Accuracy == nil || *report.Players[0].Accuracy != 100 {
		t.Errorf("Accuracy = %v, want 100", report.Players[0].Accuracy)
	}
	if !report.Players[0].Win {
		t.Error("solo completion should be a win")
	}
}

// TestTwoPlayerMismatchRotation checks that a mismatch
// increments moves, resets the streak, rotates the turn, and leaves the
// buffer visible until ClearMismatch.
func TestTwoPlayerMismatchRotation(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")

	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p1-a") // values 0 vs 1: mismatch

	if st.TurnOwner != "p2" {
		t.Errorf("TurnOwner = %s, want p2 after mismatch", st.TurnOwner)
	}
	if st.Moves != 1 {
		t.Errorf("Moves = %d, want 1", st.Moves)
	}
	if st.Streaks["p1"] != 0 {
		t.Errorf("p1 streak = %d, want 0", st.Streaks["p1"])
	}
	if len(st.Flipped) != 2 || !st.MismatchVisible {
		t.Errorf("mismatch not left visible: flipped=%d visible=%v", len(st.Flipped), st.MismatchVisible)
	}

	cleared := mustMove(t, st, Move{Type: MoveClearMismatch})
	if len(cleared.Flipped) != 0 {
		t.Error("ClearMismatch did not empty the buffer")
	}
	if cleared.TurnOwner != "p2" || cleared.Moves != 1 {
		t.Error("ClearMismatch changed turn owner or moves")
	}
}

func TestMatchKeepsTurnAndStreak(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")

	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p0-b")

	if st.TurnOwner != "p1" {
		t.Errorf("TurnOwner = %s, want p1 kept after match", st.TurnOwner)
	}
	if st.Scores["p1"] != 1 || st.Streaks["p1"] != 1 {
		t.Errorf("score/streak = %d/%d, want 1/1", st.Scores["p1"], st.Streaks["p1"])
	}
	for _, c := range st.Dealt {
		if c.Pair == "p0" && (!c.Matched || c.MatchedBy != "p1") {
			t.Errorf("card %s not marked matched by p1", c.ID)
		}
	}
}

// TestOutOfTurnFlipRejected verifies the turn violation leaves the state
// byte-identical to the input.
func TestOutOfTurnFlipRejected(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")
	before := st.Clone()

	next, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p2", CardID: "p0-a"}, nil)
	if !errors.Is(err, ErrTurnViolation) {
		t.Fatalf("err = %v, want ErrTurnViolation", err)
	}
	if next != nil {
		t.Error("rejected move returned a new state")
	}
	if !reflect.DeepEqual(st, before) {
		t.Error("rejected move mutated the input state")
	}
}

func TestOwnershipViolation(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")
	actx := &AuthContext{
		ActingUserID:    "user-b",
		PlayerOwnership: map[PlayerID]string{"p1": "user-a", "p2": "user-b"},
	}
	_, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p0-a"}, actx)
	if !errors.Is(err, ErrOwnershipViolation) {
		t.Fatalf("err = %v, want ErrOwnershipViolation", err)
	}
}

func TestFlipInvalidTargets(t *testing.T) {
	st := startPlaying(t, 4, "p1")

	if _, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "nope"}, nil); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("unknown card: err = %v, want ErrInvalidTarget", err)
	}

	// Same card twice.
	st = flip(t, st, "p1", "p0-a")
	if _, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p0-a"}, nil); !errors.Is(err, ErrInvalidCardState) {
		t.Errorf("double flip: err = %v, want ErrInvalidCardState", err)
	}

	// Matched card.
	st = flip(t, st, "p1", "p0-b")
	if _, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p0-a"}, nil); !errors.Is(err, ErrInvalidCardState) {
		t.Errorf("matched card: err = %v, want ErrInvalidCardState", err)
	}
}

func TestFlipBufferFullDuringMismatch(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p1-a") // mismatch, buffer stays at 2

	if len(st.Flipped) != 2 {
		t.Fatalf("len(Flipped) = %d, want 2", len(st.Flipped))
	}
	if _, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p2-a"}, nil); !errors.Is(err, ErrInvalidCardState) {
		t.Errorf("flip during mismatch: err = %v, want ErrInvalidCardState", err)
	}
}

func TestFlipInSetupRejected(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 4})
	_, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p0-a"}, nil)
	if !errors.Is(err, ErrPhaseViolation) {
		t.Fatalf("err = %v, want ErrPhaseViolation", err)
	}
}

// TestDeterminism applies the same move to the same state twice and demands
// identical output.
func TestDeterminism(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 5, TurnTimer: 30})
	mv := Move{Type: MoveStartGame, Players: []PlayerID{"p1", "p2"}, Seed: 99, At: 5555}

	a, errA := ProcessMove(tv, st, mv, nil)
	b, errB := ProcessMove(tv, st, mv, nil)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected rejection: %v / %v", errA, errB)
	}
	if !reflect.DeepEqual(a, b) {
		t.Error("same (state, move) produced different outputs")
	}

	a2 := flip(t, a, "p1", "p0-a")
	b2 := flip(t, b, "p1", "p0-a")
	if !reflect.DeepEqual(a2, b2) {
		t.Error("flip produced different outputs from equal states")
	}
}

func TestAcceptedMoveDoesNotMutateInput(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	before := st.Clone()

	if _, err := ProcessMove(tv, st, Move{Type: MoveFlipCard, Actor: "p1", CardID: "p0-a"}, nil); err != nil {
		t.Fatalf("flip rejected: %v", err)
	}
	if !reflect.DeepEqual(st, before) {
		t.Error("accepted move mutated the input state")
	}
}

// TestPauseResumeRoundTrip pauses mid-round and resumes, expecting every
// round-progress field back.
func TestPauseResumeRoundTrip(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")
	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p0-b") // p1 matches one pair

	paused := mustMove(t, st, Move{Type: MoveGoToSetup})
	if paused.Phase != PhaseSetup {
		t.Fatalf("Phase = %s, want setup", paused.Phase)
	}
	if paused.Paused == nil {
		t.Fatal("Paused snapshot missing")
	}
	if len(paused.Dealt) != 0 || paused.MatchedPairs != 0 {
		t.Error("visible round fields not reset on pause")
	}

	resumed := mustMove(t, paused, Move{Type: MoveResumeGame})
	if resumed.Paused != nil {
		t.Error("snapshot not cleared on resume")
	}
	if resumed.Phase != st.Phase ||
		resumed.TurnOwner != st.TurnOwner ||
		resumed.MatchedPairs != st.MatchedPairs ||
		resumed.Moves != st.Moves ||
		!reflect.DeepEqual(resumed.Dealt, st.Dealt) ||
		!reflect.DeepEqual(resumed.Scores, st.Scores) {
		t.Error("resume did not restore round-progress fields")
	}
}

// TestDriftInvalidation: an accepted SetConfig while paused discards the
// snapshot, so the later resume fails with "no paused round".
func TestDriftInvalidation(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	st = mustMove(t, st, Move{Type: MoveGoToSetup})
	st = mustMove(t, st, Move{Type: MoveSetConfig, Field: "difficulty", Value: 6})

	if st.Paused != nil || st.OriginalConfig != nil {
		t.Error("config change did not invalidate the paused round")
	}
	if st.TotalPairs != 6 {
		t.Errorf("TotalPairs = %d, want recomputed 6", st.TotalPairs)
	}
	_, err := ProcessMove(tv, st, Move{Type: MoveResumeGame}, nil)
	if !errors.Is(err, ErrNoPausedRound) {
		t.Fatalf("err = %v, want ErrNoPausedRound", err)
	}
}

// TestResumeConfigDrifted covers drift that bypassed SetConfig (e.g. a state
// assembled by a buggy caller): the snapshot is present but stale.
func TestResumeConfigDrifted(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	st = mustMove(t, st, Move{Type: MoveGoToSetup})

	drifted := st.Clone()
	drifted.Config.Difficulty = 8

	_, err := ProcessMove(tv, drifted, Move{Type: MoveResumeGame}, nil)
	if !errors.Is(err, ErrConfigDrifted) {
		t.Fatalf("err = %v, want ErrConfigDrifted", err)
	}
}

func TestResumeWithoutPause(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 4})
	_, err := ProcessMove(tv, st, Move{Type: MoveResumeGame}, nil)
	if !errors.Is(err, ErrNoPausedRound) {
		t.Fatalf("err = %v, want ErrNoPausedRound", err)
	}
}

func TestSetConfigRejections(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 4})

	if _, err := ProcessMove(tv, st, Move{Type: MoveSetConfig, Field: "difficulty", Value: 99}, nil); !errors.Is(err, ErrInvalidConfigValue) {
		t.Errorf("out-of-range: err = %v, want ErrInvalidConfigValue", err)
	}
	if _, err := ProcessMove(tv, st, Move{Type: MoveSetConfig, Field: "bogus", Value: 1}, nil); !errors.Is(err, ErrInvalidConfigValue) {
		t.Errorf("unknown field: err = %v, want ErrInvalidConfigValue", err)
	}

	playing := startPlaying(t, 4, "p1")
	if _, err := ProcessMove(tv, playing, Move{Type: MoveSetConfig, Field: "difficulty", Value: 6}, nil); !errors.Is(err, ErrPhaseViolation) {
		t.Errorf("set_config while playing: err = %v, want ErrPhaseViolation", err)
	}
}

func TestClearMismatchIdempotent(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	next := mustMove(t, st, Move{Type: MoveClearMismatch})
	if len(next.Flipped) != 0 || next.Moves != 0 {
		t.Error("no-op ClearMismatch changed round state")
	}
}

func TestHoverCard(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")

	st = mustMove(t, st, Move{Type: MoveHoverCard, Actor: "p2", CardID: "p1-a"})
	if st.Hovers["p2"] != "p1-a" {
		t.Errorf("hover not recorded: %v", st.Hovers)
	}

	// Hover has no gameplay effect.
	if st.TurnOwner != "p1" || st.Moves != 0 {
		t.Error("hover affected gameplay state")
	}

	st = mustMove(t, st, Move{Type: MoveHoverCard, Actor: "p2"})
	if _, ok := st.Hovers["p2"]; ok {
		t.Error("empty hover did not clear the marker")
	}
}

func TestMismatchClearsOtherHovers(t *testing.T) {
	st := startPlaying(t, 4, "p1", "p2")
	st = mustMove(t, st, Move{Type: MoveHoverCard, Actor: "p1", CardID: "p3-b"})
	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p1-a") // mismatch, turn rotates to p2
	st = mustMove(t, st, Move{Type: MoveClearMismatch})

	if _, ok := st.Hovers["p1"]; ok {
		t.Error("non-turn-owner hover survived ClearMismatch")
	}
}

func TestSinglePlayerMismatchKeepsTurnOwner(t *testing.T) {
	st := startPlaying(t, 4, "p1")
	st = flip(t, st, "p1", "p0-a")
	st = flip(t, st, "p1", "p1-a")

	if st.TurnOwner != "p1" {
		t.Errorf("TurnOwner = %s, rotation should be a no-op solo", st.TurnOwner)
	}
}

func TestStartGameWithSuppliedCards(t *testing.T) {
	deck := tv.DealCards(Config{Difficulty: 3}, NewRand(1))
	st := NewGame(tv, Config{Difficulty: 3})
	next := mustMove(t, st, Move{Type: MoveStartGame, Players: []PlayerID{"p1"}, Cards: deck, At: 10})
	if len(next.Dealt) != 6 || next.TotalPairs != 3 {
		t.Errorf("supplied deck not used: %d cards, %d pairs", len(next.Dealt), next.TotalPairs)
	}

	bad := []Card{{ID: "x"}, {ID: "x"}}
	if _, err := ProcessMove(tv, st, Move{Type: MoveStartGame, Players: []PlayerID{"p1"}, Cards: bad}, nil); !errors.Is(err, ErrInvalidTarget) {
		t.Errorf("duplicate supplied deck: err = %v, want ErrInvalidTarget", err)
	}
}

func TestUnknownMove(t *testing.T) {
	st := NewGame(tv, Config{Difficulty: 4})
	_, err := ProcessMove(tv, st, Move{Type: "warp"}, nil)
	if !errors.Is(err, ErrUnknownMove) {
		t.Fatalf("err = %v, want ErrUnknownMove", err)
	}
}
