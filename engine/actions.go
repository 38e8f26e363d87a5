package engine

import "fmt"

// ProcessMove applies a move to a state and returns the resulting state.
//
// On rejection it returns (nil, err) and the input state is untouched; the
// caller keeps whatever state it already holds. On acceptance the returned
// state is a fresh copy — the input is never mutated. The only panics are
// variant contract violations (see checkDeal), which indicate a build-time
// defect rather than a gameplay situation.
func ProcessMove(v Variant, st *GameState, mv Move, actx *AuthContext) (*GameState, error) {
	switch mv.Type {
	case MoveStartGame:
		return startGame(v, st, mv)
	case MoveFlipCard:
		return flipCard(v, st, mv, actx)
	case MoveClearMismatch:
		return clearMismatch(st)
	case MoveGoToSetup:
		return goToSetup(st)
	case MoveSetConfig:
		return setConfig(v, st, mv)
	case MoveResumeGame:
		return resumeGame(v, st)
	case MoveHoverCard:
		return hoverCard(st, mv)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMove, mv.Type)
	}
}

// startGame deals a fresh deck and replaces the round wholesale. Legal from
// any phase; Results always returns to Playing through here.
func startGame(v Variant, st *GameState, mv Move) (*GameState, error) {
	if len(mv.Players) == 0 {
		return nil, ErrEmptyPlayers
	}

	dealt := mv.Cards
	if dealt == nil {
		if err := ValidateConfig(v, st.Config); err != nil {
			return nil, err
		}
		dealt = v.DealCards(st.Config, NewRand(mv.Seed))
		checkDeal(v, dealt)
	} else if err := validDeck(dealt); err != nil {
		// A bad deck from the wire is caller input, not a contract breach.
		return nil, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
	}

	next := st.Clone()
	next.Dealt = cloneCards(dealt)
	next.Flipped = nil
	next.Players = clonePlayers(mv.Players)
	next.TurnOwner = mv.Players[0]
	next.MatchedPairs = 0
	next.TotalPairs = len(dealt) / 2
	next.Moves = 0
	next.Scores = make(map[PlayerID]int, len(mv.Players))
	next.Streaks = make(map[PlayerID]int, len(mv.Players))
	next.BestStreaks = make(map[PlayerID]int, len(mv.Players))
	for _, p := range mv.Players {
		next.Scores[p] = 0
		next.Streaks[p] = 0
	}
	next.MismatchVisible = false
	next.Hovers = nil
	next.Paused = nil
	oc := v.PersistableConfig(st.Config)
	next.OriginalConfig = &oc
	next.Phase = PhasePlaying
	next.GameStartAt = mv.At
	next.GameEndAt = 0
	next.Seed = mv.Seed
	return next, nil
}

// checkDeal panics on variant contract violations: these are programmer
// errors, not gameplay rejections.
func checkDeal(v Variant, dealt []Card) {
	if err := validDeck(dealt); err != nil {
		panic(fmt.Sprintf("engine: variant %s contract violation: %v", v.Name(), err))
	}
}

func validDeck(dealt []Card) error {
	if len(dealt) == 0 {
		return fmt.Errorf("deck is empty")
	}
	if len(dealt)%2 != 0 {
		return fmt.Errorf("odd deck size %d", len(dealt))
	}
	seen := make(map[string]bool, len(dealt))
	for _, c := range dealt {
		if c.ID == "" || seen[c.ID] {
			return fmt.Errorf("duplicate or empty card id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// flipCard appends a card to the flip buffer and resolves the pair the
// instant the buffer reaches two.
func flipCard(v Variant, st *GameState, mv Move, actx *AuthContext) (*GameState, error) {
	if st.Phase != PhasePlaying {
		return nil, fmt.Errorf("%w: flip_card in %s", ErrPhaseViolation, st.Phase)
	}
	if !actx.Owns(mv.Actor) {
		return nil, fmt.Errorf("%w: user %s, player %s", ErrOwnershipViolation, actx.ActingUserID, mv.Actor)
	}
	if len(st.Players) > 1 && mv.Actor != st.TurnOwner {
		return nil, fmt.Errorf("%w: %s flipped on %s's turn", ErrTurnViolation, mv.Actor, st.TurnOwner)
	}
	idx := st.CardByID(mv.CardID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidTarget, mv.CardID)
	}
	if !v.CanFlip(st.Dealt[idx], st.Flipped, st.MismatchVisible) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCardState, mv.CardID)
	}

	next := st.Clone()
	next.Flipped = append(next.Flipped, next.Dealt[idx])
	if len(next.Flipped) == maxFlipped {
		resolvePair(v, next, mv.At)
	}
	return next, nil
}

// resolvePair evaluates the two face-up cards. Runs on the cloned state.
func resolvePair(v Variant, g *GameState, at int64) {
	a, b := g.Flipped[0], g.Flipped[1]
	g.Moves++

	if v.IsMatch(a, b).IsValid {
		owner := g.TurnOwner
		for i := range g.Dealt {
			if g.Dealt[i].ID == a.ID || g.Dealt[i].ID == b.ID {
				g.Dealt[i].Matched = true
				g.Dealt[i].MatchedBy = owner
			}
		}
		g.MatchedPairs++
		g.Scores[owner]++
		g.Streaks[owner]++
		if g.Streaks[owner] > g.BestStreaks[owner] {
			g.BestStreaks[owner] = g.Streaks[owner]
		}
		g.Flipped = nil
		// Turn owner keeps the turn on a match.
		if g.MatchedPairs == g.TotalPairs {
			g.Phase = PhaseResults
			g.GameEndAt = at
		}
		return
	}

	// Non-match: buffer stays face-up so the UI can show the mismatch; the
	// caller issues ClearMismatch after its display delay.
	g.Streaks[g.TurnOwner] = 0
	if len(g.Players) > 1 {
		g.TurnOwner = g.NextPlayer(g.TurnOwner)
	}
	g.MismatchVisible = true
}

// clearMismatch empties the flip buffer after a mismatch. Idempotent: with
// nothing to clear it accepts and changes nothing.
func clearMismatch(st *GameState) (*GameState, error) {
	next := st.Clone()
	if !next.MismatchVisible {
		return next, nil
	}
	next.Flipped = nil
	next.MismatchVisible = false
	// Stale hover markers from the player who just lost the turn are noise.
	for p := range next.Hovers {
		if p != next.TurnOwner {
			delete(next.Hovers, p)
		}
	}
	return next, nil
}

// goToSetup abandons the visible round back to the setup phase. Leaving a
// running or finished round snapshots it for a later ResumeGame.
func goToSetup(st *GameState) (*GameState, error) {
	next := st.Clone()
	if next.Phase != PhaseSetup {
		next.Paused = &PausedSnapshot{
			Phase:           next.Phase,
			Dealt:           next.Dealt,
			Flipped:         next.Flipped,
			Players:         next.Players,
			TurnOwner:       next.TurnOwner,
			MatchedPairs:    next.MatchedPairs,
			TotalPairs:      next.TotalPairs,
			Moves:           next.Moves,
			Scores:          next.Scores,
			Streaks:         next.Streaks,
			BestStreaks:     next.BestStreaks,
			MismatchVisible: next.MismatchVisible,
			GameStartAt:     next.GameStartAt,
			GameEndAt:       next.GameEndAt,
			Seed:            next.Seed,
		}
	}
	next.Phase = PhaseSetup
	next.Dealt = nil
	next.Flipped = nil
	next.Players = nil
	next.TurnOwner = ""
	next.MatchedPairs = 0
	next.Moves = 0
	next.Scores = nil
	next.Streaks = nil
	next.BestStreaks = nil
	next.MismatchVisible = false
	next.Hovers = nil
	next.GameStartAt = 0
	next.GameEndAt = 0
	return next, nil
}

// setConfig commits one validated field while in setup. An accepted change
// invalidates any paused round: the snapshot was taken under the old config.
func setConfig(v Variant, st *GameState, mv Move) (*GameState, error) {
	if st.Phase != PhaseSetup {
		return nil, fmt.Errorf("%w: set_config in %s", ErrPhaseViolation, st.Phase)
	}
	if err := v.ValidateConfigField(mv.Field, mv.Value); err != nil {
		return nil, fmt.Errorf("%w: %s=%d: %v", ErrInvalidConfigValue, mv.Field, mv.Value, err)
	}

	next := st.Clone()
	next.Config.Set(mv.Field, mv.Value)
	next.TotalPairs = v.PairCount(next.Config)
	if next.Paused != nil {
		next.Paused = nil
		next.OriginalConfig = nil
	}
	return next, nil
}

// resumeGame restores a paused round, provided the config has not drifted
// since the snapshot was taken.
func resumeGame(v Variant, st *GameState) (*GameState, error) {
	if st.Phase != PhaseSetup {
		return nil, fmt.Errorf("%w: resume_game in %s", ErrPhaseViolation, st.Phase)
	}
	if st.Paused == nil {
		return nil, ErrNoPausedRound
	}
	if st.OriginalConfig != nil && v.ConfigsDiffer(st.Config, *st.OriginalConfig) {
		return nil, ErrConfigDrifted
	}

	next := st.Clone()
	snap := next.Paused
	next.Phase = snap.Phase
	next.Dealt = snap.Dealt
	next.Flipped = snap.Flipped
	next.Players = snap.Players
	next.TurnOwner = snap.TurnOwner
	next.MatchedPairs = snap.MatchedPairs
	next.TotalPairs = snap.TotalPairs
	next.Moves = snap.Moves
	next.Scores = snap.Scores
	next.Streaks = snap.Streaks
	next.BestStreaks = snap.BestStreaks
	next.MismatchVisible = snap.MismatchVisible
	next.GameStartAt = snap.GameStartAt
	next.GameEndAt = snap.GameEndAt
	next.Seed = snap.Seed
	next.Paused = nil
	return next, nil
}

// hoverCard records presence only. Always accepted; never affects gameplay.
func hoverCard(st *GameState, mv Move) (*GameState, error) {
	next := st.Clone()
	if mv.CardID == "" {
		delete(next.Hovers, mv.Actor)
		return next, nil
	}
	if next.Hovers == nil {
		next.Hovers = make(map[PlayerID]string, 1)
	}
	next.Hovers[mv.Actor] = mv.CardID
	return next, nil
}
