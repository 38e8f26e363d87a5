package engine

import "fmt"

// Variant is the pluggable rule set for one concrete matching game: how to
// deal, how to test a match, and how to validate configuration. Variants are
// linked in at build time; there is no dynamic loading.
//
// Every method must be pure and synchronous. A variant may not touch the
// network, storage, or the wall clock — only the values passed in. Violating
// the contract (nil deal, zero pair count) is a programmer error and panics.
type Variant interface {
	// Name is the stable registry key for this variant.
	Name() string

	// DealCards builds the full shuffled deck for a round. The generator is
	// seeded from the StartGame move so every participant deals identically.
	DealCards(cfg Config, rng *Rand) []Card

	// IsMatch judges two face-up cards.
	IsMatch(a, b Card) MatchResult

	// ValidateConfigField checks a single field before it is committed.
	ValidateConfigField(field string, value int) error

	// PairCount derives the number of pairs from a config.
	PairCount(cfg Config) int

	// PersistableConfig projects the fields worth keeping across rounds.
	PersistableConfig(cfg Config) Config

	// ConfigsDiffer compares two configs for resume-invalidating drift.
	ConfigsDiffer(a, b Config) bool

	// CanFlip decides whether a card may join the flip buffer. Most variants
	// return DefaultCanFlip.
	CanFlip(card Card, flipped []Card, resolving bool) bool

	// PracticeDefaults is the base config for a practice-break round.
	PracticeDefaults() Config

	// PracticeShrink caps the config so a round fits in maxMinutes.
	PracticeShrink(cfg Config, maxMinutes int) Config
}

// ValidateConfig runs every field of a config through the variant's
// validator, the same check SetConfig applies one field at a time. StartGame
// calls it before dealing so a config that skipped the SetConfig path — an
// initial room config, practice overrides — is rejected instead of reaching
// DealCards, where a variant could legitimately divide or index by it.
func ValidateConfig(v Variant, cfg Config) error {
	if err := v.ValidateConfigField("difficulty", cfg.Difficulty); err != nil {
		return fmt.Errorf("%w: difficulty=%d: %v", ErrInvalidConfigValue, cfg.Difficulty, err)
	}
	if err := v.ValidateConfigField("turnTimer", cfg.TurnTimer); err != nil {
		return fmt.Errorf("%w: turnTimer=%d: %v", ErrInvalidConfigValue, cfg.TurnTimer, err)
	}
	for field, value := range cfg.Fields {
		if err := v.ValidateConfigField(field, value); err != nil {
			return fmt.Errorf("%w: %s=%d: %v", ErrInvalidConfigValue, field, value, err)
		}
	}
	return nil
}

// Summarizer is optionally implemented by variants that want to replace the
// engine's built-in results report.
type Summarizer interface {
	Summarize(st *GameState, cfg Config) *ResultsReport
}

// DefaultCanFlip is the standard flip gate: reject while a mismatch is being
// resolved, when the card is already matched or already face-up, and when
// the flip buffer is full.
func DefaultCanFlip(card Card, flipped []Card, resolving bool) bool {
	if resolving {
		return false
	}
	if card.Matched {
		return false
	}
	if len(flipped) >= maxFlipped {
		return false
	}
	for _, f := range flipped {
		if f.ID == card.ID {
			return false
		}
	}
	return true
}
