package variants

import (
	"fmt"
	"strconv"

	"github.com/antialias/abaci-one-sub007/engine"
)

// Numerals is classic memory matching: two cards match when they carry the
// same numeral.
var Numerals engine.Variant = numeralsVariant{}

type numeralsVariant struct{}

func (numeralsVariant) Name() string { return "numerals" }

func (numeralsVariant) DealCards(cfg engine.Config, rng *engine.Rand) []engine.Card {
	pairs := cfg.Difficulty
	cards := make([]engine.Card, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		value := i % 10
		pairKey := fmt.Sprintf("num-%d", i)
		for _, side := range []string{"a", "b"} {
			cards = append(cards, engine.Card{
				ID:    fmt.Sprintf("%s-%s", pairKey, side),
				Kind:  "numeral",
				Value: value,
				Label: strconv.Itoa(value),
				Pair:  pairKey,
			})
		}
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

func (numeralsVariant) IsMatch(a, b engine.Card) engine.MatchResult {
	if a.ID != b.ID && a.Value == b.Value {
		return engine.MatchResult{IsValid: true, Kind: "equal"}
	}
	return engine.MatchResult{}
}

func (numeralsVariant) ValidateConfigField(field string, value int) error {
	if known, err := validateCommonField(field, value); known {
		return err
	}
	return fmt.Errorf("unknown field %q", field)
}

func (numeralsVariant) PairCount(cfg engine.Config) int { return cfg.Difficulty }

func (numeralsVariant) PersistableConfig(cfg engine.Config) engine.Config {
	return engine.Config{Difficulty: cfg.Difficulty, TurnTimer: cfg.TurnTimer}
}

func (numeralsVariant) ConfigsDiffer(a, b engine.Config) bool {
	return a.Difficulty != b.Difficulty || a.TurnTimer != b.TurnTimer
}

func (numeralsVariant) CanFlip(card engine.Card, flipped []engine.Card, resolving bool) bool {
	return engine.DefaultCanFlip(card, flipped, resolving)
}

func (numeralsVariant) PracticeDefaults() engine.Config {
	return engine.Config{Difficulty: 6, TurnTimer: 0}
}

func (numeralsVariant) PracticeShrink(cfg engine.Config, maxMinutes int) engine.Config {
	return shrinkForPractice(cfg, maxMinutes)
}
