package variants

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/antialias/abaci-one-sub007/engine"
)

// MakeTen is complement matching: two cards match when their values sum to
// the round's target (10 by default). Any two complements match, not just
// the two dealt together.
var MakeTen engine.Variant = makeTenVariant{}

type makeTenVariant struct{}

const defaultTargetSum = 10

func (makeTenVariant) Name() string { return "maketen" }

func targetSum(cfg engine.Config) int {
	// A target below 2 has no addend pairs; fall back rather than let the
	// deal arithmetic see it. ValidateConfigField rejects such values long
	// before a round starts.
	if t, ok := cfg.Get("targetSum"); ok && t >= 2 {
		return t
	}
	return defaultTargetSum
}

func (makeTenVariant) DealCards(cfg engine.Config, rng *engine.Rand) []engine.Card {
	pairs := cfg.Difficulty
	target := targetSum(cfg)
	// The card kind carries the target so IsMatch needs nothing but the two
	// cards themselves.
	kind := fmt.Sprintf("sum:%d", target)

	cards := make([]engine.Card, 0, pairs*2)
	for i := 0; i < pairs; i++ {
		addend := i%(target-1) + 1
		pairKey := fmt.Sprintf("sum-%d", i)
		cards = append(cards,
			engine.Card{
				ID:    pairKey + "-a",
				Kind:  kind,
				Value: addend,
				Label: strconv.Itoa(addend),
				Pair:  pairKey,
			},
			engine.Card{
				ID:    pairKey + "-b",
				Kind:  kind,
				Value: target - addend,
				Label: strconv.Itoa(target - addend),
				Pair:  pairKey,
			},
		)
	}
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}

func (makeTenVariant) IsMatch(a, b engine.Card) engine.MatchResult {
	if a.ID == b.ID || a.Kind != b.Kind {
		return engine.MatchResult{}
	}
	target, err := strconv.Atoi(strings.TrimPrefix(a.Kind, "sum:"))
	if err != nil {
		return engine.MatchResult{}
	}
	if a.Value+b.Value == target {
		return engine.MatchResult{IsValid: true, Kind: "complement"}
	}
	return engine.MatchResult{}
}

func (makeTenVariant) ValidateConfigField(field string, value int) error {
	if known, err := validateCommonField(field, value); known {
		return err
	}
	if field == "targetSum" {
		if value < 5 || value > 20 {
			return fmt.Errorf("targetSum must be between 5 and 20")
		}
		return nil
	}
	return fmt.Errorf("unknown field %q", field)
}

func (makeTenVariant) PairCount(cfg engine.Config) int { return cfg.Difficulty }

func (makeTenVariant) PersistableConfig(cfg engine.Config) engine.Config {
	out := engine.Config{Difficulty: cfg.Difficulty, TurnTimer: cfg.TurnTimer}
	out.Set("targetSum", targetSum(cfg))
	return out
}

func (makeTenVariant) ConfigsDiffer(a, b engine.Config) bool {
	return a.Difficulty != b.Difficulty || a.TurnTimer != b.TurnTimer ||
		targetSum(a) != targetSum(b)
}

func (makeTenVariant) CanFlip(card engine.Card, flipped []engine.Card, resolving bool) bool {
	return engine.DefaultCanFlip(card, flipped, resolving)
}

func (makeTenVariant) PracticeDefaults() engine.Config {
	cfg := engine.Config{Difficulty: 6, TurnTimer: 0}
	cfg.Set("targetSum", defaultTargetSum)
	return cfg
}

func (makeTenVariant) PracticeShrink(cfg engine.Config, maxMinutes int) engine.Config {
	return shrinkForPractice(cfg, maxMinutes)
}
