// Package variants holds the built-in matching-game variants. Variants are
// compiled in and looked up by name; there is no dynamic loading.
package variants

import (
	"fmt"

	"github.com/antialias/abaci-one-sub007/engine"
)

var registry = map[string]engine.Variant{
	Numerals.Name(): Numerals,
	MakeTen.Name():  MakeTen,
}

// ByName returns the built-in variant with the given name.
func ByName(name string) (engine.Variant, error) {
	v, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown variant %q", name)
	}
	return v, nil
}

// Names lists the built-in variant names in stable order.
func Names() []string {
	return []string{Numerals.Name(), MakeTen.Name()}
}

// Shared field bounds. Every variant understands difficulty and turnTimer.
const (
	minPairs     = 2
	maxPairs     = 12
	maxTurnTimer = 120

	// practiceShrinkMinutes is the duration below which a practice-break
	// round is shrunk to practiceShrinkPairs.
	practiceShrinkMinutes = 5
	practiceShrinkPairs   = 4
)

func validateCommonField(field string, value int) (bool, error) {
	switch field {
	case "difficulty":
		if value < minPairs || value > maxPairs {
			return true, fmt.Errorf("difficulty must be between %d and %d", minPairs, maxPairs)
		}
		return true, nil
	case "turnTimer":
		if value < 0 || value > maxTurnTimer {
			return true, fmt.Errorf("turnTimer must be between 0 and %d seconds", maxTurnTimer)
		}
		return true, nil
	}
	return false, nil
}

// shrinkForPractice caps difficulty when the requested practice window is
// shorter than the shrink threshold.
func shrinkForPractice(cfg engine.Config, maxMinutes int) engine.Config {
	out := cfg.Clone()
	if maxMinutes < practiceShrinkMinutes && out.Difficulty > practiceShrinkPairs {
		out.Difficulty = practiceShrinkPairs
	}
	return out
}
