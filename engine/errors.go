package engine

import "errors"

// Rejection reasons returned by ProcessMove. Every rejection is data, never
// a panic: the input state is left untouched and the caller decides whether
// to surface or ignore it. Callers match with errors.Is.
var (
	ErrPhaseViolation     = errors.New("move not allowed in current phase")
	ErrTurnViolation      = errors.New("not this player's turn")
	ErrOwnershipViolation = errors.New("acting user does not own player")
	ErrInvalidTarget      = errors.New("card not found in current deal")
	ErrInvalidCardState   = errors.New("card cannot be flipped")
	ErrInvalidConfigValue = errors.New("invalid configuration value")
	ErrNoPausedRound      = errors.New("no paused round to resume")
	ErrConfigDrifted      = errors.New("configuration changed since pause")
	ErrEmptyPlayers       = errors.New("player list is empty")
	ErrUnknownMove        = errors.New("unknown move type")
)
