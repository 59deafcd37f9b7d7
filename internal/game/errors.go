package game

import "errors"

var (
	ErrUnknownMode        = errors.New("unknown game mode")
	ErrModeNotImplemented = errors.New("game mode not implemented")
	ErrNotEnoughPlayers   = errors.New("at least two players are required")
	ErrDuplicatePlayer    = errors.New("duplicate player id")
	ErrInvalidTeam        = errors.New("invalid team assignment")
	ErrTickPanic          = errors.New("simulation tick panicked")
)
