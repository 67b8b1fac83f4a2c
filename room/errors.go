package room

import "errors"

// Command-level errors. They are returned to the issuing channel only and
// never affect other players in the room.
var (
	ErrInvalidState     = errors.New("command not allowed in current phase")
	ErrAlreadyAnswered  = errors.New("answer already submitted for this question")
	ErrJokerAlreadyUsed = errors.New("a joker was already used on this question")
	ErrJokerUnavailable = errors.New("joker not available")
	ErrNotFound         = errors.New("room or player not found")
	ErrUnauthorized     = errors.New("host-only command")
)
