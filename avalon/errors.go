package avalon

import "errors"

// Validation failures. All are caller-correctable; none poison the table.
var (
	ErrWrongPhase      = errors.New("operation not allowed in current phase")
	ErrRoomFull        = errors.New("room is full")
	ErrUnknownPlayer   = errors.New("player not found")
	ErrInvalidTeamSize = errors.New("wrong team size for this round")
	ErrInvalidTarget   = errors.New("invalid target")
)
