package back

import "errors"

// Domain errors surfaced to the command layer, which owns the user-facing
// wording. Anything not in this list is an internal failure and must not be
// echoed verbatim.
var (
	ErrAlreadyExists  = errors.New("player is already registered")
	ErrNotFound       = errors.New("player is not registered")
	ErrInvalidResult  = errors.New("invalid match result")
	ErrSelfMatch      = errors.New("a player cannot report a match against themselves")
	ErrNoPendingMatch = errors.New("no pending match report to cancel")
)
