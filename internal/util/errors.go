package util

// ErrPublic is an error whose message is safe to echo verbatim to the user
// who caused it. Anything else is logged and replaced by a generic message
// at the boundary.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

func (e ErrPublic) Is(v error) bool {
	_, ok := v.(ErrPublic)
	return ok
}
