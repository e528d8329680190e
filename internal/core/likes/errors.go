package likes

import "errors"

var (
	// ErrInvalidAction indicates the action is not toggle, like or unlike
	ErrInvalidAction = errors.New("invalid action: must be 'toggle', 'like' or 'unlike'")
)
