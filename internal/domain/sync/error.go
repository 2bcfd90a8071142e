package sync

import "errors"

var (
	// ErrNotAuthenticated is returned when no owner identity is present in
	// the request context.
	ErrNotAuthenticated = errors.New("user not authenticated")
)
