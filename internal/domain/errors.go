package domain

import "errors"

// Sentinel errors used across layers.
var (
	ErrNotFound          = errors.New("not found")
	ErrNoActiveSession   = errors.New("no active pizza")
	ErrUnauthenticated   = errors.New("not logged in")
	ErrStepNotActionable = errors.New("step is already finished")
	ErrInvalidTransition = errors.New("transition not allowed in current status")
	ErrCancelled         = errors.New("cancelled by user")
	ErrUnsupported       = errors.New("not supported")
)
