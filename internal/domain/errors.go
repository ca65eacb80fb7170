package domain

import "errors"

var (
	ErrStopNotFound      = errors.New("stop not found")
	ErrInvalidTransition = errors.New("invalid stop transition")
	ErrInvalidTimestamp  = errors.New("invalid timestamp")
	ErrInconsistentRoute = errors.New("inconsistent route")
)
