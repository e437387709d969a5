package domain

import "errors"

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrPlanNotFound is returned when a plan ID cannot be resolved in the library.
var ErrPlanNotFound = errors.New("plan not found")
