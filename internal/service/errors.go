package service

import "errors"

var (
	// Validation errors: the request itself is malformed.
	ErrInvalidTeamSize = errors.New("team size outside the event's bounds")
	ErrInvalidTeamData = errors.New("team name or member details missing or invalid")
	ErrInvalidEvent    = errors.New("event fields invalid")

	// Business-rule conflicts: the request is well-formed but the current
	// state refuses it.
	ErrInvalidTransition = errors.New("status transition not allowed")

	// Auth errors.
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
