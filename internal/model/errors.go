package model

import "errors"

// Common errors used across the application
var (
	// Request errors
	ErrInvalidRequest = errors.New("invalid request")

	// Session errors
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
	ErrSessionFull     = errors.New("session is already full")
	ErrForbidden       = errors.New("operation not allowed in current status")
	ErrNothingToRedo   = errors.New("no moves to redo")

	// Move errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrMoveRejected = errors.New("move rejected")

	// Authority errors
	ErrExternalFailure = errors.New("external authority failure")

	// Storage errors
	ErrConflict = errors.New("concurrent modification")
)
