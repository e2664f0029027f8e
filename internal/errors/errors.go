package errors

import "fmt"

var (
	ErrDuplicateConnection = fmt.Errorf("connection already registered")
	ErrUnknownSession      = fmt.Errorf("unknown session")
	ErrNotInRoom           = fmt.Errorf("session is not in a room")
	ErrAuthFailure         = fmt.Errorf("invalid credentials")
	ErrStore               = fmt.Errorf("history store failure")

	ErrUserAlreadyExists = fmt.Errorf("user already exists")
	ErrInvalidRequest    = fmt.Errorf("invalid request")
	ErrTokenGeneration   = fmt.Errorf("failed to generate token")
	ErrHubClosed         = fmt.Errorf("room hub is closed")
)
