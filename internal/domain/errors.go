package domain

import "errors"

var (
	ErrEmptyMessage    = errors.New("empty message")
	ErrTurnInFlight    = errors.New("turn already in flight")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoActiveSession = errors.New("no active session")
	ErrPermission      = errors.New("insufficient role for this task")
	ErrExportNotFound  = errors.New("export not found")
)
