package repository

import "errors"

// Terminal, user-visible conditions surfaced by the registry and stores.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrAccountInactive      = errors.New("account is inactive")
	ErrInsufficientFunds    = errors.New("insufficient funds")
	ErrSessionAlreadyActive = errors.New("account already has an active session")
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionNotActive     = errors.New("session is not in progress")
)
