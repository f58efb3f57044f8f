package session

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrSessionExpired   = errors.New("session expired")
	ErrSessionRevoked   = errors.New("session revoked")
	ErrDuplicateSession = errors.New("session already exists")
	ErrInvalidToken     = errors.New("invalid session token")
	ErrSealedToken      = errors.New("sealed token is corrupt")
)
