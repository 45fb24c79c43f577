package core

import "errors"

var (
	ErrMissingTargetDigest = errors.New("target digest is required")
	ErrInvalidTargetDigest = errors.New("invalid target digest")
	ErrUnknownGesture      = errors.New("unknown gesture")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionTerminal     = errors.New("session is already terminal")
	ErrGrantExpired        = errors.New("access grant has expired")
	ErrInvalidGrant        = errors.New("invalid access grant")
)
