package service

import "errors"

// Error taxonomy shared by all services. Handlers pick HTTP status codes with
// errors.Is; messages sent to clients stay generic.
var (
	// ErrValidation marks bad or missing input (400).
	ErrValidation = errors.New("validation failed")
	// ErrInvalidToken marks a malformed token or bad signature (401).
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken marks a token whose TTL elapsed (401).
	ErrExpiredToken = errors.New("token has expired")
	// ErrForbidden marks a blocked device (403).
	ErrForbidden = errors.New("device is blocked")
	// ErrConfiguration marks a missing signing secret or similar server
	// misconfiguration (500). Details are logged, never sent to the caller.
	ErrConfiguration = errors.New("server configuration error")
	// ErrStoreUnavailable marks a device store I/O failure. State-changing
	// paths surface it as 500; the status path fails open instead.
	ErrStoreUnavailable = errors.New("device store unavailable")
)
