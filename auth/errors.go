package auth

import "errors"

var (
	ErrMissingCredentials = errors.New("username and password are both required")
	// Returned for an unknown username and for a wrong password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
