package entity

import "errors"

// Domain errors raised while constructing or mutating users.
// They are never recovered here; the application layer decides the response.
var (
	ErrInvalidEmail      = errors.New("invalid email")
	ErrCannotSetPassword = errors.New("cannot set password on a non-local account")
	ErrMissingOAuthID    = errors.New("missing oauth external id")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidProvider   = errors.New("invalid auth provider")
)
