package services

import "errors"

// Sentinel errors for the account and reset flows. Handlers match these with
// errors.Is to choose status codes; anything else is a store failure and maps
// to an opaque 500.
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrInvalidToken       = errors.New("verification string not valid")
	ErrMailDispatch       = errors.New("failed to dispatch reset mail")
	ErrMalformedInput     = errors.New("malformed input")
)
