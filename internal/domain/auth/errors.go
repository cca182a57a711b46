package auth

import "errors"

// ErrUnknownClient indicates a client id that is not configured.
var ErrUnknownClient = errors.New("unknown client")
