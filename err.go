package realtime

import "errors"

// Errors
var (
	ErrNoServerURL   = errors.New("server url not set")
	ErrDisposed      = errors.New("client is disposed")
	ErrAlreadyActive = errors.New("client already has an active or pending connection")
)
