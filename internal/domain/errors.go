package domain

import "errors"

// Sentinel errors for the failure taxonomy. Handlers map these to HTTP
// statuses with errors.Is; anything unrecognized is an internal failure.
var (
	ErrValidation      = errors.New("validation failed")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrInvalidBucket   = errors.New("invalid bucket")
	ErrInvalidImage    = errors.New("invalid image")
	ErrNotFound        = errors.New("not found")
	ErrGateway         = errors.New("gateway failure")
	ErrStorage         = errors.New("storage failure")
)
