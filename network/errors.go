package network

import "errors"

// Message codec errors
var (
	ErrNilMessage      = errors.New("message is nil")
	ErrShortMessage    = errors.New("data too short for message")
	ErrMessageTooLarge = errors.New("message too large")
)

// Envelope errors
var (
	ErrNotValueMessage = errors.New("message does not carry a value")
	ErrConnClosed      = errors.New("connection is closed")
)
