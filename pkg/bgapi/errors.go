package bgapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFrame reports a frame that could not be parsed. The reader
	// recovers from it by resynchronising.
	ErrMalformedFrame = errors.New("bgapi: malformed frame")
	// ErrUnknownMessage reports a well-formed frame with an unregistered id.
	ErrUnknownMessage = errors.New("bgapi: unknown message")
	// ErrCommandTimeout fails a command whose response did not arrive in time.
	ErrCommandTimeout = errors.New("bgapi: command timeout")
	// ErrCommandFailed matches every *CommandError.
	ErrCommandFailed = errors.New("bgapi: command failed")
	// ErrTransactionInProgress rejects an attribute command before it is sent
	// because the connection already has an open attribute transaction.
	ErrTransactionInProgress = errors.New("bgapi: attribute transaction in progress")
	// ErrAdapterReset fails pending and queued commands when the adapter
	// reboots, is reset, or is closed.
	ErrAdapterReset = errors.New("bgapi: adapter reset")
	ErrClosed       = errors.New("bgapi: adapter closed")

	ErrNotConnected    = errors.New("bgapi: not connected")
	ErrNoQueuedWrite   = errors.New("bgapi: no queued write open")
	ErrPayloadTooLarge = errors.New("bgapi: payload too large")
)

// CommandError is a non-success result code returned by the firmware.
type CommandError struct {
	ID     MessageID
	Result Result
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("bgapi: command %s (%s) failed: %s", Name(e.ID, false), e.ID, e.Result)
}

func (e *CommandError) Is(target error) bool {
	return target == ErrCommandFailed
}
