package client

import (
	"errors"
	"fmt"
)

var (
	// ErrRoomFull means the server rejected the join; the room already had
	// two participants. Terminal, no automatic retry.
	ErrRoomFull = errors.New("room is full")

	// ErrConnectionFailed means the peer connection entered the failed
	// state. Terminal for this session.
	ErrConnectionFailed = errors.New("peer connection failed")

	// ErrSignalingClosed means the signaling transport dropped before or
	// during negotiation.
	ErrSignalingClosed = errors.New("signaling connection closed")

	// ErrUnexpectedSignal means a negotiation payload could not be decoded.
	ErrUnexpectedSignal = errors.New("unexpected signal payload")
)

// CallError annotates an error with the operation that produced it.
type CallError struct {
	Op  string
	Err error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func newError(op string, err error) *CallError {
	return &CallError{Op: op, Err: err}
}
