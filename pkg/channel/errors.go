package channel

import "errors"

var (
	// ErrEmptyIdentity indicates an attempt to open a socket without a
	// worker identity. Untagged sockets cannot be routed to.
	ErrEmptyIdentity = errors.New("channel: empty worker identity")

	// ErrClosed indicates use of a socket after Close.
	ErrClosed = errors.New("channel: socket closed")
)
