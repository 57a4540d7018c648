package session

import "errors"

var (
	// ErrNoDelimiter indicates raw frames with no identity/payload delimiter.
	ErrNoDelimiter = errors.New("session: no delimiter frame in message")

	// ErrTruncated indicates a payload with fewer frames than header+content.
	ErrTruncated = errors.New("session: truncated message payload")
)
