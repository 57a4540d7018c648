package kernel

import "errors"

// ErrAlreadyStarted indicates a second Start on a running kernel.
var ErrAlreadyStarted = errors.New("kernel: already started")
