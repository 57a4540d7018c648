package heartbeat

import "errors"

// ErrNoAddresses indicates a start attempt with no controller-provided
// heartbeat endpoints. The engine treats this as "liveness reporting not
// offered" rather than a failure.
var ErrNoAddresses = errors.New("heartbeat: no addresses configured")
