package kernel

import (
	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/client"
	"github.com/cuemby/tether/pkg/session"
)

// Handoff carries everything the workload engine receives when the worker
// reaches RUNNING: the session, whichever channels were provisioned, and the
// controller client. After handoff the workload engine is the sole owner of
// traffic on these channels.
type Handoff struct {
	Session *session.Session

	// Queue, Control, and Task may each be nil. Downstream code must treat
	// every channel as optional and check availability rather than assume
	// all exist.
	Queue   channel.Socket
	Control channel.Socket
	Task    channel.Socket

	Client *client.Client
}

// Kernel is the workload-execution engine boundary. The registration layer
// starts it exactly once, after all channels exist, and stops it on
// unregistration. What the kernel does with queued jobs is out of this
// layer's hands.
type Kernel interface {
	Start(h Handoff) error
	Stop() error
}
