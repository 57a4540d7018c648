package channel

import (
	"github.com/cuemby/tether/pkg/types"
)

// Socket is one endpoint of a point-to-point channel between this worker and
// a peer. All operations are non-blocking: Send enqueues a write, and
// received messages are delivered through the callback registered with
// OnReceive.
type Socket interface {
	// Connect dials the remote address. The socket's identity must already
	// be set so peer-side routing can address this specific worker.
	Connect(addr string) error

	// Send enqueues a framed message for transmission.
	Send(frames [][]byte) error

	// OnReceive registers the callback invoked for every inbound message
	// and starts delivery. At most one callback is active per socket; a
	// second registration replaces the first.
	OnReceive(fn func(frames [][]byte))

	// Close releases the socket and stops delivery. Close is idempotent.
	Close() error
}

// Transport opens sockets tagged with a worker identity. Implementations
// decide the underlying wire protocol.
type Transport interface {
	Open(ident types.Identity) (Socket, error)
}

// Channel is a provisioned channel record: the role it serves, the remote
// address it was connected to, and the live socket. Channels are owned
// exclusively by the engine until handoff.
type Channel struct {
	Role   types.ChannelRole
	Addr   string
	Socket Socket
}

// Close closes the underlying socket.
func (c *Channel) Close() error {
	if c.Socket == nil {
		return nil
	}
	return c.Socket.Close()
}
