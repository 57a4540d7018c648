package client

import (
	"errors"
	"sync"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/session"
	"github.com/cuemby/tether/pkg/types"
)

// ErrNotConnected indicates use of a client before Connect.
var ErrNotConnected = errors.New("client: not connected")

// Client is the controller-facing client handed to the workload engine at
// startup. It is the dependency-injection boundary for any downstream
// requests the workload engine must make; the registration layer itself
// never sends through it.
type Client struct {
	addr      string
	transport channel.Transport
	session   *session.Session

	mu   sync.Mutex
	sock channel.Socket
}

// New creates a client for the controller at addr. By convention this is the
// same address the worker registered through.
func New(addr string, transport channel.Transport, sess *session.Session) *Client {
	return &Client{
		addr:      addr,
		transport: transport,
		session:   sess,
	}
}

// Addr returns the controller address the client targets.
func (c *Client) Addr() string {
	return c.addr
}

// Connect opens the client's socket, tagged with the worker identity.
func (c *Client) Connect(ident types.Identity) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock != nil {
		return nil
	}

	sock, err := c.transport.Open(ident)
	if err != nil {
		return err
	}
	if err := sock.Connect(c.addr); err != nil {
		sock.Close()
		return err
	}
	c.sock = sock

	logger := log.WithComponent("client")
	logger.Debug().Str("addr", c.addr).Msg("controller client connected")
	return nil
}

// Send packs and transmits a message to the controller.
func (c *Client) Send(msgType string, content interface{}) error {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()

	if sock == nil {
		return ErrNotConnected
	}
	return c.session.Send(sock, msgType, content)
}

// OnReply registers the callback invoked for every controller message.
func (c *Client) OnReply(fn func(msg *session.Message)) error {
	c.mu.Lock()
	sock := c.sock
	c.mu.Unlock()

	if sock == nil {
		return ErrNotConnected
	}

	sock.OnReceive(func(frames [][]byte) {
		msg, err := c.session.Receive(frames)
		if err != nil {
			logger := log.WithComponent("client")
			logger.Warn().Err(err).Msg("dropping malformed controller message")
			return
		}
		fn(msg)
	})
	return nil
}

// Close closes the client connection
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sock == nil {
		return nil
	}
	err := c.sock.Close()
	c.sock = nil
	return err
}
