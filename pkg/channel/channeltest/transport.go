// Package channeltest provides an in-memory channel.Transport for tests.
//
// A Transport plays both sides of the wire: worker code opens sockets
// through the channel.Transport interface, while tests register per-address
// handlers that stand in for the controller and inject replies with Deliver.
package channeltest

import (
	"fmt"
	"sync"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/types"
)

// Handler is a controller-side handler for messages sent to one address.
type Handler func(peer *Socket, frames [][]byte)

// Transport is an in-memory channel.Transport.
type Transport struct {
	mu          sync.Mutex
	handlers    map[string]Handler
	failConnect map[string]error
	sockets     []*Socket
}

// New creates an empty in-memory transport.
func New() *Transport {
	return &Transport{
		handlers:    make(map[string]Handler),
		failConnect: make(map[string]error),
	}
}

// Handle registers the controller-side handler for an address. The handler
// runs synchronously inside the worker's Send call.
func (t *Transport) Handle(addr string, fn Handler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers[addr] = fn
}

// FailConnect makes every Connect to addr fail with err.
func (t *Transport) FailConnect(addr string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failConnect[addr] = err
}

// Open implements channel.Transport.
func (t *Transport) Open(ident types.Identity) (channel.Socket, error) {
	if ident == "" {
		return nil, channel.ErrEmptyIdentity
	}
	s := &Socket{t: t, ident: ident}
	t.mu.Lock()
	t.sockets = append(t.sockets, s)
	t.mu.Unlock()
	return s, nil
}

// Sockets returns every socket opened so far, in open order.
func (t *Transport) Sockets() []*Socket {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*Socket(nil), t.sockets...)
}

// SocketsTo returns the sockets connected to addr.
func (t *Transport) SocketsTo(addr string) []*Socket {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []*Socket
	for _, s := range t.sockets {
		if s.Addr() == addr {
			out = append(out, s)
		}
	}
	return out
}

// Socket is the worker-side endpoint of an in-memory channel.
type Socket struct {
	t     *Transport
	ident types.Identity

	mu      sync.Mutex
	addr    string
	fn      func([][]byte)
	pending [][][]byte
	sent    [][][]byte
	sendErr error
	closed  bool
}

func (s *Socket) Connect(addr string) error {
	s.t.mu.Lock()
	err := s.t.failConnect[addr]
	s.t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("connect %s: %w", addr, err)
	}

	s.mu.Lock()
	s.addr = addr
	s.mu.Unlock()
	return nil
}

func (s *Socket) Send(frames [][]byte) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return channel.ErrClosed
	}
	if s.sendErr != nil {
		err := s.sendErr
		s.mu.Unlock()
		return err
	}
	s.sent = append(s.sent, frames)
	addr := s.addr
	s.mu.Unlock()

	s.t.mu.Lock()
	handler := s.t.handlers[addr]
	s.t.mu.Unlock()
	if handler != nil {
		handler(s, frames)
	}
	return nil
}

func (s *Socket) OnReceive(fn func(frames [][]byte)) {
	s.mu.Lock()
	s.fn = fn
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, frames := range pending {
		fn(frames)
	}
}

func (s *Socket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Deliver injects an inbound message, as if the peer had sent it. Messages
// delivered before OnReceive is registered are buffered.
func (s *Socket) Deliver(frames [][]byte) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	fn := s.fn
	if fn == nil {
		s.pending = append(s.pending, frames)
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	fn(frames)
}

// SetSendError forces subsequent Sends to fail with err (nil clears it).
func (s *Socket) SetSendError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sendErr = err
}

// Sent returns a copy of every message sent on this socket.
func (s *Socket) Sent() [][][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][][]byte(nil), s.sent...)
}

// Ident returns the identity the socket was opened with.
func (s *Socket) Ident() types.Identity {
	return s.ident
}

// Addr returns the address the socket was connected to.
func (s *Socket) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Closed reports whether Close has been called.
func (s *Socket) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
