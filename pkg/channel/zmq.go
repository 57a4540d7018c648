package channel

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-zeromq/zmq4"

	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/types"
)

// ZMQTransport opens ZeroMQ DEALER sockets. DEALER carries the identity
// option and the asynchronous send/receive semantics the Socket contract
// requires; every Tether channel role uses the same socket kind.
type ZMQTransport struct {
	ctx context.Context
}

// NewZMQTransport creates a transport whose sockets are bound to ctx. When
// ctx is cancelled all sockets opened from it shut down.
func NewZMQTransport(ctx context.Context) *ZMQTransport {
	return &ZMQTransport{ctx: ctx}
}

// Open creates a DEALER socket tagged with ident. The identity is set at
// creation time, before any Connect, so the peer can route by it.
func (t *ZMQTransport) Open(ident types.Identity) (Socket, error) {
	if ident == "" {
		return nil, ErrEmptyIdentity
	}

	sock := zmq4.NewDealer(t.ctx, zmq4.WithID(zmq4.SocketIdentity(ident.Bytes())))
	return &zmqSocket{
		sock:   sock,
		closed: make(chan struct{}),
	}, nil
}

// zmqSocket adapts a zmq4 socket to the Socket contract.
type zmqSocket struct {
	sock zmq4.Socket

	mu        sync.Mutex
	fn        func([][]byte)
	receiving bool

	closeOnce sync.Once
	closed    chan struct{}
}

func (s *zmqSocket) Connect(addr string) error {
	if err := s.sock.Dial(addr); err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	return nil
}

func (s *zmqSocket) Send(frames [][]byte) error {
	select {
	case <-s.closed:
		return ErrClosed
	default:
	}
	return s.sock.Send(zmq4.NewMsgFrom(frames...))
}

func (s *zmqSocket) OnReceive(fn func(frames [][]byte)) {
	s.mu.Lock()
	s.fn = fn
	start := !s.receiving
	s.receiving = true
	s.mu.Unlock()

	if start {
		go s.recvLoop()
	}
}

// recvLoop delivers inbound messages to the registered callback. It exits
// when the socket closes; receive errors after Close are expected and not
// reported.
func (s *zmqSocket) recvLoop() {
	for {
		msg, err := s.sock.Recv()
		if err != nil {
			select {
			case <-s.closed:
			default:
				logger := log.WithComponent("channel")
				logger.Debug().Err(err).Msg("receive loop ended")
			}
			return
		}

		s.mu.Lock()
		fn := s.fn
		s.mu.Unlock()
		if fn != nil {
			fn(msg.Frames)
		}
	}
}

func (s *zmqSocket) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.closed)
		err = s.sock.Close()
	})
	return err
}
