package channel_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-zeromq/zmq4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tether/pkg/channel"
)

func TestZMQTransportRoundTrip(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Controller side: a ROUTER that sees the worker identity on every frame.
	router := zmq4.NewRouter(ctx)
	defer router.Close()
	require.NoError(t, router.Listen("tcp://127.0.0.1:0"))
	addr := fmt.Sprintf("tcp://%s", router.Addr())

	tr := channel.NewZMQTransport(ctx)
	sock, err := tr.Open("worker-abc")
	require.NoError(t, err)
	defer sock.Close()
	require.NoError(t, sock.Connect(addr))

	received := make(chan [][]byte, 1)
	sock.OnReceive(func(frames [][]byte) {
		select {
		case received <- frames:
		default:
		}
	})

	require.NoError(t, sock.Send([][]byte{[]byte("hello")}))

	// The router prepends the dealer's identity to inbound messages.
	msg, err := router.Recv()
	require.NoError(t, err)
	require.Len(t, msg.Frames, 2)
	assert.Equal(t, "worker-abc", string(msg.Frames[0]))
	assert.Equal(t, "hello", string(msg.Frames[1]))

	// Replies addressed by identity come back without the routing frame.
	require.NoError(t, router.Send(zmq4.NewMsgFrom(msg.Frames[0], []byte("pong"))))

	select {
	case frames := <-received:
		require.Len(t, frames, 1)
		assert.Equal(t, "pong", string(frames[0]))
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reply")
	}
}

func TestZMQTransportRejectsEmptyIdentity(t *testing.T) {
	tr := channel.NewZMQTransport(context.Background())
	_, err := tr.Open("")
	assert.ErrorIs(t, err, channel.ErrEmptyIdentity)
}

func TestZMQSocketCloseIdempotent(t *testing.T) {
	tr := channel.NewZMQTransport(context.Background())
	sock, err := tr.Open("worker-abc")
	require.NoError(t, err)

	require.NoError(t, sock.Close())
	assert.NoError(t, sock.Close())
	assert.ErrorIs(t, sock.Send([][]byte{[]byte("x")}), channel.ErrClosed)
}
