package heartbeat

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tether/pkg/channel/channeltest"
	"github.com/cuemby/tether/pkg/types"
)

const (
	pingAddr = "tcp://controller:10105"
	pongAddr = "tcp://controller:10106"
)

func newRunningMonitor(t *testing.T, tr *channeltest.Transport, addrs []string) *Monitor {
	t.Helper()
	m := NewMonitor(types.HeartbeatConfig{
		Addresses: addrs,
		Identity:  "worker-abc",
		Interval:  10 * time.Millisecond,
	}, tr)
	require.NoError(t, m.Start())
	t.Cleanup(m.Stop)
	return m
}

func sentCount(tr *channeltest.Transport, addr string) func() bool {
	return func() bool {
		socks := tr.SocketsTo(addr)
		return len(socks) == 1 && len(socks[0].Sent()) >= 3
	}
}

func TestStartRequiresAddresses(t *testing.T) {
	m := NewMonitor(types.HeartbeatConfig{Identity: "worker-abc"}, channeltest.New())
	assert.ErrorIs(t, m.Start(), ErrNoAddresses)
}

func TestPulsesCarryIdentity(t *testing.T) {
	tr := channeltest.New()
	newRunningMonitor(t, tr, []string{pongAddr})

	require.Eventually(t, sentCount(tr, pongAddr), 2*time.Second, 5*time.Millisecond)

	sock := tr.SocketsTo(pongAddr)[0]
	assert.Equal(t, types.Identity("worker-abc"), sock.Ident())
	for _, frames := range sock.Sent() {
		require.Len(t, frames, 1)
		assert.Equal(t, "worker-abc", string(frames[0]))
	}
}

func TestSendFailureRetriesNextTick(t *testing.T) {
	tr := channeltest.New()
	newRunningMonitor(t, tr, []string{pongAddr})

	sock := tr.SocketsTo(pongAddr)[0]
	sock.SetSendError(errors.New("transient"))
	baseline := len(sock.Sent())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, baseline, len(sock.Sent()), "failed sends must not be recorded")

	// Clearing the fault is enough: the monitor keeps ticking on its own.
	sock.SetSendError(nil)
	require.Eventually(t, sentCount(tr, pongAddr), 2*time.Second, 5*time.Millisecond)
}

func TestPingsAreEchoed(t *testing.T) {
	tr := channeltest.New()
	newRunningMonitor(t, tr, []string{pingAddr, pongAddr})

	ping := tr.SocketsTo(pingAddr)
	require.Len(t, ping, 1)
	pong := tr.SocketsTo(pongAddr)
	require.Len(t, pong, 1)

	probe := [][]byte{[]byte("probe-42")}
	ping[0].Deliver(probe)

	require.Eventually(t, func() bool {
		for _, frames := range pong[0].Sent() {
			if len(frames) == 1 && string(frames[0]) == "probe-42" {
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
}

func TestStopHaltsPulsing(t *testing.T) {
	tr := channeltest.New()
	m := newRunningMonitor(t, tr, []string{pongAddr})

	require.Eventually(t, func() bool {
		return len(tr.SocketsTo(pongAddr)[0].Sent()) >= 1
	}, 2*time.Second, 5*time.Millisecond)

	m.Stop()
	sock := tr.SocketsTo(pongAddr)[0]
	assert.True(t, sock.Closed())

	count := len(sock.Sent())
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, count, len(sock.Sent()))

	// Stop is idempotent.
	m.Stop()
}

func TestDefaultInterval(t *testing.T) {
	m := NewMonitor(types.HeartbeatConfig{Addresses: []string{pongAddr}, Identity: "w"}, channeltest.New())
	assert.Equal(t, DefaultInterval, m.cfg.Interval)
}
