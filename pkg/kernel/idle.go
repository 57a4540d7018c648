package kernel

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/session"
)

// IdleKernel is a minimal workload engine: it accepts the handoff, logs the
// traffic arriving on whichever channels exist, and does no work. The tether
// binary runs it when no real workload engine is embedded, keeping the
// registration layer exercisable end to end.
type IdleKernel struct {
	logger zerolog.Logger

	mu      sync.Mutex
	started bool
}

// NewIdle creates an idle kernel.
func NewIdle() *IdleKernel {
	return &IdleKernel{logger: log.WithComponent("kernel")}
}

// Start wires logging callbacks onto the provisioned channels.
func (k *IdleKernel) Start(h Handoff) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started {
		return ErrAlreadyStarted
	}
	k.started = true

	k.watch("queue", h.Session, h.Queue)
	k.watch("control", h.Session, h.Control)
	k.watch("task", h.Session, h.Task)

	k.logger.Info().
		Bool("queue", h.Queue != nil).
		Bool("control", h.Control != nil).
		Bool("task", h.Task != nil).
		Msg("idle kernel started")
	return nil
}

func (k *IdleKernel) watch(name string, sess *session.Session, sock channel.Socket) {
	if sock == nil {
		return
	}

	sock.OnReceive(func(frames [][]byte) {
		msg, err := sess.Receive(frames)
		if err != nil {
			k.logger.Warn().Err(err).Str("channel", name).Msg("unparseable message")
			return
		}
		k.logger.Info().
			Str("channel", name).
			Str("msg_type", msg.Header.MsgType).
			Msg("message received (idle kernel, dropped)")
	})
}

// Stop is a no-op beyond marking the kernel stopped; the engine owns channel
// teardown.
func (k *IdleKernel) Stop() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.started = false
	return nil
}
