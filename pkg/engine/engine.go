package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/client"
	"github.com/cuemby/tether/pkg/events"
	"github.com/cuemby/tether/pkg/heartbeat"
	"github.com/cuemby/tether/pkg/kernel"
	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/metrics"
	"github.com/cuemby/tether/pkg/session"
	"github.com/cuemby/tether/pkg/types"
)

// Default configuration values.
const (
	// DefaultRegistrationTimeout bounds the wait for the controller's
	// registration response. The original protocol waited forever; a worker
	// stuck in REGISTERING was unkillable, so the wait is bounded here.
	DefaultRegistrationTimeout = 10 * time.Second

	// DefaultUnregisterGrace is slept after sending the unregistration
	// notice so the message flushes before the process disappears.
	DefaultUnregisterGrace = 1 * time.Second
)

// Config holds engine configuration
type Config struct {
	// Ident is the worker identity. Empty means generate a fresh one.
	Ident types.Identity

	// RegistrarAddr is the controller's known registration address.
	RegistrarAddr string

	// Transport opens identity-tagged channel sockets.
	Transport channel.Transport

	// Session packs and unpacks wire messages. Nil means a fresh session.
	Session *session.Session

	// Kernel is the workload engine started once channels exist. Nil means
	// the idle kernel.
	Kernel kernel.Kernel

	// Client is the controller-facing client passed through the kernel
	// handoff. Optional.
	Client *client.Client

	// Broker receives lifecycle events. Optional.
	Broker *events.Broker

	// RequireQueue makes a missing or unprovisionable queue channel fatal.
	// By default a worker without a queue channel still reaches RUNNING
	// with that capability absent.
	RequireQueue bool

	HeartbeatInterval   time.Duration
	RegistrationTimeout time.Duration
	UnregisterGrace     time.Duration
}

// Engine orchestrates the registration handshake with the controller,
// provisions the worker's channels from the response, starts the heartbeat
// monitor, and hands control to the workload engine. One Engine is
// constructed per worker process; all state lives on the instance.
//
// State machine:
//
//	INIT → REGISTERING → PROVISIONING → RUNNING
//	          ↓                            ↓
//	        FAILED            UNREGISTERING → TERMINATED
type Engine struct {
	cfg    Config
	ident  types.Identity
	sess   *session.Session
	kern   kernel.Kernel
	logger zerolog.Logger

	mu        sync.Mutex
	state     types.EngineState
	registrar channel.Socket
	channels  map[types.ChannelRole]*channel.Channel
	heart     *heartbeat.Monitor
	workerID  types.WorkerID
	err       error

	timer    *metrics.Timer
	replyCh  chan [][]byte
	stopCh   chan struct{}
	stopOnce sync.Once
	doneOnce sync.Once
	ready    chan struct{}
	done     chan struct{}
}

// New creates an engine in the INIT state.
func New(cfg Config) (*Engine, error) {
	if cfg.RegistrarAddr == "" {
		return nil, fmt.Errorf("engine: registrar address is required")
	}
	if cfg.Transport == nil {
		return nil, fmt.Errorf("engine: transport is required")
	}

	ident := cfg.Ident
	if ident == "" {
		ident = types.NewIdentity()
	}
	sess := cfg.Session
	if sess == nil {
		sess = session.New()
	}
	kern := cfg.Kernel
	if kern == nil {
		kern = kernel.NewIdle()
	}
	if cfg.RegistrationTimeout <= 0 {
		cfg.RegistrationTimeout = DefaultRegistrationTimeout
	}
	if cfg.UnregisterGrace <= 0 {
		cfg.UnregisterGrace = DefaultUnregisterGrace
	}

	return &Engine{
		cfg:    cfg,
		ident:  ident,
		sess:   sess,
		kern:   kern,
		logger: log.WithComponent("engine").With().Str("identity", ident.String()).Logger(),
		state:  types.EngineStateInit,
		// Capacity one and a drop-on-full send give the handshake its
		// at-most-one response per attempt.
		replyCh: make(chan [][]byte, 1),
		stopCh:  make(chan struct{}),
		ready:   make(chan struct{}),
		done:    make(chan struct{}),
	}, nil
}

// Ident returns the worker identity.
func (e *Engine) Ident() types.Identity {
	return e.ident
}

// State returns the current state of the registration state machine.
func (e *Engine) State() types.EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// WorkerID returns the controller-assigned id, empty before RUNNING.
func (e *Engine) WorkerID() types.WorkerID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.workerID
}

// Ready is closed when the engine reaches RUNNING.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Done is closed when the engine reaches a terminal state (FAILED or
// TERMINATED). Err reports why.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Err returns the terminal error, nil after a graceful unregistration.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Start opens the registrar channel, sends the registration request, and
// returns without waiting for the response; the handshake completes on the
// engine's own goroutine. Calling Start more than once returns
// ErrAlreadyStarted without sending a second request.
func (e *Engine) Start() error {
	e.mu.Lock()
	if e.state != types.EngineStateInit {
		e.mu.Unlock()
		return ErrAlreadyStarted
	}
	e.state = types.EngineStateRegistering
	e.mu.Unlock()
	e.observeState(types.EngineStateRegistering)
	e.publish(events.EventRegistering, "registration request sent", nil)

	metrics.RegistrationAttempts.Inc()
	e.timer = metrics.NewTimer()

	reg, err := e.cfg.Transport.Open(e.ident)
	if err != nil {
		err = fmt.Errorf("open registrar channel: %w", err)
		e.fail(err)
		return err
	}
	if err := reg.Connect(e.cfg.RegistrarAddr); err != nil {
		reg.Close()
		err = fmt.Errorf("connect registrar channel: %w", err)
		e.fail(err)
		return err
	}

	e.mu.Lock()
	e.registrar = reg
	e.mu.Unlock()

	reg.OnReceive(func(frames [][]byte) {
		select {
		case e.replyCh <- frames:
		default:
			// A response already arrived this attempt; drop extras.
		}
	})

	req := types.NewRegistrationRequest(e.ident)
	if err := e.sess.Send(reg, session.TypeRegistrationRequest, req); err != nil {
		e.fail(err)
		return err
	}

	e.logger.Info().
		Str("addr", e.cfg.RegistrarAddr).
		Msg("registration request sent")

	go e.run()
	return nil
}

// run waits for exactly one of: the controller's response, the handshake
// timeout, or shutdown. No other engine-level transition can occur while the
// handshake is suspended.
func (e *Engine) run() {
	timeout := time.NewTimer(e.cfg.RegistrationTimeout)
	defer timeout.Stop()

	select {
	case frames := <-e.replyCh:
		e.completeRegistration(frames)
	case <-timeout.C:
		e.fail(&RegistrationError{
			Reason: ReasonTimeout,
			Detail: fmt.Sprintf("no response within %s", e.cfg.RegistrationTimeout),
		})
	case <-e.stopCh:
	}
}

// completeRegistration interprets the controller's response and, on success,
// drives PROVISIONING → RUNNING: channels first, then the heartbeat monitor,
// then the kernel handoff. Any parse failure is treated identically to a
// rejection: fatal, no channels opened, no partial state retained.
func (e *Engine) completeRegistration(frames [][]byte) {
	msg, err := e.sess.Receive(frames)
	if err != nil {
		e.fail(&RegistrationError{Reason: ReasonMalformed, Err: err})
		return
	}

	var resp types.RegistrationResponse
	if err := msg.DecodeContent(&resp); err != nil {
		e.fail(&RegistrationError{Reason: ReasonMalformed, Err: err})
		return
	}

	if !resp.OK() {
		e.fail(&RegistrationError{
			Reason: ReasonRejected,
			Status: resp.Status,
			Detail: resp.Reason,
		})
		return
	}

	e.mu.Lock()
	e.state = types.EngineStateProvisioning
	e.workerID = resp.ID
	e.mu.Unlock()
	e.observeState(types.EngineStateProvisioning)

	// The assigned id becomes this worker's externally-visible handle.
	e.sess.SetUsername(resp.ID.String())

	chans, provErrs := channel.Provision(e.cfg.Transport, e.ident, resp.ChannelAddrs())
	for _, perr := range provErrs {
		// Isolated failures: reported, capability stays absent.
		e.publish(events.EventChannelFailed, perr.Error(), nil)
	}
	for role, ch := range chans {
		e.publish(events.EventChannelProvisioned, string(role), map[string]string{"addr": ch.Addr})
	}

	if e.cfg.RequireQueue && chans[types.ChannelQueue] == nil {
		for _, ch := range chans {
			ch.Close()
		}
		e.fail(&RegistrationError{
			Reason: ReasonNoQueue,
			Detail: "queue channel is required but was not provisioned",
		})
		return
	}

	e.mu.Lock()
	e.channels = chans
	e.mu.Unlock()

	// Heartbeats start strictly after provisioning so liveness never
	// suggests a worker whose channels do not exist yet, and before the
	// kernel so the controller sees the worker alive from its first job.
	if len(resp.Heartbeat) > 0 {
		heart := heartbeat.NewMonitor(types.HeartbeatConfig{
			Addresses: resp.Heartbeat,
			Identity:  e.ident,
			Interval:  e.cfg.HeartbeatInterval,
		}, e.cfg.Transport)
		if err := heart.Start(); err != nil {
			e.teardownChannels()
			e.fail(fmt.Errorf("start heartbeat monitor: %w", err))
			return
		}
		e.mu.Lock()
		e.heart = heart
		e.mu.Unlock()
		e.publish(events.EventHeartbeatStarted, "", map[string]string{"addrs": fmt.Sprint(resp.Heartbeat)})
	}

	handoff := kernel.Handoff{
		Session: e.sess,
		Queue:   socketFor(chans, types.ChannelQueue),
		Control: socketFor(chans, types.ChannelControl),
		Task:    socketFor(chans, types.ChannelTask),
		Client:  e.cfg.Client,
	}
	if err := e.kern.Start(handoff); err != nil {
		e.stopHeart()
		e.teardownChannels()
		e.fail(fmt.Errorf("start kernel: %w", err))
		return
	}
	e.publish(events.EventKernelStarted, "", nil)

	e.mu.Lock()
	e.state = types.EngineStateRunning
	e.mu.Unlock()
	e.observeState(types.EngineStateRunning)
	close(e.ready)
	e.timer.ObserveDuration(metrics.RegistrationDuration)
	e.publish(events.EventRegistered, resp.ID.String(), nil)

	e.logger.Info().
		Str("id", resp.ID.String()).
		Int("channels", len(chans)).
		Bool("heartbeat", len(resp.Heartbeat) > 0).
		Msg("registration complete")
}

// Unregister sends the unregistration notice over the registrar channel,
// waits the grace period so the message can flush, tears down, and returns.
// Best-effort by design: no acknowledgment is awaited, and a send failure is
// not retried — the controller's own liveness timeout is the backstop.
func (e *Engine) Unregister() error {
	e.mu.Lock()
	if e.state != types.EngineStateRunning {
		e.mu.Unlock()
		return ErrNotRunning
	}
	e.state = types.EngineStateUnregistering
	reg := e.registrar
	id := e.workerID
	e.mu.Unlock()
	e.observeState(types.EngineStateUnregistering)

	if n, err := id.Int(); err != nil {
		e.logger.Warn().Err(err).Msg("skipping unregistration notice")
	} else if err := e.sess.Send(reg, session.TypeUnregistrationRequest, types.UnregistrationRequest{ID: n}); err != nil {
		e.logger.Warn().Err(err).Msg("unregistration send failed")
	} else {
		e.logger.Info().Int("id", n).Msg("unregistration request sent")
	}

	time.Sleep(e.cfg.UnregisterGrace)

	e.stopHeart()
	if err := e.kern.Stop(); err != nil {
		e.logger.Warn().Err(err).Msg("kernel stop failed")
	}
	e.teardownChannels()
	e.closeRegistrar()

	e.mu.Lock()
	e.state = types.EngineStateTerminated
	e.mu.Unlock()
	e.observeState(types.EngineStateTerminated)
	e.publish(events.EventUnregistered, id.String(), nil)

	e.doneOnce.Do(func() { close(e.done) })
	return nil
}

// Shutdown is the single teardown point for an engine that never reached
// RUNNING (or whose caller wants an immediate stop without the
// unregistration protocol). A RUNNING engine is unregistered instead.
func (e *Engine) Shutdown() {
	if e.State() == types.EngineStateRunning {
		if err := e.Unregister(); err == nil {
			return
		}
	}

	e.stopOnce.Do(func() { close(e.stopCh) })
	e.stopHeart()
	e.teardownChannels()
	e.closeRegistrar()

	e.mu.Lock()
	if e.state != types.EngineStateFailed {
		e.state = types.EngineStateTerminated
	}
	state := e.state
	e.mu.Unlock()
	e.observeState(state)

	e.doneOnce.Do(func() { close(e.done) })
}

// fail records the fatal registration outcome: no partial state is retained
// and the only socket ever opened — the registrar — is closed.
func (e *Engine) fail(err error) {
	e.mu.Lock()
	e.err = err
	e.state = types.EngineStateFailed
	e.mu.Unlock()
	e.observeState(types.EngineStateFailed)

	reason := "error"
	if regErr, ok := err.(*RegistrationError); ok {
		reason = regErr.Reason
	}
	metrics.RegistrationFailures.WithLabelValues(reason).Inc()

	e.closeRegistrar()

	e.logger.Error().Err(err).Msg("registration failed")
	e.publish(events.EventRegistrationFailed, err.Error(), map[string]string{"reason": reason})

	e.doneOnce.Do(func() { close(e.done) })
}

func (e *Engine) stopHeart() {
	e.mu.Lock()
	heart := e.heart
	e.heart = nil
	e.mu.Unlock()
	if heart != nil {
		heart.Stop()
	}
}

func (e *Engine) teardownChannels() {
	e.mu.Lock()
	chans := e.channels
	e.channels = nil
	e.mu.Unlock()
	for _, ch := range chans {
		ch.Close()
	}
}

func (e *Engine) closeRegistrar() {
	e.mu.Lock()
	reg := e.registrar
	e.registrar = nil
	e.mu.Unlock()
	if reg != nil {
		reg.Close()
	}
}

func (e *Engine) observeState(state types.EngineState) {
	metrics.SetEngineState(string(state))
	e.logger.Debug().Str("state", string(state)).Msg("state changed")
}

func (e *Engine) publish(typ events.EventType, msg string, meta map[string]string) {
	if e.cfg.Broker == nil {
		return
	}
	e.cfg.Broker.Publish(&events.Event{Type: typ, Message: msg, Metadata: meta})
}

func socketFor(chans map[types.ChannelRole]*channel.Channel, role types.ChannelRole) channel.Socket {
	if ch := chans[role]; ch != nil {
		return ch.Socket
	}
	return nil
}
