package heartbeat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/tether/pkg/channel"
	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/metrics"
	"github.com/cuemby/tether/pkg/types"
)

// DefaultInterval is the pulse period when the configuration does not set
// one. Liveness reporting uses a fixed small period, never one derived from
// payload traffic.
const DefaultInterval = 1 * time.Second

// Monitor continuously proves liveness to the controller on its own timer,
// decoupled from the request/response channels so a busy queue never
// suppresses liveness signals.
//
// The monitor is a pure signal source/sink: it never interprets missed
// pulses (failure declaration is the controller's job), it never stops
// without an explicit Stop call, and it survives transient send failures by
// retrying on the next tick.
type Monitor struct {
	cfg       types.HeartbeatConfig
	transport channel.Transport
	logger    zerolog.Logger

	ping channel.Socket // controller pings arrive here
	pong channel.Socket // pulses and echoes are sent here

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewMonitor creates a monitor from its immutable configuration. The monitor
// owns the sockets it opens; the engine's channels are untouched.
func NewMonitor(cfg types.HeartbeatConfig, transport channel.Transport) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	return &Monitor{
		cfg:       cfg,
		transport: transport,
		logger:    log.WithComponent("heartbeat"),
		stopCh:    make(chan struct{}),
	}
}

// Start opens the heartbeat sockets and begins pulsing. It returns once the
// ticker goroutine is scheduled; it never blocks on the controller.
func (m *Monitor) Start() error {
	if len(m.cfg.Addresses) == 0 {
		return ErrNoAddresses
	}

	var err error
	m.startOnce.Do(func() {
		err = m.start()
	})
	return err
}

func (m *Monitor) start() error {
	// With a single address only pulses are sent. With two, the first is
	// the ping side and the last the pulse side.
	pongAddr := m.cfg.Addresses[len(m.cfg.Addresses)-1]

	pong, err := m.open(pongAddr)
	if err != nil {
		return err
	}
	m.pong = pong

	if len(m.cfg.Addresses) > 1 {
		ping, err := m.open(m.cfg.Addresses[0])
		if err != nil {
			pong.Close()
			return err
		}
		m.ping = ping
		m.ping.OnReceive(m.echo)
	}

	m.wg.Add(1)
	go m.loop()

	m.logger.Info().
		Strs("addrs", m.cfg.Addresses).
		Dur("interval", m.cfg.Interval).
		Msg("heartbeat monitor started")
	return nil
}

func (m *Monitor) open(addr string) (channel.Socket, error) {
	sock, err := m.transport.Open(m.cfg.Identity)
	if err != nil {
		return nil, err
	}
	if err := sock.Connect(addr); err != nil {
		sock.Close()
		return nil, err
	}
	return sock, nil
}

// loop ticks at the configured period until Stop. Each tick's work is O(1).
func (m *Monitor) loop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.pulse()
		case <-m.stopCh:
			return
		}
	}
}

// pulse sends one liveness pulse. A failed send is counted and retried on
// the next tick; it is never escalated.
func (m *Monitor) pulse() {
	if err := m.pong.Send([][]byte{m.cfg.Identity.Bytes()}); err != nil {
		metrics.HeartbeatSendFailures.Inc()
		m.logger.Warn().Err(err).Msg("pulse send failed, retrying next tick")
		return
	}
	metrics.HeartbeatPulses.Inc()
}

// echo answers a controller ping by sending its payload back, proving
// two-way liveness.
func (m *Monitor) echo(frames [][]byte) {
	if err := m.pong.Send(frames); err != nil {
		metrics.HeartbeatSendFailures.Inc()
		m.logger.Warn().Err(err).Msg("ping echo failed")
		return
	}
	metrics.HeartbeatEchoes.Inc()
}

// Stop halts the ticker and closes the monitor's sockets. Stop is the only
// way the monitor ever stops.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
		m.wg.Wait()
		if m.ping != nil {
			m.ping.Close()
		}
		if m.pong != nil {
			m.pong.Close()
		}
		m.logger.Info().Msg("heartbeat monitor stopped")
	})
}
