package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registration metrics
	RegistrationAttempts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tether_registration_attempts_total",
			Help: "Total number of registration handshakes started",
		},
	)

	RegistrationFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tether_registration_failures_total",
			Help: "Total number of failed registrations by reason",
		},
		[]string{"reason"},
	)

	RegistrationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tether_registration_duration_seconds",
			Help:    "Time from registration request to RUNNING in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// Channel metrics
	ChannelsProvisioned = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tether_channels_provisioned",
			Help: "Whether a channel of the given role is provisioned (1) or absent (0)",
		},
		[]string{"role"},
	)

	ChannelProvisionFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tether_channel_provision_failures_total",
			Help: "Total number of channel provisioning failures by role",
		},
		[]string{"role"},
	)

	// Heartbeat metrics
	HeartbeatPulses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tether_heartbeat_pulses_total",
			Help: "Total number of liveness pulses sent",
		},
	)

	HeartbeatEchoes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tether_heartbeat_echoes_total",
			Help: "Total number of controller pings echoed back",
		},
	)

	HeartbeatSendFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "tether_heartbeat_send_failures_total",
			Help: "Total number of pulse sends that failed and were retried on the next tick",
		},
	)

	// Engine metrics
	EngineState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tether_engine_state",
			Help: "Current engine state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(RegistrationAttempts)
	prometheus.MustRegister(RegistrationFailures)
	prometheus.MustRegister(RegistrationDuration)
	prometheus.MustRegister(ChannelsProvisioned)
	prometheus.MustRegister(ChannelProvisionFailures)
	prometheus.MustRegister(HeartbeatPulses)
	prometheus.MustRegister(HeartbeatEchoes)
	prometheus.MustRegister(HeartbeatSendFailures)
	prometheus.MustRegister(EngineState)
}

// SetEngineState marks state as the active engine state.
func SetEngineState(state string) {
	for _, s := range []string{
		"init", "registering", "provisioning", "running",
		"failed", "unregistering", "terminated",
	} {
		v := 0.0
		if s == state {
			v = 1.0
		}
		EngineState.WithLabelValues(s).Set(v)
	}
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
