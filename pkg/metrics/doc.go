/*
Package metrics provides Prometheus metrics for Tether.

Metrics cover the three phases of a worker's life: the registration
handshake (attempts, failures by reason, duration), channel provisioning
(per-role presence gauges and failure counters), and the heartbeat monitor
(pulses, echoes, transient send failures). The active engine state is
exported as a one-hot gauge so dashboards can distinguish "never registered"
from "registered then failed".

All metrics are registered at package init. Handler exposes the standard
promhttp endpoint; the tether binary serves it next to /healthz.

Usage:

	metrics.RegistrationAttempts.Inc()

	timer := metrics.NewTimer()
	// ... handshake ...
	timer.ObserveDuration(metrics.RegistrationDuration)

	mux.Handle("/metrics", metrics.Handler())
*/
package metrics
