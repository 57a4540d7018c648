/*
Package config loads the worker connection file.

The connection file is a small YAML document naming the controller's
registration endpoint and the protocol timings:

	registrar_addr: tcp://10.0.0.5:10101
	ident: ""                    # empty = generate
	require_queue: false
	registration_timeout: 10s
	heartbeat_interval: 1s
	unregister_grace: 1s
	metrics_addr: ":9465"
	log:
	  level: info
	  json: true

Every field has a default; command-line flags override file values.
*/
package config
