/*
Package log provides structured logging for Tether using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper
functions for common logging patterns. All logs include timestamps and
support filtering by severity level.

# Usage

Initializing the logger:

	import "github.com/cuemby/tether/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
	})

Component loggers:

	engineLog := log.WithComponent("engine")
	engineLog.Info().Str("state", "registering").Msg("handshake started")

	hbLog := log.WithComponent("heartbeat").
		With().Str("identity", ident).Logger()
	hbLog.Warn().Err(err).Msg("pulse send failed, retrying next tick")

# Design Patterns

A single package-level Logger is initialized once at application start.
Child loggers carry context fields (component, identity, channel role) so
every line from a subsystem is attributable without repeating fields at each
call site. Errors are always attached with .Err() rather than formatted into
the message.
*/
package log
