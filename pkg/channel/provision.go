package channel

import (
	"fmt"

	"github.com/cuemby/tether/pkg/log"
	"github.com/cuemby/tether/pkg/metrics"
	"github.com/cuemby/tether/pkg/types"
)

// provisionOrder fixes the order channels are attempted in. Ordering is not
// functionally significant; a stable order keeps logs and tests predictable.
var provisionOrder = []types.ChannelRole{
	types.ChannelQueue,
	types.ChannelControl,
	types.ChannelTask,
}

// Provision opens one channel per present address. Each attempt is isolated:
// a failure to open one channel is reported but does not prevent the others
// from being attempted. Callers receive the channels that came up and the
// errors for those that did not.
func Provision(t Transport, ident types.Identity, addrs map[types.ChannelRole]string) (map[types.ChannelRole]*Channel, []error) {
	logger := log.WithComponent("channel")

	channels := make(map[types.ChannelRole]*Channel, len(addrs))
	var errs []error

	for _, role := range provisionOrder {
		addr, ok := addrs[role]
		if !ok || addr == "" {
			metrics.ChannelsProvisioned.WithLabelValues(string(role)).Set(0)
			continue
		}

		ch, err := open(t, ident, role, addr)
		if err != nil {
			errs = append(errs, err)
			metrics.ChannelsProvisioned.WithLabelValues(string(role)).Set(0)
			metrics.ChannelProvisionFailures.WithLabelValues(string(role)).Inc()
			logger.Error().Err(err).
				Str("channel", string(role)).
				Str("addr", addr).
				Msg("channel provisioning failed")
			continue
		}

		channels[role] = ch
		metrics.ChannelsProvisioned.WithLabelValues(string(role)).Set(1)
		logger.Info().
			Str("channel", string(role)).
			Str("addr", addr).
			Msg("channel provisioned")
	}

	return channels, errs
}

// open creates a fresh identity-tagged socket and connects it to addr.
func open(t Transport, ident types.Identity, role types.ChannelRole, addr string) (*Channel, error) {
	sock, err := t.Open(ident)
	if err != nil {
		return nil, fmt.Errorf("open %s channel: %w", role, err)
	}
	if err := sock.Connect(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("connect %s channel to %s: %w", role, addr, err)
	}
	return &Channel{Role: role, Addr: addr, Socket: sock}, nil
}
