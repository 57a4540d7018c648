/*
Package channel provides the channel socket adapter: identity-tagged,
bidirectional, point-to-point connections between a worker and the
controller (or a downstream peer).

Four channel roles exist per worker: registrar, queue, control, and task.
The registrar channel is opened exactly once, before any other channel, and
is reused for unregistration. The others are provisioned on demand from
addresses in the controller's registration response; each is optional.

# Adapter Contract

All operations are non-blocking. Send enqueues a write and returns; inbound
messages are delivered through the OnReceive callback. Every socket is
tagged with the worker's identity before connecting so peer-side routing can
address this specific worker.

The concrete transport is ZeroMQ (go-zeromq/zmq4) DEALER sockets via
ZMQTransport. Tests use the in-memory transport in the channeltest
subpackage.

# Provisioning

Provision is a pure procedure over the response's address fields: it opens
exactly the channels for which an address is present, in a stable order, and
isolates failures — a malformed address fails that one channel and is
reported without aborting the others.
*/
package channel
