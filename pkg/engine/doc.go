/*
Package engine implements the worker-side registration state machine.

A worker joins the cluster through an asynchronous, multi-socket handshake
with the controller:

	INIT → REGISTERING → PROVISIONING → RUNNING
	          ↓                            ↓
	        FAILED            UNREGISTERING → TERMINATED

Start opens the registrar channel — the only channel that may exist before
the controller accepts the worker — and sends a registration_request naming
the identities this worker will use for its queue, heartbeat, and control
channels (all equal to its own identity by convention). The call returns
immediately; the handshake completes on the engine's own goroutine when the
response arrives or the bounded timeout expires.

On a status "ok" response the engine adopts the assigned worker id as the
session username, provisions a channel for each address present in the
response (queue, control, task — each optional, each failure isolated),
starts the heartbeat monitor from the response's heartbeat addresses, and
hands the session, channels, and controller client to the workload engine.
Any non-"ok" status, unparseable response, or timeout is fatal: the engine
reports a typed RegistrationError, closes the registrar socket, and retains
no partial state. Restart is an operator concern, not a retry loop here.

Unregistration is deliberately asymmetric to startup: one fire-and-forget
notice with the assigned numeric id, a fixed grace period for the message to
flush, then teardown. Waiting for an acknowledgment could hang forever
against an unreachable controller; its liveness timeout is the backstop.

# Ownership

Each channel socket is exclusively owned by the engine until handoff; after
RUNNING the workload engine is the sole owner of queue/control/task traffic.
The registrar channel stays with the engine for the life of the process and
is reused for unregistration.
*/
package engine
