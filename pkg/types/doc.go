/*
Package types defines the core data structures used throughout Tether.

This package contains the fundamental types of the worker registration
protocol: the worker identity, the registration request and response wire
contents, channel roles, the engine state machine states, and the heartbeat
monitor configuration. These types are used by all other packages and carry
no behavior beyond parsing and simple derivation.

# Core Types

Identity:
  - Opaque, globally-unique token assigned at worker construction
  - Tags every socket the worker owns for peer-side routing
  - Immutable for the worker's lifetime

Registration:
  - RegistrationRequest: the channel identities the worker proposes
  - RegistrationResponse: controller reply; status "ok" plus optional
    per-channel addresses and heartbeat endpoints
  - UnregistrationRequest: the assigned numeric id, fire-and-forget

State Machine:

	INIT → REGISTERING → PROVISIONING → RUNNING
	          ↓                            ↓
	        FAILED            UNREGISTERING → TERMINATED

Channel Roles:
  - registrar: the handshake channel, opened exactly once, reused for
    unregistration
  - queue, control, task: provisioned from response addresses; each is
    optional and independently provisioned

# Design Notes

Enumerations use typed string constants. Optional response fields use empty
values rather than pointers: an empty address means the channel is never
provisioned, which downstream code must treat as a missing capability rather
than an error.

WorkerID tolerates both string and integer JSON encodings because controller
versions disagree; the unregistration wire format always sends an integer.
*/
package types
