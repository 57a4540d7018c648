/*
Package events provides an in-process broker for engine lifecycle events.

The engine publishes a small fixed set of events as the registration state
machine advances: registering, registered, registration_failed, per-channel
provisioned/failed, heartbeat started, kernel started, and unregistered.
Observers (the CLI, tests, embedding processes) subscribe to follow a
worker's progress without coupling to engine internals.

Delivery is best-effort: a subscriber whose buffer is full misses events
rather than blocking the publisher.
*/
package events
