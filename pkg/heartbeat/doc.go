/*
Package heartbeat implements the worker-side liveness monitor.

The monitor runs on an independent periodic timer and owns its own sockets,
so request/response traffic on the queue, control, and task channels can
never delay a liveness signal. Each tick sends a pulse on the controller's
pulse endpoint; when the controller supplies a ping endpoint as well, pings
are echoed back immediately to prove two-way liveness.

The worker never interprets missed pulses — timeout-based failure
declaration lives on the controller side. The monitor's contract here is
narrower: it never silently stops without an explicit Stop call, and a
transient send failure is retried on the next tick instead of crashing
anything.
*/
package heartbeat
