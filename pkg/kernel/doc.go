/*
Package kernel defines the boundary between the registration layer and the
workload-execution engine.

The registration layer's job ends at handoff: once all channels exist it
hands the workload engine the session, the provisioned channel sockets
(each optional), and the controller client, and from then on the workload
engine is the sole owner of traffic on those channels. This package contains
only that boundary — the Handoff value, the Kernel interface, and an idle
reference kernel — not a scheduling algorithm.
*/
package kernel
