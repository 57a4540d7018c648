/*
Package client provides the thin controller-facing client handed to the
workload engine.

The registration layer constructs the client from the registrar address and
passes it through the kernel handoff; the workload engine owns it from then
on and uses it for downstream requests (job submission, controller queries).
Nothing in this package participates in the registration handshake.
*/
package client
