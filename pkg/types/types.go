package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Identity is the opaque, globally-unique token that tags every socket a
// worker owns. It disambiguates the worker to the controller and to message
// routing, and is immutable for the worker's lifetime.
type Identity string

// NewIdentity generates a fresh random identity for a worker that was not
// given one at construction time.
func NewIdentity() Identity {
	return Identity(uuid.New().String())
}

// Bytes returns the identity in the form socket options expect.
func (i Identity) Bytes() []byte {
	return []byte(i)
}

func (i Identity) String() string {
	return string(i)
}

// ChannelRole identifies the category of traffic a channel carries
type ChannelRole string

const (
	ChannelRegistrar ChannelRole = "registrar"
	ChannelQueue     ChannelRole = "queue"
	ChannelControl   ChannelRole = "control"
	ChannelTask      ChannelRole = "task"
)

// EngineState represents the current state of the registration state machine
type EngineState string

const (
	EngineStateInit          EngineState = "init"
	EngineStateRegistering   EngineState = "registering"
	EngineStateProvisioning  EngineState = "provisioning"
	EngineStateRunning       EngineState = "running"
	EngineStateFailed        EngineState = "failed"
	EngineStateUnregistering EngineState = "unregistering"
	EngineStateTerminated    EngineState = "terminated"
)

// RegistrationRequest is the wire content of a registration_request message.
// Each field names the identity the worker proposes to use for that channel;
// by convention all three equal the worker's own identity.
type RegistrationRequest struct {
	Queue     string `json:"queue"`
	Heartbeat string `json:"heartbeat"`
	Control   string `json:"control"`
}

// NewRegistrationRequest builds the request a worker sends once, at the start
// of registration.
func NewRegistrationRequest(ident Identity) RegistrationRequest {
	return RegistrationRequest{
		Queue:     ident.String(),
		Heartbeat: ident.String(),
		Control:   ident.String(),
	}
}

// StatusOK is the only registration status the engine accepts. Any other
// status is fatal.
const StatusOK = "ok"

// WorkerID is the controller-assigned worker id. Controllers encode it as a
// JSON number or a string depending on version, so both are accepted.
type WorkerID string

func (w *WorkerID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*w = WorkerID(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("worker id must be a string or integer: %w", err)
	}
	*w = WorkerID(strconv.FormatInt(n, 10))
	return nil
}

// Int returns the id as the integer the unregistration wire format requires.
func (w WorkerID) Int() (int, error) {
	n, err := strconv.Atoi(string(w))
	if err != nil {
		return 0, fmt.Errorf("worker id %q is not numeric: %w", string(w), err)
	}
	return n, nil
}

func (w WorkerID) String() string {
	return string(w)
}

// RegistrationResponse is the controller's reply to a registration request.
// Status "ok" guarantees at least ID is present; every channel address is
// optional, and a worker operates correctly with any subset of
// {queue, control, task} absent.
type RegistrationResponse struct {
	Status    string   `json:"status"`
	ID        WorkerID `json:"id"`
	Queue     string   `json:"queue,omitempty"`
	Control   string   `json:"control,omitempty"`
	Task      string   `json:"task,omitempty"`
	Heartbeat []string `json:"heartbeat,omitempty"`

	// Reason is set by controllers on rejection (e.g. "duplicate-id").
	Reason string `json:"reason,omitempty"`
}

// OK reports whether the controller accepted the registration.
func (r *RegistrationResponse) OK() bool {
	return r.Status == StatusOK
}

// ChannelAddrs returns the per-role addresses present in the response.
// Absent or empty addresses are omitted; the corresponding channel is simply
// never provisioned.
func (r *RegistrationResponse) ChannelAddrs() map[ChannelRole]string {
	addrs := make(map[ChannelRole]string, 3)
	if r.Queue != "" {
		addrs[ChannelQueue] = r.Queue
	}
	if r.Control != "" {
		addrs[ChannelControl] = r.Control
	}
	if r.Task != "" {
		addrs[ChannelTask] = r.Task
	}
	return addrs
}

// UnregistrationRequest is the wire content of an unregistration_request
// message. No reply is expected.
type UnregistrationRequest struct {
	ID int `json:"id"`
}

// HeartbeatConfig is the immutable configuration handed to the heartbeat
// monitor at start. The monitor owns its own timer and sockets independently
// of the engine's channels.
type HeartbeatConfig struct {
	// Addresses holds the controller-provided heartbeat endpoints. With two
	// addresses the first is the channel pings arrive on and the second the
	// channel pulses are sent on; with one address it is used for pulses
	// only.
	Addresses []string
	Identity  Identity
	Interval  time.Duration
}
