package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIdentityIsUnique(t *testing.T) {
	a := NewIdentity()
	b := NewIdentity()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNewRegistrationRequest(t *testing.T) {
	req := NewRegistrationRequest("worker-abc")
	assert.Equal(t, "worker-abc", req.Queue)
	assert.Equal(t, "worker-abc", req.Heartbeat)
	assert.Equal(t, "worker-abc", req.Control)
}

func TestWorkerIDUnmarshal(t *testing.T) {
	// Controllers encode the id either as a JSON number or a string.
	var fromNumber RegistrationResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ok","id":7}`), &fromNumber))
	assert.Equal(t, WorkerID("7"), fromNumber.ID)

	var fromString RegistrationResponse
	require.NoError(t, json.Unmarshal([]byte(`{"status":"ok","id":"7"}`), &fromString))
	assert.Equal(t, WorkerID("7"), fromString.ID)

	var bad RegistrationResponse
	assert.Error(t, json.Unmarshal([]byte(`{"status":"ok","id":[7]}`), &bad))
}

func TestWorkerIDInt(t *testing.T) {
	n, err := WorkerID("42").Int()
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = WorkerID("e4a9c2").Int()
	assert.Error(t, err)
}

func TestRegistrationResponseOK(t *testing.T) {
	ok := RegistrationResponse{Status: StatusOK}
	assert.True(t, ok.OK())

	rejected := RegistrationResponse{Status: "error", Reason: "duplicate-id"}
	assert.False(t, rejected.OK())
}

func TestChannelAddrsOmitsAbsent(t *testing.T) {
	resp := RegistrationResponse{
		Status: StatusOK,
		ID:     "1",
		Queue:  "tcp://controller:10102",
		Task:   "tcp://controller:10104",
	}

	addrs := resp.ChannelAddrs()
	assert.Equal(t, map[ChannelRole]string{
		ChannelQueue: "tcp://controller:10102",
		ChannelTask:  "tcp://controller:10104",
	}, addrs)
}

func TestUnregistrationRequestWireFormat(t *testing.T) {
	data, err := json.Marshal(UnregistrationRequest{ID: 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":7}`, string(data))
}
