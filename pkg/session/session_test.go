package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/tether/pkg/types"
)

func TestPackReceiveRoundTrip(t *testing.T) {
	sender := New()
	sender.SetUsername("7")

	frames, err := sender.Pack(TypeRegistrationRequest, types.NewRegistrationRequest("worker-abc"))
	require.NoError(t, err)
	require.Len(t, frames, 3, "delimiter + header + content")
	assert.Equal(t, "<IDS|MSG>", string(frames[0]))

	msg, err := New().Receive(frames)
	require.NoError(t, err)
	assert.Empty(t, msg.Identities)
	assert.Equal(t, TypeRegistrationRequest, msg.Header.MsgType)
	assert.Equal(t, "7", msg.Header.Username)
	assert.NotEmpty(t, msg.Header.MsgID)

	var req types.RegistrationRequest
	require.NoError(t, msg.DecodeContent(&req))
	assert.Equal(t, "worker-abc", req.Queue)
	assert.Equal(t, "worker-abc", req.Heartbeat)
	assert.Equal(t, "worker-abc", req.Control)
}

func TestReceiveStripsIdentityPrefix(t *testing.T) {
	frames, err := New().Pack(TypeRegistrationReply, map[string]string{"status": "ok"})
	require.NoError(t, err)

	// A router prepends the sender identity before delivery.
	routed := append([][]byte{[]byte("worker-abc")}, frames...)

	msg, err := New().Receive(routed)
	require.NoError(t, err)
	require.Len(t, msg.Identities, 1)
	assert.Equal(t, "worker-abc", string(msg.Identities[0]))
	assert.Equal(t, TypeRegistrationReply, msg.Header.MsgType)
}

func TestFeedIdentities(t *testing.T) {
	tests := []struct {
		name       string
		frames     [][]byte
		wantIdents int
		wantErr    error
	}{
		{
			name:       "no identities",
			frames:     [][]byte{[]byte("<IDS|MSG>"), []byte("{}"), []byte("{}")},
			wantIdents: 0,
		},
		{
			name:       "two identities",
			frames:     [][]byte{[]byte("a"), []byte("b"), []byte("<IDS|MSG>"), []byte("{}"), []byte("{}")},
			wantIdents: 2,
		},
		{
			name:    "missing delimiter",
			frames:  [][]byte{[]byte("{}"), []byte("{}")},
			wantErr: ErrNoDelimiter,
		},
		{
			name:    "empty",
			frames:  nil,
			wantErr: ErrNoDelimiter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idents, payload, err := FeedIdentities(tt.frames)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, idents, tt.wantIdents)
			assert.Len(t, payload, 2)
		})
	}
}

func TestUnpackTruncated(t *testing.T) {
	_, err := New().Unpack([][]byte{[]byte("{}")})
	assert.ErrorIs(t, err, ErrTruncated)
}

func TestUnpackBadHeader(t *testing.T) {
	_, err := New().Unpack([][]byte{[]byte("not json"), []byte("{}")})
	assert.Error(t, err)
	assert.False(t, errors.Is(err, ErrTruncated))
}

func TestSendUsesSessionUsername(t *testing.T) {
	var captured [][]byte
	dst := senderFunc(func(frames [][]byte) error {
		captured = frames
		return nil
	})

	s := New()
	s.SetUsername("12")
	require.NoError(t, s.Send(dst, TypeUnregistrationRequest, types.UnregistrationRequest{ID: 12}))

	msg, err := s.Receive(captured)
	require.NoError(t, err)
	assert.Equal(t, "12", msg.Header.Username)
	assert.Equal(t, TypeUnregistrationRequest, msg.Header.MsgType)
}

func TestSendPropagatesTransportError(t *testing.T) {
	wantErr := errors.New("socket closed")
	dst := senderFunc(func([][]byte) error { return wantErr })

	err := New().Send(dst, TypeHeartbeatPulse, nil)
	assert.ErrorIs(t, err, wantErr)
}

type senderFunc func(frames [][]byte) error

func (f senderFunc) Send(frames [][]byte) error { return f(frames) }
