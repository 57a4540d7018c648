package session

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// delimiter separates routing identity frames from the message payload.
var delimiter = []byte("<IDS|MSG>")

// Message type names used by the registration protocol.
const (
	TypeRegistrationRequest   = "registration_request"
	TypeRegistrationReply     = "registration_reply"
	TypeUnregistrationRequest = "unregistration_request"
	TypeHeartbeatPulse        = "heartbeat_pulse"
)

// Header carries the identity-tagged envelope of every framed message.
type Header struct {
	MsgID    string `json:"msg_id"`
	Username string `json:"username"`
	MsgType  string `json:"msg_type"`
}

// Message is an unpacked wire message: the routing identities that preceded
// the delimiter, the envelope header, and the raw content payload.
type Message struct {
	Identities [][]byte
	Header     Header
	Content    json.RawMessage
}

// DecodeContent unmarshals the message content into v.
func (m *Message) DecodeContent(v interface{}) error {
	if err := json.Unmarshal(m.Content, v); err != nil {
		return fmt.Errorf("decode %s content: %w", m.Header.MsgType, err)
	}
	return nil
}

// Sender transmits framed messages. Channel sockets satisfy it; the engine
// never constructs frames by hand.
type Sender interface {
	Send(frames [][]byte) error
}

// Session packs and unpacks addressed, framed messages. The username starts
// empty and is set to the controller-assigned worker id once registration
// completes.
type Session struct {
	mu       sync.RWMutex
	username string
}

// New creates a session with no username assigned yet.
func New() *Session {
	return &Session{}
}

// Username returns the externally-visible handle of this session.
func (s *Session) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// SetUsername sets the session handle. Called once, with the assigned worker
// id, when a registration completes.
func (s *Session) SetUsername(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
}

// Pack builds the framed representation of a message: the delimiter, the
// JSON-encoded header, and the JSON-encoded content.
func (s *Session) Pack(msgType string, content interface{}) ([][]byte, error) {
	header, err := json.Marshal(Header{
		MsgID:    uuid.New().String(),
		Username: s.Username(),
		MsgType:  msgType,
	})
	if err != nil {
		return nil, fmt.Errorf("pack %s header: %w", msgType, err)
	}

	payload, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("pack %s content: %w", msgType, err)
	}

	return [][]byte{delimiter, header, payload}, nil
}

// Unpack parses payload frames (after identities have been stripped) into a
// Message.
func (s *Session) Unpack(payload [][]byte) (*Message, error) {
	if len(payload) < 2 {
		return nil, fmt.Errorf("%w: got %d payload frames, want 2", ErrTruncated, len(payload))
	}

	msg := &Message{}
	if err := json.Unmarshal(payload[0], &msg.Header); err != nil {
		return nil, fmt.Errorf("unpack header: %w", err)
	}
	msg.Content = json.RawMessage(payload[1])
	return msg, nil
}

// FeedIdentities splits raw frames into the routing identity prefix and the
// message payload that follows the delimiter.
func FeedIdentities(frames [][]byte) (idents [][]byte, payload [][]byte, err error) {
	for i, frame := range frames {
		if bytes.Equal(frame, delimiter) {
			return frames[:i], frames[i+1:], nil
		}
	}
	return nil, nil, ErrNoDelimiter
}

// Send packs a message and transmits it over dst.
func (s *Session) Send(dst Sender, msgType string, content interface{}) error {
	frames, err := s.Pack(msgType, content)
	if err != nil {
		return err
	}
	if err := dst.Send(frames); err != nil {
		return fmt.Errorf("send %s: %w", msgType, err)
	}
	return nil
}

// Receive strips identities and unpacks raw frames in one step.
func (s *Session) Receive(frames [][]byte) (*Message, error) {
	idents, payload, err := FeedIdentities(frames)
	if err != nil {
		return nil, err
	}
	msg, err := s.Unpack(payload)
	if err != nil {
		return nil, err
	}
	msg.Identities = idents
	return msg, nil
}
