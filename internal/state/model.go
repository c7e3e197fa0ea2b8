package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"SketchBoard/internal/shape"
)

// ErrEmptyMessage is returned for payloads that carry neither a shape nor
// an eraseId.
var ErrEmptyMessage = errors.New("message has neither shape nor eraseId")

const (
	TypeJoinRoom = "join_room"
	TypeChat     = "chat"
)

// Message is one replication record: an upsert of a whole shape or a
// tombstone for an id.
type Message struct {
	Shape   *shape.Shape `json:"shape,omitempty"`
	EraseID string       `json:"eraseId,omitempty"`
}

func Upsert(s *shape.Shape) Message { return Message{Shape: s} }

func Erase(id string) Message { return Message{EraseID: id} }

func (m Message) IsErase() bool { return m.Shape == nil && m.EraseID != "" }

// ID is the shape id the message refers to.
func (m Message) ID() string {
	if m.Shape != nil {
		return m.Shape.ID
	}
	return m.EraseID
}

// EncodePayload renders m as the JSON string carried inside a chat envelope.
func EncodePayload(m Message) (string, error) {
	if m.Shape == nil && m.EraseID == "" {
		return "", ErrEmptyMessage
	}
	if m.Shape != nil {
		m.EraseID = ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}
	return string(b), nil
}

// DecodePayload parses a chat payload. Shapes are normalized and must pass
// validation.
func DecodePayload(raw string) (Message, error) {
	if strings.TrimSpace(raw) == "" {
		return Message{}, ErrEmptyMessage
	}

	var wire struct {
		Shape   json.RawMessage `json:"shape"`
		EraseID *string         `json:"eraseId"`
	}
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return Message{}, fmt.Errorf("decode payload: %w", err)
	}

	switch {
	case len(wire.Shape) > 0 && string(wire.Shape) != "null":
		var s shape.Shape
		if err := json.Unmarshal(wire.Shape, &s); err != nil {
			return Message{}, fmt.Errorf("decode shape: %w", err)
		}
		s.Normalize()
		if err := s.Validate(); err != nil {
			return Message{}, err
		}
		return Message{Shape: &s}, nil
	case wire.EraseID != nil && *wire.EraseID != "":
		return Message{EraseID: *wire.EraseID}, nil
	}
	return Message{}, ErrEmptyMessage
}

// Envelope is the frame exchanged with the room server.
type Envelope struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId"`
	Message string `json:"message,omitempty"`
}

func JoinEnvelope(roomID string) Envelope {
	return Envelope{Type: TypeJoinRoom, RoomID: roomID}
}

func ChatEnvelope(roomID, payload string) Envelope {
	return Envelope{Type: TypeChat, RoomID: roomID, Message: payload}
}

// HistoryEntry is one persisted chat message.
type HistoryEntry struct {
	Message string `json:"message"`
}

// History is the body of GET /chats/{roomId}.
type History struct {
	Messages []HistoryEntry `json:"messages"`
}

// Payloads lists the raw payloads in persistence order.
func (h History) Payloads() []string {
	out := make([]string, len(h.Messages))
	for i, m := range h.Messages {
		out[i] = m.Message
	}
	return out
}
