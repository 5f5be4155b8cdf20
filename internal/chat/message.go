package chat

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole converts a raw role string into a Role, rejecting anything outside
// the known set.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleUser, RoleAssistant, RoleSystem:
		return r, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrMalformedHistory, s)
	}
}

func (r Role) String() string { return string(r) }

// Message is one turn of a conversation. The zero value is not useful; build
// messages with NewMessage.
type Message struct {
	role    Role
	content string
}

// NewMessage creates a message.
func NewMessage(role Role, content string) Message {
	return Message{role: role, content: content}
}

func (m Message) Role() Role { return m.role }

func (m Message) Content() string { return m.content }

// record is the storage and transport shape of a message.
type record struct {
	Role    *string `json:"role"`
	Content *string `json:"content"`
}

// MarshalJSON renders the message as {"role": ..., "content": ...}.
func (m Message) MarshalJSON() ([]byte, error) {
	role, content := string(m.role), m.content
	return json.Marshal(record{Role: &role, Content: &content})
}

// UnmarshalJSON accepts exactly a two field role/content object.
func (m *Message) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedHistory, err)
	}
	if rec.Role == nil || rec.Content == nil {
		return fmt.Errorf("%w: message needs both role and content", ErrMalformedHistory)
	}
	role, err := ParseRole(*rec.Role)
	if err != nil {
		return err
	}
	*m = NewMessage(role, *rec.Content)
	return nil
}
