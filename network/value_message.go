package network

import (
	"fmt"

	"github.com/najoast/valuecore/value"
)

// NewValueMessage serializes v with reg and wraps it in a message flagged
// as carrying a value. Lazy values are forwarded without being decoded.
func NewValueMessage(msgType MessageType, reg *value.Registry, v value.Value) (*Message, error) {
	data, err := reg.SerializeValue(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s message: %w", msgType, err)
	}

	msg := NewMessage(msgType, data)
	msg.SetFlag(MessageFlagValue)
	return msg, nil
}

// Value parses the message payload into a lazy value. The value references
// m.Data, which must not be modified while the value is in use.
func (m *Message) Value(reg *value.Registry) (value.Value, error) {
	if !m.HasFlag(MessageFlagValue) {
		return value.Value{}, fmt.Errorf("%w: %s", ErrNotValueMessage, m.Type)
	}

	v, err := reg.DeserializeValue(m.Data)
	if err != nil {
		return value.Value{}, fmt.Errorf("failed to parse %s message: %w", m.Type, err)
	}
	return v, nil
}
