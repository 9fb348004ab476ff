// Package network frames messages for transport between nodes. A message
// is a fixed 32 byte header followed by an opaque payload; value messages
// carry a serialized value.Value as that payload.
package network

import (
	"encoding/binary"
	"fmt"
	"time"
)

// MessageType defines the type of network message
type MessageType uint32

const (
	// System message types (0-99)
	MessageTypeHeartbeat MessageType = 1
	MessageTypeAck       MessageType = 2
	MessageTypeError     MessageType = 3
	MessageTypeClose     MessageType = 4

	// User message types (100+)
	MessageTypeUserStart MessageType = 100
	MessageTypeRequest   MessageType = 101
	MessageTypeResponse  MessageType = 102
	MessageTypeEvent     MessageType = 103
)

// String returns the string representation of MessageType
func (mt MessageType) String() string {
	switch mt {
	case MessageTypeHeartbeat:
		return "heartbeat"
	case MessageTypeAck:
		return "ack"
	case MessageTypeError:
		return "error"
	case MessageTypeClose:
		return "close"
	case MessageTypeRequest:
		return "request"
	case MessageTypeResponse:
		return "response"
	case MessageTypeEvent:
		return "event"
	default:
		return fmt.Sprintf("unknown(%d)", mt)
	}
}

// MessageFlag defines message flags
type MessageFlag uint32

const (
	MessageFlagNone     MessageFlag = 0
	MessageFlagValue    MessageFlag = 1 << 0 // Data holds a serialized value
	MessageFlagPriority MessageFlag = 1 << 1
	MessageFlagReliable MessageFlag = 1 << 2
)

// Message is a framed network message
type Message struct {
	Type      MessageType
	Flags     MessageFlag
	Sequence  uint32
	SessionID uint64
	Timestamp time.Time

	// Payload
	Data []byte
}

// NewMessage creates a new message with the specified type and data
func NewMessage(msgType MessageType, data []byte) *Message {
	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// NewHeartbeatMessage creates a heartbeat message
func NewHeartbeatMessage() *Message {
	return NewMessage(MessageTypeHeartbeat, nil)
}

// NewAckMessage creates an acknowledgment message
func NewAckMessage(sequence uint32) *Message {
	msg := NewMessage(MessageTypeAck, nil)
	msg.Sequence = sequence
	return msg
}

// NewErrorMessage creates an error message
func NewErrorMessage(errorMsg string) *Message {
	return NewMessage(MessageTypeError, []byte(errorMsg))
}

// SetFlag sets a message flag
func (m *Message) SetFlag(flag MessageFlag) {
	m.Flags |= flag
}

// ClearFlag clears a message flag
func (m *Message) ClearFlag(flag MessageFlag) {
	m.Flags &^= flag
}

// HasFlag checks if a message flag is set
func (m *Message) HasFlag(flag MessageFlag) bool {
	return m.Flags&flag != 0
}

// Size returns the total size of the message in bytes
func (m *Message) Size() int {
	return MessageHeaderSize + len(m.Data)
}

// Clone creates a deep copy of the message
func (m *Message) Clone() *Message {
	clone := *m
	if m.Data != nil {
		clone.Data = make([]byte, len(m.Data))
		copy(clone.Data, m.Data)
	}
	return &clone
}

const (
	// MessageHeaderSize is the fixed size of the message header in bytes
	MessageHeaderSize = 32

	// DefaultMaxMessageSize bounds messages when no limit is configured
	DefaultMaxMessageSize = 64 * 1024 * 1024
)

// MessageCodec handles message encoding and decoding
type MessageCodec interface {
	// Encode encodes a message to bytes
	Encode(msg *Message) ([]byte, error)

	// Decode decodes bytes to a message
	Decode(data []byte) (*Message, error)

	// DecodeHeader decodes the header and returns the payload length that
	// follows it
	DecodeHeader(data []byte) (*Message, int, error)
}

// BinaryMessageCodec encodes messages with a big-endian header:
//
//	type(4) flags(4) sequence(4) session(8) unix seconds(8) data length(4)
type BinaryMessageCodec struct {
	maxMessageSize int
}

// NewBinaryMessageCodec creates a codec rejecting messages larger than
// maxMessageSize, header included. A non-positive limit selects
// DefaultMaxMessageSize; a limit below MessageHeaderSize is raised to it.
func NewBinaryMessageCodec(maxMessageSize int) *BinaryMessageCodec {
	if maxMessageSize <= 0 {
		maxMessageSize = DefaultMaxMessageSize
	}
	if maxMessageSize < MessageHeaderSize {
		maxMessageSize = MessageHeaderSize
	}
	return &BinaryMessageCodec{maxMessageSize: maxMessageSize}
}

// MaxDataSize returns the largest payload the codec accepts
func (c *BinaryMessageCodec) MaxDataSize() int {
	return c.maxMessageSize - MessageHeaderSize
}

// Encode encodes a message to binary format
func (c *BinaryMessageCodec) Encode(msg *Message) ([]byte, error) {
	if msg == nil {
		return nil, ErrNilMessage
	}

	dataLen := len(msg.Data)
	if dataLen > c.MaxDataSize() {
		return nil, fmt.Errorf("%w: %d data bytes (max %d)", ErrMessageTooLarge, dataLen, c.MaxDataSize())
	}

	buf := make([]byte, MessageHeaderSize+dataLen)
	binary.BigEndian.PutUint32(buf[0:4], uint32(msg.Type))
	binary.BigEndian.PutUint32(buf[4:8], uint32(msg.Flags))
	binary.BigEndian.PutUint32(buf[8:12], msg.Sequence)
	binary.BigEndian.PutUint64(buf[12:20], msg.SessionID)
	binary.BigEndian.PutUint64(buf[20:28], uint64(msg.Timestamp.Unix()))
	binary.BigEndian.PutUint32(buf[28:32], uint32(dataLen))
	copy(buf[MessageHeaderSize:], msg.Data)

	return buf, nil
}

// Decode decodes binary data to a message. The payload is copied, so data
// may be reused afterwards.
func (c *BinaryMessageCodec) Decode(data []byte) (*Message, error) {
	msg, dataLen, err := c.DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	if len(data) < MessageHeaderSize+dataLen {
		return nil, fmt.Errorf("%w: expected %d bytes, got %d",
			ErrShortMessage, MessageHeaderSize+dataLen, len(data))
	}

	if dataLen > 0 {
		msg.Data = make([]byte, dataLen)
		copy(msg.Data, data[MessageHeaderSize:])
	}

	return msg, nil
}

// DecodeHeader decodes only the message header
func (c *BinaryMessageCodec) DecodeHeader(data []byte) (*Message, int, error) {
	if len(data) < MessageHeaderSize {
		return nil, 0, fmt.Errorf("%w: %d header bytes", ErrShortMessage, len(data))
	}

	msg := &Message{
		Type:      MessageType(binary.BigEndian.Uint32(data[0:4])),
		Flags:     MessageFlag(binary.BigEndian.Uint32(data[4:8])),
		Sequence:  binary.BigEndian.Uint32(data[8:12]),
		SessionID: binary.BigEndian.Uint64(data[12:20]),
		Timestamp: time.Unix(int64(binary.BigEndian.Uint64(data[20:28])), 0),
	}

	dataLen := binary.BigEndian.Uint32(data[28:32])
	if uint64(dataLen) > uint64(c.MaxDataSize()) {
		return nil, 0, fmt.Errorf("%w: %d data bytes (max %d)", ErrMessageTooLarge, dataLen, c.MaxDataSize())
	}

	return msg, int(dataLen), nil
}
