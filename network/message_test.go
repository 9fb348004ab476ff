package network

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/valuecore/value"
)

type telemetry struct {
	Node  string
	Load  float64
	Ticks uint32
}

func newRegistry(t *testing.T) *value.Registry {
	t.Helper()
	r := value.NewRegistryWithDefaults(value.DefaultRegistryOptions())
	require.NoError(t, value.Register[telemetry](r))
	r.Seal()
	return r
}

func TestMessage(t *testing.T) {
	t.Run("NewMessage", func(t *testing.T) {
		msg := NewMessage(MessageTypeEvent, []byte("test data"))
		assert.Equal(t, MessageTypeEvent, msg.Type)
		assert.Equal(t, "test data", string(msg.Data))
		assert.Equal(t, MessageFlagNone, msg.Flags)
		assert.Equal(t, MessageHeaderSize+9, msg.Size())
	})

	t.Run("SpecialMessages", func(t *testing.T) {
		assert.Equal(t, MessageTypeHeartbeat, NewHeartbeatMessage().Type)
		assert.Empty(t, NewHeartbeatMessage().Data)

		ack := NewAckMessage(123)
		assert.Equal(t, MessageTypeAck, ack.Type)
		assert.Equal(t, uint32(123), ack.Sequence)

		errMsg := NewErrorMessage("test error")
		assert.Equal(t, MessageTypeError, errMsg.Type)
		assert.Equal(t, "test error", string(errMsg.Data))
	})

	t.Run("MessageFlags", func(t *testing.T) {
		msg := NewMessage(MessageTypeEvent, nil)
		msg.SetFlag(MessageFlagValue)
		msg.SetFlag(MessageFlagPriority)
		assert.True(t, msg.HasFlag(MessageFlagValue))

		msg.ClearFlag(MessageFlagValue)
		assert.False(t, msg.HasFlag(MessageFlagValue))
		assert.True(t, msg.HasFlag(MessageFlagPriority))
	})

	t.Run("MessageClone", func(t *testing.T) {
		original := NewMessage(MessageTypeRequest, []byte("original data"))
		original.Sequence = 42
		original.SessionID = 123

		clone := original.Clone()
		assert.Equal(t, original, clone)

		clone.Data[0] = 'X'
		assert.Equal(t, byte('o'), original.Data[0])
	})

	t.Run("TypeString", func(t *testing.T) {
		assert.Equal(t, "request", MessageTypeRequest.String())
		assert.Equal(t, "unknown(7)", MessageType(7).String())
	})
}

func TestBinaryMessageCodec(t *testing.T) {
	codec := NewBinaryMessageCodec(0)

	t.Run("EncodeDecodeEmpty", func(t *testing.T) {
		data, err := codec.Encode(NewHeartbeatMessage())
		require.NoError(t, err)
		assert.Len(t, data, MessageHeaderSize)

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, MessageTypeHeartbeat, decoded.Type)
		assert.Empty(t, decoded.Data)
	})

	t.Run("EncodeDecodeWithData", func(t *testing.T) {
		original := NewMessage(MessageTypeEvent, []byte("hello"))
		original.Sequence = 42
		original.SessionID = 123456
		original.SetFlag(MessageFlagValue | MessageFlagReliable)

		data, err := codec.Encode(original)
		require.NoError(t, err)
		assert.Len(t, data, MessageHeaderSize+5)
		assert.Equal(t, uint32(MessageTypeEvent), binary.BigEndian.Uint32(data[0:4]))
		assert.Equal(t, uint32(5), binary.BigEndian.Uint32(data[28:32]))

		decoded, err := codec.Decode(data)
		require.NoError(t, err)
		assert.Equal(t, original.Type, decoded.Type)
		assert.Equal(t, original.Flags, decoded.Flags)
		assert.Equal(t, original.Sequence, decoded.Sequence)
		assert.Equal(t, original.SessionID, decoded.SessionID)
		assert.Equal(t, original.Timestamp.Unix(), decoded.Timestamp.Unix())
		assert.Equal(t, "hello", string(decoded.Data))

		// decoded data does not alias the input
		data[MessageHeaderSize] = 'X'
		assert.Equal(t, "hello", string(decoded.Data))
	})

	t.Run("DecodeHeader", func(t *testing.T) {
		data, err := codec.Encode(NewMessage(MessageTypeRequest, []byte("abc")))
		require.NoError(t, err)

		msg, n, err := codec.DecodeHeader(data[:MessageHeaderSize])
		require.NoError(t, err)
		assert.Equal(t, MessageTypeRequest, msg.Type)
		assert.Equal(t, 3, n)
		assert.Nil(t, msg.Data)
	})

	t.Run("Errors", func(t *testing.T) {
		_, err := codec.Encode(nil)
		assert.ErrorIs(t, err, ErrNilMessage)

		_, err = codec.Decode(make([]byte, MessageHeaderSize-1))
		assert.ErrorIs(t, err, ErrShortMessage)

		data, err := codec.Encode(NewMessage(MessageTypeEvent, []byte("abc")))
		require.NoError(t, err)
		_, err = codec.Decode(data[:len(data)-1])
		assert.ErrorIs(t, err, ErrShortMessage)
	})

	t.Run("SizeLimit", func(t *testing.T) {
		small := NewBinaryMessageCodec(MessageHeaderSize + 4)
		assert.Equal(t, 4, small.MaxDataSize())

		_, err := small.Encode(NewMessage(MessageTypeEvent, make([]byte, 5)))
		assert.ErrorIs(t, err, ErrMessageTooLarge)

		data, err := codec.Encode(NewMessage(MessageTypeEvent, make([]byte, 5)))
		require.NoError(t, err)
		_, err = small.Decode(data)
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})

	t.Run("LimitBelowHeader", func(t *testing.T) {
		tiny := NewBinaryMessageCodec(16)
		assert.Equal(t, 0, tiny.MaxDataSize())

		data, err := tiny.Encode(NewMessage(MessageTypeEvent, nil))
		require.NoError(t, err)
		assert.Len(t, data, MessageHeaderSize)

		binary.BigEndian.PutUint32(data[28:32], 0xFFFFFFFF)
		_, _, err = tiny.DecodeHeader(data)
		assert.ErrorIs(t, err, ErrMessageTooLarge)
	})
}

func TestValueMessage(t *testing.T) {
	r := newRegistry(t)
	codec := NewBinaryMessageCodec(0)

	t.Run("RoundTrip", func(t *testing.T) {
		msg, err := NewValueMessage(MessageTypeEvent, r, value.FromStruct(telemetry{Node: "n1", Load: 0.5, Ticks: 9}))
		require.NoError(t, err)
		assert.True(t, msg.HasFlag(MessageFlagValue))
		assert.Equal(t, byte(value.CategoryStruct), msg.Data[0])

		data, err := codec.Encode(msg)
		require.NoError(t, err)
		decoded, err := codec.Decode(data)
		require.NoError(t, err)

		v, err := decoded.Value(r)
		require.NoError(t, err)
		assert.True(t, v.IsLazy())

		got, err := value.AsStruct[telemetry](&v)
		require.NoError(t, err)
		assert.Equal(t, telemetry{Node: "n1", Load: 0.5, Ticks: 9}, *got)
	})

	t.Run("ForwardWithoutDecoding", func(t *testing.T) {
		in, err := NewValueMessage(MessageTypeRequest, r, value.FromMap(map[string]int64{"a": 1}))
		require.NoError(t, err)

		v, err := in.Value(r)
		require.NoError(t, err)

		out, err := NewValueMessage(MessageTypeResponse, r, v)
		require.NoError(t, err)
		assert.Equal(t, in.Data, out.Data)
		assert.True(t, v.IsLazy())
	})

	t.Run("Null", func(t *testing.T) {
		msg, err := NewValueMessage(MessageTypeEvent, r, value.Null())
		require.NoError(t, err)
		assert.Equal(t, []byte{0x05}, msg.Data)

		v, err := msg.Value(r)
		require.NoError(t, err)
		assert.True(t, v.IsNull())
	})

	t.Run("NotAValue", func(t *testing.T) {
		_, err := NewMessage(MessageTypeEvent, []byte{0x05}).Value(r)
		assert.ErrorIs(t, err, ErrNotValueMessage)
	})

	t.Run("Malformed", func(t *testing.T) {
		msg := NewMessage(MessageTypeEvent, []byte{0x09})
		msg.SetFlag(MessageFlagValue)
		_, err := msg.Value(r)
		assert.ErrorIs(t, err, value.ErrInvalidCategory)
	})

	t.Run("UnregisteredType", func(t *testing.T) {
		type unknown struct{ A int }
		_, err := NewValueMessage(MessageTypeEvent, r, value.FromStruct(unknown{A: 1}))
		assert.ErrorIs(t, err, value.ErrUnknownType)
	})

	t.Run("Timestamp", func(t *testing.T) {
		msg, err := NewValueMessage(MessageTypeEvent, r, value.FromScalar(true))
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), msg.Timestamp, time.Second)
	})
}
