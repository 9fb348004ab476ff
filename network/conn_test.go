package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/najoast/valuecore/value"
)

func newConnPair(t *testing.T, opts ConnOptions) (*Conn, *Conn) {
	t.Helper()
	a, b := net.Pipe()
	ca, cb := NewConn(a, opts), NewConn(b, opts)
	t.Cleanup(func() {
		ca.Close()
		cb.Close()
	})
	return ca, cb
}

func TestConnValueExchange(t *testing.T) {
	r := newRegistry(t)
	client, server := newConnPair(t, DefaultConnOptions())
	ctx := context.Background()

	errc := make(chan error, 1)
	go func() {
		errc <- client.SendValue(ctx, MessageTypeRequest, r, value.FromStruct(telemetry{Node: "n2", Ticks: 3}))
	}()

	msg, v, err := server.ReceiveValue(ctx, r)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.Equal(t, MessageTypeRequest, msg.Type)

	// forward the still-lazy value back
	go func() {
		errc <- server.SendValue(ctx, MessageTypeResponse, r, v)
	}()
	_, back, err := client.ReceiveValue(ctx, r)
	require.NoError(t, err)
	require.NoError(t, <-errc)
	assert.True(t, v.IsLazy())

	got, err := value.AsStruct[telemetry](&back)
	require.NoError(t, err)
	assert.Equal(t, "n2", got.Node)
	assert.Equal(t, uint32(3), got.Ticks)

	stats := server.Statistics()
	assert.Equal(t, int64(1), stats.MessagesRead)
	assert.Equal(t, int64(1), stats.MessagesSent)
	assert.Equal(t, client.Statistics().BytesWritten, stats.BytesRead)
}

func TestConnReceiveNonValue(t *testing.T) {
	r := newRegistry(t)
	client, server := newConnPair(t, DefaultConnOptions())
	ctx := context.Background()

	go func() { _ = client.WriteMessage(ctx, NewHeartbeatMessage()) }()

	msg, _, err := server.ReceiveValue(ctx, r)
	assert.ErrorIs(t, err, ErrNotValueMessage)
	require.NotNil(t, msg)
	assert.Equal(t, MessageTypeHeartbeat, msg.Type)
}

func TestConnSizeLimit(t *testing.T) {
	opts := DefaultConnOptions()
	opts.MaxMessageSize = MessageHeaderSize + 8
	client, _ := newConnPair(t, opts)

	err := client.WriteMessage(context.Background(), NewMessage(MessageTypeEvent, make([]byte, 9)))
	assert.ErrorIs(t, err, ErrMessageTooLarge)
}

func TestConnCancellation(t *testing.T) {
	opts := DefaultConnOptions()
	opts.ReadTimeout = 0
	_, server := newConnPair(t, opts)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	_, err := server.ReadMessage(ctx)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = server.ReadMessage(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConnReadTimeout(t *testing.T) {
	opts := DefaultConnOptions()
	opts.ReadTimeout = 20 * time.Millisecond
	_, server := newConnPair(t, opts)

	_, err := server.ReadMessage(context.Background())
	require.Error(t, err)
	var netErr net.Error
	require.ErrorAs(t, err, &netErr)
	assert.True(t, netErr.Timeout())
}

func TestConnClosed(t *testing.T) {
	client, _ := newConnPair(t, DefaultConnOptions())
	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	err := client.WriteMessage(context.Background(), NewHeartbeatMessage())
	assert.ErrorIs(t, err, ErrConnClosed)

	_, err = client.ReadMessage(context.Background())
	assert.ErrorIs(t, err, ErrConnClosed)
}
