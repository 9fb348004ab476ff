package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/najoast/valuecore/value"
)

// ConnOptions configures a Conn
type ConnOptions struct {
	// Largest accepted message, header included
	MaxMessageSize int

	// Per-message read and write timeouts; zero disables them
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	Logger *zap.Logger
}

// DefaultConnOptions returns the default connection options
func DefaultConnOptions() ConnOptions {
	return ConnOptions{
		MaxMessageSize: DefaultMaxMessageSize,
		ReadTimeout:    30 * time.Second,
		WriteTimeout:   30 * time.Second,
		Logger:         zap.NewNop(),
	}
}

// ConnStatistics holds per-connection counters
type ConnStatistics struct {
	BytesRead    int64
	BytesWritten int64
	MessagesRead int64
	MessagesSent int64
	LastActivity time.Time
}

// Conn exchanges framed messages over a stream connection. Reads and
// writes may run concurrently with each other; concurrent writers are
// serialized.
type Conn struct {
	conn   net.Conn
	codec  *BinaryMessageCodec
	opts   ConnOptions
	logger *zap.Logger

	writeMu sync.Mutex
	readMu  sync.Mutex
	closed  atomic.Bool

	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	messagesRead atomic.Int64
	messagesSent atomic.Int64
	lastActivity atomic.Int64
}

// NewConn wraps conn. Zero fields in opts fall back to DefaultConnOptions.
func NewConn(conn net.Conn, opts ConnOptions) *Conn {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = DefaultMaxMessageSize
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Conn{
		conn:   conn,
		codec:  NewBinaryMessageCodec(opts.MaxMessageSize),
		opts:   opts,
		logger: opts.Logger.Named("network").With(zap.Stringer("remote", conn.RemoteAddr())),
	}
	c.touch()
	return c
}

// WriteMessage encodes msg and writes it to the connection
func (c *Conn) WriteMessage(ctx context.Context, msg *Message) error {
	if c.closed.Load() {
		return ErrConnClosed
	}

	data, err := c.codec.Encode(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	stop, err := c.bindDeadline(ctx, c.opts.WriteTimeout, c.conn.SetWriteDeadline)
	if err != nil {
		return err
	}
	defer stop()

	n, err := c.conn.Write(data)
	c.bytesWritten.Add(int64(n))
	if err != nil {
		return c.ioError(ctx, "write", err)
	}

	c.messagesSent.Add(1)
	c.touch()
	c.logger.Debug("message sent", zap.Stringer("type", msg.Type), zap.Int("size", len(data)))
	return nil
}

// ReadMessage reads the next message from the connection
func (c *Conn) ReadMessage(ctx context.Context) (*Message, error) {
	if c.closed.Load() {
		return nil, ErrConnClosed
	}

	c.readMu.Lock()
	defer c.readMu.Unlock()

	stop, err := c.bindDeadline(ctx, c.opts.ReadTimeout, c.conn.SetReadDeadline)
	if err != nil {
		return nil, err
	}
	defer stop()

	header := make([]byte, MessageHeaderSize)
	n, err := io.ReadFull(c.conn, header)
	c.bytesRead.Add(int64(n))
	if err != nil {
		return nil, c.ioError(ctx, "read header", err)
	}

	msg, dataLen, err := c.codec.DecodeHeader(header)
	if err != nil {
		return nil, fmt.Errorf("failed to decode message header: %w", err)
	}

	if dataLen > 0 {
		msg.Data = make([]byte, dataLen)
		n, err = io.ReadFull(c.conn, msg.Data)
		c.bytesRead.Add(int64(n))
		if err != nil {
			return nil, c.ioError(ctx, "read data", err)
		}
	}

	c.messagesRead.Add(1)
	c.touch()
	c.logger.Debug("message received", zap.Stringer("type", msg.Type), zap.Int("size", msg.Size()))
	return msg, nil
}

// SendValue serializes v and writes it as a value message
func (c *Conn) SendValue(ctx context.Context, msgType MessageType, reg *value.Registry, v value.Value) error {
	msg, err := NewValueMessage(msgType, reg, v)
	if err != nil {
		return err
	}
	return c.WriteMessage(ctx, msg)
}

// ReceiveValue reads the next message and parses its payload as a lazy
// value. Messages that carry no value are returned with ErrNotValueMessage.
func (c *Conn) ReceiveValue(ctx context.Context, reg *value.Registry) (*Message, value.Value, error) {
	msg, err := c.ReadMessage(ctx)
	if err != nil {
		return nil, value.Value{}, err
	}
	v, err := msg.Value(reg)
	if err != nil {
		return msg, value.Value{}, err
	}
	return msg, v, nil
}

// Close closes the underlying connection
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.conn.Close()
}

// Statistics returns a snapshot of the connection counters
func (c *Conn) Statistics() ConnStatistics {
	return ConnStatistics{
		BytesRead:    c.bytesRead.Load(),
		BytesWritten: c.bytesWritten.Load(),
		MessagesRead: c.messagesRead.Load(),
		MessagesSent: c.messagesSent.Load(),
		LastActivity: time.Unix(0, c.lastActivity.Load()),
	}
}

func (c *Conn) touch() {
	c.lastActivity.Store(time.Now().UnixNano())
}

// bindDeadline applies the earlier of the context deadline and timeout, and
// interrupts the pending operation when ctx is cancelled.
func (c *Conn) bindDeadline(ctx context.Context, timeout time.Duration, set func(time.Time) error) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	if d, ok := ctx.Deadline(); ok && (deadline.IsZero() || d.Before(deadline)) {
		deadline = d
	}
	if err := set(deadline); err != nil {
		return nil, fmt.Errorf("failed to set deadline: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = set(time.Now())
	})
	return func() { stop() }, nil
}

func (c *Conn) ioError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("failed to %s: %w", op, ctxErr)
	}
	if errors.Is(err, net.ErrClosed) || c.closed.Load() {
		return fmt.Errorf("failed to %s: %w", op, ErrConnClosed)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
