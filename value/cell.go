package value

import (
	"bytes"
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// decodeEnv is the decoding context a registry hands to the lazy payloads it
// creates, so hydration uses the same codec and name rules as the registry.
type decodeEnv struct {
	matcher  NameMatcher
	codec    PayloadCodec
	observer Observer
	logger   *zap.Logger
}

var defaultEnv = &decodeEnv{
	matcher:  LenientNames,
	codec:    mustCBOR(),
	observer: nopObserver{},
	logger:   zap.NewNop(),
}

// LazyPayload describes a payload that has not been decoded yet: the type
// name declared on the wire and a [start, end) window into a shared buffer.
// The buffer must not be modified once a payload references it.
type LazyPayload struct {
	typeName string
	buf      []byte
	start    int
	end      int
	env      *decodeEnv
}

// NewLazyPayload creates a payload over buf[start:end]. The bounds are
// validated here and never recomputed.
func NewLazyPayload(typeName string, buf []byte, start, end int) (*LazyPayload, error) {
	return newLazyPayload(typeName, buf, start, end, defaultEnv)
}

func newLazyPayload(typeName string, buf []byte, start, end int, env *decodeEnv) (*LazyPayload, error) {
	if start < 0 || start > end || end > len(buf) {
		return nil, fmt.Errorf("%w: payload window [%d, %d) outside buffer of %d bytes",
			ErrInvalidState, start, end, len(buf))
	}
	if env == nil {
		env = defaultEnv
	}
	return &LazyPayload{
		typeName: typeName,
		buf:      buf,
		start:    start,
		end:      end,
		env:      env,
	}, nil
}

// TypeName returns the type name captured from the wire header.
func (p *LazyPayload) TypeName() string {
	return p.typeName
}

// Data returns the payload bytes. The slice aliases the shared buffer and
// must be treated as read-only.
func (p *LazyPayload) Data() []byte {
	return p.buf[p.start:p.end:p.end]
}

// Len returns the payload size in bytes.
func (p *LazyPayload) Len() int {
	return p.end - p.start
}

// Offsets returns the payload window within the shared buffer.
func (p *LazyPayload) Offsets() (start, end int) {
	return p.start, p.end
}

// String describes the payload without decoding it.
func (p *LazyPayload) String() string {
	return fmt.Sprintf("LazyPayload{type: %s, buffer: %d bytes, window: [%d, %d)}",
		p.typeName, len(p.buf), p.start, p.end)
}

// Cell is a type-erased holder for one value. It is either eager, holding a
// pointer to a decoded Go value, or lazy, holding a LazyPayload. A Cell never
// changes after construction; hydration replaces the Cell a Value points to,
// so copies of a Value made before hydration keep sharing the lazy payload.
type Cell struct {
	lazy *LazyPayload
	val  any
	typ  reflect.Type
}

// EagerCell boxes v in a new eager cell.
func EagerCell[T any](v T) *Cell {
	return newEagerCell(&v)
}

// newEagerCell wraps ptr, which must be a non-nil pointer to the value.
func newEagerCell(ptr any) *Cell {
	return &Cell{val: ptr, typ: reflect.TypeOf(ptr).Elem()}
}

// boxValue returns x unchanged when it is a non-nil pointer and otherwise a
// pointer to a copy of x.
func boxValue(x any) any {
	rv := reflect.ValueOf(x)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return x
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return ptr.Interface()
}

// NewLazyCell wraps a payload in a lazy cell.
func NewLazyCell(p *LazyPayload) *Cell {
	return &Cell{lazy: p}
}

// IsLazy reports whether the cell still holds undecoded wire data.
func (c *Cell) IsLazy() bool {
	return c.lazy != nil
}

// Lazy returns the payload of a lazy cell.
func (c *Cell) Lazy() (*LazyPayload, bool) {
	return c.lazy, c.lazy != nil
}

// TypeName returns the canonical name of the stored value, or the declared
// name for lazy cells.
func (c *Cell) TypeName() string {
	if c.lazy != nil {
		return c.lazy.typeName
	}
	return typeNameOf(c.typ)
}

// Any returns the boxed pointer held by an eager cell.
func (c *Cell) Any() (any, error) {
	if c.lazy != nil {
		return nil, fmt.Errorf("%w: cell holding %s has not been hydrated", ErrInvalidState, c.lazy.typeName)
	}
	return c.val, nil
}

// EqualValue reports whether two cells hold equal values of the same type.
// Eager cells compare their decoded values; lazy cells compare declared names
// and payload bytes. An eager and a lazy cell are never equal.
func (c *Cell) EqualValue(o *Cell) bool {
	if c == o {
		return true
	}
	if c == nil || o == nil {
		return false
	}
	switch {
	case c.lazy != nil && o.lazy != nil:
		return c.lazy.typeName == o.lazy.typeName && bytes.Equal(c.lazy.Data(), o.lazy.Data())
	case c.lazy == nil && o.lazy == nil:
		return c.typ == o.typ && reflect.DeepEqual(c.val, o.val)
	default:
		return false
	}
}

// cellAs downcasts an eager cell to *T.
func cellAs[T any](c *Cell) (*T, error) {
	if c.lazy != nil {
		return nil, fmt.Errorf("%w: cell holding %s has not been hydrated", ErrInvalidState, c.lazy.typeName)
	}
	p, ok := c.val.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, TypeName[T](), typeNameOf(c.typ))
	}
	return p, nil
}
