package value

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// SerializerFunc encodes the value boxed in an eager cell. It receives the
// cell's pointer and must return ErrTypeMismatch for any other type.
type SerializerFunc func(v any) ([]byte, error)

// Deserializer decodes a payload into a new boxed value. The zero
// Deserializer is not usable.
type Deserializer struct {
	fn func(data []byte) (any, error)
}

// NewDeserializer wraps fn. fn must return a pointer to the decoded value.
func NewDeserializer(fn func(data []byte) (any, error)) Deserializer {
	return Deserializer{fn: fn}
}

// Call decodes data.
func (d Deserializer) Call(data []byte) (any, error) {
	if d.fn == nil {
		return nil, fmt.Errorf("%w: empty deserializer", ErrInvalidState)
	}
	return d.fn(data)
}

// String returns a fixed description; deserializers carry no useful state.
func (d Deserializer) String() string {
	return "Deserializer"
}

// RegistryOptions contains configuration options for creating a Registry.
type RegistryOptions struct {
	// Logger receives debug output for wire operations
	Logger *zap.Logger

	// Observer receives serialize, deserialize and hydration events
	Observer Observer

	// Codec encodes payloads of registered types
	Codec PayloadCodec

	// NameMatching decides whether a declared wire name matches an
	// accessor's type
	NameMatching NameMatcher
}

// DefaultRegistryOptions returns a no-op logger and observer, canonical CBOR
// payloads and lenient name matching.
func DefaultRegistryOptions() RegistryOptions {
	return RegistryOptions{
		Logger:       zap.NewNop(),
		Observer:     nopObserver{},
		Codec:        mustCBOR(),
		NameMatching: LenientNames,
	}
}

// Registry maps type names to payload serializers and deserializers.
//
// A registry is filled during startup, possibly by several goroutines, and
// then sealed. Once sealed, every mutation fails with ErrSealed and lookups
// no longer take the lock.
type Registry struct {
	mu            sync.RWMutex
	sealed        atomic.Bool
	serializers   map[string]SerializerFunc
	deserializers map[string]Deserializer

	env    *decodeEnv
	logger *zap.Logger
}

// NewRegistry creates an empty registry. Zero fields in opts fall back to
// DefaultRegistryOptions.
func NewRegistry(opts RegistryOptions) *Registry {
	defaults := DefaultRegistryOptions()
	if opts.Logger == nil {
		opts.Logger = defaults.Logger
	}
	if opts.Observer == nil {
		opts.Observer = defaults.Observer
	}
	if opts.Codec == nil {
		opts.Codec = defaults.Codec
	}
	if opts.NameMatching == nil {
		opts.NameMatching = defaults.NameMatching
	}

	logger := opts.Logger.Named("value")
	return &Registry{
		serializers:   make(map[string]SerializerFunc),
		deserializers: make(map[string]Deserializer),
		env: &decodeEnv{
			matcher:  opts.NameMatching,
			codec:    opts.Codec,
			observer: opts.Observer,
			logger:   logger,
		},
		logger: logger,
	}
}

// NewRegistryWithDefaults creates a registry with the default types already
// registered.
func NewRegistryWithDefaults(opts RegistryOptions) *Registry {
	r := NewRegistry(opts)
	if err := RegisterDefaults(r); err != nil {
		// unreachable: a new registry is never sealed
		panic(err)
	}
	return r
}

// RegisterDefaults registers the primitive types, their slices and the
// common string keyed maps.
func RegisterDefaults(r *Registry) error {
	regs := []func(*Registry) error{
		Register[int32],
		Register[int64],
		Register[float32],
		Register[float64],
		Register[bool],
		Register[string],

		Register[[]int32],
		Register[[]int64],
		Register[[]float32],
		Register[[]float64],
		Register[[]bool],
		Register[[]string],

		RegisterMap[string, string],
		RegisterMap[string, int32],
		RegisterMap[string, int64],
		RegisterMap[string, float64],
		RegisterMap[string, bool],
	}
	for _, reg := range regs {
		if err := reg(r); err != nil {
			return err
		}
	}
	return nil
}

// Codec returns the payload codec used by r.
func (r *Registry) Codec() PayloadCodec {
	return r.env.codec
}

// Seal freezes the registry. Sealing is one-way.
func (r *Registry) Seal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.sealed.Load() {
		r.logger.Debug("registry sealed",
			zap.Int("serializers", len(r.serializers)),
			zap.Int("deserializers", len(r.deserializers)))
	}
	r.sealed.Store(true)
}

// IsSealed reports whether Seal has been called.
func (r *Registry) IsSealed() bool {
	return r.sealed.Load()
}

// Register records the serializer and deserializer for T under its canonical
// name and, if that name is still free, under its short name. Registering the
// same type again overwrites the previous entry.
func Register[T any](r *Registry) error {
	name := TypeName[T]()
	codec := r.env.codec

	ser := func(v any) ([]byte, error) {
		switch t := v.(type) {
		case *T:
			if t == nil {
				return nil, fmt.Errorf("%w: nil %s", ErrInvalidState, name)
			}
			return codec.Marshal(*t)
		case T:
			return codec.Marshal(t)
		default:
			return nil, fmt.Errorf("%w: serializer for %s got %T", ErrTypeMismatch, name, v)
		}
	}
	de := NewDeserializer(func(data []byte) (any, error) {
		out := new(T)
		if err := codec.Unmarshal(data, out); err != nil {
			return nil, err
		}
		return out, nil
	})

	return r.register(name, ser, de)
}

// RegisterMap registers map[K]V.
func RegisterMap[K comparable, V any](r *Registry) error {
	return Register[map[K]V](r)
}

// RegisterCustomDeserializer stores d under name, replacing any previous
// entry. It does not derive a short name and registers no serializer, which
// makes it the way to alias a type under another wire name.
func (r *Registry) RegisterCustomDeserializer(name string, d Deserializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		r.logger.Warn("deserializer registered after seal", zap.String("type", name))
		return fmt.Errorf("%w: cannot register deserializer for %s", ErrSealed, name)
	}
	r.deserializers[name] = d
	return nil
}

func (r *Registry) register(name string, ser SerializerFunc, de Deserializer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.sealed.Load() {
		r.logger.Warn("type registered after seal", zap.String("type", name))
		return fmt.Errorf("%w: cannot register type %s", ErrSealed, name)
	}

	r.serializers[name] = ser
	r.deserializers[name] = de

	short := ShortTypeName(name)
	if short != name {
		if _, taken := r.deserializers[short]; !taken {
			r.deserializers[short] = de
		}
	}

	r.logger.Debug("type registered", zap.String("type", name), zap.String("short", short))
	return nil
}

// readLock takes the read lock until the registry is sealed and returns the
// matching unlock function.
func (r *Registry) readLock() func() {
	if r.sealed.Load() {
		return func() {}
	}
	r.mu.RLock()
	return r.mu.RUnlock
}

// Serialize encodes v with the serializer registered under typeName.
func (r *Registry) Serialize(v any, typeName string) ([]byte, error) {
	unlock := r.readLock()
	ser, ok := r.serializers[typeName]
	unlock()

	if !ok {
		return nil, fmt.Errorf("%w: no serializer registered for %s", ErrUnknownType, typeName)
	}
	data, err := ser(v)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s: %w", typeName, err)
	}
	return data, nil
}

// GetDeserializer returns the deserializer registered under name.
func (r *Registry) GetDeserializer(name string) (Deserializer, bool) {
	unlock := r.readLock()
	defer unlock()
	d, ok := r.deserializers[name]
	return d, ok
}

// HasDeserializer reports whether values named name can be decoded.
func (r *Registry) HasDeserializer(name string) bool {
	_, ok := r.GetDeserializer(name)
	return ok
}

// RegisteredTypes returns every name a deserializer is registered under,
// sorted.
func (r *Registry) RegisteredTypes() []string {
	unlock := r.readLock()
	names := make([]string, 0, len(r.deserializers))
	for name := range r.deserializers {
		names = append(names, name)
	}
	unlock()

	sort.Strings(names)
	return names
}

// DecodeAny hydrates v with the deserializer registered for its declared
// type and returns the boxed pointer. It serves callers that do not know the
// Go type statically; eager values are returned as they are.
func (r *Registry) DecodeAny(v *Value) (any, error) {
	if err := checkCategory(v, 0); err != nil {
		return nil, err
	}
	cell := v.cell
	if cell == nil {
		return nil, fmt.Errorf("%w: %s value holds no cell", ErrInvalidState, v.category)
	}
	lazy, ok := cell.Lazy()
	if !ok {
		return cell.val, nil
	}
	if v.category == CategoryBytes {
		b, err := AsBytes(v)
		if err != nil {
			return nil, err
		}
		return &b, nil
	}

	d, ok := r.GetDeserializer(lazy.typeName)
	if !ok {
		return nil, fmt.Errorf("%w: no deserializer registered for %s", ErrUnknownType, lazy.typeName)
	}
	out, err := d.Call(lazy.Data())
	if err != nil {
		v.cell = nil
		r.env.observer.ObserveHydration(v.category, HydrateDecodeError)
		return nil, fmt.Errorf("%w: failed to decode %s: %v", ErrDeserialization, lazy.typeName, err)
	}
	if out == nil {
		v.cell = nil
		r.env.observer.ObserveHydration(v.category, HydrateDecodeError)
		return nil, fmt.Errorf("%w: deserializer for %s returned nil", ErrDeserialization, lazy.typeName)
	}
	out = boxValue(out)
	v.cell = newEagerCell(out)
	r.env.observer.ObserveHydration(v.category, HydrateOK)
	return out, nil
}
