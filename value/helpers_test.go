package value

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type Point struct {
	X float64
	Y float64
}

type Circle struct {
	Center Point
	Radius float64
	Tags   []string
}

type Order struct {
	ID         string
	UserID     string
	ProductID  string
	Quantity   uint32
	TotalPrice float64
}

func newTestRegistry(t *testing.T, opts ...RegistryOptions) *Registry {
	t.Helper()

	o := DefaultRegistryOptions()
	if len(opts) > 0 {
		o = opts[0]
	}
	r := NewRegistryWithDefaults(o)
	require.NoError(t, Register[Point](r))
	require.NoError(t, Register[Circle](r))
	require.NoError(t, Register[Order](r))
	require.NoError(t, Register[[]Point](r))
	return r
}

// roundTrip serializes v and parses the bytes back into a lazy value.
func roundTrip(t *testing.T, r *Registry, v Value) (Value, []byte) {
	t.Helper()

	data, err := r.SerializeValue(v)
	require.NoError(t, err)
	out, err := r.DeserializeValue(data)
	require.NoError(t, err)
	return out, data
}

type recordingObserver struct {
	mu           sync.Mutex
	serialized   int
	deserialized int
	hydrations   map[string]int
	errors       map[string]int
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{
		hydrations: make(map[string]int),
		errors:     make(map[string]int),
	}
}

func (o *recordingObserver) ObserveSerialize(Category, bool, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.serialized++
}

func (o *recordingObserver) ObserveDeserialize(Category, int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deserialized++
}

func (o *recordingObserver) ObserveHydration(_ Category, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hydrations[result]++
}

func (o *recordingObserver) ObserveError(op string, _ error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors[op]++
}

func (o *recordingObserver) hydrationCount(result string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.hydrations[result]
}
