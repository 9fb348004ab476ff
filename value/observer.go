package value

// Hydration results reported to an Observer.
const (
	HydrateOK           = "ok"
	HydrateTypeMismatch = "type_mismatch"
	HydrateDecodeError  = "decode_error"
)

// Observer receives engine events. Implementations must be safe for
// concurrent use; the metrics package provides a Prometheus backed one.
type Observer interface {
	// ObserveSerialize is called after a value was written to the wire.
	ObserveSerialize(category Category, lazy bool, size int)

	// ObserveDeserialize is called after a wire value was parsed.
	ObserveDeserialize(category Category, size int)

	// ObserveHydration is called once per lazy to eager attempt.
	ObserveHydration(category Category, result string)

	// ObserveError is called when an operation fails, with op naming it.
	ObserveError(op string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveSerialize(Category, bool, int) {}
func (nopObserver) ObserveDeserialize(Category, int)     {}
func (nopObserver) ObserveHydration(Category, string)    {}
func (nopObserver) ObserveError(string, error)           {}
