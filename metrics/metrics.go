// Package metrics exports value engine activity as Prometheus metrics.
// A Collector is passed to the registry as its value.Observer.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/najoast/valuecore/value"
)

// Collector implements value.Observer on top of its own Prometheus
// registry.
type Collector struct {
	registry *prometheus.Registry

	serializeTotal   *prometheus.CounterVec
	serializeBytes   *prometheus.HistogramVec
	deserializeTotal *prometheus.CounterVec
	deserializeBytes *prometheus.HistogramVec
	hydrationTotal   *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
}

var _ value.Observer = (*Collector)(nil)

// NewCollector creates a collector whose metrics live under namespace.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "valuecore"
	}

	sizeBuckets := prometheus.ExponentialBuckets(16, 4, 8) // 16B to 256KiB

	c := &Collector{registry: prometheus.NewRegistry()}

	c.serializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "serialize_total",
			Help:      "Values written to the wire, by category and whether they were forwarded lazily",
		},
		[]string{"category", "mode"},
	)

	c.serializeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "serialize_bytes",
			Help:      "Size of serialized values",
			Buckets:   sizeBuckets,
		},
		[]string{"category"},
	)

	c.deserializeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "deserialize_total",
			Help:      "Wire values parsed into lazy values",
		},
		[]string{"category"},
	)

	c.deserializeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "deserialize_bytes",
			Help:      "Size of parsed wire values",
			Buckets:   sizeBuckets,
		},
		[]string{"category"},
	)

	c.hydrationTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "value",
			Name:      "hydration_total",
			Help:      "Lazy to eager conversions by result (ok, type_mismatch, decode_error)",
		},
		[]string{"category", "result"},
	)

	c.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "wire",
			Name:      "errors_total",
			Help:      "Failed wire operations by operation and error kind",
		},
		[]string{"op", "kind"},
	)

	c.registry.MustRegister(
		c.serializeTotal,
		c.serializeBytes,
		c.deserializeTotal,
		c.deserializeBytes,
		c.hydrationTotal,
		c.errorsTotal,
	)

	return c
}

// Registry returns the Prometheus registry holding the collector's metrics.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// ObserveSerialize records a value written to the wire.
func (c *Collector) ObserveSerialize(category value.Category, lazy bool, size int) {
	mode := "eager"
	if lazy {
		mode = "passthrough"
	}
	c.serializeTotal.WithLabelValues(category.String(), mode).Inc()
	c.serializeBytes.WithLabelValues(category.String()).Observe(float64(size))
}

// ObserveDeserialize records a parsed wire value.
func (c *Collector) ObserveDeserialize(category value.Category, size int) {
	c.deserializeTotal.WithLabelValues(category.String()).Inc()
	c.deserializeBytes.WithLabelValues(category.String()).Observe(float64(size))
}

// ObserveHydration records a lazy to eager attempt.
func (c *Collector) ObserveHydration(category value.Category, result string) {
	c.hydrationTotal.WithLabelValues(category.String(), result).Inc()
}

// ObserveError records a failed operation.
func (c *Collector) ObserveError(op string, err error) {
	c.errorsTotal.WithLabelValues(op, ErrorKind(err)).Inc()
}

// Reset clears every recorded series.
func (c *Collector) Reset() {
	c.serializeTotal.Reset()
	c.serializeBytes.Reset()
	c.deserializeTotal.Reset()
	c.deserializeBytes.Reset()
	c.hydrationTotal.Reset()
	c.errorsTotal.Reset()
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{value.ErrEmptyBuffer, "empty_buffer"},
	{value.ErrTruncatedHeader, "truncated_header"},
	{value.ErrInvalidCategory, "invalid_category"},
	{value.ErrInvalidTypeName, "invalid_type_name"},
	{value.ErrTypeNameTooLong, "type_name_too_long"},
	{value.ErrUnknownType, "unknown_type"},
	{value.ErrTypeMismatch, "type_mismatch"},
	{value.ErrCategoryMismatch, "category_mismatch"},
	{value.ErrDeserialization, "deserialization"},
	{value.ErrInvalidState, "invalid_state"},
	{value.ErrSealed, "sealed"},
}

// ErrorKind maps err to a bounded label value.
func ErrorKind(err error) string {
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "other"
}
