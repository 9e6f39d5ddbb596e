package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Recorder exports session lifecycle events as Prometheus metrics.
type Recorder struct {
	created    *prometheus.CounterVec
	destroyed  prometheus.Counter
	storeOps   *prometheus.CounterVec
	storeTime  *prometheus.HistogramVec
	conflicts  prometheus.Counter
	collisions prometheus.Counter
	pruned     prometheus.Counter
}

// Option configures a Recorder.
type Option func(*options)

type options struct {
	namespace string
	buckets   []float64
}

// WithNamespace sets the metric namespace (default "sessionkit").
func WithNamespace(ns string) Option {
	return func(o *options) {
		o.namespace = ns
	}
}

// WithBuckets sets the store latency histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(o *options) {
		if len(buckets) > 0 {
			o.buckets = buckets
		}
	}
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer, opts ...Option) (*Recorder, error) {
	o := options{
		namespace: "sessionkit",
		buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
	}
	for _, opt := range opts {
		opt(&o)
	}

	r := &Recorder{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "session",
			Name:      "created_total",
			Help:      "Session records created, by reason",
		}, []string{"reason"}),
		destroyed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "session",
			Name:      "destroyed_total",
			Help:      "Sessions cleared by the application",
		}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Record store operations, by operation and result",
		}, []string{"op", "result"}),
		storeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: o.namespace,
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Record store operation latency in seconds",
			Buckets:   o.buckets,
		}, []string{"op"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "session",
			Name:      "write_conflicts_total",
			Help:      "Writes that gave up after repeated version conflicts",
		}),
		collisions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "session",
			Name:      "id_collisions_total",
			Help:      "Generated session ids that were already taken",
		}),
		pruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: o.namespace,
			Subsystem: "session",
			Name:      "pruned_total",
			Help:      "Idle session records removed by pruning",
		}),
	}

	for _, c := range []prometheus.Collector{
		r.created, r.destroyed, r.storeOps, r.storeTime, r.conflicts, r.collisions, r.pruned,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// MustNewRecorder is like NewRecorder but panics on registration errors.
func MustNewRecorder(reg prometheus.Registerer, opts ...Option) *Recorder {
	r, err := NewRecorder(reg, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Recorder) RecordCreated(reason string) { r.created.WithLabelValues(reason).Inc() }
func (r *Recorder) RecordDestroyed()            { r.destroyed.Inc() }
func (r *Recorder) WriteConflict()              { r.conflicts.Inc() }
func (r *Recorder) IDCollision()                { r.collisions.Inc() }

func (r *Recorder) Pruned(n int64) {
	if n > 0 {
		r.pruned.Add(float64(n))
	}
}

func (r *Recorder) StoreOperation(op string, took time.Duration, err error) {
	r.storeOps.WithLabelValues(op, result(err)).Inc()
	r.storeTime.WithLabelValues(op).Observe(took.Seconds())
}

// result keeps the label set small: expected store outcomes get their own
// value, everything else is "error".
func result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, session.ErrRecordNotFound):
		return "not_found"
	case errors.Is(err, session.ErrRecordExists):
		return "exists"
	case errors.Is(err, session.ErrVersionConflict):
		return "conflict"
	default:
		return "error"
	}
}

var _ session.Recorder = (*Recorder)(nil)
