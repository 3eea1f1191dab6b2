// Package metrics instruments a storage.Storage with Prometheus latency and
// outcome metrics.
package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/greforce/udm-devconnector/pkg/storage"
)

type metricsStore struct {
	inner    storage.Storage
	latency  *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// Wrap returns a Storage that records the latency and outcome of every
// operation of inner. The metrics are registered with reg.
func Wrap(inner storage.Storage, reg prometheus.Registerer) storage.Storage {
	f := promauto.With(reg)

	return &metricsStore{
		inner: inner,
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "devconnector_store_latency_seconds",
				Help:    "Store operation latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "collection"},
		),
		outcomes: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "devconnector_store_operations_total",
				Help: "Store operations by outcome",
			},
			[]string{"operation", "collection", "outcome"},
		),
	}
}

func (m *metricsStore) observe(op string, coll storage.Collection, start time.Time, err error) {
	m.latency.WithLabelValues(op, string(coll)).Observe(time.Since(start).Seconds())
	m.outcomes.WithLabelValues(op, string(coll), outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, storage.ErrVersionConflict):
		return "conflict"
	}
	return "error"
}

func (m *metricsStore) FetchByID(ctx context.Context, coll storage.Collection, id uuid.UUID, dst storage.Document) (err error) {
	defer func(start time.Time) { m.observe("fetch_by_id", coll, start, err) }(time.Now())
	return m.inner.FetchByID(ctx, coll, id, dst)
}

func (m *metricsStore) FetchOne(ctx context.Context, coll storage.Collection, f storage.Filter, dst storage.Document) (err error) {
	defer func(start time.Time) { m.observe("fetch_one", coll, start, err) }(time.Now())
	return m.inner.FetchOne(ctx, coll, f, dst)
}

func (m *metricsStore) Persist(ctx context.Context, doc storage.Document) (err error) {
	defer func(start time.Time) { m.observe("persist", doc.Collection(), start, err) }(time.Now())
	return m.inner.Persist(ctx, doc)
}

func (m *metricsStore) PersistIfVersion(ctx context.Context, doc storage.Document, version int64) (err error) {
	defer func(start time.Time) { m.observe("persist_if_version", doc.Collection(), start, err) }(time.Now())
	return m.inner.PersistIfVersion(ctx, doc, version)
}

func (m *metricsStore) Remove(ctx context.Context, doc storage.Document) (err error) {
	defer func(start time.Time) { m.observe("remove", doc.Collection(), start, err) }(time.Now())
	return m.inner.Remove(ctx, doc)
}
