package metrics

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ligustah/filekit/pkg/filekit"
)

const namespace = "filekit"

// Metrics holds the Prometheus collectors for one bucket.
type Metrics struct {
	registry *prometheus.Registry

	saveAttempts *prometheus.CounterVec
	saves        *prometheus.CounterVec
	savedBytes   *prometheus.CounterVec
	deletes      *prometheus.CounterVec
	failures     *prometheus.CounterVec // by op and kind
	currentShard *prometheus.GaugeVec
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry, bucket string) (*Metrics, error) {
	labels := prometheus.Labels{"bucket": bucket}

	m := &Metrics{
		registry: registry,

		saveAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "save_attempts_total",
			Help:        "Saves that reached the beforeSave event",
			ConstLabels: labels,
		}, []string{}),

		saves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "saves_total",
			Help:        "Files stored successfully",
			ConstLabels: labels,
		}, []string{}),

		savedBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "saved_bytes_total",
			Help:        "Bytes stored successfully",
			ConstLabels: labels,
		}, []string{}),

		deletes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "deletes_total",
			Help:        "Objects deleted successfully",
			ConstLabels: labels,
		}, []string{}),

		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "failures_total",
			Help:        "Failed operations by error kind",
			ConstLabels: labels,
		}, []string{"op", "kind"}),

		currentShard: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Subsystem:   "storage",
			Name:        "current_shard",
			Help:        "Shard index of the most recent save",
			ConstLabels: labels,
		}, []string{}),
	}

	for _, c := range []prometheus.Collector{
		m.saveAttempts, m.saves, m.savedBytes, m.deletes, m.failures, m.currentShard,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Observe subscribes the collectors to store's events.
func (m *Metrics) Observe(store *filekit.Storage) {
	store.On(filekit.BeforeSave, func(context.Context, filekit.Event) error {
		m.saveAttempts.WithLabelValues().Inc()
		return nil
	})
	store.On(filekit.AfterSave, func(_ context.Context, ev filekit.Event) error {
		m.saves.WithLabelValues().Inc()
		m.savedBytes.WithLabelValues().Add(float64(ev.File.Size()))
		if shard, ok := shardOf(ev.Path); ok {
			m.currentShard.WithLabelValues().Set(float64(shard))
		}
		return nil
	})
	store.On(filekit.AfterDelete, func(context.Context, filekit.Event) error {
		m.deletes.WithLabelValues().Inc()
		return nil
	})
}

// RecordSaveResults counts the failed items of a save batch.
func (m *Metrics) RecordSaveResults(results []filekit.SaveResult) {
	for _, r := range results {
		if r.Err != nil {
			m.RecordFailure("save", r.Err)
		}
	}
}

// RecordDeleteResults counts the failed items of a delete batch.
func (m *Metrics) RecordDeleteResults(results []filekit.DeleteResult) {
	for _, r := range results {
		if r.Err != nil {
			m.RecordFailure("delete", r.Err)
		}
	}
}

// RecordFailure counts one failed operation under the kind of err.
func (m *Metrics) RecordFailure(op string, err error) {
	m.failures.WithLabelValues(op, filekit.KindOf(err).String()).Inc()
}

// SetCurrentShard records a shard index read outside of a save.
func (m *Metrics) SetCurrentShard(shard int) {
	m.currentShard.WithLabelValues().Set(float64(shard))
}

// WriteToTextfile writes all registered metrics to path in the Prometheus
// text format.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

// shardOf extracts the shard index from a "<shard>/<name>" path.
func shardOf(path string) (int, bool) {
	prefix, _, ok := strings.Cut(path, "/")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return 0, false
	}
	return n, true
}
