// Package metrics collects session counters in a private Prometheus
// registry and keeps a plain snapshot for logs and tests.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Restore sources
const (
	RestoreFile    = "file"
	RestoreBackup  = "backup"
	RestoreDefault = "default"
)

// Metrics holds all Prometheus metrics. A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	StateSaves     *prometheus.CounterVec
	SaveDuration   prometheus.Histogram
	BackupsCreated prometheus.Counter
	BackupsPruned  prometheus.Counter
	Restores       *prometheus.CounterVec
	StoreEvents    *prometheus.CounterVec
	TabsOpen       prometheus.Gauge

	// Snapshot for logs - track current values
	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current metric values
type Snapshot struct {
	Saves          int64
	SaveFailures   int64
	BackupsCreated int64
	BackupsPruned  int64
	Restores       map[string]int64
	Events         map[string]int64
	TabsOpen       int64
	TotalSaveTime  time.Duration
}

// New creates a collector backed by its own registry
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,

		StateSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filex_state_saves_total",
				Help: "Total number of state file saves",
			},
			[]string{"key", "result"},
		),
		SaveDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "filex_state_save_duration_seconds",
				Help:    "State save duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
		),
		BackupsCreated: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filex_state_backups_created_total",
				Help: "Total number of state backups created",
			},
		),
		BackupsPruned: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "filex_state_backups_pruned_total",
				Help: "Total number of state backups removed by rotation",
			},
		),
		Restores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filex_session_restores_total",
				Help: "Sessions restored, by source",
			},
			[]string{"source"},
		),
		StoreEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "filex_store_events_total",
				Help: "State change events, by type",
			},
			[]string{"event"},
		),
		TabsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "filex_tabs_open",
				Help: "Number of open tabs",
			},
		),

		snapshot: Snapshot{
			Restores: map[string]int64{},
			Events:   map[string]int64{},
		},
	}
}

// Registry returns the registry holding the collectors
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordSave records one save of key
func (m *Metrics) RecordSave(key string, d time.Duration, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.StateSaves.WithLabelValues(key, result).Inc()
	m.SaveDuration.Observe(d.Seconds())

	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot.Saves++
	if err != nil {
		m.snapshot.SaveFailures++
	}
	m.snapshot.TotalSaveTime += d
}

func (m *Metrics) RecordBackup() {
	if m == nil {
		return
	}
	m.BackupsCreated.Inc()
	m.mu.Lock()
	m.snapshot.BackupsCreated++
	m.mu.Unlock()
}

func (m *Metrics) RecordPrune() {
	if m == nil {
		return
	}
	m.BackupsPruned.Inc()
	m.mu.Lock()
	m.snapshot.BackupsPruned++
	m.mu.Unlock()
}

// RecordRestore records where a session's initial state came from
func (m *Metrics) RecordRestore(source string) {
	if m == nil {
		return
	}
	m.Restores.WithLabelValues(source).Inc()
	m.mu.Lock()
	m.snapshot.Restores[source]++
	m.mu.Unlock()
}

// RecordEvent counts a state change event by name
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.StoreEvents.WithLabelValues(name).Inc()
	m.mu.Lock()
	m.snapshot.Events[name]++
	m.mu.Unlock()
}

func (m *Metrics) SetTabsOpen(n int) {
	if m == nil {
		return
	}
	m.TabsOpen.Set(float64(n))
	m.mu.Lock()
	m.snapshot.TabsOpen = int64(n)
	m.mu.Unlock()
}

// Snapshot returns a copy of the current values
func (m *Metrics) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.snapshot
	out.Restores = make(map[string]int64, len(m.snapshot.Restores))
	for k, v := range m.snapshot.Restores {
		out.Restores[k] = v
	}
	out.Events = make(map[string]int64, len(m.snapshot.Events))
	for k, v := range m.snapshot.Events {
		out.Events[k] = v
	}
	return out
}
