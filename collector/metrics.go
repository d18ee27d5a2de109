package collector

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for a collection run. All Inc*
// helpers are nil-safe so wiring metrics stays optional.
type Metrics struct {
	Registry        *prometheus.Registry
	SamplesTotal    prometheus.Counter
	StimuliTotal    prometheus.Counter
	CandidatesTotal prometheus.Counter
	RecordsTotal    prometheus.Counter
	MissesTotal     *prometheus.CounterVec
	FaultsTotal     *prometheus.CounterVec
	PersistDuration prometheus.Histogram
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	samples := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_samples_total",
			Help: "Total page-state samples taken.",
		},
	)
	stimuli := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_stimuli_total",
			Help: "Total scroll stimuli applied.",
		},
	)
	candidates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_candidates_total",
			Help: "Total candidate items run through extraction.",
		},
	)
	records := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "collector_records_total",
			Help: "Total new records accumulated.",
		},
	)
	misses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_misses_total",
			Help: "Candidates rejected during extraction, by reason.",
		},
		[]string{"reason"},
	)
	faults := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "collector_faults_total",
			Help: "Collaborator and persistence faults, by stage.",
		},
		[]string{"stage"},
	)
	persistDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "collector_persist_duration_seconds",
			Help:    "Increment persistence latency.",
			Buckets: prometheus.DefBuckets,
		},
	)

	registry.MustRegister(samples, stimuli, candidates, records, misses, faults, persistDuration)

	return &Metrics{
		Registry:        registry,
		SamplesTotal:    samples,
		StimuliTotal:    stimuli,
		CandidatesTotal: candidates,
		RecordsTotal:    records,
		MissesTotal:     misses,
		FaultsTotal:     faults,
		PersistDuration: persistDuration,
	}
}

// IncSample increments the samples counter.
func (m *Metrics) IncSample() {
	if m == nil {
		return
	}
	m.SamplesTotal.Inc()
}

// IncStimulus increments the stimuli counter.
func (m *Metrics) IncStimulus() {
	if m == nil {
		return
	}
	m.StimuliTotal.Inc()
}

// IncCandidate increments the candidates counter.
func (m *Metrics) IncCandidate() {
	if m == nil {
		return
	}
	m.CandidatesTotal.Inc()
}

// IncRecord increments the accumulated-records counter.
func (m *Metrics) IncRecord() {
	if m == nil {
		return
	}
	m.RecordsTotal.Inc()
}

// IncMiss increments the miss counter for a reason label.
func (m *Metrics) IncMiss(reason string) {
	if m == nil {
		return
	}
	m.MissesTotal.WithLabelValues(reason).Inc()
}

// IncFault increments the fault counter for a stage label.
func (m *Metrics) IncFault(stage string) {
	if m == nil {
		return
	}
	m.FaultsTotal.WithLabelValues(stage).Inc()
}

// ObservePersist records one increment persistence duration.
func (m *Metrics) ObservePersist(d time.Duration) {
	if m == nil {
		return
	}
	m.PersistDuration.Observe(d.Seconds())
}
