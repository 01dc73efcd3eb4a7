package observability

import (
	"context"
	"sync"
	"time"

	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records listener events as Prometheus series.
type Metrics struct {
	events    *prometheus.CounterVec
	inputs    *prometheus.CounterVec
	progress  *prometheus.GaugeVec
	listening prometheus.Gauge
	duration  *prometheus.HistogramVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyseq_events_total",
				Help: "Total number of listener events by type",
			},
			[]string{"sequence", "type"},
		),
		inputs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "keyseq_inputs_total",
				Help: "Total number of input tokens by source",
			},
			[]string{"source"},
		),
		progress: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "keyseq_progress",
				Help: "Current position within the sequence",
			},
			[]string{"sequence"},
		),
		listening: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "keyseq_listeners_active",
			Help: "Number of listeners currently consuming input",
		}),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "keyseq_match_duration_seconds",
				Help:    "Time from the first correct input to a match",
				Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 30},
			},
			[]string{"sequence"},
		),
		started: make(map[string]time.Time),
	}

	for _, c := range []prometheus.Collector{m.events, m.inputs, m.progress, m.listening, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.HooksFunc(m.observe)
}

func (m *Metrics) observe(_ context.Context, e *domain.Event) {
	m.events.WithLabelValues(e.Sequence, string(e.Type)).Inc()

	switch e.Type {
	case domain.EventStart:
		m.listening.Inc()
		m.progress.WithLabelValues(e.Sequence).Set(0)
	case domain.EventStop:
		m.listening.Dec()
		m.progress.WithLabelValues(e.Sequence).Set(0)
		m.forget(e.Sequence)
	case domain.EventInput:
		m.inputs.WithLabelValues(string(e.Source)).Inc()
	case domain.EventProgress:
		m.progress.WithLabelValues(e.Sequence).Set(float64(e.Position))
		if e.Position == 1 {
			m.mu.Lock()
			m.started[e.Sequence] = e.Timestamp
			m.mu.Unlock()
		}
	case domain.EventMatch:
		m.progress.WithLabelValues(e.Sequence).Set(0)
		m.mu.Lock()
		start, ok := m.started[e.Sequence]
		delete(m.started, e.Sequence)
		m.mu.Unlock()
		if ok {
			m.duration.WithLabelValues(e.Sequence).Observe(e.Timestamp.Sub(start).Seconds())
		}
	case domain.EventMismatch, domain.EventTimeout, domain.EventReset:
		m.progress.WithLabelValues(e.Sequence).Set(0)
		m.forget(e.Sequence)
	}
}

func (m *Metrics) forget(sequence string) {
	m.mu.Lock()
	delete(m.started, sequence)
	m.mu.Unlock()
}
