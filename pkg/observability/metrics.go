package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "bngenvs"

// Run outcome label values.
const (
	OutcomeFinished   = "finished"
	OutcomeUnfinished = "unfinished"
	OutcomeFailed     = "failed"
)

// Metrics holds the environment collectors.
type Metrics struct {
	Runs       *prometheus.CounterVec
	Steps      *prometheus.CounterVec
	RunSeconds *prometheus.HistogramVec
	Active     *prometheus.GaugeVec

	busy prometheus.Collector
}

// NewMetrics creates the collectors. Nothing is registered yet.
func NewMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Completed environment runs by outcome.",
			},
			[]string{"env", "outcome"},
		),
		Steps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "steps_total",
				Help:      "Simulation steps taken.",
			},
			[]string{"env"},
		),
		RunSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_simulated_seconds",
				Help:      "Simulated duration of completed runs.",
				Buckets:   []float64{1, 5, 10, 20, 30, 60, 120, 180, 300},
			},
			[]string{"env"},
		),
		Active: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_active",
				Help:      "Runs in progress.",
			},
			[]string{"env"},
		),
	}
}

// BusyCounter reports how many workers are in use. *workerpool.Pool satisfies it.
type BusyCounter interface {
	BusyCount() int
	Len() int
}

// WatchPool adds gauges for the busy and total worker counts of p.
// Call it before Register.
func (m *Metrics) WatchPool(p BusyCounter) {
	m.busy = &poolCollector{
		pool: p,
		busy: prometheus.NewDesc(prometheus.BuildFQName(namespace, "workers", "busy"), "Workers running a session.", nil, nil),
		size: prometheus.NewDesc(prometheus.BuildFQName(namespace, "workers", "total"), "Workers in the pool.", nil, nil),
	}
}

// Register registers every collector with r.
func (m *Metrics) Register(r prometheus.Registerer) error {
	cs := []prometheus.Collector{m.Runs, m.Steps, m.RunSeconds, m.Active}
	if m.busy != nil {
		cs = append(cs, m.busy)
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}

type poolCollector struct {
	pool       BusyCounter
	busy, size *prometheus.Desc
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.busy
	ch <- c.size
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(c.busy, prometheus.GaugeValue, float64(c.pool.BusyCount()))
	ch <- prometheus.MustNewConstMetric(c.size, prometheus.GaugeValue, float64(c.pool.Len()))
}
