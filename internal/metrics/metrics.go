package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Metrics holds the Prometheus collectors for one run of the collector. They
// live on a private registry so a run pushes exactly its own values.
type Metrics struct {
	registry *prometheus.Registry

	RecordsFetched  *prometheus.CounterVec
	RecordsSkipped  *prometheus.CounterVec
	RecordsUploaded *prometheus.CounterVec
	RecordsFailed   *prometheus.CounterVec

	RunDuration  prometheus.Gauge
	BilledCost   *prometheus.GaugeVec
	RunTimestamp prometheus.Gauge
}

// New creates and registers all metrics on a private registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,

		RecordsFetched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_records_fetched_total",
			Help: "Raw usage records fetched from the provider.",
		}, []string{"provider"}),

		RecordsSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_records_skipped_total",
			Help: "Raw usage records skipped during transformation.",
		}, []string{"provider", "reason"}),

		RecordsUploaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_records_uploaded_total",
			Help: "Cost records accepted by the cost-management API.",
		}, []string{"provider"}),

		RecordsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tally_records_failed_total",
			Help: "Cost records that failed validation or upload.",
		}, []string{"provider"}),

		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_run_duration_seconds",
			Help: "Wall-clock duration of the run.",
		}),

		BilledCost: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tally_billed_cost_total",
			Help: "Total billed cost in USD produced by the run.",
		}, []string{"provider"}),

		RunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tally_run_timestamp_seconds",
			Help: "Unix timestamp when the run started.",
		}),
	}

	reg.MustRegister(
		m.RecordsFetched,
		m.RecordsSkipped,
		m.RecordsUploaded,
		m.RecordsFailed,
		m.RunDuration,
		m.BilledCost,
		m.RunTimestamp,
	)

	m.RunTimestamp.Set(float64(time.Now().Unix()))

	return m
}

// Registry returns the private Prometheus registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the registry to a Prometheus Pushgateway, grouped so that runs
// for different providers do not overwrite each other.
func (m *Metrics) Push(url, job string, grouping map[string]string) error {
	pusher := push.New(url, job).Gatherer(m.registry)
	for k, v := range grouping {
		pusher = pusher.Grouping(k, v)
	}
	return pusher.Push()
}
