package metrics

import (
	dto "github.com/prometheus/client_model/go"
)

// Summary is a plain-struct view of the run's metrics, used for the final
// log line.
type Summary struct {
	Fetched    float64
	Skipped    float64
	Uploaded   float64
	Failed     float64
	BilledCost float64
	Duration   float64
}

// Snapshot gathers the registry into a Summary, totalled across providers.
func (m *Metrics) Snapshot() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	return Summary{
		Fetched:    sumCounter(fam["tally_records_fetched_total"]),
		Skipped:    sumCounter(fam["tally_records_skipped_total"]),
		Uploaded:   sumCounter(fam["tally_records_uploaded_total"]),
		Failed:     sumCounter(fam["tally_records_failed_total"]),
		BilledCost: sumGauge(fam["tally_billed_cost_total"]),
		Duration:   gaugeValue(fam["tally_run_duration_seconds"]),
	}, nil
}

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func sumGauge(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetGauge() != nil {
			total += m.GetGauge().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 {
		return 0
	}
	if ms[0].GetGauge() != nil {
		return ms[0].GetGauge().GetValue()
	}
	return 0
}
