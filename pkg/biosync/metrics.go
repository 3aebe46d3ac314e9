package biosync

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "biosync"

// WriteMetrics exports the report in the Prometheus text format, suitable
// for the node_exporter textfile collector. The file is replaced atomically.
func WriteMetrics(path string, report Report) error {
	registry := prometheus.NewRegistry()

	gauge := func(name, help string) prometheus.Gauge {
		g := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      name,
			Help:      help,
		})
		registry.MustRegister(g)
		return g
	}

	gauge("models_processed", "Models processed during the last run.").Set(float64(report.Stats.Processed))
	gauge("models_succeeded", "Models whose firmware was updated during the last run.").Set(float64(report.Stats.Success))
	gauge("models_failed", "Models not updated during the last run, for any reason.").Set(float64(report.Stats.Failed))
	gauge("last_run_timestamp_seconds", "Completion time of the last run.").Set(float64(report.FinishedAt.Unix()))
	gauge("last_run_duration_seconds", "Duration of the last run.").Set(report.FinishedAt.Sub(report.StartedAt).Seconds())

	cancelled := gauge("last_run_cancelled", "Whether the last run was cancelled before completing.")
	if report.Cancelled {
		cancelled.Set(1)
	}

	outcomes := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "outcomes",
		Help:      "Outcomes of the last run by status.",
	}, []string{"status"})
	registry.MustRegister(outcomes)
	outcomes.WithLabelValues(string(StatusSuccess)).Set(float64(report.Stats.Success))
	outcomes.WithLabelValues(string(StatusNoUpdate)).Set(float64(report.Stats.NoUpdate))
	outcomes.WithLabelValues(string(StatusTimeout)).Set(float64(report.Stats.Timeout))
	outcomes.WithLabelValues(string(StatusError)).Set(float64(report.Stats.Errors))

	versions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "firmware_version",
		Help:      "Firmware version held locally per model after the last run.",
	}, []string{"model"})
	registry.MustRegister(versions)
	for _, o := range report.Outcomes {
		if o.After.Known() {
			versions.WithLabelValues(o.Model.String()).Set(float64(o.After))
		}
	}

	return prometheus.WriteToTextfile(path, registry)
}
