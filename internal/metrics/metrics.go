// Package metrics exposes Prometheus instrumentation for the scan job.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsStarted counts triggers that entered the pipeline.
	RunsStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ota_scan_runs_started_total",
		Help: "Scan runs that passed the re-entrancy guard.",
	})

	// OverlapSkips counts triggers absorbed while a run was in flight.
	OverlapSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ota_scan_overlap_skips_total",
		Help: "Triggers skipped because the previous run was still active.",
	})

	// StageFailures counts pipeline stage errors by stage name.
	StageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ota_scan_stage_failures_total",
		Help: "Pipeline failures by stage.",
	}, []string{"stage"})

	// WarningRows counts report rows emitted across all runs.
	WarningRows = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ota_scan_warning_rows_total",
		Help: "Warning rows written to reports.",
	})

	// ReportsSent counts successfully dispatched report mails.
	ReportsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ota_scan_reports_sent_total",
		Help: "Report mails handed to the relay.",
	})

	// LastRunUnix records when the most recent run started.
	LastRunUnix = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ota_scan_last_run_timestamp_seconds",
		Help: "Start time of the most recent run, as a unix timestamp.",
	})

	jobInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ota_scan_info",
		Help: "Static job information.",
	}, []string{"version"})
)

// Init sets the static info metric.
func Init(version string) {
	jobInfo.WithLabelValues(version).Set(1)
}
