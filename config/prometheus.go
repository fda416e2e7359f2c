package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry only holds reportcsv metrics so the textfile export stays free of runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	// One count per execution. Outcome is passed, mismatch, skipped or error.
	ValidationCounter = promauto.With(Registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "reportcsv",
		Name:      "validations_total",
		Help:      "CSV validations grouped by request name and outcome",
	}, []string{"request", "outcome"})

	MatchedGauge = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "reportcsv",
		Name:      "matched_executions",
		Help:      "Executions in the report matching the request name during the last run",
	}, []string{"request"})

	LastRunSuccessGauge = promauto.With(Registry).NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "reportcsv",
		Name:      "last_run_success",
		Help:      "1 when every matching execution validated in the last run, 0 otherwise",
	}, []string{"request"})
)

// WriteMetrics dumps the registry in the node_exporter textfile format.
func WriteMetrics(filename string) error {
	return prometheus.WriteToTextfile(filename, Registry)
}
