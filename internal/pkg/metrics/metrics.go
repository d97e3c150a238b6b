package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds every agent collector and is served on /metrics.
var Registry = prometheus.NewRegistry()

var (
	// CheckCyclesTotal counts check cycles by result: no_update, applied or failed.
	CheckCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_agent_check_cycles_total",
			Help: "Total number of update check cycles by result.",
		},
		[]string{"result"},
	)

	// CheckFailuresTotal counts failed cycles by reason.
	CheckFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_agent_check_failures_total",
			Help: "Total number of failed update check cycles by reason.",
		},
		[]string{"reason"},
	)

	// TransactionsTotal counts slot transactions by outcome: committed or aborted.
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ota_agent_slot_transactions_total",
			Help: "Total number of slot write transactions by outcome.",
		},
		[]string{"outcome"},
	)

	// BytesWrittenTotal counts image bytes written into the inactive slot.
	BytesWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ota_agent_slot_bytes_written_total",
			Help: "Total number of image bytes written into the inactive slot.",
		},
	)

	InstallDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ota_agent_install_duration_seconds",
			Help:    "Duration of image installs, from opening the transaction to commit or abort.",
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	// LastCheckTimestamp is the unix time of the last finished cycle.
	LastCheckTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ota_agent_last_check_timestamp_seconds",
			Help: "Unix time of the last finished update check cycle.",
		},
	)

	// BrokerConnected is 1 while the status reporter holds a broker connection.
	BrokerConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ota_agent_broker_connected",
			Help: "Connection state of the status reporter (1=connected, 0=disconnected).",
		},
	)
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		CheckCyclesTotal,
		CheckFailuresTotal,
		TransactionsTotal,
		BytesWrittenTotal,
		InstallDuration,
		LastCheckTimestamp,
		BrokerConnected,
	)
}
