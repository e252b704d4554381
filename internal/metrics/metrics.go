package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "africoin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "africoin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	OnboardsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "africoin_onboards_total",
			Help: "Total number of wallets created",
		},
	)

	TransfersTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "africoin_transfers_total",
			Help: "Total number of completed transfers",
		},
	)

	TopUpsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "africoin_topups_total",
			Help: "Total number of wallet top-ups",
		},
	)

	ReceiptsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "africoin_receipts_sent_total",
			Help: "Total number of transaction receipts delivered",
		},
		[]string{"status"},
	)

	ReceiptQueueLength = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "africoin_receipt_queue_length",
			Help: "Current length of the receipt queue",
		},
	)

	ConservationDelta = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "africoin_conservation_delta",
			Help: "Sum of completed system credits minus sum of all balances; zero when value is conserved",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordOnboard() {
	OnboardsTotal.Inc()
}

func RecordTransfer() {
	TransfersTotal.Inc()
}

func RecordTopUp() {
	TopUpsTotal.Inc()
}

func RecordReceipt(status string) {
	ReceiptsSentTotal.WithLabelValues(status).Inc()
}

func SetConservationDelta(delta float64) {
	ConservationDelta.Set(delta)
}
