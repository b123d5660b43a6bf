package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Payment records
	TransactionsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpay_transactions_created_total",
			Help: "Payment records created",
		},
	)
	StatusTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qrpay_status_transitions_total",
			Help: "PENDING -> terminal transitions applied",
		},
		[]string{"status"}, // APPROVED|REJECTED
	)
	TransitionConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpay_status_conflicts_total",
			Help: "Transitions refused because the record left PENDING",
		},
	)
	RefundsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpay_refunds_recorded_total",
			Help: "Refund hashes recorded",
		},
	)

	// Live stream
	StreamSubscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "qrpay_stream_subscribers",
			Help: "Connected live-stream subscribers",
		},
	)
	StreamDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "qrpay_stream_dropped_total",
			Help: "Events dropped because a subscriber buffer was full",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)

	initOnce sync.Once
)

// Handler serves /metrics.
var Handler = promhttp.Handler

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestsTotal,
			TransactionsCreated,
			StatusTransitions,
			TransitionConflicts,
			RefundsRecorded,
			StreamSubscribers,
			StreamDropped,
			WorkerQueueDepth,
		)
	})
}
