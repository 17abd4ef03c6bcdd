package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Transaction metrics
	TransactionsCreated    prometheus.Counter
	Rollbacks              prometheus.Counter
	TransactionsRolledBack prometheus.Counter
	CascadeSize            prometheus.Histogram
	LedgerTransactions     *prometheus.GaugeVec

	// Operation metrics
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec

	// Event metrics
	EventsPublished *prometheus.CounterVec
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		TransactionsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_transactions_created_total",
			Help: "Total number of transactions created",
		}),
		Rollbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_rollbacks_total",
			Help: "Total number of successful rollback requests",
		}),
		TransactionsRolledBack: factory.NewCounter(prometheus.CounterOpts{
			Name: "txledger_transactions_rolled_back_total",
			Help: "Total number of transactions deactivated by rollback cascades",
		}),
		CascadeSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "txledger_rollback_cascade_size",
			Help:    "Number of transactions deactivated per rollback",
			Buckets: []float64{1, 2, 5, 10, 50, 100, 500, 1000, 10000},
		}),
		LedgerTransactions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "txledger_transactions",
				Help: "Current number of transactions by state",
			},
			[]string{"state"},
		),

		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "txledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: []float64{.00001, .0001, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"operation"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_operation_errors_total",
				Help: "Total number of failed ledger operations by error type",
			},
			[]string{"operation", "error_type"},
		),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "txledger_events_total",
				Help: "Total domain events by delivery status",
			},
			[]string{"event_type", "status"},
		),
	}
}
