package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/iho/bankledger/internal/domain"
)

// Operation outcomes used as the "status" label.
const (
	StatusSuccess           = "success"
	StatusNotFound          = "not_found"
	StatusValidation        = "validation"
	StatusInsufficientFunds = "insufficient_funds"
	StatusConflict          = "conflict"
	StatusStorage           = "storage"
	StatusError             = "error"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	AccountsCreated   prometheus.Counter
	LedgerOperations  *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationAmount   *prometheus.HistogramVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates all metrics and registers them with reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AccountsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_accounts_created_total",
			Help: "Total number of accounts created",
		}),
		LedgerOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_ledger_operations_total",
				Help: "Ledger operations by type and outcome",
			},
			[]string{"operation", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_ledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_ledger_operation_amount",
				Help:    "Amounts of committed ledger operations",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"operation"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bankledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bankledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "bankledger_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
}

// AccountCreated implements usecase.MetricsRecorder.
func (m *Metrics) AccountCreated() {
	m.AccountsCreated.Inc()
}

// ObserveOperation implements usecase.MetricsRecorder.
func (m *Metrics) ObserveOperation(operation string, amount decimal.Decimal, err error, duration time.Duration) {
	status := Status(err)

	m.LedgerOperations.WithLabelValues(operation, status).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(duration.Seconds())

	if status == StatusSuccess {
		m.OperationAmount.WithLabelValues(operation).Observe(amount.InexactFloat64())
	}
}

// Status maps an operation error to its metric label.
func Status(err error) string {
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, domain.ErrAccountNotFound):
		return StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		return StatusValidation
	case errors.Is(err, domain.ErrInsufficientFunds):
		return StatusInsufficientFunds
	case errors.Is(err, domain.ErrConcurrentUpdate):
		return StatusConflict
	case errors.Is(err, domain.ErrStorage):
		return StatusStorage
	default:
		return StatusError
	}
}
