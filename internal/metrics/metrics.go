package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Contract metrics
	ContractCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_contract_calls_total",
			Help: "Total number of read-only contract calls",
		},
		[]string{"method", "status"}, // marketCount/getMarket/..., success/error
	)

	ContractCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictdash_contract_call_duration_seconds",
			Help:    "Duration of read-only contract calls",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method"},
	)

	// Transaction metrics
	Transactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_transactions_total",
			Help: "Total number of submitted transactions",
		},
		[]string{"kind", "status"}, // approve/buy, confirmed/reverted/error
	)

	ConfirmationLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "predictdash_confirmation_latency_seconds",
			Help:    "Time from broadcast until the receipt is observed",
			Buckets: []float64{1, 2, 4, 8, 15, 30, 60, 120},
		},
		[]string{"kind"},
	)

	// Wizard metrics
	WizardTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_wizard_transitions_total",
			Help: "Total number of purchase wizard step transitions",
		},
		[]string{"from", "to"},
	)

	Purchases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_purchases_total",
			Help: "Total number of share purchases",
		},
		[]string{"option", "status"}, // A/B, confirmed/failed
	)

	// API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "predictdash_http_requests_total",
			Help: "Total number of HTTP API requests",
		},
		[]string{"method", "status"},
	)
)

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordContractCall records a read-only contract call.
func RecordContractCall(method string, duration time.Duration, err error) {
	ContractCalls.WithLabelValues(method, status(err)).Inc()
	ContractCallDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordTransaction records the outcome of a submitted transaction. The
// latency is only observed for mined transactions.
func RecordTransaction(kind, txStatus string, latency time.Duration) {
	Transactions.WithLabelValues(kind, txStatus).Inc()
	if latency > 0 {
		ConfirmationLatency.WithLabelValues(kind).Observe(latency.Seconds())
	}
}

// RecordWizardTransition records a purchase wizard step change.
func RecordWizardTransition(from, to string) {
	WizardTransitions.WithLabelValues(from, to).Inc()
}

// RecordPurchase records a purchase attempt that reached the chain.
func RecordPurchase(option string, err error) {
	s := "confirmed"
	if err != nil {
		s = "failed"
	}
	Purchases.WithLabelValues(option, s).Inc()
}

// RecordHTTPRequest records one API response by method and status code.
func RecordHTTPRequest(method string, code int) {
	HTTPRequests.WithLabelValues(method, strconv.Itoa(code)).Inc()
}
