package metrics

import (
	"estate-ledger/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the ledger's Prometheus collectors.
type Metrics struct {
	Operations      *prometheus.CounterVec
	SharesIssued    prometheus.Counter
	SharesMoved     prometheus.Counter
	TotalProperties prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "estate_ledger_operations_total",
			Help: "Ledger operations by name and outcome (ok or the rejection kind)",
		}, []string{"operation", "outcome"}),
		SharesIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "estate_ledger_shares_issued_total",
			Help: "Total number of shares sold from property pools",
		}),
		SharesMoved: f.NewCounter(prometheus.CounterOpts{
			Name: "estate_ledger_shares_transferred_total",
			Help: "Total number of shares moved between holders",
		}),
		TotalProperties: f.NewGauge(prometheus.GaugeOpts{
			Name: "estate_ledger_properties",
			Help: "Number of listed properties at the last stats snapshot",
		}),
	}
}

// ObserveOperation counts one operation outcome. Nil receivers are ignored so handlers work without metrics.
func (m *Metrics) ObserveOperation(operation string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if le, ok := domain.AsLedgerError(err); ok {
			outcome = le.Kind
		}
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AddSharesIssued(n int64) {
	if m == nil {
		return
	}
	m.SharesIssued.Add(float64(n))
}

func (m *Metrics) AddSharesTransferred(n int64) {
	if m == nil {
		return
	}
	m.SharesMoved.Add(float64(n))
}

func (m *Metrics) SetTotalProperties(n uint64) {
	if m == nil {
		return
	}
	m.TotalProperties.Set(float64(n))
}
