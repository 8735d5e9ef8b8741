package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics records counters for loan lifecycle operations and stock
// availability clamps.
type LedgerMetrics struct {
	loanOps    *prometheus.CounterVec
	stockClamp *prometheus.CounterVec
	authDenied *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	loanOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "loan_operations_total",
		Help: "Loan lifecycle operations by kind.",
	}, []string{"operation"})
	stockClamp := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_clamp_total",
		Help: "Stock availability adjustments clamped at a boundary.",
	}, []string{"bound"})
	authDenied := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auth_denied_total",
		Help: "Rejected requests by reason.",
	}, []string{"reason"})
	reg.MustRegister(loanOps, stockClamp, authDenied)
	return &LedgerMetrics{
		loanOps:    loanOps,
		stockClamp: stockClamp,
		authDenied: authDenied,
	}
}

// IncLoanOp increments the counter for the named loan operation.
func (m *LedgerMetrics) IncLoanOp(operation string) {
	if m == nil || m.loanOps == nil {
		return
	}
	m.loanOps.WithLabelValues(normalizeLabel(operation)).Inc()
}

// IncStockClamp records that an availability adjustment hit the lower or
// upper bound and was clamped instead of applied verbatim.
func (m *LedgerMetrics) IncStockClamp(bound string) {
	if m == nil || m.stockClamp == nil {
		return
	}
	m.stockClamp.WithLabelValues(normalizeLabel(bound)).Inc()
}

// IncAuthDenied increments the rejected-request counter for the given reason.
func (m *LedgerMetrics) IncAuthDenied(reason string) {
	if m == nil || m.authDenied == nil {
		return
	}
	m.authDenied.WithLabelValues(normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
