// Package metrics defines the custom Prometheus metrics of the sales API. It is
// the single source of truth for metric names, labels, and help strings.
//
// Metrics are registered on the registry handed to New so each router owns its
// own set and tests can build routers side by side.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

const namespace = "sales"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	// AuthOperations counts identity operations.
	// Labels:
	//   - op: "register", "login", "logout"
	//   - result: see Result
	AuthOperations *prometheus.CounterVec

	// SaleOperations counts sale resource operations.
	// Labels:
	//   - op: "list", "get", "create", "update", "delete", "schedule", "commission"
	//   - result: see Result
	SaleOperations *prometheus.CounterVec

	// InstallmentsGenerated counts installments produced by schedule previews.
	InstallmentsGenerated prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		AuthOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_operations_total",
				Help:      "Total number of identity operations, by operation and result.",
			},
			[]string{"op", "result"},
		),
		SaleOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sale_operations_total",
				Help:      "Total number of sale operations, by operation and result.",
			},
			[]string{"op", "result"},
		),
		InstallmentsGenerated: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "installments_generated_total",
				Help:      "Total number of installments generated by schedule previews.",
			},
		),
	}
}

// Result reduces an operation error to a low-cardinality label value.
func Result(err error) string {
	var verr *domain.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &verr):
		return "invalid"
	case errors.Is(err, domain.ErrSaleNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrInvalidCredentials):
		return "bad_credentials"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	default:
		return "error"
	}
}

func (m *Metrics) Auth(op string, err error) {
	if m == nil {
		return
	}
	m.AuthOperations.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) Sale(op string, err error) {
	if m == nil {
		return
	}
	m.SaleOperations.WithLabelValues(op, Result(err)).Inc()
}

func (m *Metrics) Installments(n int) {
	if m == nil {
		return
	}
	m.InstallmentsGenerated.Add(float64(n))
}
