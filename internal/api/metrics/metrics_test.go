package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

func TestResult(t *testing.T) {
	cases := map[string]error{
		"ok":              nil,
		"invalid":         domain.FieldError("buyer", "This field is required."),
		"not_found":       fmt.Errorf("find: %w", domain.ErrSaleNotFound),
		"bad_credentials": domain.ErrInvalidCredentials,
		"unauthenticated": domain.ErrUnauthenticated,
		"error":           errors.New("boom"),
	}
	for want, err := range cases {
		if got := Result(err); got != want {
			t.Fatalf("Result(%v) = %q, want %q", err, got, want)
		}
	}
}

func TestMetrics_CountsPerRegistry(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.Sale("create", nil)
	m.Sale("create", domain.FieldError("buyer", "This field is required."))
	m.Auth("login", domain.ErrInvalidCredentials)
	m.Installments(4)

	if v := testutil.ToFloat64(m.SaleOperations.WithLabelValues("create", "ok")); v != 1 {
		t.Fatalf("expected 1 ok create, got %v", v)
	}
	if v := testutil.ToFloat64(m.SaleOperations.WithLabelValues("create", "invalid")); v != 1 {
		t.Fatalf("expected 1 invalid create, got %v", v)
	}
	if v := testutil.ToFloat64(m.AuthOperations.WithLabelValues("login", "bad_credentials")); v != 1 {
		t.Fatalf("expected 1 failed login, got %v", v)
	}
	if v := testutil.ToFloat64(m.InstallmentsGenerated); v != 4 {
		t.Fatalf("expected 4 installments, got %v", v)
	}

	// a second registry must not collide
	_ = New(prometheus.NewRegistry())
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.Sale("list", nil)
	m.Auth("login", nil)
	m.Installments(1)
}
