package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// SalePayload is a sale body as received, keyed by JSON field name. Keeping
// the raw values lets the service report a type error per field and tell
// omitted fields apart from zero values on partial updates.
type SalePayload map[string]json.RawMessage

// ScheduleInput describes the sale a payment schedule is generated for.
type ScheduleInput struct {
	Value           decimal.Decimal
	PaymentTerm     int
	ProductLine     string
	DiscountPercent decimal.Decimal
	// StartDate defaults to today when zero.
	StartDate time.Time
}

// SchedulePreview is a generated schedule that has not been stored.
type SchedulePreview struct {
	CommissionRate decimal.Decimal
	Installments   []domain.Installment
}

// CommissionSummary totals the commission of billed installments due in a month.
type CommissionSummary struct {
	Month        time.Time
	PayoutMonth  time.Time
	Total        decimal.Decimal
	Installments int
}

// SaleService exposes the caller-scoped operations on sales.
type SaleService interface {
	ListSales(ctx context.Context, userID string) ([]*domain.Sale, error)
	GetSale(ctx context.Context, userID, id string) (*domain.Sale, error)
	CreateSale(ctx context.Context, userID string, payload SalePayload) (*domain.Sale, error)
	UpdateSale(ctx context.Context, userID, id string, payload SalePayload) (*domain.Sale, error)
	DeleteSale(ctx context.Context, userID, id string) error
	PreviewSchedule(ctx context.Context, input ScheduleInput) (*SchedulePreview, error)
	MonthlyCommission(ctx context.Context, userID string, month time.Time) (*CommissionSummary, error)
}
