package mongo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

func TestSaleDoc_RoundTripKeepsScale(t *testing.T) {
	commission := decimal.RequireFromString("15.00")
	created := time.Date(2025, 5, 6, 12, 0, 0, 0, time.UTC)
	sale := &domain.Sale{
		ID:              "s1",
		UserID:          "u1",
		ProductLine:     domain.ProductLineAves,
		Value:           decimal.RequireFromString("1000.00"),
		DiscountPercent: decimal.RequireFromString("5.50"),
		PaymentTerm:     60,
		PaymentDates: []domain.Installment{
			{Month: 30, Value: decimal.RequireFromString("500.00"), Commission: &commission, PaymentDate: "05/06/2025", Billed: true},
			{Month: 60, Value: decimal.RequireFromString("500.00"), PaymentDate: "05/07/2025"},
		},
		Buyer:     "Acme",
		CreatedAt: created,
	}

	doc, err := toSaleDoc(sale)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if doc.Value.String() != "1000.00" {
		t.Fatalf("expected Decimal128 1000.00, got %s", doc.Value)
	}

	got, err := doc.toDomain()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Value.StringFixed(2) != "1000.00" || got.DiscountPercent.String() != "5.5" {
		t.Fatalf("unexpected amounts: %s %s", got.Value, got.DiscountPercent)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("created_at drifted: %v", got.CreatedAt)
	}
	if len(got.PaymentDates) != 2 || !got.PaymentDates[0].Billed || got.PaymentDates[1].Commission != nil {
		t.Fatalf("unexpected schedule: %+v", got.PaymentDates)
	}
	if !got.PaymentDates[0].Commission.Equal(commission) {
		t.Fatalf("commission drifted: %s", got.PaymentDates[0].Commission)
	}
}

func TestSaleDoc_EmptyScheduleStaysEmpty(t *testing.T) {
	doc, err := toSaleDoc(&domain.Sale{ID: "s1", Value: decimal.Zero, DiscountPercent: decimal.Zero})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if doc.PaymentDates == nil {
		t.Fatalf("payment_dates must encode as an empty array, not null")
	}
	got, err := doc.toDomain()
	if err != nil || got.PaymentDates == nil || len(got.PaymentDates) != 0 {
		t.Fatalf("unexpected decode: %v %+v", err, got)
	}
}
