package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
)

type stubSaleRepo struct {
	sales []*domain.Sale
}

func (r *stubSaleRepo) Create(_ context.Context, sale *domain.Sale) error {
	r.sales = append(r.sales, sale.Clone())
	return nil
}

func (r *stubSaleRepo) ListByOwner(_ context.Context, userID string) ([]*domain.Sale, error) {
	var out []*domain.Sale
	for _, s := range r.sales {
		if s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id, userID string) (*domain.Sale, error) {
	for _, s := range r.sales {
		if s.ID == id && s.UserID == userID {
			return s.Clone(), nil
		}
	}
	return nil, domain.ErrSaleNotFound
}

func (r *stubSaleRepo) Update(_ context.Context, sale *domain.Sale) error {
	for i, s := range r.sales {
		if s.ID == sale.ID && s.UserID == sale.UserID {
			r.sales[i] = sale.Clone()
			return nil
		}
	}
	return domain.ErrSaleNotFound
}

func (r *stubSaleRepo) Delete(_ context.Context, id, userID string) error {
	for i, s := range r.sales {
		if s.ID == id && s.UserID == userID {
			r.sales = append(r.sales[:i], r.sales[i+1:]...)
			return nil
		}
	}
	return domain.ErrSaleNotFound
}

func newSaleService(policy validation.Policy) (*SaleService, *stubSaleRepo) {
	repo := &stubSaleRepo{}
	return NewSaleService(repo, validation.New(policy), zerolog.Nop()), repo
}

func payload(t *testing.T, body string) ports.SalePayload {
	t.Helper()
	var p ports.SalePayload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("bad test payload: %v", err)
	}
	return p
}

const avesSale = `{
	"product_line": "aves",
	"value": 1000.00,
	"discount_percent": 7.00,
	"payment_term": 120,
	"buyer": "Acme",
	"payment_dates": [
		{"month": 30, "value": 250, "paymentDate": "05/06/2025"},
		{"month": 60, "value": 250, "paymentDate": "05/07/2025"},
		{"month": 90, "value": 250, "paymentDate": "05/08/2025"},
		{"month": 120, "value": 250, "paymentDate": "05/09/2025"}
	]
}`

func validationFields(t *testing.T, err error) map[string][]string {
	t.Helper()
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *domain.ValidationError, got %v", err)
	}
	return verr.Fields
}

func TestSaleService_Create_ForcesOwner(t *testing.T) {
	svc, repo := newSaleService(validation.Policy{})

	p := payload(t, avesSale)
	p["user"] = json.RawMessage(`"someone-else"`)
	p["id"] = json.RawMessage(`"chosen-id"`)

	sale, err := svc.CreateSale(context.Background(), "alice", p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sale.UserID != "alice" {
		t.Fatalf("owner = %s, want alice", sale.UserID)
	}
	if sale.ID == "" || sale.ID == "chosen-id" {
		t.Fatalf("expected a server assigned id, got %q", sale.ID)
	}
	if len(repo.sales) != 1 {
		t.Fatalf("expected one stored sale")
	}
	if !sale.Value.Equal(decimal.NewFromInt(1000)) || !sale.DiscountPercent.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected amounts: %s / %s", sale.Value, sale.DiscountPercent)
	}
	if len(sale.PaymentDates) != 4 || sale.PaymentDates[3].PaymentDate != "05/09/2025" {
		t.Fatalf("unexpected schedule: %+v", sale.PaymentDates)
	}
}

func TestSaleService_Create_AggregatesErrors(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})

	fields := validationFields(t, func() error {
		_, err := svc.CreateSale(context.Background(), "alice", payload(t, `{
			"product_line": "",
			"value": "12345678901.5",
			"discount_percent": "abc",
			"payment_term": 1.5,
			"payment_dates": [{"month": 30, "value": 10, "paymentDate": "June 5th"}, 7]
		}`))
		return err
	}())

	want := map[string]string{
		"product_line":                 "This field is required.",
		"value":                        "Ensure that there are no more than 10 digits in total.",
		"discount_percent":             msgNumber,
		"payment_term":                 msgInteger,
		"buyer":                        msgRequired,
		"payment_dates[1]":             `Invalid data. Expected a dictionary, but got int.`,
		"payment_dates[0].paymentDate": "Date has wrong format. Use one of these formats instead: DD/MM/YYYY, YYYY-MM-DD.",
	}
	for field, msg := range want {
		got := fields[field]
		if len(got) != 1 || got[0] != msg {
			t.Fatalf("%s: got %v, want %q", field, got, msg)
		}
	}
	if len(fields) != len(want) {
		t.Fatalf("unexpected extra errors: %v", fields)
	}
}

func TestSaleService_Create_RejectsNonListSchedule(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})

	p := payload(t, avesSale)
	p["payment_dates"] = json.RawMessage(`{"month": 30}`)

	fields := validationFields(t, func() error { _, err := svc.CreateSale(context.Background(), "alice", p); return err }())
	if got := fields["payment_dates"]; len(got) != 1 || got[0] != `Expected a list of items but got type "dict".` {
		t.Fatalf("unexpected payment_dates errors: %v", got)
	}
}

func TestSaleService_Create_AcceptsNumericStrings(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})

	sale, err := svc.CreateSale(context.Background(), "alice", payload(t, `{
		"product_line": "racoes",
		"value": "99.90",
		"discount_percent": "0",
		"payment_term": "28",
		"buyer": "Farm",
		"payment_dates": [{"month": "28", "value": "99.90", "commission": 3, "paymentDate": "2025-02-01", "billed": true}]
	}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if sale.PaymentTerm != 28 || sale.PaymentDates[0].Month != 28 || !sale.PaymentDates[0].Billed {
		t.Fatalf("unexpected sale: %+v", sale)
	}
}

func TestSaleService_Create_BoundsTermAndInstallments(t *testing.T) {
	svc, repo := newSaleService(validation.Policy{})

	p := payload(t, avesSale)
	p["payment_term"] = json.RawMessage(`3601`)
	items := make([]string, domain.MaxInstallments+1)
	for i := range items {
		items[i] = `{"month": 30, "value": 1, "paymentDate": "05/06/2025"}`
	}
	p["payment_dates"] = json.RawMessage("[" + strings.Join(items, ",") + "]")

	fields := validationFields(t, func() error {
		_, err := svc.CreateSale(context.Background(), "alice", p)
		return err
	}())

	if got := fields["payment_term"]; len(got) != 1 || got[0] != "Ensure this value is less than or equal to 3600." {
		t.Fatalf("unexpected payment_term errors: %v", got)
	}
	if got := fields["payment_dates"]; len(got) != 1 || got[0] != "Ensure this field has no more than 120 elements." {
		t.Fatalf("unexpected payment_dates errors: %v", got)
	}
	if len(repo.sales) != 0 {
		t.Fatalf("nothing should be stored")
	}

	p = payload(t, avesSale)
	p["payment_term"] = json.RawMessage(`3600`)
	if _, err := svc.CreateSale(context.Background(), "alice", p); err != nil {
		t.Fatalf("the longest term must be accepted: %v", err)
	}
}

func TestSaleService_PolicyFlags(t *testing.T) {
	body := `{"product_line": "widgets", "value": 10, "discount_percent": 150, "payment_term": 0, "buyer": "X", "payment_dates": []}`

	lenient, _ := newSaleService(validation.Policy{})
	if _, err := lenient.CreateSale(context.Background(), "alice", payload(t, body)); err != nil {
		t.Fatalf("lenient policy rejected payload: %v", err)
	}

	strict, _ := newSaleService(validation.Policy{EnforceProductLines: true, EnforceDiscountRange: true})
	fields := validationFields(t, func() error {
		_, err := strict.CreateSale(context.Background(), "alice", payload(t, body))
		return err
	}())
	if _, ok := fields["product_line"]; !ok {
		t.Fatalf("expected product_line error, got %v", fields)
	}
	if _, ok := fields["discount_percent"]; !ok {
		t.Fatalf("expected discount_percent error, got %v", fields)
	}
}

func TestSaleService_Update_OnlyTouchesSuppliedFields(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})
	created, err := svc.CreateSale(context.Background(), "alice", payload(t, avesSale))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.UpdateSale(context.Background(), "alice", created.ID, payload(t, `{"buyer": "Globex", "user": "mallory"}`))
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Buyer != "Globex" {
		t.Fatalf("buyer not updated: %s", updated.Buyer)
	}
	if updated.UserID != "alice" || updated.ProductLine != "aves" || updated.PaymentTerm != 120 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if !updated.Value.Equal(created.Value) || len(updated.PaymentDates) != len(created.PaymentDates) {
		t.Fatalf("untouched amounts changed: %+v", updated)
	}

	stored, _ := svc.GetSale(context.Background(), "alice", created.ID)
	if stored.Buyer != "Globex" || !stored.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("update not persisted: %+v", stored)
	}
}

func TestSaleService_Update_RevalidatesMergedRecord(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})
	created, _ := svc.CreateSale(context.Background(), "alice", payload(t, avesSale))

	fields := validationFields(t, func() error {
		_, err := svc.UpdateSale(context.Background(), "alice", created.ID, payload(t, `{"value": -5, "buyer": null}`))
		return err
	}())
	if _, ok := fields["value"]; !ok {
		t.Fatalf("expected value error, got %v", fields)
	}
	if got := fields["buyer"]; len(got) != 1 || got[0] != msgNull {
		t.Fatalf("unexpected buyer error: %v", got)
	}

	stored, _ := svc.GetSale(context.Background(), "alice", created.ID)
	if stored.Buyer != "Acme" {
		t.Fatalf("failed update must not be stored")
	}
}

func TestSaleService_OwnershipIsolation(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})
	created, _ := svc.CreateSale(context.Background(), "alice", payload(t, avesSale))

	list, _ := svc.ListSales(context.Background(), "bob")
	if len(list) != 0 {
		t.Fatalf("bob sees alice's sales: %v", list)
	}
	if _, err := svc.GetSale(context.Background(), "bob", created.ID); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on get, got %v", err)
	}
	if _, err := svc.UpdateSale(context.Background(), "bob", created.ID, payload(t, `{"buyer":"x"}`)); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on update, got %v", err)
	}
	if err := svc.DeleteSale(context.Background(), "bob", created.ID); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on delete, got %v", err)
	}
}

func TestSaleService_DeleteTwice(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})
	created, _ := svc.CreateSale(context.Background(), "alice", payload(t, avesSale))

	if err := svc.DeleteSale(context.Background(), "alice", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := svc.ListSales(context.Background(), "alice")
	if len(list) != 0 {
		t.Fatalf("deleted sale still listed")
	}
	if err := svc.DeleteSale(context.Background(), "alice", created.ID); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on second delete, got %v", err)
	}
}

func TestSaleService_PreviewSchedule(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})

	preview, err := svc.PreviewSchedule(context.Background(), ports.ScheduleInput{
		Value:           decimal.NewFromInt(1000),
		PaymentTerm:     60,
		ProductLine:     domain.ProductLineAves,
		DiscountPercent: decimal.Zero,
		StartDate:       time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if !preview.CommissionRate.Equal(decimal.New(10, -2)) {
		t.Fatalf("rate = %s", preview.CommissionRate)
	}
	if len(preview.Installments) != 2 || preview.Installments[0].PaymentDate != "31/03/2025" {
		t.Fatalf("unexpected installments: %+v", preview.Installments)
	}
}

func TestSaleService_MonthlyCommission(t *testing.T) {
	svc, _ := newSaleService(validation.Policy{})

	_, err := svc.CreateSale(context.Background(), "alice", payload(t, `{
		"product_line": "aves", "value": 300, "discount_percent": 0, "payment_term": 90, "buyer": "Acme",
		"payment_dates": [
			{"month": 30, "value": 100, "commission": 10, "paymentDate": "15/06/2025", "billed": true},
			{"month": 60, "value": 100, "commission": 10, "paymentDate": "15/07/2025", "billed": true},
			{"month": 90, "value": 100, "commission": 10, "paymentDate": "2025-06-30", "billed": false}
		]
	}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err = svc.CreateSale(context.Background(), "alice", payload(t, `{
		"product_line": "racoes", "value": 100, "discount_percent": 0, "payment_term": 0, "buyer": "Farm",
		"payment_dates": [{"month": 0, "value": 100, "commission": 3.5, "paymentDate": "2025-06-02", "billed": true}]
	}`))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	_, _ = svc.CreateSale(context.Background(), "bob", payload(t, `{
		"product_line": "aves", "value": 100, "discount_percent": 0, "payment_term": 0, "buyer": "Other",
		"payment_dates": [{"month": 0, "value": 100, "commission": 99, "paymentDate": "2025-06-02", "billed": true}]
	}`))

	summary, err := svc.MonthlyCommission(context.Background(), "alice", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("commission: %v", err)
	}
	if !summary.Total.Equal(decimal.RequireFromString("13.5")) {
		t.Fatalf("total = %s, want 13.5", summary.Total)
	}
	if summary.Installments != 2 {
		t.Fatalf("installments = %d, want 2", summary.Installments)
	}
	if summary.PayoutMonth.Month() != time.July || summary.PayoutMonth.Year() != 2025 {
		t.Fatalf("payout month = %v", summary.PayoutMonth)
	}
}
