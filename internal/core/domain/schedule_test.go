package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestCommissionRate(t *testing.T) {
	cases := []struct {
		line     string
		discount string
		want     string
	}{
		{ProductLineRacoes, "0", "0.03"},
		{ProductLineRacoes, "0.01", "0.02"},
		{ProductLineRacoes, "10", "0.02"},
		{ProductLineRacoes, "10.01", "0"},
		{ProductLineAves, "0", "0.10"},
		{ProductLineAves, "2", "0.09"},
		{ProductLineAves, "2.01", "0.08"},
		{ProductLineAves, "7", "0.06"},
		{ProductLineSuinos, "10", "0.05"},
		{ProductLinePet, "12", "0.04"},
		{ProductLineAqua, "14", "0.03"},
		{ProductLineAqua, "14.5", "0.02"},
		{ProductLineAqua, "90", "0.02"},
		{ProductLineAves, "-1", "0"},
	}

	for _, tc := range cases {
		got := CommissionRate(tc.line, decimal.RequireFromString(tc.discount))
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("CommissionRate(%s, %s) = %s, want %s", tc.line, tc.discount, got, tc.want)
		}
	}
}

func TestBuildSchedule_Installments(t *testing.T) {
	start := time.Date(2025, 5, 6, 0, 0, 0, 0, time.UTC)
	schedule := BuildSchedule(decimal.NewFromInt(1000), 120, ProductLineAves, decimal.NewFromInt(7), start)

	if len(schedule) != 4 {
		t.Fatalf("expected 4 installments, got %d", len(schedule))
	}

	wantDates := []string{"05/06/2025", "05/07/2025", "04/08/2025", "03/09/2025"}
	sum := decimal.Zero
	for i, inst := range schedule {
		if inst.Month != (i+1)*30 {
			t.Fatalf("installment %d: month = %d", i, inst.Month)
		}
		if inst.PaymentDate != wantDates[i] {
			t.Fatalf("installment %d: date = %s, want %s", i, inst.PaymentDate, wantDates[i])
		}
		if !inst.Value.Equal(decimal.NewFromInt(250)) {
			t.Fatalf("installment %d: value = %s", i, inst.Value)
		}
		if inst.Commission == nil || !inst.Commission.Equal(decimal.NewFromInt(15)) {
			t.Fatalf("installment %d: commission = %v", i, inst.Commission)
		}
		if inst.Billed {
			t.Fatalf("installment %d should start unbilled", i)
		}
		sum = sum.Add(inst.Value)
	}
	if !sum.Equal(decimal.NewFromInt(1000)) {
		t.Fatalf("schedule sums to %s", sum)
	}
}

func TestBuildSchedule_RemainderOnLastInstallment(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := BuildSchedule(decimal.NewFromInt(1000), 90, ProductLineAves, decimal.Zero, start)

	if len(schedule) != 3 {
		t.Fatalf("expected 3 installments, got %d", len(schedule))
	}
	if !schedule[0].Value.Equal(decimal.RequireFromString("333.33")) {
		t.Fatalf("unexpected first share: %s", schedule[0].Value)
	}
	if !schedule[2].Value.Equal(decimal.RequireFromString("333.34")) {
		t.Fatalf("unexpected last share: %s", schedule[2].Value)
	}
}

func TestBuildSchedule_SinglePayment(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		term      int
		wantMonth int
		wantDate  string
	}{
		{0, 0, "01/01/2025"},
		{7, 7, "08/01/2025"},
		{14, 14, "15/01/2025"},
		{28, 28, "29/01/2025"},
		{56, 56, "26/02/2025"},
	}

	for _, tc := range cases {
		schedule := BuildSchedule(decimal.NewFromInt(500), tc.term, ProductLineRacoes, decimal.Zero, start)
		if len(schedule) != 1 {
			t.Fatalf("term %d: expected one installment, got %d", tc.term, len(schedule))
		}
		inst := schedule[0]
		if inst.Month != tc.wantMonth || inst.PaymentDate != tc.wantDate {
			t.Fatalf("term %d: got month=%d date=%s", tc.term, inst.Month, inst.PaymentDate)
		}
		if !inst.Value.Equal(decimal.NewFromInt(500)) {
			t.Fatalf("term %d: value = %s", tc.term, inst.Value)
		}
		if !inst.Commission.Equal(decimal.NewFromInt(15)) {
			t.Fatalf("term %d: commission = %s", tc.term, inst.Commission)
		}
	}
}

func TestParseDueDate(t *testing.T) {
	for _, in := range []string{"05/06/2025", "2025-06-05", " 05/06/2025 "} {
		got, err := ParseDueDate(in)
		if err != nil {
			t.Fatalf("ParseDueDate(%q): %v", in, err)
		}
		if got.Year() != 2025 || got.Month() != time.June || got.Day() != 5 {
			t.Fatalf("ParseDueDate(%q) = %v", in, got)
		}
	}

	for _, in := range []string{"", "31/02/2025", "06-05-2025", "tomorrow"} {
		if _, err := ParseDueDate(in); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tok := &Token{Key: "k", UserID: "u", CreatedAt: now.Add(-2 * time.Hour)}

	if tok.Expired(0, now) {
		t.Fatalf("zero ttl must never expire")
	}
	if !tok.Expired(time.Hour, now) {
		t.Fatalf("expected token to be expired after ttl")
	}
	if tok.Expired(3*time.Hour, now) {
		t.Fatalf("token within ttl reported expired")
	}
}

func TestValidationError(t *testing.T) {
	verr := NewValidationError()
	if verr.OrNil() != nil {
		t.Fatalf("empty validation error must collapse to nil")
	}

	verr.Add("payment_dates[0]", "Expected an object.")
	verr.Add("buyer", "This field is required.")
	verr.Add("buyer", "This field is required.")

	if len(verr.Fields["buyer"]) != 1 {
		t.Fatalf("duplicate message kept: %v", verr.Fields["buyer"])
	}
	if !verr.Has("payment_dates[0].paymentDate") {
		t.Fatalf("nested key should be covered by its parent")
	}
	if verr.Has("payment_dates[1].value") {
		t.Fatalf("sibling index must not be covered")
	}
	if verr.OrNil() == nil {
		t.Fatalf("expected error")
	}
	if got := verr.Error(); got != "validation failed: buyer: This field is required.; payment_dates[0]: Expected an object." {
		t.Fatalf("unexpected message: %s", got)
	}
}

func TestBuildSchedule_CapsLongTerms(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	schedule := BuildSchedule(decimal.NewFromInt(1200), 3_000_000_000, ProductLineAves, decimal.Zero, start)

	if len(schedule) != MaxInstallments {
		t.Fatalf("expected %d installments, got %d", MaxInstallments, len(schedule))
	}
	if last := schedule[len(schedule)-1]; last.Month != MaxPaymentTerm {
		t.Fatalf("last installment month = %d, want %d", last.Month, MaxPaymentTerm)
	}
}
