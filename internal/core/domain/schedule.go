package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const installmentStepDays = 30

const (
	// MaxPaymentTerm is the longest payment term, in days, a sale may carry.
	MaxPaymentTerm = 3600
	// MaxInstallments is the most installments a sale may be split into.
	MaxInstallments = MaxPaymentTerm / installmentStepDays
)

var (
	racoesFullRate     = decimal.New(3, -2)
	racoesDiscountRate = decimal.New(2, -2)
	racoesMaxDiscount  = decimal.NewFromInt(10)

	fullTableRate = decimal.New(10, -2)
	floorRate     = decimal.New(2, -2)
)

// discountBands maps the upper bound (inclusive) of each discount band to its
// commission rate for every line except racoes.
var discountBands = []struct {
	upTo decimal.Decimal
	rate decimal.Decimal
}{
	{decimal.NewFromInt(2), decimal.New(9, -2)},
	{decimal.NewFromInt(4), decimal.New(8, -2)},
	{decimal.NewFromInt(6), decimal.New(7, -2)},
	{decimal.NewFromInt(8), decimal.New(6, -2)},
	{decimal.NewFromInt(10), decimal.New(5, -2)},
	{decimal.NewFromInt(12), decimal.New(4, -2)},
	{decimal.NewFromInt(14), decimal.New(3, -2)},
}

// CommissionRate returns the fraction of a sale paid as commission, given its
// product line and the discount granted. Unknown combinations earn nothing.
func CommissionRate(productLine string, discount decimal.Decimal) decimal.Decimal {
	if discount.IsNegative() {
		return decimal.Zero
	}

	if productLine == ProductLineRacoes {
		switch {
		case discount.IsZero():
			return racoesFullRate
		case discount.LessThanOrEqual(racoesMaxDiscount):
			return racoesDiscountRate
		}
		return decimal.Zero
	}

	if discount.IsZero() {
		return fullTableRate
	}
	for _, band := range discountBands {
		if discount.LessThanOrEqual(band.upTo) {
			return band.rate
		}
	}
	return floorRate
}

// IsSinglePaymentTerm reports whether a payment term settles in one installment.
func IsSinglePaymentTerm(term int) bool {
	return term <= 0 || term < installmentStepDays || term == 56
}

// BuildSchedule splits value into installments for the given term, starting
// from start. Amounts are cut to cents and the remainder lands on the last
// installment so the schedule always sums to value. Terms longer than
// MaxPaymentTerm are capped.
func BuildSchedule(value decimal.Decimal, term int, productLine string, discount decimal.Decimal, start time.Time) []Installment {
	rate := CommissionRate(productLine, discount)
	if term > MaxPaymentTerm {
		term = MaxPaymentTerm
	}

	var offsets []int
	switch {
	case term <= 0:
		offsets = []int{0}
	case IsSinglePaymentTerm(term):
		offsets = []int{term}
	default:
		for i := 1; i <= term/installmentStepDays; i++ {
			offsets = append(offsets, i*installmentStepDays)
		}
	}

	n := decimal.NewFromInt(int64(len(offsets)))
	share := value.Div(n).Truncate(2)
	remaining := value

	out := make([]Installment, 0, len(offsets))
	for i, offset := range offsets {
		amount := share
		if i == len(offsets)-1 {
			amount = remaining
		}
		remaining = remaining.Sub(amount)

		commission := amount.Mul(rate).Round(2)
		out = append(out, Installment{
			Month:       offset,
			Value:       amount,
			Commission:  &commission,
			PaymentDate: start.AddDate(0, 0, offset).Format(DueDateLayout),
			Billed:      false,
		})
	}
	return out
}
