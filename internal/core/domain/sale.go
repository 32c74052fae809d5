package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product lines sold by the commercial team.
const (
	ProductLineAditivo    = "aditivo"
	ProductLineAqua       = "aqua"
	ProductLineAves       = "aves"
	ProductLinePet        = "pet"
	ProductLineRuminantes = "ruminantes"
	ProductLineSuinos     = "suinos"
	ProductLineRevenda    = "revenda"
	ProductLineRacoes     = "racoes"
)

// ProductLines lists the known product lines in display order.
var ProductLines = []string{
	ProductLineAditivo,
	ProductLineAqua,
	ProductLineAves,
	ProductLinePet,
	ProductLineRuminantes,
	ProductLineSuinos,
	ProductLineRevenda,
	ProductLineRacoes,
}

func IsKnownProductLine(line string) bool {
	for _, l := range ProductLines {
		if l == line {
			return true
		}
	}
	return false
}

// DueDateLayout is the layout installments are written with (pt-BR, DD/MM/YYYY).
const DueDateLayout = "02/01/2006"

var dueDateLayouts = []string{DueDateLayout, "2006-01-02"}

var ErrInvalidDueDate = errors.New("invalid due date")

// ParseDueDate accepts DD/MM/YYYY and ISO YYYY-MM-DD.
func ParseDueDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrInvalidDueDate
}

// Installment is one entry of a sale's payment schedule.
// Month is the offset in days from the sale date (30, 60, ...).
type Installment struct {
	Month       int              `json:"month"`
	Value       decimal.Decimal  `json:"value"`
	Commission  *decimal.Decimal `json:"commission,omitempty"`
	PaymentDate string           `json:"paymentDate"`
	Billed      bool             `json:"billed"`
}

// DueDate parses PaymentDate.
func (i Installment) DueDate() (time.Time, error) {
	return ParseDueDate(i.PaymentDate)
}

// CommissionOrZero returns the installment commission, treating a missing one as zero.
func (i Installment) CommissionOrZero() decimal.Decimal {
	if i.Commission == nil {
		return decimal.Zero
	}
	return *i.Commission
}

// Sale is one transaction recorded by its owner.
type Sale struct {
	ID              string
	UserID          string
	ProductLine     string
	Value           decimal.Decimal
	DiscountPercent decimal.Decimal
	PaymentTerm     int
	PaymentDates    []Installment
	Buyer           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone returns a deep copy so callers never share the schedule slice.
func (s *Sale) Clone() *Sale {
	if s == nil {
		return nil
	}
	c := *s
	c.PaymentDates = CloneInstallments(s.PaymentDates)
	return &c
}

func CloneInstallments(in []Installment) []Installment {
	if in == nil {
		return nil
	}
	out := make([]Installment, len(in))
	for i, inst := range in {
		out[i] = inst
		if inst.Commission != nil {
			c := *inst.Commission
			out[i].Commission = &c
		}
	}
	return out
}
