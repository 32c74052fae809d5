package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

const (
	msgRequired = "This field is required."
	msgNull     = "This field may not be null."
	msgString   = "Not a valid string."
	msgNumber   = "A valid number is required."
	msgInteger  = "A valid integer is required."
	msgBoolean  = "Must be a valid boolean."
	msgList     = `Expected a list of items but got type "%s".`
	msgObject   = `Invalid data. Expected a dictionary, but got %s.`
	msgTooMany  = "Ensure this field has no more than %d elements."
)

// saleDraft is the merged view of a sale that validation runs on. The lte and
// max bounds mirror domain.MaxPaymentTerm and domain.MaxInstallments.
type saleDraft struct {
	ProductLine     string             `json:"product_line" validate:"required,max=100,productline"`
	Value           decimal.Decimal    `json:"value" validate:"nonneg,digits=10,places=2"`
	DiscountPercent decimal.Decimal    `json:"discount_percent" validate:"digits=5,places=2,discount"`
	PaymentTerm     int                `json:"payment_term" validate:"gte=0,lte=3600"`
	PaymentDates    []installmentDraft `json:"payment_dates" validate:"max=120,dive"`
	Buyer           string             `json:"buyer" validate:"required,max=100"`
}

type installmentDraft struct {
	Month       int              `json:"month" validate:"gte=0"`
	Value       decimal.Decimal  `json:"value" validate:"nonneg"`
	Commission  *decimal.Decimal `json:"commission" validate:"omitempty,nonneg"`
	PaymentDate string           `json:"paymentDate" validate:"required,duedate"`
	Billed      bool             `json:"billed"`
}

func draftFromSale(s *domain.Sale) saleDraft {
	d := saleDraft{
		ProductLine:     s.ProductLine,
		Value:           s.Value,
		DiscountPercent: s.DiscountPercent,
		PaymentTerm:     s.PaymentTerm,
		Buyer:           s.Buyer,
		PaymentDates:    make([]installmentDraft, 0, len(s.PaymentDates)),
	}
	for _, inst := range domain.CloneInstallments(s.PaymentDates) {
		d.PaymentDates = append(d.PaymentDates, installmentDraft(inst))
	}
	return d
}

// applyTo copies the draft onto sale, leaving identity and timestamps untouched.
func (d saleDraft) applyTo(sale *domain.Sale) {
	sale.ProductLine = d.ProductLine
	sale.Value = d.Value
	sale.DiscountPercent = d.DiscountPercent
	sale.PaymentTerm = d.PaymentTerm
	sale.Buyer = d.Buyer
	sale.PaymentDates = make([]domain.Installment, 0, len(d.PaymentDates))
	for _, inst := range d.PaymentDates {
		sale.PaymentDates = append(sale.PaymentDates, domain.Installment(inst))
	}
}

// merge decodes every known key of payload into d. Type problems are
// recorded in verr under the field's JSON path. When requireAll is set,
// missing keys are reported too. Unknown keys, including "id" and "user",
// are ignored.
func (d *saleDraft) merge(payload ports.SalePayload, requireAll bool, verr *domain.ValidationError) {
	field := func(key string) (json.RawMessage, bool) {
		raw, ok := payload[key]
		if !ok && requireAll {
			verr.Add(key, msgRequired)
		}
		return raw, ok
	}

	if raw, ok := field("product_line"); ok {
		if v, msg := decodeString(raw); msg != "" {
			verr.Add("product_line", msg)
		} else {
			d.ProductLine = v
		}
	}
	if raw, ok := field("value"); ok {
		if v, msg := decodeDecimal(raw); msg != "" {
			verr.Add("value", msg)
		} else {
			d.Value = v
		}
	}
	if raw, ok := field("discount_percent"); ok {
		if v, msg := decodeDecimal(raw); msg != "" {
			verr.Add("discount_percent", msg)
		} else {
			d.DiscountPercent = v
		}
	}
	if raw, ok := field("payment_term"); ok {
		if v, msg := decodeInt(raw); msg != "" {
			verr.Add("payment_term", msg)
		} else {
			d.PaymentTerm = v
		}
	}
	if raw, ok := field("payment_dates"); ok {
		if v, ok := decodeInstallments(raw, verr); ok {
			d.PaymentDates = v
		}
	}
	if raw, ok := field("buyer"); ok {
		if v, msg := decodeString(raw); msg != "" {
			verr.Add("buyer", msg)
		} else {
			d.Buyer = v
		}
	}
}

// decodeInstallments always returns one draft per element so that validator
// paths line up with the client's indices, even for elements that failed to decode.
func decodeInstallments(raw json.RawMessage, verr *domain.ValidationError) ([]installmentDraft, bool) {
	if isNull(raw) {
		verr.Add("payment_dates", msgNull)
		return nil, false
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		verr.Add("payment_dates", fmt.Sprintf(msgList, jsonKind(raw)))
		return nil, false
	}
	if len(items) > domain.MaxInstallments {
		verr.Add("payment_dates", fmt.Sprintf(msgTooMany, domain.MaxInstallments))
		return nil, false
	}

	out := make([]installmentDraft, len(items))
	for i, item := range items {
		path := fmt.Sprintf("payment_dates[%d]", i)

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			verr.Add(path, fmt.Sprintf(msgObject, jsonKind(item)))
			continue
		}

		inst := &out[i]
		if raw, ok := obj["month"]; !ok {
			verr.Add(path+".month", msgRequired)
		} else if v, msg := decodeInt(raw); msg != "" {
			verr.Add(path+".month", msg)
		} else {
			inst.Month = v
		}

		if raw, ok := obj["value"]; !ok {
			verr.Add(path+".value", msgRequired)
		} else if v, msg := decodeDecimal(raw); msg != "" {
			verr.Add(path+".value", msg)
		} else {
			inst.Value = v
		}

		if raw, ok := obj["commission"]; ok && !isNull(raw) {
			if v, msg := decodeDecimal(raw); msg != "" {
				verr.Add(path+".commission", msg)
			} else {
				inst.Commission = &v
			}
		}

		if raw, ok := obj["paymentDate"]; !ok {
			verr.Add(path+".paymentDate", msgRequired)
		} else if v, msg := decodeString(raw); msg != "" {
			verr.Add(path+".paymentDate", msg)
		} else {
			inst.PaymentDate = v
		}

		if raw, ok := obj["billed"]; ok && !isNull(raw) {
			if v, msg := decodeBool(raw); msg != "" {
				verr.Add(path+".billed", msg)
			} else {
				inst.Billed = v
			}
		}
	}
	return out, true
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func isQuoted(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) > 0 && t[0] == '"'
}

func decodeString(raw json.RawMessage) (string, string) {
	if isNull(raw) {
		return "", msgNull
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", msgString
	}
	return strings.TrimSpace(s), ""
}

// decodeDecimal accepts JSON numbers and numeric strings.
func decodeDecimal(raw json.RawMessage) (decimal.Decimal, string) {
	if isNull(raw) {
		return decimal.Zero, msgNull
	}
	text := string(bytes.TrimSpace(raw))
	if isQuoted(raw) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return decimal.Zero, msgNumber
		}
		text = strings.TrimSpace(text)
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, msgNumber
	}
	return d, ""
}

// decodeInt accepts integral JSON numbers and numeric strings; "120.0" is 120.
func decodeInt(raw json.RawMessage) (int, string) {
	if isNull(raw) {
		return 0, msgNull
	}
	d, msg := decodeDecimal(raw)
	if msg != "" || !d.IsInteger() {
		return 0, msgInteger
	}
	if d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) || d.LessThan(decimal.NewFromInt(math.MinInt32)) {
		return 0, msgInteger
	}
	return int(d.IntPart()), ""
}

func decodeBool(raw json.RawMessage) (bool, string) {
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, msgBoolean
	}
	return b, ""
}

func jsonKind(raw json.RawMessage) string {
	t := bytes.TrimSpace(raw)
	if len(t) == 0 {
		return "null"
	}
	switch t[0] {
	case '{':
		return "dict"
	case '[':
		return "list"
	case '"':
		return "str"
	case 't', 'f':
		return "bool"
	case 'n':
		return "null"
	default:
		return "int"
	}
}
