package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// --- Request / Response types ---

// saleRequest documents the sale body. Handlers decode the body into
// ports.SalePayload instead so every field error can be reported.
type saleRequest struct {
	ProductLine     string               `json:"product_line" example:"aves"`
	Value           string               `json:"value" example:"1000.00"`
	DiscountPercent string               `json:"discount_percent" example:"0.00"`
	PaymentTerm     int                  `json:"payment_term" example:"120"`
	PaymentDates    []installmentPayload `json:"payment_dates"`
	Buyer           string               `json:"buyer" example:"Granja Azul"`
}

type installmentPayload struct {
	Month       int         `json:"month" example:"30"`
	Value       json.Number `json:"value" swaggertype:"number" example:"250"`
	Commission  json.Number `json:"commission,omitempty" swaggertype:"number" example:"25"`
	PaymentDate string      `json:"paymentDate" example:"05/06/2025"`
	Billed      bool        `json:"billed"`
}

type saleResponse struct {
	ID              string                `json:"id"`
	ProductLine     string                `json:"product_line"`
	Value           string                `json:"value"`
	DiscountPercent string                `json:"discount_percent"`
	PaymentTerm     int                   `json:"payment_term"`
	PaymentDates    []installmentResponse `json:"payment_dates"`
	Buyer           string                `json:"buyer"`
	User            string                `json:"user"`
}

type installmentResponse struct {
	Month       int          `json:"month"`
	Value       json.Number  `json:"value" swaggertype:"number"`
	Commission  *json.Number `json:"commission,omitempty" swaggertype:"number"`
	PaymentDate string       `json:"paymentDate"`
	Billed      bool         `json:"billed"`
}

type scheduleRequest struct {
	Value           decimal.Decimal `json:"value" validate:"nonneg,digits=10,places=2" swaggertype:"string" example:"1000.00"`
	PaymentTerm     int             `json:"payment_term" validate:"gte=0,lte=3600" example:"120"`
	ProductLine     string          `json:"product_line" validate:"required,max=100,productline" example:"aves"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"digits=5,places=2,discount" swaggertype:"string" example:"5.00"`
	// StartDate defaults to today.
	StartDate string `json:"start_date,omitempty" validate:"omitempty,duedate" example:"06/05/2025"`
}

type scheduleResponse struct {
	CommissionRate string                `json:"commission_rate"`
	Installments   []installmentResponse `json:"installments"`
}

type commissionResponse struct {
	Month        string `json:"month"`
	PayoutMonth  string `json:"payout_month"`
	Total        string `json:"total"`
	Installments int    `json:"installments"`
}
