package handler

import (
	"encoding/json"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

// monthLayout is the format of the commission month query and response fields.
const monthLayout = "2006-01"

// --- Service output → Response ---

func toSaleResponse(s *domain.Sale) saleResponse {
	return saleResponse{
		ID:              s.ID,
		ProductLine:     s.ProductLine,
		Value:           s.Value.StringFixed(2),
		DiscountPercent: s.DiscountPercent.StringFixed(2),
		PaymentTerm:     s.PaymentTerm,
		PaymentDates:    toInstallmentResponses(s.PaymentDates),
		Buyer:           s.Buyer,
		User:            s.UserID,
	}
}

func toSaleResponses(sales []*domain.Sale) []saleResponse {
	out := make([]saleResponse, 0, len(sales))
	for _, s := range sales {
		out = append(out, toSaleResponse(s))
	}
	return out
}

func toInstallmentResponses(in []domain.Installment) []installmentResponse {
	out := make([]installmentResponse, 0, len(in))
	for _, inst := range in {
		r := installmentResponse{
			Month:       inst.Month,
			Value:       json.Number(inst.Value.String()),
			PaymentDate: inst.PaymentDate,
			Billed:      inst.Billed,
		}
		if inst.Commission != nil {
			c := json.Number(inst.Commission.String())
			r.Commission = &c
		}
		out = append(out, r)
	}
	return out
}

func toScheduleResponse(p *ports.SchedulePreview) scheduleResponse {
	return scheduleResponse{
		CommissionRate: p.CommissionRate.String(),
		Installments:   toInstallmentResponses(p.Installments),
	}
}

func toCommissionResponse(s *ports.CommissionSummary) commissionResponse {
	return commissionResponse{
		Month:        s.Month.Format(monthLayout),
		PayoutMonth:  s.PayoutMonth.Format(monthLayout),
		Total:        s.Total.StringFixed(2),
		Installments: s.Installments,
	}
}

// --- Request → Service input ---

func toScheduleInput(req scheduleRequest) ports.ScheduleInput {
	in := ports.ScheduleInput{
		Value:           req.Value,
		PaymentTerm:     req.PaymentTerm,
		ProductLine:     req.ProductLine,
		DiscountPercent: req.DiscountPercent,
	}
	if req.StartDate != "" {
		// already checked by the duedate rule
		in.StartDate, _ = domain.ParseDueDate(req.StartDate)
	}
	return in
}
