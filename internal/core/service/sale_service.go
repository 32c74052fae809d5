package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
	"github.com/commission-dashboard/sales-api/internal/pkg/validation"
)

type SaleService struct {
	repo     ports.SaleRepository
	validate *validation.Validator
	logger   zerolog.Logger
	now      func() time.Time
}

func NewSaleService(repo ports.SaleRepository, validate *validation.Validator, logger zerolog.Logger) *SaleService {
	return &SaleService{
		repo:     repo,
		validate: validate,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *SaleService) ListSales(ctx context.Context, userID string) ([]*domain.Sale, error) {
	return s.repo.ListByOwner(ctx, userID)
}

func (s *SaleService) GetSale(ctx context.Context, userID, id string) (*domain.Sale, error) {
	return s.repo.FindByID(ctx, id, userID)
}

// CreateSale validates a full payload and stores it as a sale owned by userID.
// Any owner in the payload is ignored.
func (s *SaleService) CreateSale(ctx context.Context, userID string, payload ports.SalePayload) (*domain.Sale, error) {
	var draft saleDraft
	if err := s.check(&draft, payload, true); err != nil {
		return nil, err
	}

	now := s.now()
	sale := &domain.Sale{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	draft.applyTo(sale)

	if err := s.repo.Create(ctx, sale); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to create sale")
		return nil, err
	}

	s.logger.Info().Str("sale_id", sale.ID).Str("user_id", userID).Str("product_line", sale.ProductLine).Msg("sale created")
	return sale, nil
}

// UpdateSale merges the fields present in payload into the caller's sale and
// re-validates the result before storing it.
func (s *SaleService) UpdateSale(ctx context.Context, userID, id string, payload ports.SalePayload) (*domain.Sale, error) {
	existing, err := s.repo.FindByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	draft := draftFromSale(existing)
	if err := s.check(&draft, payload, false); err != nil {
		return nil, err
	}

	updated := existing.Clone()
	draft.applyTo(updated)
	updated.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, err
	}

	s.logger.Info().Str("sale_id", id).Str("user_id", userID).Int("fields", len(payload)).Msg("sale updated")
	return updated, nil
}

func (s *SaleService) DeleteSale(ctx context.Context, userID, id string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		return err
	}
	s.logger.Info().Str("sale_id", id).Str("user_id", userID).Msg("sale deleted")
	return nil
}

func (s *SaleService) check(draft *saleDraft, payload ports.SalePayload, requireAll bool) error {
	verr := domain.NewValidationError()
	draft.merge(payload, requireAll, verr)
	if err := s.validate.Collect(draft, verr); err != nil {
		return err
	}
	return verr.OrNil()
}

// PreviewSchedule generates the installments a sale would be split into.
// Nothing is stored.
func (s *SaleService) PreviewSchedule(_ context.Context, input ports.ScheduleInput) (*ports.SchedulePreview, error) {
	start := input.StartDate
	if start.IsZero() {
		start = s.now()
	}

	return &ports.SchedulePreview{
		CommissionRate: domain.CommissionRate(input.ProductLine, input.DiscountPercent),
		Installments:   domain.BuildSchedule(input.Value, input.PaymentTerm, input.ProductLine, input.DiscountPercent, start),
	}, nil
}

// MonthlyCommission sums the commission of the caller's billed installments
// due in month. Commission is paid out the following month.
func (s *SaleService) MonthlyCommission(ctx context.Context, userID string, month time.Time) (*ports.CommissionSummary, error) {
	sales, err := s.repo.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	first := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, time.UTC)
	summary := &ports.CommissionSummary{
		Month:       first,
		PayoutMonth: first.AddDate(0, 1, 0),
		Total:       decimal.Zero,
	}

	for _, sale := range sales {
		for i, inst := range sale.PaymentDates {
			if !inst.Billed {
				continue
			}
			due, err := inst.DueDate()
			if err != nil {
				s.logger.Warn().Str("sale_id", sale.ID).Int("installment", i).Str("payment_date", inst.PaymentDate).Msg("skipping installment with unreadable due date")
				continue
			}
			if due.Year() != first.Year() || due.Month() != first.Month() {
				continue
			}
			summary.Total = summary.Total.Add(inst.CommissionOrZero())
			summary.Installments++
		}
	}
	return summary, nil
}
