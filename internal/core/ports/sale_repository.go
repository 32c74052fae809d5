package ports

import (
	"context"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// SaleRepository persists sales. Every lookup and mutation is scoped to the
// owner; a sale owned by someone else is reported as domain.ErrSaleNotFound.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	// ListByOwner returns the owner's sales in insertion order.
	ListByOwner(ctx context.Context, userID string) ([]*domain.Sale, error)
	FindByID(ctx context.Context, id, userID string) (*domain.Sale, error)
	Update(ctx context.Context, sale *domain.Sale) error
	Delete(ctx context.Context, id, userID string) error
}
