package ports

import (
	"context"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// UserRepository persists accounts.
type UserRepository interface {
	// Create stores a new user. Returns domain.ErrUserExists when the username is taken.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
}
