package ports

import (
	"context"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

// TokenRepository maps bearer tokens to users. Implementations enforce one
// token per user: Create returns domain.ErrTokenExists when the user already
// holds one, which lets concurrent logins converge on a single token.
type TokenRepository interface {
	FindByUser(ctx context.Context, userID string) (*domain.Token, error)
	FindByKey(ctx context.Context, key string) (*domain.Token, error)
	Create(ctx context.Context, token *domain.Token) error
	Delete(ctx context.Context, key string) error
}

// TokenIssuer produces new token keys and rejects keys it could never have issued.
type TokenIssuer interface {
	Issue(user *domain.User) (string, error)
	Check(key string) error
}

// Locker serialises work on a key across processes. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}
