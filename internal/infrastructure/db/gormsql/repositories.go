package gormsql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

var (
	_ ports.UserRepository  = (*UserRepository)(nil)
	_ ports.TokenRepository = (*TokenRepository)(nil)
	_ ports.SaleRepository  = (*SaleRepository)(nil)
)

type UserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) *UserRepository { return &UserRepository{db: db} }

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	m := userModel{
		ID:           user.ID,
		Username:     user.Username,
		Email:        user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return m.toDomain(), nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *UserRepository) first(ctx context.Context, query string, arg string) (*domain.User, error) {
	var m userModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

type TokenRepository struct{ db *gorm.DB }

func NewTokenRepository(db *gorm.DB) *TokenRepository { return &TokenRepository{db: db} }

func (r *TokenRepository) FindByUser(ctx context.Context, userID string) (*domain.Token, error) {
	return r.first(ctx, "user_id = ?", userID)
}

func (r *TokenRepository) FindByKey(ctx context.Context, key string) (*domain.Token, error) {
	return r.first(ctx, "token = ?", key)
}

func (r *TokenRepository) first(ctx context.Context, query string, arg string) (*domain.Token, error) {
	var m tokenModel
	if err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.Token{Key: m.Key, UserID: m.UserID, CreatedAt: m.CreatedAt}, nil
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	m := tokenModel{Key: token.Key, UserID: token.UserID, CreatedAt: token.CreatedAt}
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		if isDuplicate(err) {
			return domain.ErrTokenExists
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	res := r.db.WithContext(ctx).Where("token = ?", key).Delete(&tokenModel{})
	if res.Error != nil {
		return fmt.Errorf("delete token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

type SaleRepository struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) *SaleRepository { return &SaleRepository{db: db} }

func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	m := toSaleModel(s)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

func (r *SaleRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.Sale, error) {
	var models []saleModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("list sales: %w", err)
	}

	out := make([]*domain.Sale, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r *SaleRepository) FindByID(ctx context.Context, id, userID string) (*domain.Sale, error) {
	var m saleModel
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("find sale: %w", err)
	}
	return m.toDomain(), nil
}

// Update rewrites every mutable column of a sale the caller owns.
func (r *SaleRepository) Update(ctx context.Context, s *domain.Sale) error {
	m := toSaleModel(s)
	res := r.owned(ctx, s.ID, s.UserID).
		Updates(map[string]interface{}{
			"product_line":     m.ProductLine,
			"value":            m.Value,
			"discount_percent": m.DiscountPercent,
			"payment_term":     m.PaymentTerm,
			"payment_dates":    m.PaymentDates,
			"buyer":            m.Buyer,
			"updated_at":       m.UpdatedAt,
		})
	if res.Error != nil {
		return fmt.Errorf("update sale: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// MySQL counts changed rows, so rewriting identical values reports zero.
	var n int64
	if err := r.owned(ctx, s.ID, s.UserID).Count(&n).Error; err != nil {
		return fmt.Errorf("update sale: %w", err)
	}
	if n == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *SaleRepository) owned(ctx context.Context, id, userID string) *gorm.DB {
	return r.db.WithContext(ctx).Model(&saleModel{}).Where("id = ? AND user_id = ?", id, userID)
}

func (r *SaleRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&saleModel{})
	if res.Error != nil {
		return fmt.Errorf("delete sale: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}
