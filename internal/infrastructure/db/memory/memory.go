// Package memory keeps users, tokens and sales in process memory. It backs
// STORE=memory and the end-to-end API tests.
package memory

import (
	"context"
	"sync"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
	"github.com/commission-dashboard/sales-api/internal/core/ports"
)

// DB holds every collection behind a single mutex.
type DB struct {
	mu sync.RWMutex

	users      map[string]*domain.User
	usernames  map[string]string
	tokens     map[string]*domain.Token
	userTokens map[string]string
	sales      map[string]*domain.Sale
	saleOrder  []string
}

func New() *DB {
	return &DB{
		users:      make(map[string]*domain.User),
		usernames:  make(map[string]string),
		tokens:     make(map[string]*domain.Token),
		userTokens: make(map[string]string),
		sales:      make(map[string]*domain.Sale),
	}
}

var (
	_ ports.UserRepository  = (*UserRepository)(nil)
	_ ports.TokenRepository = (*TokenRepository)(nil)
	_ ports.SaleRepository  = (*SaleRepository)(nil)
)

type UserRepository struct{ db *DB }
type TokenRepository struct{ db *DB }
type SaleRepository struct{ db *DB }

func (db *DB) Users() *UserRepository   { return &UserRepository{db: db} }
func (db *DB) Tokens() *TokenRepository { return &TokenRepository{db: db} }
func (db *DB) Sales() *SaleRepository   { return &SaleRepository{db: db} }

// Ping always succeeds; it lets the memory store report readiness like the others.
func (db *DB) Ping(context.Context) error { return nil }

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func cloneToken(t *domain.Token) *domain.Token {
	c := *t
	return &c
}

// --- users ---

func (r *UserRepository) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, taken := r.db.usernames[user.Username]; taken {
		return nil, domain.ErrUserExists
	}
	r.db.users[user.ID] = cloneUser(user)
	r.db.usernames[user.Username] = user.ID
	return cloneUser(user), nil
}

func (r *UserRepository) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	id, ok := r.db.usernames[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(r.db.users[id]), nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	u, ok := r.db.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

// --- tokens ---

func (r *TokenRepository) FindByUser(_ context.Context, userID string) (*domain.Token, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	key, ok := r.db.userTokens[userID]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return cloneToken(r.db.tokens[key]), nil
}

func (r *TokenRepository) FindByKey(_ context.Context, key string) (*domain.Token, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	t, ok := r.db.tokens[key]
	if !ok {
		return nil, domain.ErrTokenNotFound
	}
	return cloneToken(t), nil
}

func (r *TokenRepository) Create(_ context.Context, token *domain.Token) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	if _, exists := r.db.userTokens[token.UserID]; exists {
		return domain.ErrTokenExists
	}
	if _, exists := r.db.tokens[token.Key]; exists {
		return domain.ErrTokenExists
	}
	r.db.tokens[token.Key] = cloneToken(token)
	r.db.userTokens[token.UserID] = token.Key
	return nil
}

func (r *TokenRepository) Delete(_ context.Context, key string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	t, ok := r.db.tokens[key]
	if !ok {
		return domain.ErrTokenNotFound
	}
	delete(r.db.tokens, key)
	delete(r.db.userTokens, t.UserID)
	return nil
}

// --- sales ---

func (r *SaleRepository) Create(_ context.Context, sale *domain.Sale) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	r.db.sales[sale.ID] = sale.Clone()
	r.db.saleOrder = append(r.db.saleOrder, sale.ID)
	return nil
}

func (r *SaleRepository) ListByOwner(_ context.Context, userID string) ([]*domain.Sale, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	out := make([]*domain.Sale, 0)
	for _, id := range r.db.saleOrder {
		if s := r.db.sales[id]; s.UserID == userID {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *SaleRepository) FindByID(_ context.Context, id, userID string) (*domain.Sale, error) {
	r.db.mu.RLock()
	defer r.db.mu.RUnlock()

	s, ok := r.db.sales[id]
	if !ok || s.UserID != userID {
		return nil, domain.ErrSaleNotFound
	}
	return s.Clone(), nil
}

func (r *SaleRepository) Update(_ context.Context, sale *domain.Sale) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sales[sale.ID]
	if !ok || s.UserID != sale.UserID {
		return domain.ErrSaleNotFound
	}
	r.db.sales[sale.ID] = sale.Clone()
	return nil
}

func (r *SaleRepository) Delete(_ context.Context, id, userID string) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()

	s, ok := r.db.sales[id]
	if !ok || s.UserID != userID {
		return domain.ErrSaleNotFound
	}
	delete(r.db.sales, id)
	for i, sid := range r.db.saleOrder {
		if sid == id {
			r.db.saleOrder = append(r.db.saleOrder[:i], r.db.saleOrder[i+1:]...)
			break
		}
	}
	return nil
}
