package gormsql

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

func newTestDB(t *testing.T) *SaleRepository {
	t.Helper()
	db, err := Connect(sqlite.Open(filepath.Join(t.TempDir(), "sales.db")), zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })
	return NewSaleRepository(db)
}

var base = time.Date(2025, 5, 6, 9, 0, 0, 0, time.UTC)

func sampleSale(id, owner string, offset time.Duration) *domain.Sale {
	commission := decimal.RequireFromString("33.33")
	return &domain.Sale{
		ID:              id,
		UserID:          owner,
		ProductLine:     domain.ProductLineAves,
		Value:           decimal.RequireFromString("1000.00"),
		DiscountPercent: decimal.RequireFromString("2.50"),
		PaymentTerm:     90,
		PaymentDates: []domain.Installment{
			{Month: 30, Value: decimal.RequireFromString("333.33"), Commission: &commission, PaymentDate: "05/06/2025"},
			{Month: 60, Value: decimal.RequireFromString("333.33"), PaymentDate: "05/07/2025", Billed: true},
			{Month: 90, Value: decimal.RequireFromString("333.34"), PaymentDate: "04/08/2025"},
		},
		Buyer:     "Granja Azul",
		CreatedAt: base.Add(offset),
		UpdatedAt: base.Add(offset),
	}
}

func TestSaleRepository_CreateAndFind(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	if err := repo.Create(ctx, sampleSale("s1", "alice", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.FindByID(ctx, "s1", "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !got.Value.Equal(decimal.NewFromInt(1000)) || !got.DiscountPercent.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("unexpected amounts: %s %s", got.Value, got.DiscountPercent)
	}
	if len(got.PaymentDates) != 3 || !got.PaymentDates[1].Billed || got.PaymentDates[1].Commission != nil {
		t.Fatalf("unexpected schedule: %+v", got.PaymentDates)
	}
	if got.PaymentDates[0].Commission == nil || got.PaymentDates[0].Commission.String() != "33.33" {
		t.Fatalf("unexpected commission: %+v", got.PaymentDates[0].Commission)
	}

	if _, err := repo.FindByID(ctx, "s1", "bob"); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound for another owner, got %v", err)
	}
}

func TestSaleRepository_ListUpdateDelete(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	for i, s := range []*domain.Sale{
		sampleSale("s1", "alice", 0),
		sampleSale("s2", "bob", time.Second),
		sampleSale("s3", "alice", 2*time.Second),
	} {
		if err := repo.Create(ctx, s); err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
	}

	list, err := repo.ListByOwner(ctx, "alice")
	if err != nil || len(list) != 2 || list[0].ID != "s1" || list[1].ID != "s3" {
		t.Fatalf("unexpected list: %v %+v", err, list)
	}

	updated := sampleSale("s1", "alice", 0)
	updated.Buyer = "Granja Verde"
	updated.PaymentDates = []domain.Installment{}
	updated.UpdatedAt = base.Add(time.Hour)
	if err := repo.Update(ctx, updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := repo.FindByID(ctx, "s1", "alice")
	if got.Buyer != "Granja Verde" || len(got.PaymentDates) != 0 {
		t.Fatalf("update not applied: %+v", got)
	}

	foreign := sampleSale("s2", "alice", 0)
	if err := repo.Update(ctx, foreign); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound updating another owner's sale, got %v", err)
	}

	if err := repo.Delete(ctx, "s1", "alice"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, "s1", "alice"); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound on second delete, got %v", err)
	}
}

func TestSaleRepository_UpdateWithNoChangedRows(t *testing.T) {
	repo := newTestDB(t)
	ctx := context.Background()

	// Report changed rows only, the way MySQL does without CLIENT_FOUND_ROWS.
	err := repo.db.Callback().Update().After("gorm:update").Register("changed_rows_only", func(tx *gorm.DB) {
		tx.RowsAffected = 0
	})
	if err != nil {
		t.Fatalf("register callback: %v", err)
	}

	if err := repo.Create(ctx, sampleSale("s1", "alice", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, sampleSale("s2", "bob", 0)); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Update(ctx, sampleSale("s1", "alice", 0)); err != nil {
		t.Fatalf("identical rewrite of an owned sale must succeed, got %v", err)
	}
	if err := repo.Update(ctx, sampleSale("s2", "alice", 0)); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound for another owner's sale, got %v", err)
	}
	if err := repo.Update(ctx, sampleSale("missing", "alice", 0)); !errors.Is(err, domain.ErrSaleNotFound) {
		t.Fatalf("expected ErrSaleNotFound for a missing sale, got %v", err)
	}
}

func TestUserAndTokenRepositories_Unique(t *testing.T) {
	db, err := Connect(sqlite.Open(filepath.Join(t.TempDir(), "auth.db")), zerolog.Nop())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = Close(db) })

	users := NewUserRepository(db)
	tokens := NewTokenRepository(db)
	ctx := context.Background()

	if _, err := users.Create(ctx, &domain.User{ID: "u1", Username: "alice", PasswordHash: "x", CreatedAt: base}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := users.Create(ctx, &domain.User{ID: "u2", Username: "alice", PasswordHash: "x", CreatedAt: base}); !errors.Is(err, domain.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	if u, err := users.FindByUsername(ctx, "alice"); err != nil || u.ID != "u1" {
		t.Fatalf("find user: %v %+v", err, u)
	}
	if _, err := users.FindByID(ctx, "missing"); !errors.Is(err, domain.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := tokens.Create(ctx, &domain.Token{Key: "k1", UserID: "u1", CreatedAt: base}); err != nil {
		t.Fatalf("create token: %v", err)
	}
	if err := tokens.Create(ctx, &domain.Token{Key: "k2", UserID: "u1", CreatedAt: base}); !errors.Is(err, domain.ErrTokenExists) {
		t.Fatalf("expected ErrTokenExists, got %v", err)
	}
	if tok, err := tokens.FindByKey(ctx, "k1"); err != nil || tok.UserID != "u1" {
		t.Fatalf("find token: %v %+v", err, tok)
	}
	if err := tokens.Delete(ctx, "k1"); err != nil {
		t.Fatalf("delete token: %v", err)
	}
	if _, err := tokens.FindByUser(ctx, "u1"); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
}
