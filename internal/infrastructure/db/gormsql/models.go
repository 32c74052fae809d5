package gormsql

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

type userModel struct {
	ID           string `gorm:"primaryKey;size:36"`
	Username     string `gorm:"size:150;uniqueIndex;not null"`
	Email        string `gorm:"size:254"`
	FirstName    string `gorm:"size:150"`
	LastName     string `gorm:"size:150"`
	PasswordHash string `gorm:"size:100;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

func (m userModel) toDomain() *domain.User {
	return &domain.User{
		ID:           m.ID,
		Username:     m.Username,
		Email:        m.Email,
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

type tokenModel struct {
	Key       string `gorm:"column:token;primaryKey;size:512"`
	UserID    string `gorm:"size:36;uniqueIndex;not null"`
	CreatedAt time.Time
}

func (tokenModel) TableName() string { return "auth_tokens" }

type installmentRow struct {
	Month       int              `json:"month"`
	Value       decimal.Decimal  `json:"value"`
	Commission  *decimal.Decimal `json:"commission,omitempty"`
	PaymentDate string           `json:"payment_date"`
	Billed      bool             `json:"billed"`
}

// installmentRows is stored as a JSON document in a text column.
type installmentRows []installmentRow

func (r installmentRows) Value() (driver.Value, error) {
	if r == nil {
		r = installmentRows{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (r *installmentRows) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*r = installmentRows{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan installments: unsupported type %T", src)
	}
	rows := installmentRows{}
	if err := json.Unmarshal(raw, &rows); err != nil {
		return fmt.Errorf("scan installments: %w", err)
	}
	*r = rows
	return nil
}

type saleModel struct {
	ID              string          `gorm:"primaryKey;size:36"`
	UserID          string          `gorm:"size:36;index:idx_sales_owner,priority:1;not null"`
	ProductLine     string          `gorm:"size:100;not null"`
	Value           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	PaymentTerm     int             `gorm:"not null"`
	PaymentDates    installmentRows `gorm:"type:text"`
	Buyer           string          `gorm:"size:100;not null"`
	CreatedAt       time.Time       `gorm:"index:idx_sales_owner,priority:2"`
	UpdatedAt       time.Time
}

func (saleModel) TableName() string { return "sales" }

func toSaleModel(s *domain.Sale) saleModel {
	rows := make(installmentRows, 0, len(s.PaymentDates))
	for _, inst := range domain.CloneInstallments(s.PaymentDates) {
		rows = append(rows, installmentRow(inst))
	}
	return saleModel{
		ID:              s.ID,
		UserID:          s.UserID,
		ProductLine:     s.ProductLine,
		Value:           s.Value,
		DiscountPercent: s.DiscountPercent,
		PaymentTerm:     s.PaymentTerm,
		PaymentDates:    rows,
		Buyer:           s.Buyer,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
}

func (m saleModel) toDomain() *domain.Sale {
	dates := make([]domain.Installment, 0, len(m.PaymentDates))
	for _, row := range m.PaymentDates {
		dates = append(dates, domain.Installment(row))
	}
	return &domain.Sale{
		ID:              m.ID,
		UserID:          m.UserID,
		ProductLine:     m.ProductLine,
		Value:           m.Value,
		DiscountPercent: m.DiscountPercent,
		PaymentTerm:     m.PaymentTerm,
		PaymentDates:    dates,
		Buyer:           m.Buyer,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}
