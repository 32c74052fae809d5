package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

const salesCollection = "sales"

type SaleRepository struct {
	col *mongo.Collection
}

func NewSaleRepository(db *mongo.Database) *SaleRepository {
	return &SaleRepository{col: db.Collection(salesCollection)}
}

type installmentDoc struct {
	Month       int                   `bson:"month"`
	Value       primitive.Decimal128  `bson:"value"`
	Commission  *primitive.Decimal128 `bson:"commission,omitempty"`
	PaymentDate string                `bson:"payment_date"`
	Billed      bool                  `bson:"billed"`
}

type saleDoc struct {
	ID              string               `bson:"_id"`
	UserID          string               `bson:"user_id"`
	ProductLine     string               `bson:"product_line"`
	Value           primitive.Decimal128 `bson:"value"`
	DiscountPercent primitive.Decimal128 `bson:"discount_percent"`
	PaymentTerm     int                  `bson:"payment_term"`
	PaymentDates    []installmentDoc     `bson:"payment_dates"`
	Buyer           string               `bson:"buyer"`
	CreatedAt       int64                `bson:"created_at"`
	UpdatedAt       int64                `bson:"updated_at"`
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, fmt.Errorf("encode decimal %s: %w", d, err)
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("decode decimal %s: %w", v, err)
	}
	return d, nil
}

func toSaleDoc(s *domain.Sale) (saleDoc, error) {
	doc := saleDoc{
		ID:           s.ID,
		UserID:       s.UserID,
		ProductLine:  s.ProductLine,
		PaymentTerm:  s.PaymentTerm,
		Buyer:        s.Buyer,
		CreatedAt:    timeToUnix(s.CreatedAt),
		UpdatedAt:    timeToUnix(s.UpdatedAt),
		PaymentDates: make([]installmentDoc, 0, len(s.PaymentDates)),
	}

	var err error
	if doc.Value, err = toDecimal128(s.Value); err != nil {
		return doc, err
	}
	if doc.DiscountPercent, err = toDecimal128(s.DiscountPercent); err != nil {
		return doc, err
	}

	for _, inst := range s.PaymentDates {
		idoc := installmentDoc{Month: inst.Month, PaymentDate: inst.PaymentDate, Billed: inst.Billed}
		if idoc.Value, err = toDecimal128(inst.Value); err != nil {
			return doc, err
		}
		if inst.Commission != nil {
			c, err := toDecimal128(*inst.Commission)
			if err != nil {
				return doc, err
			}
			idoc.Commission = &c
		}
		doc.PaymentDates = append(doc.PaymentDates, idoc)
	}
	return doc, nil
}

func (d saleDoc) toDomain() (*domain.Sale, error) {
	s := &domain.Sale{
		ID:           d.ID,
		UserID:       d.UserID,
		ProductLine:  d.ProductLine,
		PaymentTerm:  d.PaymentTerm,
		Buyer:        d.Buyer,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
		PaymentDates: make([]domain.Installment, 0, len(d.PaymentDates)),
	}

	var err error
	if s.Value, err = fromDecimal128(d.Value); err != nil {
		return nil, err
	}
	if s.DiscountPercent, err = fromDecimal128(d.DiscountPercent); err != nil {
		return nil, err
	}

	for _, idoc := range d.PaymentDates {
		inst := domain.Installment{Month: idoc.Month, PaymentDate: idoc.PaymentDate, Billed: idoc.Billed}
		if inst.Value, err = fromDecimal128(idoc.Value); err != nil {
			return nil, err
		}
		if idoc.Commission != nil {
			c, err := fromDecimal128(*idoc.Commission)
			if err != nil {
				return nil, err
			}
			inst.Commission = &c
		}
		s.PaymentDates = append(s.PaymentDates, inst)
	}
	return s, nil
}

func (r *SaleRepository) Create(ctx context.Context, s *domain.Sale) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toSaleDoc(s)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert sale: %w", err)
	}
	return nil
}

// ListByOwner returns the owner's sales oldest first.
func (r *SaleRepository) ListByOwner(ctx context.Context, userID string) ([]*domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find sales: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []saleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode sales: %w", err)
	}

	out := make([]*domain.Sale, 0, len(docs))
	for _, doc := range docs {
		s, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *SaleRepository) FindByID(ctx context.Context, id, userID string) (*domain.Sale, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc saleDoc
	err := r.col.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, fmt.Errorf("find sale: %w", err)
	}
	return doc.toDomain()
}

func (r *SaleRepository) Update(ctx context.Context, s *domain.Sale) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toSaleDoc(s)
	if err != nil {
		return err
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": s.ID, "user_id": s.UserID}, doc)
	if err != nil {
		return fmt.Errorf("replace sale: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *SaleRepository) Delete(ctx context.Context, id, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete sale: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

// EnsureIndexes creates the owner listing index on the sales collection.
func (r *SaleRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}
