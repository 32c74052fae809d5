package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/commission-dashboard/sales-api/internal/core/domain"
)

const tokensCollection = "auth_tokens"

// TokenRepository stores one document per token. The unique index on user_id
// makes a second concurrent Create for the same user fail with a duplicate key.
type TokenRepository struct {
	coll *mongo.Collection
}

func NewTokenRepository(db *mongo.Database) *TokenRepository {
	return &TokenRepository{coll: db.Collection(tokensCollection)}
}

type tokenDoc struct {
	Key       string `bson:"_id"`
	UserID    string `bson:"user_id"`
	CreatedAt int64  `bson:"created_at"`
}

func (r *TokenRepository) FindByUser(ctx context.Context, userID string) (*domain.Token, error) {
	return r.findOne(ctx, bson.M{"user_id": userID})
}

func (r *TokenRepository) FindByKey(ctx context.Context, key string) (*domain.Token, error) {
	return r.findOne(ctx, bson.M{"_id": key})
}

func (r *TokenRepository) findOne(ctx context.Context, filter bson.M) (*domain.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc tokenDoc
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrTokenNotFound
		}
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &domain.Token{Key: doc.Key, UserID: doc.UserID, CreatedAt: unixToTime(doc.CreatedAt)}, nil
}

func (r *TokenRepository) Create(ctx context.Context, token *domain.Token) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := tokenDoc{Key: token.Key, UserID: token.UserID, CreatedAt: timeToUnix(token.CreatedAt)}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrTokenExists
		}
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

func (r *TokenRepository) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrTokenNotFound
	}
	return nil
}

func (r *TokenRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
