package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/database"
	"marketplace/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoIndexNotFound is the server error code for dropping a missing index
const mongoIndexNotFound = 27

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	Upsert(ctx context.Context, review *domain.Review) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]*domain.Review, error)
	DropLegacyIndex(ctx context.Context) error
}

type reviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *mongo.Database) ReviewRepository {
	return &reviewRepository{coll: db.Collection(database.CollectionReviews)}
}

// Upsert updates rating and comment of the (user, product, order) review or inserts it.
// A unique index collision is reported as ErrDuplicateKey.
func (r *reviewRepository) Upsert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"userId":    review.UserID,
		"productId": review.ProductID,
		"orderId":   review.OrderID,
	}
	update := bson.M{
		"$set": bson.M{
			"rating":    review.Rating,
			"comment":   review.Comment,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	saved := &domain.Review{}
	if err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(saved); err != nil {
		if isMongoDuplicateKey(err) {
			return nil, ErrDuplicateKey
		}
		return nil, fmt.Errorf("failed to upsert review: %w", err)
	}
	return saved, nil
}

func (r *reviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]*domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, bson.M{"productId": productID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}

	reviews := []*domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// DropLegacyIndex drops the old two-field unique index; a missing index is not an error
func (r *reviewRepository) DropLegacyIndex(ctx context.Context) error {
	_, err := r.coll.Indexes().DropOne(ctx, database.LegacyReviewIndex)
	if err == nil {
		return nil
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && cmdErr.Code == mongoIndexNotFound {
		return nil
	}
	return fmt.Errorf("failed to drop legacy review index: %w", err)
}
