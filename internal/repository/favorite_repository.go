package repository

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/database"
	"marketplace/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FavoriteRepository defines the interface for favorite data access
type FavoriteRepository interface {
	Add(ctx context.Context, userID string, productID primitive.ObjectID) error
	Remove(ctx context.Context, userID string, productID primitive.ObjectID) (bool, error)
	ListProductIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error)
}

type favoriteRepository struct {
	coll *mongo.Collection
}

// NewFavoriteRepository creates a new instance of FavoriteRepository
func NewFavoriteRepository(db *mongo.Database) FavoriteRepository {
	return &favoriteRepository{coll: db.Collection(database.CollectionFavorites)}
}

// Add inserts a favorite; an existing one is reported as ErrDuplicateKey
func (r *favoriteRepository) Add(ctx context.Context, userID string, productID primitive.ObjectID) error {
	fav := domain.Favorite{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, fav); err != nil {
		if isMongoDuplicateKey(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("failed to add favorite: %w", err)
	}
	return nil
}

// Remove deletes a favorite and reports whether one existed
func (r *favoriteRepository) Remove(ctx context.Context, userID string, productID primitive.ObjectID) (bool, error) {
	result, err := r.coll.DeleteOne(ctx, bson.M{"userId": userID, "productId": productID})
	if err != nil {
		return false, fmt.Errorf("failed to remove favorite: %w", err)
	}
	return result.DeletedCount > 0, nil
}

// ListProductIDs returns the user's favorited product ids, most recent first
func (r *favoriteRepository) ListProductIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(bson.M{"productId": 1})

	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	var favs []domain.Favorite
	if err := cursor.All(ctx, &favs); err != nil {
		return nil, fmt.Errorf("failed to decode favorites: %w", err)
	}

	ids := make([]primitive.ObjectID, 0, len(favs))
	for _, f := range favs {
		ids = append(ids, f.ProductID)
	}
	return ids, nil
}
