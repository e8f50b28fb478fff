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

// CartRepository exposes the single-document conditional updates carts are built from.
// Each method is atomic on its own; callers compose them.
type CartRepository interface {
	GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error)
	IncrementItem(ctx context.Context, userID string, productID primitive.ObjectID, delta int) (bool, error)
	PushItem(ctx context.Context, userID string, item domain.CartItem) (bool, error)
	SetItemQuantity(ctx context.Context, userID string, productID primitive.ObjectID, quantity int) error
	PullItems(ctx context.Context, userID string, productIDs ...primitive.ObjectID) error
	Clear(ctx context.Context, userID string) error
}

type cartRepository struct {
	coll *mongo.Collection
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *mongo.Database) CartRepository {
	return &cartRepository{coll: db.Collection(database.CollectionCarts)}
}

// GetOrCreate returns the user's cart, inserting an empty one when absent
func (r *cartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	update := bson.M{
		"$setOnInsert": bson.M{
			"userId":    userID,
			"items":     bson.A{},
			"updatedAt": time.Now().UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	cart := &domain.Cart{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"userId": userID}, update, opts).Decode(cart)
	if err != nil {
		if isMongoDuplicateKey(err) {
			// Lost the upsert race against another request; read the winner
			if err := r.coll.FindOne(ctx, bson.M{"userId": userID}).Decode(cart); err != nil {
				return nil, fmt.Errorf("failed to read cart: %w", err)
			}
			return cart, nil
		}
		return nil, fmt.Errorf("failed to get or create cart: %w", err)
	}

	if cart.Items == nil {
		cart.Items = []domain.CartItem{}
	}
	return cart, nil
}

// IncrementItem adds delta to an existing line; false means the line is not in the cart
func (r *cartRepository) IncrementItem(ctx context.Context, userID string, productID primitive.ObjectID, delta int) (bool, error) {
	filter := bson.M{"userId": userID, "items.productId": productID}
	update := bson.M{
		"$inc": bson.M{"items.$.quantity": delta},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to increment cart item: %w", err)
	}
	return result.MatchedCount > 0, nil
}

// PushItem appends a line unless one for the product already exists.
// The cart is upserted when missing; false means a line appeared concurrently.
func (r *cartRepository) PushItem(ctx context.Context, userID string, item domain.CartItem) (bool, error) {
	filter := bson.M{"userId": userID, "items.productId": bson.M{"$ne": item.ProductID}}
	update := bson.M{
		"$push": bson.M{"items": item},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		// The upsert tried to insert a second cart because the line already exists
		if isMongoDuplicateKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to push cart item: %w", err)
	}
	return result.MatchedCount > 0 || result.UpsertedCount > 0, nil
}

// SetItemQuantity overwrites the quantity of an existing line; absent lines are left alone
func (r *cartRepository) SetItemQuantity(ctx context.Context, userID string, productID primitive.ObjectID, quantity int) error {
	filter := bson.M{"userId": userID, "items.productId": productID}
	update := bson.M{
		"$set": bson.M{"items.$.quantity": quantity, "updatedAt": time.Now().UTC()},
	}

	if _, err := r.coll.UpdateOne(ctx, filter, update); err != nil {
		return fmt.Errorf("failed to update cart item: %w", err)
	}
	return nil
}

// PullItems removes the lines for productIDs; missing lines are not an error
func (r *cartRepository) PullItems(ctx context.Context, userID string, productIDs ...primitive.ObjectID) error {
	if len(productIDs) == 0 {
		return nil
	}

	update := bson.M{
		"$pull": bson.M{"items": bson.M{"productId": bson.M{"$in": productIDs}}},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}

	if _, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, userID string) error {
	update := bson.M{"$set": bson.M{"items": bson.A{}, "updatedAt": time.Now().UTC()}}
	if _, err := r.coll.UpdateOne(ctx, bson.M{"userId": userID}, update); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}
