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

var ErrStoreNotFound = errors.New("store not found")

// StoreRepository defines the interface for store data access
type StoreRepository interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Store, error)
	FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error)
	GetOrCreateForOwner(ctx context.Context, ownerID, name string) (*domain.Store, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StoreStatus) (*domain.Store, error)
}

type storeRepository struct {
	coll *mongo.Collection
}

// NewStoreRepository creates a new instance of StoreRepository
func NewStoreRepository(db *mongo.Database) StoreRepository {
	return &storeRepository{coll: db.Collection(database.CollectionStores)}
}

func (r *storeRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *storeRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error) {
	return r.findOne(ctx, bson.M{"ownerId": ownerID})
}

// GetOrCreateForOwner returns the owner's store, creating a pending one atomically if absent
func (r *storeRepository) GetOrCreateForOwner(ctx context.Context, ownerID, name string) (*domain.Store, error) {
	now := time.Now().UTC()
	update := bson.M{
		"$setOnInsert": bson.M{
			"ownerId":   ownerID,
			"name":      name,
			"status":    domain.StoreStatusPending,
			"createdAt": now,
			"updatedAt": now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	store := &domain.Store{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"ownerId": ownerID}, update, opts).Decode(store)
	if err != nil {
		// A concurrent upsert won the unique index; the store exists now
		if isMongoDuplicateKey(err) {
			return r.FindByOwner(ctx, ownerID)
		}
		return nil, fmt.Errorf("failed to get or create store: %w", err)
	}

	return store, nil
}

func (r *storeRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StoreStatus) (*domain.Store, error) {
	update := bson.M{"$set": bson.M{"status": status, "updatedAt": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	store := &domain.Store{}
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(store)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to update store status: %w", err)
	}

	return store, nil
}

func (r *storeRepository) findOne(ctx context.Context, filter bson.M) (*domain.Store, error) {
	store := &domain.Store{}
	if err := r.coll.FindOne(ctx, filter).Decode(store); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrStoreNotFound
		}
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	return store, nil
}
