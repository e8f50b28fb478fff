package database

import (
	"context"
	"fmt"
	"time"

	"marketplace/internal/config"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Collection names of the document store
const (
	CollectionStores    = "stores"
	CollectionProducts  = "products"
	CollectionCarts     = "carts"
	CollectionOrders    = "orders"
	CollectionReviews   = "reviews"
	CollectionFavorites = "favorites"
)

// LegacyReviewIndex is the old (product, user) unique index that predates per-order reviews
const LegacyReviewIndex = "productId_1_userId_1"

// ConnectMongo connects to MongoDB and verifies the primary is reachable
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}

// EnsureIndexes creates the uniqueness and lookup indexes the ledgers rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	specs := map[string][]mongo.IndexModel{
		CollectionStores: {
			{Keys: bson.D{{Key: "ownerId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionProducts: {
			{Keys: bson.D{{Key: "storeId", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
		},
		CollectionCarts: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		CollectionOrders: {
			{Keys: bson.D{{Key: "buyer", Value: 1}, {Key: "placedAt", Value: -1}}},
			{Keys: bson.D{{Key: "store", Value: 1}, {Key: "placedAt", Value: -1}}},
		},
		CollectionReviews: {
			{
				Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}, {Key: "orderId", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("userId_1_productId_1_orderId_1"),
			},
			{Keys: bson.D{{Key: "productId", Value: 1}}},
		},
		CollectionFavorites: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "productId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for collection, models := range specs {
		names, err := db.Collection(collection).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
		logger.Debug("Indexes ensured", zap.String("collection", collection), zap.Strings("indexes", names))
	}

	return nil
}
