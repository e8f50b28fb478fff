package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"marketplace/internal/database"
	"marketplace/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrProductNotFound = errors.New("product not found")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 200
)

// ProductFilter narrows a catalog listing
type ProductFilter struct {
	StoreID  *primitive.ObjectID
	Category string
	Query    string // case-insensitive title substring
	Page     int
	Limit    int
}

// Normalize clamps paging to sane bounds
func (f ProductFilter) Normalize() ProductFilter {
	if f.Limit == 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit < 1 {
		f.Limit = 1
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Page < 1 {
		f.Page = 1
	}
	return f
}

// ProductRepository defines the interface for product data access
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Product, error)
	List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error)
	Categories(ctx context.Context) ([]string, error)
	UpdateRating(ctx context.Context, id primitive.ObjectID, rating domain.Rating) error
	DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error)
}

type productRepository struct {
	coll *mongo.Collection
}

// NewProductRepository creates a new instance of ProductRepository
func NewProductRepository(db *mongo.Database) ProductRepository {
	return &productRepository{coll: db.Collection(database.CollectionProducts)}
}

func (r *productRepository) Create(ctx context.Context, product *domain.Product) error {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

func (r *productRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if result.DeletedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	product := &domain.Product{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(product); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to find product by ID: %w", err)
	}
	return product, nil
}

// FindByIDs loads all products in ids in one round trip; missing ids are skipped
func (r *productRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Product, error) {
	if len(ids) == 0 {
		return []*domain.Product{}, nil
	}

	cursor, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to find products by IDs: %w", err)
	}

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, fmt.Errorf("failed to decode products: %w", err)
	}
	return products, nil
}

// List returns one page of products matching filter, newest first, and the total match count
func (r *productRepository) List(ctx context.Context, filter ProductFilter) ([]*domain.Product, int64, error) {
	filter = filter.Normalize()

	query := bson.M{}
	if filter.StoreID != nil {
		query["storeId"] = *filter.StoreID
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		query["title"] = primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64((filter.Page - 1) * filter.Limit)).
		SetLimit(int64(filter.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	products := []*domain.Product{}
	if err := cursor.All(ctx, &products); err != nil {
		return nil, 0, fmt.Errorf("failed to decode products: %w", err)
	}

	return products, total, nil
}

// Categories returns the distinct non-empty categories in the catalog
func (r *productRepository) Categories(ctx context.Context) ([]string, error) {
	values, err := r.coll.Distinct(ctx, "category", bson.M{"category": bson.M{"$nin": bson.A{nil, ""}}})
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			categories = append(categories, s)
		}
	}
	return categories, nil
}

func (r *productRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating domain.Rating) error {
	update := bson.M{"$set": bson.M{"rating": rating, "updatedAt": time.Now().UTC()}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrProductNotFound
	}
	return nil
}

// DecrementStock removes quantity from stock only when enough is left; false means it was not
func (r *productRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	filter := bson.M{"_id": id, "stock": bson.M{"$gte": quantity}}
	update := bson.M{
		"$inc": bson.M{"stock": -quantity},
		"$set": bson.M{"updatedAt": time.Now().UTC()},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("failed to decrement stock: %w", err)
	}
	return result.ModifiedCount > 0, nil
}
