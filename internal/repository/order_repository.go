package repository

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/database"
	"marketplace/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderStateChanged means the order left the expected status before the write landed
	ErrOrderStateChanged = errors.New("order status changed concurrently")
)

// OrderRepository defines the interface for order data access.
// Orders are never deleted; transitions append to updateHistory.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error)
	FindByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error)
	FindByStore(ctx context.Context, storeID primitive.ObjectID) ([]*domain.Order, error)
	FindDeliveredWithProduct(ctx context.Context, buyerID string, orderID, productID primitive.ObjectID) (*domain.Order, error)
	SaveTransition(ctx context.Context, order *domain.Order, from domain.OrderStatus) error
}

type orderRepository struct {
	coll *mongo.Collection
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &orderRepository{coll: db.Collection(database.CollectionOrders)}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, order); err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	order := &domain.Order{}
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}
	return order, nil
}

func (r *orderRepository) FindByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"buyer": buyerID})
}

func (r *orderRepository) FindByStore(ctx context.Context, storeID primitive.ObjectID) ([]*domain.Order, error) {
	return r.find(ctx, bson.M{"store": storeID})
}

// FindDeliveredWithProduct finds the buyer's delivered order orderID containing productID
func (r *orderRepository) FindDeliveredWithProduct(ctx context.Context, buyerID string, orderID, productID primitive.ObjectID) (*domain.Order, error) {
	filter := bson.M{
		"_id":           orderID,
		"buyer":         buyerID,
		"status":        domain.OrderStatusDelivered,
		"items.product": productID,
	}

	order := &domain.Order{}
	if err := r.coll.FindOne(ctx, filter).Decode(order); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find delivered order: %w", err)
	}
	return order, nil
}

// SaveTransition persists the order's new status, code fields and latest history entry,
// guarded on the order still being in status from
func (r *orderRepository) SaveTransition(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	if len(order.UpdateHistory) == 0 {
		return fmt.Errorf("order %s has no history to save", order.ID.Hex())
	}
	latest := order.UpdateHistory[len(order.UpdateHistory)-1]

	filter := bson.M{"_id": order.ID, "status": from}
	update := bson.M{
		"$set": bson.M{
			"status":              order.Status,
			"checkoutCode":        order.CheckoutCode,
			"checkoutCodeExpires": order.CheckoutCodeExpires,
		},
		"$push": bson.M{"updateHistory": latest},
	}

	result, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to save order transition: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderStateChanged
	}
	return nil
}

func (r *orderRepository) find(ctx context.Context, filter bson.M) ([]*domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "placedAt", Value: -1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find orders: %w", err)
	}

	orders := []*domain.Order{}
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}
	return orders, nil
}
