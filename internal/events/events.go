package events

import (
	"context"
	"time"
)

// Event types of the order lifecycle
const (
	OrderPlaced        = "order.placed"
	OrderConfirmed     = "order.confirmed"
	OrderStatusChanged = "order.status_changed"
)

// OrderEvent is published after an order transition has been persisted
type OrderEvent struct {
	Type       string    `json:"type"`
	OrderID    string    `json:"orderId"`
	BuyerID    string    `json:"buyerId"`
	StoreID    string    `json:"storeId"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher emits order lifecycle events
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
	Close() error
}

type noopPublisher struct{}

// NewNoopPublisher returns a Publisher that drops every event
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(context.Context, OrderEvent) error { return nil }
func (noopPublisher) Close() error                              { return nil }
