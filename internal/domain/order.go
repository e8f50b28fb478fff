package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OrderStatus represents the status of an order
type OrderStatus string

const (
	OrderStatusUnconfirmed OrderStatus = "unconfirmed"
	OrderStatusPending     OrderStatus = "pending"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusCanceled    OrderStatus = "canceled"
)

// IsValid checks if the status is a valid OrderStatus
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusUnconfirmed, OrderStatusPending, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of OrderStatus
func (s OrderStatus) String() string {
	return string(s)
}

// IsSellerSettable reports whether a seller may request this status.
// Moves among pending, delivered and canceled are not further restricted.
func (s OrderStatus) IsSellerSettable() bool {
	switch s {
	case OrderStatusPending, OrderStatusDelivered, OrderStatusCanceled:
		return true
	}
	return false
}

// Messages surfaced to clients verbatim
const (
	MsgNoCheckoutCode      = "No checkout code for this order"
	MsgCheckoutCodeExpired = "Checkout code expired"
	MsgInvalidCode         = "Invalid code"
	MsgMustConfirmFirst    = "Order must be confirmed with code before updating status"
	MsgInvalidStatus       = "Invalid status"
)

// OrderItem is a snapshot of a product taken when the order is placed
type OrderItem struct {
	ProductID primitive.ObjectID `bson:"product" json:"product"`
	Title     string             `bson:"title" json:"title"`
	Price     float64            `bson:"price" json:"price"`
	Quantity  int                `bson:"quantity" json:"quantity"`
	Image     string             `bson:"image,omitempty" json:"image,omitempty"`
}

// StatusChange is one entry of the append-only update history
type StatusChange struct {
	Status    OrderStatus `bson:"status" json:"status"`
	ChangedAt time.Time   `bson:"changedAt" json:"changedAt"`
}

// Order is a buyer's purchase from a single store
type Order struct {
	ID                  primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BuyerID             string             `bson:"buyer" json:"buyerId"`
	StoreID             primitive.ObjectID `bson:"store" json:"storeId"`
	Items               []OrderItem        `bson:"items" json:"items"`
	Total               float64            `bson:"total" json:"total"`
	Status              OrderStatus        `bson:"status" json:"status"`
	PlacedAt            time.Time          `bson:"placedAt" json:"placedAt"`
	CheckoutCode        *string            `bson:"checkoutCode" json:"-"`
	CheckoutCodeExpires *time.Time         `bson:"checkoutCodeExpires" json:"checkoutCodeExpires"`
	UpdateHistory       []StatusChange     `bson:"updateHistory" json:"updateHistory"`
}

// OrderTotal sums price x quantity over items using decimal arithmetic
func OrderTotal(items []OrderItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		line := decimal.NewFromFloat(it.Price).Mul(decimal.NewFromInt(int64(it.Quantity)))
		total = total.Add(line)
	}
	return total.Round(2).InexactFloat64()
}

// NewOrder creates an unconfirmed order holding a checkout code valid for ttl
func NewOrder(buyerID string, storeID primitive.ObjectID, items []OrderItem, code string, now time.Time, ttl time.Duration) *Order {
	expires := now.Add(ttl)
	return &Order{
		ID:                  primitive.NewObjectID(),
		BuyerID:             buyerID,
		StoreID:             storeID,
		Items:               items,
		Total:               OrderTotal(items),
		Status:              OrderStatusUnconfirmed,
		PlacedAt:            now,
		CheckoutCode:        &code,
		CheckoutCodeExpires: &expires,
		UpdateHistory:       []StatusChange{{Status: OrderStatusUnconfirmed, ChangedAt: now}},
	}
}

// Confirm moves an unconfirmed order to pending when code matches before expiry.
// It is the only way out of the unconfirmed state.
func (o *Order) Confirm(code string, now time.Time) error {
	if o.CheckoutCode == nil || *o.CheckoutCode == "" {
		return InvalidRequest(MsgNoCheckoutCode)
	}
	if o.CheckoutCodeExpires != nil && now.After(*o.CheckoutCodeExpires) {
		return Expired(MsgCheckoutCodeExpired)
	}
	if strings.TrimSpace(code) != strings.TrimSpace(*o.CheckoutCode) {
		return Mismatch(MsgInvalidCode)
	}

	o.Status = OrderStatusPending
	o.CheckoutCode = nil
	o.CheckoutCodeExpires = nil
	o.appendHistory(OrderStatusPending, now)
	return nil
}

// UpdateStatus applies a seller-requested status to a confirmed order
func (o *Order) UpdateStatus(target OrderStatus, now time.Time) error {
	if o.Status == OrderStatusUnconfirmed {
		return InvalidRequest(MsgMustConfirmFirst)
	}
	if !target.IsSellerSettable() {
		return InvalidRequest(MsgInvalidStatus)
	}

	o.Status = target
	o.appendHistory(target, now)
	return nil
}

// HasProduct reports whether the order contains productID
func (o *Order) HasProduct(productID primitive.ObjectID) bool {
	for _, it := range o.Items {
		if it.ProductID == productID {
			return true
		}
	}
	return false
}

func (o *Order) appendHistory(status OrderStatus, at time.Time) {
	o.UpdateHistory = append(o.UpdateHistory, StatusChange{Status: status, ChangedAt: at})
}
