package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/events"
	"marketplace/internal/notify"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const DefaultCheckoutCodeTTL = 5 * time.Minute

// DefaultPublishTimeout bounds how long a state change waits on the event broker
const DefaultPublishTimeout = 2 * time.Second

var errOrderNotFound = domain.NotFound("Order not found")

// CheckoutSettings controls checkout code generation and disclosure
type CheckoutSettings struct {
	CodeTTL    time.Duration
	CodeLength int
	// ExposeCode returns the code in the placement response even when the email went out
	ExposeCode bool
}

// OrderItemInput is one requested basket line
type OrderItemInput struct {
	ProductID string
	Quantity  int
}

// PlaceOrderResult is returned from PlaceOrder. CheckoutCode is only set when it may be disclosed.
type PlaceOrderResult struct {
	Order        *domain.Order `json:"order"`
	EmailSent    bool          `json:"emailSent"`
	CheckoutCode string        `json:"checkoutCode,omitempty"`
}

// OrderView is an order with its buyer's name and email joined on
type OrderView struct {
	*domain.Order
	Buyer *domain.UserSummary `json:"buyer,omitempty"`
}

// OrderService defines the interface for the order ledger
type OrderService interface {
	PlaceOrder(ctx context.Context, buyer Actor, items []OrderItemInput) (*PlaceOrderResult, error)
	ConfirmOrder(ctx context.Context, buyer Actor, orderID, code string) (*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, actor Actor, orderID string, status domain.OrderStatus) (*domain.Order, error)
	BuyerOrders(ctx context.Context, buyer Actor) ([]*OrderView, error)
	SellerOrders(ctx context.Context, seller Actor) ([]*OrderView, error)
}

// OrderServiceDeps groups the collaborators of the order service
type OrderServiceDeps struct {
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Carts     repository.CartRepository
	Stores    repository.StoreRepository
	Users     repository.UserRepository
	Notifier  notify.Notifier
	Publisher events.Publisher
}

type orderService struct {
	OrderServiceDeps
	settings CheckoutSettings
	logger   *zap.Logger

	now            func() time.Time
	newCode        func(length int) (string, error)
	publishTimeout time.Duration
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(deps OrderServiceDeps, settings CheckoutSettings, logger *zap.Logger) OrderService {
	if settings.CodeTTL <= 0 {
		settings.CodeTTL = DefaultCheckoutCodeTTL
	}
	if settings.CodeLength <= 0 {
		settings.CodeLength = domain.DefaultCheckoutCodeLength
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.NewDisabledNotifier()
	}
	if deps.Publisher == nil {
		deps.Publisher = events.NewNoopPublisher()
	}
	return &orderService{
		OrderServiceDeps: deps,
		settings:         settings,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		newCode:          domain.GenerateCheckoutCode,
		publishTimeout:   DefaultPublishTimeout,
	}
}

// PlaceOrder snapshots the resolvable items into an unconfirmed order and emails its checkout code.
// Items whose product no longer exists are skipped. The first resolved item pins the store.
func (s *orderService) PlaceOrder(ctx context.Context, buyer Actor, items []OrderItemInput) (*PlaceOrderResult, error) {
	if len(items) == 0 {
		return nil, domain.InvalidRequest("Order must contain at least one item")
	}

	ids := make([]primitive.ObjectID, 0, len(items))
	for _, it := range items {
		pid, err := domain.ParseObjectID(it.ProductID, "product id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, pid)
	}

	products, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve order products: %w", err)
	}
	byID := make(map[primitive.ObjectID]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var storeID primitive.ObjectID
	snapshot := make([]domain.OrderItem, 0, len(items))
	for i, it := range items {
		product, ok := byID[ids[i]]
		if !ok {
			continue
		}
		if len(snapshot) == 0 {
			storeID = product.StoreID
		}
		snapshot = append(snapshot, domain.OrderItem{
			ProductID: product.ID,
			Title:     product.Title,
			Price:     product.Price,
			Quantity:  domain.ClampQuantity(it.Quantity),
			Image:     product.PrimaryImage(),
		})
	}

	if len(snapshot) == 0 {
		return nil, domain.InvalidRequest("No valid items in order")
	}

	code, err := s.newCode(s.settings.CodeLength)
	if err != nil {
		return nil, err
	}

	order := domain.NewOrder(buyer.UserID, storeID, snapshot, code, s.now(), s.settings.CodeTTL)
	if err := s.Orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.Hex()),
		zap.String("buyer_id", buyer.UserID),
		zap.String("store_id", storeID.Hex()),
		zap.Int("items", len(snapshot)),
		zap.Float64("total", order.Total),
	)
	s.publish(ctx, events.OrderPlaced, order)

	emailSent := s.sendCheckoutCode(ctx, buyer, order, code)

	result := &PlaceOrderResult{Order: order, EmailSent: emailSent}
	if !emailSent || s.settings.ExposeCode {
		result.CheckoutCode = code
	}
	return result, nil
}

// sendCheckoutCode reports whether the code reached the notification gateway
func (s *orderService) sendCheckoutCode(ctx context.Context, buyer Actor, order *domain.Order, code string) bool {
	logger := s.logger.With(zap.String("order_id", order.ID.Hex()))

	buyerID, err := uuid.Parse(buyer.UserID)
	if err != nil {
		logger.Warn("Buyer id is not a user id, checkout code not emailed", zap.String("buyer_id", buyer.UserID))
		return false
	}
	user, err := s.Users.FindByID(ctx, buyerID)
	if err != nil {
		logger.Warn("Failed to load buyer for checkout email", zap.Error(err))
		return false
	}

	msg := notify.CheckoutCodeMessage{
		To:        user.Email,
		BuyerName: user.Name,
		OrderID:   order.ID.Hex(),
		Code:      code,
		Total:     order.Total,
		ExpiresAt: *order.CheckoutCodeExpires,
	}
	if err := s.Notifier.SendCheckoutCode(ctx, msg); err != nil {
		if errors.Is(err, notify.ErrNotConfigured) {
			logger.Info("Mail not configured, returning checkout code in response")
		} else {
			logger.Error("Failed to send checkout code", zap.Error(err))
		}
		return false
	}
	return true
}

// ConfirmOrder is the only transition out of unconfirmed
func (s *orderService) ConfirmOrder(ctx context.Context, buyer Actor, orderID, code string) (*domain.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyer.UserID {
		return nil, domain.Forbidden("You can only confirm your own orders")
	}

	from := order.Status
	if err := order.Confirm(code, s.now()); err != nil {
		return nil, err
	}

	if err := s.Orders.SaveTransition(ctx, order, from); err != nil {
		if errors.Is(err, repository.ErrOrderStateChanged) {
			// Someone else consumed the code first
			return nil, domain.InvalidRequest(domain.MsgNoCheckoutCode)
		}
		return nil, fmt.Errorf("failed to confirm order: %w", err)
	}

	s.logger.Info("Order confirmed", zap.String("order_id", order.ID.Hex()))
	s.settleConfirmedOrder(ctx, order)
	s.publish(ctx, events.OrderConfirmed, order)

	return order, nil
}

// settleConfirmedOrder decrements stock and clears the bought lines from the cart.
// Failures are logged and never undo the confirmation.
func (s *orderService) settleConfirmedOrder(ctx context.Context, order *domain.Order) {
	logger := s.logger.With(zap.String("order_id", order.ID.Hex()))

	pids := make([]primitive.ObjectID, 0, len(order.Items))
	for _, it := range order.Items {
		pids = append(pids, it.ProductID)

		ok, err := s.Products.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			logger.Error("Failed to decrement stock", zap.String("product_id", it.ProductID.Hex()), zap.Error(err))
			continue
		}
		if !ok {
			logger.Warn("Insufficient stock for confirmed order",
				zap.String("product_id", it.ProductID.Hex()),
				zap.Int("quantity", it.Quantity),
			)
		}
	}

	if err := s.Carts.PullItems(ctx, order.BuyerID, pids...); err != nil {
		logger.Error("Failed to remove ordered items from cart", zap.Error(err))
	}
}

// UpdateOrderStatus applies a seller-requested status to a confirmed order of the seller's store
func (s *orderService) UpdateOrderStatus(ctx context.Context, actor Actor, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	order, err := s.findOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	from := order.Status
	if err := order.UpdateStatus(status, s.now()); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		store, err := s.Stores.FindByOwner(ctx, actor.UserID)
		if err != nil && !errors.Is(err, repository.ErrStoreNotFound) {
			return nil, fmt.Errorf("failed to find seller store: %w", err)
		}
		if store == nil || store.ID != order.StoreID {
			return nil, domain.Forbidden("Order does not belong to your store")
		}
	}

	if err := s.Orders.SaveTransition(ctx, order, from); err != nil {
		if errors.Is(err, repository.ErrOrderStateChanged) {
			return nil, domain.Conflict("Order was updated concurrently, please reload")
		}
		return nil, fmt.Errorf("failed to update order status: %w", err)
	}

	s.logger.Info("Order status updated",
		zap.String("order_id", order.ID.Hex()),
		zap.String("from", from.String()),
		zap.String("to", status.String()),
	)
	s.publish(ctx, events.OrderStatusChanged, order)

	return order, nil
}

// BuyerOrders returns the buyer's orders, newest first
func (s *orderService) BuyerOrders(ctx context.Context, buyer Actor) ([]*OrderView, error) {
	orders, err := s.Orders.FindByBuyer(ctx, buyer.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list buyer orders: %w", err)
	}

	var summary *domain.UserSummary
	if id, err := uuid.Parse(buyer.UserID); err == nil {
		if user, err := s.Users.FindByID(ctx, id); err == nil {
			sum := user.Summary()
			summary = &sum
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to load buyer: %w", err)
		}
	}

	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		views = append(views, &OrderView{Order: o, Buyer: summary})
	}
	return views, nil
}

// SellerOrders returns the orders of the seller's store with buyers batch-loaded in one query
func (s *orderService) SellerOrders(ctx context.Context, seller Actor) ([]*OrderView, error) {
	store, err := s.Stores.FindByOwner(ctx, seller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, errStoreNotFound
		}
		return nil, fmt.Errorf("failed to find seller store: %w", err)
	}

	orders, err := s.Orders.FindByStore(ctx, store.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list store orders: %w", err)
	}

	seen := make(map[uuid.UUID]struct{})
	buyerIDs := make([]uuid.UUID, 0)
	for _, o := range orders {
		id, err := uuid.Parse(o.BuyerID)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		buyerIDs = append(buyerIDs, id)
	}

	users, err := s.Users.FindByIDs(ctx, buyerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load buyers: %w", err)
	}
	summaries := make(map[string]domain.UserSummary, len(users))
	for _, u := range users {
		summaries[u.ID.String()] = u.Summary()
	}

	views := make([]*OrderView, 0, len(orders))
	for _, o := range orders {
		view := &OrderView{Order: o}
		if sum, ok := summaries[o.BuyerID]; ok {
			view.Buyer = &sum
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *orderService) findOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := domain.ParseObjectID(orderID, "order id")
	if err != nil {
		return nil, err
	}

	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, errOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order: %w", err)
	}
	return order, nil
}

func (s *orderService) publish(ctx context.Context, eventType string, order *domain.Order) {
	event := events.OrderEvent{
		Type:       eventType,
		OrderID:    order.ID.Hex(),
		BuyerID:    order.BuyerID,
		StoreID:    order.StoreID.Hex(),
		Status:     order.Status.String(),
		Total:      order.Total,
		OccurredAt: s.now(),
	}

	// The change is already stored; a slow broker or a client hang-up must not hold the request
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	if err := s.Publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish order event",
			zap.String("type", eventType),
			zap.String("order_id", event.OrderID),
			zap.Error(err),
		)
	}
}
