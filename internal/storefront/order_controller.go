package storefront

import (
	"context"

	"go.uber.org/zap"
)

// PlacedOrder is the outcome of a placement
type PlacedOrder struct {
	Order     Order
	EmailSent bool
	// CheckoutCode is only set when the server disclosed it
	CheckoutCode string
}

// OrderController drives placement and confirmation from the buyer's side
type OrderController struct {
	api     OrderAPI
	creds   Credentials
	catalog *Catalog
	book    *OrderBook
	cart    *CartController
	logger  *zap.Logger
}

// NewOrderController creates an OrderController. cart is reloaded after a confirmation
// since the server removes confirmed products from it; it may be nil.
func NewOrderController(api OrderAPI, creds Credentials, catalog *Catalog, book *OrderBook, cart *CartController, logger *zap.Logger) *OrderController {
	return &OrderController{
		api:     api,
		creds:   creds,
		catalog: catalog,
		book:    book,
		cart:    cart,
		logger:  logger,
	}
}

func (c *OrderController) Orders() []Order {
	return c.book.All()
}

// Place submits a basket. Placement is not optimistic: the order id comes from the server.
func (c *OrderController) Place(ctx context.Context, items []OrderItemRequest) (*PlacedOrder, error) {
	if !signedIn(c.creds) {
		return nil, ErrNotSignedIn
	}

	payload, err := c.api.PlaceOrder(ctx, items)
	if err != nil {
		return nil, err
	}

	order := NormalizeOrder(payload.Order, c.catalog)
	c.book.Upsert(order)

	if !payload.EmailSent {
		c.logger.Warn("Checkout code email was not sent", zap.String("order_id", order.ID))
	}
	return &PlacedOrder{Order: order, EmailSent: payload.EmailSent, CheckoutCode: payload.CheckoutCode}, nil
}

// Confirm redeems a checkout code. The order shows as pending right away
// and gets its previous status back if the server refuses.
func (c *OrderController) Confirm(ctx context.Context, orderID, code string) error {
	if !signedIn(c.creds) {
		return ErrNotSignedIn
	}

	var prev string
	var known bool
	err := Run(ctx, Command{
		Name: "order.confirm",
		Apply: func() {
			prev, known = c.book.SetStatus(orderID, StatusPending)
		},
		Commit: func(ctx context.Context) error {
			payload, err := c.api.ConfirmOrder(ctx, orderID, code)
			if err != nil {
				return err
			}
			c.book.Upsert(NormalizeOrder(*payload, c.catalog))
			return nil
		},
		Compensate: func(ctx context.Context, cause error) {
			c.logger.Warn("Order confirmation failed, restoring status",
				zap.String("order_id", orderID),
				zap.Error(cause),
			)
			if known {
				c.book.SetStatus(orderID, prev)
			}
		},
	})
	if err != nil {
		return err
	}

	if c.cart != nil {
		if err := c.cart.Load(ctx); err != nil {
			c.logger.Warn("Failed to refresh cart after confirmation", zap.Error(err))
		}
	}
	return nil
}

// LoadBuyerOrders replaces the book with the caller's orders
func (c *OrderController) LoadBuyerOrders(ctx context.Context) error {
	if !signedIn(c.creds) {
		return ErrNotSignedIn
	}

	payloads, err := c.api.BuyerOrders(ctx)
	if err != nil {
		return err
	}

	orders := make([]Order, 0, len(payloads))
	for _, p := range payloads {
		orders = append(orders, NormalizeOrder(p, c.catalog))
	}
	c.book.Replace(orders)
	return nil
}
