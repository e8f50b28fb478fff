package storefront

import (
	"context"

	"go.uber.org/zap"
)

// CartController applies cart changes locally before the API confirms them.
// Without a credential every mutation is a no-op: guest carts stay client-side and empty.
type CartController struct {
	api     CartAPI
	creds   Credentials
	catalog *Catalog
	cart    *Container[CartState]
	logger  *zap.Logger
}

func NewCartController(api CartAPI, creds Credentials, catalog *Catalog, logger *zap.Logger) *CartController {
	return &CartController{
		api:     api,
		creds:   creds,
		catalog: catalog,
		cart:    NewContainer(CartState{}),
		logger:  logger,
	}
}

// State returns the current cart snapshot
func (c *CartController) State() CartState {
	return c.cart.Get()
}

// ItemCount is the number of units shown on the cart badge
func (c *CartController) ItemCount() int {
	return c.cart.Get().ItemCount()
}

// Subtotal prices the cart with the shared catalog
func (c *CartController) Subtotal() float64 {
	return c.cart.Get().Subtotal(c.catalog)
}

// Reset empties the local cart, e.g. on sign-out
func (c *CartController) Reset() {
	c.cart.Set(CartState{})
}

// Load replaces the local cart with the server's
func (c *CartController) Load(ctx context.Context) error {
	if !signedIn(c.creds) {
		return nil
	}

	payload, err := c.api.GetCart(ctx)
	if err != nil {
		return err
	}
	c.cart.Set(NormalizeCart(*payload, c.catalog))
	return nil
}

// Add adds quantity units of productID. On failure the added units are taken back out.
func (c *CartController) Add(ctx context.Context, productID string, quantity int) error {
	if !signedIn(c.creds) {
		return nil
	}
	quantity = clampQuantity(quantity)

	return Run(ctx, Command{
		Name: "cart.add",
		Apply: func() {
			c.cart.Update(func(s CartState) CartState { return AddLine(s, productID, quantity) })
		},
		Commit: func(ctx context.Context) error {
			payload, err := c.api.AddToCart(ctx, productID, quantity)
			if err != nil {
				return err
			}
			c.cart.Set(NormalizeCart(*payload, c.catalog))
			return nil
		},
		Compensate: func(ctx context.Context, cause error) {
			c.logger.Warn("Cart add failed, rolling back",
				zap.String("product_id", productID),
				zap.Int("quantity", quantity),
				zap.Error(cause),
			)
			c.cart.Update(func(s CartState) CartState { return AddLine(s, productID, -quantity) })
		},
	})
}

// SetQuantity sets the quantity of an existing line. On failure the cart is reloaded.
func (c *CartController) SetQuantity(ctx context.Context, productID string, quantity int) error {
	if !signedIn(c.creds) {
		return nil
	}

	return Run(ctx, Command{
		Name: "cart.update",
		Apply: func() {
			c.cart.Update(func(s CartState) CartState { return SetLine(s, productID, quantity) })
		},
		Commit: func(ctx context.Context) error {
			payload, err := c.api.UpdateCartItem(ctx, productID, clampQuantity(quantity))
			if err != nil {
				return err
			}
			c.cart.Set(NormalizeCart(*payload, c.catalog))
			return nil
		},
		Compensate: c.reload("cart.update", productID),
	})
}

// Remove drops productID's line. On failure the cart is reloaded.
func (c *CartController) Remove(ctx context.Context, productID string) error {
	if !signedIn(c.creds) {
		return nil
	}

	return Run(ctx, Command{
		Name: "cart.remove",
		Apply: func() {
			c.cart.Update(func(s CartState) CartState { return RemoveLine(s, productID) })
		},
		Commit: func(ctx context.Context) error {
			payload, err := c.api.RemoveCartItem(ctx, productID)
			if err != nil {
				return err
			}
			c.cart.Set(NormalizeCart(*payload, c.catalog))
			return nil
		},
		Compensate: c.reload("cart.remove", productID),
	})
}

func (c *CartController) reload(op, productID string) func(context.Context, error) {
	return func(ctx context.Context, cause error) {
		c.logger.Warn("Cart change failed, reloading",
			zap.String("op", op),
			zap.String("product_id", productID),
			zap.Error(cause),
		)
		if err := c.Load(ctx); err != nil {
			c.logger.Error("Failed to reload cart", zap.Error(err))
		}
	}
}
