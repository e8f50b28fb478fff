package storefront

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotSignedIn is returned by controller operations that need an account
var ErrNotSignedIn = errors.New("storefront: not signed in")

// APIError is a non-2xx API response
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// OrderItemRequest is one basket line of a placement
type OrderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// ProductQuery filters the catalog
type ProductQuery struct {
	Limit    int
	Page     int
	StoreID  string
	Category string
	Query    string
}

type CartAPI interface {
	GetCart(ctx context.Context) (*CartPayload, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*CartPayload, error)
	UpdateCartItem(ctx context.Context, productID string, quantity int) (*CartPayload, error)
	RemoveCartItem(ctx context.Context, productID string) (*CartPayload, error)
}

type OrderAPI interface {
	PlaceOrder(ctx context.Context, items []OrderItemRequest) (*PlaceOrderPayload, error)
	ConfirmOrder(ctx context.Context, orderID, code string) (*OrderPayload, error)
	BuyerOrders(ctx context.Context) ([]OrderPayload, error)
}

type FavoriteAPI interface {
	Favorites(ctx context.Context) ([]ProductPayload, error)
	ToggleFavorite(ctx context.Context, productID string) (bool, error)
}

type CatalogAPI interface {
	Products(ctx context.Context, q ProductQuery) (*ProductPagePayload, error)
	Product(ctx context.Context, id string) (*ProductPayload, error)
}
