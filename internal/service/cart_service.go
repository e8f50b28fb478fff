package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CartLine is a cart item as rendered to clients.
// The product is inlined when it still resolves and falls back to its bare id otherwise.
type CartLine struct {
	ProductID primitive.ObjectID
	Product   *domain.Product
	Quantity  int
}

func (l CartLine) MarshalJSON() ([]byte, error) {
	var product any = l.ProductID.Hex()
	if l.Product != nil {
		product = l.Product
	}
	return json.Marshal(struct {
		Product  any `json:"product"`
		Quantity int `json:"quantity"`
	}{product, l.Quantity})
}

// CartView is the cart response body
type CartView struct {
	ID        primitive.ObjectID `json:"id"`
	UserID    string             `json:"userId"`
	Items     []CartLine         `json:"items"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// CartService defines the interface for cart business logic
type CartService interface {
	Get(ctx context.Context, userID string) (*CartView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error)
	RemoveItem(ctx context.Context, userID, productID string) (*CartView, error)
	Clear(ctx context.Context, userID string) (*CartView, error)
}

type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) CartService {
	return &cartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *cartService) Get(ctx context.Context, userID string) (*CartView, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return s.render(ctx, cart)
}

// AddItem merges quantity into an existing line or appends a new one
func (s *cartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	pid, err := domain.ParseObjectID(productID, "product id")
	if err != nil {
		return nil, err
	}
	quantity = domain.ClampQuantity(quantity)

	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, errProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}

	if _, err := s.cartRepo.GetOrCreate(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := s.mergeLine(ctx, userID, pid, quantity); err != nil {
		return nil, err
	}

	return s.Get(ctx, userID)
}

// mergeLine runs increment-if-present, then push-if-absent, then one more increment
// for the case where another request pushed the line in between.
func (s *cartService) mergeLine(ctx context.Context, userID string, pid primitive.ObjectID, quantity int) error {
	matched, err := s.cartRepo.IncrementItem(ctx, userID, pid, quantity)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if matched {
		return nil
	}

	pushed, err := s.cartRepo.PushItem(ctx, userID, domain.CartItem{ProductID: pid, Quantity: quantity})
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if pushed {
		return nil
	}

	matched, err = s.cartRepo.IncrementItem(ctx, userID, pid, quantity)
	if err != nil {
		return fmt.Errorf("failed to add cart item: %w", err)
	}
	if !matched {
		return domain.Conflict("Cart changed concurrently, please retry")
	}
	return nil
}

// UpdateItem sets the quantity of an existing line; absent lines are left alone
func (s *cartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*CartView, error) {
	pid, err := domain.ParseObjectID(productID, "product id")
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.SetItemQuantity(ctx, userID, pid, domain.ClampQuantity(quantity)); err != nil {
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

// RemoveItem pulls a line; removing an absent line succeeds
func (s *cartService) RemoveItem(ctx context.Context, userID, productID string) (*CartView, error) {
	pid, err := domain.ParseObjectID(productID, "product id")
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.PullItems(ctx, userID, pid); err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *cartService) Clear(ctx context.Context, userID string) (*CartView, error) {
	if err := s.cartRepo.Clear(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	return s.Get(ctx, userID)
}

func (s *cartService) render(ctx context.Context, cart *domain.Cart) (*CartView, error) {
	ids := make([]primitive.ObjectID, 0, len(cart.Items))
	for _, it := range cart.Items {
		ids = append(ids, it.ProductID)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}
	byID := make(map[primitive.ObjectID]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	view := &CartView{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     make([]CartLine, 0, len(cart.Items)),
		UpdatedAt: cart.UpdatedAt,
	}
	for _, it := range cart.Items {
		view.Items = append(view.Items, CartLine{
			ProductID: it.ProductID,
			Product:   byID[it.ProductID],
			Quantity:  it.Quantity,
		})
	}
	return view, nil
}
