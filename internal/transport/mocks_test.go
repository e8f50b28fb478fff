package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/repository"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const testSecret = "test-secret"

// Mock repositories for testing
type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.User, error) {
	var found []*domain.User
	for _, id := range ids {
		if u, err := m.FindByID(ctx, id); err == nil {
			found = append(found, u)
		}
	}
	return found, nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	rt, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if rt.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return rt, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	rt, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	rt.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, rt := range m.tokens {
		if rt.UserID == userID && !rt.Revoked {
			rt.Revoked = true
			n++
		}
	}
	return n, nil
}

type mockStoreRepository struct {
	stores map[string]*domain.Store
}

func newMockStoreRepository() *mockStoreRepository {
	return &mockStoreRepository{stores: make(map[string]*domain.Store)}
}

func (m *mockStoreRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Store, error) {
	for _, s := range m.stores {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, repository.ErrStoreNotFound
}

func (m *mockStoreRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error) {
	s, ok := m.stores[ownerID]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return s, nil
}

func (m *mockStoreRepository) GetOrCreateForOwner(ctx context.Context, ownerID, name string) (*domain.Store, error) {
	if s, ok := m.stores[ownerID]; ok {
		return s, nil
	}
	s := &domain.Store{ID: primitive.NewObjectID(), OwnerID: ownerID, Name: name, Status: domain.StoreStatusPending}
	m.stores[ownerID] = s
	return s, nil
}

func (m *mockStoreRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StoreStatus) (*domain.Store, error) {
	s, err := m.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Status = status
	return s, nil
}

// Stub services; unset funcs panic so a test notices an unexpected call

type stubOrderService struct {
	place   func(buyer service.Actor, items []service.OrderItemInput) (*service.PlaceOrderResult, error)
	confirm func(buyer service.Actor, orderID, code string) (*domain.Order, error)
	update  func(actor service.Actor, orderID string, status domain.OrderStatus) (*domain.Order, error)
	buyer   func(buyer service.Actor) ([]*service.OrderView, error)
}

func (s *stubOrderService) PlaceOrder(ctx context.Context, buyer service.Actor, items []service.OrderItemInput) (*service.PlaceOrderResult, error) {
	return s.place(buyer, items)
}

func (s *stubOrderService) ConfirmOrder(ctx context.Context, buyer service.Actor, orderID, code string) (*domain.Order, error) {
	return s.confirm(buyer, orderID, code)
}

func (s *stubOrderService) UpdateOrderStatus(ctx context.Context, actor service.Actor, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	return s.update(actor, orderID, status)
}

func (s *stubOrderService) BuyerOrders(ctx context.Context, buyer service.Actor) ([]*service.OrderView, error) {
	return s.buyer(buyer)
}

func (s *stubOrderService) SellerOrders(ctx context.Context, seller service.Actor) ([]*service.OrderView, error) {
	return nil, nil
}

type stubCartService struct {
	add func(userID, productID string, quantity int) (*service.CartView, error)
}

func (s *stubCartService) Get(ctx context.Context, userID string) (*service.CartView, error) {
	return &service.CartView{UserID: userID, Items: []service.CartLine{}}, nil
}

func (s *stubCartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*service.CartView, error) {
	return s.add(userID, productID, quantity)
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*service.CartView, error) {
	return s.add(userID, productID, quantity)
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, productID string) (*service.CartView, error) {
	return s.Get(ctx, userID)
}

func (s *stubCartService) Clear(ctx context.Context, userID string) (*service.CartView, error) {
	return s.Get(ctx, userID)
}

// testGuards wires the real auth and role middleware
func testGuards(logger *zap.Logger) Guards {
	return Guards{
		Auth: middleware.AuthMiddleware(testSecret, logger),
		RequireRole: func(roles ...string) func(http.Handler) http.Handler {
			return middleware.RequireRole(logger, roles...)
		},
	}
}

type routeRegistrar interface {
	RegisterRoutes(r chi.Router, g Guards)
}

func newTestRouter(h routeRegistrar) chi.Router {
	r := chi.NewRouter()
	h.RegisterRoutes(r, testGuards(zap.NewNop()))
	return r
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"userId": userID,
		"role":   role,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return "Bearer " + signed
}
