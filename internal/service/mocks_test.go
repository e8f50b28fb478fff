package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/events"
	"marketplace/internal/notify"
	"marketplace/internal/repository"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Mock repositories for testing

type mockUserRepository struct {
	users        map[string]*domain.User
	findByIDsHit int
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
	m.findByIDsHit++
	var found []*domain.User
	for _, id := range ids {
		if u, err := m.FindByID(ctx, id); err == nil {
			found = append(found, u)
		}
	}
	return found, nil
}

func (m *mockUserRepository) add(name, email, role string) *domain.User {
	u := &domain.User{ID: uuid.New(), Name: name, Email: email, Role: role}
	m.users[email] = u
	return u
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
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var n int64
	for _, t := range m.tokens {
		if t.UserID == userID && !t.Revoked {
			t.Revoked = true
			n++
		}
	}
	return n, nil
}

type mockStoreRepository struct {
	stores map[primitive.ObjectID]*domain.Store
}

func newMockStoreRepository() *mockStoreRepository {
	return &mockStoreRepository{stores: make(map[primitive.ObjectID]*domain.Store)}
}

func (m *mockStoreRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Store, error) {
	s, ok := m.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	return s, nil
}

func (m *mockStoreRepository) FindByOwner(ctx context.Context, ownerID string) (*domain.Store, error) {
	for _, s := range m.stores {
		if s.OwnerID == ownerID {
			return s, nil
		}
	}
	return nil, repository.ErrStoreNotFound
}

func (m *mockStoreRepository) GetOrCreateForOwner(ctx context.Context, ownerID, name string) (*domain.Store, error) {
	if s, err := m.FindByOwner(ctx, ownerID); err == nil {
		return s, nil
	}
	s := &domain.Store{ID: primitive.NewObjectID(), OwnerID: ownerID, Name: name, Status: domain.StoreStatusPending}
	m.stores[s.ID] = s
	return s, nil
}

func (m *mockStoreRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.StoreStatus) (*domain.Store, error) {
	s, ok := m.stores[id]
	if !ok {
		return nil, repository.ErrStoreNotFound
	}
	s.Status = status
	return s, nil
}

type mockProductRepository struct {
	products map[primitive.ObjectID]*domain.Product
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{products: make(map[primitive.ObjectID]*domain.Product)}
}

func (m *mockProductRepository) add(title string, price float64, stock int, storeID primitive.ObjectID) *domain.Product {
	p := &domain.Product{ID: primitive.NewObjectID(), Title: title, Price: price, Stock: stock, StoreID: storeID}
	m.products[p.ID] = p
	return p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	return p, nil
}

func (m *mockProductRepository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*domain.Product, error) {
	found := []*domain.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			found = append(found, p)
		}
	}
	return found, nil
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int64, error) {
	var all []*domain.Product
	for _, p := range m.products {
		if filter.StoreID != nil && p.StoreID != *filter.StoreID {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID.Hex() < all[j].ID.Hex() })

	start := (filter.Page - 1) * filter.Limit
	if start > len(all) {
		start = len(all)
	}
	end := start + filter.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func (m *mockProductRepository) Categories(ctx context.Context) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.products {
		if p.Category != "" && !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	return out, nil
}

func (m *mockProductRepository) UpdateRating(ctx context.Context, id primitive.ObjectID, rating domain.Rating) error {
	p, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Rating = rating
	return nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, id primitive.ObjectID, quantity int) (bool, error) {
	p, ok := m.products[id]
	if !ok || p.Stock < quantity {
		return false, nil
	}
	p.Stock -= quantity
	return true, nil
}

type mockCartRepository struct {
	mu    sync.Mutex
	carts map[string]*domain.Cart
	// beforePush runs ahead of PushItem to simulate a concurrent writer
	beforePush func()
}

func newMockCartRepository() *mockCartRepository {
	return &mockCartRepository{carts: make(map[string]*domain.Cart)}
}

func (m *mockCartRepository) GetOrCreate(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(userID)
	cp := *c
	cp.Items = append([]domain.CartItem{}, c.Items...)
	return &cp, nil
}

func (m *mockCartRepository) cart(userID string) *domain.Cart {
	c, ok := m.carts[userID]
	if !ok {
		c = &domain.Cart{ID: primitive.NewObjectID(), UserID: userID, Items: []domain.CartItem{}}
		m.carts[userID] = c
	}
	return c
}

func (m *mockCartRepository) IncrementItem(ctx context.Context, userID string, productID primitive.ObjectID, delta int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return false, nil
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += delta
			return true, nil
		}
	}
	return false, nil
}

func (m *mockCartRepository) PushItem(ctx context.Context, userID string, item domain.CartItem) (bool, error) {
	if m.beforePush != nil {
		hook := m.beforePush
		m.beforePush = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.cart(userID)
	if _, exists := c.Item(item.ProductID); exists {
		return false, nil
	}
	c.Items = append(c.Items, item)
	return true, nil
}

func (m *mockCartRepository) SetItemQuantity(ctx context.Context, userID string, productID primitive.ObjectID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		for i := range c.Items {
			if c.Items[i].ProductID == productID {
				c.Items[i].Quantity = quantity
			}
		}
	}
	return nil
}

func (m *mockCartRepository) PullItems(ctx context.Context, userID string, productIDs ...primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return nil
	}
	drop := make(map[primitive.ObjectID]bool, len(productIDs))
	for _, id := range productIDs {
		drop[id] = true
	}
	kept := c.Items[:0]
	for _, it := range c.Items {
		if !drop[it.ProductID] {
			kept = append(kept, it)
		}
	}
	c.Items = kept
	return nil
}

func (m *mockCartRepository) Clear(ctx context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.carts[userID]; ok {
		c.Items = []domain.CartItem{}
	}
	return nil
}

type mockOrderRepository struct {
	orders map[primitive.ObjectID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[primitive.ObjectID]*domain.Order)}
}

func copyOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem{}, o.Items...)
	cp.UpdateHistory = append([]domain.StatusChange{}, o.UpdateHistory...)
	if o.CheckoutCode != nil {
		code := *o.CheckoutCode
		cp.CheckoutCode = &code
	}
	if o.CheckoutCodeExpires != nil {
		exp := *o.CheckoutCodeExpires
		cp.CheckoutCodeExpires = &exp
	}
	return &cp
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepository) FindByBuyer(ctx context.Context, buyerID string) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepository) FindByStore(ctx context.Context, storeID primitive.ObjectID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.StoreID == storeID {
			out = append(out, copyOrder(o))
		}
	}
	return out, nil
}

func (m *mockOrderRepository) FindDeliveredWithProduct(ctx context.Context, buyerID string, orderID, productID primitive.ObjectID) (*domain.Order, error) {
	o, ok := m.orders[orderID]
	if !ok || o.BuyerID != buyerID || o.Status != domain.OrderStatusDelivered || !o.HasProduct(productID) {
		return nil, repository.ErrOrderNotFound
	}
	return copyOrder(o), nil
}

func (m *mockOrderRepository) SaveTransition(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	stored, ok := m.orders[order.ID]
	if !ok || stored.Status != from {
		return repository.ErrOrderStateChanged
	}
	m.orders[order.ID] = copyOrder(order)
	return nil
}

type reviewKey struct {
	user           string
	product, order primitive.ObjectID
}

type mockReviewRepository struct {
	reviews map[reviewKey]*domain.Review
	// dupErrors is the number of upserts that still fail with a duplicate key
	dupErrors    int
	droppedIndex int
}

func newMockReviewRepository() *mockReviewRepository {
	return &mockReviewRepository{reviews: make(map[reviewKey]*domain.Review)}
}

func (m *mockReviewRepository) Upsert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	if m.dupErrors > 0 {
		m.dupErrors--
		return nil, repository.ErrDuplicateKey
	}
	key := reviewKey{review.UserID, review.ProductID, review.OrderID}
	if existing, ok := m.reviews[key]; ok {
		existing.Rating = review.Rating
		existing.Comment = review.Comment
		return existing, nil
	}
	saved := *review
	saved.ID = primitive.NewObjectID()
	m.reviews[key] = &saved
	return &saved, nil
}

func (m *mockReviewRepository) ListByProduct(ctx context.Context, productID primitive.ObjectID) ([]*domain.Review, error) {
	var out []*domain.Review
	for k, r := range m.reviews {
		if k.product == productID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *mockReviewRepository) DropLegacyIndex(ctx context.Context) error {
	m.droppedIndex++
	return nil
}

type mockFavoriteRepository struct {
	favs map[string][]primitive.ObjectID
}

func newMockFavoriteRepository() *mockFavoriteRepository {
	return &mockFavoriteRepository{favs: make(map[string][]primitive.ObjectID)}
}

func (m *mockFavoriteRepository) Add(ctx context.Context, userID string, productID primitive.ObjectID) error {
	for _, id := range m.favs[userID] {
		if id == productID {
			return repository.ErrDuplicateKey
		}
	}
	m.favs[userID] = append([]primitive.ObjectID{productID}, m.favs[userID]...)
	return nil
}

func (m *mockFavoriteRepository) Remove(ctx context.Context, userID string, productID primitive.ObjectID) (bool, error) {
	ids := m.favs[userID]
	for i, id := range ids {
		if id == productID {
			m.favs[userID] = append(ids[:i:i], ids[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFavoriteRepository) ListProductIDs(ctx context.Context, userID string) ([]primitive.ObjectID, error) {
	return append([]primitive.ObjectID{}, m.favs[userID]...), nil
}

type mockNotifier struct {
	sent []notify.CheckoutCodeMessage
	err  error
}

func (m *mockNotifier) SendCheckoutCode(ctx context.Context, msg notify.CheckoutCodeMessage) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type mockPublisher struct {
	events []events.OrderEvent
	// hang makes Publish wait for its context like an unreachable broker
	hang bool
}

func (m *mockPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	if m.hang {
		<-ctx.Done()
		return ctx.Err()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func (m *mockPublisher) types() []string {
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}

// fixedClock is a settable time source
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }
