package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var errProductNotFound = domain.NotFound("Product not found")

// ListProductsInput holds the raw catalog query parameters
type ListProductsInput struct {
	Limit    int
	Page     int
	StoreID  string
	Category string
	Query    string
}

// ProductPage is one page of the catalog
type ProductPage struct {
	Items []*domain.Product `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// CreateProductInput is the seller-supplied product data
type CreateProductInput struct {
	Title          string
	Description    string
	Price          float64
	CompareAtPrice *float64
	Category       string
	Brand          string
	Images         []string
	Stock          int
}

// ProductService defines the interface for catalog business logic
type ProductService interface {
	List(ctx context.Context, in ListProductsInput) (*ProductPage, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, seller Actor, sellerName string, in CreateProductInput) (*domain.Product, error)
	Delete(ctx context.Context, actor Actor, id string) error
	Categories(ctx context.Context) ([]string, error)
}

type productService struct {
	productRepo repository.ProductRepository
	storeRepo   repository.StoreRepository
}

// NewProductService creates a new instance of ProductService
func NewProductService(productRepo repository.ProductRepository, storeRepo repository.StoreRepository) ProductService {
	return &productService{productRepo: productRepo, storeRepo: storeRepo}
}

func (s *productService) List(ctx context.Context, in ListProductsInput) (*ProductPage, error) {
	filter := repository.ProductFilter{
		Category: strings.TrimSpace(in.Category),
		Query:    in.Query,
		Page:     in.Page,
		Limit:    in.Limit,
	}.Normalize()

	if in.StoreID != "" {
		storeID, err := domain.ParseObjectID(in.StoreID, "store id")
		if err != nil {
			return nil, err
		}
		filter.StoreID = &storeID
	}

	products, total, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ProductPage{Items: products, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) Get(ctx context.Context, id string) (*domain.Product, error) {
	productID, err := domain.ParseObjectID(id, "product id")
	if err != nil {
		return nil, err
	}
	return s.findProduct(ctx, productID)
}

// Create adds a product to the seller's store, creating the store on first use
func (s *productService) Create(ctx context.Context, seller Actor, sellerName string, in CreateProductInput) (*domain.Product, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, domain.InvalidRequest("Title is required")
	}
	if in.Price < 0 {
		return nil, domain.InvalidRequest("Price must not be negative")
	}
	if in.Stock < 0 {
		return nil, domain.InvalidRequest("Stock must not be negative")
	}

	store, err := s.storeRepo.GetOrCreateForOwner(ctx, seller.UserID, defaultStoreName(sellerName))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve seller store: %w", err)
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:             primitive.NewObjectID(),
		Title:          title,
		Description:    in.Description,
		Price:          in.Price,
		CompareAtPrice: in.CompareAtPrice,
		StoreID:        store.ID,
		Category:       strings.TrimSpace(in.Category),
		Brand:          strings.TrimSpace(in.Brand),
		Images:         in.Images,
		Stock:          in.Stock,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	return product, nil
}

// Delete removes a product owned by the actor's store; admins may delete any product
func (s *productService) Delete(ctx context.Context, actor Actor, id string) error {
	productID, err := domain.ParseObjectID(id, "product id")
	if err != nil {
		return err
	}

	product, err := s.findProduct(ctx, productID)
	if err != nil {
		return err
	}

	if !actor.IsAdmin() {
		store, err := s.storeRepo.FindByOwner(ctx, actor.UserID)
		if err != nil && !errors.Is(err, repository.ErrStoreNotFound) {
			return fmt.Errorf("failed to find seller store: %w", err)
		}
		if store == nil || store.ID != product.StoreID {
			return domain.Forbidden("You do not own this product")
		}
	}

	if err := s.productRepo.Delete(ctx, productID); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return errProductNotFound
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func (s *productService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.productRepo.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *productService) findProduct(ctx context.Context, id primitive.ObjectID) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, errProductNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return product, nil
}
