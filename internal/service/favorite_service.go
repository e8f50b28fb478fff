package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// FavoriteService defines the interface for favorites
type FavoriteService interface {
	List(ctx context.Context, userID string) ([]*domain.Product, error)
	Toggle(ctx context.Context, userID, productID string) (favorited bool, err error)
}

type favoriteService struct {
	favoriteRepo repository.FavoriteRepository
	productRepo  repository.ProductRepository
}

// NewFavoriteService creates a new instance of FavoriteService
func NewFavoriteService(favoriteRepo repository.FavoriteRepository, productRepo repository.ProductRepository) FavoriteService {
	return &favoriteService{favoriteRepo: favoriteRepo, productRepo: productRepo}
}

// List returns the favorited products that still exist, most recently favorited first
func (s *favoriteService) List(ctx context.Context, userID string) ([]*domain.Product, error) {
	ids, err := s.favoriteRepo.ListProductIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list favorites: %w", err)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load favorite products: %w", err)
	}

	byID := make(map[primitive.ObjectID]*domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	ordered := make([]*domain.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Toggle removes an existing favorite or adds a missing one and reports the resulting state
func (s *favoriteService) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	pid, err := domain.ParseObjectID(productID, "product id")
	if err != nil {
		return false, err
	}

	removed, err := s.favoriteRepo.Remove(ctx, userID, pid)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	if removed {
		return false, nil
	}

	if _, err := s.productRepo.FindByID(ctx, pid); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return false, errProductNotFound
		}
		return false, fmt.Errorf("failed to find product: %w", err)
	}

	if err := s.favoriteRepo.Add(ctx, userID, pid); err != nil {
		// A concurrent toggle already added it
		if errors.Is(err, repository.ErrDuplicateKey) {
			return true, nil
		}
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return true, nil
}
