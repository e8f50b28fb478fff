package service

import (
	"context"
	"errors"
	"fmt"

	"marketplace/internal/domain"
	"marketplace/internal/repository"
)

var errStoreNotFound = domain.NotFound("Store not found")

// StoreService defines the interface for store business logic
type StoreService interface {
	GetMine(ctx context.Context, ownerID string) (*domain.Store, error)
	SetApproval(ctx context.Context, storeID string, status domain.StoreStatus) (*domain.Store, error)
}

type storeService struct {
	storeRepo repository.StoreRepository
}

// NewStoreService creates a new instance of StoreService
func NewStoreService(storeRepo repository.StoreRepository) StoreService {
	return &storeService{storeRepo: storeRepo}
}

func (s *storeService) GetMine(ctx context.Context, ownerID string) (*domain.Store, error) {
	store, err := s.storeRepo.FindByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, errStoreNotFound
		}
		return nil, fmt.Errorf("failed to find store: %w", err)
	}
	return store, nil
}

// SetApproval approves or rejects a store; an empty status approves
func (s *storeService) SetApproval(ctx context.Context, storeID string, status domain.StoreStatus) (*domain.Store, error) {
	id, err := domain.ParseObjectID(storeID, "store id")
	if err != nil {
		return nil, err
	}

	if status == "" {
		status = domain.StoreStatusApproved
	}
	if status != domain.StoreStatusApproved && status != domain.StoreStatusRejected {
		return nil, domain.InvalidRequest("Status must be approved or rejected")
	}

	store, err := s.storeRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return nil, errStoreNotFound
		}
		return nil, fmt.Errorf("failed to update store: %w", err)
	}
	return store, nil
}
