package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace/internal/domain"
	"marketplace/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ReviewInput is a buyer's review of a product from one of their orders
type ReviewInput struct {
	ProductID string
	OrderID   string
	Rating    int
	Comment   string
}

// ReviewService defines the interface for the review aggregator
type ReviewService interface {
	AddReview(ctx context.Context, buyer Actor, in ReviewInput) (*domain.Review, error)
	ListByProduct(ctx context.Context, productID string) ([]*domain.Review, error)
}

type reviewService struct {
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	logger      *zap.Logger
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	logger *zap.Logger,
) ReviewService {
	return &reviewService{
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// AddReview upserts the (buyer, product, order) review and recomputes the product rating.
// Only products of the buyer's delivered orders can be reviewed.
func (s *reviewService) AddReview(ctx context.Context, buyer Actor, in ReviewInput) (*domain.Review, error) {
	productID, err := domain.ParseObjectID(in.ProductID, "product id")
	if err != nil {
		return nil, err
	}
	orderID, err := domain.ParseObjectID(in.OrderID, "order id")
	if err != nil {
		return nil, err
	}
	if in.Rating < domain.MinRating || in.Rating > domain.MaxRating {
		return nil, domain.InvalidRequest(fmt.Sprintf("Rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	if _, err := s.orderRepo.FindDeliveredWithProduct(ctx, buyer.UserID, orderID, productID); err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, domain.Forbidden("You can only review products from your delivered orders")
		}
		return nil, fmt.Errorf("failed to verify purchase: %w", err)
	}

	review := &domain.Review{
		ProductID: productID,
		UserID:    buyer.UserID,
		OrderID:   orderID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
	}

	saved, err := s.upsert(ctx, review)
	if err != nil {
		return nil, err
	}

	if err := s.recomputeRating(ctx, productID); err != nil {
		return nil, err
	}
	return saved, nil
}

// upsert retries once after dropping the legacy (product, user) unique index
func (s *reviewService) upsert(ctx context.Context, review *domain.Review) (*domain.Review, error) {
	saved, err := s.reviewRepo.Upsert(ctx, review)
	if err == nil {
		return saved, nil
	}
	if !errors.Is(err, repository.ErrDuplicateKey) {
		return nil, fmt.Errorf("failed to save review: %w", err)
	}

	s.logger.Warn("Review upsert hit a unique index, dropping legacy index and retrying",
		zap.String("product_id", review.ProductID.Hex()),
		zap.String("user_id", review.UserID),
	)
	if err := s.reviewRepo.DropLegacyIndex(ctx); err != nil {
		return nil, fmt.Errorf("failed to repair review indexes: %w", err)
	}

	saved, err = s.reviewRepo.Upsert(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, domain.DuplicateReview("You have already reviewed this product for this order")
		}
		return nil, fmt.Errorf("failed to save review: %w", err)
	}
	return saved, nil
}

func (s *reviewService) recomputeRating(ctx context.Context, productID primitive.ObjectID) error {
	reviews, err := s.reviewRepo.ListByProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("failed to load reviews: %w", err)
	}

	rating := AverageRating(reviews)
	if err := s.productRepo.UpdateRating(ctx, productID, rating); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			s.logger.Warn("Reviewed product no longer exists", zap.String("product_id", productID.Hex()))
			return nil
		}
		return fmt.Errorf("failed to update product rating: %w", err)
	}
	return nil
}

func (s *reviewService) ListByProduct(ctx context.Context, productID string) ([]*domain.Review, error) {
	id, err := domain.ParseObjectID(productID, "product id")
	if err != nil {
		return nil, err
	}

	reviews, err := s.reviewRepo.ListByProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// AverageRating is the arithmetic mean of all ratings together with the review count.
// The mean is stored unrounded; rounding is left to display code.
func AverageRating(reviews []*domain.Review) domain.Rating {
	if len(reviews) == 0 {
		return domain.Rating{}
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}

	return domain.Rating{Value: float64(sum) / float64(len(reviews)), Count: len(reviews)}
}
