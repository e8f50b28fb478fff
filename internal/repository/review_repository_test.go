package repository

import (
	"context"
	"testing"

	"marketplace/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestReviewUpsertUpdatesInPlace(t *testing.T) {
	requireMongo(t)
	repo := NewReviewRepository(testMongo)
	ctx := context.Background()

	review := &domain.Review{
		ProductID: primitive.NewObjectID(),
		UserID:    uuid.NewString(),
		OrderID:   primitive.NewObjectID(),
		Rating:    4,
		Comment:   "good",
	}

	first, err := repo.Upsert(ctx, review)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	review.Rating = 2
	review.Comment = "changed my mind"
	second, err := repo.Upsert(ctx, review)
	if err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("expected the same review document, got %s and %s", first.ID.Hex(), second.ID.Hex())
	}

	reviews, err := repo.ListByProduct(ctx, review.ProductID)
	if err != nil {
		t.Fatalf("ListByProduct failed: %v", err)
	}
	if len(reviews) != 1 || reviews[0].Rating != 2 {
		t.Errorf("expected one review with rating 2, got %+v", reviews)
	}
}

func TestDropLegacyIndexIgnoresMissingIndex(t *testing.T) {
	requireMongo(t)
	repo := NewReviewRepository(testMongo)

	if err := repo.DropLegacyIndex(context.Background()); err != nil {
		t.Errorf("expected nil when the legacy index is absent, got %v", err)
	}
}
