package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AddReviewRequest represents the review payload
type AddReviewRequest struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	OrderID   string `json:"orderId" validate:"required,objectid"`
	Rating    int    `json:"rating" validate:"required,min=1,max=5"`
	Comment   string `json:"comment" validate:"max=2000"`
}

// ReviewHandler handles review requests
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService, logger: logger}
}

// RegisterRoutes registers review routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/reviews", func(r chi.Router) {
		r.Get("/{productId}", h.List)
		r.With(g.Auth, g.RequireRole(domain.RoleBuyer), g.writeLimit()).Post("/", h.Add)
	})
}

// List returns a product's reviews, newest first
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ListByProduct(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	if reviews == nil {
		reviews = []*domain.Review{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// Add records or updates the caller's review of a delivered order line
func (h *ReviewHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req AddReviewRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	review, err := h.reviewService.AddReview(r.Context(), actor, service.ReviewInput{
		ProductID: req.ProductID,
		OrderID:   req.OrderID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Review recorded",
		zap.String("product_id", req.ProductID),
		zap.String("user_id", actor.UserID),
		zap.Int("rating", req.Rating),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}
