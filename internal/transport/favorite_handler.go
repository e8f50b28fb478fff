package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// FavoriteHandler handles favorites requests
type FavoriteHandler struct {
	favoriteService service.FavoriteService
	logger          *zap.Logger
}

// NewFavoriteHandler creates a new FavoriteHandler
func NewFavoriteHandler(favoriteService service.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{favoriteService: favoriteService, logger: logger}
}

// RegisterRoutes registers favorites routes
func (h *FavoriteHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/favorites", func(r chi.Router) {
		r.Use(g.Auth)
		r.Use(g.RequireRole(domain.RoleBuyer))
		r.Get("/", h.List)
		r.With(g.writeLimit()).Post("/{productId}", h.Toggle)
	})
}

// List returns the caller's favorited products, newest first
func (h *FavoriteHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	products, err := h.favoriteService.List(r.Context(), actor.UserID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Toggle flips the favorite flag of a product
func (h *FavoriteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	favorited, err := h.favoriteService.Toggle(r.Context(), actor.UserID, chi.URLParam(r, "productId"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"favorited": favorited})
}
