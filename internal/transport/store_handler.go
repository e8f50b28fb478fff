package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ApproveStoreRequest carries the approval decision; an empty status approves
type ApproveStoreRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=approved rejected"`
}

// StoreHandler handles store requests
type StoreHandler struct {
	storeService service.StoreService
	logger       *zap.Logger
}

// NewStoreHandler creates a new StoreHandler
func NewStoreHandler(storeService service.StoreService, logger *zap.Logger) *StoreHandler {
	return &StoreHandler{storeService: storeService, logger: logger}
}

// RegisterRoutes registers store routes
func (h *StoreHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/stores", func(r chi.Router) {
		r.Use(g.Auth)
		r.With(g.RequireRole(domain.RoleSeller)).Get("/me", h.Mine)
		r.With(g.RequireRole(domain.RoleAdmin)).Patch("/{id}/approve", h.Approve)
	})
}

// Mine returns the caller's store
func (h *StoreHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	store, err := h.storeService.GetMine(r.Context(), actor.UserID)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, store)
}

// Approve sets a store's approval status
func (h *StoreHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req ApproveStoreRequest
	if r.ContentLength != 0 && !decode(w, r, h.logger, &req) {
		return
	}

	store, err := h.storeService.SetApproval(r.Context(), chi.URLParam(r, "id"), domain.StoreStatus(req.Status))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Store approval updated",
		zap.String("store_id", store.ID.Hex()),
		zap.String("status", string(store.Status)),
	)
	middleware.RespondWithJSON(w, http.StatusOK, store)
}
