package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CartItemRequest names a product and quantity; quantities below one are raised to one
type CartItemRequest struct {
	ProductID string `json:"productId" validate:"required,objectid"`
	Quantity  int    `json:"quantity"`
}

// CartHandler handles cart requests
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{cartService: cartService, logger: logger}
}

// RegisterRoutes registers cart routes
func (h *CartHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/cart", func(r chi.Router) {
		r.Use(g.Auth)
		r.Use(g.RequireRole(domain.RoleBuyer))

		r.Get("/", h.Get)
		r.Group(func(r chi.Router) {
			r.Use(g.writeLimit())
			r.Post("/add", h.Add)
			r.Patch("/update", h.Update)
			r.Delete("/remove/{productId}", h.Remove)
			r.Delete("/", h.Clear)
		})
	})
}

// Get returns the caller's cart, creating it on first access
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.Get(r.Context(), actor.UserID)
	h.respond(w, r, cart, err)
}

// Add merges a line into the cart
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), actor.UserID, req.ProductID, req.Quantity)
	h.respond(w, r, cart, err)
}

// Update sets a line's quantity
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CartItemRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cart, err := h.cartService.UpdateItem(r.Context(), actor.UserID, req.ProductID, req.Quantity)
	h.respond(w, r, cart, err)
}

// Remove pulls a line from the cart
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), actor.UserID, chi.URLParam(r, "productId"))
	h.respond(w, r, cart, err)
}

// Clear empties the cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	cart, err := h.cartService.Clear(r.Context(), actor.UserID)
	h.respond(w, r, cart, err)
}

func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request, cart *service.CartView, err error) {
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, cart)
}
