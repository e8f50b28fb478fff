package transport

import (
	"net/http"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderItemRequest is one basket line of a placement
type OrderItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"`
}

// PlaceOrderRequest represents the order placement payload
type PlaceOrderRequest struct {
	Items []OrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// ConfirmOrderRequest carries the emailed checkout code
type ConfirmOrderRequest struct {
	OrderID string `json:"orderId" validate:"required,objectid"`
	Code    string `json:"code" validate:"required,max=32"`
}

// UpdateOrderStatusRequest represents the status change payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderHandler handles order lifecycle requests
type OrderHandler struct {
	orderService service.OrderService
	logger       *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService service.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orderService: orderService, logger: logger}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Route("/orders", func(r chi.Router) {
		r.Use(g.Auth)

		r.Group(func(r chi.Router) {
			r.Use(g.RequireRole(domain.RoleBuyer))
			r.With(g.writeLimit()).Post("/", h.Place)
			r.With(g.writeLimit()).Post("/confirm", h.Confirm)
			r.Get("/buyer", h.BuyerOrders)
		})

		r.Group(func(r chi.Router) {
			r.Use(g.RequireRole(domain.RoleSeller, domain.RoleAdmin))
			r.Get("/seller", h.SellerOrders)
			r.With(g.writeLimit()).Patch("/{id}/status", h.UpdateStatus)
		})
	})
}

// Place creates an unconfirmed order and dispatches its checkout code
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req PlaceOrderRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	items := make([]service.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.OrderItemInput{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	result, err := h.orderService.PlaceOrder(r.Context(), actor, items)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, result)
}

// Confirm redeems a checkout code
func (h *OrderHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req ConfirmOrderRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	order, err := h.orderService.ConfirmOrder(r.Context(), actor, req.OrderID, req.Code)
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// BuyerOrders lists the caller's orders
func (h *OrderHandler) BuyerOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.BuyerOrders(r.Context(), actor)
	h.respondList(w, r, orders, err)
}

// SellerOrders lists orders placed against the caller's store
func (h *OrderHandler) SellerOrders(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orderService.SellerOrders(r.Context(), actor)
	h.respondList(w, r, orders, err)
}

// UpdateStatus moves a confirmed order to a seller-settable status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	order, err := h.orderService.UpdateOrderStatus(r.Context(), actor, chi.URLParam(r, "id"), domain.OrderStatus(req.Status))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

func (h *OrderHandler) respondList(w http.ResponseWriter, r *http.Request, orders []*service.OrderView, err error) {
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	if orders == nil {
		orders = []*service.OrderView{}
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}
