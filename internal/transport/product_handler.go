package transport

import (
	"net/http"
	"strconv"

	"marketplace/internal/domain"
	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductRequest represents the product creation payload
type CreateProductRequest struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"max=5000"`
	Price          float64  `json:"price" validate:"gte=0"`
	CompareAtPrice *float64 `json:"compareAtPrice,omitempty" validate:"omitempty,gte=0"`
	Category       string   `json:"category" validate:"max=100"`
	Brand          string   `json:"brand" validate:"max=100"`
	Images         []string `json:"images" validate:"max=20"`
	Stock          int      `json:"stock" validate:"gte=0"`
}

// ProductHandler handles catalog requests
type ProductHandler struct {
	productService service.ProductService
	userService    service.UserService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, userService service.UserService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		userService:    userService,
		logger:         logger,
	}
}

// RegisterRoutes registers catalog routes
func (h *ProductHandler) RegisterRoutes(r chi.Router, g Guards) {
	r.Get("/categories", h.Categories)

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(g.Auth)
			r.Use(g.writeLimit())
			r.With(g.RequireRole(domain.RoleSeller)).Post("/", h.Create)
			r.With(g.RequireRole(domain.RoleSeller, domain.RoleAdmin)).Delete("/{id}", h.Delete)
		})
	})
}

// List returns one page of the catalog
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.productService.List(r.Context(), service.ListProductsInput{
		Limit:    queryInt(q.Get("limit")),
		Page:     queryInt(q.Get("page")),
		StoreID:  q.Get("storeId"),
		Category: q.Get("category"),
		Query:    q.Get("q"),
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, page)
}

// Get returns a single product
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	product, err := h.productService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create adds a product to the caller's store
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	var req CreateProductRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	product, err := h.productService.Create(r.Context(), actor, h.sellerName(r, actor), service.CreateProductInput{
		Title:          req.Title,
		Description:    req.Description,
		Price:          req.Price,
		CompareAtPrice: req.CompareAtPrice,
		Category:       req.Category,
		Brand:          req.Brand,
		Images:         req.Images,
		Stock:          req.Stock,
	})
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product created",
		zap.String("product_id", product.ID.Hex()),
		zap.String("store_id", product.StoreID.Hex()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Delete removes a product owned by the caller
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r, h.logger)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.productService.Delete(r.Context(), actor, id); err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}

	h.logger.Info("Product deleted", zap.String("product_id", id), zap.String("user_id", actor.UserID))
	middleware.RespondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Categories lists the distinct product categories
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.productService.Categories(r.Context())
	if err != nil {
		middleware.RespondWithDomainError(w, r, h.logger, err)
		return
	}
	if categories == nil {
		categories = []string{}
	}

	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// sellerName names a store created on the seller's first product; the store name is cosmetic,
// so a failed lookup falls back to a generic name
func (h *ProductHandler) sellerName(r *http.Request, actor service.Actor) string {
	id, err := uuid.Parse(actor.UserID)
	if err == nil {
		user, err := h.userService.GetUserByID(r.Context(), id)
		if err == nil {
			return user.Name
		}
		h.logger.Warn("Failed to look up seller name", zap.String("user_id", actor.UserID), zap.Error(err))
	}
	return "Seller"
}

// queryInt parses an integer query parameter; junk yields zero, which the service treats as unset
func queryInt(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
