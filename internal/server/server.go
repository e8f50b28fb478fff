package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"marketplace/internal/config"
	custommiddleware "marketplace/internal/middleware"
	"marketplace/internal/events"
	"marketplace/internal/notify"
	"marketplace/internal/repository"
	"marketplace/internal/service"
	"marketplace/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Deps are the connections and gateways the server takes ownership of
type Deps struct {
	DB        *sql.DB
	Mongo     *mongo.Database
	Redis     *redis.Client
	Publisher events.Publisher
	Notifier  notify.Notifier
}

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	deps   Deps
}

func NewServer(cfg *config.Config, logger *zap.Logger, deps Deps) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, deps),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		deps:   deps,
	}

	return server
}

// NewRouter builds the repositories, services and handlers and mounts them on a chi router
func NewRouter(cfg *config.Config, logger *zap.Logger, deps Deps) chi.Router {
	router := chi.NewRouter()

	router.Use(custommiddleware.DefaultMiddlewareStack()...)
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.Server.IsProduction()))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "Not found")
	})
	router.Get("/health", healthHandler(deps))

	// Initialize repositories
	userRepo := repository.NewUserRepository(deps.DB)
	refreshTokenRepo := repository.NewRefreshTokenRepository(deps.DB)
	storeRepo := repository.NewStoreRepository(deps.Mongo)
	productRepo := repository.NewProductRepository(deps.Mongo)
	cartRepo := repository.NewCartRepository(deps.Mongo)
	orderRepo := repository.NewOrderRepository(deps.Mongo)
	reviewRepo := repository.NewReviewRepository(deps.Mongo)
	favoriteRepo := repository.NewFavoriteRepository(deps.Mongo)

	publisher := deps.Publisher
	if publisher == nil {
		publisher = events.NewNoopPublisher()
	}
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notify.NewDisabledNotifier()
	}

	// Initialize services
	userService := service.NewUserService(userRepo, refreshTokenRepo, storeRepo, service.TokenConfig{
		Secret:     cfg.JWT.Secret,
		AccessTTL:  days(cfg.JWT.AccessExpiry),
		RefreshTTL: days(cfg.JWT.RefreshExpiry),
	}, logger)
	storeService := service.NewStoreService(storeRepo)
	productService := service.NewProductService(productRepo, storeRepo)
	cartService := service.NewCartService(cartRepo, productRepo)
	favoriteService := service.NewFavoriteService(favoriteRepo, productRepo)
	orderService := service.NewOrderService(service.OrderServiceDeps{
		Orders:    orderRepo,
		Products:  productRepo,
		Carts:     cartRepo,
		Stores:    storeRepo,
		Users:     userRepo,
		Notifier:  notifier,
		Publisher: publisher,
	}, service.CheckoutSettings{
		CodeTTL:    cfg.Checkout.CodeTTL,
		CodeLength: cfg.Checkout.CodeLength,
		ExposeCode: cfg.Checkout.ExposeCode,
	}, logger)
	reviewService := service.NewReviewService(reviewRepo, orderRepo, productRepo, logger)

	guards := transport.Guards{
		Auth: custommiddleware.AuthMiddleware(cfg.JWT.Secret, logger),
		RequireRole: func(roles ...string) func(http.Handler) http.Handler {
			return custommiddleware.RequireRole(logger, roles...)
		},
	}
	if cfg.RateLimit.Enabled && deps.Redis != nil {
		guards.WriteLimit = custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit.RequestsPerWindow,
			Window:            cfg.RateLimit.Window,
			KeyPrefix:         "ratelimit:write",
		}, logger)
	}

	// Register routes
	transport.NewUserHandler(userService, logger).RegisterRoutes(router, guards)
	transport.NewProductHandler(productService, userService, logger).RegisterRoutes(router, guards)
	transport.NewStoreHandler(storeService, logger).RegisterRoutes(router, guards)
	transport.NewCartHandler(cartService, logger).RegisterRoutes(router, guards)
	transport.NewFavoriteHandler(favoriteService, logger).RegisterRoutes(router, guards)
	transport.NewOrderHandler(orderService, logger).RegisterRoutes(router, guards)
	transport.NewReviewHandler(reviewService, logger).RegisterRoutes(router, guards)

	return router
}

func healthHandler(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := map[string]string{"status": "ok", "postgres": "up", "mongo": "up"}
		code := http.StatusOK
		if err := deps.DB.PingContext(ctx); err != nil {
			status["postgres"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		if err := deps.Mongo.Client().Ping(ctx, nil); err != nil {
			status["mongo"], status["status"], code = "down", "degraded", http.StatusServiceUnavailable
		}
		custommiddleware.RespondWithJSON(w, code, status)
	}
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.deps.Publisher != nil {
		if err := s.deps.Publisher.Close(); err != nil {
			s.logger.Error("Failed to close event publisher", zap.Error(err))
		}
	}

	if s.deps.Redis != nil {
		if err := s.deps.Redis.Close(); err != nil {
			s.logger.Error("Failed to close redis client", zap.Error(err))
		}
	}

	if s.deps.Mongo != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.deps.Mongo.Client().Disconnect(ctx); err != nil {
			s.logger.Error("Failed to disconnect from MongoDB", zap.Error(err))
		}
	}

	if s.deps.DB != nil {
		if err := s.deps.DB.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
