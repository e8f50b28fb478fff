package transport

import (
	"net/http"

	"marketplace/internal/middleware"
	"marketplace/internal/service"

	"go.uber.org/zap"
)

// Guards are the route middlewares handlers attach to their routes
type Guards struct {
	Auth        func(http.Handler) http.Handler
	RequireRole func(roles ...string) func(http.Handler) http.Handler
	// WriteLimit throttles mutating routes; nil disables throttling
	WriteLimit func(http.Handler) http.Handler
}

func (g Guards) writeLimit() func(http.Handler) http.Handler {
	if g.WriteLimit == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return g.WriteLimit
}

// actorFrom returns the authenticated caller placed on the context by the auth middleware
func actorFrom(r *http.Request) (service.Actor, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		return service.Actor{}, false
	}
	role, _ := middleware.GetUserRole(r.Context())
	return service.Actor{UserID: userID, Role: role}, true
}

// requireActor writes a 401 and returns false when the request is unauthenticated
func requireActor(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (service.Actor, bool) {
	actor, ok := actorFrom(r)
	if !ok {
		logger.Error("User ID not found in context", zap.String("path", r.URL.Path))
		middleware.RespondWithError(w, http.StatusUnauthorized, "Authentication required")
	}
	return actor, ok
}

// decode decodes and validates the body, answering 400 itself on failure
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(r, v); err != nil {
		logger.Debug("Request validation failed", zap.String("path", r.URL.Path), zap.Error(err))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}
