package middleware

import (
	"encoding/json"
	"net/http"

	"marketplace/internal/domain"

	"go.uber.org/zap"
)

// ErrorResponse is the error body of every failed request; Error is always a plain message
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// StatusForCode maps a domain error code to an HTTP status
func StatusForCode(code string) int {
	switch code {
	case domain.CodeInvalidRequest, domain.CodeExpired, domain.CodeMismatch, domain.CodeDuplicateReview:
		return http.StatusBadRequest
	case domain.CodeUnauthorized:
		return http.StatusUnauthorized
	case domain.CodeForbidden:
		return http.StatusForbidden
	case domain.CodeNotFound:
		return http.StatusNotFound
	case domain.CodeConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithError sends an error body with the given status
func RespondWithError(w http.ResponseWriter, statusCode int, message string) {
	writeError(w, statusCode, ErrorResponse{Error: message})
}

// RespondWithDomainError renders domain errors with their status and message.
// Anything else is logged and answered with a generic 500.
func RespondWithDomainError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	if code := domain.CodeOf(err); code != "" {
		writeError(w, StatusForCode(code), ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	logger.Error("Request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	writeError(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// RespondWithValidationErrors sends validation error response
func RespondWithValidationErrors(w http.ResponseWriter, errors []ValidationError) {
	writeError(w, http.StatusBadRequest, ErrorResponse{
		Error:   "validation failed",
		Code:    domain.CodeInvalidRequest,
		Details: map[string]interface{}{"validation_errors": errors},
	})
}

func writeError(w http.ResponseWriter, statusCode int, body ErrorResponse) {
	RespondWithJSON(w, statusCode, body)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 errors
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondWithError(w, http.StatusInternalServerError, "Internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RespondWithJSON sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}
