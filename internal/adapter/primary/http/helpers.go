package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain"
)

// respondJSON writes a JSON response with the given status code and payload.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Encoding errors are not recoverable at this point, so we ignore the return.
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps domain errors to HTTP status codes. Unexpected errors
// are logged and hidden behind a generic message.
func respondError(w http.ResponseWriter, err error, logger *zap.Logger) {
	switch {
	case errors.Is(err, domain.ErrInvalidJob), errors.Is(err, domain.ErrInvalidPayload):
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "VALIDATION_ERROR"})
	case errors.Is(err, domain.ErrJobNotFound):
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})
	case errors.Is(err, domain.ErrQueueClosed):
		respondJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: err.Error(), Code: "QUEUE_CLOSED"})
	default:
		logger.Error("request failed", zap.Error(err))
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: "internal server error",
			Code:  "INTERNAL_ERROR",
		})
	}
}
