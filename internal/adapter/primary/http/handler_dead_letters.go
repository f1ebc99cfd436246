package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ruudy-sib/deferq/internal/domain/valueobject"
	"github.com/ruudy-sib/deferq/internal/port/primary"
)

const (
	defaultDeadLetterLimit = 50
	maxDeadLetterLimit     = 500
)

// ListDeadLettersHandler handles GET /dead-letters?limit=N.
type ListDeadLettersHandler struct {
	service primary.JobService
	logger  *zap.Logger
}

// NewListDeadLettersHandler creates a handler listing dead letters.
func NewListDeadLettersHandler(service primary.JobService, logger *zap.Logger) *ListDeadLettersHandler {
	return &ListDeadLettersHandler{
		service: service,
		logger:  logger.Named("dead-letters-handler"),
	}
}

// ServeHTTP lists the most recent dead letters.
func (h *ListDeadLettersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit := defaultDeadLetterLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "limit must be a positive integer",
				Code:  "VALIDATION_ERROR",
			})
			return
		}
		limit = min(n, maxDeadLetterLimit)
	}

	letters, err := h.service.DeadLetters(r.Context(), limit)
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	resp := DeadLettersResponse{DeadLetters: make([]DeadLetterResponse, 0, len(letters))}
	for _, l := range letters {
		resp.DeadLetters = append(resp.DeadLetters, toDeadLetterResponse(l))
	}
	resp.Count = len(resp.DeadLetters)

	respondJSON(w, http.StatusOK, resp)
}

// GetDeadLetterHandler handles GET /dead-letters/{id}.
type GetDeadLetterHandler struct {
	service primary.JobService
	logger  *zap.Logger
}

// NewGetDeadLetterHandler creates a handler returning one dead letter.
func NewGetDeadLetterHandler(service primary.JobService, logger *zap.Logger) *GetDeadLetterHandler {
	return &GetDeadLetterHandler{
		service: service,
		logger:  logger.Named("dead-letter-handler"),
	}
}

// ServeHTTP looks up the dead letter by job ID.
func (h *GetDeadLetterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := valueobject.ParseJobID(chi.URLParam(r, "id"))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: err.Error(),
			Code:  "VALIDATION_ERROR",
		})
		return
	}

	letter, err := h.service.DeadLetter(r.Context(), id.String())
	if err != nil {
		respondError(w, err, h.logger)
		return
	}

	respondJSON(w, http.StatusOK, toDeadLetterResponse(letter))
}
