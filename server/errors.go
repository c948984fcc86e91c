package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"mindmaps/engine"
	"mindmaps/importer"
	"mindmaps/persistence"
	"mindmaps/proposal"
)

// apiError is the body of every error response.
type apiError struct {
	Status    int    `json:"-"`
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

func (e *apiError) Error() string { return e.Message }

func badRequest(msg string) *apiError {
	return &apiError{Status: http.StatusBadRequest, Code: "bad_request", Message: msg}
}

// classify maps an error to its response.
func classify(err error) *apiError {
	var apiErr *apiError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.As(err, &verrs):
		return &apiError{Status: http.StatusBadRequest, Code: "validation_failed", Message: verrs.Error()}
	case errors.Is(err, persistence.ErrNotFound):
		return &apiError{Status: http.StatusNotFound, Code: "not_found", Message: err.Error()}
	case errors.Is(err, persistence.ErrInvalidID):
		return &apiError{Status: http.StatusBadRequest, Code: "invalid_id", Message: err.Error()}
	case errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, importer.ErrUnsupportedVersion),
		errors.Is(err, importer.ErrEmpty):
		return &apiError{Status: http.StatusUnprocessableEntity, Code: "import_failed", Message: err.Error()}
	case errors.Is(err, engine.ErrNoProposer):
		return &apiError{Status: http.StatusNotImplemented, Code: "proposals_disabled", Message: err.Error()}
	case errors.Is(err, proposal.ErrUnavailable):
		return &apiError{Status: http.StatusServiceUnavailable, Code: "proposals_unavailable", Message: err.Error()}
	default:
		return &apiError{Status: http.StatusInternalServerError, Code: "internal", Message: "internal server error"}
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := classify(err)
	apiErr.RequestID = middleware.GetReqID(r.Context())
	if apiErr.Status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", apiErr.RequestID),
			zap.Error(err))
	}
	s.respondJSON(w, apiErr.Status, apiErr)
}
