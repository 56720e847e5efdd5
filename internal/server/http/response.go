package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/openscholar/paper-gateway/internal/domain"
)

type errorResponse struct {
	Error          string   `json:"error"`
	ValidProviders []string `json:"valid_providers,omitempty"`
}

type contentByURLRequest struct {
	PDFURL   string `json:"pdf_url" validate:"required,url"`
	Filename string `json:"filename" validate:"omitempty,max=255"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers already sent; nothing useful to do.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeDomainError maps the error taxonomy onto HTTP status codes. Invalid
// provider errors carry the valid id set for the caller.
func writeDomainError(w http.ResponseWriter, err error) {
	var invalidErr *domain.InvalidProviderError
	if errors.As(err, &invalidErr) {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:          invalidErr.Error(),
			ValidProviders: invalidErr.ValidIDs,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrInvalidProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUpstreamParse), errors.Is(err, domain.ErrUpstreamRequest):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
