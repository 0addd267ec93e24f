package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/user/foodlog/internal/logging"
)

// BaseHandler provides common functionality for all HTTP handlers
type BaseHandler struct {
	Logger *logging.Logger
}

// NewBaseHandler creates a new base handler
func NewBaseHandler(logger *logging.Logger) *BaseHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &BaseHandler{
		Logger: logger,
	}
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes v as a JSON response with the given status
func (h *BaseHandler) WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Logger.Warn("failed to write response", logging.Error(err))
	}
}

// WriteError writes {"error": message}
func (h *BaseHandler) WriteError(w http.ResponseWriter, status int, message string) {
	h.WriteJSON(w, status, ErrorResponse{Error: message})
}
