// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/allisson/kmi/internal/errors"
)

// ErrorResponse represents a structured error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// errorMapping ties a sentinel error to its response. A blank message echoes err.Error().
type errorMapping struct {
	sentinel error
	status   int
	code     string
	message  string
}

// errorMappings is checked in order; the first sentinel found in the chain wins.
var errorMappings = []errorMapping{
	{apperrors.ErrNotFound, http.StatusNotFound, "not_found", "The requested resource was not found"},
	{apperrors.ErrInvalidInput, http.StatusUnprocessableEntity, "invalid_input", ""},
	{apperrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable", "A dependency of the service is unavailable"},
}

var internalError = errorMapping{
	status:  http.StatusInternalServerError,
	code:    "internal_error",
	message: "An internal error occurred",
}

func classify(err error) errorMapping {
	for _, m := range errorMappings {
		if apperrors.Is(err, m.sentinel) {
			return m
		}
	}
	return internalError
}

// HandleErrorGin maps domain errors to HTTP status codes and writes a JSON error body.
// Internal errors are logged in full but never echoed to the client.
func HandleErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}
	writeError(c, classify(err), err, logger)
}

// HandleProtocolErrorGin is HandleErrorGin for the binary key protocol, whose clients
// only distinguish 404 from 5xx. Every other client error is reported as a 500.
func HandleProtocolErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if err == nil {
		return
	}
	m := classify(err)
	if m.status < http.StatusInternalServerError && m.status != http.StatusNotFound {
		m = internalError
	}
	writeError(c, m, err, logger)
}

func writeError(c *gin.Context, m errorMapping, err error, logger *slog.Logger) {
	message := m.message
	if message == "" {
		message = err.Error()
	}

	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", m.status),
			slog.String("error_code", m.code),
			slog.Any("error", err),
		)
	}

	c.JSON(m.status, ErrorResponse{Error: m.code, Message: message})
}

// HandleBadRequestGin writes a 400 Bad Request response for a malformed request.
func HandleBadRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("bad request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "bad_request",
		Message: err.Error(),
	})
}

// HandleValidationErrorGin writes a 422 Unprocessable Entity response for validation errors.
func HandleValidationErrorGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("validation failed", slog.Any("error", err))
	}

	c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
		Error:   "validation_error",
		Message: err.Error(),
	})
}
