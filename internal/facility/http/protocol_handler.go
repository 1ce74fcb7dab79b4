// Package http provides the HTTP handlers of a key management facility: the
// create/fetch protocol and the administrative key API.
package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
	"github.com/allisson/kmi/internal/httputil"
)

// MaxKEKSize bounds the request body accepted by FetchHandler.
const MaxKEKSize = 64 * 1024

const octetStream = "application/octet-stream"

// ProtocolHandler serves the create/fetch protocol.
type ProtocolHandler struct {
	facility facilityUseCase.Facility
	logger   *slog.Logger
}

// NewProtocolHandler creates a protocol handler backed by facility.
func NewProtocolHandler(facility facilityUseCase.Facility, logger *slog.Logger) *ProtocolHandler {
	return &ProtocolHandler{
		facility: facility,
		logger:   logger,
	}
}

// CreateHandler generates a new KEK.
// POST /new (GET accepted) - Returns 200 OK with the raw KEK bytes.
func (h *ProtocolHandler) CreateHandler(c *gin.Context) {
	kek, err := h.facility.Generate(c.Request.Context())
	if err != nil {
		httputil.HandleProtocolErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusOK, octetStream, kek)
}

// FetchHandler resolves the KEK in the request body to its DEK.
// POST /key - Returns 200 OK with the raw DEK, 404 for an unknown (or empty) KEK and
// 5xx otherwise, including for a body that cannot be read.
func (h *ProtocolHandler) FetchHandler(c *gin.Context) {
	kek, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxKEKSize))
	if err != nil {
		httputil.HandleProtocolErrorGin(c, fmt.Errorf("failed to read request body: %w", err), h.logger)
		return
	}

	dek, err := h.facility.GetEncryptionKey(c.Request.Context(), kek)
	if err != nil {
		httputil.HandleProtocolErrorGin(c, err, h.logger)
		return
	}

	c.Data(http.StatusOK, octetStream, dek)
}
