package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	facilityDomain "github.com/allisson/kmi/internal/facility/domain"
	"github.com/allisson/kmi/internal/facility/http/dto"
	facilityUseCase "github.com/allisson/kmi/internal/facility/usecase"
	"github.com/allisson/kmi/internal/httputil"
	customValidation "github.com/allisson/kmi/internal/validation"
)

// AdminHandler exposes the wrapped keys held by a master facility.
type AdminHandler struct {
	facility facilityUseCase.MasterFacility
	logger   *slog.Logger
}

// NewAdminHandler creates an admin handler backed by facility.
func NewAdminHandler(facility facilityUseCase.MasterFacility, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		facility: facility,
		logger:   logger,
	}
}

// ListHandler lists stored lookup keys with offset/limit pagination.
// GET /v1/keys - Returns 200 OK with the requested page.
func (h *AdminHandler) ListHandler(c *gin.Context) {
	offset, limit, err := httputil.ParsePagination(c)
	if err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	keys, err := h.facility.Keys(c.Request.Context())
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.ListKeysResponse{
		LookupKeys: httputil.Page(keys, offset, limit),
		Offset:     offset,
		Limit:      limit,
		Total:      len(keys),
	})
}

// GetHandler reports whether a wrapped key is stored.
// GET /v1/keys/:lookup_key - Returns 200 OK, or 404 Not Found when absent.
func (h *AdminHandler) GetHandler(c *gin.Context) {
	param, ok := h.bindLookupKey(c)
	if !ok {
		return
	}

	exists, err := h.facility.Contains(c.Request.Context(), param.LookupKey)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}
	if !exists {
		httputil.HandleErrorGin(c, facilityDomain.ErrKeyNotFound, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.KeyResponse{LookupKey: param.LookupKey, Exists: true})
}

// DeleteHandler removes a wrapped key. Every KEK that resolved to it stops working.
// DELETE /v1/keys/:lookup_key - Returns 204 No Content.
func (h *AdminHandler) DeleteHandler(c *gin.Context) {
	param, ok := h.bindLookupKey(c)
	if !ok {
		return
	}

	if err := h.facility.Delete(c.Request.Context(), param.LookupKey); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("wrapped key deleted", slog.String("lookup_key", param.LookupKey))
	c.Data(http.StatusNoContent, "application/json", nil)
}

func (h *AdminHandler) bindLookupKey(c *gin.Context) (*dto.LookupKeyParam, bool) {
	param := &dto.LookupKeyParam{LookupKey: c.Param("lookup_key")}
	if err := param.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return nil, false
	}
	return param, true
}
