package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoice-studio/internal/application/service"
	"github.com/garyjia/invoice-studio/internal/application/session"
	"github.com/garyjia/invoice-studio/internal/domain/entity"
	"github.com/garyjia/invoice-studio/internal/domain/pricing"
	"github.com/garyjia/invoice-studio/internal/export"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	invoices service.InvoiceService
	health   HealthFunc
	logger   Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(invoices service.InvoiceService, health HealthFunc, logger Logger) *Handlers {
	return &Handlers{
		invoices: invoices,
		health:   health,
		logger:   logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string      `json:"status"`
	Timestamp  string      `json:"timestamp"`
	Version    string      `json:"version"`
	Components interface{} `json:"components,omitempty"`
}

// CatalogResponse lists categories and their packages in catalog order
type CatalogResponse struct {
	Categories    []entity.ServiceCategory `json:"categories"`
	PaymentTerms  []string                 `json:"payment_terms"`
	PaymentMethod []string                 `json:"payment_methods"`
}

// ServiceSelectionRequest accepts the discount as a number or as the raw
// text of a form field
type ServiceSelectionRequest struct {
	Category           string          `json:"category"`
	PackageTier        string          `json:"package_tier"`
	DiscountPercentage json.RawMessage `json:"discount_percentage"`
}

// ListExportsRequest represents query parameters for listing exports
type ListExportsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   "1.0.0",
	}

	status := http.StatusOK
	if h.health != nil {
		healthy, details := h.health()
		response.Components = details
		if !healthy {
			response.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// GetCatalog handles GET /api/catalog
func (h *Handlers) GetCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: CatalogResponse{
			Categories:    h.invoices.Catalog().Categories,
			PaymentTerms:  entity.PaymentTermsCodes(),
			PaymentMethod: entity.PaymentMethodCodes(),
		},
	})
}

// CreateSession handles POST /api/sessions. An empty body starts a draft
// from the defaults; a JSON InvoiceData body imports it.
func (h *Handlers) CreateSession(c *gin.Context) {
	ctx := c.Request.Context()

	if c.Request.ContentLength == 0 {
		state, err := h.invoices.CreateSession(ctx)
		h.respondState(c, http.StatusCreated, state, err)
		return
	}

	var data entity.InvoiceData
	if !h.bind(c, &data) {
		return
	}
	state, err := h.invoices.ImportSession(ctx, data)
	h.respondState(c, http.StatusCreated, state, err)
}

// GetSession handles GET /api/sessions/:id
func (h *Handlers) GetSession(c *gin.Context) {
	state, err := h.invoices.GetSession(c.Request.Context(), c.Param("id"))
	h.respondState(c, http.StatusOK, state, err)
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.invoices.DeleteSession(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpdateFreelancer handles PUT /api/sessions/:id/freelancer
func (h *Handlers) UpdateFreelancer(c *gin.Context) {
	var req entity.FreelancerDetails
	if !h.bind(c, &req) {
		return
	}
	state, err := h.invoices.UpdateFreelancerDetails(c.Request.Context(), c.Param("id"), req)
	h.respondState(c, http.StatusOK, state, err)
}

// UpdateClient handles PUT /api/sessions/:id/client
func (h *Handlers) UpdateClient(c *gin.Context) {
	var req entity.ClientDetails
	if !h.bind(c, &req) {
		return
	}
	state, err := h.invoices.UpdateClientDetails(c.Request.Context(), c.Param("id"), req)
	h.respondState(c, http.StatusOK, state, err)
}

// UpdateInvoice handles PUT /api/sessions/:id/invoice
func (h *Handlers) UpdateInvoice(c *gin.Context) {
	var req entity.InvoiceDetails
	if !h.bind(c, &req) {
		return
	}
	state, err := h.invoices.UpdateInvoiceDetails(c.Request.Context(), c.Param("id"), req)
	h.respondState(c, http.StatusOK, state, err)
}

// UpdateService handles PUT /api/sessions/:id/service
func (h *Handlers) UpdateService(c *gin.Context) {
	var req ServiceSelectionRequest
	if !h.bind(c, &req) {
		return
	}

	discount, err := parseDiscountField(req.DiscountPercentage)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
		})
		return
	}

	state, err := h.invoices.UpdateServiceSelection(c.Request.Context(), c.Param("id"), entity.ServiceSelection{
		Category:           req.Category,
		PackageTier:        req.PackageTier,
		DiscountPercentage: discount,
	})
	h.respondState(c, http.StatusOK, state, err)
}

// UpdateAdditional handles PUT /api/sessions/:id/additional
func (h *Handlers) UpdateAdditional(c *gin.Context) {
	var req entity.AdditionalInfo
	if !h.bind(c, &req) {
		return
	}
	state, err := h.invoices.UpdateAdditionalInfo(c.Request.Context(), c.Param("id"), req)
	h.respondState(c, http.StatusOK, state, err)
}

// Preview handles GET /api/sessions/:id/preview
func (h *Handlers) Preview(c *gin.Context) {
	view, err := h.invoices.Preview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    view,
	})
}

// Export handles POST /api/sessions/:id/export/:format and streams the file
func (h *Handlers) Export(c *gin.Context) {
	id := c.Param("id")
	format := c.Param("format")

	result, err := h.invoices.Export(c.Request.Context(), id, format)
	if err != nil {
		h.respondError(c, err)
		return
	}

	artifact := result.Artifact
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.FileName}))
	c.Data(http.StatusOK, artifact.ContentType, artifact.Content)
}

// ListExports handles GET /api/exports
func (h *Handlers) ListExports(c *gin.Context) {
	var req ListExportsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.logger.Error("Invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	records, err := h.invoices.ListExports(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

// ListSessionExports handles GET /api/sessions/:id/exports
func (h *Handlers) ListSessionExports(c *gin.Context) {
	records, err := h.invoices.ListSessionExports(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    records,
	})
}

func (h *Handlers) bind(c *gin.Context, target interface{}) bool {
	if err := c.ShouldBindJSON(target); err != nil {
		h.logger.Error("Invalid request body", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return false
	}
	return true
}

func (h *Handlers) respondState(c *gin.Context, status int, state *service.SessionState, err error) {
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(status, Response{
		Success: true,
		Data:    state,
	})
}

// respondError maps service errors to status codes. An export with nothing
// to render answers 204 and no body.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "session not found"})
	case errors.Is(err, export.ErrNothingToRender):
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrExportInProgress):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.Is(err, export.ErrExportFailed):
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: export.FailureMessage})
	default:
		h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
	}
}

// parseDiscountField reads a JSON number or string. Strings follow form
// input rules; numbers are truncated. Both end up clamped to [0,100].
func parseDiscountField(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}

	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("invalid discount_percentage")
		}
		return pricing.ParseDiscount(text), nil
	}

	var number float64
	if err := json.Unmarshal(raw, &number); err != nil {
		return 0, fmt.Errorf("discount_percentage must be a number or a string")
	}
	switch {
	case number <= pricing.MinDiscount:
		return pricing.MinDiscount, nil
	case number >= pricing.MaxDiscount:
		return pricing.MaxDiscount, nil
	default:
		return int(number), nil
	}
}
