package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/service"
	"crm-order-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers. Identifier format validation lives here;
// the services below trust well-formed ids. The company id comes from the
// identity boundary via the X-Company-ID header, already authorized.
type Handler struct {
	orders       *service.OrderService
	reader       *service.BatchReader
	orchestrator *service.InvoiceOrchestrator
	lifecycle    *service.LifecycleService
	catalog      *service.CatalogService
}

// NewHandler creates a new HTTP handler
func NewHandler(
	orders *service.OrderService,
	reader *service.BatchReader,
	orchestrator *service.InvoiceOrchestrator,
	lifecycle *service.LifecycleService,
	catalog *service.CatalogService,
) *Handler {
	return &Handler{
		orders:       orders,
		reader:       reader,
		orchestrator: orchestrator,
		lifecycle:    lifecycle,
		catalog:      catalog,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(requireCompany())
	{
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders", h.listOrders)
		v1.POST("/orders/catalog", h.createOrderFromCatalog)
		v1.GET("/batches/:id", h.getBatch)
		v1.GET("/batches/:id/summary", h.getBatchSummary)
		v1.DELETE("/batches/:id", h.deleteBatch)
		v1.POST("/batches/:id/invoice", h.createInvoice)
		v1.DELETE("/invoices/:id", h.deleteInvoice)
		v1.POST("/products/resolve", h.resolveProduct)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// createOrder appends items to the customer's open batch
func (h *Handler) createOrder(c *gin.Context) {
	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}
	req.CompanyID = companyID(c)

	lines, err := h.orders.CreateOrder(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"batch_id": lines[0].BatchID,
		"lines":    lines,
	})
}

type catalogOrderRequest struct {
	CustomerID string                       `json:"customer_id" binding:"required,uuid"`
	Items      []service.CatalogItemRequest `json:"items" binding:"required,min=1,dive"`
}

// createOrderFromCatalog accepts free-text item names, creating products on
// the fly, then optionally raises an invoice for the fresh batch.
func (h *Handler) createOrderFromCatalog(c *gin.Context) {
	var req catalogOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	lines, err := h.orders.CreateOrderFromCatalogNames(c.Request.Context(), req.CustomerID, companyID(c), req.Items)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("invoice") != "true" {
		c.JSON(http.StatusCreated, gin.H{
			"batch_id": lines[0].BatchID,
			"lines":    lines,
		})
		return
	}

	result, err := h.orchestrator.CreateInvoiceForFreshBatch(
		c.Request.Context(), lines[0].BatchID, companyID(c), c.Query("template_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// listOrders returns every order line for the company
func (h *Handler) listOrders(c *gin.Context) {
	lines, err := h.reader.ListAll(c.Request.Context(), companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lines": lines})
}

// getBatch returns a batch's enriched lines
func (h *Handler) getBatch(c *gin.Context) {
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	lines, err := h.reader.GetBatch(c.Request.Context(), batchID, companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"status":   models.BatchStatus(lines),
		"lines":    lines,
	})
}

// getBatchSummary returns the merged per-product view of a batch
func (h *Handler) getBatchSummary(c *gin.Context) {
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	lines, err := h.reader.GetBatch(c.Request.Context(), batchID, companyID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": batchID,
		"status":   models.BatchStatus(lines),
		"items":    service.AggregateBatch(lines),
	})
}

// deleteBatch cascade-deletes a batch's lines
func (h *Handler) deleteBatch(c *gin.Context) {
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.DeleteBatch(c.Request.Context(), batchID, companyID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// createInvoice raises an invoice for an already-persisted batch
func (h *Handler) createInvoice(c *gin.Context) {
	batchID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	var body struct {
		TemplateID string `json:"template_id"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.orchestrator.CreateInvoiceForBatch(c.Request.Context(), batchID, companyID(c), body.TemplateID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// deleteInvoice removes an invoice from the invoicing store
func (h *Handler) deleteInvoice(c *gin.Context) {
	invoiceID, ok := pathUUID(c, "id")
	if !ok {
		return
	}

	if err := h.lifecycle.DeleteInvoice(c.Request.Context(), invoiceID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type resolveProductRequest struct {
	Name      string `json:"name" binding:"required"`
	BasePrice int64  `json:"base_price"`
}

// resolveProduct returns the named product, creating it when absent
func (h *Handler) resolveProduct(c *gin.Context) {
	var req resolveProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	product, err := h.catalog.ResolveOrCreateProduct(c.Request.Context(), req.Name, companyID(c), req.BasePrice)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// requireCompany validates the tenant header once for the whole group.
func requireCompany() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Company-ID")
		if _, err := uuid.Parse(id); err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "Missing or malformed X-Company-ID header",
			})
			return
		}
		c.Set("company_id", id)
		c.Next()
	}
}

func companyID(c *gin.Context) string {
	return c.GetString("company_id")
}

func pathUUID(c *gin.Context, param string) (string, bool) {
	id := c.Param(param)
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + param + " parameter",
		})
		return "", false
	}
	return id, true
}

// respondError maps service errors to HTTP statuses. Upstream invoicing
// failures keep their status and body for diagnostics.
func respondError(c *gin.Context, err error) {
	var upstream *service.InvoiceServiceError

	switch {
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrBatchNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &upstream):
		c.JSON(http.StatusBadGateway, gin.H{
			"error":           "Invoicing service error",
			"upstream_status": upstream.StatusCode,
			"upstream_body":   upstream.Body,
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal error",
			"details": err.Error(),
		})
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
