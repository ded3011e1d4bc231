package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/util"

	"go.uber.org/zap"
)

// InvoiceRequest is the payload for POST /invoices on the invoicing service.
type InvoiceRequest struct {
	OrderBatchID string `json:"orderBatchId"`
	CustomerID   string `json:"customerId,omitempty"`
	CompanyID    string `json:"companyId"`
	TemplateID   string `json:"templateId"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// InvoicingClient talks HTTP to the external invoicing service. Calls are
// synchronous with a client-side timeout and no circuit breaker; a slow
// upstream blocks the calling request for the duration of the timeout.
type InvoicingClient struct {
	baseURL     string
	apiKey      string
	serviceName string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewInvoicingClient creates a client for the invoicing service
func NewInvoicingClient(baseURL, apiKey, serviceName string, timeout time.Duration) *InvoicingClient {
	return &InvoicingClient{
		baseURL:     baseURL,
		apiKey:      apiKey,
		serviceName: serviceName,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      util.GetLogger(),
	}
}

// CreateInvoice posts an invoice request. A non-2xx answer surfaces as an
// *InvoiceServiceError carrying the upstream status and body.
func (c *InvoicingClient) CreateInvoice(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error) {
	ctx, span := util.StartSpan(ctx, "InvoicingClient.CreateInvoice")
	defer span.End()

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/invoices", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("invoicing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read invoicing response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn("Invoicing service rejected request",
			zap.Int("status", resp.StatusCode),
			zap.String("batch_id", req.OrderBatchID))
		return nil, &InvoiceServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	var invoice models.Invoice
	if err := json.Unmarshal(respBody, &invoice); err != nil {
		return nil, fmt.Errorf("failed to decode invoice response: %w", err)
	}
	return &invoice, nil
}

// DeleteInvoice removes an invoice from the invoicing store by id.
func (c *InvoicingClient) DeleteInvoice(ctx context.Context, invoiceID string) error {
	ctx, span := util.StartSpan(ctx, "InvoicingClient.DeleteInvoice")
	defer span.End()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/invoices/"+invoiceID, nil)
	if err != nil {
		return err
	}
	c.setHeaders(httpReq)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("invoicing service unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		return &InvoiceServiceError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
	return nil
}

func (c *InvoicingClient) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("X-Service-Name", c.serviceName)
}
