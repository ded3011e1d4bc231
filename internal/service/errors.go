package service

import (
	"errors"
	"fmt"
)

var (
	// ErrProductNotFound means an order referenced a product id absent from
	// the company's catalog. The enclosing transaction is rolled back.
	ErrProductNotFound = errors.New("product not found")

	// ErrBatchNotFound means an invoice was requested for a batch with zero
	// visible lines.
	ErrBatchNotFound = errors.New("batch not found")

	// ErrInvalidQuantity means an order item carried a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InvoiceServiceError carries a non-2xx response from the invoicing service.
// The upstream status and body are preserved for diagnostics; calls that hit
// this are never retried by this service.
type InvoiceServiceError struct {
	StatusCode int
	Body       string
}

func (e *InvoiceServiceError) Error() string {
	return fmt.Sprintf("invoicing service returned %d: %s", e.StatusCode, e.Body)
}
