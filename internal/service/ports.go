package service

import (
	"context"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/store"
)

// OrderStore is the slice of the store the order-side services depend on.
// *store.Store satisfies it; tests use in-memory fakes.
type OrderStore interface {
	CreateOrderLines(ctx context.Context, companyID, customerID string, specs []store.LineSpec) ([]models.OrderLine, error)
	GetOrderLinesByBatch(ctx context.Context, batchID, companyID string) ([]models.OrderLine, error)
	ListOrderLines(ctx context.Context, companyID string) ([]models.OrderLine, error)
	DeleteBatch(ctx context.Context, batchID, companyID string) (int64, error)
	UpdateBatchStatus(ctx context.Context, batchID, companyID string, status models.Status) (int64, error)
}

// CatalogStore is the product side of the store.
type CatalogStore interface {
	GetProductsByIDs(ctx context.Context, companyID string, ids []string) ([]models.Product, error)
	FindProductByName(ctx context.Context, companyID, name string) (*models.Product, error)
	InsertProduct(ctx context.Context, product *models.Product) (*models.Product, error)
}

// CustomerStore resolves customers for batch enrichment.
type CustomerStore interface {
	GetCustomerByID(ctx context.Context, id, companyID string) (*models.Customer, error)
}

// ProductCache is a read-through cache in front of FindProductByName.
// A miss returns (nil, nil); cache failures never fail a read.
type ProductCache interface {
	GetProduct(ctx context.Context, companyID, name string) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
}

// InvoicingGateway is the HTTP boundary to the external invoicing service.
type InvoicingGateway interface {
	CreateInvoice(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error)
	DeleteInvoice(ctx context.Context, invoiceID string) error
}

// BatchEventPublisher publishes batch lifecycle events, best-effort.
type BatchEventPublisher interface {
	PublishBatchCommitted(ctx context.Context, event *models.BatchCommittedEvent) error
	PublishBatchDeleted(ctx context.Context, event *models.BatchDeletedEvent) error
	PublishInvoiceCreated(ctx context.Context, event *models.InvoiceCreatedEvent) error
}
