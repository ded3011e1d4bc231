package service

import (
	"context"
	"fmt"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/store"
	"crm-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService writes order lines. All OrderLine writes go through here: the
// store commits batch assignment and every line insert as one transaction, so
// a batch can never be half-written.
type OrderService struct {
	orders    OrderStore
	catalog   CatalogStore
	resolver  *CatalogService
	publisher BatchEventPublisher
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(
	orders OrderStore,
	catalog CatalogStore,
	resolver *CatalogService,
	publisher BatchEventPublisher,
) *OrderService {
	return &OrderService{
		orders:    orders,
		catalog:   catalog,
		resolver:  resolver,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// OrderItemRequest is one item of an order, referencing an existing product.
// UnitPriceOverride, when set, replaces the catalog price for this line.
type OrderItemRequest struct {
	ProductID         string `json:"product_id" binding:"required"`
	Quantity          int    `json:"quantity" binding:"required,min=1"`
	UnitPriceOverride *int64 `json:"unit_price,omitempty"`
}

// CreateOrderRequest represents a request to create or extend an order batch.
type CreateOrderRequest struct {
	CustomerID string             `json:"customer_id" binding:"required,uuid"`
	CompanyID  string             `json:"-"`
	Items      []OrderItemRequest `json:"items" binding:"required,min=1,dive"`
}

// CatalogItemRequest is a free-text item; the product is resolved or created
// by name before the lines are written.
type CatalogItemRequest struct {
	Name      string `json:"name" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1"`
	UnitPrice int64  `json:"unit_price"`
}

// CreateOrder appends lines to the customer's open draft batch, or starts a
// new batch when none is open. Every referenced product must already exist;
// a missing product fails the call with ErrProductNotFound and nothing is
// persisted. The shared batch id is readable from the first returned line.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) ([]models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	products, err := s.resolveItems(ctx, req.CompanyID, req.Items)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("invalid_items").Inc()
		return nil, err
	}

	specs := make([]store.LineSpec, 0, len(req.Items))
	for _, item := range req.Items {
		product := products[item.ProductID]
		price := product.UnitPrice
		if item.UnitPriceOverride != nil {
			price = *item.UnitPriceOverride
		}
		specs = append(specs, store.LineSpec{
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   price,
			TotalPrice:  int64(item.Quantity) * price,
		})
	}

	return s.writeLines(ctx, req.CompanyID, req.CustomerID, specs)
}

// CreateOrderFromCatalogNames is the free-text entry path used by ad-hoc
// invoice creation: each item is run through the catalog resolver first, so
// products are created on the fly rather than required to pre-exist.
func (s *OrderService) CreateOrderFromCatalogNames(ctx context.Context, customerID, companyID string, items []CatalogItemRequest) ([]models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrderFromCatalogNames")
	defer span.End()

	specs := make([]store.LineSpec, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidQuantity, item.Name)
		}
		product, err := s.resolver.ResolveOrCreateProduct(ctx, item.Name, companyID, item.UnitPrice)
		if err != nil {
			util.OrdersFailedTotal.WithLabelValues("catalog_resolve").Inc()
			return nil, err
		}
		// The resolver may have returned a pre-existing product; its price
		// wins over the one on the request.
		specs = append(specs, store.LineSpec{
			ProductName: product.Name,
			Quantity:    item.Quantity,
			UnitPrice:   product.UnitPrice,
			TotalPrice:  int64(item.Quantity) * product.UnitPrice,
		})
	}

	return s.writeLines(ctx, companyID, customerID, specs)
}

func (s *OrderService) writeLines(ctx context.Context, companyID, customerID string, specs []store.LineSpec) ([]models.OrderLine, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("order must contain at least one item")
	}

	lines, err := s.orders.CreateOrderLines(ctx, companyID, customerID, specs)
	if err != nil {
		util.OrdersFailedTotal.WithLabelValues("db_error").Inc()
		return nil, fmt.Errorf("failed to create order lines: %w", err)
	}

	util.OrdersCreatedTotal.Inc()
	util.OrderLinesCreatedTotal.Add(float64(len(lines)))

	var total int64
	for _, line := range lines {
		total += line.TotalPrice
	}

	s.logger.Info("Order lines committed",
		zap.String("batch_id", lines[0].BatchID),
		zap.String("customer_id", customerID),
		zap.Int("lines", len(lines)))

	event := &models.BatchCommittedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeBatchCommitted,
			Timestamp: time.Now(),
		},
		BatchID:    lines[0].BatchID,
		CustomerID: customerID,
		CompanyID:  companyID,
		LineCount:  len(lines),
		TotalPrice: total,
	}
	if err := s.publisher.PublishBatchCommitted(ctx, event); err != nil {
		s.logger.Error("Failed to publish BatchCommitted event", zap.Error(err))
	}

	return lines, nil
}

// resolveItems loads every referenced product and validates quantities.
func (s *OrderService) resolveItems(ctx context.Context, companyID string, items []OrderItemRequest) (map[string]*models.Product, error) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("%w: product %s", ErrInvalidQuantity, item.ProductID)
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetProductsByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	byID := make(map[string]*models.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}
	for _, item := range items {
		if _, ok := byID[item.ProductID]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, item.ProductID)
		}
	}

	return byID, nil
}

// AdvanceBatchStatus moves every line in a batch to the given status. Driven
// by the invoicing service's status events; once a batch leaves draft its
// open-batch entry is dropped and the id is never assigned again.
func (s *OrderService) AdvanceBatchStatus(ctx context.Context, batchID, companyID string, status models.Status) error {
	ctx, span := util.StartSpan(ctx, "OrderService.AdvanceBatchStatus")
	defer span.End()

	if !status.Valid() {
		return fmt.Errorf("unknown status %q", status)
	}

	updated, err := s.orders.UpdateBatchStatus(ctx, batchID, companyID, status)
	if err != nil {
		return fmt.Errorf("failed to advance batch status: %w", err)
	}

	util.BatchStatusAdvancedTotal.WithLabelValues(string(status)).Inc()
	s.logger.Info("Batch status advanced",
		zap.String("batch_id", batchID),
		zap.String("status", string(status)),
		zap.Int64("lines", updated))
	return nil
}
