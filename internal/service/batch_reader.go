package service

import (
	"context"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/util"

	"go.uber.org/zap"
)

// BatchReader retrieves batches and enriches them with customer and product
// detail. Reads degrade rather than fail: an enrichment miss leaves the
// affected field nil.
type BatchReader struct {
	orders    OrderStore
	catalog   CatalogStore
	customers CustomerStore
	cache     ProductCache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewBatchReader creates a new batch reader
func NewBatchReader(
	orders OrderStore,
	catalog CatalogStore,
	customers CustomerStore,
	cache ProductCache,
	cacheTTL time.Duration,
) *BatchReader {
	return &BatchReader{
		orders:    orders,
		catalog:   catalog,
		customers: customers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		logger:    util.GetLogger(),
	}
}

// GetBatch returns every line in a batch, enriched. All lines in a batch
// share one customer, so the customer is resolved once; product detail is
// resolved per distinct product name, not per line.
func (br *BatchReader) GetBatch(ctx context.Context, batchID, companyID string) ([]models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "BatchReader.GetBatch")
	defer span.End()

	lines, err := br.orders.GetOrderLinesByBatch(ctx, batchID, companyID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return []models.OrderLine{}, nil
	}

	customer, err := br.customers.GetCustomerByID(ctx, lines[0].CustomerID, companyID)
	if err != nil {
		br.logger.Warn("Customer enrichment failed",
			zap.String("customer_id", lines[0].CustomerID),
			zap.Error(err))
		customer = nil
	}

	products := br.resolveDistinctProducts(ctx, companyID, lines)
	for i := range lines {
		lines[i].CustomerDetails = customer
		lines[i].ProductDetails = products[lines[i].ProductName]
	}

	return lines, nil
}

// ListAll returns every order line for a company, unenriched.
func (br *BatchReader) ListAll(ctx context.Context, companyID string) ([]models.OrderLine, error) {
	ctx, span := util.StartSpan(ctx, "BatchReader.ListAll")
	defer span.End()

	lines, err := br.orders.ListOrderLines(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []models.OrderLine{}
	}
	return lines, nil
}

// resolveDistinctProducts looks each distinct product name up once, through
// the cache. A failed or empty lookup maps to nil; lines referencing a
// product renamed since insertion simply stay unenriched.
func (br *BatchReader) resolveDistinctProducts(ctx context.Context, companyID string, lines []models.OrderLine) map[string]*models.Product {
	products := make(map[string]*models.Product)
	for _, line := range lines {
		if _, seen := products[line.ProductName]; seen {
			continue
		}
		products[line.ProductName] = br.lookupProduct(ctx, companyID, line.ProductName)
	}
	return products
}

func (br *BatchReader) lookupProduct(ctx context.Context, companyID, name string) *models.Product {
	if br.cache != nil {
		cached, err := br.cache.GetProduct(ctx, companyID, name)
		if err != nil {
			br.logger.Warn("Product cache read failed", zap.String("name", name), zap.Error(err))
		} else if cached != nil {
			return cached
		}
	}

	product, err := br.catalog.FindProductByName(ctx, companyID, name)
	if err != nil {
		br.logger.Warn("Product enrichment failed", zap.String("name", name), zap.Error(err))
		return nil
	}
	if product == nil {
		return nil
	}

	if br.cache != nil {
		if err := br.cache.SetProduct(ctx, product, br.cacheTTL); err != nil {
			br.logger.Warn("Product cache write failed", zap.String("name", name), zap.Error(err))
		}
	}
	return product
}

// AggregateBatch merges lines with identical product names, summing quantity
// and total price. Unit price is taken from the first line seen for each
// product; within a batch they are assumed identical. First-seen order is
// preserved.
func AggregateBatch(lines []models.OrderLine) []models.MergedLine {
	merged := make([]models.MergedLine, 0, len(lines))
	index := make(map[string]int, len(lines))

	for _, line := range lines {
		if i, ok := index[line.ProductName]; ok {
			merged[i].TotalQuantity += line.Quantity
			merged[i].TotalPrice += line.TotalPrice
			continue
		}
		index[line.ProductName] = len(merged)
		merged = append(merged, models.MergedLine{
			ProductName:   line.ProductName,
			TotalQuantity: line.Quantity,
			UnitPrice:     line.UnitPrice,
			TotalPrice:    line.TotalPrice,
		})
	}

	return merged
}
