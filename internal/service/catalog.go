package service

import (
	"context"
	"fmt"
	"strings"

	"crm-order-service/internal/models"
	"crm-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService resolves products by name within a company, creating them on
// first reference.
type CatalogService struct {
	catalog CatalogStore
	logger  *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(catalog CatalogStore) *CatalogService {
	return &CatalogService{
		catalog: catalog,
		logger:  util.GetLogger(),
	}
}

// ResolveOrCreateProduct returns the company's product with the given name
// (case-insensitive), creating it with basePrice, zero stock and empty
// description/SKU when absent. An existing product is returned unchanged:
// its stored price wins over basePrice.
func (cs *CatalogService) ResolveOrCreateProduct(ctx context.Context, name, companyID string, basePrice int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.ResolveOrCreateProduct")
	defer span.End()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("product name must not be empty")
	}

	existing, err := cs.catalog.FindProductByName(ctx, companyID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to look up product: %w", err)
	}
	if existing != nil {
		util.ProductsResolvedTotal.WithLabelValues("hit").Inc()
		return existing, nil
	}

	created, err := cs.catalog.InsertProduct(ctx, &models.Product{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		Name:      name,
		UnitPrice: basePrice,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	if created != nil {
		util.ProductsResolvedTotal.WithLabelValues("created").Inc()
		cs.logger.Info("Product created on first reference",
			zap.String("company_id", companyID),
			zap.String("name", name))
		return created, nil
	}

	// A concurrent request won the insert; the unique index on
	// (company_id, lower(name)) absorbed ours.
	existing, err = cs.catalog.FindProductByName(ctx, companyID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to re-read product after conflict: %w", err)
	}
	if existing == nil {
		return nil, fmt.Errorf("product %q vanished after insert conflict", name)
	}
	util.ProductsResolvedTotal.WithLabelValues("hit").Inc()
	return existing, nil
}
