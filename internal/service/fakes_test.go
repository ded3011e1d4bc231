package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/store"

	"github.com/google/uuid"
)

// fakeOrderStore mirrors the store's batch-assignment semantics in memory:
// one open draft batch per (company, customer), reused until it leaves draft.
type fakeOrderStore struct {
	mu           sync.Mutex
	lines        []models.OrderLine
	open         map[string]string
	createErr    error
	getErr       error
	createCalls  int
	getCalls     int
	hideUntilGet int // GetOrderLinesByBatch returns empty for the first N calls
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{open: make(map[string]string)}
}

func openKey(companyID, customerID string) string {
	return companyID + "|" + customerID
}

func (f *fakeOrderStore) CreateOrderLines(ctx context.Context, companyID, customerID string, specs []store.LineSpec) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}

	batchID, ok := f.open[openKey(companyID, customerID)]
	if !ok {
		batchID = uuid.NewString()
		f.open[openKey(companyID, customerID)] = batchID
	}

	created := make([]models.OrderLine, 0, len(specs))
	now := time.Now()
	for _, spec := range specs {
		line := models.OrderLine{
			ID:          uuid.NewString(),
			BatchID:     batchID,
			CustomerID:  customerID,
			CompanyID:   companyID,
			ProductName: spec.ProductName,
			Quantity:    spec.Quantity,
			UnitPrice:   spec.UnitPrice,
			TotalPrice:  spec.TotalPrice,
			Status:      models.StatusDraft,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		f.lines = append(f.lines, line)
		created = append(created, line)
	}
	return created, nil
}

func (f *fakeOrderStore) GetOrderLinesByBatch(ctx context.Context, batchID, companyID string) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.getCalls <= f.hideUntilGet {
		return nil, nil
	}

	var out []models.OrderLine
	for _, line := range f.lines {
		if line.BatchID == batchID && line.CompanyID == companyID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) ListOrderLines(ctx context.Context, companyID string) ([]models.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.OrderLine
	for _, line := range f.lines {
		if line.CompanyID == companyID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) DeleteBatch(ctx context.Context, batchID, companyID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var kept []models.OrderLine
	var deleted int64
	for _, line := range f.lines {
		if line.BatchID == batchID && line.CompanyID == companyID {
			deleted++
			continue
		}
		kept = append(kept, line)
	}
	f.lines = kept
	for key, id := range f.open {
		if id == batchID {
			delete(f.open, key)
		}
	}
	return deleted, nil
}

func (f *fakeOrderStore) UpdateBatchStatus(ctx context.Context, batchID, companyID string, status models.Status) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var updated int64
	for i := range f.lines {
		if f.lines[i].BatchID == batchID && f.lines[i].CompanyID == companyID {
			f.lines[i].Status = status
			updated++
		}
	}
	if status != models.StatusDraft {
		for key, id := range f.open {
			if id == batchID {
				delete(f.open, key)
			}
		}
	}
	return updated, nil
}

// fakeCatalogStore holds products keyed by id and by lowercased name.
type fakeCatalogStore struct {
	mu          sync.Mutex
	products    map[string]*models.Product
	findErr     error
	insertCalls int
	findCalls   int
	// conflictOnInsert simulates a concurrent writer winning the insert:
	// InsertProduct returns nil and plants the product under conflictWith.
	conflictOnInsert bool
	conflictWith     *models.Product
}

func newFakeCatalogStore() *fakeCatalogStore {
	return &fakeCatalogStore{products: make(map[string]*models.Product)}
}

func (f *fakeCatalogStore) add(p *models.Product) {
	f.products[p.ID] = p
}

func (f *fakeCatalogStore) GetProductsByIDs(ctx context.Context, companyID string, ids []string) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok && p.CompanyID == companyID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeCatalogStore) FindProductByName(ctx context.Context, companyID, name string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findCalls++
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, p := range f.products {
		if p.CompanyID == companyID && strings.EqualFold(p.Name, name) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalogStore) InsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.insertCalls++
	if f.conflictOnInsert {
		f.conflictOnInsert = false
		f.products[f.conflictWith.ID] = f.conflictWith
		return nil, nil
	}
	for _, p := range f.products {
		if p.CompanyID == product.CompanyID && strings.EqualFold(p.Name, product.Name) {
			return nil, nil
		}
	}
	stored := *product
	f.products[product.ID] = &stored
	return &stored, nil
}

// fakeCustomerStore returns a fixed customer or error.
type fakeCustomerStore struct {
	customer *models.Customer
	err      error
	calls    int
}

func (f *fakeCustomerStore) GetCustomerByID(ctx context.Context, id, companyID string) (*models.Customer, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.customer != nil && f.customer.ID == id {
		return f.customer, nil
	}
	return nil, fmt.Errorf("customer not found: %s", id)
}

// fakeProductCache is an in-memory ProductCache.
type fakeProductCache struct {
	entries  map[string]*models.Product
	getErr   error
	getCalls int
	setCalls int
}

func newFakeProductCache() *fakeProductCache {
	return &fakeProductCache{entries: make(map[string]*models.Product)}
}

func (f *fakeProductCache) GetProduct(ctx context.Context, companyID, name string) (*models.Product, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.entries[companyID+"|"+strings.ToLower(name)], nil
}

func (f *fakeProductCache) SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error {
	f.setCalls++
	f.entries[product.CompanyID+"|"+strings.ToLower(product.Name)] = product
	return nil
}

// fakePublisher records published events.
type fakePublisher struct {
	committed []*models.BatchCommittedEvent
	deleted   []*models.BatchDeletedEvent
	invoiced  []*models.InvoiceCreatedEvent
	err       error
}

func (f *fakePublisher) PublishBatchCommitted(ctx context.Context, e *models.BatchCommittedEvent) error {
	f.committed = append(f.committed, e)
	return f.err
}

func (f *fakePublisher) PublishBatchDeleted(ctx context.Context, e *models.BatchDeletedEvent) error {
	f.deleted = append(f.deleted, e)
	return f.err
}

func (f *fakePublisher) PublishInvoiceCreated(ctx context.Context, e *models.InvoiceCreatedEvent) error {
	f.invoiced = append(f.invoiced, e)
	return f.err
}

// fakeGateway records invoicing calls.
type fakeGateway struct {
	requests  []*InvoiceRequest
	deletions []string
	invoice   *models.Invoice
	err       error
}

func (f *fakeGateway) CreateInvoice(ctx context.Context, req *InvoiceRequest) (*models.Invoice, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if f.invoice != nil {
		return f.invoice, nil
	}
	return &models.Invoice{
		ID:           uuid.NewString(),
		OrderBatchID: req.OrderBatchID,
		CompanyID:    req.CompanyID,
		TemplateID:   req.TemplateID,
		Currency:     req.Currency,
		Status:       req.Status,
	}, nil
}

func (f *fakeGateway) DeleteInvoice(ctx context.Context, invoiceID string) error {
	f.deletions = append(f.deletions, invoiceID)
	return f.err
}
