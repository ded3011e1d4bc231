package service

import (
	"context"
	"testing"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOrchestrator(orders *fakeOrderStore, gateway *fakeGateway) *InvoiceOrchestrator {
	return NewInvoiceOrchestrator(orders, gateway, &fakePublisher{}, "tmpl-default", "GBP", 3, 0)
}

func TestCreateInvoiceForBatch_HappyPath(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{invoice: &models.Invoice{ID: "inv-1", Status: "draft"}}
	companyID := uuid.NewString()
	customerID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, customerID, []store.LineSpec{
		{ProductName: "Widget", Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
	})

	o := newTestOrchestrator(orders, gateway)
	result, err := o.CreateInvoiceForBatch(context.Background(), batchID, companyID, "tmpl-1")
	require.NoError(t, err)

	require.Len(t, gateway.requests, 1)
	req := gateway.requests[0]
	assert.Equal(t, batchID, req.OrderBatchID)
	assert.Equal(t, companyID, req.CompanyID)
	assert.Equal(t, customerID, req.CustomerID)
	assert.Equal(t, "tmpl-1", req.TemplateID)
	assert.Equal(t, "GBP", req.Currency)
	assert.Equal(t, "draft", req.Status)

	assert.Equal(t, "inv-1", result.Invoice.ID)
	assert.Equal(t, batchID, result.BatchID)
	require.Len(t, result.Lines, 1)
	assert.Equal(t, int64(1000), result.Lines[0].TotalPrice)
}

func TestCreateInvoiceForBatch_DefaultTemplate(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})

	o := newTestOrchestrator(orders, gateway)
	_, err := o.CreateInvoiceForBatch(context.Background(), batchID, companyID, "")
	require.NoError(t, err)

	assert.Equal(t, "tmpl-default", gateway.requests[0].TemplateID)
}

func TestCreateInvoiceForBatch_EmptyBatchIsTerminal(t *testing.T) {
	gateway := &fakeGateway{}
	o := newTestOrchestrator(newFakeOrderStore(), gateway)

	_, err := o.CreateInvoiceForBatch(context.Background(), uuid.NewString(), uuid.NewString(), "")

	assert.ErrorIs(t, err, ErrBatchNotFound)
	assert.Empty(t, gateway.requests, "no upstream call for a missing batch")
}

func TestCreateInvoiceForBatch_UpstreamErrorSurfaced(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{err: &InvoiceServiceError{StatusCode: 422, Body: `{"error":"bad template"}`}}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})

	o := newTestOrchestrator(orders, gateway)
	_, err := o.CreateInvoiceForBatch(context.Background(), batchID, companyID, "")

	var upstream *InvoiceServiceError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 422, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "bad template")
}

func TestCreateInvoiceForFreshBatch_PollsUntilVisible(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})
	// Simulate replication lag: the first two reads see nothing. Seeding
	// consumed no reads, so attempts 1 and 2 miss and attempt 3 hits.
	orders.hideUntilGet = 2

	o := newTestOrchestrator(orders, gateway)
	result, err := o.CreateInvoiceForFreshBatch(context.Background(), batchID, companyID, "")
	require.NoError(t, err)

	assert.Equal(t, 3, orders.getCalls)
	require.Len(t, result.Lines, 1)
	require.Len(t, gateway.requests, 1)
}

func TestCreateInvoiceForFreshBatch_ExhaustionIsSoft(t *testing.T) {
	orders := newFakeOrderStore()
	orders.hideUntilGet = 100 // never becomes visible
	gateway := &fakeGateway{}
	companyID := uuid.NewString()
	batchID := uuid.NewString()

	o := newTestOrchestrator(orders, gateway)
	result, err := o.CreateInvoiceForFreshBatch(context.Background(), batchID, companyID, "")

	require.NoError(t, err, "exhausting the poll budget must not fail the call")
	assert.Equal(t, 3, orders.getCalls, "bounded by the attempt budget")
	require.Len(t, gateway.requests, 1, "the invoicing service is still called")
	assert.Empty(t, gateway.requests[0].CustomerID)
	assert.Empty(t, result.Lines)
}

func TestCreateInvoiceForFreshBatch_ContextCancelStopsPolling(t *testing.T) {
	orders := newFakeOrderStore()
	orders.hideUntilGet = 100
	gateway := &fakeGateway{}

	o := NewInvoiceOrchestrator(orders, gateway, &fakePublisher{}, "", "GBP", 5, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.CreateInvoiceForFreshBatch(ctx, uuid.NewString(), uuid.NewString(), "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gateway.requests)
}

func TestCreateInvoice_NotIdempotent(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})

	o := newTestOrchestrator(orders, gateway)
	_, err := o.CreateInvoiceForBatch(context.Background(), batchID, companyID, "")
	require.NoError(t, err)
	_, err = o.CreateInvoiceForBatch(context.Background(), batchID, companyID, "")
	require.NoError(t, err)

	assert.Len(t, gateway.requests, 2, "each call creates a new invoice")
}
