package service

import (
	"context"
	"testing"

	"crm-order-service/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteBatch_RemovesAllLines(t *testing.T) {
	orders := newFakeOrderStore()
	publisher := &fakePublisher{}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
		{ProductName: "Widget", Quantity: 2, UnitPrice: 500, TotalPrice: 1000},
		{ProductName: "Gadget", Quantity: 1, UnitPrice: 1000, TotalPrice: 1000},
	})

	ls := NewLifecycleService(orders, &fakeGateway{}, publisher)
	require.NoError(t, ls.DeleteBatch(context.Background(), batchID, companyID))

	lines, err := orders.GetOrderLinesByBatch(context.Background(), batchID, companyID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	require.Len(t, publisher.deleted, 1)
	assert.Equal(t, batchID, publisher.deleted[0].BatchID)
	assert.Equal(t, int64(3), publisher.deleted[0].LinesDeleted)
}

func TestDeleteBatch_DoesNotTouchInvoices(t *testing.T) {
	orders := newFakeOrderStore()
	gateway := &fakeGateway{}
	companyID := uuid.NewString()

	batchID := seedBatch(t, orders, companyID, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})

	ls := NewLifecycleService(orders, gateway, &fakePublisher{})
	require.NoError(t, ls.DeleteBatch(context.Background(), batchID, companyID))

	assert.Empty(t, gateway.deletions, "batch deletion never cascades into the invoicing store")
}

func TestDeleteBatch_ScopedToCompany(t *testing.T) {
	orders := newFakeOrderStore()
	companyA := uuid.NewString()
	companyB := uuid.NewString()

	batchA := seedBatch(t, orders, companyA, uuid.NewString(), []store.LineSpec{
		{ProductName: "Widget", Quantity: 1, UnitPrice: 500, TotalPrice: 500},
	})

	ls := NewLifecycleService(orders, &fakeGateway{}, &fakePublisher{})
	require.NoError(t, ls.DeleteBatch(context.Background(), batchA, companyB))

	lines, err := orders.GetOrderLinesByBatch(context.Background(), batchA, companyA)
	require.NoError(t, err)
	assert.Len(t, lines, 1, "another tenant's delete must not remove the batch")
}

func TestDeleteInvoice_Delegates(t *testing.T) {
	gateway := &fakeGateway{}
	ls := NewLifecycleService(newFakeOrderStore(), gateway, &fakePublisher{})

	require.NoError(t, ls.DeleteInvoice(context.Background(), "inv-42"))
	assert.Equal(t, []string{"inv-42"}, gateway.deletions)
}

func TestDeleteInvoice_UpstreamErrorPropagates(t *testing.T) {
	gateway := &fakeGateway{err: &InvoiceServiceError{StatusCode: 404, Body: "gone"}}
	ls := NewLifecycleService(newFakeOrderStore(), gateway, &fakePublisher{})

	err := ls.DeleteInvoice(context.Background(), "inv-42")

	var upstream *InvoiceServiceError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 404, upstream.StatusCode)
}

