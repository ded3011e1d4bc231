package worker

import (
	"context"
	"fmt"
	"log"

	"crm-order-service/internal/broker"
	"crm-order-service/internal/models"
	"crm-order-service/internal/service"
)

// statusForEvent maps invoicing-service event types to line statuses.
var statusForEvent = map[string]models.Status{
	models.EventTypeInvoiceFinalized: models.StatusPendingPayment,
	models.EventTypeInvoicePaid:      models.StatusPaid,
	models.EventTypeInvoiceVoid:      models.StatusCancelled,
}

// StatusWorker consumes the invoicing service's status events and advances
// the referenced batch's lines out of draft.
type StatusWorker struct {
	consumer     *broker.Consumer
	handler      *broker.InvoiceStatusHandler
	orderService *service.OrderService
}

// NewStatusWorker creates a new status worker
func NewStatusWorker(consumer *broker.Consumer, orderService *service.OrderService) *StatusWorker {
	w := &StatusWorker{
		consumer:     consumer,
		handler:      broker.NewInvoiceStatusHandler(),
		orderService: orderService,
	}
	w.handler.OnInvoiceStatus(w.handleInvoiceStatus)
	return w
}

func (w *StatusWorker) handleInvoiceStatus(ctx context.Context, event *models.InvoiceStatusEvent) error {
	status, ok := statusForEvent[event.EventType]
	if !ok {
		return fmt.Errorf("no status mapping for event type %s", event.EventType)
	}

	log.Printf("Advancing batch %s to %s (event %s)", event.OrderBatchID, status, event.EventID)
	return w.orderService.AdvanceBatchStatus(ctx, event.OrderBatchID, event.CompanyID, status)
}

// Start starts the worker
func (w *StatusWorker) Start(ctx context.Context) error {
	log.Println("Starting invoice status worker...")
	return w.consumer.StartConsuming(ctx, w.handler.HandleMessage)
}

// Stop stops the worker
func (w *StatusWorker) Stop() error {
	log.Println("Stopping invoice status worker...")
	return w.consumer.Close()
}
