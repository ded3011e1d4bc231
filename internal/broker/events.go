package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"crm-order-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing batch lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishBatchCommitted publishes a BatchCommitted event
func (ep *EventPublisher) PublishBatchCommitted(ctx context.Context, event *models.BatchCommittedEvent) error {
	return ep.producer.PublishEvent(ctx, batchKey(event.BatchID), event)
}

// PublishBatchDeleted publishes a BatchDeleted event
func (ep *EventPublisher) PublishBatchDeleted(ctx context.Context, event *models.BatchDeletedEvent) error {
	return ep.producer.PublishEvent(ctx, batchKey(event.BatchID), event)
}

// PublishInvoiceCreated publishes an InvoiceCreated event
func (ep *EventPublisher) PublishInvoiceCreated(ctx context.Context, event *models.InvoiceCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, batchKey(event.BatchID), event)
}

func batchKey(batchID string) string {
	return fmt.Sprintf("batch-%s", batchID)
}

// InvoiceStatusHandler routes invoicing-service status events to a single
// callback. Finalized, paid and void invoices all arrive here.
type InvoiceStatusHandler struct {
	onInvoiceStatus func(context.Context, *models.InvoiceStatusEvent) error
}

// NewInvoiceStatusHandler creates a new invoice status handler
func NewInvoiceStatusHandler() *InvoiceStatusHandler {
	return &InvoiceStatusHandler{}
}

// OnInvoiceStatus registers the callback for invoice status events
func (h *InvoiceStatusHandler) OnInvoiceStatus(handler func(context.Context, *models.InvoiceStatusEvent) error) {
	h.onInvoiceStatus = handler
}

// HandleMessage routes messages to the registered callback
func (h *InvoiceStatusHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeInvoiceFinalized, models.EventTypeInvoicePaid, models.EventTypeInvoiceVoid:
		if h.onInvoiceStatus == nil {
			return nil
		}
		var event models.InvoiceStatusEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			return fmt.Errorf("failed to unmarshal invoice status event: %w", err)
		}
		return h.onInvoiceStatus(ctx, &event)

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
