package models

import "time"

// Event types published on the order-batch topic.
const (
	EventTypeBatchCommitted = "ORDER_BATCH_COMMITTED"
	EventTypeBatchDeleted   = "ORDER_BATCH_DELETED"
	EventTypeInvoiceCreated = "INVOICE_CREATED"
)

// Event types consumed from the invoicing service's topic. They advance line
// statuses out of draft.
const (
	EventTypeInvoiceFinalized = "INVOICE_FINALIZED"
	EventTypeInvoicePaid      = "INVOICE_PAID"
	EventTypeInvoiceVoid      = "INVOICE_VOID"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// BatchCommittedEvent is published after the order writer's transaction
// commits. The invoicing side may use it to validate batch visibility on its
// own schedule instead of relying solely on our pre-call polling.
type BatchCommittedEvent struct {
	BaseEvent
	BatchID    string `json:"batch_id"`
	CustomerID string `json:"customer_id"`
	CompanyID  string `json:"company_id"`
	LineCount  int    `json:"line_count"`
	TotalPrice int64  `json:"total_price"`
}

// BatchDeletedEvent is published after a batch cascade delete.
type BatchDeletedEvent struct {
	BaseEvent
	BatchID      string `json:"batch_id"`
	CompanyID    string `json:"company_id"`
	LinesDeleted int64  `json:"lines_deleted"`
}

// InvoiceCreatedEvent is published after the invoicing service confirms an
// invoice for a batch.
type InvoiceCreatedEvent struct {
	BaseEvent
	InvoiceID string `json:"invoice_id"`
	BatchID   string `json:"batch_id"`
	CompanyID string `json:"company_id"`
}

// InvoiceStatusEvent is the incoming shape for INVOICE_FINALIZED,
// INVOICE_PAID and INVOICE_VOID events.
type InvoiceStatusEvent struct {
	BaseEvent
	InvoiceID    string `json:"invoice_id"`
	OrderBatchID string `json:"order_batch_id"`
	CompanyID    string `json:"company_id"`
}
