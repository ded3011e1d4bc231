package service

import (
	"context"
	"fmt"
	"time"

	"crm-order-service/internal/models"
	"crm-order-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LifecycleService deletes batches and invoices. The two stores are kept
// consistent best-effort only: deleting a batch never touches an invoice
// that references it, and deleting an invoice never touches its lines. A
// dangling order_batch_id in the invoicing store is a documented outcome,
// not auto-healed.
type LifecycleService struct {
	orders    OrderStore
	gateway   InvoicingGateway
	publisher BatchEventPublisher
	logger    *zap.Logger
}

// NewLifecycleService creates a new lifecycle service
func NewLifecycleService(orders OrderStore, gateway InvoicingGateway, publisher BatchEventPublisher) *LifecycleService {
	return &LifecycleService{
		orders:    orders,
		gateway:   gateway,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// DeleteBatch removes every line in the batch. Unconditional; confirmation
// UX lives in the presentation layer.
func (ls *LifecycleService) DeleteBatch(ctx context.Context, batchID, companyID string) error {
	ctx, span := util.StartSpan(ctx, "LifecycleService.DeleteBatch")
	defer span.End()

	deleted, err := ls.orders.DeleteBatch(ctx, batchID, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete batch: %w", err)
	}

	util.BatchesDeletedTotal.Inc()
	ls.logger.Info("Batch deleted",
		zap.String("batch_id", batchID),
		zap.Int64("lines", deleted))

	event := &models.BatchDeletedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeBatchDeleted,
			Timestamp: time.Now(),
		},
		BatchID:      batchID,
		CompanyID:    companyID,
		LinesDeleted: deleted,
	}
	if err := ls.publisher.PublishBatchDeleted(ctx, event); err != nil {
		ls.logger.Error("Failed to publish BatchDeleted event", zap.Error(err))
	}

	return nil
}

// DeleteInvoice removes an invoice from the invoicing store, independent of
// any order line state.
func (ls *LifecycleService) DeleteInvoice(ctx context.Context, invoiceID string) error {
	ctx, span := util.StartSpan(ctx, "LifecycleService.DeleteInvoice")
	defer span.End()

	if err := ls.gateway.DeleteInvoice(ctx, invoiceID); err != nil {
		return err
	}

	util.InvoicesDeletedTotal.Inc()
	ls.logger.Info("Invoice deleted", zap.String("invoice_id", invoiceID))
	return nil
}
