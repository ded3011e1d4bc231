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

// InvoiceOrchestrator materializes invoices from batches via the external
// invoicing service. The order store and the invoicing store are owned by
// different deployments, so a batch committed here may not yet be visible
// over there; the orchestrator bridges that with a bounded visibility wait
// before calling out. Invoice creation is NOT idempotent: two calls for the
// same batch create two invoices.
type InvoiceOrchestrator struct {
	orders            OrderStore
	gateway           InvoicingGateway
	publisher         BatchEventPublisher
	defaultTemplateID string
	currency          string
	pollAttempts      int
	pollDelay         time.Duration
	logger            *zap.Logger
}

// NewInvoiceOrchestrator creates a new invoice orchestrator
func NewInvoiceOrchestrator(
	orders OrderStore,
	gateway InvoicingGateway,
	publisher BatchEventPublisher,
	defaultTemplateID, currency string,
	pollAttempts int,
	pollDelay time.Duration,
) *InvoiceOrchestrator {
	return &InvoiceOrchestrator{
		orders:            orders,
		gateway:           gateway,
		publisher:         publisher,
		defaultTemplateID: defaultTemplateID,
		currency:          currency,
		pollAttempts:      pollAttempts,
		pollDelay:         pollDelay,
		logger:            util.GetLogger(),
	}
}

// CreateInvoiceForBatch creates an invoice for an already-persisted batch.
// A batch with zero visible lines is terminal: ErrBatchNotFound.
func (o *InvoiceOrchestrator) CreateInvoiceForBatch(ctx context.Context, batchID, companyID, templateID string) (*models.InvoiceResult, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceOrchestrator.CreateInvoiceForBatch")
	defer span.End()

	lines, err := o.orders.GetOrderLinesByBatch(ctx, batchID, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up batch: %w", err)
	}
	if len(lines) == 0 {
		util.InvoiceRequestsFailedTotal.WithLabelValues("batch_not_found").Inc()
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, batchID)
	}

	return o.sendInvoice(ctx, batchID, companyID, templateID, lines)
}

// CreateInvoiceForFreshBatch creates an invoice for a batch committed within
// the same request. The order writer's commit and the invoicing side's view
// of those rows are not instantaneously consistent, so the batch is polled
// into visibility first. Exhausting the attempts is a soft failure: the call
// proceeds with whatever is visible and the invoicing service is left to
// validate the batch itself.
func (o *InvoiceOrchestrator) CreateInvoiceForFreshBatch(ctx context.Context, batchID, companyID, templateID string) (*models.InvoiceResult, error) {
	ctx, span := util.StartSpan(ctx, "InvoiceOrchestrator.CreateInvoiceForFreshBatch")
	defer span.End()

	lines, err := o.awaitBatchVisible(ctx, batchID, companyID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		o.logger.Warn("Batch still not visible after polling, proceeding anyway",
			zap.String("batch_id", batchID),
			zap.Int("attempts", o.pollAttempts))
	}

	return o.sendInvoice(ctx, batchID, companyID, templateID, lines)
}

// awaitBatchVisible polls the batch until at least one line is visible or
// the attempt budget runs out. Total added latency is capped at
// attempts * delay.
func (o *InvoiceOrchestrator) awaitBatchVisible(ctx context.Context, batchID, companyID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	var err error

	for attempt := 1; attempt <= o.pollAttempts; attempt++ {
		lines, err = o.orders.GetOrderLinesByBatch(ctx, batchID, companyID)
		if err != nil {
			return nil, fmt.Errorf("failed to poll batch visibility: %w", err)
		}
		if len(lines) > 0 {
			util.InvoiceVisibilityPollAttempts.Observe(float64(attempt))
			return lines, nil
		}
		if attempt == o.pollAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(o.pollDelay):
		}
	}

	util.InvoiceVisibilityPollAttempts.Observe(float64(o.pollAttempts))
	return nil, nil
}

func (o *InvoiceOrchestrator) sendInvoice(ctx context.Context, batchID, companyID, templateID string, lines []models.OrderLine) (*models.InvoiceResult, error) {
	if templateID == "" {
		templateID = o.defaultTemplateID
	}

	req := &InvoiceRequest{
		OrderBatchID: batchID,
		CompanyID:    companyID,
		TemplateID:   templateID,
		Currency:     o.currency,
		Status:       string(models.StatusDraft),
	}
	if len(lines) > 0 {
		req.CustomerID = lines[0].CustomerID
	}

	util.InvoiceRequestsTotal.Inc()
	invoice, err := o.gateway.CreateInvoice(ctx, req)
	if err != nil {
		util.InvoiceRequestsFailedTotal.WithLabelValues("upstream").Inc()
		return nil, err
	}

	o.logger.Info("Invoice created",
		zap.String("invoice_id", invoice.ID),
		zap.String("batch_id", batchID))

	event := &models.InvoiceCreatedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.NewString(),
			EventType: models.EventTypeInvoiceCreated,
			Timestamp: time.Now(),
		},
		InvoiceID: invoice.ID,
		BatchID:   batchID,
		CompanyID: companyID,
	}
	if err := o.publisher.PublishInvoiceCreated(ctx, event); err != nil {
		o.logger.Error("Failed to publish InvoiceCreated event", zap.Error(err))
	}

	return &models.InvoiceResult{
		Invoice: invoice,
		BatchID: batchID,
		Lines:   lines,
	}, nil
}
