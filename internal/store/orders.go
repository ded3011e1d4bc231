package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"crm-order-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// LineSpec describes one line to insert. Prices are already resolved; the
// store only persists what it is given.
type LineSpec struct {
	ProductName string
	Quantity    int
	UnitPrice   int64
	TotalPrice  int64
}

// CreateOrderLines assigns a batch and inserts every line in one transaction.
// Batch assignment consults the open_batches index under FOR UPDATE, falls
// back to the customer's most recent draft line for rows predating the index,
// and mints a fresh UUID otherwise. The index row is upserted in the same
// transaction, so a partial commit can never leave a dangling open batch.
func (s *Store) CreateOrderLines(ctx context.Context, companyID, customerID string, specs []LineSpec) ([]models.OrderLine, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	batchID, err := assignBatchTx(ctx, tx, companyID, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to assign batch: %w", err)
	}

	lines := make([]models.OrderLine, 0, len(specs))
	for _, spec := range specs {
		var line models.OrderLine
		err := tx.GetContext(ctx, &line, `
			INSERT INTO order_lines (id, batch_id, customer_id, company_id, product_name, quantity, unit_price, total_price, status)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *`,
			uuid.NewString(), batchID, customerID, companyID,
			spec.ProductName, spec.Quantity, spec.UnitPrice, spec.TotalPrice, models.StatusDraft)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order line: %w", err)
		}
		lines = append(lines, line)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO open_batches (company_id, customer_id, batch_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id, customer_id) DO UPDATE SET batch_id = EXCLUDED.batch_id`,
		companyID, customerID, batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert open batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return lines, nil
}

// assignBatchTx returns the customer's open draft batch or mints a new id.
// Runs inside the caller's transaction so concurrent writers for the same
// customer serialize on the open_batches row.
func assignBatchTx(ctx context.Context, tx *sqlx.Tx, companyID, customerID string) (string, error) {
	var batchID string
	err := tx.GetContext(ctx, &batchID,
		"SELECT batch_id FROM open_batches WHERE company_id = $1 AND customer_id = $2 FOR UPDATE",
		companyID, customerID)
	if err == nil {
		return batchID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	// Rows written before the open_batches index existed.
	err = tx.GetContext(ctx, &batchID, `
		SELECT batch_id FROM order_lines
		WHERE company_id = $1 AND customer_id = $2 AND status = $3
		ORDER BY created_at DESC LIMIT 1`,
		companyID, customerID, models.StatusDraft)
	if err == nil {
		return batchID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	return uuid.NewString(), nil
}

// GetOrderLinesByBatch retrieves all lines in a batch, insertion order.
func (s *Store) GetOrderLinesByBatch(ctx context.Context, batchID, companyID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE batch_id = $1 AND company_id = $2 ORDER BY created_at",
		batchID, companyID)
	return lines, err
}

// ListOrderLines retrieves every line for a company.
func (s *Store) ListOrderLines(ctx context.Context, companyID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM order_lines WHERE company_id = $1 ORDER BY created_at", companyID)
	return lines, err
}

// DeleteBatch removes every line in a batch and its open-batch index entry.
// Returns the number of lines deleted.
func (s *Store) DeleteBatch(ctx context.Context, batchID, companyID string) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM order_lines WHERE batch_id = $1 AND company_id = $2", batchID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete order lines: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM open_batches WHERE batch_id = $1 AND company_id = $2", batchID, companyID); err != nil {
		return 0, fmt.Errorf("failed to delete open batch entry: %w", err)
	}

	deleted, _ := res.RowsAffected()
	return deleted, tx.Commit()
}

// UpdateBatchStatus sets the status of every line in a batch. When the batch
// leaves draft its open-batch entry is removed in the same transaction, so
// the batch id can never be reused for new lines.
func (s *Store) UpdateBatchStatus(ctx context.Context, batchID, companyID string, status models.Status) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"UPDATE order_lines SET status = $1, updated_at = NOW() WHERE batch_id = $2 AND company_id = $3",
		status, batchID, companyID)
	if err != nil {
		return 0, fmt.Errorf("failed to update batch status: %w", err)
	}

	if status != models.StatusDraft {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM open_batches WHERE batch_id = $1 AND company_id = $2", batchID, companyID); err != nil {
			return 0, fmt.Errorf("failed to close open batch: %w", err)
		}
	}

	updated, _ := res.RowsAffected()
	return updated, tx.Commit()
}
