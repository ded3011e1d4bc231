package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"crm-order-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetProductByID retrieves a product by ID within a company
func (s *Store) GetProductByID(ctx context.Context, id, companyID string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1 AND company_id = $2", id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs within a company
func (s *Store) GetProductsByIDs(ctx context.Context, companyID string, ids []string) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In("SELECT * FROM products WHERE company_id = ? AND id IN (?)", companyID, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// FindProductByName retrieves a product by exact name (case-insensitive)
// within a company. Returns nil when no such product exists.
func (s *Store) FindProductByName(ctx context.Context, companyID, name string) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		"SELECT * FROM products WHERE company_id = $1 AND lower(name) = lower($2)", companyID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// InsertProduct inserts a product, relying on the unique index on
// (company_id, lower(name)) to absorb concurrent creates. Returns nil when
// another writer got there first; callers re-read by name in that case.
func (s *Store) InsertProduct(ctx context.Context, product *models.Product) (*models.Product, error) {
	query := `
		INSERT INTO products (id, company_id, name, description, sku, unit_price, stock_quantity)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (company_id, lower(name)) DO NOTHING
		RETURNING *`

	var created models.Product
	err := s.db.GetContext(ctx, &created, query,
		product.ID, product.CompanyID, product.Name, product.Description,
		product.SKU, product.UnitPrice, product.StockQuantity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

// GetCustomerByID retrieves a customer within a company
func (s *Store) GetCustomerByID(ctx context.Context, id, companyID string) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer,
		"SELECT * FROM customers WHERE id = $1 AND company_id = $2", id, companyID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("customer not found: %s", id)
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}
