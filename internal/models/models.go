package models

import "time"

// Product represents a catalog product owned by a company.
// Name is unique per company (case-insensitive).
type Product struct {
	ID            string    `db:"id" json:"id"`
	CompanyID     string    `db:"company_id" json:"company_id"`
	Name          string    `db:"name" json:"name"`
	Description   string    `db:"description" json:"description"`
	SKU           string    `db:"sku" json:"sku"`
	UnitPrice     int64     `db:"unit_price" json:"unit_price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// Customer is a CRM customer record. Only read here, for batch enrichment.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	CompanyID string    `db:"company_id" json:"company_id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// OrderLine is one (batch, product) insertion event. Lines sharing a batch_id
// form one customer order. ProductName and UnitPrice are snapshots taken at
// insertion time; TotalPrice is computed at write time and never re-derived.
type OrderLine struct {
	ID          string    `db:"id" json:"id"`
	BatchID     string    `db:"batch_id" json:"batch_id"`
	CustomerID  string    `db:"customer_id" json:"customer_id"`
	CompanyID   string    `db:"company_id" json:"company_id"`
	ProductName string    `db:"product_name" json:"product_name"`
	Quantity    int       `db:"quantity" json:"quantity"`
	UnitPrice   int64     `db:"unit_price" json:"unit_price"`
	TotalPrice  int64     `db:"total_price" json:"total_price"`
	Status      Status    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	// Enrichment, populated by the batch reader. ProductDetails stays null
	// when the product lookup fails or the product has since been renamed.
	CustomerDetails *Customer `db:"-" json:"customer_details,omitempty"`
	ProductDetails  *Product  `db:"-" json:"product_details"`
}

// MergedLine is the aggregated per-product view of a batch.
type MergedLine struct {
	ProductName   string `json:"product_name"`
	TotalQuantity int    `json:"total_quantity"`
	UnitPrice     int64  `json:"unit_price"`
	TotalPrice    int64  `json:"total_price"`
}

// Invoice mirrors the invoicing service's record. The invoicing service owns
// these rows; we correlate them to a batch by OrderBatchID only.
type Invoice struct {
	ID           string `json:"id"`
	OrderBatchID string `json:"orderBatchId"`
	CustomerID   string `json:"customerId,omitempty"`
	CompanyID    string `json:"companyId"`
	TemplateID   string `json:"templateId"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// InvoiceResult is the orchestrator's response: the upstream invoice plus the
// batch and lines that composed it, so callers need not re-fetch.
type InvoiceResult struct {
	Invoice *Invoice    `json:"invoice"`
	BatchID string      `json:"batch_id"`
	Lines   []OrderLine `json:"lines"`
}
