package readmodel

import (
	"time"

	"github.com/shopspring/decimal"
)

// Collection names shared by the projector, the query side and the stores.
const (
	CollectionCategories  = "categories"
	CollectionDepartments = "departments"
	CollectionSuppliers   = "suppliers"
	CollectionProducts    = "products"
	CollectionMovements   = "stock_movements"
	CollectionCarts       = "carts"
	CollectionSales       = "sales"
	CollectionUsers       = "users"
)

// LookupReadModel is the read model for categories and departments
type LookupReadModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SupplierReadModel is the read model for suppliers
type SupplierReadModel struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	CNPJ        string    `json:"cnpj"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ProductReadModel is the read model for products
type ProductReadModel struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Barcode         string          `json:"barcode,omitempty"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	CategoryID      string          `json:"category_id"`
	CategoryName    string          `json:"category_name"`
	SupplierID      string          `json:"supplier_id,omitempty"`
	SupplierName    string          `json:"supplier_name,omitempty"`
	CostPrice       decimal.Decimal `json:"cost_price"`
	SalePrice       decimal.Decimal `json:"sale_price"`
	MinStock        int             `json:"min_stock"`
	Location        string          `json:"location,omitempty"`
	QuantityInStock int             `json:"quantity_in_stock"`
	StockVersion    int             `json:"stock_version"`
	Active          bool            `json:"active"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// IsLowStock reports whether the product is below its minimum stock
func (p *ProductReadModel) IsLowStock() bool {
	return p.QuantityInStock < p.MinStock
}

// StockValue is quantity times cost price
func (p *ProductReadModel) StockValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.QuantityInStock)))
}

// MovementReadModel is one stock movement in the history
type MovementReadModel struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	ProductSKU     string          `json:"product_sku"`
	Type           string          `json:"type"`
	Quantity       int             `json:"quantity"`
	Delta          int             `json:"delta"`
	QuantityAfter  int             `json:"quantity_after"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	DepartmentID   string          `json:"department_id,omitempty"`
	DepartmentName string          `json:"department_name,omitempty"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	SupplierName   string          `json:"supplier_name,omitempty"`
	SaleID         string          `json:"sale_id,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	UserID         string          `json:"user_id"`
	OccurredAt     time.Time       `json:"occurred_at"`
}

// CartLineReadModel represents a line in a POS cart
type CartLineReadModel struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartReadModel is the read model for a cashier's POS cart
type CartReadModel struct {
	ID        string              `json:"id"`
	CashierID string              `json:"cashier_id"`
	Lines     []CartLineReadModel `json:"lines"`
	Total     decimal.Decimal     `json:"total"`
	Version   int                 `json:"version"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// SaleLineReadModel represents an item in a sale
type SaleLineReadModel struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	PriceAtSale decimal.Decimal `json:"price_at_sale"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

// SaleReadModel is the read model for sales
type SaleReadModel struct {
	ID            string              `json:"id"`
	CashierID     string              `json:"cashier_id"`
	CashierName   string              `json:"cashier_name"`
	Lines         []SaleLineReadModel `json:"lines"`
	PaymentMethod string              `json:"payment_method"`
	TotalAmount   decimal.Decimal     `json:"total_amount"`
	Status        string              `json:"status"`
	StatusReason  string              `json:"status_reason,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// UserReadModel is the read model for users
type UserReadModel struct {
	ID           string     `json:"id"`
	Login        string     `json:"login"`
	Email        string     `json:"email,omitempty"`
	PasswordHash string     `json:"password_hash"`
	Name         string     `json:"name"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// New returns an empty model for a collection, used when decoding stored documents.
func New(collection string) (any, bool) {
	switch collection {
	case CollectionCategories, CollectionDepartments:
		return &LookupReadModel{}, true
	case CollectionSuppliers:
		return &SupplierReadModel{}, true
	case CollectionProducts:
		return &ProductReadModel{}, true
	case CollectionMovements:
		return &MovementReadModel{}, true
	case CollectionCarts:
		return &CartReadModel{}, true
	case CollectionSales:
		return &SaleReadModel{}, true
	case CollectionUsers:
		return &UserReadModel{}, true
	}
	return nil, false
}
