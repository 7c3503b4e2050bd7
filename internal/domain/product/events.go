package product

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventProductCreated     = "ProductCreated"
	EventProductUpdated     = "ProductUpdated"
	EventProductDeactivated = "ProductDeactivated"
	EventProductActivated   = "ProductActivated"
)

type ProductCreated struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	MinStock    int             `json:"min_stock"`
	Location    string          `json:"location,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ProductUpdated carries the full set of editable fields
type ProductUpdated struct {
	ProductID   string          `json:"product_id"`
	SKU         string          `json:"sku"`
	Barcode     string          `json:"barcode,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	SupplierID  string          `json:"supplier_id,omitempty"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	SalePrice   decimal.Decimal `json:"sale_price"`
	MinStock    int             `json:"min_stock"`
	Location    string          `json:"location,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type ProductDeactivated struct {
	ProductID     string    `json:"product_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

type ProductActivated struct {
	ProductID   string    `json:"product_id"`
	ActivatedAt time.Time `json:"activated_at"`
}
