package command

import (
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/shopspring/decimal"
)

// Category and department commands
type SaveLookup struct {
	Kind        lookup.Kind `json:"-"`
	ID          string      `json:"-"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
}

// Supplier commands
type SaveSupplier struct {
	ID string `json:"-"`
	supplier.Contact
}

// Product commands
type SaveProduct struct {
	ID string `json:"-"`
	product.Details
}

type DeactivateProduct struct {
	ProductID string `json:"product_id"`
}

// Stock commands
type RecordMovement struct {
	ProductID    string          `json:"product_id"`
	Type         string          `json:"type"`
	Quantity     int             `json:"quantity"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	DepartmentID string          `json:"department_id,omitempty"`
	SupplierID   string          `json:"supplier_id,omitempty"`
	Reason       string          `json:"reason,omitempty"`
	UserID       string          `json:"-"`
}

// POS commands. AddToCart identifies the product either by id or by a scanned barcode/SKU.
type AddToCart struct {
	CashierID string `json:"-"`
	ProductID string `json:"product_id,omitempty"`
	Code      string `json:"code,omitempty"`
}

type SetCartQuantity struct {
	CashierID string `json:"-"`
	ProductID string `json:"-"`
	Quantity  int    `json:"quantity"`
}

type RemoveFromCart struct {
	CashierID string
	ProductID string
}

type Checkout struct {
	CashierID     string `json:"-"`
	PaymentMethod string `json:"payment_method"`
}

// Sale commands. RecordSale submits the lines directly instead of the server cart.
type SaleLineInput struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type RecordSale struct {
	CashierID     string          `json:"-"`
	Lines         []SaleLineInput `json:"lines"`
	PaymentMethod string          `json:"payment_method"`
}

type ChangeSaleStatus struct {
	SaleID   string `json:"-"`
	Status   string `json:"status"`
	Reason   string `json:"reason"`
	ByUserID string `json:"-"`
}

// User commands
type RegisterUser struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Role     string `json:"role"`
}

type UpdateUser struct {
	UserID string `json:"-"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type ChangePassword struct {
	UserID          string `json:"-"`
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
