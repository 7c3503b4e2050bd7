package cart

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventProductAdded   = "CartProductAdded"
	EventQuantitySet    = "CartQuantitySet"
	EventProductRemoved = "CartProductRemoved"
	EventCartCleared    = "CartCleared"
)

type ProductAdded struct {
	CartID    string          `json:"cart_id"`
	CashierID string          `json:"cashier_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	AddedAt   time.Time       `json:"added_at"`
}

type QuantitySet struct {
	CartID    string    `json:"cart_id"`
	CashierID string    `json:"cashier_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	SetAt     time.Time `json:"set_at"`
}

type ProductRemoved struct {
	CartID    string    `json:"cart_id"`
	CashierID string    `json:"cashier_id"`
	ProductID string    `json:"product_id"`
	RemovedAt time.Time `json:"removed_at"`
}

type CartCleared struct {
	CartID    string    `json:"cart_id"`
	CashierID string    `json:"cashier_id"`
	ClearedAt time.Time `json:"cleared_at"`
}
