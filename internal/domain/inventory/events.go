package inventory

import (
	"time"

	"github.com/shopspring/decimal"
)

const EventStockMoved = "StockMoved"

// StockMoved records one change to a product's stock. QuantityAfter is the stock once applied.
type StockMoved struct {
	MovementID    string          `json:"movement_id"`
	ProductID     string          `json:"product_id"`
	Type          MovementType    `json:"type"`
	Quantity      int             `json:"quantity"`
	Delta         int             `json:"delta"`
	QuantityAfter int             `json:"quantity_after"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	DepartmentID  string          `json:"department_id,omitempty"`
	SupplierID    string          `json:"supplier_id,omitempty"`
	SaleID        string          `json:"sale_id,omitempty"`
	Reason        string          `json:"reason,omitempty"`
	UserID        string          `json:"user_id"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
