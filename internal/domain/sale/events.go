package sale

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventSaleCompleted = "SaleCompleted"
	EventSaleCancelled = "SaleCancelled"
	EventSaleRefunded  = "SaleRefunded"
)

// SaleCompleted is emitted when a cashier finalizes a sale
type SaleCompleted struct {
	SaleID        string          `json:"sale_id"`
	CashierID     string          `json:"cashier_id"`
	CashierName   string          `json:"cashier_name"`
	Lines         []Line          `json:"lines"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	CompletedAt   time.Time       `json:"completed_at"`
}

// SaleCancelled is emitted when a manager voids a sale; stock is returned
type SaleCancelled struct {
	SaleID      string    `json:"sale_id"`
	Reason      string    `json:"reason"`
	ByUserID    string    `json:"by_user_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// SaleRefunded is emitted when the customer is refunded; stock is returned
type SaleRefunded struct {
	SaleID     string    `json:"sale_id"`
	Reason     string    `json:"reason"`
	ByUserID   string    `json:"by_user_id"`
	RefundedAt time.Time `json:"refunded_at"`
}
