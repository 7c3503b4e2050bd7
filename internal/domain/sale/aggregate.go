package sale

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/domain/money"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Sale"

var log = logging.New("sale")

// PaymentMethod is how the customer paid
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "CASH"
	PaymentCard PaymentMethod = "CARD"
	PaymentPix  PaymentMethod = "PIX"
)

// Status of a recorded sale
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
	StatusRefunded  Status = "REFUNDED"
)

var (
	ErrSaleNotFound          = errors.New("sale not found")
	ErrEmptySale             = errors.New("sale must have at least one item")
	ErrInvalidQuantity       = errors.New("quantity must be positive")
	ErrInvalidPrice          = errors.New("unit price must not be negative")
	ErrPaymentMethodRequired = errors.New("payment method is required")
	ErrInvalidPaymentMethod  = errors.New("payment method must be one of CASH, CARD, PIX")
	ErrInvalidStatus         = errors.New("invalid sale status transition")
	ErrCashierRequired       = errors.New("cashier is required")
)

var paymentAliases = map[string]PaymentMethod{
	"CASH":     PaymentCash,
	"DINHEIRO": PaymentCash,
	"CARD":     PaymentCard,
	"CARTAO":   PaymentCard,
	"CARTÃO":   PaymentCard,
	"PIX":      PaymentPix,
}

// ParsePaymentMethod accepts the canonical names and the pt-BR ones used at the counter.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", ErrPaymentMethodRequired
	}
	if m, ok := paymentAliases[s]; ok {
		return m, nil
	}
	return "", ErrInvalidPaymentMethod
}

// ParseStatus accepts COMPLETED, CANCELLED or REFUNDED in any case.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusCompleted, StatusCancelled, StatusRefunded:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidStatus, s)
}

// Line is one product in a sale, priced at the moment of sale
type Line struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

func (l Line) Total() decimal.Decimal {
	return money.LineTotal(l.UnitPrice, l.Quantity)
}

type Sale struct {
	ID            string          `json:"id"`
	CashierID     string          `json:"cashier_id"`
	CashierName   string          `json:"cashier_name"`
	Lines         []Line          `json:"lines"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Version       int             `json:"version"`
}

func (s *Sale) GetID() string    { return s.ID }
func (s *Sale) GetVersion() int  { return s.Version }
func (s *Sale) SetVersion(v int) { s.Version = v }

// CanTransitionTo reports whether the sale may move to target. Only completed sales change.
func (s *Sale) CanTransitionTo(target Status) bool {
	return s.Status == StatusCompleted && (target == StatusCancelled || target == StatusRefunded)
}

func (s *Sale) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventSaleCompleted:
		var data SaleCompleted
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		s.ID = data.SaleID
		s.CashierID = data.CashierID
		s.CashierName = data.CashierName
		s.Lines = data.Lines
		s.PaymentMethod = data.PaymentMethod
		s.TotalAmount = data.TotalAmount
		s.Status = StatusCompleted
		s.CreatedAt = data.CompletedAt
		s.UpdatedAt = data.CompletedAt
	case EventSaleCancelled:
		var data SaleCancelled
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		s.Status = StatusCancelled
		s.UpdatedAt = data.CancelledAt
	case EventSaleRefunded:
		var data SaleRefunded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		s.Status = StatusRefunded
		s.UpdatedAt = data.RefundedAt
	}
	s.Version = event.Version
	return nil
}

// Total sums the line totals
func Total(lines []Line) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

// ValidateLines checks the lines of a sale before anything is recorded.
func ValidateLines(lines []Line) error {
	if len(lines) == 0 {
		return ErrEmptySale
	}
	for _, l := range lines {
		if l.Quantity <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidQuantity, l.ProductID)
		}
		if l.UnitPrice.IsNegative() {
			return fmt.Errorf("%w: %s", ErrInvalidPrice, l.ProductID)
		}
	}
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Load(ctx context.Context, saleID string) (*Sale, error) {
	sale, found, err := aggregate.LoadAggregate(ctx, s.eventStore, saleID, func() *Sale {
		return &Sale{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSaleNotFound
	}
	return sale, nil
}

// Complete records a finished sale. The total is always computed from the lines.
func (s *Service) Complete(ctx context.Context, cashierID, cashierName string, lines []Line, method PaymentMethod) (*Sale, error) {
	if cashierID == "" {
		return nil, ErrCashierRequired
	}
	if err := ValidateLines(lines); err != nil {
		return nil, err
	}
	if _, err := ParsePaymentMethod(string(method)); err != nil {
		return nil, err
	}

	saleID := uuid.New().String()
	now := time.Now()
	total := Total(lines)

	event := SaleCompleted{
		SaleID:        saleID,
		CashierID:     cashierID,
		CashierName:   cashierName,
		Lines:         lines,
		PaymentMethod: method,
		TotalAmount:   total,
		CompletedAt:   now,
	}

	storedEvent, err := s.eventStore.Append(ctx, saleID, AggregateType, EventSaleCompleted, event)
	if err != nil {
		return nil, err
	}

	return &Sale{
		ID:            saleID,
		CashierID:     cashierID,
		CashierName:   cashierName,
		Lines:         lines,
		PaymentMethod: method,
		TotalAmount:   total,
		Status:        StatusCompleted,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       storedEvent.Version,
	}, nil
}

// ChangeStatus cancels or refunds a completed sale and returns the sale as it was before.
func (s *Service) ChangeStatus(ctx context.Context, saleID string, target Status, reason, byUserID string) (*Sale, error) {
	sale, err := s.Load(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if !sale.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidStatus, sale.Status, target)
	}

	now := time.Now()
	var (
		eventType string
		event     any
	)
	switch target {
	case StatusCancelled:
		eventType, event = EventSaleCancelled, SaleCancelled{SaleID: saleID, Reason: reason, ByUserID: byUserID, CancelledAt: now}
	case StatusRefunded:
		eventType, event = EventSaleRefunded, SaleRefunded{SaleID: saleID, Reason: reason, ByUserID: byUserID, RefundedAt: now}
	}

	storedEvent, err := s.eventStore.AppendExpected(ctx, saleID, AggregateType, eventType, sale.Version, event)
	if err != nil {
		return nil, err
	}

	updated := *sale
	updated.Status = target
	updated.UpdatedAt = now
	updated.Version = storedEvent.Version
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, &updated, AggregateType); err != nil {
		log.WithError(err).WithField("sale_id", saleID).Warn("snapshot failed")
	}

	return sale, nil
}
