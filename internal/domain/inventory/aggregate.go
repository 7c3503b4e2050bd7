package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Inventory"

var log = logging.New("inventory")

// MovementType says where stock came from or went to
type MovementType string

const (
	MovementPurchase     MovementType = "PURCHASE"
	MovementRequisition  MovementType = "REQUISITION"
	MovementReturn       MovementType = "RETURN"
	MovementAdjustment   MovementType = "ADJUSTMENT"
	MovementSale         MovementType = "SALE"
	MovementSaleReversal MovementType = "SALE_REVERSAL"
)

var (
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("quantity must be positive")
	ErrZeroAdjustment      = errors.New("adjustment quantity must not be zero")
	ErrInvalidMovementType = errors.New("invalid movement type")
	ErrSupplierRequired    = errors.New("supplier is required for purchases")
	ErrDepartmentRequired  = errors.New("department is required for requisitions and returns")
	ErrReasonRequired      = errors.New("reason is required for adjustments")
	ErrSaleRequired        = errors.New("sale is required for sale movements")
	ErrProductRequired     = errors.New("product_id is required")
	ErrNegativeUnitCost    = errors.New("unit cost must not be negative")
)

// ParseMovementType accepts any case
func ParseMovementType(s string) (MovementType, error) {
	switch t := MovementType(strings.ToUpper(strings.TrimSpace(s))); t {
	case MovementPurchase, MovementRequisition, MovementReturn, MovementAdjustment, MovementSale, MovementSaleReversal:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMovementType, s)
}

// IsOutflow reports whether the type takes stock out for a positive quantity
func (t MovementType) IsOutflow() bool {
	return t == MovementRequisition || t == MovementSale
}

// Movement is a request to move stock of one product
type Movement struct {
	ProductID    string
	Type         MovementType
	Quantity     int
	UnitCost     decimal.Decimal
	DepartmentID string
	SupplierID   string
	SaleID       string
	Reason       string
	UserID       string
}

// Validate checks the fields each movement type needs
func (m Movement) Validate() error {
	if m.ProductID == "" {
		return ErrProductRequired
	}
	if m.UnitCost.IsNegative() {
		return ErrNegativeUnitCost
	}
	switch m.Type {
	case MovementAdjustment:
		if m.Quantity == 0 {
			return ErrZeroAdjustment
		}
		if strings.TrimSpace(m.Reason) == "" {
			return ErrReasonRequired
		}
		return nil
	case MovementPurchase, MovementRequisition, MovementReturn, MovementSale, MovementSaleReversal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMovementType, m.Type)
	}

	if m.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	switch m.Type {
	case MovementPurchase:
		if m.SupplierID == "" {
			return ErrSupplierRequired
		}
	case MovementRequisition, MovementReturn:
		if m.DepartmentID == "" {
			return ErrDepartmentRequired
		}
	case MovementSale, MovementSaleReversal:
		if m.SaleID == "" {
			return ErrSaleRequired
		}
	}
	return nil
}

// Delta is the signed change the movement makes to stock
func (m Movement) Delta() int {
	if m.Type == MovementAdjustment {
		return m.Quantity
	}
	if m.Type.IsOutflow() {
		return -m.Quantity
	}
	return m.Quantity
}

type Inventory struct {
	ProductID       string    `json:"product_id"`
	QuantityInStock int       `json:"quantity_in_stock"`
	LastMovedAt     time.Time `json:"last_moved_at"`
	Version         int       `json:"version"`
}

func (i *Inventory) GetID() string    { return GetStreamID(i.ProductID) }
func (i *Inventory) GetVersion() int  { return i.Version }
func (i *Inventory) SetVersion(v int) { i.Version = v }

func (i *Inventory) ApplyEvent(event store.Event) error {
	if event.EventType == EventStockMoved {
		var data StockMoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		i.ProductID = data.ProductID
		i.QuantityInStock = data.QuantityAfter
		i.LastMovedAt = data.OccurredAt
	}
	i.Version = event.Version
	return nil
}

// GetStreamID returns the event stream holding a product's stock. It is kept
// apart from the product's own stream so the two never share versions or snapshots.
func GetStreamID(productID string) string {
	return "inventory-" + productID
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Load returns the stock of a product. Products that never moved have zero stock.
func (s *Service) Load(ctx context.Context, productID string) (*Inventory, error) {
	inv, _, err := aggregate.LoadAggregate(ctx, s.eventStore, GetStreamID(productID), func() *Inventory {
		return &Inventory{ProductID: productID}
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// Move validates and records a movement. Outflows beyond current stock fail with
// ErrInsufficientStock and nothing is recorded; a concurrent movement on the same
// product fails with store.ErrVersionConflict.
func (s *Service) Move(ctx context.Context, m Movement) (*StockMoved, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	inv, err := s.Load(ctx, m.ProductID)
	if err != nil {
		return nil, err
	}

	delta := m.Delta()
	after := inv.QuantityInStock + delta
	if after < 0 {
		return nil, fmt.Errorf("%w: product %s has %d, requested %d",
			ErrInsufficientStock, m.ProductID, inv.QuantityInStock, -delta)
	}

	quantity := m.Quantity
	if quantity < 0 {
		quantity = -quantity
	}
	event := StockMoved{
		MovementID:    uuid.New().String(),
		ProductID:     m.ProductID,
		Type:          m.Type,
		Quantity:      quantity,
		Delta:         delta,
		QuantityAfter: after,
		UnitCost:      m.UnitCost,
		DepartmentID:  m.DepartmentID,
		SupplierID:    m.SupplierID,
		SaleID:        m.SaleID,
		Reason:        strings.TrimSpace(m.Reason),
		UserID:        m.UserID,
		OccurredAt:    time.Now(),
	}

	storedEvent, err := s.eventStore.AppendExpected(ctx, GetStreamID(m.ProductID), AggregateType, EventStockMoved, inv.Version, event)
	if err != nil {
		return nil, err
	}

	inv.QuantityInStock = after
	inv.LastMovedAt = event.OccurredAt
	inv.Version = storedEvent.Version
	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, inv, AggregateType); err != nil {
		log.WithError(err).WithField("product_id", m.ProductID).Warn("snapshot failed")
	}

	return &event, nil
}

// MoveWithRetry re-reads the stock and runs Move again when another writer appended
// to the same stream first. Any other error, including insufficient stock, is
// returned at once.
func (s *Service) MoveWithRetry(ctx context.Context, m Movement, attempts int) (*StockMoved, error) {
	var err error
	for range max(attempts, 1) {
		var moved *StockMoved
		moved, err = s.Move(ctx, m)
		if !errors.Is(err, store.ErrVersionConflict) {
			return moved, err
		}
		log.WithField("product_id", m.ProductID).Debug("version conflict, retrying movement")
	}
	return nil, err
}
