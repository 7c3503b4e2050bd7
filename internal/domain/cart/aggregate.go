package cart

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
)

const AggregateType = "Cart"

var log = logging.New("cart")

var (
	ErrInvalidProduct  = errors.New("product_id is required")
	ErrProductNotFound = errors.New("product is not in the cart")
)

// PosCart is the event-sourced cart of one cashier
type PosCart struct {
	ID        string    `json:"id"`
	CashierID string    `json:"cashier_id"`
	Cart      Cart      `json:"cart"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func (c *PosCart) GetID() string    { return c.ID }
func (c *PosCart) GetVersion() int  { return c.Version }
func (c *PosCart) SetVersion(v int) { c.Version = v }

func (c *PosCart) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductAdded:
		var data ProductAdded
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID, c.CashierID = data.CartID, data.CashierID
		c.Cart.AddProduct(Item{ProductID: data.ProductID, Name: data.Name, UnitPrice: data.UnitPrice})
		c.UpdatedAt = data.AddedAt
	case EventQuantitySet:
		var data QuantitySet
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID, c.CashierID = data.CartID, data.CashierID
		c.Cart.SetQuantity(data.ProductID, data.Quantity)
		c.UpdatedAt = data.SetAt
	case EventProductRemoved:
		var data ProductRemoved
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID, c.CashierID = data.CartID, data.CashierID
		c.Cart.RemoveProduct(data.ProductID)
		c.UpdatedAt = data.RemovedAt
	case EventCartCleared:
		var data CartCleared
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		c.ID, c.CashierID = data.CartID, data.CashierID
		c.Cart.Clear()
		c.UpdatedAt = data.ClearedAt
	}
	c.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// GetCartID returns the cart ID for a cashier
func GetCartID(cashierID string) string {
	return "cart-" + cashierID
}

// Load returns the cashier's cart. A cashier with no history gets an empty cart.
func (s *Service) Load(ctx context.Context, cashierID string) (*PosCart, error) {
	cartID := GetCartID(cashierID)
	c, _, err := aggregate.LoadAggregate(ctx, s.eventStore, cartID, func() *PosCart {
		return &PosCart{ID: cartID, CashierID: cashierID}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AddProduct adds one unit of item to the cashier's cart.
func (s *Service) AddProduct(ctx context.Context, cashierID string, item Item) (*PosCart, error) {
	if item.ProductID == "" {
		return nil, ErrInvalidProduct
	}
	cartID := GetCartID(cashierID)
	return s.apply(ctx, cashierID, EventProductAdded, ProductAdded{
		CartID:    cartID,
		CashierID: cashierID,
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		AddedAt:   time.Now(),
	}, nil)
}

// SetQuantity changes a line's quantity; zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, cashierID, productID string, quantity int) (*PosCart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	return s.apply(ctx, cashierID, EventQuantitySet, QuantitySet{
		CartID:    GetCartID(cashierID),
		CashierID: cashierID,
		ProductID: productID,
		Quantity:  quantity,
		SetAt:     time.Now(),
	}, func(c *PosCart) error {
		if c.Cart.Quantity(productID) == 0 {
			return ErrProductNotFound
		}
		return nil
	})
}

// RemoveProduct drops a line. Removing a product that is not in the cart does nothing.
func (s *Service) RemoveProduct(ctx context.Context, cashierID, productID string) (*PosCart, error) {
	if productID == "" {
		return nil, ErrInvalidProduct
	}
	current, err := s.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if current.Cart.Quantity(productID) == 0 {
		return current, nil
	}
	return s.apply(ctx, cashierID, EventProductRemoved, ProductRemoved{
		CartID:    GetCartID(cashierID),
		CashierID: cashierID,
		ProductID: productID,
		RemovedAt: time.Now(),
	}, nil)
}

func (s *Service) Clear(ctx context.Context, cashierID string) error {
	_, err := s.apply(ctx, cashierID, EventCartCleared, CartCleared{
		CartID:    GetCartID(cashierID),
		CashierID: cashierID,
		ClearedAt: time.Now(),
	}, nil)
	return err
}

// apply loads the cart, runs check, appends the event at the loaded version and returns the folded result.
func (s *Service) apply(ctx context.Context, cashierID, eventType string, event any, check func(*PosCart) error) (*PosCart, error) {
	c, err := s.Load(ctx, cashierID)
	if err != nil {
		return nil, err
	}
	if check != nil {
		if err := check(c); err != nil {
			return nil, err
		}
	}

	storedEvent, err := s.eventStore.AppendExpected(ctx, c.ID, AggregateType, eventType, c.Version, event)
	if err != nil {
		return nil, err
	}
	if err := c.ApplyEvent(*storedEvent); err != nil {
		return nil, err
	}

	if err := aggregate.MaybeCreateSnapshot(ctx, s.eventStore, c, AggregateType); err != nil {
		log.WithError(err).WithField("cart_id", c.ID).Warn("snapshot failed")
	}
	return c, nil
}
