package product

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const AggregateType = "Product"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrSKURequired      = errors.New("sku is required")
	ErrDuplicateSKU     = errors.New("sku already in use")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidSalePrice = errors.New("sale price must be positive")
	ErrInvalidCostPrice = errors.New("cost price must not be negative")
	ErrInvalidMinStock  = errors.New("minimum stock must not be negative")
	ErrCategoryRequired = errors.New("category is required")
	ErrCategoryInactive = errors.New("category is inactive or does not exist")
	ErrSupplierNotFound = errors.New("supplier does not exist")
	ErrHasStock         = errors.New("product still has stock")
	ErrProductInactive  = errors.New("product is inactive")
)

// Details are the editable fields of a product
type Details struct {
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
}

// Normalize trims the free-text fields
func (d Details) Normalize() Details {
	d.SKU = strings.TrimSpace(d.SKU)
	d.Barcode = strings.TrimSpace(d.Barcode)
	d.Name = strings.TrimSpace(d.Name)
	d.Description = strings.TrimSpace(d.Description)
	d.Location = strings.TrimSpace(d.Location)
	return d
}

// Validate checks the rules that need nothing but the fields themselves.
func (d Details) Validate() error {
	switch {
	case d.SKU == "":
		return ErrSKURequired
	case d.Name == "":
		return ErrInvalidName
	case !d.SalePrice.IsPositive():
		return ErrInvalidSalePrice
	case d.CostPrice.IsNegative():
		return ErrInvalidCostPrice
	case d.MinStock < 0:
		return ErrInvalidMinStock
	case d.CategoryID == "":
		return ErrCategoryRequired
	}
	return nil
}

type Product struct {
	ID string `json:"id"`
	Details
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func (p *Product) GetID() string    { return p.ID }
func (p *Product) GetVersion() int  { return p.Version }
func (p *Product) SetVersion(v int) { p.Version = v }

func (p *Product) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventProductCreated:
		var data ProductCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.ID = data.ProductID
		p.Details = Details{
			SKU: data.SKU, Barcode: data.Barcode, Name: data.Name, Description: data.Description,
			CategoryID: data.CategoryID, SupplierID: data.SupplierID,
			CostPrice: data.CostPrice, SalePrice: data.SalePrice,
			MinStock: data.MinStock, Location: data.Location,
		}
		p.Active = true
		p.CreatedAt = data.CreatedAt
		p.UpdatedAt = data.CreatedAt
	case EventProductUpdated:
		var data ProductUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Details = Details{
			SKU: data.SKU, Barcode: data.Barcode, Name: data.Name, Description: data.Description,
			CategoryID: data.CategoryID, SupplierID: data.SupplierID,
			CostPrice: data.CostPrice, SalePrice: data.SalePrice,
			MinStock: data.MinStock, Location: data.Location,
		}
		p.UpdatedAt = data.UpdatedAt
	case EventProductDeactivated:
		var data ProductDeactivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Active = false
		p.UpdatedAt = data.DeactivatedAt
	case EventProductActivated:
		var data ProductActivated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		p.Active = true
		p.UpdatedAt = data.ActivatedAt
	}
	p.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Load(ctx context.Context, productID string) (*Product, error) {
	p, found, err := aggregate.LoadAggregate(ctx, s.eventStore, productID, func() *Product {
		return &Product{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// Create registers a product. New products always start with zero stock;
// stock only enters through movements.
func (s *Service) Create(ctx context.Context, d Details) (*Product, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	productID := uuid.New().String()
	now := time.Now()

	event := ProductCreated{
		ProductID:   productID,
		SKU:         d.SKU,
		Barcode:     d.Barcode,
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.CategoryID,
		SupplierID:  d.SupplierID,
		CostPrice:   d.CostPrice,
		SalePrice:   d.SalePrice,
		MinStock:    d.MinStock,
		Location:    d.Location,
		CreatedAt:   now,
	}

	storedEvent, err := s.eventStore.Append(ctx, productID, AggregateType, EventProductCreated, event)
	if err != nil {
		return nil, err
	}

	return &Product{
		ID:        productID,
		Details:   d,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   storedEvent.Version,
	}, nil
}

func (s *Service) Update(ctx context.Context, productID string, d Details) (*Product, error) {
	d = d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}

	p, err := s.Load(ctx, productID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	event := ProductUpdated{
		ProductID:   productID,
		SKU:         d.SKU,
		Barcode:     d.Barcode,
		Name:        d.Name,
		Description: d.Description,
		CategoryID:  d.CategoryID,
		SupplierID:  d.SupplierID,
		CostPrice:   d.CostPrice,
		SalePrice:   d.SalePrice,
		MinStock:    d.MinStock,
		Location:    d.Location,
		UpdatedAt:   now,
	}

	storedEvent, err := s.eventStore.AppendExpected(ctx, productID, AggregateType, EventProductUpdated, p.Version, event)
	if err != nil {
		return nil, err
	}

	p.Details = d
	p.UpdatedAt = now
	p.Version = storedEvent.Version
	return p, nil
}

// Deactivate hides a product from the catalog. It is refused while any stock remains.
func (s *Service) Deactivate(ctx context.Context, productID string, currentStock int) error {
	p, err := s.Load(ctx, productID)
	if err != nil {
		return err
	}
	if !p.Active {
		return nil
	}
	if currentStock > 0 {
		return ErrHasStock
	}

	event := ProductDeactivated{ProductID: productID, DeactivatedAt: time.Now()}
	_, err = s.eventStore.AppendExpected(ctx, productID, AggregateType, EventProductDeactivated, p.Version, event)
	return err
}

func (s *Service) Activate(ctx context.Context, productID string) error {
	p, err := s.Load(ctx, productID)
	if err != nil {
		return err
	}
	if p.Active {
		return nil
	}

	event := ProductActivated{ProductID: productID, ActivatedAt: time.Now()}
	_, err = s.eventStore.AppendExpected(ctx, productID, AggregateType, EventProductActivated, p.Version, event)
	return err
}
