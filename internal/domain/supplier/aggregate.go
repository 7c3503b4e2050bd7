package supplier

import (
	"context"
	"encoding/json"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "Supplier"

const cnpjDigits = 14

var (
	ErrSupplierNotFound = errors.New("supplier not found")
	ErrInvalidName      = errors.New("name is required")
	ErrInvalidEmail     = errors.New("email is not valid")
	ErrInvalidCNPJ      = errors.New("cnpj must have 14 digits")
	ErrDuplicateCNPJ    = errors.New("cnpj already registered")
	ErrSupplierInactive = errors.New("supplier is inactive")
)

// Contact holds the editable fields of a supplier
type Contact struct {
	Name        string `json:"name"`
	ContactName string `json:"contact_name"`
	CNPJ        string `json:"cnpj"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// NormalizeCNPJ keeps only the digits, so "12.345.678/0001-90" and "12345678000190" compare equal.
func NormalizeCNPJ(cnpj string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, cnpj)
}

// Normalize trims every field and reduces the CNPJ to digits
func (c Contact) Normalize() Contact {
	c.Name = strings.TrimSpace(c.Name)
	c.ContactName = strings.TrimSpace(c.ContactName)
	c.CNPJ = NormalizeCNPJ(c.CNPJ)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	return c
}

// Validate expects a normalized contact. Email and CNPJ are optional.
func (c Contact) Validate() error {
	if c.Name == "" {
		return ErrInvalidName
	}
	if c.Email != "" {
		addr, err := mail.ParseAddress(c.Email)
		if err != nil || addr.Address != c.Email {
			return ErrInvalidEmail
		}
	}
	if c.CNPJ != "" && len(c.CNPJ) != cnpjDigits {
		return ErrInvalidCNPJ
	}
	return nil
}

type Supplier struct {
	ID string `json:"id"`
	Contact
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Version   int       `json:"version"`
}

func (s *Supplier) GetID() string    { return s.ID }
func (s *Supplier) GetVersion() int  { return s.Version }
func (s *Supplier) SetVersion(v int) { s.Version = v }

func (s *Supplier) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventSupplierCreated:
		var data SupplierCreated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		s.ID, s.Contact, s.Active = data.SupplierID, data.Contact, true
		s.CreatedAt, s.UpdatedAt = data.CreatedAt, data.CreatedAt
	case EventSupplierUpdated:
		var data SupplierUpdated
		if err := json.Unmarshal(event.Data, &data); err != nil {
			return err
		}
		s.Contact, s.UpdatedAt = data.Contact, data.UpdatedAt
	case EventSupplierDeactivated:
		s.Active = false
	case EventSupplierActivated:
		s.Active = true
	}
	s.Version = event.Version
	return nil
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

func (s *Service) Load(ctx context.Context, supplierID string) (*Supplier, error) {
	sup, found, err := aggregate.LoadAggregate(ctx, s.eventStore, supplierID, func() *Supplier {
		return &Supplier{}
	})
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrSupplierNotFound
	}
	return sup, nil
}

// Create registers an active supplier. CNPJ uniqueness is checked by the caller.
func (s *Service) Create(ctx context.Context, c Contact) (*Supplier, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	supplierID := uuid.New().String()
	now := time.Now()

	event := SupplierCreated{SupplierID: supplierID, Contact: c, CreatedAt: now}
	storedEvent, err := s.eventStore.Append(ctx, supplierID, AggregateType, EventSupplierCreated, event)
	if err != nil {
		return nil, err
	}

	return &Supplier{
		ID:        supplierID,
		Contact:   c,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
		Version:   storedEvent.Version,
	}, nil
}

func (s *Service) Update(ctx context.Context, supplierID string, c Contact) (*Supplier, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	sup, err := s.Load(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	event := SupplierUpdated{SupplierID: supplierID, Contact: c, UpdatedAt: now}
	storedEvent, err := s.eventStore.AppendExpected(ctx, supplierID, AggregateType, EventSupplierUpdated, sup.Version, event)
	if err != nil {
		return nil, err
	}

	sup.Contact = c
	sup.UpdatedAt = now
	sup.Version = storedEvent.Version
	return sup, nil
}

// Deactivate is the soft delete. Deactivating an inactive supplier is a no-op.
func (s *Service) Deactivate(ctx context.Context, supplierID string) error {
	sup, err := s.Load(ctx, supplierID)
	if err != nil {
		return err
	}
	if !sup.Active {
		return nil
	}
	event := SupplierDeactivated{SupplierID: supplierID, DeactivatedAt: time.Now()}
	_, err = s.eventStore.AppendExpected(ctx, supplierID, AggregateType, EventSupplierDeactivated, sup.Version, event)
	return err
}

func (s *Service) Activate(ctx context.Context, supplierID string) error {
	sup, err := s.Load(ctx, supplierID)
	if err != nil {
		return err
	}
	if sup.Active {
		return nil
	}
	event := SupplierActivated{SupplierID: supplierID, ActivatedAt: time.Now()}
	_, err = s.eventStore.AppendExpected(ctx, supplierID, AggregateType, EventSupplierActivated, sup.Version, event)
	return err
}
