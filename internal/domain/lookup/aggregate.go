// Package lookup implements the two flat reference lists of the back office,
// categories and departments, which share one lifecycle.
package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/example/retail-pos/internal/domain/aggregate"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/google/uuid"
)

// Kind selects which list a Service manages. It doubles as the aggregate type.
type Kind string

const (
	Category   Kind = "Category"
	Department Kind = "Department"
)

const maxNameLength = 100

var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidName   = errors.New("name is required")
	ErrNameTooLong   = errors.New("name must be at most 100 characters")
	ErrDuplicateName = errors.New("name already in use")
	ErrInactive      = errors.New("is inactive")
)

// Collection is the read-model collection for the kind.
func (k Kind) Collection() string {
	if k == Department {
		return readmodel.CollectionDepartments
	}
	return readmodel.CollectionCategories
}

// Label is the lower-case noun used in messages.
func (k Kind) Label() string {
	return strings.ToLower(string(k))
}

// Lookup is a category or department
type Lookup struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	Version     int       `json:"version"`
}

func (l *Lookup) GetID() string    { return l.ID }
func (l *Lookup) GetVersion() int  { return l.Version }
func (l *Lookup) SetVersion(v int) { l.Version = v }

func (l *Lookup) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventCreated:
		var e LookupCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		l.ID, l.Name, l.Description, l.Active, l.CreatedAt = e.ID, e.Name, e.Description, true, e.CreatedAt
	case EventUpdated:
		var e LookupUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		l.Name, l.Description = e.Name, e.Description
	case EventDeactivated:
		l.Active = false
	case EventActivated:
		l.Active = true
	}
	return nil
}

// Service handles the lifecycle of one kind of lookup
type Service struct {
	kind       Kind
	eventStore store.EventStoreInterface
}

func NewService(kind Kind, es store.EventStoreInterface) *Service {
	return &Service{kind: kind, eventStore: es}
}

func (s *Service) Kind() Kind {
	return s.kind
}

// NormalizeName trims the name and applies the length rules.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrInvalidName
	}
	if len([]rune(name)) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

// Create records a new active entry. Name uniqueness is checked by the caller against the read side.
func (s *Service) Create(ctx context.Context, name, description string) (*Lookup, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	now := time.Now()

	event := LookupCreated{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
	}
	if _, err := s.eventStore.Append(ctx, id, string(s.kind), EventCreated, event); err != nil {
		return nil, err
	}

	return &Lookup{ID: id, Name: name, Description: event.Description, Active: true, CreatedAt: now, Version: 1}, nil
}

func (s *Service) Load(ctx context.Context, id string) (*Lookup, error) {
	l, found, err := aggregate.LoadAggregate(ctx, s.eventStore, id, func() *Lookup { return &Lookup{} })
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *Service) Update(ctx context.Context, id, name, description string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	if _, err := s.Load(ctx, id); err != nil {
		return err
	}

	event := LookupUpdated{
		ID:          id,
		Name:        name,
		Description: strings.TrimSpace(description),
		UpdatedAt:   time.Now(),
	}
	_, err = s.eventStore.Append(ctx, id, string(s.kind), EventUpdated, event)
	return err
}

// Deactivate is the soft delete. Deactivating an inactive entry is a no-op.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	l, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if !l.Active {
		return nil
	}
	_, err = s.eventStore.Append(ctx, id, string(s.kind), EventDeactivated, LookupDeactivated{ID: id, DeactivatedAt: time.Now()})
	return err
}

func (s *Service) Activate(ctx context.Context, id string) error {
	l, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if l.Active {
		return nil
	}
	_, err = s.eventStore.Append(ctx, id, string(s.kind), EventActivated, LookupActivated{ID: id, ActivatedAt: time.Now()})
	return err
}
