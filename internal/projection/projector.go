// Package projection folds domain events into the read models served by the query side.
// Every handler tolerates redelivery: creations never overwrite an existing document and
// stock and cart changes are guarded by the aggregate version.
package projection

import (
	"context"
	"encoding/json"

	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/sirupsen/logrus"
)

type Projector struct {
	readStore store.ReadStoreInterface
	log       *logrus.Entry
}

func NewProjector(readStore store.ReadStoreInterface) *Projector {
	return &Projector{readStore: readStore, log: logging.New("projector")}
}

// HandleEvent is the kafka.MessageHandler entry point
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}
	return p.Apply(ctx, event)
}

// Apply folds a single event into the read models
func (p *Projector) Apply(_ context.Context, event store.Event) error {
	p.log.WithFields(logrus.Fields{
		"event_type":   event.EventType,
		"aggregate":    event.AggregateType,
		"aggregate_id": event.AggregateID,
		"version":      event.Version,
	}).Debug("projecting event")

	switch event.AggregateType {
	case string(lookup.Category), string(lookup.Department):
		return p.handleLookupEvent(lookup.Kind(event.AggregateType), event)
	case supplier.AggregateType:
		return p.handleSupplierEvent(event)
	case product.AggregateType:
		return p.handleProductEvent(event)
	case inventory.AggregateType:
		return p.handleInventoryEvent(event)
	case cart.AggregateType:
		return p.handleCartEvent(event)
	case sale.AggregateType:
		return p.handleSaleEvent(event)
	case user.AggregateType:
		return p.handleUserEvent(event)
	}

	return nil
}

// Replay applies events in order, stopping at the first failure.
func (p *Projector) Replay(ctx context.Context, events []store.Event) error {
	for _, event := range events {
		if err := p.Apply(ctx, event); err != nil {
			return err
		}
	}
	p.log.WithField("events", len(events)).Info("replay finished")
	return nil
}

// setIfAbsent stores doc unless the id is already projected
func (p *Projector) setIfAbsent(collection, id string, doc any) bool {
	if _, ok := p.readStore.Get(collection, id); ok {
		return false
	}
	p.readStore.Set(collection, id, doc)
	return true
}

// SyncPublisher projects events in-process as they are appended, for
// single-binary deployments without Kafka.
type SyncPublisher struct {
	projector *Projector
}

func NewSyncPublisher(projector *Projector) *SyncPublisher {
	return &SyncPublisher{projector: projector}
}

func (s *SyncPublisher) Publish(ctx context.Context, _ string, event any) error {
	switch e := event.(type) {
	case store.Event:
		return s.projector.Apply(ctx, e)
	case *store.Event:
		return s.projector.Apply(ctx, *e)
	}

	raw, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.projector.HandleEvent(ctx, nil, raw)
}
