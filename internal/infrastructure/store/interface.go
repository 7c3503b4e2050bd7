package store

import (
	"context"
	"errors"
)

var (
	// ErrVersionConflict means another writer appended to the aggregate first.
	ErrVersionConflict = errors.New("aggregate was modified concurrently")
)

// EventStoreInterface defines the interface for event stores
type EventStoreInterface interface {
	Append(ctx context.Context, aggregateID, aggregateType, eventType string, data any) (*Event, error)

	// AppendExpected appends only if the aggregate is still at expectedVersion.
	AppendExpected(ctx context.Context, aggregateID, aggregateType, eventType string, expectedVersion int, data any) (*Event, error)

	GetEvents(aggregateID string) []Event
	GetEventsFromVersion(ctx context.Context, aggregateID string, version int) []Event
	GetAllEvents() []Event

	GetSnapshot(ctx context.Context, aggregateID string) (*Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *Snapshot) error
}

// Publisher receives every event after it has been stored.
type Publisher interface {
	Publish(ctx context.Context, key string, event any) error
}
