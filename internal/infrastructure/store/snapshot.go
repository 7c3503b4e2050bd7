package store

import (
	"encoding/json"
	"time"
)

// SnapshotThreshold is the number of events between aggregate snapshots
const SnapshotThreshold = 10

// Snapshot represents a point-in-time state of an aggregate
type Snapshot struct {
	AggregateID   string          `json:"aggregate_id"`
	AggregateType string          `json:"aggregate_type"`
	Version       int             `json:"version"` // event version the state includes
	State         json.RawMessage `json:"state"`
	CreatedAt     time.Time       `json:"created_at"`
}
