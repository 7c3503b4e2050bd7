package lookup

import "time"

const (
	EventCreated     = "LookupCreated"
	EventUpdated     = "LookupUpdated"
	EventDeactivated = "LookupDeactivated"
	EventActivated   = "LookupActivated"
)

// LookupCreated is emitted when a category or department is created
type LookupCreated struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// LookupUpdated is emitted when name or description change
type LookupUpdated struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LookupDeactivated is the soft delete
type LookupDeactivated struct {
	ID            string    `json:"id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

type LookupActivated struct {
	ID          string    `json:"id"`
	ActivatedAt time.Time `json:"activated_at"`
}
