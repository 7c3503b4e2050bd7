package supplier

import "time"

const (
	EventSupplierCreated     = "SupplierCreated"
	EventSupplierUpdated     = "SupplierUpdated"
	EventSupplierDeactivated = "SupplierDeactivated"
	EventSupplierActivated   = "SupplierActivated"
)

type SupplierCreated struct {
	SupplierID string    `json:"supplier_id"`
	Contact    Contact   `json:"contact"`
	CreatedAt  time.Time `json:"created_at"`
}

type SupplierUpdated struct {
	SupplierID string    `json:"supplier_id"`
	Contact    Contact   `json:"contact"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type SupplierDeactivated struct {
	SupplierID    string    `json:"supplier_id"`
	DeactivatedAt time.Time `json:"deactivated_at"`
}

type SupplierActivated struct {
	SupplierID  string    `json:"supplier_id"`
	ActivatedAt time.Time `json:"activated_at"`
}
