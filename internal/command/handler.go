// Package command coordinates writes that span more than one aggregate or need
// read-side checks (uniqueness, existence) before events are appended.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/query"
	"github.com/example/retail-pos/internal/readmodel"
)

// moveAttempts bounds optimistic-concurrency retries on a single product's stock.
const moveAttempts = 3

var log = logging.New("command")

var (
	ErrUnknownKind          = errors.New("unknown list kind")
	ErrDepartmentNotFound   = errors.New("department does not exist or is inactive")
	ErrManualSaleMovement   = errors.New("sale movements are recorded by checkout only")
	ErrCannotDeactivateSelf = errors.New("you cannot deactivate your own account")
)

// Services are the write-side domain services the handler coordinates.
type Services struct {
	Categories  *lookup.Service
	Departments *lookup.Service
	Suppliers   *supplier.Service
	Products    *product.Service
	Inventory   *inventory.Service
	Carts       *cart.Service
	Sales       *sale.Service
	Users       *user.Service
}

type Handler struct {
	lookups      map[lookup.Kind]*lookup.Service
	supplierSvc  *supplier.Service
	productSvc   *product.Service
	inventorySvc *inventory.Service
	cartSvc      *cart.Service
	saleSvc      *sale.Service
	userSvc      *user.Service
	queries      *query.Handler
}

func NewHandler(svc Services, queries *query.Handler) *Handler {
	return &Handler{
		lookups: map[lookup.Kind]*lookup.Service{
			lookup.Category:   svc.Categories,
			lookup.Department: svc.Departments,
		},
		supplierSvc:  svc.Suppliers,
		productSvc:   svc.Products,
		inventorySvc: svc.Inventory,
		cartSvc:      svc.Carts,
		saleSvc:      svc.Sales,
		userSvc:      svc.Users,
		queries:      queries,
	}
}

// ============================================
// Categories and departments
// ============================================

func (h *Handler) lookupService(kind lookup.Kind) (*lookup.Service, error) {
	svc, ok := h.lookups[kind]
	if !ok || svc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return svc, nil
}

// checkLookupName rejects a name already used by another entry of the same kind.
func (h *Handler) checkLookupName(kind lookup.Kind, id, name string) error {
	name, err := lookup.NormalizeName(name)
	if err != nil {
		return err
	}
	if existing, ok := h.queries.FindLookupByName(kind.Collection(), name); ok && existing.ID != id {
		return fmt.Errorf("%s %q: %w", kind.Label(), name, lookup.ErrDuplicateName)
	}
	return nil
}

func (h *Handler) CreateLookup(ctx context.Context, cmd SaveLookup) (*lookup.Lookup, error) {
	svc, err := h.lookupService(cmd.Kind)
	if err != nil {
		return nil, err
	}
	if err := h.checkLookupName(cmd.Kind, "", cmd.Name); err != nil {
		return nil, err
	}
	return svc.Create(ctx, cmd.Name, cmd.Description)
}

func (h *Handler) UpdateLookup(ctx context.Context, cmd SaveLookup) (*lookup.Lookup, error) {
	svc, err := h.lookupService(cmd.Kind)
	if err != nil {
		return nil, err
	}
	if err := h.checkLookupName(cmd.Kind, cmd.ID, cmd.Name); err != nil {
		return nil, err
	}
	if err := svc.Update(ctx, cmd.ID, cmd.Name, cmd.Description); err != nil {
		return nil, err
	}
	return svc.Load(ctx, cmd.ID)
}

// SetLookupActive is the soft delete (active=false) and its undo.
func (h *Handler) SetLookupActive(ctx context.Context, kind lookup.Kind, id string, active bool) error {
	svc, err := h.lookupService(kind)
	if err != nil {
		return err
	}
	if active {
		return svc.Activate(ctx, id)
	}
	return svc.Deactivate(ctx, id)
}

// ============================================
// Suppliers
// ============================================

func (h *Handler) checkCNPJ(id, cnpj string) error {
	cnpj = supplier.NormalizeCNPJ(cnpj)
	if cnpj == "" {
		return nil
	}
	if existing, ok := h.queries.FindSupplierByCNPJ(cnpj); ok && existing.ID != id {
		return supplier.ErrDuplicateCNPJ
	}
	return nil
}

func (h *Handler) CreateSupplier(ctx context.Context, cmd SaveSupplier) (*supplier.Supplier, error) {
	if err := cmd.Contact.Normalize().Validate(); err != nil {
		return nil, err
	}
	if err := h.checkCNPJ("", cmd.CNPJ); err != nil {
		return nil, err
	}
	return h.supplierSvc.Create(ctx, cmd.Contact)
}

func (h *Handler) UpdateSupplier(ctx context.Context, cmd SaveSupplier) (*supplier.Supplier, error) {
	if err := cmd.Contact.Normalize().Validate(); err != nil {
		return nil, err
	}
	if err := h.checkCNPJ(cmd.ID, cmd.CNPJ); err != nil {
		return nil, err
	}
	return h.supplierSvc.Update(ctx, cmd.ID, cmd.Contact)
}

func (h *Handler) SetSupplierActive(ctx context.Context, id string, active bool) error {
	if active {
		return h.supplierSvc.Activate(ctx, id)
	}
	return h.supplierSvc.Deactivate(ctx, id)
}

// ============================================
// Products
// ============================================

// checkProductRefs verifies SKU uniqueness and that category and supplier exist.
func (h *Handler) checkProductRefs(id string, d product.Details) error {
	if existing, ok := h.queries.FindProductBySKU(d.SKU); ok && existing.ID != id {
		return product.ErrDuplicateSKU
	}
	category, ok := h.queries.GetLookup(readmodel.CollectionCategories, d.CategoryID)
	if !ok || !category.Active {
		return product.ErrCategoryInactive
	}
	if d.SupplierID != "" {
		if _, ok := h.queries.GetSupplier(d.SupplierID); !ok {
			return product.ErrSupplierNotFound
		}
	}
	return nil
}

// CreateProduct registers a product. Stock starts at zero and only moves through movements.
func (h *Handler) CreateProduct(ctx context.Context, cmd SaveProduct) (*product.Product, error) {
	d := cmd.Details.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := h.checkProductRefs("", d); err != nil {
		return nil, err
	}
	return h.productSvc.Create(ctx, d)
}

func (h *Handler) UpdateProduct(ctx context.Context, cmd SaveProduct) (*product.Product, error) {
	d := cmd.Details.Normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if err := h.checkProductRefs(cmd.ID, d); err != nil {
		return nil, err
	}
	return h.productSvc.Update(ctx, cmd.ID, d)
}

// DeactivateProduct is refused while the product still has stock.
func (h *Handler) DeactivateProduct(ctx context.Context, cmd DeactivateProduct) error {
	inv, err := h.inventorySvc.Load(ctx, cmd.ProductID)
	if err != nil {
		return err
	}
	return h.productSvc.Deactivate(ctx, cmd.ProductID, inv.QuantityInStock)
}

func (h *Handler) ActivateProduct(ctx context.Context, productID string) error {
	return h.productSvc.Activate(ctx, productID)
}

// ============================================
// Stock movements
// ============================================

// RecordMovement records a manual movement. A zero unit cost falls back to the product's cost price.
func (h *Handler) RecordMovement(ctx context.Context, cmd RecordMovement) (*inventory.StockMoved, error) {
	movementType, err := inventory.ParseMovementType(cmd.Type)
	if err != nil {
		return nil, err
	}
	if movementType == inventory.MovementSale || movementType == inventory.MovementSaleReversal {
		return nil, ErrManualSaleMovement
	}

	m := inventory.Movement{
		ProductID:    cmd.ProductID,
		Type:         movementType,
		Quantity:     cmd.Quantity,
		UnitCost:     cmd.UnitCost,
		DepartmentID: cmd.DepartmentID,
		SupplierID:   cmd.SupplierID,
		Reason:       cmd.Reason,
		UserID:       cmd.UserID,
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}

	p, ok := h.queries.GetProduct(cmd.ProductID)
	if !ok {
		return nil, product.ErrProductNotFound
	}
	if m.UnitCost.IsZero() {
		m.UnitCost = p.CostPrice
	}
	if m.DepartmentID != "" {
		d, ok := h.queries.GetLookup(readmodel.CollectionDepartments, m.DepartmentID)
		if !ok || !d.Active {
			return nil, ErrDepartmentNotFound
		}
	}
	if m.SupplierID != "" {
		s, ok := h.queries.GetSupplier(m.SupplierID)
		if !ok {
			return nil, supplier.ErrSupplierNotFound
		}
		if !s.Active {
			return nil, supplier.ErrSupplierInactive
		}
	}

	return h.inventorySvc.MoveWithRetry(ctx, m, moveAttempts)
}
