package projection

import (
	"encoding/json"

	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/readmodel"
)

func (p *Projector) handleInventoryEvent(event store.Event) error {
	if event.EventType != inventory.EventStockMoved {
		return nil
	}

	var e inventory.StockMoved
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	movement := &readmodel.MovementReadModel{
		ID:             e.MovementID,
		ProductID:      e.ProductID,
		Type:           string(e.Type),
		Quantity:       e.Quantity,
		Delta:          e.Delta,
		QuantityAfter:  e.QuantityAfter,
		UnitCost:       e.UnitCost,
		DepartmentID:   e.DepartmentID,
		DepartmentName: p.lookupName(readmodel.CollectionDepartments, e.DepartmentID),
		SupplierID:     e.SupplierID,
		SaleID:         e.SaleID,
		Reason:         e.Reason,
		UserID:         e.UserID,
		OccurredAt:     e.OccurredAt,
	}
	if e.SupplierID != "" {
		if s, ok := p.readStore.Get(readmodel.CollectionSuppliers, e.SupplierID); ok {
			movement.SupplierName = s.(*readmodel.SupplierReadModel).Name
		}
	}
	if prod, ok := p.readStore.Get(readmodel.CollectionProducts, e.ProductID); ok {
		movement.ProductName = prod.(*readmodel.ProductReadModel).Name
		movement.ProductSKU = prod.(*readmodel.ProductReadModel).SKU
	}
	p.setIfAbsent(readmodel.CollectionMovements, e.MovementID, movement)

	p.readStore.Update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
		prod := current.(*readmodel.ProductReadModel)
		if event.Version <= prod.StockVersion {
			return prod
		}
		prod.QuantityInStock = e.QuantityAfter
		prod.StockVersion = event.Version
		prod.UpdatedAt = e.OccurredAt
		return prod
	})

	return nil
}
