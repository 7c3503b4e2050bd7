package projection

import (
	"encoding/json"

	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/readmodel"
)

func (p *Projector) handleLookupEvent(kind lookup.Kind, event store.Event) error {
	collection := kind.Collection()

	switch event.EventType {
	case lookup.EventCreated:
		var e lookup.LookupCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.setIfAbsent(collection, e.ID, &readmodel.LookupReadModel{
			ID:          e.ID,
			Name:        e.Name,
			Description: e.Description,
			Active:      true,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		})

	case lookup.EventUpdated:
		var e lookup.LookupUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(collection, e.ID, func(current any) any {
			l := current.(*readmodel.LookupReadModel)
			l.Name = e.Name
			l.Description = e.Description
			l.UpdatedAt = e.UpdatedAt
			return l
		})
		if kind == lookup.Category {
			p.renameOnProducts(func(prod *readmodel.ProductReadModel) bool {
				if prod.CategoryID != e.ID || prod.CategoryName == e.Name {
					return false
				}
				prod.CategoryName = e.Name
				return true
			})
		}

	case lookup.EventDeactivated:
		var e lookup.LookupDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(collection, e.ID, func(current any) any {
			l := current.(*readmodel.LookupReadModel)
			l.Active = false
			l.UpdatedAt = e.DeactivatedAt
			return l
		})

	case lookup.EventActivated:
		var e lookup.LookupActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(collection, e.ID, func(current any) any {
			l := current.(*readmodel.LookupReadModel)
			l.Active = true
			l.UpdatedAt = e.ActivatedAt
			return l
		})
	}

	return nil
}

func (p *Projector) handleSupplierEvent(event store.Event) error {
	switch event.EventType {
	case supplier.EventSupplierCreated:
		var e supplier.SupplierCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		doc := &readmodel.SupplierReadModel{ID: e.SupplierID, Active: true, CreatedAt: e.CreatedAt, UpdatedAt: e.CreatedAt}
		applyContact(doc, e.Contact)
		p.setIfAbsent(readmodel.CollectionSuppliers, e.SupplierID, doc)

	case supplier.EventSupplierUpdated:
		var e supplier.SupplierUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionSuppliers, e.SupplierID, func(current any) any {
			s := current.(*readmodel.SupplierReadModel)
			applyContact(s, e.Contact)
			s.UpdatedAt = e.UpdatedAt
			return s
		})
		p.renameOnProducts(func(prod *readmodel.ProductReadModel) bool {
			if prod.SupplierID != e.SupplierID || prod.SupplierName == e.Contact.Name {
				return false
			}
			prod.SupplierName = e.Contact.Name
			return true
		})

	case supplier.EventSupplierDeactivated:
		var e supplier.SupplierDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionSuppliers, e.SupplierID, func(current any) any {
			s := current.(*readmodel.SupplierReadModel)
			s.Active = false
			s.UpdatedAt = e.DeactivatedAt
			return s
		})

	case supplier.EventSupplierActivated:
		var e supplier.SupplierActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionSuppliers, e.SupplierID, func(current any) any {
			s := current.(*readmodel.SupplierReadModel)
			s.Active = true
			s.UpdatedAt = e.ActivatedAt
			return s
		})
	}

	return nil
}

func applyContact(s *readmodel.SupplierReadModel, c supplier.Contact) {
	s.Name = c.Name
	s.ContactName = c.ContactName
	s.CNPJ = c.CNPJ
	s.Email = c.Email
	s.Phone = c.Phone
	s.Address = c.Address
}

func (p *Projector) handleProductEvent(event store.Event) error {
	switch event.EventType {
	case product.EventProductCreated:
		var e product.ProductCreated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		prod := &readmodel.ProductReadModel{
			ID:          e.ProductID,
			SKU:         e.SKU,
			Barcode:     e.Barcode,
			Name:        e.Name,
			Description: e.Description,
			CategoryID:  e.CategoryID,
			SupplierID:  e.SupplierID,
			CostPrice:   e.CostPrice,
			SalePrice:   e.SalePrice,
			MinStock:    e.MinStock,
			Location:    e.Location,
			Active:      true,
			CreatedAt:   e.CreatedAt,
			UpdatedAt:   e.CreatedAt,
		}
		p.resolveProductNames(prod)
		p.setIfAbsent(readmodel.CollectionProducts, e.ProductID, prod)

	case product.EventProductUpdated:
		var e product.ProductUpdated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		names := &readmodel.ProductReadModel{CategoryID: e.CategoryID, SupplierID: e.SupplierID}
		p.resolveProductNames(names)
		p.readStore.Update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.SKU = e.SKU
			prod.Barcode = e.Barcode
			prod.Name = e.Name
			prod.Description = e.Description
			prod.CategoryID = e.CategoryID
			prod.SupplierID = e.SupplierID
			prod.CostPrice = e.CostPrice
			prod.SalePrice = e.SalePrice
			prod.MinStock = e.MinStock
			prod.Location = e.Location
			prod.CategoryName = names.CategoryName
			prod.SupplierName = names.SupplierName
			prod.UpdatedAt = e.UpdatedAt
			return prod
		})

	case product.EventProductDeactivated:
		var e product.ProductDeactivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Active = false
			prod.UpdatedAt = e.DeactivatedAt
			return prod
		})

	case product.EventProductActivated:
		var e product.ProductActivated
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionProducts, e.ProductID, func(current any) any {
			prod := current.(*readmodel.ProductReadModel)
			prod.Active = true
			prod.UpdatedAt = e.ActivatedAt
			return prod
		})
	}

	return nil
}

// resolveProductNames denormalizes the category and supplier names onto the product
func (p *Projector) resolveProductNames(prod *readmodel.ProductReadModel) {
	prod.CategoryName = p.lookupName(readmodel.CollectionCategories, prod.CategoryID)
	prod.SupplierName = ""
	if prod.SupplierID != "" {
		if s, ok := p.readStore.Get(readmodel.CollectionSuppliers, prod.SupplierID); ok {
			prod.SupplierName = s.(*readmodel.SupplierReadModel).Name
		}
	}
}

func (p *Projector) lookupName(collection, id string) string {
	if id == "" {
		return ""
	}
	if l, ok := p.readStore.Get(collection, id); ok {
		return l.(*readmodel.LookupReadModel).Name
	}
	return ""
}

// renameOnProducts rewrites every product for which change reports a difference
func (p *Projector) renameOnProducts(change func(*readmodel.ProductReadModel) bool) {
	for _, item := range p.readStore.GetAll(readmodel.CollectionProducts) {
		prod := item.(*readmodel.ProductReadModel)
		if change(prod) {
			p.readStore.Set(readmodel.CollectionProducts, prod.ID, prod)
		}
	}
}
