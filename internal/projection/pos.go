package projection

import (
	"encoding/json"

	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/readmodel"
)

// handleCartEvent rebuilds the cart document with the same operations the aggregate uses.
func (p *Projector) handleCartEvent(event store.Event) error {
	var (
		cartID    string
		cashierID string
		fold      func(*cart.Cart)
	)

	switch event.EventType {
	case cart.EventProductAdded:
		var e cart.ProductAdded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		cartID, cashierID = e.CartID, e.CashierID
		fold = func(c *cart.Cart) {
			c.AddProduct(cart.Item{ProductID: e.ProductID, Name: e.Name, UnitPrice: e.UnitPrice})
		}
	case cart.EventQuantitySet:
		var e cart.QuantitySet
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		cartID, cashierID = e.CartID, e.CashierID
		fold = func(c *cart.Cart) { c.SetQuantity(e.ProductID, e.Quantity) }
	case cart.EventProductRemoved:
		var e cart.ProductRemoved
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		cartID, cashierID = e.CartID, e.CashierID
		fold = func(c *cart.Cart) { c.RemoveProduct(e.ProductID) }
	case cart.EventCartCleared:
		var e cart.CartCleared
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		cartID, cashierID = e.CartID, e.CashierID
		fold = func(c *cart.Cart) { c.Clear() }
	default:
		return nil
	}

	p.setIfAbsent(readmodel.CollectionCarts, cartID, &readmodel.CartReadModel{
		ID:        cartID,
		CashierID: cashierID,
		Lines:     []readmodel.CartLineReadModel{},
	})
	p.readStore.Update(readmodel.CollectionCarts, cartID, func(current any) any {
		doc := current.(*readmodel.CartReadModel)
		if event.Version <= doc.Version {
			return doc
		}

		c := cartFromReadModel(doc)
		fold(&c)

		doc.Lines = make([]readmodel.CartLineReadModel, len(c.Lines))
		for i, l := range c.Lines {
			doc.Lines[i] = readmodel.CartLineReadModel(l)
		}
		doc.Total = c.Total()
		doc.Version = event.Version
		doc.UpdatedAt = event.Timestamp
		return doc
	})

	return nil
}

func cartFromReadModel(doc *readmodel.CartReadModel) cart.Cart {
	var c cart.Cart
	for _, l := range doc.Lines {
		c.Lines = append(c.Lines, cart.Line(l))
	}
	return c
}

func (p *Projector) handleSaleEvent(event store.Event) error {
	switch event.EventType {
	case sale.EventSaleCompleted:
		var e sale.SaleCompleted
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		lines := make([]readmodel.SaleLineReadModel, len(e.Lines))
		for i, l := range e.Lines {
			lines[i] = readmodel.SaleLineReadModel{
				ProductID:   l.ProductID,
				ProductName: l.ProductName,
				Quantity:    l.Quantity,
				PriceAtSale: l.UnitPrice,
				LineTotal:   l.Total(),
			}
		}
		p.setIfAbsent(readmodel.CollectionSales, e.SaleID, &readmodel.SaleReadModel{
			ID:            e.SaleID,
			CashierID:     e.CashierID,
			CashierName:   e.CashierName,
			Lines:         lines,
			PaymentMethod: string(e.PaymentMethod),
			TotalAmount:   e.TotalAmount,
			Status:        string(sale.StatusCompleted),
			CreatedAt:     e.CompletedAt,
			UpdatedAt:     e.CompletedAt,
		})

	case sale.EventSaleCancelled:
		var e sale.SaleCancelled
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionSales, e.SaleID, func(current any) any {
			s := current.(*readmodel.SaleReadModel)
			s.Status = string(sale.StatusCancelled)
			s.StatusReason = e.Reason
			s.UpdatedAt = e.CancelledAt
			return s
		})

	case sale.EventSaleRefunded:
		var e sale.SaleRefunded
		if err := json.Unmarshal(event.Data, &e); err != nil {
			return err
		}
		p.readStore.Update(readmodel.CollectionSales, e.SaleID, func(current any) any {
			s := current.(*readmodel.SaleReadModel)
			s.Status = string(sale.StatusRefunded)
			s.StatusReason = e.Reason
			s.UpdatedAt = e.RefundedAt
			return s
		})
	}

	return nil
}
