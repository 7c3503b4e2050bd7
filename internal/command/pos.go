package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/sirupsen/logrus"
)

const checkoutFailedReason = "stock changed during checkout"

// ============================================
// POS cart
// ============================================

// resolveProduct finds a sellable product by id or scanned code.
func (h *Handler) resolveProduct(productID, code string) (*readmodel.ProductReadModel, error) {
	var (
		p  *readmodel.ProductReadModel
		ok bool
	)
	if productID != "" {
		p, ok = h.queries.GetProduct(productID)
	} else {
		p, ok = h.queries.FindProductByCode(code)
	}
	if !ok {
		return nil, product.ErrProductNotFound
	}
	if !p.Active {
		return nil, fmt.Errorf("%s: %w", p.Name, product.ErrProductInactive)
	}
	return p, nil
}

// checkStock fails when want units of the product are not on hand.
func (h *Handler) checkStock(ctx context.Context, productID, name string, want int) error {
	inv, err := h.inventorySvc.Load(ctx, productID)
	if err != nil {
		return err
	}
	if want > inv.QuantityInStock {
		return fmt.Errorf("%w: %s has %d, requested %d", inventory.ErrInsufficientStock, name, inv.QuantityInStock, want)
	}
	return nil
}

// AddToCart adds one unit priced at the product's current sale price.
func (h *Handler) AddToCart(ctx context.Context, cmd AddToCart) (*cart.PosCart, error) {
	p, err := h.resolveProduct(cmd.ProductID, cmd.Code)
	if err != nil {
		return nil, err
	}

	current, err := h.cartSvc.Load(ctx, cmd.CashierID)
	if err != nil {
		return nil, err
	}
	if err := h.checkStock(ctx, p.ID, p.Name, current.Cart.Quantity(p.ID)+1); err != nil {
		return nil, err
	}

	return h.cartSvc.AddProduct(ctx, cmd.CashierID, cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.SalePrice,
	})
}

func (h *Handler) SetCartQuantity(ctx context.Context, cmd SetCartQuantity) (*cart.PosCart, error) {
	if cmd.Quantity > 0 {
		name := cmd.ProductID
		if p, ok := h.queries.GetProduct(cmd.ProductID); ok {
			name = p.Name
		}
		if err := h.checkStock(ctx, cmd.ProductID, name, cmd.Quantity); err != nil {
			return nil, err
		}
	}
	return h.cartSvc.SetQuantity(ctx, cmd.CashierID, cmd.ProductID, cmd.Quantity)
}

func (h *Handler) RemoveFromCart(ctx context.Context, cmd RemoveFromCart) (*cart.PosCart, error) {
	return h.cartSvc.RemoveProduct(ctx, cmd.CashierID, cmd.ProductID)
}

func (h *Handler) ClearCart(ctx context.Context, cashierID string) error {
	return h.cartSvc.Clear(ctx, cashierID)
}

// Checkout turns the cashier's cart into a completed sale and empties the cart.
// The cart and payment method are validated before anything is read or written.
func (h *Handler) Checkout(ctx context.Context, cmd Checkout) (*sale.Sale, error) {
	current, err := h.cartSvc.Load(ctx, cmd.CashierID)
	if err != nil {
		return nil, err
	}
	if err := current.Cart.ValidateCheckout(cmd.PaymentMethod); err != nil {
		return nil, err
	}
	method, err := sale.ParsePaymentMethod(cmd.PaymentMethod)
	if err != nil {
		return nil, err
	}

	lines := make([]sale.Line, 0, len(current.Cart.Lines))
	for _, l := range current.Cart.Lines {
		lines = append(lines, sale.Line{
			ProductID:   l.ProductID,
			ProductName: l.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
		})
	}

	s, err := h.completeSale(ctx, cmd.CashierID, lines, method)
	if err != nil {
		return nil, err
	}

	if err := h.cartSvc.Clear(ctx, cmd.CashierID); err != nil {
		log.WithError(err).WithField("sale_id", s.ID).Warn("sale recorded but cart not cleared")
	}
	return s, nil
}

// ============================================
// Sales
// ============================================

// RecordSale records a sale from submitted lines, priced from the catalog.
// Repeated products are merged into one line.
func (h *Handler) RecordSale(ctx context.Context, cmd RecordSale) (*sale.Sale, error) {
	method, err := sale.ParsePaymentMethod(cmd.PaymentMethod)
	if len(cmd.Lines) == 0 {
		return nil, errors.Join(sale.ErrEmptySale, err)
	}
	if err != nil {
		return nil, err
	}

	var lines []sale.Line
	index := make(map[string]int, len(cmd.Lines))
	for _, in := range cmd.Lines {
		if in.Quantity <= 0 {
			return nil, sale.ErrInvalidQuantity
		}
		if i, ok := index[in.ProductID]; ok {
			lines[i].Quantity += in.Quantity
			continue
		}
		p, err := h.resolveProduct(in.ProductID, "")
		if err != nil {
			return nil, err
		}
		index[in.ProductID] = len(lines)
		lines = append(lines, sale.Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    in.Quantity,
			UnitPrice:   p.SalePrice,
		})
	}

	return h.completeSale(ctx, cmd.CashierID, lines, method)
}

// completeSale checks stock for every line, records the sale, then takes the
// stock out. If a line can no longer be taken out, the lines already moved are
// put back and the sale is cancelled.
func (h *Handler) completeSale(ctx context.Context, cashierID string, lines []sale.Line, method sale.PaymentMethod) (*sale.Sale, error) {
	if err := sale.ValidateLines(lines); err != nil {
		return nil, err
	}
	for _, l := range lines {
		if err := h.checkStock(ctx, l.ProductID, l.ProductName, l.Quantity); err != nil {
			return nil, err
		}
	}

	cashierName := ""
	if u, ok := h.queries.GetUser(cashierID); ok {
		cashierName = u.Name
	}

	s, err := h.saleSvc.Complete(ctx, cashierID, cashierName, lines, method)
	if err != nil {
		return nil, err
	}

	for i, l := range lines {
		_, err := h.inventorySvc.MoveWithRetry(ctx, h.saleMovement(inventory.MovementSale, s.ID, cashierID, l), moveAttempts)
		if err == nil {
			continue
		}
		log.WithError(err).WithField("sale_id", s.ID).Warn("stock deduction failed, reverting sale")
		h.revertSale(ctx, s, lines[:i], cashierID)
		return nil, err
	}

	return s, nil
}

func (h *Handler) saleMovement(t inventory.MovementType, saleID, userID string, l sale.Line) inventory.Movement {
	m := inventory.Movement{
		ProductID: l.ProductID,
		Type:      t,
		Quantity:  l.Quantity,
		SaleID:    saleID,
		UserID:    userID,
	}
	if p, ok := h.queries.GetProduct(l.ProductID); ok {
		m.UnitCost = p.CostPrice
	}
	return m
}

// revertSale puts back the stock of moved and cancels the sale. Failures are logged.
func (h *Handler) revertSale(ctx context.Context, s *sale.Sale, moved []sale.Line, userID string) {
	for _, l := range moved {
		if _, err := h.inventorySvc.MoveWithRetry(ctx, h.saleMovement(inventory.MovementSaleReversal, s.ID, userID, l), moveAttempts); err != nil {
			log.WithError(err).WithFields(logrus.Fields{"sale_id": s.ID, "product_id": l.ProductID}).Error("stock reversal failed")
		}
	}
	if _, err := h.saleSvc.ChangeStatus(ctx, s.ID, sale.StatusCancelled, checkoutFailedReason, userID); err != nil {
		log.WithError(err).WithField("sale_id", s.ID).Error("cancelling reverted sale failed")
	}
}

// ChangeSaleStatus cancels or refunds a completed sale and returns its stock.
func (h *Handler) ChangeSaleStatus(ctx context.Context, cmd ChangeSaleStatus) error {
	target, err := sale.ParseStatus(cmd.Status)
	if err != nil {
		return err
	}

	before, err := h.saleSvc.ChangeStatus(ctx, cmd.SaleID, target, cmd.Reason, cmd.ByUserID)
	if err != nil {
		return err
	}

	var errs []error
	for _, l := range before.Lines {
		m := h.saleMovement(inventory.MovementSaleReversal, before.ID, cmd.ByUserID, l)
		if _, err := h.inventorySvc.MoveWithRetry(ctx, m, moveAttempts); err != nil {
			errs = append(errs, fmt.Errorf("restock %s: %w", l.ProductName, err))
		}
	}
	return errors.Join(errs...)
}
