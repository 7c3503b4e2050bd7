// Package notification turns domain events into mail for managers and the store.
package notification

import (
	"context"
	"encoding/json"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/email"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/logging"
	"github.com/example/retail-pos/internal/query"
	"github.com/sirupsen/logrus"
)

// Mailer is the part of email.Service the handler uses.
type Mailer interface {
	SendLowStockAlert(to []string, alert email.LowStockAlert) error
	SendReceipt(to string, receipt email.Receipt) error
}

// Handler processes events for sending notifications
type Handler struct {
	mailer     Mailer
	queries    *query.Handler
	storeEmail string
	log        *logrus.Entry
}

// NewHandler creates a notification handler. An empty storeEmail disables receipts.
func NewHandler(mailer Mailer, queries *query.Handler, storeEmail string) *Handler {
	return &Handler{
		mailer:     mailer,
		queries:    queries,
		storeEmail: storeEmail,
		log:        logging.New("notifier"),
	}
}

// HandleEvent processes an event from Kafka. Send failures are logged and the
// event is dropped; nothing is retried.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.Event
	if err := json.Unmarshal(value, &event); err != nil {
		h.log.WithError(err).Warn("failed to unmarshal event")
		return err
	}

	switch event.EventType {
	case inventory.EventStockMoved:
		return h.handleStockMoved(event)
	case sale.EventSaleCompleted:
		return h.handleSaleCompleted(event)
	}
	return nil
}

// handleStockMoved alerts active managers when an outflow leaves a product below its minimum.
func (h *Handler) handleStockMoved(event store.Event) error {
	var e inventory.StockMoved
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}
	if e.Delta >= 0 {
		return nil
	}

	p, ok := h.queries.GetProduct(e.ProductID)
	if !ok || e.QuantityAfter >= p.MinStock {
		return nil
	}

	var to []string
	for _, u := range h.queries.ActiveUsersWithRole(string(auth.RoleManager)) {
		if u.Email != "" {
			to = append(to, u.Email)
		}
	}
	entry := h.log.WithFields(logrus.Fields{"product_id": e.ProductID, "quantity": e.QuantityAfter})
	if len(to) == 0 {
		entry.Info("low stock, no manager has an email address")
		return nil
	}

	err := h.mailer.SendLowStockAlert(to, email.LowStockAlert{
		ProductName: p.Name,
		SKU:         p.SKU,
		Quantity:    e.QuantityAfter,
		MinStock:    p.MinStock,
		Location:    p.Location,
	})
	if err != nil {
		entry.WithError(err).Error("low stock alert not sent")
		return nil
	}
	entry.WithField("recipients", len(to)).Info("low stock alert sent")
	return nil
}

func (h *Handler) handleSaleCompleted(event store.Event) error {
	if h.storeEmail == "" {
		return nil
	}
	var e sale.SaleCompleted
	if err := json.Unmarshal(event.Data, &e); err != nil {
		return err
	}

	receipt := email.Receipt{
		SaleID:        e.SaleID,
		CashierName:   e.CashierName,
		PaymentMethod: string(e.PaymentMethod),
		Total:         e.TotalAmount,
		CompletedAt:   e.CompletedAt,
	}
	for _, l := range e.Lines {
		name := l.ProductName
		if name == "" {
			name = l.ProductID
		}
		receipt.Lines = append(receipt.Lines, email.ReceiptLine{
			Name:      name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			Total:     l.Total(),
		})
	}

	entry := h.log.WithField("sale_id", e.SaleID)
	if err := h.mailer.SendReceipt(h.storeEmail, receipt); err != nil {
		entry.WithError(err).Error("receipt not sent")
		return nil
	}
	entry.Info("receipt sent")
	return nil
}
