package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/google/uuid"
)

// POS drives the cashier's cart, either the one kept by the server or a local one.
type POS struct {
	c     *Client
	sales *Sales
}

func NewPOS(c *Client) *POS {
	return &POS{c: c, sales: NewSales(c)}
}

func (p *POS) cartCall(ctx context.Context, method, path string, in any) Result[readmodel.CartReadModel] {
	var out readmodel.CartReadModel
	if err := p.c.do(ctx, method, "/api/pos/cart"+path, in, &out); err != nil {
		return fail[readmodel.CartReadModel](err, "Erro ao atualizar carrinho")
	}
	return succeed(out)
}

func (p *POS) Cart(ctx context.Context) Result[readmodel.CartReadModel] {
	return p.cartCall(ctx, http.MethodGet, "", nil)
}

// Scan adds one unit of the product with this barcode or SKU.
func (p *POS) Scan(ctx context.Context, code string) Result[readmodel.CartReadModel] {
	var out readmodel.CartReadModel
	if err := p.c.do(ctx, http.MethodPost, "/api/pos/cart/items", command.AddToCart{Code: code}, &out); err != nil {
		return fail[readmodel.CartReadModel](err, "Produto não encontrado")
	}
	return succeed(out)
}

func (p *POS) Add(ctx context.Context, productID string) Result[readmodel.CartReadModel] {
	return p.cartCall(ctx, http.MethodPost, "/items", command.AddToCart{ProductID: productID})
}

// SetQuantity replaces the quantity of a line. Zero or less removes it.
func (p *POS) SetQuantity(ctx context.Context, productID string, quantity int) Result[readmodel.CartReadModel] {
	return p.cartCall(ctx, http.MethodPut, "/items/"+url.PathEscape(productID), map[string]int{"quantity": quantity})
}

func (p *POS) Remove(ctx context.Context, productID string) Result[readmodel.CartReadModel] {
	return p.cartCall(ctx, http.MethodDelete, "/items/"+url.PathEscape(productID), nil)
}

func (p *POS) Clear(ctx context.Context) Result[struct{}] {
	if err := p.c.do(ctx, http.MethodDelete, "/api/pos/cart", nil, nil); err != nil {
		return fail[struct{}](err, "Erro ao limpar carrinho")
	}
	return succeed(struct{}{})
}

// Checkout turns the server cart into a sale. A missing payment method is reported
// without contacting the server. Retrying with the same key never records the sale
// twice; an empty key gets a fresh one.
func (p *POS) Checkout(ctx context.Context, paymentMethod, idempotencyKey string) Result[readmodel.SaleReadModel] {
	if strings.TrimSpace(paymentMethod) == "" {
		return invalid[readmodel.SaleReadModel](cart.ErrPaymentMethodRequired)
	}
	if idempotencyKey == "" {
		idempotencyKey = uuid.NewString()
	}
	header := http.Header{}
	header.Set("Idempotency-Key", idempotencyKey)

	var out readmodel.SaleReadModel
	body := map[string]string{"payment_method": paymentMethod}
	if err := p.c.doWithHeaders(ctx, http.MethodPost, "/api/pos/checkout", header, body, &out); err != nil {
		return failAll[readmodel.SaleReadModel](err)
	}
	return succeed(out)
}

// CheckoutLocal submits a cart kept on this side. An empty cart or a missing payment
// method is reported without contacting the server. The cart is cleared only once
// the sale is recorded.
func (p *POS) CheckoutLocal(ctx context.Context, c *cart.Cart, paymentMethod string) Result[readmodel.SaleReadModel] {
	if err := c.ValidateCheckout(paymentMethod); err != nil {
		return invalid[readmodel.SaleReadModel](err)
	}

	lines := make([]command.SaleLineInput, len(c.Lines))
	for i, l := range c.Lines {
		lines[i] = command.SaleLineInput{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	res := p.sales.Create(ctx, command.RecordSale{Lines: lines, PaymentMethod: paymentMethod})
	if res.Success {
		c.Clear()
	}
	return res
}
