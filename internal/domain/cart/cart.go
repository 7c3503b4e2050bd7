package cart

import (
	"errors"
	"strings"

	"github.com/example/retail-pos/internal/domain/money"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart             = errors.New("add at least one product to the cart")
	ErrPaymentMethodRequired = errors.New("select a payment method")
)

// Item is what gets scanned into the cart
type Item struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Line is one product in the cart. LineTotal is always UnitPrice * Quantity.
type Line struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

func (l *Line) recompute() {
	l.LineTotal = money.LineTotal(l.UnitPrice, l.Quantity)
}

// Cart keeps lines in the order products were first added, one line per product.
type Cart struct {
	Lines []Line `json:"lines"`
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// AddProduct adds one unit, creating the line when the product is not in the cart yet.
func (c *Cart) AddProduct(item Item) {
	if i := c.indexOf(item.ProductID); i >= 0 {
		c.Lines[i].Quantity++
		c.Lines[i].recompute()
		return
	}
	line := Line{
		ProductID: item.ProductID,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  1,
	}
	line.recompute()
	c.Lines = append(c.Lines, line)
}

// SetQuantity replaces the quantity of a line. Zero or less removes it.
func (c *Cart) SetQuantity(productID string, quantity int) {
	if quantity <= 0 {
		c.RemoveProduct(productID)
		return
	}
	if i := c.indexOf(productID); i >= 0 {
		c.Lines[i].Quantity = quantity
		c.Lines[i].recompute()
	}
}

func (c *Cart) RemoveProduct(productID string) {
	if i := c.indexOf(productID); i >= 0 {
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
	}
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.LineTotal)
	}
	return total
}

func (c *Cart) Clear() {
	c.Lines = nil
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Quantity returns how many units of productID are in the cart.
func (c *Cart) Quantity(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Lines[i].Quantity
	}
	return 0
}

// ValidateCheckout runs before anything leaves the counter. Both problems are reported together.
func (c *Cart) ValidateCheckout(paymentMethod string) error {
	var errs []error
	if c.IsEmpty() {
		errs = append(errs, ErrEmptyCart)
	}
	if strings.TrimSpace(paymentMethod) == "" {
		errs = append(errs, ErrPaymentMethodRequired)
	}
	return errors.Join(errs...)
}
