package money

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

// Default is the store currency when none is configured.
var Default = currency.BRL

type Money struct {
	Amount   decimal.Decimal
	Currency currency.Unit
}

func New(amount decimal.Decimal, unit currency.Unit) Money {
	return Money{Amount: amount, Currency: unit}
}

// Zero returns a zero amount in the given currency.
func Zero(unit currency.Unit) Money {
	return Money{Amount: decimal.Zero, Currency: unit}
}

// ParseCurrency resolves an ISO 4217 code, falling back to Default.
func ParseCurrency(code string) currency.Unit {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return Default
	}
	return unit
}

// LineTotal is unit price times quantity.
func LineTotal(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
}

func (m Money) Add(other decimal.Decimal) Money {
	return Money{Amount: m.Amount.Add(other), Currency: m.Currency}
}

func (m Money) IsPositive() bool {
	return m.Amount.IsPositive()
}

// String renders the amount with two decimals, e.g. "BRL 25.45".
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Currency.String(), m.Amount.StringFixed(2))
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Amount.Round(2), Currency: m.Currency.String()})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.Amount = raw.Amount
	m.Currency = ParseCurrency(raw.Currency)
	return nil
}
