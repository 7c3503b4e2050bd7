package cart

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	itemA = Item{ProductID: "A", Name: "Arroz 1kg", UnitPrice: decimal.RequireFromString("8.99")}
	itemB = Item{ProductID: "B", Name: "Sabonete", UnitPrice: decimal.RequireFromString("2.49")}
)

func TestCart_AddProduct(t *testing.T) {
	var c Cart

	c.AddProduct(itemA)
	c.AddProduct(itemA)
	c.AddProduct(itemB)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, "A", c.Lines[0].ProductID)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("17.98").Equal(c.Lines[0].LineTotal))
	assert.Equal(t, 1, c.Lines[1].Quantity)
}

func TestCart_Total(t *testing.T) {
	var c Cart
	assert.True(t, c.Total().IsZero())

	c.AddProduct(itemA)
	c.SetQuantity("A", 2)
	c.AddProduct(itemB)
	c.SetQuantity("B", 3)

	assert.Equal(t, "25.45", c.Total().StringFixed(2))
}

func TestCart_TotalOfDistinctProducts(t *testing.T) {
	for seed := uint64(1); seed <= 20; seed++ {
		faker := gofakeit.New(seed)
		var c Cart
		want := decimal.Zero
		quantities := map[string]int{}

		n := faker.IntRange(1, 25)
		for range n {
			item := Item{
				ProductID: faker.UUID(),
				Name:      faker.ProductName(),
				UnitPrice: decimal.NewFromFloat(faker.Price(0.01, 500)).Round(2),
			}
			qty := faker.IntRange(1, 12)
			for range qty {
				c.AddProduct(item)
			}
			quantities[item.ProductID] = qty
			want = want.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
		}

		require.Len(t, c.Lines, n, "seed %d", seed)
		for _, l := range c.Lines {
			assert.Equal(t, quantities[l.ProductID], l.Quantity)
			assert.True(t, l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.LineTotal))
		}
		assert.True(t, want.Equal(c.Total()), "seed %d: want %s, got %s", seed, want, c.Total())
	}
}

func TestCart_SetQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		wantLen  int
	}{
		{"update", 5, 2},
		{"zero removes", 0, 1},
		{"negative removes", -1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Cart
			c.AddProduct(itemA)
			c.AddProduct(itemB)

			c.SetQuantity("A", tt.quantity)

			assert.Len(t, c.Lines, tt.wantLen)
			assert.Equal(t, max(tt.quantity, 0), c.Quantity("A"))
			for _, l := range c.Lines {
				assert.True(t, l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))).Equal(l.LineTotal))
			}
		})
	}
}

func TestCart_SetQuantity_UnknownProduct(t *testing.T) {
	var c Cart
	c.AddProduct(itemA)

	c.SetQuantity("missing", 4)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 1, c.Lines[0].Quantity)
}

func TestCart_RemoveProduct(t *testing.T) {
	var c Cart
	c.AddProduct(itemA)
	c.AddProduct(itemB)

	c.RemoveProduct("missing")
	assert.Len(t, c.Lines, 2)

	c.RemoveProduct("A")
	require.Len(t, c.Lines, 1)
	assert.Equal(t, "B", c.Lines[0].ProductID)
}

func TestCart_Clear(t *testing.T) {
	var c Cart
	c.AddProduct(itemA)

	c.Clear()

	assert.True(t, c.IsEmpty())
	assert.True(t, c.Total().IsZero())
}

func TestCart_ValidateCheckout(t *testing.T) {
	var empty Cart
	err := empty.ValidateCheckout("")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, ErrPaymentMethodRequired)

	err = empty.ValidateCheckout("PIX")
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.NotErrorIs(t, err, ErrPaymentMethodRequired)

	var c Cart
	c.AddProduct(itemA)
	assert.ErrorIs(t, c.ValidateCheckout("  "), ErrPaymentMethodRequired)
	assert.NoError(t, c.ValidateCheckout("CASH"))
}
