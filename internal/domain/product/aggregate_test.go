package product

import (
	"context"
	"testing"

	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/infrastructure/store/mocks"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProductService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func validDetails() Details {
	return Details{
		SKU:        " ARZ-001 ",
		Barcode:    "7891234567890",
		Name:       " Arroz Tipo 1 ",
		CategoryID: "cat-1",
		CostPrice:  decimal.RequireFromString("5.20"),
		SalePrice:  decimal.RequireFromString("8.99"),
		MinStock:   10,
	}
}

// ============================================
// Create Product Tests
// ============================================

func TestService_Create_ValidProduct(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()

	product, err := service.Create(ctx, validDetails())

	require.NoError(t, err)
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "ARZ-001", product.SKU)
	assert.Equal(t, "Arroz Tipo 1", product.Name)
	assert.True(t, product.Active)
	assert.Equal(t, 1, product.Version)

	assert.Len(t, eventStore.AppendCalls, 1)
	assert.Equal(t, EventProductCreated, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
}

func TestService_Create_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Details)
		wantErr error
	}{
		{"missing sku", func(d *Details) { d.SKU = "  " }, ErrSKURequired},
		{"missing name", func(d *Details) { d.Name = "" }, ErrInvalidName},
		{"zero sale price", func(d *Details) { d.SalePrice = decimal.Zero }, ErrInvalidSalePrice},
		{"negative cost", func(d *Details) { d.CostPrice = decimal.NewFromInt(-1) }, ErrInvalidCostPrice},
		{"negative min stock", func(d *Details) { d.MinStock = -1 }, ErrInvalidMinStock},
		{"missing category", func(d *Details) { d.CategoryID = "" }, ErrCategoryRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, eventStore := newTestProductService()
			d := validDetails()
			tt.mutate(&d)

			_, err := service.Create(context.Background(), d)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, eventStore.AppendCalls)
		})
	}
}

func TestService_Create_ZeroCostAllowed(t *testing.T) {
	service, _ := newTestProductService()
	d := validDetails()
	d.CostPrice = decimal.Zero

	_, err := service.Create(context.Background(), d)

	assert.NoError(t, err)
}

// ============================================
// Update Product Tests
// ============================================

func TestService_Update(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()
	created, err := service.Create(ctx, validDetails())
	require.NoError(t, err)

	d := validDetails()
	d.SalePrice = decimal.RequireFromString("9.49")
	updated, err := service.Update(ctx, created.ID, d)

	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("9.49").Equal(updated.SalePrice))
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, 1, eventStore.AppendCalls[1].ExpectedVersion)

	loaded, err := service.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "9.49", loaded.SalePrice.String())
}

func TestService_Update_NotFound(t *testing.T) {
	service, _ := newTestProductService()

	_, err := service.Update(context.Background(), "missing", validDetails())

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Update_Conflict(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()
	created, err := service.Create(ctx, validDetails())
	require.NoError(t, err)

	eventStore.AppendErr = store.ErrVersionConflict
	_, err = service.Update(ctx, created.ID, validDetails())

	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

// ============================================
// Deactivate / Activate Tests
// ============================================

func TestService_Deactivate_WithStock(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()
	created, err := service.Create(ctx, validDetails())
	require.NoError(t, err)

	err = service.Deactivate(ctx, created.ID, 3)

	assert.ErrorIs(t, err, ErrHasStock)
	assert.Len(t, eventStore.AppendCalls, 1)
}

func TestService_DeactivateActivate(t *testing.T) {
	service, eventStore := newTestProductService()
	ctx := context.Background()
	created, err := service.Create(ctx, validDetails())
	require.NoError(t, err)

	require.NoError(t, service.Deactivate(ctx, created.ID, 0))
	loaded, err := service.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.False(t, loaded.Active)

	// already inactive
	require.NoError(t, service.Deactivate(ctx, created.ID, 0))

	require.NoError(t, service.Activate(ctx, created.ID))
	loaded, err = service.Load(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Active)

	assert.Len(t, eventStore.AppendCalls, 3)
}

func TestService_Deactivate_NotFound(t *testing.T) {
	service, _ := newTestProductService()

	assert.ErrorIs(t, service.Deactivate(context.Background(), "missing", 0), ErrProductNotFound)
}
