package cart

import (
	"context"
	"testing"

	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/infrastructure/store/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCartService() (*Service, *mocks.MockEventStore) {
	eventStore := mocks.NewMockEventStore()
	service := NewService(eventStore)
	return service, eventStore
}

func TestGetCartID(t *testing.T) {
	tests := []struct {
		name       string
		cashierID  string
		expectedID string
	}{
		{"normal id", "user-123", "cart-user-123"},
		{"uuid", "550e8400-e29b-41d4-a716-446655440000", "cart-550e8400-e29b-41d4-a716-446655440000"},
		{"empty", "", "cart-"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedID, GetCartID(tt.cashierID))
		})
	}
}

// ============================================
// Add Product Tests
// ============================================

func TestService_AddProduct(t *testing.T) {
	service, eventStore := newTestCartService()
	ctx := context.Background()

	_, err := service.AddProduct(ctx, "user-123", itemA)
	require.NoError(t, err)
	c, err := service.AddProduct(ctx, "user-123", itemA)
	require.NoError(t, err)

	assert.Equal(t, "cart-user-123", c.ID)
	assert.Equal(t, 2, c.Cart.Quantity("A"))
	assert.Equal(t, "17.98", c.Cart.Total().StringFixed(2))
	assert.Equal(t, 2, c.Version)

	require.Len(t, eventStore.AppendCalls, 2)
	assert.Equal(t, EventProductAdded, eventStore.AppendCalls[0].EventType)
	assert.Equal(t, AggregateType, eventStore.AppendCalls[0].AggregateType)
	assert.Equal(t, 0, eventStore.AppendCalls[0].ExpectedVersion)
	assert.Equal(t, 1, eventStore.AppendCalls[1].ExpectedVersion)
}

func TestService_AddProduct_EmptyProductID(t *testing.T) {
	service, eventStore := newTestCartService()

	_, err := service.AddProduct(context.Background(), "user-123", Item{})

	assert.ErrorIs(t, err, ErrInvalidProduct)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_AddProduct_VersionConflict(t *testing.T) {
	service, eventStore := newTestCartService()
	eventStore.AppendErr = store.ErrVersionConflict

	_, err := service.AddProduct(context.Background(), "user-123", itemA)

	assert.ErrorIs(t, err, store.ErrVersionConflict)
}

// ============================================
// Quantity / Remove / Clear Tests
// ============================================

func TestService_SetQuantity(t *testing.T) {
	service, _ := newTestCartService()
	ctx := context.Background()
	_, err := service.AddProduct(ctx, "u", itemA)
	require.NoError(t, err)
	_, err = service.AddProduct(ctx, "u", itemB)
	require.NoError(t, err)

	c, err := service.SetQuantity(ctx, "u", "B", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Cart.Quantity("B"))

	c, err = service.SetQuantity(ctx, "u", "A", -1)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Cart.Quantity("A"))
	assert.Len(t, c.Cart.Lines, 1)
}

func TestService_SetQuantity_NotInCart(t *testing.T) {
	service, eventStore := newTestCartService()

	_, err := service.SetQuantity(context.Background(), "u", "A", 2)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, eventStore.AppendCalls)
}

func TestService_RemoveProduct_AbsentIsNoop(t *testing.T) {
	service, eventStore := newTestCartService()
	ctx := context.Background()
	_, err := service.AddProduct(ctx, "u", itemA)
	require.NoError(t, err)

	c, err := service.RemoveProduct(ctx, "u", "B")
	require.NoError(t, err)
	assert.Len(t, c.Cart.Lines, 1)
	assert.Len(t, eventStore.AppendCalls, 1)

	c, err = service.RemoveProduct(ctx, "u", "A")
	require.NoError(t, err)
	assert.True(t, c.Cart.IsEmpty())
}

func TestService_Clear(t *testing.T) {
	service, eventStore := newTestCartService()
	ctx := context.Background()
	_, err := service.AddProduct(ctx, "u", itemA)
	require.NoError(t, err)

	require.NoError(t, service.Clear(ctx, "u"))

	c, err := service.Load(ctx, "u")
	require.NoError(t, err)
	assert.True(t, c.Cart.IsEmpty())
	assert.Equal(t, EventCartCleared, eventStore.AppendCalls[1].EventType)
}

func TestService_Load_Empty(t *testing.T) {
	service, _ := newTestCartService()

	c, err := service.Load(context.Background(), "new-cashier")

	require.NoError(t, err)
	assert.Equal(t, "cart-new-cashier", c.ID)
	assert.True(t, c.Cart.IsEmpty())
	assert.Equal(t, 0, c.Version)
}

func TestService_Snapshot(t *testing.T) {
	service, eventStore := newTestCartService()
	ctx := context.Background()

	for i := 0; i < store.SnapshotThreshold; i++ {
		_, err := service.AddProduct(ctx, "u", itemA)
		require.NoError(t, err)
	}

	require.Len(t, eventStore.SnapshotCalls, 1)
	assert.Equal(t, store.SnapshotThreshold, eventStore.SnapshotCalls[0].Version)

	c, err := service.Load(ctx, "u")
	require.NoError(t, err)
	assert.Equal(t, store.SnapshotThreshold, c.Cart.Quantity("A"))
}
