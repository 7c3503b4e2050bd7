package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/infrastructure/store/mocks"
	"github.com/example/retail-pos/internal/readmodel"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProjector() (*Projector, *mocks.MockReadStore) {
	readStore := mocks.NewMockReadStore()
	projector := NewProjector(readStore)
	return projector, readStore
}

func makeEvent(aggregateType, eventType string, version int, data any) []byte {
	jsonData, _ := json.Marshal(data)
	event := store.Event{
		ID:            "event-123",
		AggregateID:   "agg-123",
		AggregateType: aggregateType,
		EventType:     eventType,
		Data:          jsonData,
		Timestamp:     time.Now(),
		Version:       version,
	}
	result, _ := json.Marshal(event)
	return result
}

func project(t *testing.T, p *Projector, aggregateType, eventType string, version int, data any) {
	t.Helper()
	require.NoError(t, p.HandleEvent(context.Background(), nil, makeEvent(aggregateType, eventType, version, data)))
}

func seedProduct(readStore *mocks.MockReadStore, stock, stockVersion int) {
	readStore.SetData(readmodel.CollectionProducts, "prod-1", &readmodel.ProductReadModel{
		ID:              "prod-1",
		SKU:             "ARZ-001",
		Name:            "Arroz",
		CategoryID:      "cat-1",
		SalePrice:       decimal.RequireFromString("8.99"),
		QuantityInStock: stock,
		StockVersion:    stockVersion,
		Active:          true,
	})
}

// ============================================
// Lookup and Supplier Event Tests
// ============================================

func TestProjector_LookupLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()

	project(t, projector, string(lookup.Department), lookup.EventCreated, 1, lookup.LookupCreated{ID: "dep-1", Name: "Cozinha"})
	project(t, projector, string(lookup.Department), lookup.EventDeactivated, 2, lookup.LookupDeactivated{ID: "dep-1"})

	data, ok := readStore.GetData(readmodel.CollectionDepartments, "dep-1")
	require.True(t, ok)
	dep := data.(*readmodel.LookupReadModel)
	assert.Equal(t, "Cozinha", dep.Name)
	assert.False(t, dep.Active)

	_, ok = readStore.GetData(readmodel.CollectionCategories, "dep-1")
	assert.False(t, ok)
}

func TestProjector_CategoryRenamePropagatesToProducts(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 0, 0)

	project(t, projector, string(lookup.Category), lookup.EventCreated, 1, lookup.LookupCreated{ID: "cat-1", Name: "Grãos"})
	project(t, projector, string(lookup.Category), lookup.EventUpdated, 2, lookup.LookupUpdated{ID: "cat-1", Name: "Cereais"})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	assert.Equal(t, "Cereais", data.(*readmodel.ProductReadModel).CategoryName)
}

func TestProjector_SupplierCreatedAndUpdated(t *testing.T) {
	projector, readStore := newTestProjector()

	project(t, projector, supplier.AggregateType, supplier.EventSupplierCreated, 1, supplier.SupplierCreated{
		SupplierID: "sup-1",
		Contact:    supplier.Contact{Name: "Sul", CNPJ: "12345678000190"},
	})
	project(t, projector, supplier.AggregateType, supplier.EventSupplierUpdated, 2, supplier.SupplierUpdated{
		SupplierID: "sup-1",
		Contact:    supplier.Contact{Name: "Sul Ltda", CNPJ: "12345678000190", Phone: "5133330000"},
	})

	data, ok := readStore.GetData(readmodel.CollectionSuppliers, "sup-1")
	require.True(t, ok)
	s := data.(*readmodel.SupplierReadModel)
	assert.Equal(t, "Sul Ltda", s.Name)
	assert.Equal(t, "5133330000", s.Phone)
	assert.True(t, s.Active)
}

// ============================================
// Product Event Tests
// ============================================

func TestProjector_HandleProductCreated(t *testing.T) {
	projector, readStore := newTestProjector()
	readStore.SetData(readmodel.CollectionCategories, "cat-1", &readmodel.LookupReadModel{ID: "cat-1", Name: "Grãos", Active: true})
	readStore.SetData(readmodel.CollectionSuppliers, "sup-1", &readmodel.SupplierReadModel{ID: "sup-1", Name: "Sul"})

	project(t, projector, product.AggregateType, product.EventProductCreated, 1, product.ProductCreated{
		ProductID:  "prod-1",
		SKU:        "ARZ-001",
		Name:       "Arroz",
		CategoryID: "cat-1",
		SupplierID: "sup-1",
		SalePrice:  decimal.RequireFromString("8.99"),
		MinStock:   5,
	})

	data, ok := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	require.True(t, ok)
	prod := data.(*readmodel.ProductReadModel)
	assert.Equal(t, "Grãos", prod.CategoryName)
	assert.Equal(t, "Sul", prod.SupplierName)
	assert.Equal(t, 0, prod.QuantityInStock)
	assert.True(t, prod.Active)
	assert.True(t, prod.IsLowStock())
}

func TestProjector_ProductCreatedRedeliveryKeepsStock(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 12, 3)

	project(t, projector, product.AggregateType, product.EventProductCreated, 1, product.ProductCreated{
		ProductID: "prod-1",
		SKU:       "ARZ-001",
		Name:      "Arroz",
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	assert.Equal(t, 12, data.(*readmodel.ProductReadModel).QuantityInStock)
}

func TestProjector_HandleProductUpdated(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 7, 1)

	project(t, projector, product.AggregateType, product.EventProductUpdated, 2, product.ProductUpdated{
		ProductID:  "prod-1",
		SKU:        "ARZ-002",
		Name:       "Arroz Integral",
		CategoryID: "cat-1",
		SalePrice:  decimal.RequireFromString("10.50"),
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	prod := data.(*readmodel.ProductReadModel)
	assert.Equal(t, "Arroz Integral", prod.Name)
	assert.Equal(t, "ARZ-002", prod.SKU)
	assert.Equal(t, "10.5", prod.SalePrice.String())
	assert.Equal(t, 7, prod.QuantityInStock)
}

func TestProjector_HandleProductDeactivated(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 0, 0)

	project(t, projector, product.AggregateType, product.EventProductDeactivated, 2, product.ProductDeactivated{ProductID: "prod-1"})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	assert.False(t, data.(*readmodel.ProductReadModel).Active)
}

// ============================================
// Stock Movement Event Tests
// ============================================

func TestProjector_HandleStockMoved(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 0, 0)
	readStore.SetData(readmodel.CollectionDepartments, "dep-1", &readmodel.LookupReadModel{ID: "dep-1", Name: "Cozinha"})

	project(t, projector, inventory.AggregateType, inventory.EventStockMoved, 1, inventory.StockMoved{
		MovementID:    "mov-1",
		ProductID:     "prod-1",
		Type:          inventory.MovementRequisition,
		Quantity:      2,
		Delta:         -2,
		QuantityAfter: 8,
		DepartmentID:  "dep-1",
	})

	data, ok := readStore.GetData(readmodel.CollectionMovements, "mov-1")
	require.True(t, ok)
	mov := data.(*readmodel.MovementReadModel)
	assert.Equal(t, "Arroz", mov.ProductName)
	assert.Equal(t, "ARZ-001", mov.ProductSKU)
	assert.Equal(t, "Cozinha", mov.DepartmentName)
	assert.Equal(t, -2, mov.Delta)

	data, _ = readStore.GetData(readmodel.CollectionProducts, "prod-1")
	prod := data.(*readmodel.ProductReadModel)
	assert.Equal(t, 8, prod.QuantityInStock)
	assert.Equal(t, 1, prod.StockVersion)
}

func TestProjector_HandleStockMoved_StaleVersionIgnored(t *testing.T) {
	projector, readStore := newTestProjector()
	seedProduct(readStore, 20, 5)

	project(t, projector, inventory.AggregateType, inventory.EventStockMoved, 4, inventory.StockMoved{
		MovementID:    "mov-4",
		ProductID:     "prod-1",
		Type:          inventory.MovementPurchase,
		Quantity:      3,
		Delta:         3,
		QuantityAfter: 17,
	})

	data, _ := readStore.GetData(readmodel.CollectionProducts, "prod-1")
	assert.Equal(t, 20, data.(*readmodel.ProductReadModel).QuantityInStock)
}

// ============================================
// Cart Event Tests
// ============================================

func TestProjector_CartEvents(t *testing.T) {
	projector, readStore := newTestProjector()
	price := decimal.RequireFromString("8.99")

	project(t, projector, cart.AggregateType, cart.EventProductAdded, 1, cart.ProductAdded{CartID: "cart-u", CashierID: "u", ProductID: "A", Name: "Arroz", UnitPrice: price})
	project(t, projector, cart.AggregateType, cart.EventProductAdded, 2, cart.ProductAdded{CartID: "cart-u", CashierID: "u", ProductID: "B", Name: "Sabonete", UnitPrice: decimal.RequireFromString("2.49")})
	project(t, projector, cart.AggregateType, cart.EventQuantitySet, 3, cart.QuantitySet{CartID: "cart-u", CashierID: "u", ProductID: "A", Quantity: 2})
	project(t, projector, cart.AggregateType, cart.EventQuantitySet, 4, cart.QuantitySet{CartID: "cart-u", CashierID: "u", ProductID: "B", Quantity: 3})

	data, ok := readStore.GetData(readmodel.CollectionCarts, "cart-u")
	require.True(t, ok)
	c := data.(*readmodel.CartReadModel)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "25.45", c.Total.StringFixed(2))
	assert.Equal(t, 4, c.Version)

	// redelivery of an applied event changes nothing
	project(t, projector, cart.AggregateType, cart.EventProductAdded, 1, cart.ProductAdded{CartID: "cart-u", CashierID: "u", ProductID: "A", Name: "Arroz", UnitPrice: price})
	assert.Equal(t, 2, c.Lines[0].Quantity)

	project(t, projector, cart.AggregateType, cart.EventProductRemoved, 5, cart.ProductRemoved{CartID: "cart-u", CashierID: "u", ProductID: "A"})
	project(t, projector, cart.AggregateType, cart.EventCartCleared, 6, cart.CartCleared{CartID: "cart-u", CashierID: "u"})

	data, _ = readStore.GetData(readmodel.CollectionCarts, "cart-u")
	c = data.(*readmodel.CartReadModel)
	assert.Empty(t, c.Lines)
	assert.True(t, c.Total.IsZero())
}

// ============================================
// Sale Event Tests
// ============================================

func TestProjector_SaleLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()

	project(t, projector, sale.AggregateType, sale.EventSaleCompleted, 1, sale.SaleCompleted{
		SaleID:        "sale-1",
		CashierID:     "u",
		CashierName:   "Joana",
		PaymentMethod: sale.PaymentPix,
		Lines: []sale.Line{
			{ProductID: "A", ProductName: "Arroz", Quantity: 2, UnitPrice: decimal.RequireFromString("8.99")},
		},
		TotalAmount: decimal.RequireFromString("17.98"),
	})

	data, ok := readStore.GetData(readmodel.CollectionSales, "sale-1")
	require.True(t, ok)
	s := data.(*readmodel.SaleReadModel)
	assert.Equal(t, "COMPLETED", s.Status)
	assert.Equal(t, "PIX", s.PaymentMethod)
	require.Len(t, s.Lines, 1)
	assert.Equal(t, "17.98", s.Lines[0].LineTotal.StringFixed(2))

	project(t, projector, sale.AggregateType, sale.EventSaleRefunded, 2, sale.SaleRefunded{SaleID: "sale-1", Reason: "defeito"})

	data, _ = readStore.GetData(readmodel.CollectionSales, "sale-1")
	s = data.(*readmodel.SaleReadModel)
	assert.Equal(t, "REFUNDED", s.Status)
	assert.Equal(t, "defeito", s.StatusReason)
}

// ============================================
// User Event Tests
// ============================================

func TestProjector_UserLifecycle(t *testing.T) {
	projector, readStore := newTestProjector()
	loggedAt := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	project(t, projector, user.AggregateType, user.EventUserCreated, 1, user.UserCreated{UserID: "u", Login: "caixa01", Name: "Joana", Role: auth.RoleCashier})
	project(t, projector, user.AggregateType, user.EventUserUpdated, 2, user.UserUpdated{UserID: "u", Name: "Joana S.", Role: auth.RoleManager})
	project(t, projector, user.AggregateType, user.EventUserLoggedIn, 3, user.UserLoggedIn{UserID: "u", LoggedAt: loggedAt})
	project(t, projector, user.AggregateType, user.EventUserDeactivated, 4, user.UserDeactivated{UserID: "u"})

	data, ok := readStore.GetData(readmodel.CollectionUsers, "u")
	require.True(t, ok)
	u := data.(*readmodel.UserReadModel)
	assert.Equal(t, "caixa01", u.Login)
	assert.Equal(t, "Joana S.", u.Name)
	assert.Equal(t, "MANAGER", u.Role)
	require.NotNil(t, u.LastLoginAt)
	assert.True(t, loggedAt.Equal(*u.LastLoginAt))
	assert.False(t, u.IsActive)
}

// ============================================
// Dispatch Tests
// ============================================

func TestProjector_HandleEvent_InvalidJSON(t *testing.T) {
	projector, _ := newTestProjector()

	err := projector.HandleEvent(context.Background(), nil, []byte("not json"))

	assert.Error(t, err)
}

func TestProjector_HandleUnknownAggregate(t *testing.T) {
	projector, readStore := newTestProjector()

	project(t, projector, "Unknown", "SomethingHappened", 1, map[string]string{"x": "y"})

	assert.Empty(t, readStore.SetCalls)
	assert.Empty(t, readStore.UpdateCalls)
}

func TestSyncPublisher_ProjectsAppendedEvents(t *testing.T) {
	readStore := store.NewReadStore()
	publisher := NewSyncPublisher(NewProjector(readStore))
	eventStore := store.NewEventStore(publisher)

	svc := lookup.NewService(lookup.Category, eventStore)
	created, err := svc.Create(context.Background(), "Bebidas", "")
	require.NoError(t, err)

	data, ok := readStore.Get(readmodel.CollectionCategories, created.ID)
	require.True(t, ok)
	assert.Equal(t, "Bebidas", data.(*readmodel.LookupReadModel).Name)
}

func TestProjector_Replay(t *testing.T) {
	eventStore := store.NewEventStore(nil)
	ctx := context.Background()

	sup := supplier.NewService(eventStore)
	s, err := sup.Create(ctx, supplier.Contact{Name: "Sul"})
	require.NoError(t, err)
	require.NoError(t, sup.Deactivate(ctx, s.ID))

	readStore := store.NewReadStore()
	projector := NewProjector(readStore)
	require.NoError(t, projector.Replay(ctx, eventStore.GetAllEvents()))
	// a second replay over a populated store converges on the same state
	require.NoError(t, projector.Replay(ctx, eventStore.GetAllEvents()))

	data, ok := readStore.Get(readmodel.CollectionSuppliers, s.ID)
	require.True(t, ok)
	assert.False(t, data.(*readmodel.SupplierReadModel).Active)
}
