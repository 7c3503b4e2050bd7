package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/example/retail-pos/internal/auth"
	"github.com/example/retail-pos/internal/command"
	"github.com/example/retail-pos/internal/domain/cart"
	"github.com/example/retail-pos/internal/domain/inventory"
	"github.com/example/retail-pos/internal/domain/lookup"
	"github.com/example/retail-pos/internal/domain/product"
	"github.com/example/retail-pos/internal/domain/sale"
	"github.com/example/retail-pos/internal/domain/supplier"
	"github.com/example/retail-pos/internal/domain/user"
	"github.com/example/retail-pos/internal/infrastructure/redisx"
	"github.com/example/retail-pos/internal/infrastructure/store"
	"github.com/example/retail-pos/internal/projection"
	"github.com/example/retail-pos/internal/query"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-with-32-characters!"

// fakeRevoker keeps revoked token ids in memory
type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func (f *fakeRevoker) Revoke(_ context.Context, tokenID string, until time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[tokenID] = until
	return nil
}

func (f *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[tokenID]
	return ok, nil
}

// fakeIdempotency mirrors the redis claim/complete/abort protocol
type fakeIdempotency struct {
	mu      sync.Mutex
	results map[string]string
}

const pending = "\x00pending"

func (f *fakeIdempotency) Begin(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.results[key]
	switch {
	case !ok:
		f.results[key] = pending
		return "", true, nil
	case v == pending:
		return "", false, redisx.ErrInProgress
	}
	return v, false, nil
}

func (f *fakeIdempotency) Complete(_ context.Context, key, result string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[key] = result
	return nil
}

func (f *fakeIdempotency) Abort(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.results, key)
	return nil
}

type testEnv struct {
	router http.Handler
	idem   *fakeIdempotency
}

func newTestEnv() *testEnv {
	readStore := store.NewReadStore()
	projector := projection.NewProjector(readStore)
	eventStore := store.NewEventStore(projection.NewSyncPublisher(projector))

	queries := query.NewHandler(readStore)
	commands := command.NewHandler(command.Services{
		Categories:  lookup.NewService(lookup.Category, eventStore),
		Departments: lookup.NewService(lookup.Department, eventStore),
		Suppliers:   supplier.NewService(eventStore),
		Products:    product.NewService(eventStore),
		Inventory:   inventory.NewService(eventStore),
		Carts:       cart.NewService(eventStore),
		Sales:       sale.NewService(eventStore),
		Users:       user.NewService(eventStore),
	}, queries)

	jwtService := auth.NewJWTService(testSecret, 15*time.Minute, 24*time.Hour)
	revoker := &fakeRevoker{revoked: map[string]time.Time{}}
	idem := &fakeIdempotency{results: map[string]string{}}

	router := NewRouter(RouterConfig{
		Handlers:     NewHandlers(commands, queries, idem),
		AuthHandlers: NewAuthHandlers(commands, queries, jwtService, revoker),
		JWTService:   jwtService,
		Revoker:      revoker,
	})
	return &testEnv{router: router, idem: idem}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeAs[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

// bootstrap registers the first manager and returns their token.
func (e *testEnv) bootstrap(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"login": "gerente", "password": "senha-forte-123", "name": "Gerente",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[AuthResponse](t, rec).Token
}

// userToken creates a user with role and logs them in.
func (e *testEnv) userToken(t *testing.T, managerToken, login string, role auth.Role) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/users", managerToken, map[string]string{
		"login": login, "password": "senha-forte-123", "name": login, "role": string(role),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Login: login, Password: "senha-forte-123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decodeAs[AuthResponse](t, rec).Token
}

type idResponse struct {
	ID string `json:"id"`
}

// stockedProduct creates a product with qty units in stock and returns its id.
func (e *testEnv) stockedProduct(t *testing.T, managerToken, categoryID, sku, price string, qty int) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/products", managerToken, map[string]any{
		"sku": sku, "barcode": "789" + sku, "name": "Produto " + sku, "category_id": categoryID,
		"cost_price": "1.00", "sale_price": price, "min_stock": 2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeAs[idResponse](t, rec).ID

	rec = e.do(t, http.MethodPost, "/api/stock-movements", managerToken, map[string]any{
		"product_id": id, "type": "ADJUSTMENT", "quantity": qty, "reason": "inventário inicial",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return id
}

func (e *testEnv) category(t *testing.T, managerToken, name string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/categories", managerToken, map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeAs[idResponse](t, rec).ID
}

type cartBody struct {
	Lines []cart.Line     `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

type saleBody struct {
	ID          string          `json:"id"`
	CashierID   string          `json:"cashier_id"`
	CashierName string          `json:"cashier_name"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
}

type productBody struct {
	QuantityInStock int  `json:"quantity_in_stock"`
	Active          bool `json:"active"`
}

// ============================================
// Health and auth
// ============================================

func TestHealthz(t *testing.T) {
	env := newTestEnv()
	rec := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthz_DependencyDown(t *testing.T) {
	h := Health(map[string]HealthCheck{
		"redis": func(context.Context) error { return errors.New("connection refused") },
	})
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"down"`)
}

func TestRegister_BootstrapThenManagerOnly(t *testing.T) {
	env := newTestEnv()

	rec := env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"login": "Gerente", "password": "senha-forte-123", "name": "Gerente", "role": "CASHIER",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decodeAs[AuthResponse](t, rec)
	assert.NotEmpty(t, first.Token)
	assert.Equal(t, auth.RoleManager, first.User.Role)
	assert.Equal(t, "gerente", first.User.Login)
	assert.Contains(t, first.User.AllowedRoutes, auth.RouteUsers)

	// no longer public
	rec = env.do(t, http.MethodPost, "/auth/register", "", map[string]string{
		"login": "intruso", "password": "senha-forte-123", "name": "Intruso", "role": "MANAGER",
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/register", first.Token, map[string]string{
		"login": "caixa1", "password": "senha-forte-123", "name": "Caixa", "role": "CAIXA",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, auth.RoleCashier, decodeAs[UserResponse](t, rec).Role)
}

func TestLogin(t *testing.T) {
	env := newTestEnv()
	env.bootstrap(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Login: "gerente", Password: "errada-123456"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), user.ErrInvalidCredentials.Error())

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Login: " GERENTE ", Password: "senha-forte-123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var names []string
	for _, c := range rec.Result().Cookies() {
		names = append(names, c.Name)
	}
	assert.ElementsMatch(t, []string{"access_token", "refresh_token"}, names)

	token := decodeAs[AuthResponse](t, rec).Token
	rec = env.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeAs[UserResponse](t, rec)
	assert.Equal(t, "gerente", me.Login)
	assert.NotContains(t, me.AllowedRoutes, auth.RoutePOS)
	assert.NotNil(t, me.LastLoginAt)
}

func TestLogin_DeactivatedUser(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	env.userToken(t, manager, "caixa1", auth.RoleCashier)

	rec := env.do(t, http.MethodGet, "/api/users?size=10", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeAs[query.Page[UserResponse]](t, rec)
	require.Equal(t, 2, page.TotalElements)
	var cashierID string
	for _, u := range page.Content {
		if u.Login == "caixa1" {
			cashierID = u.ID
		}
	}
	require.NotEmpty(t, cashierID)

	rec = env.do(t, http.MethodPost, "/api/users/"+cashierID+"/deactivate", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Login: "caixa1", Password: "senha-forte-123"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLogout_RevokesToken(t *testing.T) {
	env := newTestEnv()
	token := env.bootstrap(t)

	rec := env.do(t, http.MethodPost, "/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token revoked")
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	env := newTestEnv()
	env.bootstrap(t)

	rec := env.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Login: "gerente", Password: "senha-forte-123"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	token := decodeAs[AuthResponse](t, rec).Token
	var refresh *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == "refresh_token" {
			refresh = c
		}
	}
	require.NotNil(t, refresh)
	assert.Equal(t, "/auth", refresh.Path)
	cookie := "refresh_token=" + refresh.Value

	rec = env.do(t, http.MethodPost, "/auth/refresh", "", nil, "Cookie", cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/auth/logout", token, nil, "Cookie", cookie)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/refresh", "", nil, "Cookie", cookie)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "token revoked")
}

func TestNavigate(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)

	tests := []struct {
		token string
		route string
		want  auth.Route
	}{
		{cashier, "users", auth.RouteDashboard},
		{cashier, "pos", auth.RoutePOS},
		{manager, "users", auth.RouteUsers},
		{manager, "pos", auth.RouteDashboard},
	}
	for _, tt := range tests {
		rec := env.do(t, http.MethodGet, "/api/navigate?route="+tt.route, tt.token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, tt.want, decodeAs[map[string]auth.Route](t, rec)["route"], tt.route)
	}
}

// ============================================
// Role gating
// ============================================

func TestRoleGating(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)
	clerk := env.userToken(t, manager, "estoque1", auth.RoleStockClerk)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"anonymous", http.MethodGet, "/api/products", "", http.StatusUnauthorized},
		{"cashier reads products", http.MethodGet, "/api/products", cashier, http.StatusOK},
		{"cashier lists users", http.MethodGet, "/api/users", cashier, http.StatusForbidden},
		{"cashier opens suppliers", http.MethodGet, "/api/suppliers", cashier, http.StatusForbidden},
		{"cashier creates category", http.MethodPost, "/api/categories", cashier, http.StatusForbidden},
		{"cashier reads categories", http.MethodGet, "/api/categories", cashier, http.StatusOK},
		{"cashier consumption report", http.MethodGet, "/api/reports/department-consumption", cashier, http.StatusForbidden},
		{"cashier dashboard", http.MethodGet, "/api/reports/dashboard", cashier, http.StatusOK},
		{"clerk opens suppliers", http.MethodGet, "/api/suppliers", clerk, http.StatusOK},
		{"clerk uses pos", http.MethodGet, "/api/pos/cart", clerk, http.StatusForbidden},
		{"clerk reads sales", http.MethodGet, "/api/sales", clerk, http.StatusForbidden},
		{"clerk low stock", http.MethodGet, "/api/reports/low-stock", clerk, http.StatusOK},
		{"cashier changes sale status", http.MethodPatch, "/api/sales/x/status", cashier, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.token, map[string]string{})
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

// ============================================
// Catalog
// ============================================

func TestProducts_CreateAndLookup(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Bebidas")
	id := env.stockedProduct(t, manager, catID, "SKU-1", "8.99", 5)

	rec := env.do(t, http.MethodGet, "/api/products/barcode/789SKU-1", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, decodeAs[idResponse](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/products/"+id, manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, decodeAs[productBody](t, rec).QuantityInStock)

	rec = env.do(t, http.MethodGet, "/api/products/"+id+"/movements", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decodeAs[query.Page[idResponse]](t, rec).TotalElements)

	rec = env.do(t, http.MethodGet, "/api/products/missing", manager, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProducts_HugePageIsEmpty(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Bebidas")
	env.stockedProduct(t, manager, catID, "SKU-1", "8.99", 5)

	rec := env.do(t, http.MethodGet, "/api/products?size=100&page=184467440737095516", manager, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	page := decodeAs[query.Page[idResponse]](t, rec)
	assert.Empty(t, page.Content)
	assert.Equal(t, 1, page.TotalElements)
}

func TestProducts_Rejections(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Bebidas")
	env.stockedProduct(t, manager, catID, "SKU-1", "8.99", 5)

	tests := []struct {
		name string
		body map[string]any
		want int
	}{
		{"duplicate sku", map[string]any{"sku": "sku-1", "name": "Outro", "category_id": catID, "sale_price": "1"}, http.StatusConflict},
		{"unknown category", map[string]any{"sku": "SKU-2", "name": "Outro", "category_id": "nope", "sale_price": "1"}, http.StatusBadRequest},
		{"zero price", map[string]any{"sku": "SKU-3", "name": "Outro", "category_id": catID, "sale_price": "0"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/products", manager, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}

	rec := env.do(t, http.MethodPost, "/api/products", manager, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_DeactivateWithStockRejected(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Bebidas")
	id := env.stockedProduct(t, manager, catID, "SKU-1", "8.99", 5)

	rec := env.do(t, http.MethodDelete, "/api/products/"+id, manager, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/stock-movements", manager, map[string]any{
		"product_id": id, "type": "ADJUSTMENT", "quantity": -5, "reason": "perda",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/products/"+id, manager, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// inactive products drop out of the default listing
	rec = env.do(t, http.MethodGet, "/api/products", manager, nil)
	assert.Equal(t, 0, decodeAs[query.Page[idResponse]](t, rec).TotalElements)
	rec = env.do(t, http.MethodGet, "/api/products?active=false", manager, nil)
	assert.Equal(t, 1, decodeAs[query.Page[idResponse]](t, rec).TotalElements)
}

func TestStockMovement_OutflowBeyondStock(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Limpeza")
	id := env.stockedProduct(t, manager, catID, "SKU-1", "3.50", 2)

	rec := env.do(t, http.MethodPost, "/api/departments", manager, map[string]string{"name": "Cozinha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	depID := decodeAs[idResponse](t, rec).ID

	rec = env.do(t, http.MethodPost, "/api/stock-movements", manager, map[string]any{
		"product_id": id, "type": "REQUISITION", "quantity": 3, "department_id": depID,
	})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, "/api/stock-movements", manager, map[string]any{
		"product_id": id, "type": "SALE", "quantity": 1,
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// ============================================
// POS and sales
// ============================================

func TestCheckoutFlow(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)
	catID := env.category(t, manager, "Mercearia")
	a := env.stockedProduct(t, manager, catID, "A", "8.99", 10)
	b := env.stockedProduct(t, manager, catID, "B", "2.49", 10)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/pos/cart/items", cashier, map[string]string{"product_id": a}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/pos/cart/items", cashier, map[string]string{"code": "789A"}).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/api/pos/cart/items", cashier, map[string]string{"code": "B"}).Code)
	rec := env.do(t, http.MethodPut, "/api/pos/cart/items/"+b, cashier, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	c := decodeAs[cartBody](t, rec)
	require.Len(t, c.Lines, 2)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.True(t, decimal.RequireFromString("25.45").Equal(c.Total), c.Total.String())

	rec = env.do(t, http.MethodPost, "/api/pos/checkout", cashier, map[string]string{"payment_method": "PIX"}, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	s := decodeAs[saleBody](t, rec)
	assert.True(t, decimal.RequireFromString("25.45").Equal(s.TotalAmount))
	assert.Equal(t, "caixa1", s.CashierName)
	assert.Equal(t, "COMPLETED", s.Status)

	// the retry replays the first sale
	rec = env.do(t, http.MethodPost, "/api/pos/checkout", cashier, map[string]string{"payment_method": "PIX"}, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, s.ID, decodeAs[saleBody](t, rec).ID)

	rec = env.do(t, http.MethodGet, "/api/products/"+a, manager, nil)
	assert.Equal(t, 8, decodeAs[productBody](t, rec).QuantityInStock)
	rec = env.do(t, http.MethodGet, "/api/products/"+b, manager, nil)
	assert.Equal(t, 7, decodeAs[productBody](t, rec).QuantityInStock)

	rec = env.do(t, http.MethodGet, "/api/pos/cart", cashier, nil)
	assert.Empty(t, decodeAs[cartBody](t, rec).Lines)

	rec = env.do(t, http.MethodGet, "/api/sales/revenue", manager, nil)
	assert.Contains(t, rec.Body.String(), "25.45")
	rec = env.do(t, http.MethodGet, "/api/sales/count", manager, nil)
	assert.Equal(t, 1, decodeAs[map[string]int](t, rec)["count"])
}

func TestCheckout_ValidatesBeforeRecording(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)

	rec := env.do(t, http.MethodPost, "/api/pos/checkout", cashier, map[string]string{"payment_method": ""}, idempotencyHeader, "k-1")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeAs[map[string][]string](t, rec)
	assert.ElementsMatch(t, []string{cart.ErrEmptyCart.Error(), cart.ErrPaymentMethodRequired.Error()}, body["errors"])

	// the key was released so a corrected request can reuse it
	assert.Empty(t, env.idem.results)

	rec = env.do(t, http.MethodGet, "/api/sales/count", manager, nil)
	assert.Equal(t, 0, decodeAs[map[string]int](t, rec)["count"])
}

func TestCheckout_InProgress(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)

	rec := env.do(t, http.MethodGet, "/api/me", cashier, nil)
	cashierID := decodeAs[UserResponse](t, rec).ID
	env.idem.results[redisx.CheckoutKey(cashierID, "k-1")] = pending

	rec = env.do(t, http.MethodPost, "/api/pos/checkout", cashier, map[string]string{"payment_method": "CASH"}, idempotencyHeader, "k-1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSales_CashierSeesOwnOnly(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier1 := env.userToken(t, manager, "caixa1", auth.RoleCashier)
	cashier2 := env.userToken(t, manager, "caixa2", auth.RoleCashier)
	catID := env.category(t, manager, "Mercearia")
	a := env.stockedProduct(t, manager, catID, "A", "8.99", 10)

	rec := env.do(t, http.MethodPost, "/api/sales", cashier1, map[string]any{
		"lines": []map[string]any{{"product_id": a, "quantity": 2}}, "payment_method": "dinheiro",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saleID := decodeAs[saleBody](t, rec).ID

	rec = env.do(t, http.MethodGet, "/api/sales", cashier2, nil)
	assert.Equal(t, 0, decodeAs[query.Page[saleBody]](t, rec).TotalElements)
	rec = env.do(t, http.MethodGet, "/api/sales/"+saleID, cashier2, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/sales/"+saleID, cashier1, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/sales?search=produto", manager, nil)
	assert.Equal(t, 1, decodeAs[query.Page[saleBody]](t, rec).TotalElements)
}

func TestSales_CancelRestocks(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	cashier := env.userToken(t, manager, "caixa1", auth.RoleCashier)
	catID := env.category(t, manager, "Mercearia")
	a := env.stockedProduct(t, manager, catID, "A", "8.99", 10)

	rec := env.do(t, http.MethodPost, "/api/sales", cashier, map[string]any{
		"lines": []map[string]any{{"product_id": a, "quantity": 4}}, "payment_method": "CARD",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	saleID := decodeAs[saleBody](t, rec).ID

	rec = env.do(t, http.MethodPatch, "/api/sales/"+saleID+"/status", manager, map[string]string{"status": "cancelled", "reason": "cliente desistiu"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELLED", decodeAs[map[string]string](t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/api/products/"+a, manager, nil)
	assert.Equal(t, 10, decodeAs[productBody](t, rec).QuantityInStock)

	rec = env.do(t, http.MethodPatch, "/api/sales/"+saleID+"/status", manager, map[string]string{"status": "REFUNDED"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

// ============================================
// Reports
// ============================================

func TestDepartmentConsumption(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Limpeza")
	id := env.stockedProduct(t, manager, catID, "SKU-1", "3.50", 10)

	rec := env.do(t, http.MethodPost, "/api/departments", manager, map[string]string{"name": "Cozinha"})
	require.Equal(t, http.StatusCreated, rec.Code)
	depID := decodeAs[idResponse](t, rec).ID

	rec = env.do(t, http.MethodPost, "/api/stock-movements", manager, map[string]any{
		"product_id": id, "type": "REQUISITION", "quantity": 3, "department_id": depID, "unit_cost": "2.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	today := time.Now().Format(time.DateOnly)
	rec = env.do(t, http.MethodGet, "/api/reports/department-consumption?start="+today+"&end="+today, manager, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var report struct {
		Departments []query.DepartmentConsumption `json:"departments"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	require.Len(t, report.Departments, 1)
	assert.Equal(t, "Cozinha", report.Departments[0].Department.Name)
	assert.Equal(t, 3, report.Departments[0].ItemsConsumed)
	assert.True(t, decimal.RequireFromString("6").Equal(report.Departments[0].TotalValueConsumed))
}

func TestDepartmentConsumption_BadPeriod(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)

	for _, q := range []string{"", "?start=2024-02-10&end=2024-02-01", "?start=10/02/2024&end=2024-02-01"} {
		rec := env.do(t, http.MethodGet, "/api/reports/department-consumption"+q, manager, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestDashboard(t *testing.T) {
	env := newTestEnv()
	manager := env.bootstrap(t)
	catID := env.category(t, manager, "Limpeza")
	env.stockedProduct(t, manager, catID, "SKU-1", "3.50", 1)
	env.stockedProduct(t, manager, catID, "SKU-2", "3.50", 4)

	rec := env.do(t, http.MethodGet, "/api/reports/dashboard", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	d := decodeAs[query.Dashboard](t, rec)
	assert.Equal(t, 2, d.TotalProducts)
	assert.Equal(t, 1, d.LowStockCount)
	assert.True(t, decimal.RequireFromString("5").Equal(d.TotalStockValue))
	assert.Len(t, d.RecentMovements, 2)
}
