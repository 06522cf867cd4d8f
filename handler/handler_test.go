package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"storefront/models"
	"storefront/service"
	"storefront/store/memstore"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type errorBody struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func newTestServer(t *testing.T) (http.Handler, *service.Service) {
	t.Helper()
	log := zaptest.NewLogger(t)
	svc := service.NewService(memstore.New(), log, service.Config{})
	return NewHandler(svc, log).Routes(), svc
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createProduct(t *testing.T, h http.Handler, name, price string, qty int) models.Product {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/products", map[string]any{
		"name": name, "price": price, "quantity": qty,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[models.Product](t, rec)
}

func TestHealthAndRequestID(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))
}

func TestCORSPreflight(t *testing.T) {
	h, _ := newTestServer(t)
	rec := do(t, h, http.MethodOptions, "/api/checkout", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCheckoutFlow(t *testing.T) {
	h, _ := newTestServer(t)
	p := createProduct(t, h, "Widget", "9.99", 5)

	rec := do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	cart := decodeBody[cartResp](t, do(t, h, http.MethodGet, "/api/carts?username=alice", nil))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 3, cart.Items[0].Quantity)

	// client-supplied items and totals are ignored
	rec = do(t, h, http.MethodPost, "/api/checkout", map[string]any{
		"username":     "alice",
		"items":        []map[string]any{{"product_id": p.ID, "quantity": 1, "price": "0.01"}},
		"total_amount": "0.01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	resp := decodeBody[checkoutResp](t, rec)
	assert.NotZero(t, resp.OrderID)
	assert.True(t, resp.Order.TotalAmount.Equal(decimal.RequireFromString("29.97")), resp.Order.TotalAmount.String())

	got := decodeBody[models.Product](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil))
	assert.Equal(t, 2, got.Quantity)

	cart = decodeBody[cartResp](t, do(t, h, http.MethodGet, "/api/carts?username=alice", nil))
	assert.Empty(t, cart.Items)

	order := decodeBody[models.Order](t, do(t, h, http.MethodGet, "/api/orders/"+itoa(resp.OrderID), nil))
	assert.Equal(t, "alice", order.Username)

	orders := decodeBody[[]models.Order](t, do(t, h, http.MethodGet, "/api/orders?username=alice", nil))
	assert.Len(t, orders, 1)
}

func TestCheckoutErrors(t *testing.T) {
	h, _ := newTestServer(t)
	p := createProduct(t, h, "Scarce", "5.00", 2)

	rec := do(t, h, http.MethodPost, "/api/checkout", map[string]any{"username": "alice"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "empty_cart", decodeBody[errorBody](t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 3})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/checkout", map[string]any{"username": "alice"})
	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody[errorBody](t, rec)
	assert.Equal(t, "insufficient_stock", body.Error.Code)
	assert.EqualValues(t, p.ID, body.Error.Details["product_id"])
	assert.EqualValues(t, 2, body.Error.Details["available"])
	assert.EqualValues(t, 3, body.Error.Details["requested"])

	rec = do(t, h, http.MethodPost, "/api/checkout", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutAcceptsLegacyItemShapes(t *testing.T) {
	h, _ := newTestServer(t)
	p := createProduct(t, h, "Widget", "1.00", 5)
	rec := do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 1})
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/checkout",
		bytes.NewBufferString(`{"username":"alice","items":[1,2],"total_amount":12.5}`))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.True(t, decodeBody[checkoutResp](t, rec).Order.TotalAmount.Equal(decimal.RequireFromString("1.00")))
}

func TestCartQuantityOverflow(t *testing.T) {
	h, _ := newTestServer(t)
	p := createProduct(t, h, "Widget", "1.00", 5)

	rec := do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": math.MaxInt})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": math.MaxInt32})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "invalid_request", decodeBody[errorBody](t, rec).Error.Code)

	cart := decodeBody[cartResp](t, do(t, h, http.MethodGet, "/api/carts?username=alice", nil))
	require.Len(t, cart.Items, 1)
	assert.Equal(t, math.MaxInt32, cart.Items[0].Quantity)

	rec = do(t, h, http.MethodPost, "/api/checkout", map[string]any{"username": "alice"})
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())

	got := decodeBody[models.Product](t, do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil))
	assert.Equal(t, 5, got.Quantity)
}

func TestProductRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/products", map[string]any{"name": "", "price": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	p := createProduct(t, h, "Lamp", "12.50", 3)

	rec = do(t, h, http.MethodPut, "/api/products/"+itoa(p.ID), map[string]any{"description": "desk lamp"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "desk lamp", decodeBody[models.Product](t, rec).Description)

	rec = do(t, h, http.MethodPut, "/api/products/"+itoa(p.ID)+"/stock", map[string]any{"new_stock": 1})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	low := decodeBody[[]models.Product](t, do(t, h, http.MethodGet, "/api/products/low-stock", nil))
	require.Len(t, low, 1)
	assert.Equal(t, 1, low[0].Quantity)

	list := decodeBody[[]models.Product](t, do(t, h, http.MethodGet, "/api/products", nil))
	assert.Len(t, list, 1)

	rec = do(t, h, http.MethodDelete, "/api/products/"+itoa(p.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/products/"+itoa(p.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody[errorBody](t, rec).Error.Code)
}

func TestCartRoutes(t *testing.T) {
	h, _ := newTestServer(t)
	p := createProduct(t, h, "Mug", "4.00", 10)

	rec := do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": 999, "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/carts", map[string]any{"username": "alice", "product_id": p.ID, "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPut, "/api/carts/"+itoa(p.ID), map[string]any{"username": "alice", "quantity": 5})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 5, decodeBody[models.CartLine](t, rec).Quantity)

	rec = do(t, h, http.MethodDelete, "/api/carts/"+itoa(p.ID)+"?username=alice", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/carts/"+itoa(p.ID)+"?username=alice", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/carts", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAccountRoutes(t *testing.T) {
	h, _ := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/users/create", map[string]any{
		"username": "erin", "email": "erin@example.com", "password_hash": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	u := decodeBody[models.User](t, rec)
	assert.NotContains(t, rec.Body.String(), "pw")

	rec = do(t, h, http.MethodPost, "/api/users/create", map[string]any{
		"username": "erin", "email": "erin2@example.com", "password_hash": "pw",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/users/login", map[string]any{"email": "erin@example.com", "password_hash": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/users/login", map[string]any{"email": "erin@example.com", "password_hash": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)

	total := decodeBody[map[string]int64](t, do(t, h, http.MethodGet, "/api/users/total", nil))
	assert.Equal(t, int64(1), total["totalUsers"])

	logins := decodeBody[[]models.User](t, do(t, h, http.MethodGet, "/api/users/recent-logins?limit=5", nil))
	require.Len(t, logins, 1)
	assert.NotNil(t, logins[0].LastLogin)

	rec = do(t, h, http.MethodPut, "/api/users/"+itoa(u.ID), map[string]any{"email": "e@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e@example.com", decodeBody[models.User](t, rec).Email)

	rec = do(t, h, http.MethodDelete, "/api/users/"+itoa(u.ID), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, h, http.MethodGet, "/api/users/"+itoa(u.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/admin/create", map[string]any{
		"adminusername": "root", "adminemail": "root@example.com", "adminpassword": "pw",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/api/admin/login", map[string]any{"adminemail": "root@example.com", "adminpassword": "pw"})
	assert.Equal(t, http.StatusOK, rec.Code)

	admins := decodeBody[map[string]int64](t, do(t, h, http.MethodGet, "/api/admins/total", nil))
	assert.Equal(t, int64(1), admins["totalAdmins"])
}

func TestSalesRoutes(t *testing.T) {
	h, svc := newTestServer(t)
	p := createProduct(t, h, "Widget", "2.50", 10)
	_, err := svc.AddToCart(context.Background(), "alice", p.ID, 4)
	require.NoError(t, err)
	_, err = svc.Checkout(context.Background(), "alice")
	require.NoError(t, err)

	type salesTotal struct {
		TotalSales decimal.Decimal `json:"totalSales"`
	}
	total := decodeBody[salesTotal](t, do(t, h, http.MethodGet, "/api/sales/total", nil))
	assert.True(t, total.TotalSales.Equal(decimal.RequireFromString("10.00")))

	orders := decodeBody[map[string]int64](t, do(t, h, http.MethodGet, "/api/sales/total-orders", nil))
	assert.Equal(t, int64(1), orders["totalOrders"])

	report := decodeBody[[]models.ProductSales](t, do(t, h, http.MethodGet, "/api/sales/report", nil))
	require.Len(t, report, 1)
	assert.Equal(t, 4, report[0].Quantity)
	legacy := decodeBody[[]models.ProductSales](t, do(t, h, http.MethodGet, "/api/sales-report", nil))
	assert.Equal(t, report, legacy)

	rec := do(t, h, http.MethodGet, "/api/sales/data", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "salesData")

	recent := decodeBody[[]models.RecentOrderLine](t, do(t, h, http.MethodGet, "/api/orders/recent?limit=abc", nil))
	assert.Len(t, recent, 1)
}

func TestBadJSONAndIDs(t *testing.T) {
	h, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody[errorBody](t, rec).Error.Code)

	rec = do(t, h, http.MethodGet, "/api/products/0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
