package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pos/internal/domain"
	"github.com/vladislavdragonenkov/pos/internal/httpapi"
	"github.com/vladislavdragonenkov/pos/internal/service/auth"
	"github.com/vladislavdragonenkov/pos/internal/service/checkout"
	"github.com/vladislavdragonenkov/pos/internal/service/pricing"
	"github.com/vladislavdragonenkov/pos/internal/service/report"
	"github.com/vladislavdragonenkov/pos/internal/storage/memory"
)

type env struct {
	catalog   domain.CatalogRepository
	stock     domain.StockRepository
	employees domain.EmployeeRepository
	outbox    domain.OutboxRepository
	router    http.Handler
}

func newEnv(t *testing.T) *env {
	t.Helper()

	catalog := memory.NewCatalogRepository()
	stock := memory.NewStockRepository()
	transactions := memory.NewTransactionRepository()
	members := memory.NewMemberRepository()
	employees := memory.NewEmployeeRepository()
	outbox := memory.NewOutboxRepository()
	idem := memory.NewIdempotencyRepository()

	pricer := pricing.NewDefaultEngine()
	coordinator := checkout.NewServiceWithoutMetrics(catalog, stock, transactions, pricer, outbox, nil)
	authSvc := auth.NewService(employees, nil)
	reportSvc := report.NewService(transactions, nil)

	handler := httpapi.NewHandler(coordinator, catalog, stock, members, idem, outbox, authSvc, reportSvc, pricer, nil)

	return &env{
		catalog:   catalog,
		stock:     stock,
		employees: employees,
		outbox:    outbox,
		router:    httpapi.NewRouter(handler),
	}
}

func (e *env) seedProduct(t *testing.T, id, price string, qty int32) {
	t.Helper()

	now := time.Now().UTC()
	require.NoError(t, e.catalog.Create(domain.Product{
		ID:        id,
		Name:      "product " + id,
		UnitPrice: decimal.RequireFromString(price),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}))
	require.NoError(t, e.stock.SetQuantity(id, "M", qty))
}

func (e *env) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func orderBody(memberID string, qty int32) map[string]any {
	return map[string]any{
		"member_id":      memberID,
		"customer_ref":   "walk-in",
		"payment_method": "CASH",
		"lines": []map[string]any{
			{"product_id": "TS001", "size": "M", "qty": qty},
		},
	}
}

func TestPlaceOrderEndpoint(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 10)

	rec := e.do(t, http.MethodPost, "/v1/orders", orderBody("M001", 2), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S00000001", resp["transaction_id"])
	assert.Equal(t, "39.80", resp["subtotal"])
	assert.Equal(t, "1.99", resp["discount"])
	assert.Equal(t, "37.81", resp["total"])
	assert.Equal(t, true, resp["member_discount_applied"])
}

func TestPlaceOrderEndpoint_InsufficientStock(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 1)

	rec := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 5), nil)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
}

func TestPlaceOrderEndpoint_ValidationError(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodPost, "/v1/orders", map[string]any{
		"payment_method": "CASH",
		"lines":          []map[string]any{},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
}

func TestPlaceOrderEndpoint_IdempotentReplay(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 10)

	headers := map[string]string{"Idempotency-Key": "req-1"}

	first := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 2), headers)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 2), headers)
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotency-Replayed"))
	assert.JSONEq(t, first.Body.String(), second.Body.String())

	// Повтор не списывает остаток второй раз.
	qty, err := e.stock.Quantity("TS001", "M")
	require.NoError(t, err)
	assert.Equal(t, int32(8), qty)
}

func TestPlaceOrderEndpoint_IdempotencyHashMismatch(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 10)

	headers := map[string]string{"Idempotency-Key": "req-1"}

	first := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 2), headers)
	require.Equal(t, http.StatusCreated, first.Code)

	// Тот же ключ с другим телом запроса.
	rec := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 3), headers)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestGetOrderEndpoint(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 10)

	created := e.do(t, http.MethodPost, "/v1/orders", orderBody("", 1), nil)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := e.do(t, http.MethodGet, "/v1/orders/S00000001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Header struct {
			ID string `json:"id"`
		} `json:"header"`
		Lines []struct {
			ProductID string `json:"product_id"`
			Qty       int32  `json:"qty"`
		} `json:"lines"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S00000001", resp.Header.ID)
	require.Len(t, resp.Lines, 1)
	assert.Equal(t, "TS001", resp.Lines[0].ProductID)
}

func TestGetOrderEndpoint_NotFound(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/orders/S99999999", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProductEndpoints(t *testing.T) {
	e := newEnv(t)

	created := e.do(t, http.MethodPost, "/v1/products", map[string]any{
		"id":         "ts001",
		"name":       "Basic Tee",
		"category":   "tops",
		"unit_price": "19.90",
		"active":     true,
	}, nil)
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())

	rec := e.do(t, http.MethodGet, "/v1/products/TS001", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var product map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	assert.Equal(t, "TS001", product["id"])
	assert.Equal(t, "19.90", product["unit_price"])
}

func TestStockEndpoints(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 0)

	set := e.do(t, http.MethodPut, "/v1/stock/TS001/M", map[string]any{"qty": 7}, nil)
	require.Equal(t, http.StatusOK, set.Code, set.Body.String())

	inc := e.do(t, http.MethodPost, "/v1/stock/TS001/M/increase", map[string]any{"qty": 3}, nil)
	require.Equal(t, http.StatusOK, inc.Code, inc.Body.String())

	rec := e.do(t, http.MethodGet, "/v1/stock/TS001?size=M", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(10), resp["qty"])
	assert.Equal(t, float64(10), resp["total"])
}

func TestStockAdminEmitsEvents(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 0)

	set := e.do(t, http.MethodPut, "/v1/stock/ts001/M", map[string]any{"qty": 7}, nil)
	require.Equal(t, http.StatusOK, set.Code, set.Body.String())

	inc := e.do(t, http.MethodPost, "/v1/stock/TS001/M/increase", map[string]any{"qty": 3}, nil)
	require.Equal(t, http.StatusOK, inc.Code, inc.Body.String())

	pending, err := e.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	types := make(map[string]int)
	for _, msg := range pending {
		assert.Equal(t, "stock", msg.AggregateType)
		assert.Equal(t, "TS001", msg.AggregateID)
		types[msg.EventType]++
	}
	assert.Equal(t, 1, types["stock.adjusted"])
	assert.Equal(t, 1, types["stock.restocked"])
}

func TestLoginEndpoint(t *testing.T) {
	e := newEnv(t)

	hash, err := auth.HashPassword("s3cret")
	require.NoError(t, err)
	require.NoError(t, e.employees.Create(domain.Employee{
		ID:           "E001",
		Login:        "cashier1",
		Name:         "Cashier",
		PasswordHash: hash,
		Role:         domain.EmployeeRoleCashier,
		CreatedAt:    time.Now().UTC(),
	}))

	ok := e.do(t, http.MethodPost, "/v1/login", map[string]any{"login": "cashier1", "password": "s3cret"}, nil)
	require.Equal(t, http.StatusOK, ok.Code, ok.Body.String())

	bad := e.do(t, http.MethodPost, "/v1/login", map[string]any{"login": "cashier1", "password": "wrong"}, nil)
	assert.Equal(t, http.StatusUnauthorized, bad.Code)
}

func TestDiscountRateEndpoint(t *testing.T) {
	e := newEnv(t)

	rec := e.do(t, http.MethodGet, "/v1/discount-rate", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "0.05", resp["discount_rate"])
}

func TestReportSummaryEndpoint(t *testing.T) {
	e := newEnv(t)
	e.seedProduct(t, "TS001", "19.90", 10)

	created := e.do(t, http.MethodPost, "/v1/orders", orderBody("M001", 2), nil)
	require.Equal(t, http.StatusCreated, created.Code)

	rec := e.do(t, http.MethodGet, "/v1/reports/summary", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["transactions"])
	assert.Equal(t, "37.81", resp["revenue"])
	assert.Equal(t, float64(1), resp["member_sales"])
}
