package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	appcash "github.com/erp/pos/internal/application/cash"
	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/application/ledger/ledgertest"
	apporder "github.com/erp/pos/internal/application/order"
	"github.com/erp/pos/internal/application/query"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// testEnv wires real services over the in-memory ledger store
type testEnv struct {
	store    *ledgertest.Store
	engine   *gin.Engine
	branchID uuid.UUID
	cashier  uuid.UUID
	product  uuid.UUID
	customer uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := ledgertest.NewStore()
	store.AddDefaultSequences()

	env := &testEnv{
		store:    store,
		branchID: uuid.New(),
		cashier:  uuid.New(),
		product:  uuid.New(),
		customer: uuid.New(),
	}
	store.AddStock(env.product, env.branchID, "Arroz Selecto 5lb", decimal.NewFromInt(10), decimal.NewFromInt(30))
	store.AddAccount(env.customer, "Colmado La Esquina", decimal.NewFromInt(500), decimal.Zero)

	repos := store.Repos()
	series := ledger.DefaultNumberSeries()
	saleService := appsale.NewSaleService(store, repos.SaleRepo(), series)
	orderService := apporder.NewOrderService(store, repos.OrderRepo(), series)
	cashService := appcash.NewCashSessionService(store, repos.DrawerRepo(),
		appcash.NewRepositoryReportReader(repos.DrawerRepo(), repos.SaleRepo()), "es-DO")
	queryService := query.NewQueryService(repos.StockRepo(), repos.CreditRepo(), repos.DrawerRepo(), nil)

	sales := NewSaleHandler(saleService)
	orders := NewOrderHandler(orderService)
	drawers := NewDrawerHandler(cashService, queryService)
	queries := NewQueryHandler(queryService)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ResolveActor(middleware.ActorConfig{}))

	r.POST("/sales", sales.Create)
	r.GET("/sales", sales.List)
	r.GET("/sales/:id", sales.Get)
	r.POST("/sales/:id/void", sales.Void)

	r.POST("/orders", orders.Create)
	r.GET("/orders", orders.List)
	r.GET("/orders/:id", orders.Get)
	r.PUT("/orders/:id", orders.Edit)
	r.POST("/orders/:id/cancel", orders.Cancel)
	r.POST("/orders/:id/approve", orders.Approve)
	r.POST("/orders/:id/process", orders.Process)
	r.POST("/orders/:id/deliver", orders.Deliver)
	r.POST("/orders/:id/convert", orders.Convert)

	r.POST("/drawers", drawers.Open)
	r.GET("/drawers/current", drawers.Current)
	r.POST("/drawers/:id/close", drawers.Close)
	r.POST("/drawers/:id/movements", drawers.RegisterMovement)
	r.GET("/drawers/:id/movements", drawers.Movements)
	r.GET("/drawers/:id/report", drawers.Report)

	r.GET("/stock/:branch_id", queries.BranchStock)
	r.GET("/stock/:branch_id/:product_id", queries.StockAvailability)
	r.GET("/customers/:id/credit", queries.CreditExposure)

	env.engine = r
	return env
}

// do sends a request as actor; uuid.Nil sends it anonymously
func (e *testEnv) do(t *testing.T, method, path string, actor uuid.UUID, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != uuid.Nil {
		req.Header.Set(middleware.UserIDHeader, actor.String())
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func (e *testEnv) cashSaleBody(qty int64) map[string]any {
	return map[string]any{
		"branch_id":         e.branchID,
		"payment_condition": "CONTADO",
		"lines": []map[string]any{{
			"product_id": e.product,
			"quantity":   qty,
			"unit_price": "50.00",
			"tax_code":   "ITBIS18",
		}},
	}
}

func (e *testEnv) orderBody(condition string, qty int64) map[string]any {
	body := e.cashSaleBody(qty)
	body["payment_condition"] = condition
	body["customer_id"] = e.customer
	return body
}

// envelope is dto.Response with typed data
type envelope[T any] struct {
	Success   bool           `json:"success"`
	Data      T              `json:"data"`
	Error     *dto.ErrorInfo `json:"error"`
	Meta      *dto.Meta      `json:"meta"`
	RequestID string         `json:"request_id"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var env envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decode[json.RawMessage](t, w)
	require.NotNil(t, env.Error, w.Body.String())
	return env.Error.Code
}
