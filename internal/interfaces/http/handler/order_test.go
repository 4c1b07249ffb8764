package handler

import (
	"net/http"
	"testing"

	apporder "github.com/erp/pos/internal/application/order"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (e *testEnv) createOrder(t *testing.T, condition string, qty int64) apporder.OrderResponse {
	t.Helper()
	w := e.do(t, http.MethodPost, "/orders", e.cashier, e.orderBody(condition, qty))
	requireStatus(t, w, http.StatusCreated)
	return decode[apporder.OrderResponse](t, w).Data
}

func TestOrderHandler_Lifecycle(t *testing.T) {
	env := newTestEnv(t)
	drawer := env.store.OpenDrawer(env.branchID, env.cashier, decimal.NewFromInt(1000))

	created := env.createOrder(t, "CONTADO", 4)
	assert.Equal(t, "PED00000001", created.OrderNumber)
	assert.Equal(t, string(orders.StatusPending), created.Status)
	assert.True(t, env.store.Stock(env.product, env.branchID).Reserved.Equal(decimal.NewFromInt(4)))

	base := "/orders/" + created.ID.String()

	w := env.do(t, http.MethodPut, base, env.cashier, env.orderBody("CONTADO", 3))
	requireStatus(t, w, http.StatusOK)
	assert.True(t, env.store.Stock(env.product, env.branchID).Reserved.Equal(decimal.NewFromInt(3)))

	w = env.do(t, http.MethodPost, base+"/approve", env.cashier, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, string(orders.StatusApproved), decode[apporder.OrderResponse](t, w).Data.Status)

	w = env.do(t, http.MethodPost, base+"/convert", env.cashier, nil)
	requireStatus(t, w, http.StatusCreated)
	converted := decode[apporder.ConvertOrderResponse](t, w).Data
	assert.Equal(t, string(orders.StatusInvoiced), converted.Order.Status)
	require.NotNil(t, converted.Sale.OrderID)
	assert.Equal(t, created.ID, *converted.Sale.OrderID)
	assert.Equal(t, "177.00", converted.Sale.Totals.Total.StringFixed(2))
	assert.Equal(t, "1177.00", env.store.Session(drawer.ID).RunningCash.StringFixed(2))

	stock := env.store.Stock(env.product, env.branchID)
	assert.True(t, stock.OnHand.Equal(decimal.NewFromInt(7)))
	assert.True(t, stock.Reserved.IsZero())

	t.Run("converted order cannot be converted again", func(t *testing.T) {
		w := env.do(t, http.MethodPost, base+"/convert", env.cashier, nil)

		requireStatus(t, w, http.StatusConflict)
		assert.Equal(t, shared.CodeInvalidStateTransition, errorCode(t, w))
		assert.Len(t, env.store.Sales(), 1)
	})

	t.Run("get", func(t *testing.T) {
		w := env.do(t, http.MethodGet, base, uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		assert.Equal(t, string(orders.StatusInvoiced), decode[apporder.OrderResponse](t, w).Data.Status)
	})
}

func TestOrderHandler_ProcessAndDeliver(t *testing.T) {
	env := newTestEnv(t)
	created := env.createOrder(t, "CONTADO", 2)
	base := "/orders/" + created.ID.String()

	t.Run("deliver before processing is rejected", func(t *testing.T) {
		w := env.do(t, http.MethodPost, base+"/deliver", env.cashier, nil)

		requireStatus(t, w, http.StatusConflict)
	})

	w := env.do(t, http.MethodPost, base+"/process", env.cashier, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, string(orders.StatusProcessed), decode[apporder.OrderResponse](t, w).Data.Status)

	w = env.do(t, http.MethodPost, base+"/deliver", env.cashier, nil)
	requireStatus(t, w, http.StatusOK)
	assert.Equal(t, string(orders.StatusDelivered), decode[apporder.OrderResponse](t, w).Data.Status)
}

func TestOrderHandler_Cancel(t *testing.T) {
	env := newTestEnv(t)
	created := env.createOrder(t, "CONTADO", 4)
	path := "/orders/" + created.ID.String() + "/cancel"

	t.Run("reason is required", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, env.cashier, map[string]any{})

		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, shared.CodeValidation, errorCode(t, w))
	})

	t.Run("releases the reservation", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, env.cashier, map[string]any{"reason": "Cliente desistio"})

		requireStatus(t, w, http.StatusOK)
		resp := decode[apporder.OrderResponse](t, w).Data
		assert.Equal(t, string(orders.StatusCancelled), resp.Status)
		assert.Equal(t, "Cliente desistio", resp.CancelReason)
		assert.True(t, env.store.Stock(env.product, env.branchID).Available.Equal(decimal.NewFromInt(10)))
	})

	t.Run("requires a caller", func(t *testing.T) {
		w := env.do(t, http.MethodPost, path, uuid.Nil, map[string]any{"reason": "x"})

		requireStatus(t, w, http.StatusUnauthorized)
	})
}

func TestOrderHandler_CreditLimit(t *testing.T) {
	env := newTestEnv(t)

	// 9 x 50 + ITBIS = 531 against a 500 limit
	w := env.do(t, http.MethodPost, "/orders", env.cashier, env.orderBody("CREDITO", 9))

	requireStatus(t, w, http.StatusUnprocessableEntity)
	assert.Equal(t, shared.CodeCreditLimitExceeded, errorCode(t, w))
}

func TestOrderHandler_List(t *testing.T) {
	env := newTestEnv(t)
	first := env.createOrder(t, "CONTADO", 1)
	env.createOrder(t, "CONTADO", 1)
	env.do(t, http.MethodPost, "/orders/"+first.ID.String()+"/approve", env.cashier, nil)

	t.Run("all orders of the branch", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/orders?branch_id="+env.branchID.String(), uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		resp := decode[[]apporder.OrderResponse](t, w)
		assert.Len(t, resp.Data, 2)
		assert.Equal(t, int64(2), resp.Meta.Total)
	})

	t.Run("by status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/orders?branch_id="+env.branchID.String()+"&status=APROBADO", uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		resp := decode[[]apporder.OrderResponse](t, w)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, first.ID, resp.Data[0].ID)
	})

	t.Run("unknown status", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/orders?branch_id="+env.branchID.String()+"&status=SHIPPED", uuid.Nil, nil)

		requireStatus(t, w, http.StatusBadRequest)
	})
}
