package handler

import (
	"net/http"
	"testing"

	"github.com/erp/pos/internal/application/query"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryHandler_Stock(t *testing.T) {
	env := newTestEnv(t)
	env.store.AddStock(uuid.New(), env.branchID, "Aceite Crisol 1L", decimal.NewFromInt(3), decimal.NewFromInt(150))
	env.createOrder(t, "CONTADO", 4)

	t.Run("availability reflects reservations", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/"+env.branchID.String()+"/"+env.product.String(), uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		stock := decode[query.StockResponse](t, w).Data
		assert.True(t, stock.OnHand.Equal(decimal.NewFromInt(10)))
		assert.True(t, stock.Reserved.Equal(decimal.NewFromInt(4)))
		assert.True(t, stock.Available.Equal(decimal.NewFromInt(6)))
	})

	t.Run("unknown product", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/"+env.branchID.String()+"/"+uuid.NewString(), uuid.Nil, nil)

		requireStatus(t, w, http.StatusNotFound)
	})

	t.Run("branch listing", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/"+env.branchID.String(), uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		resp := decode[[]query.StockResponse](t, w)
		assert.Len(t, resp.Data, 2)
		require.NotNil(t, resp.Meta)
		assert.Equal(t, int64(2), resp.Meta.Total)
		assert.Equal(t, 1, resp.Meta.Page)
	})

	t.Run("branch listing by name", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/"+env.branchID.String()+"?search=aceite", uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		resp := decode[[]query.StockResponse](t, w)
		require.Len(t, resp.Data, 1)
		assert.Equal(t, "Aceite Crisol 1L", resp.Data[0].ProductName)
	})

	t.Run("page size bound", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/"+env.branchID.String()+"?page_size=500", uuid.Nil, nil)

		requireStatus(t, w, http.StatusBadRequest)
	})

	t.Run("malformed branch", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/stock/main/"+env.product.String(), uuid.Nil, nil)

		requireStatus(t, w, http.StatusBadRequest)
	})
}

func TestQueryHandler_CreditExposure(t *testing.T) {
	env := newTestEnv(t)
	env.store.OpenDrawer(env.branchID, env.cashier, decimal.Zero)
	body := env.orderBody("CREDITO", 2)
	requireStatus(t, env.do(t, http.MethodPost, "/sales", env.cashier, body), http.StatusCreated)

	t.Run("known customer", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/customers/"+env.customer.String()+"/credit", uuid.Nil, nil)

		requireStatus(t, w, http.StatusOK)
		exposure := decode[query.CreditExposureResponse](t, w).Data
		assert.Equal(t, "118.00", exposure.OutstandingBalance.StringFixed(2))
		require.NotNil(t, exposure.AvailableCredit)
		assert.Equal(t, "382.00", exposure.AvailableCredit.StringFixed(2))
		assert.False(t, exposure.Unlimited)
	})

	t.Run("customer without account", func(t *testing.T) {
		w := env.do(t, http.MethodGet, "/customers/"+uuid.NewString()+"/credit", uuid.Nil, nil)

		requireStatus(t, w, http.StatusNotFound)
		assert.Equal(t, shared.CodeNotFound, errorCode(t, w))
	})
}
