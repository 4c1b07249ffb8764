package order

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/application/ledger/ledgertest"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *ledgertest.Store
	service  *OrderService
	branchID uuid.UUID
	sellerID uuid.UUID
	product  uuid.UUID
	customer uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledgertest.NewStore()
	store.AddDefaultSequences()
	f := &fixture{
		store:    store,
		branchID: uuid.New(),
		sellerID: uuid.New(),
		product:  uuid.New(),
		customer: uuid.New(),
	}
	store.AddStock(f.product, f.branchID, "Cemento Gris 42.5kg", decimal.NewFromInt(10), decimal.NewFromInt(400))
	store.AddAccount(f.customer, "Constructora Bisono", decimal.NewFromInt(500), decimal.Zero)
	f.service = NewOrderService(store, store.Repos().OrderRepo(), ledger.DefaultNumberSeries())
	return f
}

func (f *fixture) request(condition string, qty int64) CreateOrderRequest {
	return CreateOrderRequest{
		BranchID:       f.branchID,
		CustomerID:     &f.customer,
		PaymentRequest: appsale.PaymentRequest{Condition: condition},
		Lines: []appsale.LineRequest{{
			ProductID: f.product,
			Quantity:  decimal.NewFromInt(qty),
			UnitPrice: decimal.RequireFromString("50.00"),
			TaxCode:   "ITBIS18",
		}},
	}
}

func (f *fixture) editRequest(qty int64) EditOrderRequest {
	req := f.request("CONTADO", qty)
	return EditOrderRequest{PaymentRequest: req.PaymentRequest, Lines: req.Lines}
}

func (f *fixture) assertStock(t *testing.T, onHand, reserved, available int64) {
	t.Helper()
	stock := f.store.Stock(f.product, f.branchID)
	require.NotNil(t, stock)
	assert.True(t, stock.OnHand.Equal(decimal.NewFromInt(onHand)), "on hand %s", stock.OnHand)
	assert.True(t, stock.Reserved.Equal(decimal.NewFromInt(reserved)), "reserved %s", stock.Reserved)
	assert.True(t, stock.Available.Equal(decimal.NewFromInt(available)), "available %s", stock.Available)
	assert.NoError(t, stock.CheckInvariant())
}

func TestOrderService_CreateOrder(t *testing.T) {
	t.Run("reserves stock and numbers the order", func(t *testing.T) {
		f := newFixture(t)

		resp, err := f.service.CreateOrder(context.Background(), f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		assert.Equal(t, "PED000001", resp.OrderNumber)
		assert.Equal(t, string(orders.StatusPending), resp.Status)
		assert.Equal(t, "236.00", resp.Totals.Total.StringFixed(2))
		assert.Equal(t, "Cemento Gris 42.5kg", resp.Lines[0].ProductName)
		f.assertStock(t, 10, 4, 6)
	})

	t.Run("insufficient stock reserves nothing", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateOrder(context.Background(), f.sellerID, f.request("CONTADO", 11))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.assertStock(t, 10, 0, 10)
	})

	t.Run("credit portion is checked against the limit", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateOrder(context.Background(), f.sellerID, f.request("CREDITO", 9))
		assert.True(t, errors.Is(err, shared.ErrCreditLimitExceeded))
		f.assertStock(t, 10, 0, 10)
		assert.True(t, f.store.Account(f.customer).OutstandingBalance.IsZero())
	})

	t.Run("credit order does not charge the account", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CreateOrder(context.Background(), f.sellerID, f.request("CREDITO", 1))
		require.NoError(t, err)
		assert.True(t, f.store.Account(f.customer).OutstandingBalance.IsZero())
	})
}

func TestOrderService_CancelOrder(t *testing.T) {
	t.Run("reserve four of ten then cancel restores availability", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		f.assertStock(t, 10, 4, 6)

		resp, err := f.service.CancelOrder(ctx, created.ID, f.sellerID, CancelOrderRequest{Reason: "Cliente desistio"})
		require.NoError(t, err)
		assert.Equal(t, string(orders.StatusCancelled), resp.Status)
		assert.Equal(t, "Cliente desistio", resp.CancelReason)
		f.assertStock(t, 10, 0, 10)
	})

	t.Run("reason is required", func(t *testing.T) {
		f := newFixture(t)
		created, err := f.service.CreateOrder(context.Background(), f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		_, err = f.service.CancelOrder(context.Background(), created.ID, f.sellerID, CancelOrderRequest{Reason: "  "})
		assert.True(t, errors.Is(err, shared.ErrValidation))
		f.assertStock(t, 10, 4, 6)
	})

	t.Run("cancelled order cannot be cancelled again", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		_, err = f.service.CancelOrder(ctx, created.ID, f.sellerID, CancelOrderRequest{Reason: "duplicado"})
		require.NoError(t, err)

		_, err = f.service.CancelOrder(ctx, created.ID, f.sellerID, CancelOrderRequest{Reason: "duplicado"})
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		f.assertStock(t, 10, 0, 10)
	})
}

func TestOrderService_EditOrder(t *testing.T) {
	t.Run("re-reserves the new lines", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		resp, err := f.service.EditOrder(ctx, created.ID, f.editRequest(7))
		require.NoError(t, err)
		assert.True(t, resp.Lines[0].Quantity.Equal(decimal.NewFromInt(7)))
		assert.Equal(t, "413.00", resp.Totals.Total.StringFixed(2))
		f.assertStock(t, 10, 7, 3)
	})

	t.Run("the released quantity counts toward the new lines", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		_, err = f.service.EditOrder(ctx, created.ID, f.editRequest(10))
		require.NoError(t, err)
		f.assertStock(t, 10, 10, 0)
	})

	t.Run("failed edit keeps the original reservation", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		_, err = f.service.EditOrder(ctx, created.ID, f.editRequest(11))
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		f.assertStock(t, 10, 4, 6)

		got, err := f.service.GetOrder(ctx, created.ID)
		require.NoError(t, err)
		assert.True(t, got.Lines[0].Quantity.Equal(decimal.NewFromInt(4)))
	})

	t.Run("only pending orders can be edited", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		_, err = f.service.ProcessOrder(ctx, created.ID)
		require.NoError(t, err)

		_, err = f.service.EditOrder(ctx, created.ID, f.editRequest(5))
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		f.assertStock(t, 10, 4, 6)
	})
}

func TestOrderService_Transitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 2))
	require.NoError(t, err)

	_, err = f.service.DeliverOrder(ctx, created.ID)
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition), "pending orders are processed before delivery")

	resp, err := f.service.ProcessOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(orders.StatusProcessed), resp.Status)

	resp, err = f.service.DeliverOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, string(orders.StatusDelivered), resp.Status)

	_, err = f.service.CancelOrder(ctx, created.ID, f.sellerID, CancelOrderRequest{Reason: "tarde"})
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	f.assertStock(t, 10, 2, 8)
}

func TestOrderService_ConvertOrderToSale(t *testing.T) {
	t.Run("approved order becomes a sale", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		drawer := f.store.OpenDrawer(f.branchID, f.sellerID, decimal.NewFromInt(1000))
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		approved, err := f.service.ApproveOrder(ctx, created.ID, f.sellerID)
		require.NoError(t, err)
		assert.Equal(t, string(orders.StatusApproved), approved.Status)

		resp, err := f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		require.NoError(t, err)

		assert.Equal(t, string(orders.StatusInvoiced), resp.Order.Status)
		require.NotNil(t, resp.Order.SaleID)
		assert.Equal(t, resp.Sale.ID, *resp.Order.SaleID)
		require.NotNil(t, resp.Sale.OrderID)
		assert.Equal(t, created.ID, *resp.Sale.OrderID)
		assert.Equal(t, "FAC000001", resp.Sale.SaleNumber)
		assert.Equal(t, "B0200000001", resp.Sale.NCF)
		assert.Equal(t, "236.00", resp.Sale.Totals.Total.StringFixed(2))

		f.assertStock(t, 6, 0, 6)
		assert.Equal(t, "1236.00", f.store.Session(drawer.ID).RunningCash.StringFixed(2))
	})

	t.Run("second conversion fails with a single sale persisted", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.store.OpenDrawer(f.branchID, f.sellerID, decimal.Zero)
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		_, err = f.service.ApproveOrder(ctx, created.ID, f.sellerID)
		require.NoError(t, err)
		_, err = f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		require.NoError(t, err)

		_, err = f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		assert.Len(t, f.store.Sales(), 1)
		f.assertStock(t, 6, 0, 6)
	})

	t.Run("pending order cannot be converted", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.store.OpenDrawer(f.branchID, f.sellerID, decimal.Zero)
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)

		_, err = f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		assert.Empty(t, f.store.Sales())
	})

	t.Run("conversion requires an open drawer", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 4))
		require.NoError(t, err)
		_, err = f.service.ProcessOrder(ctx, created.ID)
		require.NoError(t, err)
		_, err = f.service.DeliverOrder(ctx, created.ID)
		require.NoError(t, err)

		_, err = f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		assert.True(t, errors.Is(err, shared.ErrNoOpenDrawer))

		got, err := f.service.GetOrder(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, string(orders.StatusDelivered), got.Status)
		f.assertStock(t, 10, 4, 6)
	})

	t.Run("mixed order is invoiced as cash", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		drawer := f.store.OpenDrawer(f.branchID, f.sellerID, decimal.Zero)
		req := f.request("MIXTO", 2)
		req.CashPortion = decimal.NewFromInt(50)
		created, err := f.service.CreateOrder(ctx, f.sellerID, req)
		require.NoError(t, err)
		_, err = f.service.ApproveOrder(ctx, created.ID, f.sellerID)
		require.NoError(t, err)

		resp, err := f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		require.NoError(t, err)
		assert.Equal(t, string(payment.KindCash), resp.Sale.PaymentCondition)
		assert.Equal(t, "118.00", resp.Sale.CashAmount.StringFixed(2))
		assert.Equal(t, "118.00", f.store.Session(drawer.ID).RunningCash.StringFixed(2))
		assert.True(t, f.store.Account(f.customer).OutstandingBalance.IsZero())
	})

	t.Run("credit order charges the account on conversion", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()
		f.store.OpenDrawer(f.branchID, f.sellerID, decimal.Zero)
		created, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CREDITO", 2))
		require.NoError(t, err)
		_, err = f.service.ApproveOrder(ctx, created.ID, f.sellerID)
		require.NoError(t, err)

		_, err = f.service.ConvertOrderToSale(ctx, created.ID, f.sellerID)
		require.NoError(t, err)
		assert.Equal(t, "118.00", f.store.Account(f.customer).OutstandingBalance.StringFixed(2))
	})
}

func TestOrderService_ListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 1))
	require.NoError(t, err)
	second, err := f.service.CreateOrder(ctx, f.sellerID, f.request("CONTADO", 1))
	require.NoError(t, err)
	_, err = f.service.ProcessOrder(ctx, second.ID)
	require.NoError(t, err)

	list, total, err := f.service.ListOrders(ctx, OrderListFilter{BranchID: f.branchID, Status: "PROCESADO"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "PED000002", list[0].OrderNumber)

	_, _, err = f.service.ListOrders(ctx, OrderListFilter{BranchID: f.branchID, Status: "BORRADOR"})
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
