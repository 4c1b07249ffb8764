package cash

import (
	"context"
	"errors"
	"testing"

	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/application/ledger/ledgertest"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store    *ledgertest.Store
	service  *CashSessionService
	sales    *appsale.SaleService
	branchID uuid.UUID
	operator uuid.UUID
	product  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := ledgertest.NewStore()
	store.AddDefaultSequences()

	f := &fixture{
		store:    store,
		branchID: uuid.New(),
		operator: uuid.New(),
		product:  uuid.New(),
	}
	store.AddStock(f.product, f.branchID, "Arroz Selecto 5lb", decimal.NewFromInt(10), decimal.NewFromInt(60))

	repos := store.Repos()
	reports := NewRepositoryReportReader(repos.DrawerRepo(), repos.SaleRepo())
	f.service = NewCashSessionService(store, repos.DrawerRepo(), reports, "es-DO")
	f.sales = appsale.NewSaleService(store, repos.SaleRepo(), ledger.DefaultNumberSeries())
	return f
}

func (f *fixture) open(t *testing.T, float int64) *DrawerSessionResponse {
	t.Helper()
	resp, err := f.service.OpenDrawer(context.Background(), f.operator, OpenDrawerRequest{
		BranchID:     f.branchID,
		OpeningFloat: decimal.NewFromInt(float),
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) sell(t *testing.T) {
	t.Helper()
	_, err := f.sales.CreateSale(context.Background(), f.operator, appsale.CreateSaleRequest{
		BranchID:       f.branchID,
		PaymentRequest: appsale.PaymentRequest{Condition: "CONTADO"},
		Lines: []appsale.LineRequest{{
			ProductID:   f.product,
			Quantity:    decimal.NewFromInt(2),
			UnitPrice:   decimal.RequireFromString("100.00"),
			DiscountPct: decimal.NewFromInt(10),
			TaxCode:     "ITBIS18",
		}},
	})
	require.NoError(t, err)
}

func TestCashSessionService_OpenDrawer(t *testing.T) {
	t.Run("opens a session with its float movement", func(t *testing.T) {
		f := newFixture(t)

		resp := f.open(t, 1000)

		assert.Equal(t, string(cash.SessionOpen), resp.Status)
		assert.Equal(t, "1000.00", resp.RunningCash.StringFixed(2))
		movements := f.store.Movements(resp.ID)
		require.Len(t, movements, 1)
		assert.Equal(t, cash.MovementOpen, movements[0].Type)
	})

	t.Run("second open session for the same operator is rejected", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 1000)

		_, err := f.service.OpenDrawer(context.Background(), f.operator, OpenDrawerRequest{
			BranchID:     f.branchID,
			OpeningFloat: decimal.NewFromInt(500),
		})
		assert.True(t, errors.Is(err, shared.ErrDrawerAlreadyOpen))
	})

	t.Run("another operator may open at the same branch", func(t *testing.T) {
		f := newFixture(t)
		f.open(t, 1000)

		_, err := f.service.OpenDrawer(context.Background(), uuid.New(), OpenDrawerRequest{
			BranchID:     f.branchID,
			OpeningFloat: decimal.NewFromInt(500),
		})
		assert.NoError(t, err)
	})

	t.Run("negative float is a validation error", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.OpenDrawer(context.Background(), f.operator, OpenDrawerRequest{
			BranchID:     f.branchID,
			OpeningFloat: decimal.NewFromInt(-1),
		})
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestCashSessionService_CloseDrawer(t *testing.T) {
	t.Run("balanced close after a cash sale", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		f.sell(t)

		resp, err := f.service.CloseDrawer(context.Background(), opened.ID, f.operator, CloseDrawerRequest{
			CountedCash: decimal.RequireFromString("1212.40"),
		})
		require.NoError(t, err)

		assert.Equal(t, string(cash.SessionClosed), resp.Status)
		require.NotNil(t, resp.TheoreticalCash)
		assert.Equal(t, "1212.40", resp.TheoreticalCash.StringFixed(2))
		require.NotNil(t, resp.Variance)
		assert.True(t, resp.Variance.IsZero())
		assert.Equal(t, string(cash.VarianceBalanced), resp.VarianceClass)

		movements := f.store.Movements(opened.ID)
		require.Len(t, movements, 3)
		assert.Equal(t, cash.MovementClose, movements[2].Type)
	})

	t.Run("short count records a negative variance", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		f.sell(t)

		resp, err := f.service.CloseDrawer(context.Background(), opened.ID, f.operator, CloseDrawerRequest{
			CountedCash: decimal.RequireFromString("1210.00"),
		})
		require.NoError(t, err)
		assert.Equal(t, "-2.40", resp.Variance.StringFixed(2))
		assert.Equal(t, string(cash.VarianceMinor), resp.VarianceClass)
	})

	t.Run("closing twice is an invalid transition", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		req := CloseDrawerRequest{CountedCash: decimal.NewFromInt(1000)}

		_, err := f.service.CloseDrawer(context.Background(), opened.ID, f.operator, req)
		require.NoError(t, err)

		_, err = f.service.CloseDrawer(context.Background(), opened.ID, f.operator, req)
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.CloseDrawer(context.Background(), uuid.New(), f.operator, CloseDrawerRequest{})
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("operator can open again after closing", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		_, err := f.service.CloseDrawer(context.Background(), opened.ID, f.operator, CloseDrawerRequest{CountedCash: decimal.NewFromInt(1000)})
		require.NoError(t, err)

		reopened := f.open(t, 800)
		assert.NotEqual(t, opened.ID, reopened.ID)
	})
}

func TestCashSessionService_RegisterCashMovement(t *testing.T) {
	t.Run("cash in and out adjust running cash", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		ctx := context.Background()

		in, err := f.service.RegisterCashMovement(ctx, opened.ID, f.operator, CashMovementRequest{
			Type: "IN", Amount: decimal.NewFromInt(250), Description: "Cambio del banco",
		})
		require.NoError(t, err)
		assert.Equal(t, string(cash.MovementManualIn), in.Type)
		assert.Equal(t, "1250.00", in.RunningCash.StringFixed(2))

		out, err := f.service.RegisterCashMovement(ctx, opened.ID, f.operator, CashMovementRequest{
			Type: "OUT", Amount: decimal.NewFromInt(300), Description: "Pago a suplidor",
		})
		require.NoError(t, err)
		assert.Equal(t, "-300.00", out.SignedAmount.StringFixed(2))
		assert.Equal(t, "950.00", out.RunningCash.StringFixed(2))

		assert.Equal(t, "950.00", f.store.Session(opened.ID).RunningCash.StringFixed(2))
	})

	t.Run("cash out beyond the drawer is rejected", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 100)

		_, err := f.service.RegisterCashMovement(context.Background(), opened.ID, f.operator, CashMovementRequest{
			Type: "OUT", Amount: decimal.NewFromInt(150), Description: "Retiro",
		})
		assert.True(t, errors.Is(err, shared.ErrInsufficientCash))
		assert.Len(t, f.store.Movements(opened.ID), 1)
		assert.Equal(t, "100.00", f.store.Session(opened.ID).RunningCash.StringFixed(2))
	})

	t.Run("closed session takes no movements", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 100)
		ctx := context.Background()
		_, err := f.service.CloseDrawer(ctx, opened.ID, f.operator, CloseDrawerRequest{CountedCash: decimal.NewFromInt(100)})
		require.NoError(t, err)

		_, err = f.service.RegisterCashMovement(ctx, opened.ID, f.operator, CashMovementRequest{
			Type: "IN", Amount: decimal.NewFromInt(10), Description: "Tarde",
		})
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	})
}

func TestCashSessionService_ListMovements(t *testing.T) {
	f := newFixture(t)
	opened := f.open(t, 1000)
	f.sell(t)

	movements, err := f.service.ListMovements(context.Background(), opened.ID)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, "1000.00", movements[0].RunningCash.StringFixed(2))
	assert.Equal(t, "1212.40", movements[1].RunningCash.StringFixed(2))
}

func TestCashSessionService_ClosingReport(t *testing.T) {
	t.Run("open session reports its running position", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		f.sell(t)

		report, err := f.service.ClosingReport(context.Background(), opened.ID)
		require.NoError(t, err)

		assert.Equal(t, "1212.40", report.TheoreticalCash.StringFixed(2))
		assert.Nil(t, report.Variance)
		assert.Equal(t, int64(1), report.Sales.ProcessedCount)
		assert.Equal(t, "212.40", report.Sales.CashTotal.StringFixed(2))
		assert.Contains(t, report.Summary, "session open")
	})

	t.Run("closed session reports its variance", func(t *testing.T) {
		f := newFixture(t)
		opened := f.open(t, 1000)
		f.sell(t)
		ctx := context.Background()
		_, err := f.service.CloseDrawer(ctx, opened.ID, f.operator, CloseDrawerRequest{CountedCash: decimal.RequireFromString("1212.40")})
		require.NoError(t, err)

		report, err := f.service.ClosingReport(ctx, opened.ID)
		require.NoError(t, err)

		assert.Equal(t, string(cash.VarianceBalanced), report.VarianceClass)
		require.NotNil(t, report.CountedCash)
		assert.Equal(t, "1212.40", report.CountedCash.StringFixed(2))

		types := make([]string, 0, len(report.Movements))
		for _, m := range report.Movements {
			types = append(types, m.Type)
		}
		assert.Equal(t, []string{"CLOSE", "OPEN", "SALE"}, types)
	})

	t.Run("unknown session", func(t *testing.T) {
		f := newFixture(t)

		_, err := f.service.ClosingReport(context.Background(), uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestBuildClosingReport(t *testing.T) {
	session, err := cash.OpenDrawerSession(uuid.New(), uuid.New(), decimal.NewFromInt(1000))
	require.NoError(t, err)
	require.NoError(t, session.Close(decimal.NewFromInt(900), nil, uuid.New()))

	report := buildClosingReport(session, nil, SaleTotals{}, newPrinter("en"))
	assert.Equal(t, "-100.00", report.Variance.StringFixed(2))
	assert.Equal(t, string(cash.VarianceCritical), report.VarianceClass)
	assert.Contains(t, report.Summary, "CRITICAL")
}

func TestMoney(t *testing.T) {
	en := newPrinter("en")

	tests := []struct {
		in   string
		want string
	}{
		{"1000", "1,000.00"},
		{"-100", "-100.00"},
		{"0.005", "0.01"},
		{"-0.004", "0.00"},
		{"9007199254740993.11", "9,007,199,254,740,993.11"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, money(en, decimal.RequireFromString(tt.in)), tt.in)
	}
}
