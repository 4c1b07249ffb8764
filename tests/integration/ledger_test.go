//go:build integration

package integration

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	appcash "github.com/erp/pos/internal/application/cash"
	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/application/query"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/persistence"
	"github.com/erp/pos/internal/infrastructure/readmodel"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	code := m.Run()
	CleanupSharedContainer()
	os.Exit(code)
}

// till is one branch with a stocked product, an open drawer and a credit customer
type till struct {
	tdb      *TestDB
	sales    *appsale.SaleService
	cash     *appcash.CashSessionService
	reader   *readmodel.Reader
	branch   uuid.UUID
	cashier  uuid.UUID
	product  uuid.UUID
	customer uuid.UUID
	drawerID uuid.UUID
}

func newTill(t *testing.T, onHand int64, creditLimit int64) *till {
	t.Helper()
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()
	ctx := context.Background()

	tl := &till{
		tdb:      tdb,
		branch:   uuid.New(),
		cashier:  uuid.New(),
		product:  uuid.New(),
		customer: uuid.New(),
		reader:   readmodel.NewReader(tdb.SqlDB, "pgx"),
	}

	stock, err := inventory.NewProductBranchStock(tl.product, tl.branch, "Salami Induveca", decimal.NewFromInt(onHand), decimal.NewFromInt(60))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormStockRepository(tdb.DB).Save(ctx, stock))

	account, err := credit.NewAccount(tl.customer, "Ferreteria Ochoa", decimal.NewFromInt(creditLimit))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCreditAccountRepository(tdb.DB).Save(ctx, account))

	scope := persistence.NewGormTransactionScope(tdb.DB, persistence.WithMaxAttempts(5))
	drawers := persistence.NewGormDrawerSessionRepository(tdb.DB)
	tl.sales = appsale.NewSaleService(scope, persistence.NewGormSaleRepository(tdb.DB), ledger.DefaultNumberSeries())
	tl.cash = appcash.NewCashSessionService(scope, drawers, tl.reader, "es-DO")

	drawer, err := tl.cash.OpenDrawer(ctx, tl.cashier, appcash.OpenDrawerRequest{
		BranchID:     tl.branch,
		OpeningFloat: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	tl.drawerID = drawer.ID
	return tl
}

func (tl *till) sale(condition string, qty int64) appsale.CreateSaleRequest {
	req := appsale.CreateSaleRequest{
		BranchID:       tl.branch,
		PaymentRequest: appsale.PaymentRequest{Condition: condition},
		Lines: []appsale.LineRequest{{
			ProductID: tl.product,
			Quantity:  decimal.NewFromInt(qty),
			UnitPrice: decimal.NewFromInt(100),
			TaxCode:   "ITBIS18",
		}},
	}
	if condition != "CONTADO" {
		req.CustomerID = &tl.customer
	}
	return req
}

// race runs fn n times concurrently and returns the successes and failures
func race[T any](n int, fn func() (T, error)) ([]T, []error) {
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		oks  []T
		errs []error
	)
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := fn()
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			oks = append(oks, v)
		}()
	}
	wg.Wait()
	return oks, errs
}

func TestMigrations_SeedDefaultSeries(t *testing.T) {
	tdb := NewSharedTestDB(t)

	seqs, err := persistence.NewGormFiscalSequenceRepository(tdb.DB).FindAll(context.Background())
	require.NoError(t, err)

	prefixes := make([]string, len(seqs))
	for i, s := range seqs {
		prefixes[i] = s.Prefix
	}
	assert.Equal(t, []string{"B01", "B02", "FAC", "PED"}, prefixes)
}

func TestConcurrentSales_NeverOversellAndNumberWithoutGaps(t *testing.T) {
	tl := newTill(t, 10, 0)

	oks, errs := race(20, func() (*appsale.SaleResponse, error) {
		return tl.sales.CreateSale(context.Background(), tl.cashier, tl.sale("CONTADO", 1))
	})

	require.Len(t, oks, 10)
	require.Len(t, errs, 10)
	for _, err := range errs {
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock), "unexpected error: %v", err)
	}

	ncfs := map[string]bool{}
	numbers := map[string]bool{}
	for _, s := range oks {
		ncfs[s.NCF] = true
		numbers[s.SaleNumber] = true
	}
	for _, want := range []string{"B0200000001", "B0200000010"} {
		assert.True(t, ncfs[want], "missing NCF %s", want)
	}
	assert.Len(t, ncfs, 10)
	assert.True(t, numbers["FAC000001"])
	assert.True(t, numbers["FAC000010"])

	stock, err := persistence.NewGormStockRepository(tl.tdb.DB).FindByProductAndBranch(context.Background(), tl.product, tl.branch)
	require.NoError(t, err)
	assert.True(t, stock.OnHand.IsZero(), "on hand %s", stock.OnHand)
	assert.True(t, stock.Available.IsZero())

	report, err := tl.cash.ClosingReport(context.Background(), tl.drawerID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), report.Sales.ProcessedCount)
	assert.True(t, decimal.NewFromInt(1180).Equal(report.Sales.CashTotal), "cash total %s", report.Sales.CashTotal)
	assert.True(t, decimal.NewFromInt(1680).Equal(report.TheoreticalCash), "theoretical %s", report.TheoreticalCash)
}

func TestConcurrentCreditSales_RespectLimit(t *testing.T) {
	tl := newTill(t, 10, 500)

	// 3 x 100 + 18% ITBIS = 354; two of them exceed 500
	oks, errs := race(2, func() (*appsale.SaleResponse, error) {
		return tl.sales.CreateSale(context.Background(), tl.cashier, tl.sale("CREDITO", 3))
	})
	require.Len(t, oks, 1)
	require.Len(t, errs, 1)
	assert.True(t, errors.Is(errs[0], shared.ErrCreditLimitExceeded), "unexpected error: %v", errs[0])

	account, err := persistence.NewGormCreditAccountRepository(tl.tdb.DB).FindByCustomer(context.Background(), tl.customer)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(354).Equal(account.OutstandingBalance), "outstanding %s", account.OutstandingBalance)
}

func TestVoidSale_RestoresEveryLedger(t *testing.T) {
	tl := newTill(t, 10, 1000)
	ctx := context.Background()

	s, err := tl.sales.CreateSale(ctx, tl.cashier, tl.sale("CONTADO", 4))
	require.NoError(t, err)

	voided, err := tl.sales.VoidSale(ctx, s.ID, tl.cashier, appsale.VoidSaleRequest{Reason: "Cliente devolvio"})
	require.NoError(t, err)
	assert.Equal(t, "ANULADA", voided.Status)

	stock, err := persistence.NewGormStockRepository(tl.tdb.DB).FindByProductAndBranch(ctx, tl.product, tl.branch)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(stock.OnHand))

	report, err := tl.cash.ClosingReport(ctx, tl.drawerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Sales.VoidedCount)
	assert.True(t, decimal.NewFromInt(500).Equal(report.TheoreticalCash), "theoretical %s", report.TheoreticalCash)

	_, err = tl.sales.VoidSale(ctx, s.ID, tl.cashier, appsale.VoidSaleRequest{})
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition), "unexpected error: %v", err)
}

func TestConcurrentDrawerOpen_OneWins(t *testing.T) {
	tdb := NewSharedTestDB(t)
	tdb.CleanTables()

	scope := persistence.NewGormTransactionScope(tdb.DB)
	drawers := persistence.NewGormDrawerSessionRepository(tdb.DB)
	svc := appcash.NewCashSessionService(scope, drawers, readmodel.NewReader(tdb.SqlDB, "pgx"), "es-DO")
	branch, operator := uuid.New(), uuid.New()

	oks, errs := race(5, func() (*appcash.DrawerSessionResponse, error) {
		return svc.OpenDrawer(context.Background(), operator, appcash.OpenDrawerRequest{
			BranchID:     branch,
			OpeningFloat: decimal.NewFromInt(200),
		})
	})
	require.Len(t, oks, 1)
	require.Len(t, errs, 4)
	for _, err := range errs {
		assert.True(t, errors.Is(err, shared.ErrDrawerAlreadyOpen), "unexpected error: %v", err)
	}
}

func TestReader_ListBranchStock(t *testing.T) {
	tl := newTill(t, 5, 0)
	ctx := context.Background()

	other, err := inventory.NewProductBranchStock(uuid.New(), tl.branch, "Salsa Baldom", decimal.NewFromInt(3), decimal.NewFromInt(45))
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormStockRepository(tl.tdb.DB).Save(ctx, other))

	items, total, err := tl.reader.ListBranchStock(ctx, tl.branch, query.StockListFilter{Search: "SALAMI", Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, tl.product, items[0].ProductID)

	items, total, err = tl.reader.ListBranchStock(ctx, tl.branch, query.StockListFilter{Page: 2, PageSize: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Salsa Baldom", items[0].ProductName)
}
