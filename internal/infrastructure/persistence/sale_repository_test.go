package persistence

import (
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/pricing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessedSale(t *testing.T, branch uuid.UUID, number, ncf string, drawer *uuid.UUID) *sales.Sale {
	t.Helper()
	sale, err := sales.NewSale(sales.NewSaleParams{
		BranchID:  branch,
		CashierID: uuid.New(),
		Condition: payment.Cash(),
		Lines: []sales.LineInput{
			{ProductID: uuid.New(), ProductName: "Refresco", Quantity: dec("2"), UnitPrice: dec("50"), TaxCode: pricing.TaxITBIS18},
			{ProductID: uuid.New(), ProductName: "Pan", Quantity: dec("1"), UnitPrice: dec("25"), TaxCode: pricing.TaxExempt},
		},
	})
	require.NoError(t, err)
	require.NoError(t, sale.Process(number, ncf, drawer))
	return sale
}

func TestGormSaleRepository_CreateAndFind(t *testing.T) {
	repo := NewGormSaleRepository(newTestDB(t))
	branch, drawer := uuid.New(), uuid.New()
	sale := newProcessedSale(t, branch, "FAC00000001", "B0200000001", &drawer)
	require.NoError(t, repo.Create(t.Context(), sale))

	got, err := repo.FindByID(t.Context(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, "FAC00000001", got.SaleNumber)
	assert.Equal(t, "B0200000001", got.NCF)
	assert.Equal(t, sales.StatusProcessed, got.Status)
	assert.True(t, got.Total.Equal(sale.Total))
	require.Len(t, got.Lines, 2)
	assert.Equal(t, 1, got.Lines[0].LineNo)
	assert.Equal(t, pricing.TaxExempt, got.Lines[1].TaxCode)

	bySession, err := repo.FindByDrawerSession(t.Context(), drawer)
	require.NoError(t, err)
	require.Len(t, bySession, 1)
	assert.Equal(t, sale.ID, bySession[0].ID)
}

func TestGormSaleRepository_FiscalNumbersAreUnique(t *testing.T) {
	repo := NewGormSaleRepository(newTestDB(t))
	branch := uuid.New()
	require.NoError(t, repo.Create(t.Context(), newProcessedSale(t, branch, "FAC00000001", "B0200000001", nil)))

	err := repo.Create(t.Context(), newProcessedSale(t, branch, "FAC00000002", "B0200000001", nil))
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeAlreadyExists, domainErr.Code)
	assert.Equal(t, "B0200000001", domainErr.Details["ncf"])
}

func TestGormSaleRepository_UpdateStatus(t *testing.T) {
	repo := NewGormSaleRepository(newTestDB(t))
	sale := newProcessedSale(t, uuid.New(), "FAC00000009", "B0200000009", nil)
	require.NoError(t, repo.Create(t.Context(), sale))

	stale, err := repo.FindByID(t.Context(), sale.ID)
	require.NoError(t, err)

	locked, err := repo.FindByIDForUpdate(t.Context(), sale.ID)
	require.NoError(t, err)
	require.NoError(t, locked.Void(uuid.New(), "cliente devolvio"))
	require.NoError(t, repo.UpdateStatus(t.Context(), locked))

	got, err := repo.FindByID(t.Context(), sale.ID)
	require.NoError(t, err)
	assert.Equal(t, sales.StatusVoided, got.Status)
	assert.Equal(t, "cliente devolvio", got.VoidReason)
	assert.Equal(t, "B0200000009", got.NCF)

	require.NoError(t, stale.Void(uuid.New(), "twice"))
	assert.ErrorIs(t, repo.UpdateStatus(t.Context(), stale), shared.ErrConcurrencyConflict)
}

func TestGormSaleRepository_FindByBranchPages(t *testing.T) {
	repo := NewGormSaleRepository(newTestDB(t))
	branch := uuid.New()
	for i, n := range []string{"1", "2", "3"} {
		sale := newProcessedSale(t, branch, "FAC0000000"+n, "B020000000"+n, nil)
		sale.CreatedAt = sale.CreatedAt.Add(-time.Duration(i) * time.Hour)
		require.NoError(t, repo.Create(t.Context(), sale))
	}
	require.NoError(t, repo.Create(t.Context(), newProcessedSale(t, uuid.New(), "FAC00000099", "B0200000099", nil)))

	page, total, err := repo.FindByBranch(t.Context(), branch, shared.Filter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 2)
	assert.Equal(t, "FAC00000001", page[0].SaleNumber)
	require.Len(t, page[0].Lines, 2)
}
