package persistence

import (
	"testing"

	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormCreditAccountRepository(t *testing.T) {
	repo := NewGormCreditAccountRepository(newTestDB(t))
	customer := uuid.New()

	account, err := credit.NewAccount(customer, "Colmado La Esquina", dec("5000"))
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), account))

	t.Run("one account per customer", func(t *testing.T) {
		dup, err := credit.NewAccount(customer, "Duplicate", dec("1"))
		require.NoError(t, err)
		err = repo.Save(t.Context(), dup)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeAlreadyExists, domainErr.Code)
	})

	t.Run("charge persists the balance", func(t *testing.T) {
		locked, err := repo.FindByCustomerForUpdate(t.Context(), customer)
		require.NoError(t, err)
		_, err = locked.Charge(dec("1200.50"))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(t.Context(), locked))

		got, err := repo.FindByCustomer(t.Context(), customer)
		require.NoError(t, err)
		assert.True(t, got.OutstandingBalance.Equal(dec("1200.50")))
		assert.True(t, got.CreditLimit.Equal(dec("5000")))
	})

	t.Run("stale account conflicts", func(t *testing.T) {
		stale, err := repo.FindByCustomer(t.Context(), customer)
		require.NoError(t, err)
		fresh, err := repo.FindByCustomer(t.Context(), customer)
		require.NoError(t, err)

		_, err = fresh.Charge(dec("10"))
		require.NoError(t, err)
		require.NoError(t, repo.SaveWithLock(t.Context(), fresh))

		_, err = stale.Charge(dec("10"))
		require.NoError(t, err)
		assert.ErrorIs(t, repo.SaveWithLock(t.Context(), stale), shared.ErrConcurrencyConflict)
	})

	t.Run("unknown customer", func(t *testing.T) {
		_, err := repo.FindByCustomer(t.Context(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
