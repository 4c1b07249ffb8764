package persistence

import (
	"testing"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDrawer(t *testing.T, repo *GormDrawerSessionRepository, branch, operator uuid.UUID, float string) *cash.DrawerSession {
	t.Helper()
	session, err := cash.OpenDrawerSession(branch, operator, dec(float))
	require.NoError(t, err)
	require.NoError(t, repo.Save(t.Context(), session))
	return session
}

func TestGormDrawerSessionRepository_OpenRecordsOpeningMovement(t *testing.T) {
	repo := NewGormDrawerSessionRepository(newTestDB(t))
	branch, operator := uuid.New(), uuid.New()
	session := openDrawer(t, repo, branch, operator, "1000")

	assert.Empty(t, session.PendingMovements())

	found, err := repo.FindOpen(t.Context(), branch, operator)
	require.NoError(t, err)
	assert.Equal(t, session.ID, found.ID)
	assert.True(t, found.RunningCash.Equal(dec("1000")))

	movements, err := repo.FindMovements(t.Context(), session.ID)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, cash.MovementOpen, movements[0].Type)
}

func TestGormDrawerSessionRepository_SecondOpenIsRejected(t *testing.T) {
	repo := NewGormDrawerSessionRepository(newTestDB(t))
	branch, operator := uuid.New(), uuid.New()
	openDrawer(t, repo, branch, operator, "500")

	again, err := cash.OpenDrawerSession(branch, operator, dec("500"))
	require.NoError(t, err)
	err = repo.Save(t.Context(), again)

	assert.ErrorIs(t, err, shared.ErrDrawerAlreadyOpen)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, operator.String(), domainErr.Details["operator_id"])

	// another operator at the same branch may open
	openDrawer(t, repo, branch, uuid.New(), "500")
}

func TestGormDrawerSessionRepository_AppendsMovementsInOrder(t *testing.T) {
	repo := NewGormDrawerSessionRepository(newTestDB(t))
	branch, operator := uuid.New(), uuid.New()
	session := openDrawer(t, repo, branch, operator, "1000")

	locked, err := repo.FindByIDForUpdate(t.Context(), session.ID)
	require.NoError(t, err)
	_, err = locked.RecordSale(dec("590"), uuid.New(), "FAC00000001", operator)
	require.NoError(t, err)
	_, err = locked.RegisterManualMovement(cash.MovementManualOut, dec("90"), "Pago de hielo", operator)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(t.Context(), locked))

	locked, err = repo.FindOpenForUpdate(t.Context(), branch, operator)
	require.NoError(t, err)
	assert.True(t, locked.RunningCash.Equal(dec("1500")))

	history, err := repo.FindMovements(t.Context(), session.ID)
	require.NoError(t, err)
	require.NoError(t, locked.Close(dec("1490"), history, operator))
	require.NoError(t, repo.SaveWithLock(t.Context(), locked))

	movements, err := repo.FindMovements(t.Context(), session.ID)
	require.NoError(t, err)
	types := make([]cash.MovementType, len(movements))
	for i, m := range movements {
		types[i] = m.Type
	}
	assert.Equal(t, []cash.MovementType{cash.MovementOpen, cash.MovementSale, cash.MovementManualOut, cash.MovementClose}, types)

	closed, err := repo.FindByID(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, cash.SessionClosed, closed.Status)
	require.NotNil(t, closed.Variance)
	assert.True(t, closed.Variance.Equal(dec("-10")))

	_, err = repo.FindOpen(t.Context(), branch, operator)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	// the operator can open a new session once the previous one is closed
	openDrawer(t, repo, branch, operator, "1000")
}

func TestGormDrawerSessionRepository_StaleSessionConflicts(t *testing.T) {
	repo := NewGormDrawerSessionRepository(newTestDB(t))
	operator := uuid.New()
	session := openDrawer(t, repo, uuid.New(), operator, "100")

	a, err := repo.FindByID(t.Context(), session.ID)
	require.NoError(t, err)
	b, err := repo.FindByID(t.Context(), session.ID)
	require.NoError(t, err)

	_, err = a.RegisterManualMovement(cash.MovementManualIn, dec("50"), "Cambio", operator)
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(t.Context(), a))

	_, err = b.RegisterManualMovement(cash.MovementManualIn, dec("20"), "Cambio", operator)
	require.NoError(t, err)
	assert.ErrorIs(t, repo.SaveWithLock(t.Context(), b), shared.ErrConcurrencyConflict)

	movements, err := repo.FindMovements(t.Context(), session.ID)
	require.NoError(t, err)
	assert.Len(t, movements, 2)
}
