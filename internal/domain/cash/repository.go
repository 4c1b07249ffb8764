package cash

import (
	"context"

	"github.com/google/uuid"
)

// SessionRepository defines persistence for drawer sessions and their movements.
// Movements are append-only; there is no delete.
type SessionRepository interface {
	// FindByID finds a session by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DrawerSession, error)

	// FindByIDForUpdate loads a session with a row lock
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*DrawerSession, error)

	// FindOpenForUpdate loads the open session of an operator at a branch with a row lock.
	// Returns shared.ErrNotFound when none is open.
	FindOpenForUpdate(ctx context.Context, branchID, operatorID uuid.UUID) (*DrawerSession, error)

	// FindOpen returns the open session of an operator at a branch without locking
	FindOpen(ctx context.Context, branchID, operatorID uuid.UUID) (*DrawerSession, error)

	// FindMovements lists a session's movements in the order they were recorded
	FindMovements(ctx context.Context, sessionID uuid.UUID) ([]CashMovement, error)

	// Save creates a session and appends its pending movements
	Save(ctx context.Context, session *DrawerSession) error

	// SaveWithLock updates a session, checking its version, and appends its pending movements
	SaveWithLock(ctx context.Context, session *DrawerSession) error
}
