package sales

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// SaleRepository defines persistence for sales. Sales are never deleted.
type SaleRepository interface {
	// FindByID finds a sale with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByIDForUpdate loads a sale with its lines and a row lock on the header
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Sale, error)

	// FindByOrder finds the sale an order was converted into
	FindByOrder(ctx context.Context, orderID uuid.UUID) (*Sale, error)

	// FindByDrawerSession lists the sales booked on a drawer session
	FindByDrawerSession(ctx context.Context, sessionID uuid.UUID) ([]Sale, error)

	// FindByBranch lists sales of a branch, newest first
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]Sale, int64, error)

	// Create inserts a processed sale with its lines
	Create(ctx context.Context, sale *Sale) error

	// UpdateStatus persists status and void metadata, checking the version
	UpdateStatus(ctx context.Context, sale *Sale) error
}
