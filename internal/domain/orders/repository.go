package orders

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// OrderRepository defines persistence for orders
type OrderRepository interface {
	// FindByID finds an order with its lines
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByIDForUpdate loads an order with its lines and a row lock on the header
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Order, error)

	// FindByBranch lists orders of a branch, newest first
	FindByBranch(ctx context.Context, branchID uuid.UUID, status *Status, filter shared.Filter) ([]Order, int64, error)

	// Create inserts an order with its lines
	Create(ctx context.Context, order *Order) error

	// Update persists header changes and replaces the lines, checking the version
	Update(ctx context.Context, order *Order) error
}
