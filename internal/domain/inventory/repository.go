package inventory

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// StockRepository defines persistence for the stock ledger
type StockRepository interface {
	// FindByProductAndBranch finds the stock record of a product at a branch
	FindByProductAndBranch(ctx context.Context, productID, branchID uuid.UUID) (*ProductBranchStock, error)

	// FindForUpdate loads the stock records of the given products at a branch with a row lock,
	// in product ID order. Products without a record are absent from the result.
	FindForUpdate(ctx context.Context, branchID uuid.UUID, productIDs []uuid.UUID) ([]*ProductBranchStock, error)

	// FindByBranch lists stock records of a branch
	FindByBranch(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]ProductBranchStock, int64, error)

	// Save creates a stock record
	Save(ctx context.Context, stock *ProductBranchStock) error

	// SaveWithLock updates a stock record, checking the version it was loaded with
	SaveWithLock(ctx context.Context, stock *ProductBranchStock) error
}
