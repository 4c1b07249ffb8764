package ledger

import (
	"context"

	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockOperation is one of the stock ledger methods
type StockOperation func(s *inventory.ProductBranchStock, quantity decimal.Decimal) (inventory.StockLevel, error)

// Stock ledger operations usable with StockBatch.Apply
var (
	Reserve                    StockOperation = (*inventory.ProductBranchStock).Reserve
	Release                    StockOperation = (*inventory.ProductBranchStock).Release
	Commit                     StockOperation = (*inventory.ProductBranchStock).Commit
	RestoreOnVoid              StockOperation = (*inventory.ProductBranchStock).RestoreOnVoid
	ConvertReservedToCommitted StockOperation = (*inventory.ProductBranchStock).ConvertReservedToCommitted
)

// StockBatch is the set of stock rows one unit of work holds locked.
// Operations mutate the in-memory records; Save persists each touched record once.
type StockBatch struct {
	repo     inventory.StockRepository
	branchID uuid.UUID
	order    []uuid.UUID
	stocks   map[uuid.UUID]*inventory.ProductBranchStock
	touched  map[uuid.UUID]bool
}

// LockStock locks the stock rows of the given products at a branch, in product ID order
func LockStock(ctx context.Context, repo inventory.StockRepository, branchID uuid.UUID, productIDs []uuid.UUID) (*StockBatch, error) {
	reqs := make([]inventory.StockRequest, len(productIDs))
	for i, id := range productIDs {
		reqs[i] = inventory.StockRequest{ProductID: id}
	}
	ordered := inventory.ProductIDs(reqs)

	rows, err := repo.FindForUpdate(ctx, branchID, ordered)
	if err != nil {
		return nil, err
	}
	return &StockBatch{
		repo:     repo,
		branchID: branchID,
		order:    ordered,
		stocks:   inventory.IndexByProduct(rows),
		touched:  make(map[uuid.UUID]bool, len(rows)),
	}, nil
}

// LockStockForLines locks the stock rows every line set needs
func LockStockForLines(ctx context.Context, repo inventory.StockRepository, branchID uuid.UUID, lineSets ...[]sales.LineItem) (*StockBatch, error) {
	var ids []uuid.UUID
	for _, lines := range lineSets {
		for _, l := range lines {
			ids = append(ids, l.ProductID)
		}
	}
	return LockStock(ctx, repo, branchID, ids)
}

// Stocks returns the locked records keyed by product ID
func (b *StockBatch) Stocks() map[uuid.UUID]*inventory.ProductBranchStock {
	return b.stocks
}

// Check evaluates all lines against the locked snapshot without mutating it
func (b *StockBatch) Check(lines []sales.LineItem) error {
	return inventory.CheckAvailability(b.stocks, sales.StockRequests(lines))
}

// Apply runs op for every line. A line whose product has no stock record at the
// branch fails with INSUFFICIENT_STOCK for reserve and commit and with
// STOCK_LEDGER_INCONSISTENT for operations that assume earlier stock effects.
func (b *StockBatch) Apply(lines []sales.LineItem, op StockOperation, requiresPrior bool) error {
	for _, l := range lines {
		stock, ok := b.stocks[l.ProductID]
		if !ok {
			if requiresPrior {
				return shared.ErrStockLedgerInconsistent.
					WithDetail("product_id", l.ProductID.String()).
					WithDetail("branch_id", b.branchID.String())
			}
			return inventory.NewInsufficientStockError([]inventory.Shortage{{
				ProductID: l.ProductID, ProductName: l.ProductName, Requested: l.Quantity, Available: decimal.Zero,
			}})
		}
		if _, err := op(stock, l.Quantity); err != nil {
			return err
		}
		b.touched[l.ProductID] = true
	}
	return nil
}

// Save persists every touched record in lock order
func (b *StockBatch) Save(ctx context.Context) error {
	for _, id := range b.order {
		if !b.touched[id] {
			continue
		}
		if err := b.repo.SaveWithLock(ctx, b.stocks[id]); err != nil {
			return err
		}
	}
	return nil
}

// Aggregates returns the touched records for event collection
func (b *StockBatch) Aggregates() []shared.AggregateRoot {
	out := make([]shared.AggregateRoot, 0, len(b.touched))
	for _, id := range b.order {
		if b.touched[id] {
			out = append(out, b.stocks[id])
		}
	}
	return out
}
