package fiscal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/pos/internal/domain/shared"
)

// Allocator issues document numbers. It must be built on a repository bound to the
// enclosing transaction so that the series row lock and the counter update commit or
// roll back together with the document that uses the number.
type Allocator struct {
	repo SequenceRepository
	now  func() time.Time
}

// NewAllocator creates an allocator over a transaction-bound repository
func NewAllocator(repo SequenceRepository) *Allocator {
	return &Allocator{repo: repo, now: time.Now}
}

// NextNumber locks the series, issues its next value and persists the advanced counter.
// Lock and persistence failures carry both FISCAL_NUMBER_ALLOCATION_FAILED and the
// underlying database error, so a retrying transaction scope can still classify them.
func (a *Allocator) NextNumber(ctx context.Context, prefix string) (Number, error) {
	seq, err := a.repo.FindByPrefixForUpdate(ctx, prefix)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Number{}, allocationFailed(prefix, "series not configured")
		}
		return Number{}, fmt.Errorf("%w: %w", allocationFailed(prefix, "series lock failed"), err)
	}

	n, err := seq.Allocate(a.now())
	if err != nil {
		return Number{}, err
	}

	if err := a.repo.SaveWithLock(ctx, seq); err != nil {
		return Number{}, fmt.Errorf("%w: %w", allocationFailed(prefix, "counter update failed"), err)
	}
	return n, nil
}
