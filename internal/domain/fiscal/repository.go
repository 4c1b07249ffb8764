package fiscal

import (
	"context"

	"github.com/google/uuid"
)

// SequenceRepository defines persistence for document number series
type SequenceRepository interface {
	// FindByPrefixForUpdate loads a series with a row lock held until the transaction ends
	FindByPrefixForUpdate(ctx context.Context, prefix string) (*Sequence, error)

	// FindByID finds a series by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Sequence, error)

	// FindAll lists every series
	FindAll(ctx context.Context) ([]Sequence, error)

	// Save creates a series
	Save(ctx context.Context, seq *Sequence) error

	// SaveWithLock updates a series, checking the version it was loaded with
	SaveWithLock(ctx context.Context, seq *Sequence) error
}
