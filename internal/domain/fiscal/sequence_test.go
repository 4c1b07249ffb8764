package fiscal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "B0200000001", Format("B02", 1, 8))
	assert.Equal(t, "FAC000123", Format("FAC", 123, 6))
	assert.Equal(t, "PED1234567", Format("PED", 1234567, 3))
}

func TestSequence_Allocate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("issues strictly increasing numbers", func(t *testing.T) {
		seq, err := NewSequence("B02", DocumentNCF, 8)
		require.NoError(t, err)

		first, err := seq.Allocate(now)
		require.NoError(t, err)
		second, err := seq.Allocate(now)
		require.NoError(t, err)

		assert.Equal(t, "B0200000001", first.Formatted)
		assert.Equal(t, "B0200000002", second.Formatted)
		assert.Greater(t, second.Value, first.Value)
		assert.Equal(t, int64(3), seq.NextValue)
		assert.Equal(t, 3, seq.Version)
	})

	t.Run("fails when range exhausted", func(t *testing.T) {
		seq, err := NewSequence("B01", DocumentNCF, 8)
		require.NoError(t, err)
		seq.WithRange(1, nil)

		_, err = seq.Allocate(now)
		require.NoError(t, err)
		assert.Equal(t, int64(0), seq.Remaining())

		_, err = seq.Allocate(now)
		assert.True(t, errors.Is(err, shared.ErrFiscalNumberAllocationFailed))
		assert.Equal(t, int64(2), seq.NextValue)
	})

	t.Run("fails when expired", func(t *testing.T) {
		seq, err := NewSequence("B02", DocumentNCF, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultPadding, seq.Padding)
		expired := now.Add(-time.Hour)
		seq.WithRange(0, &expired)

		_, err = seq.Allocate(now)
		assert.True(t, errors.Is(err, shared.ErrFiscalNumberAllocationFailed))
		assert.Equal(t, int64(-1), seq.Remaining())
	})

	t.Run("rejects invalid series", func(t *testing.T) {
		_, err := NewSequence(" ", DocumentNCF, 8)
		assert.True(t, errors.Is(err, shared.ErrValidation))
		_, err = NewSequence("X", "RECEIPT", 8)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

type mockSequenceRepository struct {
	mock.Mock
}

func (m *mockSequenceRepository) FindByPrefixForUpdate(ctx context.Context, prefix string) (*Sequence, error) {
	args := m.Called(ctx, prefix)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Sequence), args.Error(1)
}

func (m *mockSequenceRepository) FindByID(ctx context.Context, id uuid.UUID) (*Sequence, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Sequence), args.Error(1)
}

func (m *mockSequenceRepository) FindAll(ctx context.Context) ([]Sequence, error) {
	args := m.Called(ctx)
	return args.Get(0).([]Sequence), args.Error(1)
}

func (m *mockSequenceRepository) Save(ctx context.Context, seq *Sequence) error {
	return m.Called(ctx, seq).Error(0)
}

func (m *mockSequenceRepository) SaveWithLock(ctx context.Context, seq *Sequence) error {
	return m.Called(ctx, seq).Error(0)
}

func TestAllocator_NextNumber(t *testing.T) {
	ctx := context.Background()

	t.Run("allocates and persists", func(t *testing.T) {
		seq, _ := NewSequence("FAC", DocumentInvoice, 6)
		repo := new(mockSequenceRepository)
		repo.On("FindByPrefixForUpdate", ctx, "FAC").Return(seq, nil)
		repo.On("SaveWithLock", ctx, seq).Return(nil)

		n, err := NewAllocator(repo).NextNumber(ctx, "FAC")
		require.NoError(t, err)
		assert.Equal(t, "FAC000001", n.Formatted)
		repo.AssertExpectations(t)
	})

	t.Run("unknown series", func(t *testing.T) {
		repo := new(mockSequenceRepository)
		repo.On("FindByPrefixForUpdate", ctx, "ZZZ").Return(nil, shared.ErrNotFound)

		_, err := NewAllocator(repo).NextNumber(ctx, "ZZZ")
		assert.True(t, errors.Is(err, shared.ErrFiscalNumberAllocationFailed))
	})

	t.Run("keeps the database cause", func(t *testing.T) {
		dbErr := errors.New("could not serialize access")
		repo := new(mockSequenceRepository)
		repo.On("FindByPrefixForUpdate", ctx, "B02").Return(nil, dbErr)

		_, err := NewAllocator(repo).NextNumber(ctx, "B02")
		assert.True(t, errors.Is(err, shared.ErrFiscalNumberAllocationFailed))
		assert.True(t, errors.Is(err, dbErr))
	})

	t.Run("save failure aborts", func(t *testing.T) {
		seq, _ := NewSequence("B02", DocumentNCF, 8)
		repo := new(mockSequenceRepository)
		repo.On("FindByPrefixForUpdate", ctx, "B02").Return(seq, nil)
		repo.On("SaveWithLock", ctx, seq).Return(shared.ErrConcurrencyConflict)

		_, err := NewAllocator(repo).NextNumber(ctx, "B02")
		assert.True(t, errors.Is(err, shared.ErrFiscalNumberAllocationFailed))
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})
}
