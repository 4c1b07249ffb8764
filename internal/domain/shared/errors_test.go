package shared

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDomainError_Is(t *testing.T) {
	t.Run("matches sentinel by code", func(t *testing.T) {
		err := NewDomainError(CodeInsufficientStock, "only 3 left")
		assert.True(t, errors.Is(err, ErrInsufficientStock))
		assert.False(t, errors.Is(err, ErrCreditLimitExceeded))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		err := fmt.Errorf("create sale: %w", NewValidationError("quantity", "Quantity must be positive"))
		assert.True(t, errors.Is(err, ErrValidation))

		var domainErr *DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "quantity", domainErr.Details["field"])
	})
}

func TestDomainError_WithDetail(t *testing.T) {
	base := NewDomainError(CodeNoOpenDrawer, "no drawer")
	withBranch := base.WithDetail("branch_id", "b1")

	assert.Nil(t, base.Details)
	assert.Equal(t, "b1", withBranch.Details["branch_id"])
	assert.Equal(t, base.Code, withBranch.Code)
}

func TestNewInvalidStateTransitionError(t *testing.T) {
	err := NewInvalidStateTransitionError("sale", "ANULADA", "void")
	assert.Equal(t, CodeInvalidStateTransition, err.Code)
	assert.Equal(t, "Cannot void sale in status ANULADA", err.Message)
	assert.Equal(t, "ANULADA", err.Details["from"])
}
