package sales

import (
	"errors"
	"testing"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/pricing"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func scenarioParams(condition payment.Condition) NewSaleParams {
	customer := uuid.New()
	return NewSaleParams{
		CustomerID: &customer,
		BranchID:   uuid.New(),
		CashierID:  uuid.New(),
		Condition:  condition,
		Lines: []LineInput{{
			ProductID:   uuid.New(),
			Quantity:    d("2"),
			UnitPrice:   d("100.00"),
			DiscountPct: d("10"),
			TaxCode:     pricing.TaxITBIS18,
		}},
	}
}

func TestNewSale(t *testing.T) {
	t.Run("prices lines and resolves cash condition", func(t *testing.T) {
		sale, err := NewSale(scenarioParams(payment.Cash()))
		require.NoError(t, err)

		assert.Equal(t, StatusPending, sale.Status)
		assert.Equal(t, "180.00", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "32.40", sale.TaxTotal.StringFixed(2))
		assert.Equal(t, "212.40", sale.Total.StringFixed(2))
		assert.Equal(t, "212.40", sale.CashAmount.StringFixed(2))
		assert.True(t, sale.CreditAmount.IsZero())
		require.Len(t, sale.Lines, 1)
		assert.Equal(t, 1, sale.Lines[0].LineNo)
		assert.Equal(t, "20.00", sale.Lines[0].DiscountAmount.StringFixed(2))
	})

	t.Run("mixed condition splits effects", func(t *testing.T) {
		sale, err := NewSale(scenarioParams(payment.Mixed(d("12.40"))))
		require.NoError(t, err)
		assert.Equal(t, "12.40", sale.CashAmount.StringFixed(2))
		assert.Equal(t, "200.00", sale.CreditAmount.StringFixed(2))
	})

	t.Run("credit requires customer", func(t *testing.T) {
		p := scenarioParams(payment.Credit())
		p.CustomerID = nil
		_, err := NewSale(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})

	t.Run("malformed lines", func(t *testing.T) {
		p := scenarioParams(payment.Cash())
		p.Lines[0].ProductID = uuid.Nil
		_, err := NewSale(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))

		p = scenarioParams(payment.Cash())
		p.Lines = nil
		_, err = NewSale(p)
		assert.True(t, errors.Is(err, shared.ErrValidation))
	})
}

func TestSale_Lifecycle(t *testing.T) {
	sale, err := NewSale(scenarioParams(payment.Cash()))
	require.NoError(t, err)
	session := uuid.New()

	t.Run("cash sale needs a drawer", func(t *testing.T) {
		err := sale.Process("FAC000001", "B0200000001", nil)
		assert.True(t, errors.Is(err, shared.ErrNoOpenDrawer))
		assert.Equal(t, StatusPending, sale.Status)
	})

	t.Run("process", func(t *testing.T) {
		require.NoError(t, sale.Process("FAC000001", "B0200000001", &session))
		assert.Equal(t, StatusProcessed, sale.Status)
		assert.NotNil(t, sale.ProcessedAt)
		assert.Len(t, sale.GetDomainEvents(), 1)

		err := sale.Process("FAC000002", "B0200000002", &session)
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
		assert.Equal(t, "FAC000001", sale.SaleNumber)
	})

	t.Run("void keeps fiscal number and is terminal", func(t *testing.T) {
		actor := uuid.New()
		require.NoError(t, sale.Void(actor, " customer changed mind "))
		assert.True(t, sale.IsVoided())
		assert.Equal(t, "B0200000001", sale.NCF)
		assert.Equal(t, "customer changed mind", sale.VoidReason)
		assert.Equal(t, actor, *sale.VoidedBy)

		err := sale.Void(actor, "again")
		assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
	})
}

func TestSale_VoidRequiresProcessed(t *testing.T) {
	sale, err := NewSale(scenarioParams(payment.Credit()))
	require.NoError(t, err)
	err = sale.Void(uuid.New(), "")
	assert.True(t, errors.Is(err, shared.ErrInvalidStateTransition))
}

func TestStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusPending.CanTransitionTo(StatusProcessed))
	assert.False(t, StatusPending.CanTransitionTo(StatusVoided))
	assert.True(t, StatusProcessed.CanTransitionTo(StatusVoided))
	assert.False(t, StatusVoided.CanTransitionTo(StatusProcessed))
	assert.False(t, Status("DRAFT").IsValid())
}

func TestCopyLines(t *testing.T) {
	lines, _, err := BuildLines(scenarioParams(payment.Cash()).Lines, decimal.Zero)
	require.NoError(t, err)

	copied := CopyLines(lines)
	require.Len(t, copied, 1)
	assert.NotEqual(t, lines[0].ID, copied[0].ID)
	assert.True(t, copied[0].Total.Equal(lines[0].Total))
	assert.Len(t, StockRequests(copied), 1)
}

func TestBuildLines_RejectsUnstorableScale(t *testing.T) {
	lines := scenarioParams(payment.Cash()).Lines
	lines[0].Quantity = d("1.00005")
	lines[0].UnitPrice = d("100.123456")

	built, _, err := BuildLines(lines, decimal.Zero)
	assert.True(t, errors.Is(err, shared.ErrValidation))
	assert.Nil(t, built)
}
