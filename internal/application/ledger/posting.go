package ledger

import (
	"context"
	"errors"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/fiscal"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NumberSeries are the series prefixes documents are numbered from
type NumberSeries struct {
	Invoice string // internal sale number
	NCF     string // default fiscal receipt series
	Order   string
}

// DefaultNumberSeries returns the stock series prefixes
func DefaultNumberSeries() NumberSeries {
	return NumberSeries{
		Invoice: "FAC",
		NCF:     "B02",
		Order:   "PED",
	}
}

// RequireOpenDrawer locks the open drawer session of an operator at a branch
func RequireOpenDrawer(ctx context.Context, repo cash.SessionRepository, branchID, operatorID uuid.UUID) (*cash.DrawerSession, error) {
	session, err := repo.FindOpenForUpdate(ctx, branchID, operatorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNoOpenDrawer.
				WithDetail("branch_id", branchID.String()).
				WithDetail("operator_id", operatorID.String())
		}
		return nil, err
	}
	return session, nil
}

// LockCreditAccount locks a customer's credit account
func LockCreditAccount(ctx context.Context, repo credit.AccountRepository, customerID *uuid.UUID) (*credit.Account, error) {
	if customerID == nil || *customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "A customer is required for credit")
	}
	account, err := repo.FindByCustomerForUpdate(ctx, *customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Customer has no credit account").
				WithDetail("customer_id", customerID.String())
		}
		return nil, err
	}
	return account, nil
}

// CheckCredit locks the account and verifies amount fits under its limit without charging it
func CheckCredit(ctx context.Context, repo credit.AccountRepository, customerID *uuid.UUID, amount decimal.Decimal) (*credit.Account, error) {
	account, err := LockCreditAccount(ctx, repo, customerID)
	if err != nil {
		return nil, err
	}
	if err := account.CanCharge(amount); err != nil {
		return nil, err
	}
	return account, nil
}

// AllocateNumber issues the next number of a series inside the current transaction
func AllocateNumber(ctx context.Context, repos TransactionalRepositories, prefix string) (fiscal.Number, error) {
	return fiscal.NewAllocator(repos.SequenceRepo()).NextNumber(ctx, prefix)
}
