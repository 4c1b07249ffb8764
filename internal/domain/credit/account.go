// Package credit models the customer credit ledger.
package credit

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Account is the credit ledger of one customer.
// A CreditLimit of zero means no limit is enforced.
type Account struct {
	shared.BaseAggregateRoot
	CustomerID         uuid.UUID
	CustomerName       string
	CreditLimit        decimal.Decimal
	OutstandingBalance decimal.Decimal
}

// NewAccount creates a credit account with no outstanding balance
func NewAccount(customerID uuid.UUID, customerName string, creditLimit decimal.Decimal) (*Account, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer ID cannot be empty")
	}
	if creditLimit.IsNegative() {
		return nil, shared.NewValidationError("credit_limit", "Credit limit cannot be negative")
	}
	return &Account{
		BaseAggregateRoot:  shared.NewBaseAggregateRoot(),
		CustomerID:         customerID,
		CustomerName:       customerName,
		CreditLimit:        creditLimit,
		OutstandingBalance: decimal.Zero,
	}, nil
}

// HasLimit reports whether a credit ceiling is enforced
func (a *Account) HasLimit() bool {
	return a.CreditLimit.IsPositive()
}

// AvailableCredit returns the remaining credit, or nil when unlimited
func (a *Account) AvailableCredit() *decimal.Decimal {
	if !a.HasLimit() {
		return nil
	}
	avail := a.CreditLimit.Sub(a.OutstandingBalance)
	if avail.IsNegative() {
		avail = decimal.Zero
	}
	return &avail
}

// CanCharge checks whether amount fits under the limit without mutating the account
func (a *Account) CanCharge(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return shared.NewValidationError("amount", "Credit amount must be positive")
	}
	if a.HasLimit() && a.OutstandingBalance.Add(amount).GreaterThan(a.CreditLimit) {
		return NewCreditLimitExceededError(a, amount)
	}
	return nil
}

// Charge increases the outstanding balance for a credit sale
func (a *Account) Charge(amount decimal.Decimal) (decimal.Decimal, error) {
	if err := a.CanCharge(amount); err != nil {
		return a.OutstandingBalance, err
	}
	a.OutstandingBalance = a.OutstandingBalance.Add(amount)
	a.touch()
	return a.OutstandingBalance, nil
}

// Credit decreases the outstanding balance for a payment or a voided credit sale
func (a *Account) Credit(amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return a.OutstandingBalance, shared.NewValidationError("amount", "Credit amount must be positive")
	}
	if amount.GreaterThan(a.OutstandingBalance) {
		return a.OutstandingBalance, shared.NewDomainErrorf(shared.CodeValidation,
			"Amount %s exceeds outstanding balance %s", amount.StringFixed(2), a.OutstandingBalance.StringFixed(2)).
			WithDetail("field", "amount")
	}
	a.OutstandingBalance = a.OutstandingBalance.Sub(amount)
	a.touch()
	return a.OutstandingBalance, nil
}

func (a *Account) touch() {
	a.Touch(time.Now())
}

// NewCreditLimitExceededError carries the limit, current balance and requested amount
func NewCreditLimitExceededError(a *Account, requested decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeCreditLimitExceeded,
		"Credit limit %s exceeded: outstanding balance %s, requested %s",
		a.CreditLimit.StringFixed(2), a.OutstandingBalance.StringFixed(2), requested.StringFixed(2)).
		WithDetail("customer_id", a.CustomerID.String()).
		WithDetail("credit_limit", a.CreditLimit.StringFixed(2)).
		WithDetail("outstanding_balance", a.OutstandingBalance.StringFixed(2)).
		WithDetail("requested", requested.StringFixed(2))
}
