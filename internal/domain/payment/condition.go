// Package payment models the condition of payment of a sale or order and the
// ledger effects it resolves to.
package payment

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Kind is the condition of payment
type Kind string

const (
	KindCash   Kind = "CONTADO"
	KindCredit Kind = "CREDITO"
	KindMixed  Kind = "MIXTO"
)

// IsValid checks if the kind is known
func (k Kind) IsValid() bool {
	switch k {
	case KindCash, KindCredit, KindMixed:
		return true
	}
	return false
}

// String returns the string representation
func (k Kind) String() string {
	return string(k)
}

// Condition is the condition of payment of a document.
// CashPortion is only meaningful for MIXTO: the amount tendered in cash, the rest goes on credit.
type Condition struct {
	Kind        Kind
	CashPortion decimal.Decimal
}

// Cash returns a CONTADO condition
func Cash() Condition {
	return Condition{Kind: KindCash}
}

// Credit returns a CREDITO condition
func Credit() Condition {
	return Condition{Kind: KindCredit}
}

// Mixed returns a MIXTO condition with the given cash portion
func Mixed(cashPortion decimal.Decimal) Condition {
	return Condition{Kind: KindMixed, CashPortion: cashPortion}
}

// NewCondition validates and builds a condition
func NewCondition(kind Kind, cashPortion decimal.Decimal) (Condition, error) {
	if !kind.IsValid() {
		return Condition{}, shared.NewValidationError("payment_condition", "Unknown payment condition: "+string(kind))
	}
	if kind != KindMixed {
		return Condition{Kind: kind}, nil
	}
	if cashPortion.IsNegative() {
		return Condition{}, shared.NewValidationError("cash_portion", "Cash portion cannot be negative")
	}
	return Mixed(cashPortion), nil
}

// NormalizeForConversion returns the condition used when an order becomes a sale.
// MIXTO orders are invoiced as CONTADO.
func (c Condition) NormalizeForConversion() Condition {
	if c.Kind == KindMixed {
		return Cash()
	}
	return c
}

// Effects is how a document total splits across the cash and credit ledgers
type Effects struct {
	Cash   decimal.Decimal
	Credit decimal.Decimal
}

// AffectsCash reports whether the drawer ledger is touched
func (e Effects) AffectsCash() bool {
	return e.Cash.IsPositive()
}

// AffectsCredit reports whether the customer credit ledger is touched
func (e Effects) AffectsCredit() bool {
	return e.Credit.IsPositive()
}

// Resolve splits total into cash and credit effects
func (c Condition) Resolve(total decimal.Decimal) Effects {
	switch c.Kind {
	case KindCredit:
		return Effects{Cash: decimal.Zero, Credit: total}
	case KindMixed:
		cash := decimal.Min(c.CashPortion, total)
		if cash.IsNegative() {
			cash = decimal.Zero
		}
		return Effects{Cash: cash, Credit: total.Sub(cash)}
	default:
		return Effects{Cash: total, Credit: decimal.Zero}
	}
}
