// Package sales models point-of-sale transactions.
package sales

import (
	"strings"
	"time"

	"github.com/erp/pos/internal/domain/payment"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status represents the status of a sale
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusProcessed Status = "PROCESSED"
	StatusVoided    Status = "ANULADA"
)

// IsValid checks if the status is a valid sale status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessed, StatusVoided:
		return true
	}
	return false
}

// String returns the string representation
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target
func (s Status) CanTransitionTo(target Status) bool {
	switch s {
	case StatusPending:
		return target == StatusProcessed
	case StatusProcessed:
		return target == StatusVoided
	default:
		return false
	}
}

// Sale is a point-of-sale transaction. Once processed only its status and void
// metadata change.
type Sale struct {
	shared.BaseAggregateRoot
	SaleNumber      string
	NCF             string
	CustomerID      *uuid.UUID
	BranchID        uuid.UUID
	CashierID       uuid.UUID
	DrawerSessionID *uuid.UUID
	OrderID         *uuid.UUID
	Condition       payment.Condition
	Totals
	CashAmount   decimal.Decimal
	CreditAmount decimal.Decimal
	Status       Status
	Notes        string
	Lines        []LineItem
	ProcessedAt  *time.Time
	VoidedAt     *time.Time
	VoidedBy     *uuid.UUID
	VoidReason   string
}

// NewSaleParams are the inputs of a new sale
type NewSaleParams struct {
	CustomerID        *uuid.UUID
	BranchID          uuid.UUID
	CashierID         uuid.UUID
	Condition         payment.Condition
	GlobalDiscountPct decimal.Decimal
	Notes             string
	Lines             []LineInput
}

// NewSale prices the lines and resolves the payment condition into a pending sale
func NewSale(p NewSaleParams) (*Sale, error) {
	lines, totals, err := BuildLines(p.Lines, p.GlobalDiscountPct)
	if err != nil {
		return nil, err
	}
	return newSale(p.CustomerID, p.BranchID, p.CashierID, p.Condition, p.Notes, lines, totals)
}

// NewSaleFromLines builds a pending sale from already priced lines, as when invoicing an order
func NewSaleFromLines(customerID *uuid.UUID, branchID, cashierID uuid.UUID, condition payment.Condition, notes string, lines []LineItem, totals Totals) (*Sale, error) {
	if len(lines) == 0 {
		return nil, shared.NewValidationError("lines", "At least one line is required")
	}
	return newSale(customerID, branchID, cashierID, condition, notes, CopyLines(lines), totals)
}

func newSale(customerID *uuid.UUID, branchID, cashierID uuid.UUID, condition payment.Condition, notes string, lines []LineItem, totals Totals) (*Sale, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch_id", "Branch ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewValidationError("cashier_id", "Cashier ID cannot be empty")
	}
	if !condition.Kind.IsValid() {
		return nil, shared.NewValidationError("payment_condition", "Unknown payment condition: "+string(condition.Kind))
	}

	effects := condition.Resolve(totals.Total)
	if effects.AffectsCredit() && (customerID == nil || *customerID == uuid.Nil) {
		return nil, shared.NewValidationError("customer_id", "A customer is required for credit sales")
	}

	return &Sale{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		BranchID:          branchID,
		CashierID:         cashierID,
		Condition:         condition,
		Totals:            totals,
		CashAmount:        effects.Cash,
		CreditAmount:      effects.Credit,
		Status:            StatusPending,
		Notes:             strings.TrimSpace(notes),
		Lines:             lines,
	}, nil
}

// Effects returns the cash and credit portions of the sale
func (s *Sale) Effects() payment.Effects {
	return payment.Effects{Cash: s.CashAmount, Credit: s.CreditAmount}
}

// Process marks the sale issued under the allocated numbers.
// drawerSessionID is the session that received the cash portion, nil for pure credit sales.
func (s *Sale) Process(saleNumber, ncf string, drawerSessionID *uuid.UUID) error {
	if !s.Status.CanTransitionTo(StatusProcessed) {
		return shared.NewInvalidStateTransitionError("sale", string(s.Status), "process")
	}
	if saleNumber == "" || ncf == "" {
		return shared.NewDomainError(shared.CodeFiscalNumberAllocationFailed, "A sale cannot be processed without its document numbers")
	}
	if s.CashAmount.IsPositive() && drawerSessionID == nil {
		return shared.ErrNoOpenDrawer
	}

	now := time.Now()
	s.SaleNumber = saleNumber
	s.NCF = ncf
	s.DrawerSessionID = drawerSessionID
	s.Status = StatusProcessed
	s.ProcessedAt = &now
	s.Touch(now)
	s.AddDomainEvent(NewSaleProcessedEvent(s))
	return nil
}

// Void annuls a processed sale. The fiscal number stays assigned to it.
func (s *Sale) Void(actorID uuid.UUID, reason string) error {
	if !s.Status.CanTransitionTo(StatusVoided) {
		return shared.NewInvalidStateTransitionError("sale", string(s.Status), "void")
	}
	if actorID == uuid.Nil {
		return shared.NewValidationError("actor_id", "Actor ID cannot be empty")
	}

	now := time.Now()
	s.Status = StatusVoided
	s.VoidedAt = &now
	s.VoidedBy = &actorID
	s.VoidReason = strings.TrimSpace(reason)
	s.Touch(now)
	s.AddDomainEvent(NewSaleVoidedEvent(s))
	return nil
}

// IsVoided reports whether the sale was annulled
func (s *Sale) IsVoided() bool {
	return s.Status == StatusVoided
}
