// Package cash models cash drawer sessions and their append-only movement ledger.
package cash

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus is the state of a drawer session
type SessionStatus string

const (
	SessionOpen   SessionStatus = "OPEN"
	SessionClosed SessionStatus = "CLOSED"
)

// String returns the string representation
func (s SessionStatus) String() string {
	return string(s)
}

// DrawerSession is the accountability period of one operator's till at a branch.
// RunningCash always equals OpeningFloat plus the signed sum of the session's movements.
type DrawerSession struct {
	shared.BaseAggregateRoot
	BranchID        uuid.UUID
	OperatorID      uuid.UUID
	OpeningFloat    decimal.Decimal
	RunningCash     decimal.Decimal
	Status          SessionStatus
	OpenedAt        time.Time
	ClosedAt        *time.Time
	ClosedBy        *uuid.UUID
	CountedCash     *decimal.Decimal
	TheoreticalCash *decimal.Decimal
	Variance        *decimal.Decimal

	pending []CashMovement
}

// OpenDrawerSession starts a session with the given opening float
func OpenDrawerSession(branchID, operatorID uuid.UUID, openingFloat decimal.Decimal) (*DrawerSession, error) {
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch_id", "Branch ID cannot be empty")
	}
	if operatorID == uuid.Nil {
		return nil, shared.NewValidationError("operator_id", "Operator ID cannot be empty")
	}
	if openingFloat.IsNegative() {
		return nil, shared.NewValidationError("opening_float", "Opening float cannot be negative")
	}

	s := &DrawerSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		BranchID:          branchID,
		OperatorID:        operatorID,
		OpeningFloat:      openingFloat,
		RunningCash:       openingFloat,
		Status:            SessionOpen,
	}
	s.OpenedAt = s.CreatedAt
	s.pending = append(s.pending, newMovement(s.ID, MovementOpen, openingFloat, "Opening float", "", nil, operatorID, s.OpenedAt))
	s.AddDomainEvent(NewDrawerOpenedEvent(s))
	return s, nil
}

// IsOpen reports whether the session accepts movements
func (s *DrawerSession) IsOpen() bool {
	return s.Status == SessionOpen
}

// PendingMovements returns movements appended since the session was loaded
func (s *DrawerSession) PendingMovements() []CashMovement {
	return s.pending
}

// ClearPendingMovements is called once pending movements are persisted
func (s *DrawerSession) ClearPendingMovements() {
	s.pending = nil
}

// RecordSale adds the cash portion of a sale
func (s *DrawerSession) RecordSale(amount decimal.Decimal, saleID uuid.UUID, saleNumber string, actorID uuid.UUID) (decimal.Decimal, error) {
	return s.append(MovementSale, amount, "Cash sale "+saleNumber, saleNumber, &saleID, actorID)
}

// RecordSaleVoid takes back the cash portion of a voided sale
func (s *DrawerSession) RecordSaleVoid(amount decimal.Decimal, saleID uuid.UUID, saleNumber string, actorID uuid.UUID) (decimal.Decimal, error) {
	return s.append(MovementSaleVoid, amount, "Void of sale "+saleNumber, saleNumber, &saleID, actorID)
}

// RegisterManualMovement records a manual cash in or out
func (s *DrawerSession) RegisterManualMovement(typ MovementType, amount decimal.Decimal, description string, actorID uuid.UUID) (decimal.Decimal, error) {
	if typ != MovementManualIn && typ != MovementManualOut {
		return s.RunningCash, shared.NewValidationError("type", "Manual movement must be MANUAL_IN or MANUAL_OUT")
	}
	if description == "" {
		return s.RunningCash, shared.NewValidationError("description", "Description is required")
	}
	return s.append(typ, amount, description, "", nil, actorID)
}

// Close freezes the session. history must be every persisted movement of the session;
// the theoretical cash is the opening float plus their signed sum.
func (s *DrawerSession) Close(countedCash decimal.Decimal, history []CashMovement, actorID uuid.UUID) error {
	if !s.IsOpen() {
		return shared.NewInvalidStateTransitionError("drawer session", string(s.Status), "close")
	}
	if countedCash.IsNegative() {
		return shared.NewValidationError("counted_cash", "Counted cash cannot be negative")
	}

	now := time.Now()
	theoretical := s.OpeningFloat.Add(SumSigned(history)).Add(SumSigned(s.pending))
	variance := countedCash.Sub(theoretical)

	s.pending = append(s.pending, newMovement(s.ID, MovementClose, countedCash, "Closing count", "", nil, actorID, now))
	s.Status = SessionClosed
	s.ClosedAt = &now
	s.ClosedBy = &actorID
	s.CountedCash = &countedCash
	s.TheoreticalCash = &theoretical
	s.Variance = &variance
	s.Touch(now)
	s.AddDomainEvent(NewDrawerClosedEvent(s))
	return nil
}

func (s *DrawerSession) append(typ MovementType, amount decimal.Decimal, description, reference string, referenceID *uuid.UUID, actorID uuid.UUID) (decimal.Decimal, error) {
	if !s.IsOpen() {
		return s.RunningCash, shared.NewInvalidStateTransitionError("drawer session", string(s.Status), "register "+string(typ)+" movement on")
	}
	if !amount.IsPositive() {
		return s.RunningCash, shared.NewValidationError("amount", "Amount must be positive")
	}

	m := newMovement(s.ID, typ, amount, description, reference, referenceID, actorID, time.Now())
	next := s.RunningCash.Add(m.Signed())
	if next.IsNegative() {
		return s.RunningCash, shared.NewDomainErrorf(shared.CodeInsufficientCash,
			"Drawer holds %s, cannot take out %s", s.RunningCash.StringFixed(2), amount.StringFixed(2)).
			WithDetail("running_cash", s.RunningCash.StringFixed(2)).
			WithDetail("requested", amount.StringFixed(2))
	}

	s.RunningCash = next
	s.pending = append(s.pending, m)
	s.Touch(m.CreatedAt)
	return s.RunningCash, nil
}
