package cash

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the kind of a cash movement
type MovementType string

const (
	MovementOpen      MovementType = "OPEN"
	MovementSale      MovementType = "SALE"
	MovementManualIn  MovementType = "MANUAL_IN"
	MovementManualOut MovementType = "MANUAL_OUT"
	MovementClose     MovementType = "CLOSE"
	MovementSaleVoid  MovementType = "SALE_VOID"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementOpen, MovementSale, MovementManualIn, MovementManualOut, MovementClose, MovementSaleVoid:
		return true
	}
	return false
}

// Sign returns the effect of the movement type on running cash.
// OPEN and CLOSE only record the float and the count.
func (t MovementType) Sign() int {
	switch t {
	case MovementSale, MovementManualIn:
		return 1
	case MovementManualOut, MovementSaleVoid:
		return -1
	default:
		return 0
	}
}

// String returns the string representation
func (t MovementType) String() string {
	return string(t)
}

// CashMovement is one immutable entry of a drawer session's ledger
type CashMovement struct {
	ID          uuid.UUID
	SessionID   uuid.UUID
	Type        MovementType
	Amount      decimal.Decimal // always non-negative
	Description string
	Reference   string
	ReferenceID *uuid.UUID
	ActorID     uuid.UUID
	CreatedAt   time.Time
}

// Signed returns the movement's contribution to running cash
func (m CashMovement) Signed() decimal.Decimal {
	switch m.Type.Sign() {
	case 1:
		return m.Amount
	case -1:
		return m.Amount.Neg()
	default:
		return decimal.Zero
	}
}

// SumSigned adds the signed contribution of every movement
func SumSigned(movements []CashMovement) decimal.Decimal {
	total := decimal.Zero
	for _, m := range movements {
		total = total.Add(m.Signed())
	}
	return total
}

func newMovement(sessionID uuid.UUID, typ MovementType, amount decimal.Decimal, description, reference string, referenceID *uuid.UUID, actorID uuid.UUID, at time.Time) CashMovement {
	return CashMovement{
		ID:          uuid.New(),
		SessionID:   sessionID,
		Type:        typ,
		Amount:      amount,
		Description: description,
		Reference:   reference,
		ReferenceID: referenceID,
		ActorID:     actorID,
		CreatedAt:   at,
	}
}
