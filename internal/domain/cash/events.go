package cash

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AggregateTypeDrawerSession is the aggregate type of drawer sessions
const AggregateTypeDrawerSession = "DrawerSession"

const (
	EventTypeDrawerOpened = "drawer.opened"
	EventTypeDrawerClosed = "drawer.closed"
)

// DrawerOpenedEvent is raised when a session opens
type DrawerOpenedEvent struct {
	shared.BaseDomainEvent
	OperatorID   uuid.UUID       `json:"operator_id"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
}

// NewDrawerOpenedEvent creates a new DrawerOpenedEvent
func NewDrawerOpenedEvent(s *DrawerSession) *DrawerOpenedEvent {
	return &DrawerOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawerOpened, AggregateTypeDrawerSession, s.ID, s.BranchID),
		OperatorID:      s.OperatorID,
		OpeningFloat:    s.OpeningFloat,
	}
}

// DrawerClosedEvent is raised when a session closes
type DrawerClosedEvent struct {
	shared.BaseDomainEvent
	OperatorID  uuid.UUID       `json:"operator_id"`
	Theoretical decimal.Decimal `json:"theoretical"`
	Counted     decimal.Decimal `json:"counted"`
	Variance    decimal.Decimal `json:"variance"`
}

// NewDrawerClosedEvent creates a new DrawerClosedEvent
func NewDrawerClosedEvent(s *DrawerSession) *DrawerClosedEvent {
	e := &DrawerClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawerClosed, AggregateTypeDrawerSession, s.ID, s.BranchID),
		OperatorID:      s.OperatorID,
	}
	if s.TheoreticalCash != nil {
		e.Theoretical = *s.TheoreticalCash
	}
	if s.CountedCash != nil {
		e.Counted = *s.CountedCash
	}
	if s.Variance != nil {
		e.Variance = *s.Variance
	}
	return e
}
