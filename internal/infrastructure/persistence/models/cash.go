package models

import (
	"time"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DrawerSessionModel is the persistence model for a drawer session.
// The partial unique index on open sessions lives in the SQL migrations.
type DrawerSessionModel struct {
	AggregateModel
	BranchID        uuid.UUID        `gorm:"type:uuid;not null;index:idx_drawer_branch_operator,priority:1"`
	OperatorID      uuid.UUID        `gorm:"type:uuid;not null;index:idx_drawer_branch_operator,priority:2"`
	OpeningFloat    decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	RunningCash     decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Status          string           `gorm:"type:varchar(20);not null;index"`
	OpenedAt        time.Time        `gorm:"not null"`
	ClosedAt        *time.Time
	ClosedBy        *uuid.UUID       `gorm:"type:uuid"`
	CountedCash     *decimal.Decimal `gorm:"type:decimal(18,4)"`
	TheoreticalCash *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Variance        *decimal.Decimal `gorm:"type:decimal(18,4)"`
}

// TableName returns the table name for GORM
func (DrawerSessionModel) TableName() string {
	return "drawer_sessions"
}

// ToDomain converts the persistence model to a domain DrawerSession
func (m *DrawerSessionModel) ToDomain() *cash.DrawerSession {
	return &cash.DrawerSession{
		BaseAggregateRoot: m.ToAggregateRoot(),
		BranchID:          m.BranchID,
		OperatorID:        m.OperatorID,
		OpeningFloat:      m.OpeningFloat,
		RunningCash:       m.RunningCash,
		Status:            cash.SessionStatus(m.Status),
		OpenedAt:          m.OpenedAt,
		ClosedAt:          m.ClosedAt,
		ClosedBy:          m.ClosedBy,
		CountedCash:       m.CountedCash,
		TheoreticalCash:   m.TheoreticalCash,
		Variance:          m.Variance,
	}
}

// FromDomain populates the persistence model from a domain DrawerSession
func (m *DrawerSessionModel) FromDomain(s *cash.DrawerSession) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.BranchID = s.BranchID
	m.OperatorID = s.OperatorID
	m.OpeningFloat = s.OpeningFloat
	m.RunningCash = s.RunningCash
	m.Status = string(s.Status)
	m.OpenedAt = s.OpenedAt
	m.ClosedAt = s.ClosedAt
	m.ClosedBy = s.ClosedBy
	m.CountedCash = s.CountedCash
	m.TheoreticalCash = s.TheoreticalCash
	m.Variance = s.Variance
}

// DrawerSessionModelFromDomain creates a new persistence model from a domain DrawerSession
func DrawerSessionModelFromDomain(s *cash.DrawerSession) *DrawerSessionModel {
	m := &DrawerSessionModel{}
	m.FromDomain(s)
	return m
}

// CashMovementModel is the persistence model for a cash movement. Rows are insert-only;
// Seq orders the movements of a session.
type CashMovementModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	SessionID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_movement_session_seq,priority:1"`
	Seq         int64           `gorm:"not null;uniqueIndex:idx_movement_session_seq,priority:2"`
	Type        string          `gorm:"type:varchar(20);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Description string          `gorm:"type:varchar(200);not null;default:''"`
	Reference   string          `gorm:"type:varchar(50);not null;default:''"`
	ReferenceID *uuid.UUID      `gorm:"type:uuid;index"`
	ActorID     uuid.UUID       `gorm:"type:uuid;not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashMovementModel) TableName() string {
	return "cash_movements"
}

// ToDomain converts the persistence model to a domain CashMovement
func (m *CashMovementModel) ToDomain() cash.CashMovement {
	return cash.CashMovement{
		ID:          m.ID,
		SessionID:   m.SessionID,
		Type:        cash.MovementType(m.Type),
		Amount:      m.Amount,
		Description: m.Description,
		Reference:   m.Reference,
		ReferenceID: m.ReferenceID,
		ActorID:     m.ActorID,
		CreatedAt:   m.CreatedAt,
	}
}

// CashMovementModelFromDomain creates a new persistence model from a domain CashMovement
func CashMovementModelFromDomain(c cash.CashMovement, seq int64) *CashMovementModel {
	return &CashMovementModel{
		ID:          c.ID,
		SessionID:   c.SessionID,
		Seq:         seq,
		Type:        string(c.Type),
		Amount:      c.Amount,
		Description: c.Description,
		Reference:   c.Reference,
		ReferenceID: c.ReferenceID,
		ActorID:     c.ActorID,
		CreatedAt:   c.CreatedAt,
	}
}
