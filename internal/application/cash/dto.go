package cash

import (
	"time"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OpenDrawerRequest represents a request to open a drawer session
type OpenDrawerRequest struct {
	BranchID     uuid.UUID       `json:"branch_id" binding:"required"`
	OpeningFloat decimal.Decimal `json:"opening_float" binding:"decimal_gte0"`
}

// CloseDrawerRequest represents a request to close a drawer session with the counted cash
type CloseDrawerRequest struct {
	CountedCash decimal.Decimal `json:"counted_cash" binding:"decimal_gte0"`
}

// CashMovementRequest represents a manual cash in or out
type CashMovementRequest struct {
	Type        string          `json:"type" binding:"required,oneof=IN OUT"`
	Amount      decimal.Decimal `json:"amount" binding:"decimal_gt0"`
	Description string          `json:"description" binding:"required,min=1,max=200"`
}

// MovementType maps the request type to the ledger movement type
func (r CashMovementRequest) MovementType() cash.MovementType {
	if r.Type == "OUT" {
		return cash.MovementManualOut
	}
	return cash.MovementManualIn
}

// DrawerSessionResponse represents a drawer session in API responses
type DrawerSessionResponse struct {
	ID              uuid.UUID        `json:"id"`
	BranchID        uuid.UUID        `json:"branch_id"`
	OperatorID      uuid.UUID        `json:"operator_id"`
	OpeningFloat    decimal.Decimal  `json:"opening_float"`
	RunningCash     decimal.Decimal  `json:"running_cash"`
	Status          string           `json:"status"`
	OpenedAt        time.Time        `json:"opened_at"`
	ClosedAt        *time.Time       `json:"closed_at,omitempty"`
	ClosedBy        *uuid.UUID       `json:"closed_by,omitempty"`
	CountedCash     *decimal.Decimal `json:"counted_cash,omitempty"`
	TheoreticalCash *decimal.Decimal `json:"theoretical_cash,omitempty"`
	Variance        *decimal.Decimal `json:"variance,omitempty"`
	VarianceClass   string           `json:"variance_class,omitempty"`
	Version         int              `json:"version"`
}

// ToDrawerSessionResponse converts a domain DrawerSession to DrawerSessionResponse
func ToDrawerSessionResponse(s *cash.DrawerSession) DrawerSessionResponse {
	resp := DrawerSessionResponse{
		ID:              s.ID,
		BranchID:        s.BranchID,
		OperatorID:      s.OperatorID,
		OpeningFloat:    s.OpeningFloat,
		RunningCash:     s.RunningCash,
		Status:          string(s.Status),
		OpenedAt:        s.OpenedAt,
		ClosedAt:        s.ClosedAt,
		ClosedBy:        s.ClosedBy,
		CountedCash:     s.CountedCash,
		TheoreticalCash: s.TheoreticalCash,
		Variance:        s.Variance,
		Version:         s.Version,
	}
	if s.Variance != nil && s.TheoreticalCash != nil {
		resp.VarianceClass = string(cash.ClassifyVariance(*s.Variance, *s.TheoreticalCash))
	}
	return resp
}

// CashMovementResponse represents a cash movement in API responses
type CashMovementResponse struct {
	ID           uuid.UUID       `json:"id"`
	SessionID    uuid.UUID       `json:"session_id"`
	Type         string          `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	SignedAmount decimal.Decimal `json:"signed_amount"`
	Description  string          `json:"description"`
	Reference    string          `json:"reference,omitempty"`
	ActorID      uuid.UUID       `json:"actor_id"`
	CreatedAt    time.Time       `json:"created_at"`
	RunningCash  decimal.Decimal `json:"running_cash"`
}

// ToCashMovementResponse converts a movement to a response, with the session's cash after it
func ToCashMovementResponse(m cash.CashMovement, runningCash decimal.Decimal) CashMovementResponse {
	return CashMovementResponse{
		ID:           m.ID,
		SessionID:    m.SessionID,
		Type:         string(m.Type),
		Amount:       m.Amount,
		SignedAmount: m.Signed(),
		Description:  m.Description,
		Reference:    m.Reference,
		ActorID:      m.ActorID,
		CreatedAt:    m.CreatedAt,
		RunningCash:  runningCash,
	}
}

// MovementTotal aggregates the movements of one type
type MovementTotal struct {
	Type   string          `json:"type" db:"type"`
	Count  int64           `json:"count" db:"count"`
	Amount decimal.Decimal `json:"amount" db:"amount"`
}

// SaleTotals aggregates the sales a session took
type SaleTotals struct {
	ProcessedCount int64           `json:"processed_count" db:"processed_count"`
	CashTotal      decimal.Decimal `json:"cash_total" db:"cash_total"`
	CreditTotal    decimal.Decimal `json:"credit_total" db:"credit_total"`
	VoidedCount    int64           `json:"voided_count" db:"voided_count"`
	VoidedTotal    decimal.Decimal `json:"voided_total" db:"voided_total"`
}

// ClosingReportResponse is the reconciliation of a drawer session
type ClosingReportResponse struct {
	Session         DrawerSessionResponse `json:"session"`
	Movements       []MovementTotal       `json:"movements"`
	Sales           SaleTotals            `json:"sales"`
	TheoreticalCash decimal.Decimal       `json:"theoretical_cash"`
	CountedCash     *decimal.Decimal      `json:"counted_cash,omitempty"`
	Variance        *decimal.Decimal      `json:"variance,omitempty"`
	VarianceClass   string                `json:"variance_class,omitempty"`
	Summary         string                `json:"summary"`
}
