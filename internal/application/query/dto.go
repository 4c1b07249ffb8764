package query

import (
	"time"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockResponse is the stock position of a product at a branch
type StockResponse struct {
	ProductID   uuid.UUID       `json:"product_id" db:"product_id"`
	BranchID    uuid.UUID       `json:"branch_id" db:"branch_id"`
	ProductName string          `json:"product_name" db:"product_name"`
	OnHand      decimal.Decimal `json:"on_hand" db:"on_hand"`
	Reserved    decimal.Decimal `json:"reserved" db:"reserved"`
	Available   decimal.Decimal `json:"available" db:"available"`
	AverageCost decimal.Decimal `json:"average_cost" db:"average_cost"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// ToStockResponse converts a stock record to StockResponse
func ToStockResponse(s *inventory.ProductBranchStock) StockResponse {
	return StockResponse{
		ProductID:   s.ProductID,
		BranchID:    s.BranchID,
		ProductName: s.ProductName,
		OnHand:      s.OnHand,
		Reserved:    s.Reserved,
		Available:   s.Available,
		AverageCost: s.AverageCost,
		UpdatedAt:   s.UpdatedAt,
	}
}

// StockListFilter filters a branch stock listing
type StockListFilter struct {
	Search   string `form:"search"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// CreditExposureResponse is a customer's credit position.
// AvailableCredit is omitted when the account has no limit.
type CreditExposureResponse struct {
	CustomerID         uuid.UUID        `json:"customer_id"`
	CustomerName       string           `json:"customer_name"`
	CreditLimit        decimal.Decimal  `json:"credit_limit"`
	OutstandingBalance decimal.Decimal  `json:"outstanding_balance"`
	AvailableCredit    *decimal.Decimal `json:"available_credit,omitempty"`
	Unlimited          bool             `json:"unlimited"`
}

// ToCreditExposureResponse converts a credit account to CreditExposureResponse
func ToCreditExposureResponse(a *credit.Account) CreditExposureResponse {
	return CreditExposureResponse{
		CustomerID:         a.CustomerID,
		CustomerName:       a.CustomerName,
		CreditLimit:        a.CreditLimit,
		OutstandingBalance: a.OutstandingBalance,
		AvailableCredit:    a.AvailableCredit(),
		Unlimited:          !a.HasLimit(),
	}
}

// DrawerStateResponse is the open drawer of an operator at a branch
type DrawerStateResponse struct {
	SessionID     uuid.UUID       `json:"session_id"`
	BranchID      uuid.UUID       `json:"branch_id"`
	OperatorID    uuid.UUID       `json:"operator_id"`
	OpeningFloat  decimal.Decimal `json:"opening_float"`
	RunningCash   decimal.Decimal `json:"running_cash"`
	MovementCount int             `json:"movement_count"`
	OpenedAt      time.Time       `json:"opened_at"`
}

// ToDrawerStateResponse converts an open session and its movements to DrawerStateResponse
func ToDrawerStateResponse(s *cash.DrawerSession, movements []cash.CashMovement) DrawerStateResponse {
	return DrawerStateResponse{
		SessionID:     s.ID,
		BranchID:      s.BranchID,
		OperatorID:    s.OperatorID,
		OpeningFloat:  s.OpeningFloat,
		RunningCash:   s.RunningCash,
		MovementCount: len(movements),
		OpenedAt:      s.OpenedAt,
	}
}
