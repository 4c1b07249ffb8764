package inventory

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Stock ledger operations
const (
	OperationReserve        = "RESERVE"
	OperationRelease        = "RELEASE"
	OperationCommit         = "COMMIT"
	OperationRestoreOnVoid  = "RESTORE_ON_VOID"
	OperationConvertReserve = "CONVERT_RESERVED"
)

// StockLevel is a point-in-time view of a stock record's quantities
type StockLevel struct {
	OnHand    decimal.Decimal
	Reserved  decimal.Decimal
	Available decimal.Decimal
}

// ProductBranchStock is the stock ledger record of one product at one branch.
// Available is persisted but always equals OnHand - Reserved.
type ProductBranchStock struct {
	shared.BaseAggregateRoot
	ProductID      uuid.UUID
	BranchID       uuid.UUID
	ProductName    string
	OnHand         decimal.Decimal
	Reserved       decimal.Decimal
	Available      decimal.Decimal
	AverageCost    decimal.Decimal
	InventoryValue decimal.Decimal
}

// NewProductBranchStock creates a stock record with an initial on-hand quantity
func NewProductBranchStock(productID, branchID uuid.UUID, productName string, onHand, averageCost decimal.Decimal) (*ProductBranchStock, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("product_id", "Product ID cannot be empty")
	}
	if branchID == uuid.Nil {
		return nil, shared.NewValidationError("branch_id", "Branch ID cannot be empty")
	}
	if onHand.IsNegative() {
		return nil, shared.NewValidationError("on_hand", "On-hand quantity cannot be negative")
	}
	if averageCost.IsNegative() {
		return nil, shared.NewValidationError("average_cost", "Average cost cannot be negative")
	}

	s := &ProductBranchStock{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		ProductID:         productID,
		BranchID:          branchID,
		ProductName:       productName,
		OnHand:            onHand,
		Reserved:          decimal.Zero,
		Available:         onHand,
		AverageCost:       averageCost,
	}
	s.recalculateValue()
	return s, nil
}

// Level returns the current quantities
func (s *ProductBranchStock) Level() StockLevel {
	return StockLevel{OnHand: s.OnHand, Reserved: s.Reserved, Available: s.Available}
}

// CanFulfill reports whether quantity can be taken from available stock
func (s *ProductBranchStock) CanFulfill(quantity decimal.Decimal) bool {
	return s.Available.GreaterThanOrEqual(quantity)
}

// Reserve moves quantity from available to reserved for a pending order
func (s *ProductBranchStock) Reserve(quantity decimal.Decimal) (StockLevel, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Level(), err
	}
	if !s.CanFulfill(quantity) {
		return s.Level(), NewInsufficientStockError([]Shortage{s.shortage(quantity)})
	}

	s.Available = s.Available.Sub(quantity)
	s.Reserved = s.Reserved.Add(quantity)
	return s.applied(OperationReserve, quantity)
}

// Release returns previously reserved quantity to available.
// Releasing more than is reserved means the ledger and the orders holding it disagree.
func (s *ProductBranchStock) Release(quantity decimal.Decimal) (StockLevel, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Level(), err
	}
	if s.Reserved.LessThan(quantity) {
		return s.Level(), s.inconsistent(OperationRelease, quantity)
	}

	s.Available = s.Available.Add(quantity)
	s.Reserved = s.Reserved.Sub(quantity)
	return s.applied(OperationRelease, quantity)
}

// Commit removes quantity from stock for a direct sale with no prior reservation
func (s *ProductBranchStock) Commit(quantity decimal.Decimal) (StockLevel, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Level(), err
	}
	if !s.CanFulfill(quantity) {
		return s.Level(), NewInsufficientStockError([]Shortage{s.shortage(quantity)})
	}

	s.Available = s.Available.Sub(quantity)
	s.OnHand = s.OnHand.Sub(quantity)
	return s.applied(OperationCommit, quantity)
}

// RestoreOnVoid puts the quantity of a voided sale back on hand
func (s *ProductBranchStock) RestoreOnVoid(quantity decimal.Decimal) (StockLevel, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Level(), err
	}

	s.Available = s.Available.Add(quantity)
	s.OnHand = s.OnHand.Add(quantity)
	return s.applied(OperationRestoreOnVoid, quantity)
}

// ConvertReservedToCommitted turns a reservation into a sale. Available already
// reflects the reservation and is unchanged.
func (s *ProductBranchStock) ConvertReservedToCommitted(quantity decimal.Decimal) (StockLevel, error) {
	if err := validateQuantity(quantity); err != nil {
		return s.Level(), err
	}
	if s.Reserved.LessThan(quantity) || s.OnHand.LessThan(quantity) {
		return s.Level(), s.inconsistent(OperationConvertReserve, quantity)
	}

	s.Reserved = s.Reserved.Sub(quantity)
	s.OnHand = s.OnHand.Sub(quantity)
	return s.applied(OperationConvertReserve, quantity)
}

// CheckInvariant verifies on_hand, reserved and available are consistent
func (s *ProductBranchStock) CheckInvariant() error {
	if s.OnHand.IsNegative() || s.Reserved.IsNegative() || s.Available.IsNegative() ||
		s.Available.GreaterThan(s.OnHand) || !s.Available.Equal(s.OnHand.Sub(s.Reserved)) {
		return shared.ErrStockLedgerInconsistent.
			WithDetail("product_id", s.ProductID.String()).
			WithDetail("branch_id", s.BranchID.String())
	}
	return nil
}

func (s *ProductBranchStock) applied(operation string, quantity decimal.Decimal) (StockLevel, error) {
	s.recalculateValue()
	s.Touch(time.Now())
	s.AddDomainEvent(NewStockChangedEvent(s, operation, quantity))
	return s.Level(), nil
}

func (s *ProductBranchStock) recalculateValue() {
	s.InventoryValue = s.AverageCost.Mul(s.OnHand).Round(2)
}

func (s *ProductBranchStock) shortage(requested decimal.Decimal) Shortage {
	return Shortage{
		ProductID:   s.ProductID,
		ProductName: s.ProductName,
		Requested:   requested,
		Available:   s.Available,
	}
}

func (s *ProductBranchStock) inconsistent(operation string, quantity decimal.Decimal) *shared.DomainError {
	return shared.NewDomainErrorf(shared.CodeStockLedgerInconsistent,
		"Stock ledger for product %s cannot %s %s (reserved %s, on hand %s)",
		s.ProductID, operation, quantity.String(), s.Reserved.String(), s.OnHand.String()).
		WithDetail("product_id", s.ProductID.String()).
		WithDetail("branch_id", s.BranchID.String()).
		WithDetail("operation", operation)
}

func validateQuantity(quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return shared.NewValidationError("quantity", "Quantity must be positive")
	}
	return nil
}
