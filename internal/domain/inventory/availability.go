package inventory

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockRequest is the quantity of a product one transaction needs at a branch
type StockRequest struct {
	ProductID uuid.UUID
	Quantity  decimal.Decimal
}

// Shortage describes one line that cannot be fulfilled
type Shortage struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	Requested   decimal.Decimal `json:"requested"`
	Available   decimal.Decimal `json:"available"`
}

// Missing returns how much is lacking
func (s Shortage) Missing() decimal.Decimal {
	return s.Requested.Sub(s.Available)
}

// NewInsufficientStockError builds an INSUFFICIENT_STOCK error listing every short line
func NewInsufficientStockError(shortages []Shortage) *shared.DomainError {
	parts := make([]string, 0, len(shortages))
	for _, s := range shortages {
		name := s.ProductName
		if name == "" {
			name = s.ProductID.String()
		}
		parts = append(parts, fmt.Sprintf("%s (requested %s, available %s)", name, s.Requested.String(), s.Available.String()))
	}
	return shared.NewDomainError(shared.CodeInsufficientStock, "Insufficient stock: "+strings.Join(parts, "; ")).
		WithDetail("lines", shortages)
}

// MergeRequests sums quantities per product and orders the result by product ID,
// which is also the order stock rows are locked in.
func MergeRequests(requests []StockRequest) []StockRequest {
	totals := make(map[uuid.UUID]decimal.Decimal, len(requests))
	for _, r := range requests {
		totals[r.ProductID] = totals[r.ProductID].Add(r.Quantity)
	}

	merged := make([]StockRequest, 0, len(totals))
	for productID, qty := range totals {
		merged = append(merged, StockRequest{ProductID: productID, Quantity: qty})
	}
	slices.SortFunc(merged, func(a, b StockRequest) int {
		return bytes.Compare(a.ProductID[:], b.ProductID[:])
	})
	return merged
}

// ProductIDs returns the distinct product IDs of the requests in lock order
func ProductIDs(requests []StockRequest) []uuid.UUID {
	merged := MergeRequests(requests)
	ids := make([]uuid.UUID, len(merged))
	for i, r := range merged {
		ids[i] = r.ProductID
	}
	return ids
}

// CheckAvailability evaluates every request against the given snapshot before
// anything is mutated. Lines for the same product are added together.
// A product with no stock record at the branch is short by the whole request.
func CheckAvailability(stocks map[uuid.UUID]*ProductBranchStock, requests []StockRequest) error {
	var shortages []Shortage
	for _, r := range MergeRequests(requests) {
		stock, ok := stocks[r.ProductID]
		if !ok {
			shortages = append(shortages, Shortage{ProductID: r.ProductID, Requested: r.Quantity, Available: decimal.Zero})
			continue
		}
		if !stock.CanFulfill(r.Quantity) {
			shortages = append(shortages, stock.shortage(r.Quantity))
		}
	}
	if len(shortages) > 0 {
		return NewInsufficientStockError(shortages)
	}
	return nil
}

// IndexByProduct keys stock records by product ID
func IndexByProduct(stocks []*ProductBranchStock) map[uuid.UUID]*ProductBranchStock {
	index := make(map[uuid.UUID]*ProductBranchStock, len(stocks))
	for _, s := range stocks {
		index[s.ProductID] = s
	}
	return index
}
