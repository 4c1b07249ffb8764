package sales

import (
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/pricing"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineInput is a requested document line before pricing
type LineInput struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	DiscountPct decimal.Decimal
	TaxCode     pricing.TaxRateCode
}

// LineItem is a priced line of a sale or an order
type LineItem struct {
	ID             uuid.UUID
	LineNo         int
	ProductID      uuid.UUID
	ProductName    string
	Quantity       decimal.Decimal
	UnitPrice      decimal.Decimal
	DiscountPct    decimal.Decimal
	TaxCode        pricing.TaxRateCode
	DiscountAmount decimal.Decimal
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	Total          decimal.Decimal
}

// Totals are the document level amounts
type Totals struct {
	Subtotal             decimal.Decimal
	LineDiscountTotal    decimal.Decimal
	GlobalDiscountPct    decimal.Decimal
	GlobalDiscountAmount decimal.Decimal
	TaxTotal             decimal.Decimal
	ExemptTotal          decimal.Decimal
	Total                decimal.Decimal
}

// BuildLines validates and prices the inputs, numbering lines from 1
func BuildLines(inputs []LineInput, globalDiscountPct decimal.Decimal) ([]LineItem, Totals, error) {
	if len(inputs) == 0 {
		return nil, Totals{}, shared.NewValidationError("lines", "At least one line is required")
	}

	priceInputs := make([]pricing.LineInput, len(inputs))
	for i, in := range inputs {
		if in.ProductID == uuid.Nil {
			return nil, Totals{}, shared.NewValidationError("product_id", "Product ID cannot be empty")
		}
		priceInputs[i] = pricing.LineInput{
			UnitPrice:   in.UnitPrice,
			Quantity:    in.Quantity,
			DiscountPct: in.DiscountPct,
			TaxCode:     in.TaxCode,
		}
	}

	doc, err := pricing.PriceDocument(priceInputs, globalDiscountPct)
	if err != nil {
		return nil, Totals{}, err
	}

	lines := make([]LineItem, len(inputs))
	for i, in := range inputs {
		amounts := doc.Lines[i]
		lines[i] = LineItem{
			ID:             uuid.New(),
			LineNo:         i + 1,
			ProductID:      in.ProductID,
			ProductName:    in.ProductName,
			Quantity:       in.Quantity,
			UnitPrice:      in.UnitPrice,
			DiscountPct:    in.DiscountPct,
			TaxCode:        in.TaxCode,
			DiscountAmount: amounts.Discount,
			Subtotal:       amounts.Subtotal,
			TaxAmount:      amounts.Tax,
			Total:          amounts.Total,
		}
	}

	return lines, Totals{
		Subtotal:             doc.Subtotal,
		LineDiscountTotal:    doc.LineDiscountTotal,
		GlobalDiscountPct:    doc.GlobalDiscountPct,
		GlobalDiscountAmount: doc.GlobalDiscountAmount,
		TaxTotal:             doc.TaxTotal,
		ExemptTotal:          doc.ExemptTotal,
		Total:                doc.Total,
	}, nil
}

// StockRequests returns the stock each line needs
func StockRequests(lines []LineItem) []inventory.StockRequest {
	reqs := make([]inventory.StockRequest, len(lines))
	for i, l := range lines {
		reqs[i] = inventory.StockRequest{ProductID: l.ProductID, Quantity: l.Quantity}
	}
	return reqs
}

// FillProductNames sets missing line product names from the stock records
func FillProductNames(lines []LineItem, stocks map[uuid.UUID]*inventory.ProductBranchStock) {
	for i := range lines {
		if lines[i].ProductName != "" {
			continue
		}
		if s, ok := stocks[lines[i].ProductID]; ok {
			lines[i].ProductName = s.ProductName
		}
	}
}

// CopyLines duplicates lines with fresh IDs, keeping numbering and amounts
func CopyLines(lines []LineItem) []LineItem {
	out := make([]LineItem, len(lines))
	for i, l := range lines {
		l.ID = uuid.New()
		out[i] = l
	}
	return out
}
