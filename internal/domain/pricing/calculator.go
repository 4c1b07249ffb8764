// Package pricing computes line and document totals for sales and orders.
// All monetary values are rounded half-up to two decimals at each line; document
// totals are sums of already-rounded line values.
package pricing

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places kept at the monetary boundary
const MoneyScale int32 = 2

// InputScale is the most decimal places a quantity, unit price or percentage
// may carry; ledger columns are DECIMAL(18,4)
const InputScale int32 = 4

var hundred = decimal.NewFromInt(100)

// Round2 rounds half-up to MoneyScale places
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// LineAmounts is the priced result of one line
type LineAmounts struct {
	Gross    decimal.Decimal // unit price * quantity
	Discount decimal.Decimal
	Subtotal decimal.Decimal // gross - discount
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// PriceLine prices a single line
func PriceLine(unitPrice, quantity, discountPct, taxRatePct decimal.Decimal) (LineAmounts, error) {
	if !quantity.IsPositive() {
		return LineAmounts{}, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return LineAmounts{}, shared.NewValidationError("unit_price", "Unit price cannot be negative")
	}
	if err := validatePercent("discount_pct", discountPct); err != nil {
		return LineAmounts{}, err
	}
	for _, in := range []struct {
		field string
		value decimal.Decimal
	}{{"quantity", quantity}, {"unit_price", unitPrice}, {"discount_pct", discountPct}} {
		if err := validateScale(in.field, in.value); err != nil {
			return LineAmounts{}, err
		}
	}
	if err := validatePercent("tax_rate", taxRatePct); err != nil {
		return LineAmounts{}, err
	}

	gross := unitPrice.Mul(quantity)
	discount := Round2(gross.Mul(discountPct).Div(hundred))
	subtotal := Round2(gross).Sub(discount)
	tax := Round2(subtotal.Mul(taxRatePct).Div(hundred))

	return LineAmounts{
		Gross:    Round2(gross),
		Discount: discount,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}, nil
}

// LineInput is the pricing input of one document line
type LineInput struct {
	UnitPrice   decimal.Decimal
	Quantity    decimal.Decimal
	DiscountPct decimal.Decimal
	TaxCode     TaxRateCode
}

// DocumentAmounts is the priced result of a whole sale or order
type DocumentAmounts struct {
	Lines                []LineAmounts
	Subtotal             decimal.Decimal // sum of line subtotals, before global discount
	LineDiscountTotal    decimal.Decimal
	GlobalDiscountPct    decimal.Decimal
	GlobalDiscountAmount decimal.Decimal
	TaxTotal             decimal.Decimal
	ExemptTotal          decimal.Decimal
	Total                decimal.Decimal
}

// PriceDocument prices every line and applies the whole-order discount on the
// post-line-discount subtotal before taxes are summed.
func PriceDocument(lines []LineInput, globalDiscountPct decimal.Decimal) (DocumentAmounts, error) {
	if len(lines) == 0 {
		return DocumentAmounts{}, shared.NewValidationError("lines", "At least one line is required")
	}
	if err := validatePercent("global_discount_pct", globalDiscountPct); err != nil {
		return DocumentAmounts{}, err
	}
	if err := validateScale("global_discount_pct", globalDiscountPct); err != nil {
		return DocumentAmounts{}, err
	}

	doc := DocumentAmounts{
		Lines:                make([]LineAmounts, 0, len(lines)),
		Subtotal:             decimal.Zero,
		LineDiscountTotal:    decimal.Zero,
		GlobalDiscountPct:    globalDiscountPct,
		GlobalDiscountAmount: decimal.Zero,
		TaxTotal:             decimal.Zero,
		ExemptTotal:          decimal.Zero,
	}
	remaining := hundred.Sub(globalDiscountPct)

	for _, in := range lines {
		rate, err := in.TaxCode.Percent()
		if err != nil {
			return DocumentAmounts{}, err
		}
		amounts, err := PriceLine(in.UnitPrice, in.Quantity, in.DiscountPct, rate)
		if err != nil {
			return DocumentAmounts{}, err
		}
		doc.Lines = append(doc.Lines, amounts)
		doc.Subtotal = doc.Subtotal.Add(amounts.Subtotal)
		doc.LineDiscountTotal = doc.LineDiscountTotal.Add(amounts.Discount)

		lineTax := amounts.Tax
		if globalDiscountPct.IsPositive() {
			lineTax = Round2(lineTax.Mul(remaining).Div(hundred))
		}
		doc.TaxTotal = doc.TaxTotal.Add(lineTax)
		if in.TaxCode.IsExempt() {
			doc.ExemptTotal = doc.ExemptTotal.Add(amounts.Subtotal)
		}
	}

	doc.GlobalDiscountAmount = Round2(doc.Subtotal.Mul(globalDiscountPct).Div(hundred))
	doc.Total = doc.Subtotal.Sub(doc.GlobalDiscountAmount).Add(doc.TaxTotal)
	return doc, nil
}

func validatePercent(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return shared.NewValidationError(field, "Percentage must be between 0 and 100")
	}
	return nil
}

// validateScale rejects values the ledger columns would silently round
func validateScale(field string, d decimal.Decimal) error {
	if !d.Equal(d.Truncate(InputScale)) {
		return shared.NewValidationError(field, "At most 4 decimal places are allowed")
	}
	return nil
}
