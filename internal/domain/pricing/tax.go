package pricing

import (
	"github.com/erp/pos/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TaxRateCode identifies an ITBIS rate
type TaxRateCode string

const (
	TaxITBIS18 TaxRateCode = "ITBIS18"
	TaxITBIS16 TaxRateCode = "ITBIS16"
	TaxITBIS0  TaxRateCode = "ITBIS0"
	TaxExempt  TaxRateCode = "EXENTO"
)

var taxRates = map[TaxRateCode]decimal.Decimal{
	TaxITBIS18: decimal.NewFromInt(18),
	TaxITBIS16: decimal.NewFromInt(16),
	TaxITBIS0:  decimal.Zero,
	TaxExempt:  decimal.Zero,
}

// IsValid checks if the tax rate code is known
func (c TaxRateCode) IsValid() bool {
	_, ok := taxRates[c]
	return ok
}

// IsExempt reports whether the code marks an exempt line
func (c TaxRateCode) IsExempt() bool {
	return c == TaxExempt
}

// Percent returns the tax percentage for the code
func (c TaxRateCode) Percent() (decimal.Decimal, error) {
	rate, ok := taxRates[c]
	if !ok {
		return decimal.Zero, shared.NewValidationError("tax_rate_code", "Unknown tax rate code: "+string(c))
	}
	return rate, nil
}

// String returns the string representation
func (c TaxRateCode) String() string {
	return string(c)
}
