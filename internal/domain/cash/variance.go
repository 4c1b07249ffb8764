package cash

import "github.com/shopspring/decimal"

// VarianceClass grades a closing difference
type VarianceClass string

const (
	VarianceBalanced VarianceClass = "BALANCED"
	VarianceMinor    VarianceClass = "MINOR"
	VarianceCritical VarianceClass = "CRITICAL"
)

// minorVariancePct is the share of theoretical cash tolerated as a minor difference
var minorVariancePct = decimal.NewFromInt(1)

// ClassifyVariance grades variance against theoretical cash
func ClassifyVariance(variance, theoretical decimal.Decimal) VarianceClass {
	if variance.IsZero() {
		return VarianceBalanced
	}
	limit := theoretical.Abs().Mul(minorVariancePct).Div(decimal.NewFromInt(100))
	if variance.Abs().LessThanOrEqual(limit) {
		return VarianceMinor
	}
	return VarianceCritical
}
