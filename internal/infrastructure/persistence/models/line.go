package models

import (
	"github.com/erp/pos/internal/domain/pricing"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineModel holds the priced columns shared by sale and order lines
type LineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey"`
	LineNo         int             `gorm:"not null"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductName    string          `gorm:"type:varchar(200);not null;default:''"`
	Quantity       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	DiscountPct    decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	TaxCode        string          `gorm:"type:varchar(10);not null"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (m *LineModel) toDomain() sales.LineItem {
	return sales.LineItem{
		ID:             m.ID,
		LineNo:         m.LineNo,
		ProductID:      m.ProductID,
		ProductName:    m.ProductName,
		Quantity:       m.Quantity,
		UnitPrice:      m.UnitPrice,
		DiscountPct:    m.DiscountPct,
		TaxCode:        pricing.TaxRateCode(m.TaxCode),
		DiscountAmount: m.DiscountAmount,
		Subtotal:       m.Subtotal,
		TaxAmount:      m.TaxAmount,
		Total:          m.Total,
	}
}

func lineModelFromDomain(l sales.LineItem) LineModel {
	return LineModel{
		ID:             l.ID,
		LineNo:         l.LineNo,
		ProductID:      l.ProductID,
		ProductName:    l.ProductName,
		Quantity:       l.Quantity,
		UnitPrice:      l.UnitPrice,
		DiscountPct:    l.DiscountPct,
		TaxCode:        string(l.TaxCode),
		DiscountAmount: l.DiscountAmount,
		Subtotal:       l.Subtotal,
		TaxAmount:      l.TaxAmount,
		Total:          l.Total,
	}
}

// TotalsModel holds the document totals columns
type TotalsModel struct {
	Subtotal             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	LineDiscountTotal    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	GlobalDiscountPct    decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	GlobalDiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxTotal             decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExemptTotal          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Total                decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

func (m TotalsModel) toDomain() sales.Totals {
	return sales.Totals{
		Subtotal:             m.Subtotal,
		LineDiscountTotal:    m.LineDiscountTotal,
		GlobalDiscountPct:    m.GlobalDiscountPct,
		GlobalDiscountAmount: m.GlobalDiscountAmount,
		TaxTotal:             m.TaxTotal,
		ExemptTotal:          m.ExemptTotal,
		Total:                m.Total,
	}
}

func totalsModelFromDomain(t sales.Totals) TotalsModel {
	return TotalsModel{
		Subtotal:             t.Subtotal,
		LineDiscountTotal:    t.LineDiscountTotal,
		GlobalDiscountPct:    t.GlobalDiscountPct,
		GlobalDiscountAmount: t.GlobalDiscountAmount,
		TaxTotal:             t.TaxTotal,
		ExemptTotal:          t.ExemptTotal,
		Total:                t.Total,
	}
}
