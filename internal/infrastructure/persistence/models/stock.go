package models

import (
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductBranchStockModel is the persistence model for the stock ledger record
type ProductBranchStockModel struct {
	AggregateModel
	ProductID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_branch,priority:1"`
	BranchID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_product_branch,priority:2;index"`
	ProductName    string          `gorm:"type:varchar(200);not null;default:''"`
	OnHand         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Reserved       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Available      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	AverageCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	InventoryValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (ProductBranchStockModel) TableName() string {
	return "product_branch_stock"
}

// ToDomain converts the persistence model to a domain ProductBranchStock
func (m *ProductBranchStockModel) ToDomain() *inventory.ProductBranchStock {
	return &inventory.ProductBranchStock{
		BaseAggregateRoot: m.ToAggregateRoot(),
		ProductID:         m.ProductID,
		BranchID:          m.BranchID,
		ProductName:       m.ProductName,
		OnHand:            m.OnHand,
		Reserved:          m.Reserved,
		Available:         m.Available,
		AverageCost:       m.AverageCost,
		InventoryValue:    m.InventoryValue,
	}
}

// FromDomain populates the persistence model from a domain ProductBranchStock
func (m *ProductBranchStockModel) FromDomain(s *inventory.ProductBranchStock) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ProductID = s.ProductID
	m.BranchID = s.BranchID
	m.ProductName = s.ProductName
	m.OnHand = s.OnHand
	m.Reserved = s.Reserved
	m.Available = s.Available
	m.AverageCost = s.AverageCost
	m.InventoryValue = s.InventoryValue
}

// ProductBranchStockModelFromDomain creates a new persistence model from a domain ProductBranchStock
func ProductBranchStockModelFromDomain(s *inventory.ProductBranchStock) *ProductBranchStockModel {
	m := &ProductBranchStockModel{}
	m.FromDomain(s)
	return m
}
