package models

import (
	"github.com/erp/pos/internal/domain/credit"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditAccountModel is the persistence model for a customer credit account
type CreditAccountModel struct {
	AggregateModel
	CustomerID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	CustomerName       string          `gorm:"type:varchar(200);not null;default:''"`
	CreditLimit        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	OutstandingBalance decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (CreditAccountModel) TableName() string {
	return "credit_accounts"
}

// ToDomain converts the persistence model to a domain credit Account
func (m *CreditAccountModel) ToDomain() *credit.Account {
	return &credit.Account{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		CustomerID:         m.CustomerID,
		CustomerName:       m.CustomerName,
		CreditLimit:        m.CreditLimit,
		OutstandingBalance: m.OutstandingBalance,
	}
}

// FromDomain populates the persistence model from a domain credit Account
func (m *CreditAccountModel) FromDomain(a *credit.Account) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.CustomerID = a.CustomerID
	m.CustomerName = a.CustomerName
	m.CreditLimit = a.CreditLimit
	m.OutstandingBalance = a.OutstandingBalance
}

// CreditAccountModelFromDomain creates a new persistence model from a domain credit Account
func CreditAccountModelFromDomain(a *credit.Account) *CreditAccountModel {
	m := &CreditAccountModel{}
	m.FromDomain(a)
	return m
}
