package models

import (
	"time"

	"github.com/erp/pos/internal/domain/fiscal"
)

// FiscalSequenceModel is the persistence model for a document number series
type FiscalSequenceModel struct {
	AggregateModel
	Prefix       string     `gorm:"type:varchar(10);not null;uniqueIndex"`
	DocumentType string     `gorm:"type:varchar(20);not null"`
	Description  string     `gorm:"type:varchar(200);not null;default:''"`
	NextValue    int64      `gorm:"not null;default:1"`
	EndValue     int64      `gorm:"not null;default:0"`
	Padding      int        `gorm:"not null;default:8"`
	ExpiresAt    *time.Time
}

// TableName returns the table name for GORM
func (FiscalSequenceModel) TableName() string {
	return "fiscal_sequences"
}

// ToDomain converts the persistence model to a domain Sequence
func (m *FiscalSequenceModel) ToDomain() *fiscal.Sequence {
	return &fiscal.Sequence{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Prefix:            m.Prefix,
		DocumentType:      fiscal.DocumentType(m.DocumentType),
		Description:       m.Description,
		NextValue:         m.NextValue,
		EndValue:          m.EndValue,
		Padding:           m.Padding,
		ExpiresAt:         m.ExpiresAt,
	}
}

// FromDomain populates the persistence model from a domain Sequence
func (m *FiscalSequenceModel) FromDomain(s *fiscal.Sequence) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Prefix = s.Prefix
	m.DocumentType = string(s.DocumentType)
	m.Description = s.Description
	m.NextValue = s.NextValue
	m.EndValue = s.EndValue
	m.Padding = s.Padding
	m.ExpiresAt = s.ExpiresAt
}

// FiscalSequenceModelFromDomain creates a new persistence model from a domain Sequence
func FiscalSequenceModelFromDomain(s *fiscal.Sequence) *FiscalSequenceModel {
	m := &FiscalSequenceModel{}
	m.FromDomain(s)
	return m
}
