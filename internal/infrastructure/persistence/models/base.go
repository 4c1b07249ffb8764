package models

import (
	"time"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateModel holds the columns every ledger table shares. Version is the
// optimistic lock matched by conditional updates.
type AggregateModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
	Version   int       `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot copies identity, timestamps and version from a
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.ID = a.ID
	m.CreatedAt = a.CreatedAt
	m.UpdatedAt = a.UpdatedAt
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the root as loaded; it is marked stored at the row's version
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	root := shared.BaseAggregateRoot{
		BaseEntity: shared.BaseEntity{ID: m.ID, CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		Version:    m.Version,
	}
	root.MarkStored()
	return root
}
