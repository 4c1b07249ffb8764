package shared

import (
	"time"

	"github.com/google/uuid"
)

// BaseEntity holds identity and timestamps
type BaseEntity struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBaseEntity creates an entity with a fresh ID
func NewBaseEntity() BaseEntity {
	now := time.Now()
	return BaseEntity{
		ID:        uuid.New(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AggregateRoot is a ledger record that raises domain events
type AggregateRoot interface {
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot adds a version and pending events to an entity.
// Every committed mutation advances Version by one through Touch.
type BaseAggregateRoot struct {
	BaseEntity
	Version      int
	domainEvents []DomainEvent

	// version last read from or written to storage; zero until persisted
	storedVersion int
}

// NewBaseAggregateRoot creates an aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{
		BaseEntity: NewBaseEntity(),
		Version:    1,
	}
}

// Touch records a mutation made at the given time
func (a *BaseAggregateRoot) Touch(at time.Time) {
	a.UpdatedAt = at
	a.Version++
}

// StoredVersion returns the version the stored row carries.
// Optimistic updates match on it, so an aggregate may change several times within one unit.
func (a *BaseAggregateRoot) StoredVersion() int {
	return a.storedVersion
}

// MarkStored records that storage now holds the current version
func (a *BaseAggregateRoot) MarkStored() {
	a.storedVersion = a.Version
}

// AddDomainEvent queues an event for publication after commit
func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.domainEvents = append(a.domainEvents, event)
}

// GetDomainEvents returns the queued events
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.domainEvents
}

// ClearDomainEvents drops the queued events
func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.domainEvents = nil
}
