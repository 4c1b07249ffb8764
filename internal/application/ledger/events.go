package ledger

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// EventCollector gathers domain events raised inside a transaction so they can be
// published once it commits
type EventCollector struct {
	events []shared.DomainEvent
}

// Reset drops events of a previous attempt
func (c *EventCollector) Reset() {
	c.events = nil
}

// Collect takes the pending events of the aggregates
func (c *EventCollector) Collect(aggregates ...shared.AggregateRoot) {
	for _, a := range aggregates {
		c.events = append(c.events, a.GetDomainEvents()...)
		a.ClearDomainEvents()
	}
}

// Events returns the collected events
func (c *EventCollector) Events() []shared.DomainEvent {
	return c.events
}

// Publish sends the collected events. Failures are logged, not returned: the
// ledger effects are already committed.
func (c *EventCollector) Publish(ctx context.Context, publisher shared.EventPublisher) {
	if publisher == nil || len(c.events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, c.events...); err != nil {
		logger.L(ctx).Warn("failed to publish domain events",
			zap.Int("count", len(c.events)),
			zap.Error(err),
		)
	}
}
