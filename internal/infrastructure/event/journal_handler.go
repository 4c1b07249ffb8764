package event

import (
	"context"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JournalHandler writes every committed ledger event to the structured log,
// giving operators an audit trail of sales, voids and drawer activity
type JournalHandler struct{}

// NewJournalHandler creates a JournalHandler
func NewJournalHandler() *JournalHandler {
	return &JournalHandler{}
}

// Handle logs the event envelope
func (h *JournalHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	logger.L(ctx).Info("ledger event",
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("event_branch_id", event.BranchID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	)
	return nil
}

// EventTypes is empty: the journal receives every event
func (h *JournalHandler) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*JournalHandler)(nil)
