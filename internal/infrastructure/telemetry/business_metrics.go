package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics provides business metrics for the POS engine.
// It tracks sales, voids, rejected ledger operations and drawer reconciliation.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	saleProcessedTotal  *Counter
	saleAmountTotal     *Counter
	saleVoidedTotal     *Counter
	orderEventTotal     *Counter
	rejectionTotal      *Counter
	drawerClosedTotal   *Counter
	drawerVarianceTotal *Counter

	saleTicketAmount *Histogram

	// Gauge metrics (point-in-time values)
	stockReservedQuantity *Gauge
	openDrawerCount       *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	ledgerProvider LedgerMetricsProvider
}

// LedgerMetricsProvider provides ledger state for periodic metrics collection.
// It lets the telemetry layer read aggregates without depending on the domain.
type LedgerMetricsProvider interface {
	// GetReservedQuantityByBranch returns the total reserved quantity per branch
	GetReservedQuantityByBranch(ctx context.Context) (map[uuid.UUID]int64, error)

	// CountOpenDrawers returns the number of open drawer sessions per branch
	CountOpenDrawers(ctx context.Context) (map[uuid.UUID]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	LedgerProvider  LedgerMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:          cfg.Meter,
		logger:         logger,
		stopChan:       make(chan struct{}),
		ledgerProvider: cfg.LedgerProvider,
	}

	counters := []struct {
		target            **Counter
		name, desc, unit string
	}{
		{&bm.saleProcessedTotal, "pos_sale_processed_total", "Total number of processed sales", "{sales}"},
		{&bm.saleAmountTotal, "pos_sale_amount_total", "Total processed sale amount in centavos", "{centavos}"},
		{&bm.saleVoidedTotal, "pos_sale_voided_total", "Total number of voided sales", "{sales}"},
		{&bm.orderEventTotal, "pos_order_transition_total", "Total number of order state transitions", "{transitions}"},
		{&bm.rejectionTotal, "pos_ledger_rejection_total", "Total number of operations rejected by a ledger rule", "{rejections}"},
		{&bm.drawerClosedTotal, "pos_drawer_closed_total", "Total number of closed drawer sessions", "{sessions}"},
		{&bm.drawerVarianceTotal, "pos_drawer_variance_total", "Absolute closing variance in centavos", "{centavos}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	var err error
	bm.saleTicketAmount, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "pos_sale_ticket_amount",
		Description: "Distribution of processed sale totals",
		Unit:        "DOP",
		Boundaries:  TicketAmountBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.stockReservedQuantity, err = NewGauge(
		cfg.Meter,
		"pos_stock_reserved_quantity",
		"Current stock quantity reserved by open orders",
		"{units}",
	)
	if err != nil {
		return nil, err
	}

	bm.openDrawerCount, err = NewGauge(
		cfg.Meter,
		"pos_drawer_open_count",
		"Number of open drawer sessions",
		"{sessions}",
	)
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// =============================================================================
// Sale Metrics
// =============================================================================

// SaleSource tells how a sale came to be
type SaleSource string

const (
	SaleSourceCounter SaleSource = "counter"
	SaleSourceOrder   SaleSource = "order"
)

// RecordSaleProcessed records a processed sale and its total.
func (bm *BusinessMetrics) RecordSaleProcessed(ctx context.Context, branchID uuid.UUID, source SaleSource, condition string, total decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrBranchID.String(branchID.String()),
		AttrSaleSource.String(string(source)),
		AttrPaymentCondition.String(condition),
	}
	bm.saleProcessedTotal.Inc(ctx, attrs...)
	bm.saleAmountTotal.AddAmount(ctx, total, attrs...)
	bm.saleTicketAmount.RecordAmount(ctx, total, attrs...)
}

// RecordSaleVoided records a voided sale.
func (bm *BusinessMetrics) RecordSaleVoided(ctx context.Context, branchID uuid.UUID) {
	bm.saleVoidedTotal.Inc(ctx, AttrBranchID.String(branchID.String()))
}

// RecordOrderTransition records an order reaching a status.
func (bm *BusinessMetrics) RecordOrderTransition(ctx context.Context, branchID uuid.UUID, status string) {
	bm.orderEventTotal.Inc(ctx,
		AttrBranchID.String(branchID.String()),
		AttrOrderStatus.String(status),
	)
}

// RecordRejection records an operation refused by a ledger rule, labelled by error code.
func (bm *BusinessMetrics) RecordRejection(ctx context.Context, branchID uuid.UUID, operation, code string) {
	bm.rejectionTotal.Inc(ctx,
		AttrBranchID.String(branchID.String()),
		AttrOperation.String(operation),
		AttrErrorCode.String(code),
	)
}

// =============================================================================
// Drawer Metrics
// =============================================================================

// RecordDrawerClosed records a closed drawer session and its variance.
func (bm *BusinessMetrics) RecordDrawerClosed(ctx context.Context, branchID uuid.UUID, varianceClass string, variance decimal.Decimal) {
	attrs := []attribute.KeyValue{
		AttrBranchID.String(branchID.String()),
		AttrVarianceClass.String(varianceClass),
	}
	bm.drawerClosedTotal.Inc(ctx, attrs...)
	bm.drawerVarianceTotal.AddAmount(ctx, variance, attrs...)
}

// RecordReservedQuantity records the reserved stock of a branch.
func (bm *BusinessMetrics) RecordReservedQuantity(ctx context.Context, branchID uuid.UUID, quantity int64) {
	bm.stockReservedQuantity.Record(ctx, quantity, AttrBranchID.String(branchID.String()))
}

// RecordOpenDrawers records the open drawer sessions of a branch.
func (bm *BusinessMetrics) RecordOpenDrawers(ctx context.Context, branchID uuid.UUID, count int64) {
	bm.openDrawerCount.Record(ctx, count, AttrBranchID.String(branchID.String()))
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectLedgerMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectLedgerMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectLedgerMetrics(ctx context.Context) {
	if bm.ledgerProvider == nil {
		bm.logger.Debug("No ledger provider configured, skipping ledger metrics collection")
		return
	}

	reserved, err := bm.ledgerProvider.GetReservedQuantityByBranch(ctx)
	if err != nil {
		bm.logger.Warn("Failed to get reserved quantity", zap.Error(err))
	} else {
		for branchID, quantity := range reserved {
			bm.RecordReservedQuantity(ctx, branchID, quantity)
		}
	}

	drawers, err := bm.ledgerProvider.CountOpenDrawers(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count open drawers", zap.Error(err))
	} else {
		for branchID, count := range drawers {
			bm.RecordOpenDrawers(ctx, branchID, count)
		}
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
