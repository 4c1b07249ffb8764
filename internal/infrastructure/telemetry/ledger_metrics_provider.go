package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormLedgerMetricsProvider implements LedgerMetricsProvider using GORM.
type GormLedgerMetricsProvider struct {
	db *gorm.DB
}

// NewGormLedgerMetricsProvider creates a new GormLedgerMetricsProvider.
func NewGormLedgerMetricsProvider(db *gorm.DB) *GormLedgerMetricsProvider {
	return &GormLedgerMetricsProvider{db: db}
}

type branchCount struct {
	BranchID uuid.UUID `gorm:"column:branch_id"`
	Total    int64     `gorm:"column:total"`
}

// GetReservedQuantityByBranch returns total reserved quantity per branch.
func (p *GormLedgerMetricsProvider) GetReservedQuantityByBranch(ctx context.Context) (map[uuid.UUID]int64, error) {
	var results []branchCount
	err := p.db.WithContext(ctx).
		Table("product_branch_stock").
		Select("branch_id, CAST(COALESCE(SUM(reserved), 0) AS BIGINT) as total").
		Group("branch_id").
		Having("SUM(reserved) > 0").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return toBranchMap(results), nil
}

// CountOpenDrawers returns the number of open drawer sessions per branch.
func (p *GormLedgerMetricsProvider) CountOpenDrawers(ctx context.Context) (map[uuid.UUID]int64, error) {
	var results []branchCount
	err := p.db.WithContext(ctx).
		Table("drawer_sessions").
		Select("branch_id, COUNT(*) as total").
		Where("status = ?", "OPEN").
		Group("branch_id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return toBranchMap(results), nil
}

func toBranchMap(rows []branchCount) map[uuid.UUID]int64 {
	m := make(map[uuid.UUID]int64, len(rows))
	for _, r := range rows {
		m[r.BranchID] = r.Total
	}
	return m
}

var _ LedgerMetricsProvider = (*GormLedgerMetricsProvider)(nil)
