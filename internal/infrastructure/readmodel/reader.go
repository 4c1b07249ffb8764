// Package readmodel answers reporting and listing queries with hand-written SQL
// over the ledger tables, bypassing the aggregates.
package readmodel

import (
	"context"
	"database/sql"
	"strings"

	"github.com/erp/pos/internal/application/cash"
	"github.com/erp/pos/internal/application/query"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Reader implements cash.ReportReader and query.StockLister on sqlx
type Reader struct {
	db *sqlx.DB
}

// NewReader wraps an open database handle. driverName selects the bind style.
func NewReader(db *sql.DB, driverName string) *Reader {
	return &Reader{db: sqlx.NewDb(db, driverName)}
}

const movementTotalsQuery = `
SELECT type, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount
FROM cash_movements
WHERE session_id = ?
GROUP BY type
ORDER BY type`

// MovementTotals sums a session's movements per type
func (r *Reader) MovementTotals(ctx context.Context, sessionID uuid.UUID) ([]cash.MovementTotal, error) {
	out := []cash.MovementTotal{}
	if err := r.db.SelectContext(ctx, &out, r.db.Rebind(movementTotalsQuery), sessionID); err != nil {
		return nil, err
	}
	return out, nil
}

const saleTotalsQuery = `
SELECT
	COUNT(*) FILTER (WHERE status <> 'ANULADA') AS processed_count,
	COALESCE(SUM(cash_amount) FILTER (WHERE status <> 'ANULADA'), 0) AS cash_total,
	COALESCE(SUM(credit_amount) FILTER (WHERE status <> 'ANULADA'), 0) AS credit_total,
	COUNT(*) FILTER (WHERE status = 'ANULADA') AS voided_count,
	COALESCE(SUM(total) FILTER (WHERE status = 'ANULADA'), 0) AS voided_total
FROM sales
WHERE drawer_session_id = ?`

// SaleTotals sums the sales a session took, voided ones apart
func (r *Reader) SaleTotals(ctx context.Context, sessionID uuid.UUID) (cash.SaleTotals, error) {
	var totals cash.SaleTotals
	if err := r.db.GetContext(ctx, &totals, r.db.Rebind(saleTotalsQuery), sessionID); err != nil {
		return cash.SaleTotals{}, err
	}
	return totals, nil
}

// ListBranchStock pages a branch's stock positions by product name.
// Search matches a case-insensitive substring of the product name.
func (r *Reader) ListBranchStock(ctx context.Context, branchID uuid.UUID, filter query.StockListFilter) ([]query.StockResponse, int64, error) {
	where := "branch_id = :branch_id"
	args := map[string]any{"branch_id": branchID}
	if search := strings.TrimSpace(filter.Search); search != "" {
		where += " AND LOWER(product_name) LIKE :search"
		args["search"] = "%" + strings.ToLower(search) + "%"
	}

	var total int64
	countQuery, countArgs, err := r.named("SELECT COUNT(*) FROM product_branch_stock WHERE "+where, args)
	if err != nil {
		return nil, 0, err
	}
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, err
	}

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}
	args["limit"] = size
	args["offset"] = (page - 1) * size

	listQuery, listArgs, err := r.named(`
SELECT product_id, branch_id, product_name, on_hand, reserved, available, average_cost, updated_at
FROM product_branch_stock
WHERE `+where+`
ORDER BY product_name, product_id
LIMIT :limit OFFSET :offset`, args)
	if err != nil {
		return nil, 0, err
	}

	out := []query.StockResponse{}
	if err := r.db.SelectContext(ctx, &out, listQuery, listArgs...); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (r *Reader) named(q string, args map[string]any) (string, []any, error) {
	bound, list, err := sqlx.Named(q, args)
	if err != nil {
		return "", nil, err
	}
	return r.db.Rebind(bound), list, nil
}

var (
	_ cash.ReportReader = (*Reader)(nil)
	_ query.StockLister = (*Reader)(nil)
)
