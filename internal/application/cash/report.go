package cash

import (
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ReportReader reads the aggregated activity of a drawer session
type ReportReader interface {
	MovementTotals(ctx context.Context, sessionID uuid.UUID) ([]MovementTotal, error)
	SaleTotals(ctx context.Context, sessionID uuid.UUID) (SaleTotals, error)
}

// RepositoryReportReader aggregates activity in memory from the domain repositories
type RepositoryReportReader struct {
	drawers cash.SessionRepository
	sales   sales.SaleRepository
}

// NewRepositoryReportReader creates a RepositoryReportReader
func NewRepositoryReportReader(drawers cash.SessionRepository, saleRepo sales.SaleRepository) *RepositoryReportReader {
	return &RepositoryReportReader{drawers: drawers, sales: saleRepo}
}

// MovementTotals sums movements per type
func (r *RepositoryReportReader) MovementTotals(ctx context.Context, sessionID uuid.UUID) ([]MovementTotal, error) {
	movements, err := r.drawers.FindMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	byType := map[cash.MovementType]*MovementTotal{}
	for _, m := range movements {
		t, ok := byType[m.Type]
		if !ok {
			t = &MovementTotal{Type: string(m.Type), Amount: decimal.Zero}
			byType[m.Type] = t
		}
		t.Count++
		t.Amount = t.Amount.Add(m.Amount)
	}
	out := make([]MovementTotal, 0, len(byType))
	for _, t := range byType {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// SaleTotals sums the sales taken by a session
func (r *RepositoryReportReader) SaleTotals(ctx context.Context, sessionID uuid.UUID) (SaleTotals, error) {
	list, err := r.sales.FindByDrawerSession(ctx, sessionID)
	if err != nil {
		return SaleTotals{}, err
	}
	totals := SaleTotals{CashTotal: decimal.Zero, CreditTotal: decimal.Zero, VoidedTotal: decimal.Zero}
	for _, s := range list {
		if s.IsVoided() {
			totals.VoidedCount++
			totals.VoidedTotal = totals.VoidedTotal.Add(s.Total)
			continue
		}
		totals.ProcessedCount++
		totals.CashTotal = totals.CashTotal.Add(s.CashAmount)
		totals.CreditTotal = totals.CreditTotal.Add(s.CreditAmount)
	}
	return totals, nil
}

var _ ReportReader = (*RepositoryReportReader)(nil)

// buildClosingReport reconciles a session against its aggregated activity
func buildClosingReport(session *cash.DrawerSession, movements []MovementTotal, saleTotals SaleTotals, printer *message.Printer) ClosingReportResponse {
	report := ClosingReportResponse{
		Session:   ToDrawerSessionResponse(session),
		Movements: movements,
		Sales:     saleTotals,
	}

	theoretical := session.OpeningFloat
	for _, m := range movements {
		switch cash.MovementType(m.Type).Sign() {
		case 1:
			theoretical = theoretical.Add(m.Amount)
		case -1:
			theoretical = theoretical.Sub(m.Amount)
		}
	}
	if session.TheoreticalCash != nil {
		theoretical = *session.TheoreticalCash
	}
	report.TheoreticalCash = theoretical

	if session.CountedCash != nil {
		counted := *session.CountedCash
		variance := counted.Sub(theoretical)
		report.CountedCash = &counted
		report.Variance = &variance
		report.VarianceClass = string(cash.ClassifyVariance(variance, theoretical))
		report.Summary = printer.Sprintf("Theoretical %s, counted %s, variance %s (%s)",
			money(printer, theoretical), money(printer, counted), money(printer, variance), report.VarianceClass)
		return report
	}
	report.Summary = printer.Sprintf("Theoretical %s, session open", money(printer, theoretical))
	return report
}

// money renders d with two decimals in the printer's locale. Digits come
// from the decimal itself; only grouping and the separator are localized.
func money(p *message.Printer, d decimal.Decimal) string {
	rounded := d.Round(2)
	whole, frac, _ := strings.Cut(rounded.Abs().StringFixed(2), ".")

	sign := ""
	if rounded.IsNegative() {
		sign = "-"
	}
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + whole + "." + frac
	}
	return sign + p.Sprintf("%d", n) + decimalSeparator(p) + frac
}

func decimalSeparator(p *message.Printer) string {
	return strings.TrimSuffix(strings.TrimPrefix(p.Sprintf("%.1f", 0.5), "0"), "5")
}

// newPrinter returns a number printer for the locale, English when the tag is unknown
func newPrinter(locale string) *message.Printer {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	return message.NewPrinter(tag)
}
