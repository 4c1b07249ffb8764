// Package sale implements the sale engine: ringing up a sale across the stock,
// credit, cash and fiscal ledgers in one unit, and voiding it.
package sale

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SaleService handles sale business operations
type SaleService struct {
	txScope         ledger.TransactionScope
	saleRepo        sales.SaleRepository
	series          ledger.NumberSeries
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewSaleService creates a new SaleService
func NewSaleService(txScope ledger.TransactionScope, saleRepo sales.SaleRepository, series ledger.NumberSeries) *SaleService {
	return &SaleService{
		txScope:  txScope,
		saleRepo: saleRepo,
		series:   series,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *SaleService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateSale rings up a sale for a cashier. Stock is committed, the cash portion goes
// into the cashier's open drawer and the credit portion onto the customer's account,
// all in one transaction together with the sale and fiscal number allocation.
func (s *SaleService) CreateSale(ctx context.Context, cashierID uuid.UUID, req CreateSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "create_sale")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBranchID, req.BranchID.String(),
		telemetry.SpanAttrActorID, cashierID.String(),
		telemetry.SpanAttrPaymentCondition, req.Condition,
		telemetry.SpanAttrLineCount, len(req.Lines),
	)

	condition, err := req.ToCondition()
	if err != nil {
		return nil, err
	}
	params := sales.NewSaleParams{
		CustomerID:        req.CustomerID,
		BranchID:          req.BranchID,
		CashierID:         cashierID,
		Condition:         condition,
		GlobalDiscountPct: req.GlobalDiscountPct,
		Notes:             req.Notes,
		Lines:             ToLineInputs(req.Lines),
	}
	// Fail fast on malformed input before opening a transaction
	if _, err := sales.NewSale(params); err != nil {
		return nil, err
	}

	ncfSeries := strings.TrimSpace(req.NCFSeries)
	if ncfSeries == "" {
		ncfSeries = s.series.NCF
	}

	var sale *sales.Sale
	events := &ledger.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		sale, err = sales.NewSale(params)
		if err != nil {
			return err
		}
		return s.issue(ctx, repos, sale, ncfSeries, events)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRejection(ctx, req.BranchID, "create_sale", err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordSaleProcessed(ctx, sale.BranchID, telemetry.SaleSourceCounter, string(sale.Condition.Kind), sale.Total)
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, sale.ID.String(),
		telemetry.SpanAttrSaleNumber, sale.SaleNumber,
		telemetry.SpanAttrNCF, sale.NCF,
	)
	logger.L(ctx).Info("sale processed",
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("ncf", sale.NCF),
		zap.String("total", sale.Total.StringFixed(2)),
		zap.String("payment_condition", string(sale.Condition.Kind)),
	)

	response := ToSaleResponse(sale)
	return &response, nil
}

// issue posts a pending sale to every ledger it touches. Locks are taken in the
// order stock, credit account, drawer, fiscal sequences.
func (s *SaleService) issue(ctx context.Context, repos ledger.TransactionalRepositories, sale *sales.Sale, ncfSeries string, events *ledger.EventCollector) error {
	stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), sale.BranchID, sale.Lines)
	if err != nil {
		return err
	}
	if err := stock.Check(sale.Lines); err != nil {
		return err
	}
	sales.FillProductNames(sale.Lines, stock.Stocks())

	effects := sale.Effects()
	var account *credit.Account
	if effects.AffectsCredit() {
		account, err = ledger.CheckCredit(ctx, repos.CreditRepo(), sale.CustomerID, effects.Credit)
		if err != nil {
			return err
		}
	}

	drawer, err := ledger.RequireOpenDrawer(ctx, repos.DrawerRepo(), sale.BranchID, sale.CashierID)
	if err != nil {
		return err
	}

	saleNumber, err := ledger.AllocateNumber(ctx, repos, s.series.Invoice)
	if err != nil {
		return err
	}
	ncf, err := ledger.AllocateNumber(ctx, repos, ncfSeries)
	if err != nil {
		return err
	}

	drawerID := drawer.ID
	if err := sale.Process(saleNumber.Formatted, ncf.Formatted, &drawerID); err != nil {
		return err
	}
	if err := repos.SaleRepo().Create(ctx, sale); err != nil {
		return err
	}

	if err := stock.Apply(sale.Lines, ledger.Commit, false); err != nil {
		return err
	}
	if err := stock.Save(ctx); err != nil {
		return err
	}

	if effects.AffectsCash() {
		if _, err := drawer.RecordSale(effects.Cash, sale.ID, sale.SaleNumber, sale.CashierID); err != nil {
			return err
		}
		if err := repos.DrawerRepo().SaveWithLock(ctx, drawer); err != nil {
			return err
		}
	}
	if account != nil {
		if _, err := account.Charge(effects.Credit); err != nil {
			return err
		}
		if err := repos.CreditRepo().SaveWithLock(ctx, account); err != nil {
			return err
		}
	}

	events.Collect(stock.Aggregates()...)
	events.Collect(sale)
	return nil
}

// VoidSale annuls a processed sale and reverses its stock and cash or credit effects.
// The sale keeps its fiscal number.
func (s *SaleService) VoidSale(ctx context.Context, saleID, actorID uuid.UUID, req VoidSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "void_sale")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrSaleID, saleID.String(),
		telemetry.SpanAttrActorID, actorID.String(),
	)

	var sale *sales.Sale
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		sale, err = repos.SaleRepo().FindByIDForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if err := sale.Void(actorID, req.Reason); err != nil {
			return err
		}

		stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), sale.BranchID, sale.Lines)
		if err != nil {
			return err
		}
		if err := stock.Apply(sale.Lines, ledger.RestoreOnVoid, true); err != nil {
			return err
		}
		if err := stock.Save(ctx); err != nil {
			return err
		}

		effects := sale.Effects()
		if effects.AffectsCredit() {
			account, err := ledger.LockCreditAccount(ctx, repos.CreditRepo(), sale.CustomerID)
			if err != nil {
				return err
			}
			if _, err := account.Credit(effects.Credit); err != nil {
				return err
			}
			if err := repos.CreditRepo().SaveWithLock(ctx, account); err != nil {
				return err
			}
		}
		if effects.AffectsCash() {
			drawer, err := s.reversalDrawer(ctx, repos.DrawerRepo(), sale, actorID)
			if err != nil {
				return err
			}
			if _, err := drawer.RecordSaleVoid(effects.Cash, sale.ID, sale.SaleNumber, actorID); err != nil {
				return err
			}
			if err := repos.DrawerRepo().SaveWithLock(ctx, drawer); err != nil {
				return err
			}
		}

		if err := repos.SaleRepo().UpdateStatus(ctx, sale); err != nil {
			return err
		}
		events.Collect(stock.Aggregates()...)
		events.Collect(sale)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if sale != nil {
			s.recordRejection(ctx, sale.BranchID, "void_sale", err)
		}
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)

	if s.businessMetrics != nil {
		s.businessMetrics.RecordSaleVoided(ctx, sale.BranchID)
	}

	logger.L(ctx).Info("sale voided",
		zap.String("sale_id", sale.ID.String()),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("ncf", sale.NCF),
		zap.String("actor_id", actorID.String()),
	)

	response := ToSaleResponse(sale)
	return &response, nil
}

// reversalDrawer returns the locked session a cash reversal is posted to: the
// session that took the sale while it is open, else the actor's open session
// at the sale's branch.
func (s *SaleService) reversalDrawer(ctx context.Context, repo cash.SessionRepository, sale *sales.Sale, actorID uuid.UUID) (*cash.DrawerSession, error) {
	if sale.DrawerSessionID != nil {
		session, err := repo.FindByIDForUpdate(ctx, *sale.DrawerSessionID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if err == nil && session.IsOpen() {
			return session, nil
		}
	}
	return ledger.RequireOpenDrawer(ctx, repo, sale.BranchID, actorID)
}

// GetSale retrieves a sale by ID
func (s *SaleService) GetSale(ctx context.Context, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

// ListSales lists the sales of a branch, newest first
func (s *SaleService) ListSales(ctx context.Context, branchID uuid.UUID, filter shared.Filter) ([]SaleResponse, int64, error) {
	list, total, err := s.saleRepo.FindByBranch(ctx, branchID, filter)
	if err != nil {
		return nil, 0, err
	}
	out := make([]SaleResponse, len(list))
	for i := range list {
		out[i] = ToSaleResponse(&list[i])
	}
	return out, total, nil
}

func (s *SaleService) recordRejection(ctx context.Context, branchID uuid.UUID, operation string, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return
	}
	logger.L(ctx).Warn("sale rejected",
		zap.String("operation", operation),
		zap.String("code", domainErr.Code),
		zap.String("message", domainErr.Message),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordRejection(ctx, branchID, operation, domainErr.Code)
	}
}
