// Package cash implements the cash session manager: opening and closing drawer
// sessions, manual cash movements and closing reconciliation.
package cash

import (
	"context"
	"errors"

	"github.com/erp/pos/internal/application/ledger"
	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/message"
)

// CashSessionService handles drawer session operations
type CashSessionService struct {
	txScope         ledger.TransactionScope
	drawerRepo      cash.SessionRepository
	reports         ReportReader
	printer         *message.Printer
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewCashSessionService creates a new CashSessionService.
// locale is the BCP 47 tag closing report amounts are formatted in.
func NewCashSessionService(txScope ledger.TransactionScope, drawerRepo cash.SessionRepository, reports ReportReader, locale string) *CashSessionService {
	return &CashSessionService{
		txScope:    txScope,
		drawerRepo: drawerRepo,
		reports:    reports,
		printer:    newPrinter(locale),
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CashSessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *CashSessionService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// OpenDrawer opens a drawer session for an operator at a branch
func (s *CashSessionService) OpenDrawer(ctx context.Context, operatorID uuid.UUID, req OpenDrawerRequest) (*DrawerSessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash", "open_drawer")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBranchID, req.BranchID.String(),
		telemetry.SpanAttrActorID, operatorID.String(),
	)

	var session *cash.DrawerSession
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		_, err := repos.DrawerRepo().FindOpenForUpdate(ctx, req.BranchID, operatorID)
		switch {
		case err == nil:
			return shared.ErrDrawerAlreadyOpen.
				WithDetail("branch_id", req.BranchID.String()).
				WithDetail("operator_id", operatorID.String())
		case !errors.Is(err, shared.ErrNotFound):
			return err
		}

		session, err = cash.OpenDrawerSession(req.BranchID, operatorID, req.OpeningFloat)
		if err != nil {
			return err
		}
		if err := repos.DrawerRepo().Save(ctx, session); err != nil {
			return err
		}
		events.Collect(session)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("drawer opened",
		zap.String("session_id", session.ID.String()),
		zap.String("branch_id", session.BranchID.String()),
		zap.String("opening_float", session.OpeningFloat.StringFixed(2)),
	)

	response := ToDrawerSessionResponse(session)
	return &response, nil
}

// CloseDrawer freezes a session with the counted cash and records its variance
func (s *CashSessionService) CloseDrawer(ctx context.Context, sessionID, actorID uuid.UUID, req CloseDrawerRequest) (*DrawerSessionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash", "close_drawer")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDrawerSessionID, sessionID.String())

	var session *cash.DrawerSession
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		session, err = repos.DrawerRepo().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		history, err := repos.DrawerRepo().FindMovements(ctx, sessionID)
		if err != nil {
			return err
		}
		if err := session.Close(req.CountedCash, history, actorID); err != nil {
			return err
		}
		if err := repos.DrawerRepo().SaveWithLock(ctx, session); err != nil {
			return err
		}
		events.Collect(session)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	response := ToDrawerSessionResponse(session)

	if s.businessMetrics != nil && session.Variance != nil {
		s.businessMetrics.RecordDrawerClosed(ctx, session.BranchID, response.VarianceClass, *session.Variance)
	}
	log := logger.L(ctx).With(
		zap.String("session_id", session.ID.String()),
		zap.String("theoretical_cash", session.TheoreticalCash.StringFixed(2)),
		zap.String("counted_cash", session.CountedCash.StringFixed(2)),
		zap.String("variance", session.Variance.StringFixed(2)),
	)
	if response.VarianceClass == string(cash.VarianceCritical) {
		log.Warn("drawer closed with critical variance")
	} else {
		log.Info("drawer closed")
	}

	return &response, nil
}

// RegisterCashMovement records a manual cash in or out on an open session
func (s *CashSessionService) RegisterCashMovement(ctx context.Context, sessionID, actorID uuid.UUID, req CashMovementRequest) (*CashMovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash", "register_movement")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrDrawerSessionID, sessionID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	var response CashMovementResponse
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		session, err := repos.DrawerRepo().FindByIDForUpdate(ctx, sessionID)
		if err != nil {
			return err
		}
		running, err := session.RegisterManualMovement(req.MovementType(), req.Amount, req.Description, actorID)
		if err != nil {
			return err
		}
		pending := session.PendingMovements()
		movement := pending[len(pending)-1]
		if err := repos.DrawerRepo().SaveWithLock(ctx, session); err != nil {
			return err
		}
		response = ToCashMovementResponse(movement, running)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	logger.L(ctx).Info("cash movement registered",
		zap.String("session_id", sessionID.String()),
		zap.String("type", response.Type),
		zap.String("amount", response.Amount.StringFixed(2)),
	)
	return &response, nil
}

// ListMovements returns the movements of a session in ledger order
func (s *CashSessionService) ListMovements(ctx context.Context, sessionID uuid.UUID) ([]CashMovementResponse, error) {
	session, err := s.drawerRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	movements, err := s.drawerRepo.FindMovements(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	running := session.OpeningFloat
	out := make([]CashMovementResponse, len(movements))
	for i, m := range movements {
		running = running.Add(m.Signed())
		out[i] = ToCashMovementResponse(m, running)
	}
	return out, nil
}

// ClosingReport reconciles a session: movement totals, sales taken, theoretical and
// counted cash and the variance grade. An open session reports its running position.
func (s *CashSessionService) ClosingReport(ctx context.Context, sessionID uuid.UUID) (*ClosingReportResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "cash", "closing_report")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrDrawerSessionID, sessionID.String())

	session, err := s.drawerRepo.FindByID(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	movements, err := s.reports.MovementTotals(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	saleTotals, err := s.reports.SaleTotals(ctx, sessionID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	report := buildClosingReport(session, movements, saleTotals, s.printer)
	return &report, nil
}
