// Package order implements the order engine. Orders reserve stock while open and
// either release it on cancellation or commit it when invoiced as a sale.
package order

import (
	"context"
	"errors"

	"github.com/erp/pos/internal/application/ledger"
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/orders"
	"github.com/erp/pos/internal/domain/sales"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService handles order business operations
type OrderService struct {
	txScope         ledger.TransactionScope
	orderRepo       orders.OrderRepository
	series          ledger.NumberSeries
	eventPublisher  shared.EventPublisher
	businessMetrics *telemetry.BusinessMetrics
}

// NewOrderService creates a new OrderService
func NewOrderService(txScope ledger.TransactionScope, orderRepo orders.OrderRepository, series ledger.NumberSeries) *OrderService {
	return &OrderService{
		txScope:   txScope,
		orderRepo: orderRepo,
		series:    series,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *OrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetBusinessMetrics sets the business metrics collector
func (s *OrderService) SetBusinessMetrics(bm *telemetry.BusinessMetrics) {
	s.businessMetrics = bm
}

// CreateOrder takes an order for a seller and reserves its stock
func (s *OrderService) CreateOrder(ctx context.Context, sellerID uuid.UUID, req CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "create_order")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrBranchID, req.BranchID.String(),
		telemetry.SpanAttrActorID, sellerID.String(),
		telemetry.SpanAttrLineCount, len(req.Lines),
	)

	condition, err := req.ToCondition()
	if err != nil {
		return nil, err
	}
	params := orders.NewOrderParams{
		CustomerID:        req.CustomerID,
		BranchID:          req.BranchID,
		SellerID:          sellerID,
		Condition:         condition,
		GlobalDiscountPct: req.GlobalDiscountPct,
		Notes:             req.Notes,
		Lines:             appsale.ToLineInputs(req.Lines),
	}
	if _, err := orders.NewOrder(params); err != nil {
		return nil, err
	}

	var order *orders.Order
	events := &ledger.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		order, err = orders.NewOrder(params)
		if err != nil {
			return err
		}

		stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), order.BranchID, order.Lines)
		if err != nil {
			return err
		}
		if err := stock.Check(order.Lines); err != nil {
			return err
		}
		sales.FillProductNames(order.Lines, stock.Stocks())

		if effects := order.Effects(); effects.AffectsCredit() {
			if _, err := ledger.CheckCredit(ctx, repos.CreditRepo(), order.CustomerID, effects.Credit); err != nil {
				return err
			}
		}

		number, err := ledger.AllocateNumber(ctx, repos, s.series.Order)
		if err != nil {
			return err
		}
		if err := order.AssignNumber(number.Formatted); err != nil {
			return err
		}

		if err := stock.Apply(order.Lines, ledger.Reserve, false); err != nil {
			return err
		}
		if err := stock.Save(ctx); err != nil {
			return err
		}
		if err := repos.OrderRepo().Create(ctx, order); err != nil {
			return err
		}
		events.Collect(stock.Aggregates()...)
		events.Collect(order)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		s.recordRejection(ctx, req.BranchID, "create_order", err)
		return nil, err
	}

	s.afterCommit(ctx, order, events)
	logger.L(ctx).Info("order created",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.Total.StringFixed(2)),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

// EditOrder replaces the lines of a pending order. Prior reservations are released
// and the new lines reserved in the same unit; on any failure the order and its
// reservations stay as they were.
func (s *OrderService) EditOrder(ctx context.Context, orderID uuid.UUID, req EditOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "edit_order")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	condition, err := req.ToCondition()
	if err != nil {
		return nil, err
	}
	inputs := appsale.ToLineInputs(req.Lines)

	var order *orders.Order
	events := &ledger.EventCollector{}
	err = s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}

		previous := sales.CopyLines(order.Lines)
		if err := order.Edit(condition, req.GlobalDiscountPct, req.Notes, inputs); err != nil {
			return err
		}

		stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), order.BranchID, previous, order.Lines)
		if err != nil {
			return err
		}
		if err := stock.Apply(previous, ledger.Release, true); err != nil {
			return err
		}
		if err := stock.Check(order.Lines); err != nil {
			return err
		}
		sales.FillProductNames(order.Lines, stock.Stocks())

		if effects := order.Effects(); effects.AffectsCredit() {
			if _, err := ledger.CheckCredit(ctx, repos.CreditRepo(), order.CustomerID, effects.Credit); err != nil {
				return err
			}
		}

		if err := stock.Apply(order.Lines, ledger.Reserve, false); err != nil {
			return err
		}
		if err := stock.Save(ctx); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}
		events.Collect(stock.Aggregates()...)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if order != nil {
			s.recordRejection(ctx, order.BranchID, "edit_order", err)
		}
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	response := ToOrderResponse(order)
	return &response, nil
}

// CancelOrder cancels an open order and releases its reservations
func (s *OrderService) CancelOrder(ctx context.Context, orderID, actorID uuid.UUID, req CancelOrderRequest) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "cancel_order")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	var order *orders.Order
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := order.Cancel(req.Reason, actorID); err != nil {
			return err
		}

		stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), order.BranchID, order.Lines)
		if err != nil {
			return err
		}
		if err := stock.Apply(order.Lines, ledger.Release, true); err != nil {
			return err
		}
		if err := stock.Save(ctx); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}
		events.Collect(stock.Aggregates()...)
		events.Collect(order)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, order, events)
	logger.L(ctx).Info("order cancelled",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("reason", order.CancelReason),
	)

	response := ToOrderResponse(order)
	return &response, nil
}

// ApproveOrder moves a pending order to approved
func (s *OrderService) ApproveOrder(ctx context.Context, orderID, actorID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "approve_order", func(o *orders.Order) error {
		return o.Approve(actorID)
	})
}

// ProcessOrder marks an order as being prepared. Reservations remain.
func (s *OrderService) ProcessOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "process_order", (*orders.Order).Process)
}

// DeliverOrder marks a processed order as delivered. Reservations remain.
func (s *OrderService) DeliverOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	return s.transition(ctx, orderID, "deliver_order", (*orders.Order).Deliver)
}

func (s *OrderService) transition(ctx context.Context, orderID uuid.UUID, operation string, apply func(*orders.Order) error) (*OrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", operation)
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrOrderID, orderID.String())

	var order *orders.Order
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := apply(order); err != nil {
			return err
		}
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}
		events.Collect(order)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.afterCommit(ctx, order, events)
	response := ToOrderResponse(order)
	return &response, nil
}

// ConvertOrderToSale invoices an approved or delivered order. The order row is
// locked first, so a second conversion sees FACTURADO and fails. Reserved stock
// becomes committed stock and the sale is numbered and posted to the cash or
// credit ledger like a counter sale.
func (s *OrderService) ConvertOrderToSale(ctx context.Context, orderID, actorID uuid.UUID) (*ConvertOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "order", "convert_order")
	defer span.End()

	telemetry.SetAttributes(span,
		telemetry.SpanAttrOrderID, orderID.String(),
		telemetry.SpanAttrActorID, actorID.String(),
	)

	var (
		order *orders.Order
		sale  *sales.Sale
	)
	events := &ledger.EventCollector{}
	err := s.txScope.Execute(ctx, func(repos ledger.TransactionalRepositories) error {
		events.Reset()
		var err error
		order, err = repos.OrderRepo().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		sale, err = order.NewSale(actorID)
		if err != nil {
			return err
		}

		stock, err := ledger.LockStockForLines(ctx, repos.StockRepo(), order.BranchID, order.Lines)
		if err != nil {
			return err
		}
		if err := stock.Apply(order.Lines, ledger.ConvertReservedToCommitted, true); err != nil {
			return err
		}

		effects := sale.Effects()
		var account *credit.Account
		if effects.AffectsCredit() {
			account, err = ledger.CheckCredit(ctx, repos.CreditRepo(), sale.CustomerID, effects.Credit)
			if err != nil {
				return err
			}
		}

		drawer, err := ledger.RequireOpenDrawer(ctx, repos.DrawerRepo(), order.BranchID, actorID)
		if err != nil {
			return err
		}

		saleNumber, err := ledger.AllocateNumber(ctx, repos, s.series.Invoice)
		if err != nil {
			return err
		}
		ncf, err := ledger.AllocateNumber(ctx, repos, s.series.NCF)
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
		if err := order.MarkInvoiced(sale.ID); err != nil {
			return err
		}

		if err := stock.Save(ctx); err != nil {
			return err
		}
		if effects.AffectsCash() {
			if _, err := drawer.RecordSale(effects.Cash, sale.ID, sale.SaleNumber, actorID); err != nil {
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
		if err := repos.OrderRepo().Update(ctx, order); err != nil {
			return err
		}

		events.Collect(stock.Aggregates()...)
		events.Collect(sale, order)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		if order != nil {
			s.recordRejection(ctx, order.BranchID, "convert_order", err)
		}
		return nil, err
	}

	s.afterCommit(ctx, order, events)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordSaleProcessed(ctx, sale.BranchID, telemetry.SaleSourceOrder, string(sale.Condition.Kind), sale.Total)
	}

	logger.L(ctx).Info("order invoiced",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("sale_number", sale.SaleNumber),
		zap.String("ncf", sale.NCF),
	)

	return &ConvertOrderResponse{
		Order: ToOrderResponse(order),
		Sale:  appsale.ToSaleResponse(sale),
	}, nil
}

// GetOrder retrieves an order by ID
func (s *OrderService) GetOrder(ctx context.Context, orderID uuid.UUID) (*OrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToOrderResponse(order)
	return &response, nil
}

// ListOrders lists the orders of a branch, optionally by status
func (s *OrderService) ListOrders(ctx context.Context, filter OrderListFilter) ([]OrderResponse, int64, error) {
	var status *orders.Status
	if filter.Status != "" {
		st := orders.Status(filter.Status)
		if !st.IsValid() {
			return nil, 0, shared.NewValidationError("status", "Unknown order status: "+filter.Status)
		}
		status = &st
	}
	page := shared.DefaultFilter()
	if filter.Page > 0 {
		page.Page = filter.Page
	}
	if filter.PageSize > 0 {
		page.PageSize = filter.PageSize
	}

	list, total, err := s.orderRepo.FindByBranch(ctx, filter.BranchID, status, page)
	if err != nil {
		return nil, 0, err
	}
	out := make([]OrderResponse, len(list))
	for i := range list {
		out[i] = ToOrderResponse(&list[i])
	}
	return out, total, nil
}

func (s *OrderService) afterCommit(ctx context.Context, order *orders.Order, events *ledger.EventCollector) {
	events.Publish(ctx, s.eventPublisher)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordOrderTransition(ctx, order.BranchID, string(order.Status))
	}
}

func (s *OrderService) recordRejection(ctx context.Context, branchID uuid.UUID, operation string, err error) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) {
		return
	}
	logger.L(ctx).Warn("order operation rejected",
		zap.String("operation", operation),
		zap.String("code", domainErr.Code),
		zap.String("message", domainErr.Message),
	)
	if s.businessMetrics != nil {
		s.businessMetrics.RecordRejection(ctx, branchID, operation, domainErr.Code)
	}
}
