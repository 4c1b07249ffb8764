// Package query serves the read side of the ledgers: stock availability,
// credit exposure and drawer state.
package query

import (
	"context"
	"errors"
	"strings"

	"github.com/erp/pos/internal/domain/cash"
	"github.com/erp/pos/internal/domain/credit"
	"github.com/erp/pos/internal/domain/inventory"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/telemetry"
	"github.com/google/uuid"
)

// StockLister lists the stock positions of a branch
type StockLister interface {
	ListBranchStock(ctx context.Context, branchID uuid.UUID, filter StockListFilter) ([]StockResponse, int64, error)
}

// RepositoryStockLister lists branch stock through the stock repository
type RepositoryStockLister struct {
	repo inventory.StockRepository
}

// NewRepositoryStockLister creates a RepositoryStockLister
func NewRepositoryStockLister(repo inventory.StockRepository) *RepositoryStockLister {
	return &RepositoryStockLister{repo: repo}
}

// ListBranchStock implements StockLister. Search matches product names case-insensitively
// within the loaded page.
func (l *RepositoryStockLister) ListBranchStock(ctx context.Context, branchID uuid.UUID, filter StockListFilter) ([]StockResponse, int64, error) {
	records, total, err := l.repo.FindByBranch(ctx, branchID, shared.Filter{Page: filter.Page, PageSize: filter.PageSize})
	if err != nil {
		return nil, 0, err
	}
	search := strings.ToLower(filter.Search)
	out := make([]StockResponse, 0, len(records))
	for i := range records {
		if search != "" && !strings.Contains(strings.ToLower(records[i].ProductName), search) {
			continue
		}
		out = append(out, ToStockResponse(&records[i]))
	}
	return out, total, nil
}

// QueryService answers ledger queries outside any unit
type QueryService struct {
	stockRepo  inventory.StockRepository
	creditRepo credit.AccountRepository
	drawerRepo cash.SessionRepository
	stock      StockLister
}

// NewQueryService creates a new QueryService. A nil lister lists through the stock repository.
func NewQueryService(stockRepo inventory.StockRepository, creditRepo credit.AccountRepository, drawerRepo cash.SessionRepository, lister StockLister) *QueryService {
	if lister == nil {
		lister = NewRepositoryStockLister(stockRepo)
	}
	return &QueryService{
		stockRepo:  stockRepo,
		creditRepo: creditRepo,
		drawerRepo: drawerRepo,
		stock:      lister,
	}
}

// GetStockAvailability returns the stock position of a product at a branch
func (s *QueryService) GetStockAvailability(ctx context.Context, productID, branchID uuid.UUID) (*StockResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "query", "stock_availability")
	defer span.End()

	stock, err := s.stockRepo.FindByProductAndBranch(ctx, productID, branchID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	resp := ToStockResponse(stock)
	return &resp, nil
}

// ListBranchStock returns a page of the stock positions of a branch
func (s *QueryService) ListBranchStock(ctx context.Context, branchID uuid.UUID, filter StockListFilter) (*shared.Paginated[StockResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "query", "list_branch_stock")
	defer span.End()

	bounds := shared.Filter{Page: filter.Page, PageSize: filter.PageSize}.Normalized()
	filter.Page, filter.PageSize = bounds.Page, bounds.PageSize

	items, total, err := s.stock.ListBranchStock(ctx, branchID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// GetCreditExposure returns the credit position of a customer
func (s *QueryService) GetCreditExposure(ctx context.Context, customerID uuid.UUID) (*CreditExposureResponse, error) {
	account, err := s.creditRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeNotFound, "Customer has no credit account").
				WithDetail("customer_id", customerID.String())
		}
		return nil, err
	}
	resp := ToCreditExposureResponse(account)
	return &resp, nil
}

// GetDrawerState returns the open drawer of an operator at a branch, or NO_OPEN_DRAWER
func (s *QueryService) GetDrawerState(ctx context.Context, branchID, operatorID uuid.UUID) (*DrawerStateResponse, error) {
	session, err := s.drawerRepo.FindOpen(ctx, branchID, operatorID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNoOpenDrawer.
				WithDetail("branch_id", branchID.String()).
				WithDetail("operator_id", operatorID.String())
		}
		return nil, err
	}
	movements, err := s.drawerRepo.FindMovements(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	resp := ToDrawerStateResponse(session, movements)
	return &resp, nil
}
