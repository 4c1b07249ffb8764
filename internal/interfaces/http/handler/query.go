package handler

import (
	"github.com/erp/pos/internal/application/query"
	"github.com/gin-gonic/gin"
)

// QueryHandler serves ledger read endpoints
type QueryHandler struct {
	BaseHandler
	queryService *query.QueryService
}

// NewQueryHandler creates a new QueryHandler
func NewQueryHandler(queryService *query.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// StockAvailability returns one product's position at a branch.
// GET /stock/:branch_id/:product_id
func (h *QueryHandler) StockAvailability(c *gin.Context) {
	branchID, ok := h.uuidParam(c, "branch_id")
	if !ok {
		return
	}
	productID, ok := h.uuidParam(c, "product_id")
	if !ok {
		return
	}

	resp, err := h.queryService.GetStockAvailability(c.Request.Context(), productID, branchID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BranchStock pages a branch's stock, optionally filtered by product name.
// GET /stock/:branch_id
func (h *QueryHandler) BranchStock(c *gin.Context) {
	branchID, ok := h.uuidParam(c, "branch_id")
	if !ok {
		return
	}
	var filter query.StockListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.queryService.ListBranchStock(c.Request.Context(), branchID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, *page)
}

// CreditExposure returns a customer's credit position.
// GET /customers/:id/credit
func (h *QueryHandler) CreditExposure(c *gin.Context) {
	customerID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.queryService.GetCreditExposure(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
