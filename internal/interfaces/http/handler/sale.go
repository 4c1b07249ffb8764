package handler

import (
	appsale "github.com/erp/pos/internal/application/sale"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SaleHandler handles point-of-sale transactions
type SaleHandler struct {
	BaseHandler
	saleService *appsale.SaleService
}

// NewSaleHandler creates a new SaleHandler
func NewSaleHandler(saleService *appsale.SaleService) *SaleHandler {
	return &SaleHandler{saleService: saleService}
}

// branchPageQuery lists the documents of one branch
type branchPageQuery struct {
	BranchID string `form:"branch_id" binding:"required,uuid"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
}

// Create rings up a sale for the calling cashier.
// POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req appsale.CreateSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.saleService.CreateSale(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns a sale.
// GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.saleService.GetSale(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List pages the sales of a branch, newest first.
// GET /sales?branch_id=
func (h *SaleHandler) List(c *gin.Context) {
	var q branchPageQuery
	if !h.bindQuery(c, &q) {
		return
	}

	items, total, err := h.saleService.ListSales(c.Request.Context(), uuid.MustParse(q.BranchID),
		shared.Filter{Page: q.Page, PageSize: q.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, shared.NewPaginated(items, total, q.Page, q.PageSize))
}

// Void reverses a processed sale. The body is optional.
// POST /sales/:id/void
func (h *SaleHandler) Void(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appsale.VoidSaleRequest
	if c.Request.ContentLength != 0 && !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.saleService.VoidSale(c.Request.Context(), id, actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
