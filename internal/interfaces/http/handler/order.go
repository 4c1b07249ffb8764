package handler

import (
	"context"

	apporder "github.com/erp/pos/internal/application/order"
	"github.com/erp/pos/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderHandler handles customer orders and their lifecycle
type OrderHandler struct {
	BaseHandler
	orderService *apporder.OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService *apporder.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type orderListQuery struct {
	BranchID string `form:"branch_id" binding:"required,uuid"`
	Page     int    `form:"page,default=1" binding:"min=1"`
	PageSize int    `form:"page_size,default=20" binding:"min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=PENDIENTE APROBADO PROCESADO ENTREGADO CANCELADO FACTURADO"`
}

// Create takes an order for the calling seller, reserving its stock.
// POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req apporder.CreateOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.CreateOrder(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get returns an order.
// GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.orderService.GetOrder(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List pages the orders of a branch, optionally by status.
// GET /orders?branch_id=&status=
func (h *OrderHandler) List(c *gin.Context) {
	var q orderListQuery
	if !h.bindQuery(c, &q) {
		return
	}

	items, total, err := h.orderService.ListOrders(c.Request.Context(), apporder.OrderListFilter{
		BranchID: uuid.MustParse(q.BranchID),
		Status:   q.Status,
		Page:     q.Page,
		PageSize: q.PageSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, shared.NewPaginated(items, total, q.Page, q.PageSize))
}

// Edit replaces the lines and terms of a pending order.
// PUT /orders/:id
func (h *OrderHandler) Edit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apporder.EditOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.EditOrder(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels an order and releases its reservations.
// POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req apporder.CancelOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.CancelOrder(c.Request.Context(), id, actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Approve moves a pending order to approved.
// POST /orders/:id/approve
func (h *OrderHandler) Approve(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	h.transition(c, func(ctx context.Context, id uuid.UUID) (*apporder.OrderResponse, error) {
		return h.orderService.ApproveOrder(ctx, id, actor.UserID)
	})
}

// Process moves an approved order to processed.
// POST /orders/:id/process
func (h *OrderHandler) Process(c *gin.Context) {
	h.transition(c, h.orderService.ProcessOrder)
}

// Deliver moves a processed order to delivered.
// POST /orders/:id/deliver
func (h *OrderHandler) Deliver(c *gin.Context) {
	h.transition(c, h.orderService.DeliverOrder)
}

func (h *OrderHandler) transition(c *gin.Context, apply func(context.Context, uuid.UUID) (*apporder.OrderResponse, error)) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Convert invoices an order as a sale.
// POST /orders/:id/convert
func (h *OrderHandler) Convert(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.orderService.ConvertOrderToSale(c.Request.Context(), id, actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}
