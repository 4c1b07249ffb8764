package handler

import (
	appcash "github.com/erp/pos/internal/application/cash"
	"github.com/erp/pos/internal/application/query"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DrawerHandler handles cash drawer sessions
type DrawerHandler struct {
	BaseHandler
	cashService  *appcash.CashSessionService
	queryService *query.QueryService
}

// NewDrawerHandler creates a new DrawerHandler
func NewDrawerHandler(cashService *appcash.CashSessionService, queryService *query.QueryService) *DrawerHandler {
	return &DrawerHandler{cashService: cashService, queryService: queryService}
}

type currentDrawerQuery struct {
	BranchID string `form:"branch_id" binding:"required,uuid"`
}

// Open opens a drawer session for the caller.
// POST /drawers
func (h *DrawerHandler) Open(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var req appcash.OpenDrawerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.cashService.OpenDrawer(c.Request.Context(), actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Current returns the caller's open drawer at a branch.
// GET /drawers/current?branch_id=
func (h *DrawerHandler) Current(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	var q currentDrawerQuery
	if !h.bindQuery(c, &q) {
		return
	}

	resp, err := h.queryService.GetDrawerState(c.Request.Context(), uuid.MustParse(q.BranchID), actor.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Close closes a session against the counted cash.
// POST /drawers/:id/close
func (h *DrawerHandler) Close(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcash.CloseDrawerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.cashService.CloseDrawer(c.Request.Context(), id, actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RegisterMovement records a manual cash in or out.
// POST /drawers/:id/movements
func (h *DrawerHandler) RegisterMovement(c *gin.Context) {
	actor, ok := h.requireActor(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcash.CashMovementRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.cashService.RegisterCashMovement(c.Request.Context(), id, actor.UserID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Movements lists a session's movements in recording order.
// GET /drawers/:id/movements
func (h *DrawerHandler) Movements(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.cashService.ListMovements(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Report returns the closing reconciliation of a session.
// GET /drawers/:id/report
func (h *DrawerHandler) Report(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	resp, err := h.cashService.ClosingReport(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
