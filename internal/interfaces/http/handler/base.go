// Package handler exposes the POS application services over HTTP.
package handler

import (
	"errors"
	"net/http"

	"github.com/erp/pos/internal/domain/shared"
	"github.com/erp/pos/internal/infrastructure/logger"
	"github.com/erp/pos/internal/interfaces/http/dto"
	"github.com/erp/pos/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a 200 response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data).WithRequestID(middleware.GetRequestID(c)))
}

// Created sends a 201 response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data).WithRequestID(middleware.GetRequestID(c)))
}

// Paginated sends a 200 response with pagination meta
func Paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page).WithRequestID(middleware.GetRequestID(c)))
}

// Error sends an error envelope, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.Set(middleware.ErrorCodeKey, code)
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message).WithRequestID(middleware.GetRequestID(c)))
}

// BadRequest sends a 400 response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// HandleError maps domain errors to their status and everything else to 500.
// Internal errors are logged; their text never reaches the client.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		c.Set(middleware.ErrorCodeKey, domainErr.Code)
		c.JSON(dto.GetHTTPStatus(domainErr.Code),
			dto.NewDomainErrorResponse(domainErr).WithRequestID(middleware.GetRequestID(c)))
		return
	}

	logger.L(c.Request.Context()).Error("Request failed",
		zap.Error(err),
		zap.String("route", c.FullPath()),
	)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// bindJSON binds and validates the body; on failure the response is already written
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindQuery binds and validates query parameters
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.Set(middleware.ErrorCodeKey, dto.ErrCodeValidation)
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// requireActor returns the resolved caller or writes 401
func (h *BaseHandler) requireActor(c *gin.Context) (middleware.Actor, bool) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		h.Error(c, dto.ErrCodeUnauthorized, "Caller identity required")
		return middleware.Actor{}, false
	}
	return actor, true
}

// uuidParam parses a path parameter or writes 400
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
