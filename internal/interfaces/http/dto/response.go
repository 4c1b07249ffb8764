package dto

import "github.com/erp/pos/internal/domain/shared"

// Response is the envelope of every API response
type Response struct {
	Success   bool       `json:"success"`
	Data      any        `json:"data,omitempty"`
	Error     *ErrorInfo `json:"error,omitempty"`
	Meta      *Meta      `json:"meta,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
}

// ErrorInfo describes a failed request
type ErrorInfo struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidationDetail names one rejected request field
type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Meta represents pagination metadata
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

// NewSuccessResponse creates a success response
func NewSuccessResponse(data any) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// NewPaginatedResponse unwraps a paginated result into data and meta
func NewPaginatedResponse[T any](page shared.Paginated[T]) Response {
	items := page.Items
	if items == nil {
		items = []T{}
	}
	return Response{
		Success: true,
		Data:    items,
		Meta: &Meta{
			Total:      page.Total,
			Page:       page.Page,
			PageSize:   page.PageSize,
			TotalPages: page.TotalPages,
		},
	}
}

// NewErrorResponse creates an error response
func NewErrorResponse(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// NewDomainErrorResponse carries a domain error's code, message and details
func NewDomainErrorResponse(err *shared.DomainError) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	}
}

// NewValidationErrorResponse lists the rejected fields of a request
func NewValidationErrorResponse(message string, details []ValidationDetail) Response {
	fields := make([]map[string]string, len(details))
	for i, d := range details {
		fields[i] = map[string]string{"field": d.Field, "message": d.Message}
	}
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    ErrCodeValidation,
			Message: message,
			Details: map[string]any{"fields": fields},
		},
	}
}

// WithRequestID stamps the request ID onto the response
func (r Response) WithRequestID(id string) Response {
	r.RequestID = id
	return r
}

// PageRequest holds list paging query parameters
type PageRequest struct {
	Page     int `form:"page,default=1" binding:"min=1"`
	PageSize int `form:"page_size,default=20" binding:"min=1,max=100"`
}

// Filter converts the request into a repository filter
func (p PageRequest) Filter() shared.Filter {
	return shared.Filter{Page: p.Page, PageSize: p.PageSize}
}

// IDRequest represents a request with an ID path parameter
type IDRequest struct {
	ID string `uri:"id" binding:"required,uuid"`
}
