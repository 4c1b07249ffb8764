// Package middleware provides the gin middleware of the POS HTTP API.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingConfig holds configuration for the tracing middleware.
type TracingConfig struct {
	ServiceName string
	Enabled     bool
}

// DefaultTracingConfig returns default tracing configuration.
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName: "pos-engine",
		Enabled:     true,
	}
}

// TracingWithConfig wraps otelgin. Spans are named "METHOD route".
func TracingWithConfig(cfg TracingConfig) gin.HandlerFunc {
	if !cfg.Enabled {
		return func(c *gin.Context) {
			c.Next()
		}
	}
	return otelgin.Middleware(cfg.ServiceName)
}

// TracingAttributeInjector adds request_id, actor_id and branch_id to the
// current span. Place it after RequestID and ResolveActor.
func TracingAttributeInjector() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if span.IsRecording() {
			enrichSpanWithAttributes(c, span)
		}
		c.Next()
	}
}

func enrichSpanWithAttributes(c *gin.Context, span trace.Span) {
	if requestID := GetRequestID(c); requestID != "" {
		span.SetAttributes(attribute.String("request_id", requestID))
	}
	if actor, ok := GetActor(c); ok {
		span.SetAttributes(attribute.String("actor_id", actor.UserID.String()))
		if actor.BranchID != nil {
			span.SetAttributes(attribute.String("branch_id", actor.BranchID.String()))
		}
	}
}

// SpanErrorMarker marks the span as failed for 4xx and 5xx responses and
// records the error code from the envelope. Place it after TracingWithConfig.
func SpanErrorMarker() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		statusCode := c.Writer.Status()
		if statusCode < http.StatusBadRequest {
			return
		}
		description := "Client Error"
		switch {
		case statusCode >= http.StatusInternalServerError:
			description = "Internal Server Error"
		case statusCode == http.StatusUnauthorized:
			description = "Unauthorized"
		case statusCode == http.StatusNotFound:
			description = "Not Found"
		case statusCode == http.StatusConflict:
			description = "Conflict"
		}
		span.SetStatus(codes.Error, description)
		span.SetAttributes(attribute.Int("http.status_code", statusCode))
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error_code", code))
		}
	}
}

// ErrorCodeKey is where handlers leave the error code of a failed request
const ErrorCodeKey = "error_code"
