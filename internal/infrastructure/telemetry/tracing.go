// Package telemetry wires OpenTelemetry tracing, metrics and logs plus
// Pyroscope profiling for the POS engine.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/pos/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName names the tracer of engine spans
const TracerName = "pos-engine"

// Span attribute keys of engine spans. Metric attribute keys live in metrics.go.
const (
	SpanAttrSaleID      = "sale_id"
	SpanAttrSaleNumber  = "sale_number"
	SpanAttrNCF         = "ncf"
	SpanAttrOrderID     = "order_id"
	SpanAttrOrderNumber = "order_number"
	SpanAttrOrderStatus = "order_status"

	SpanAttrBranchID   = "branch_id"
	SpanAttrActorID    = "actor_id"
	SpanAttrCustomerID = "customer_id"

	SpanAttrDrawerSessionID  = "drawer_session_id"
	SpanAttrPaymentCondition = "payment_condition"
	SpanAttrLineCount        = "line_count"
	SpanAttrAmount           = "amount"

	// SpanAttrErrorCode carries the DomainError code of a rejected unit
	SpanAttrErrorCode = "error.code"
)

// SpanOption adds start attributes to a span
type SpanOption func(*[]attribute.KeyValue)

// WithAttribute adds a start attribute
func WithAttribute(key string, value any) SpanOption {
	return func(attrs *[]attribute.KeyValue) {
		*attrs = append(*attrs, toAttribute(key, value))
	}
}

// StartSpan starts an internal span on the global tracer provider.
// Callers must End the returned span.
func StartSpan(ctx context.Context, name string, opts ...SpanOption) (context.Context, trace.Span) {
	var attrs []attribute.KeyValue
	for _, opt := range opts {
		opt(&attrs)
	}
	startOpts := []trace.SpanStartOption{trace.WithSpanKind(trace.SpanKindInternal)}
	if len(attrs) > 0 {
		startOpts = append(startOpts, trace.WithAttributes(attrs...))
	}
	return otel.GetTracerProvider().Tracer(TracerName).Start(ctx, name, startOpts...)
}

// StartServiceSpan starts a span named "{service}.{operation}", e.g. "sale.create_sale"
func StartServiceSpan(ctx context.Context, service, operation string, opts ...SpanOption) (context.Context, trace.Span) {
	return StartSpan(ctx, service+"."+operation, opts...)
}

// SetAttributes sets alternating key/value pairs on span. Pairs with a non-string key are skipped.
func SetAttributes(span trace.Span, keyValues ...any) {
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, len(keyValues)/2)
	for i := 0; i+1 < len(keyValues); i += 2 {
		if key, ok := keyValues[i].(string); ok {
			attrs = append(attrs, toAttribute(key, keyValues[i+1]))
		}
	}
	span.SetAttributes(attrs...)
}

// SetAttribute sets one attribute on span
func SetAttribute(span trace.Span, key string, value any) {
	if span == nil {
		return
	}
	span.SetAttributes(toAttribute(key, value))
}

// RecordError marks span as failed. Domain rejections also get their code,
// so stock and credit refusals can be told apart from infrastructure faults.
func RecordError(span trace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.SetAttributes(attribute.String(SpanAttrErrorCode, de.Code))
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	case bool:
		return attribute.Bool(key, v)
	case []string:
		return attribute.StringSlice(key, v)
	case fmt.Stringer:
		// uuid.UUID, decimal.Decimal and the status types
		return attribute.String(key, v.String())
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}
