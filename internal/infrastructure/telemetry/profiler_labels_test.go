package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabels(t *testing.T) {
	pairs := sanitizeLabels(map[string]string{
		"route":      "/api/v1/sales",
		"Method":     "POST",
		"request_id": "abc",
		"branch_id":  strings.Repeat("x", 200),
		"empty":      "",
	})

	assert.Equal(t, []string{
		"branch_id", strings.Repeat("x", MaxLabelValueLength),
		"method", "POST",
		"route", "/api/v1/sales",
	}, pairs)
}

func TestWithProfilingLabels_RunsFn(t *testing.T) {
	ran := 0
	WithProfilingLabels(context.Background(), nil, func(context.Context) { ran++ })
	WithProfilingLabels(context.Background(), map[string]string{"route": "/x"}, func(context.Context) { ran++ })
	assert.Equal(t, 2, ran)
}
