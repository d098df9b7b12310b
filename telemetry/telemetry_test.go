//nolint:testpackage // Tests need access to internal collectors
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/rlch/graphplan"
)

func TestOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomePlanned},
		{graphplan.NewError("op", graphplan.ErrLowConfidence, "low", nil), OutcomeLowConfidence},
		{fmt.Errorf("wrapped: %w", graphplan.NewError("op", graphplan.ErrNoEntity, "none", nil)), OutcomeNoEntity},
		{errors.New("embedding service down"), OutcomeError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "Outcome(%v)", tt.err)
	}
}

func TestMetrics_Record(t *testing.T) {
	t.Parallel()

	m := NewMetrics()

	m.RecordPlan(OutcomePlanned, 0.8)
	m.RecordPlan(OutcomePlanned, 0.7)
	m.RecordPlan(OutcomeError, -1)
	m.RecordStep(StatusOK, 10*time.Millisecond)
	m.RecordStep(StatusSkipped, 0)
	m.RecordExecution(nil, 3)
	m.RecordExecution(errors.New("boom"), 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.plans.WithLabelValues(OutcomePlanned)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.plans.WithLabelValues(OutcomeError)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.scores))
	assert.InDelta(t, 1, testutil.ToFloat64(m.steps.WithLabelValues(StatusSkipped)), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(m.records), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.executions.WithLabelValues(StatusError)), 0)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	t.Parallel()

	var m *Metrics

	assert.NotPanics(t, func() {
		m.RecordPlan(OutcomePlanned, 1)
		m.RecordStep(StatusOK, time.Second)
		m.RecordExecution(nil, 1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	t.Parallel()

	m := NewMetrics()
	m.RecordPlan(OutcomeNoEntity, 0.5)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `graphplan_planner_plans_total{outcome="no_entity"} 1`))
}

func TestEnd(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	tracer := Tracer(tp)

	_, ok := Start(context.Background(), tracer, "ok", attribute.String("query", "q"))
	End(ok, nil)

	_, bad := Start(context.Background(), tracer, "bad")
	End(bad, errors.New("store down"))

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)

	assert.Equal(t, "ok", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)
	assert.Contains(t, spans[0].Attributes, attribute.String("query", "q"))

	assert.Equal(t, "bad", spans[1].Name)
	assert.Equal(t, codes.Error, spans[1].Status.Code)
	assert.Equal(t, "store down", spans[1].Status.Description)
	require.Len(t, spans[1].Events, 1)
	assert.Equal(t, "exception", spans[1].Events[0].Name)
}
