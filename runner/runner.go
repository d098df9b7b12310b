// Package runner executes plans against the graph store and flattens the
// rows each step returns into result records.
package runner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/telemetry"
)

// Templates resolves an intent id to its query template. *catalog.Catalog
// implements it.
type Templates interface {
	Template(id string) (string, bool)
}

// Runner executes plans. It keeps no per-plan state and is safe for
// concurrent use.
type Runner struct {
	dialect   graphplan.Dialect
	templates Templates
	filter    *Filter
	logger    *zap.Logger
	metrics   *telemetry.Metrics
	tracer    trace.Tracer
}

// Option configures a Runner.
type Option func(*Runner)

// WithDialect sets the graph store.
func WithDialect(d graphplan.Dialect) Option {
	return func(r *Runner) {
		r.dialect = d
	}
}

// WithTemplates sets where step templates are looked up.
func WithTemplates(t Templates) Option {
	return func(r *Runner) {
		r.templates = t
	}
}

// WithCatalog looks step templates up in c.
func WithCatalog(c *catalog.Catalog) Option {
	return WithTemplates(c)
}

// WithFilter keeps only the records f matches.
func WithFilter(f *Filter) Option {
	return func(r *Runner) {
		r.filter = f
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics records step and execution metrics.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithTracerProvider sets where spans go. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(r *Runner) {
		r.tracer = telemetry.Tracer(tp)
	}
}

// New creates a Runner with the given options.
func New(opts ...Option) *Runner {
	r := &Runner{
		templates: catalog.Empty(),
		logger:    zap.NewNop(),
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.tracer == nil {
		r.tracer = telemetry.Tracer(nil)
	}

	return r
}

// Execute runs every step of plan in one session and returns the flattened
// records of all steps, in step order. Steps whose intent has no template
// are skipped. The first store error aborts the plan: records of earlier
// steps are discarded and the error carries the store's message.
func (r *Runner) Execute(ctx context.Context, plan *graphplan.Plan) ([]graphplan.Record, error) {
	err := plan.Validate()
	if err != nil {
		return nil, err
	}

	if r.dialect == nil {
		return nil, graphplan.NewError("runner.Execute", graphplan.ErrNoDialect, "no graph store configured", nil)
	}

	ctx, span := telemetry.Start(ctx, r.tracer, "runner.Execute",
		attribute.Int("steps", len(plan.Steps)),
		attribute.String("dialect", r.dialect.Name()))

	records, err := r.execute(ctx, plan)

	span.SetAttributes(attribute.Int("records", len(records)))
	telemetry.End(span, err)
	r.metrics.RecordExecution(err, len(records))

	return records, err
}

func (r *Runner) execute(ctx context.Context, plan *graphplan.Plan) ([]graphplan.Record, error) {
	session, err := graphplan.OpenSession(ctx, r.dialect)
	if err != nil {
		return nil, graphplan.NewError("runner.Execute", graphplan.ErrQueryExecution, err.Error(), err)
	}

	defer func() {
		cerr := session.Close(ctx)
		if cerr != nil {
			r.logger.Warn("Failed to close session", zap.Error(cerr))
		}
	}()

	records := []graphplan.Record{}

	for _, step := range plan.Steps {
		template, ok := r.templates.Template(step.IntentID)
		if !ok {
			r.logger.Warn("Unknown intent, skipping step",
				zap.Int("step", step.Step),
				zap.String("intent", step.IntentID),
				zap.Error(graphplan.ErrUnknownIntent))
			r.metrics.RecordStep(telemetry.StatusSkipped, 0)

			continue
		}

		start := time.Now()

		rows, err := session.Run(ctx, template, map[string]any{catalog.ValueParam: step.Value})
		if err != nil {
			r.metrics.RecordStep(telemetry.StatusError, time.Since(start))
			r.logger.Debug("Step failed",
				zap.Int("step", step.Step),
				zap.String("intent", step.IntentID),
				zap.Error(err))

			return nil, graphplan.NewError("runner.Execute", graphplan.ErrQueryExecution, err.Error(), err)
		}

		r.metrics.RecordStep(telemetry.StatusOK, time.Since(start))
		r.logger.Debug("Step executed",
			zap.Int("step", step.Step),
			zap.String("intent", step.IntentID),
			zap.Int("rows", len(rows)),
			zap.Duration("elapsed", time.Since(start)))

		for _, row := range rows {
			rec, ok := resultRecord(row)
			if !ok || !r.keep(rec) {
				continue
			}

			records = append(records, rec)
		}
	}

	return records, nil
}

// resultRecord flattens the result column of row. Templates return their
// result under catalog.ResultAlias; rows without it use their first column.
func resultRecord(row graphplan.Row) (graphplan.Record, bool) {
	v, ok := row.Get(catalog.ResultAlias)
	if !ok {
		if len(row.Values) == 0 {
			return nil, false
		}

		v = row.Values[0]
	}

	return v.Record(), true
}

func (r *Runner) keep(rec graphplan.Record) bool {
	if r.filter == nil {
		return true
	}

	ok, err := r.filter.Match(rec)
	if err != nil {
		r.logger.Debug("Filter failed on record, dropping it", zap.Error(err))

		return false
	}

	return ok
}
