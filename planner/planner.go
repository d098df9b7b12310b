// Package planner turns a question into an ordered plan of intent+value
// steps: it ranks catalog intents with a classifier, gates on confidence and
// extracts the literal value each step binds.
package planner

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/classify"
	"github.com/rlch/graphplan/extract"
	"github.com/rlch/graphplan/telemetry"
)

// Defaults.
const (
	DefaultMinScore       = 0.4
	DefaultTopK           = 1
	DefaultGraphThreshold = 0.55
)

// Ranker ranks catalog intents against a question. *classify.Classifier
// implements it.
type Ranker interface {
	Classify(ctx context.Context, query string, topK int) ([]classify.Match, error)
}

// Planner builds plans. It holds no per-query state and is safe for
// concurrent use once built.
type Planner struct {
	ranker         Ranker
	extractor      *extract.Extractor
	minScore       float64
	topK           int
	graphThreshold float64
	logger         *zap.Logger
	metrics        *telemetry.Metrics
	tracer         trace.Tracer
}

// Option configures a Planner.
type Option func(*Planner)

// WithMinScore sets the confidence below which no plan is produced.
func WithMinScore(score float64) Option {
	return func(p *Planner) {
		p.minScore = score
	}
}

// WithTopK sets how many ranked intents are tried for extraction.
func WithTopK(k int) Option {
	return func(p *Planner) {
		if k > 0 {
			p.topK = k
		}
	}
}

// WithGraphThreshold sets the score above which IsGraphQuery reports true.
func WithGraphThreshold(score float64) Option {
	return func(p *Planner) {
		p.graphThreshold = score
	}
}

// WithExtractor replaces the default extractor.
func WithExtractor(e *extract.Extractor) Option {
	return func(p *Planner) {
		p.extractor = e
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithMetrics records plan outcomes and scores.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(p *Planner) {
		p.metrics = m
	}
}

// WithTracerProvider sets where spans go. The global provider is used
// otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Planner) {
		p.tracer = telemetry.Tracer(tp)
	}
}

// New creates a Planner over ranker.
func New(ranker Ranker, opts ...Option) *Planner {
	p := &Planner{
		ranker:         ranker,
		extractor:      extract.New(),
		minScore:       DefaultMinScore,
		topK:           DefaultTopK,
		graphThreshold: DefaultGraphThreshold,
		logger:         zap.NewNop(),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.tracer == nil {
		p.tracer = telemetry.Tracer(nil)
	}

	return p
}

// Classify ranks intents against query.
func (p *Planner) Classify(ctx context.Context, query string, topK int) ([]classify.Match, error) {
	return p.ranker.Classify(ctx, query, topK)
}

// IsGraphQuery reports whether the best intent for query scores above the
// graph threshold, i.e. whether the question should be planned at all rather
// than handled as small talk. The best match is returned either way.
func (p *Planner) IsGraphQuery(ctx context.Context, query string) (bool, classify.Match, error) {
	matches, err := p.ranker.Classify(ctx, query, 1)
	if err != nil {
		return false, classify.Match{}, err
	}

	best := matches[0]

	return best.Score > p.graphThreshold, best, nil
}

// GeneratePlan classifies query and builds its plan. It fails with
// ErrLowConfidence when the best score is under the minimum and with
// ErrNoEntity when no candidate intent yields a value.
func (p *Planner) GeneratePlan(ctx context.Context, query string) (*graphplan.Plan, error) {
	ctx, span := telemetry.Start(ctx, p.tracer, "planner.GeneratePlan",
		attribute.Int("top_k", p.topK))

	matches, err := p.rank(ctx, query)
	if err != nil {
		p.finish(span, nil, -1, err)

		return nil, err
	}

	plan, err := p.planFrom(query, matches)
	p.finish(span, plan, matches[0].Score, err)

	return plan, err
}

// PlanGraphQuery is IsGraphQuery followed by GeneratePlan with a single
// classification. When the best intent does not clear the graph threshold it
// returns a nil plan and a nil error. The best match is returned either way.
func (p *Planner) PlanGraphQuery(ctx context.Context, query string) (*graphplan.Plan, classify.Match, error) {
	ctx, span := telemetry.Start(ctx, p.tracer, "planner.PlanGraphQuery",
		attribute.Int("top_k", p.topK))

	matches, err := p.rank(ctx, query)
	if err != nil {
		p.finish(span, nil, -1, err)

		return nil, classify.Match{}, err
	}

	best := matches[0]

	if best.Score <= p.graphThreshold {
		span.SetAttributes(attribute.Float64("score", best.Score))
		telemetry.End(span, nil)

		return nil, best, nil
	}

	plan, err := p.planFrom(query, matches)
	p.finish(span, plan, best.Score, err)

	return plan, best, err
}

func (p *Planner) rank(ctx context.Context, query string) ([]classify.Match, error) {
	matches, err := p.ranker.Classify(ctx, query, p.topK)
	if err != nil {
		return nil, fmt.Errorf("classify query: %w", err)
	}

	best := matches[0]

	p.logger.Debug("Best intent",
		zap.String("intent", best.Intent.ID),
		zap.Float64("score", best.Score))

	return matches, nil
}

func (p *Planner) finish(span trace.Span, plan *graphplan.Plan, score float64, err error) {
	span.SetAttributes(attribute.Float64("score", score))
	if plan != nil {
		span.SetAttributes(attribute.Int("steps", len(plan.Steps)))
	}

	telemetry.End(span, err)
	p.metrics.RecordPlan(telemetry.Outcome(err), score)
}

// planFrom builds the plan for query from ranked matches, best first.
func (p *Planner) planFrom(query string, matches []classify.Match) (*graphplan.Plan, error) {
	best := matches[0]

	if best.Score < p.minScore {
		return nil, graphplan.NewError("planner.GeneratePlan", graphplan.ErrLowConfidence,
			"I did not understand the question (score too low).", nil)
	}

	plan := &graphplan.Plan{}

	for _, m := range matches {
		v, ok := p.extractor.Extract(query, m.Intent)
		if !ok {
			p.logger.Debug("No entity for intent", zap.String("intent", m.Intent.ID))

			continue
		}

		p.logger.Debug("Extracted entity",
			zap.String("intent", m.Intent.ID),
			zap.String("value", v.Value),
			zap.String("rule", v.Rule))

		plan.Steps = append(plan.Steps, graphplan.Step{
			Step:        len(plan.Steps) + 1,
			IntentID:    m.Intent.ID,
			Description: m.Intent.Description,
			Value:       v.Value,
			Output:      graphplan.DefaultStepOutput,
		})
	}

	if len(plan.Steps) == 0 {
		return nil, graphplan.NewError("planner.GeneratePlan", graphplan.ErrNoEntity,
			fmt.Sprintf("I understood possible intents (e.g. '%s') but found no entity "+
				"(national ID, plate, etc.) in the question.", best.Intent.Description), nil)
	}

	return plan, nil
}
