// Package generator synthesizes the intent catalog from ontology metadata.
//
// Two passes run over a snapshot. The property pass emits one single-hop
// intent for each of the two highest priority properties of every label. The
// composite pass walks the meta-graph from every label and emits multi-hop
// intents that return the start node of a path filtered on a property of its
// end node.
package generator

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/metagraph"
	"github.com/rlch/graphplan/ontology"
)

// Generation limits.
const (
	PropertiesPerLabel   = 2
	MaxExamples          = 15
	MaxCompositeExamples = 5
	threeNodePathLength  = 3
	synonymFanOut        = 2
	middleSynonymFanOut  = 3
)

// DefaultVersion is written into the catalog header when none is configured.
const DefaultVersion = "5.2-metadata"

// Generator builds catalogs. It holds configuration only and is safe to reuse.
type Generator struct {
	maxDepth    int
	phrases     Phrasebook
	multiValued bool
	version     string
	now         func() time.Time
	logger      *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxDepth bounds path discovery.
func WithMaxDepth(depth int) Option {
	return func(g *Generator) {
		g.maxDepth = depth
	}
}

// WithPhrasebook selects the example phrasings.
func WithPhrasebook(pb Phrasebook) Option {
	return func(g *Generator) {
		g.phrases = pb
	}
}

// WithMultiValued controls whether templates compare the first element of
// array properties (the default) or the property itself.
func WithMultiValued(multi bool) Option {
	return func(g *Generator) {
		g.multiValued = multi
	}
}

// WithVersion sets the catalog version.
func WithVersion(version string) Option {
	return func(g *Generator) {
		g.version = version
	}
}

// WithClock sets the clock used for the generation timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Generator) {
		g.logger = logger
	}
}

// New creates a Generator.
func New(opts ...Option) *Generator {
	g := &Generator{
		maxDepth:    metagraph.MaxDepth,
		phrases:     Portuguese,
		multiValued: true,
		version:     DefaultVersion,
		now:         time.Now,
		logger:      zap.NewNop(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Generate builds a validated catalog from snap.
func (g *Generator) Generate(snap *ontology.Snapshot) (*catalog.Catalog, error) {
	b := &build{Generator: g, snap: snap}

	b.propertyIntents()
	b.compositeIntents()

	c := catalog.New(g.version, g.now().UTC().Format(time.RFC3339), b.intents)

	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("generated catalog: %w", err)
	}

	g.logger.Info("Generated intent catalog",
		zap.Int("intents", c.Len()),
		zap.Int("property", b.property),
		zap.Int("composite", b.composite),
		zap.String("locale", g.phrases.Locale))

	return c, nil
}

// build is the state of one Generate call.
type build struct {
	*Generator
	snap *ontology.Snapshot

	intents   []*catalog.Intent
	property  int
	composite int
}

func (b *build) nextID() string {
	return fmt.Sprintf("intent_%d", len(b.intents)+1)
}

// synonyms returns the declared synonyms of name, or its words.
func (b *build) synonyms(name string) []string {
	if syns := b.snap.Synonyms[name]; len(syns) > 0 {
		return syns
	}

	return []string{Words(name)}
}

func (b *build) propertyIntents() {
	for _, lp := range b.snap.NodeProperties {
		props := slices.Clone(lp.Properties)
		slices.SortStableFunc(props, func(x, y string) int {
			return cmp.Compare(b.snap.Property(x).Priority, b.snap.Property(y).Priority)
		})

		for _, prop := range head(props, PropertiesPerLabel) {
			b.intents = append(b.intents, b.propertyIntent(lp.Label, prop))
			b.property++
		}
	}
}

func (b *build) propertyIntent(label, prop string) *catalog.Intent {
	labelSyns := b.synonyms(label)
	propSyns := b.synonyms(prop)
	labelLower := lowerAll(labelSyns)
	propLower := lowerAll(propSyns)

	md := b.snap.Property(prop)

	// Metadata examples are prepended one at a time, so they lead in reverse.
	examples := slices.Clone(md.Examples)
	slices.Reverse(examples)

	for _, l := range head(labelLower, synonymFanOut) {
		for _, p := range head(propLower, synonymFanOut) {
			examples = append(examples, expand(b.phrases.Property, l, p)...)
		}
	}

	for _, l := range head(labelLower, 1) {
		examples = append(examples, expand(b.phrases.ShortLabel, l)...)
	}

	for _, p := range head(propLower, 1) {
		examples = append(examples, expand(b.phrases.ShortProperty, p)...)
	}

	category := Slugify(label, "search")
	template := fmt.Sprintf("MATCH (n:%s) WHERE %s RETURN n",
		label, WhereClause("n", prop, md.NormalizationType, b.multiValued))

	return &catalog.Intent{
		ID:          b.nextID(),
		Category:    category,
		Description: fmt.Sprintf(b.phrases.PropertyDescription, labelSyns[0], propSyns[0]),
		EntityType:  label,
		Property:    prop,
		Examples:    head(examples, MaxExamples),
		Template:    template,
		Steps:       catalog.PropertySteps,
		EntityKinds: catalog.InferKinds(label, prop, category),
	}
}

type compositeKey struct {
	nodes    string
	property string
}

func (b *build) compositeIntents() {
	graph := metagraph.Build(b.snap.Edges, nil)
	edges := metagraph.NewEdgeSet(b.snap.Edges)
	seen := make(map[compositeKey]bool)

	for _, start := range graph.Labels() {
		paths := graph.ShortestPaths(start, b.maxDepth)

		for _, path := range paths.All() {
			endProps, ok := b.snap.PropertiesOf(path.End())
			if !ok || len(endProps) == 0 {
				continue
			}

			for _, prop := range b.selectProperties(path.End(), endProps) {
				key := compositeKey{nodes: strings.Join(path.Nodes, "\x00"), property: prop}
				if seen[key] {
					continue
				}

				seen[key] = true

				b.intents = append(b.intents, b.compositeIntent(path, prop, edges))
				b.composite++
			}
		}
	}
}

// selectProperties picks the first observed property of a label plus every
// important property the label actually has.
func (b *build) selectProperties(label string, props []string) []string {
	selected := []string{props[0]}

	for _, imp := range b.snap.Class(label).ImportantProperties {
		if slices.Contains(props, imp) && !slices.Contains(selected, imp) {
			selected = append(selected, imp)
		}
	}

	return selected
}

func (b *build) compositeIntent(path metagraph.Path, prop string, edges metagraph.EdgeSet) *catalog.Intent {
	start, end := path.Nodes[0], path.End()

	startSyns := b.synonyms(start)
	endSyns := b.synonyms(end)
	propSyns := b.synonyms(prop)
	startLower := lowerAll(startSyns)
	propLower := lowerAll(propSyns)

	examples := slices.Concat(b.snap.Class(start).CompositeExamples, b.snap.Class(end).CompositeExamples)
	slices.Reverse(examples)

	for _, s := range head(startLower, synonymFanOut) {
		for _, e := range head(lowerAll(endSyns), synonymFanOut) {
			for _, p := range head(propLower, 1) {
				examples = append(examples, expand(b.phrases.Composite, s, e, p)...)
			}
		}
	}

	maxExamples := MaxCompositeExamples

	if len(path.Nodes) == threeNodePathLength {
		maxExamples = MaxExamples
		middle := lowerAll(b.synonyms(path.Nodes[1]))

		for _, s := range head(startLower, synonymFanOut) {
			for _, m := range head(middle, middleSynonymFanOut) {
				for _, p := range head(propLower, 1) {
					examples = append(examples, expand(b.phrases.ThreeNode, s, m, p)...)
				}
			}
		}
	}

	category := Slugify(start, end, "search")
	where := WhereClause("end", prop, b.snap.Property(prop).NormalizationType, b.multiValued)
	template := fmt.Sprintf("MATCH %s WHERE %s RETURN start as %s", Pattern(path, edges), where, catalog.ResultAlias)

	return &catalog.Intent{
		ID:          b.nextID(),
		Category:    category,
		Description: fmt.Sprintf(b.phrases.CompositeDescription, startSyns[0], endSyns[0], propSyns[0]),
		PathNodes:   slices.Clone(path.Nodes),
		PathRels:    slices.Clone(path.Rels),
		Property:    prop,
		Examples:    head(examples, maxExamples),
		Template:    template,
		Steps:       catalog.CompositeSteps,
		EntityKinds: catalog.InferKinds("", prop, category),
	}
}
