// Package ontology reads the metadata an imported OWL ontology leaves in the
// graph store: property and class annotations, synonyms, the label-level
// schema and the properties observed on each label.
//
// The loader is read-only. Store errors are returned wrapped and never retried.
package ontology

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/metagraph"
)

// Queries issued by the loader.
const (
	propertyMetadataQuery = `MATCH (p:DatatypeProperty)
RETURN
    p.localName AS propName,
    p.normalizationType AS normType,
    p.propertyPriority AS priority,
    p.examplePattern AS examplePattern`

	classMetadataQuery = `MATCH (c:Class)
WHERE c.localName IS NOT NULL
RETURN
    c.localName AS className,
    c.hasImportantProperty AS importantProps,
    c.compositeExamplePattern AS compositePattern`

	synonymsQuery = `MATCH (n:Resource)
WHERE n.synonyms_pt_clean IS NOT NULL
RETURN n.localName AS className, n.synonyms_pt_clean AS synonyms`

	schemaEdgesQuery = `MATCH (a)-[r]->(b)
WITH labels(a) AS fromLabels, type(r) AS relType, labels(b) AS toLabels
UNWIND fromLabels AS fromLabel
UNWIND toLabels AS toLabel
WITH fromLabel, relType, toLabel
WHERE NOT fromLabel IN $ignored
  AND NOT toLabel IN $ignored
RETURN DISTINCT fromLabel, relType, toLabel`

	nodePropertiesQuery = `CALL db.schema.nodeTypeProperties()
YIELD nodeLabels, propertyName
RETURN nodeLabels, propertyName`
)

// IgnoredProperties are import bookkeeping properties that never become
// searchable fields.
var IgnoredProperties = map[string]bool{
	"_applyNeo4jNaming":      true,
	"_classLabel":            true,
	"_classNamePropName":     true,
	"_dataTypePropertyLabel": true,
	"_domainRel":             true,
	"_handleMultival":        true,
	"_handleRDFTypes":        true,
	"_handleVocabUris":       true,
	"_keepCustomDataTypes":   true,
	"_keepLang":              true,
	"_objectPropertyLabel":   true,
	"_rangeRel":              true,
	"_relNamePropName":       true,
	"_subClassOfRel":         true,
	"_subPropertyOfRel":      true,
	"uri":                    true,
	"localName":              true,
}

// IgnoredPropertyPrefixes are prefixes of import bookkeeping properties.
var IgnoredPropertyPrefixes = []string{
	"_applyNeo4j", "_class", "_dataTypePropertyLabel", "_domainRel",
	"_handle", "_keep", "_objectPropertyLabel", "_rangeRel",
	"_relNamePropName", "_subClassOfRel", "_subPropertyOfRel",
	"owl_", "rdf_", "rdfs_", "xsd",
}

// Snapshot is everything the generator needs, read in one pass.
type Snapshot struct {
	Properties     map[string]graphplan.PropertyMetadata
	Classes        map[string]graphplan.ClassMetadata
	Synonyms       map[string][]string
	Edges          []graphplan.SchemaEdge
	NodeProperties []graphplan.LabelProperties
}

// Property returns the metadata of prop, or the defaults.
func (s *Snapshot) Property(prop string) graphplan.PropertyMetadata {
	if md, ok := s.Properties[prop]; ok {
		return md
	}

	return graphplan.DefaultPropertyMetadata()
}

// Class returns the metadata of label, or the zero value.
func (s *Snapshot) Class(label string) graphplan.ClassMetadata {
	return s.Classes[label]
}

// PropertiesOf returns the properties observed on label.
func (s *Snapshot) PropertiesOf(label string) ([]string, bool) {
	for _, lp := range s.NodeProperties {
		if lp.Label == label {
			return lp.Properties, true
		}
	}

	return nil, false
}

// Loader reads ontology metadata through a dialect.
type Loader struct {
	dialect graphplan.Dialect
	ignored map[string]bool
	logger  *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithIgnoredLabels replaces the ignored label set.
func WithIgnoredLabels(labels map[string]bool) Option {
	return func(l *Loader) {
		l.ignored = labels
	}
}

// NewLoader creates a loader reading through d.
func NewLoader(d graphplan.Dialect, opts ...Option) *Loader {
	l := &Loader{
		dialect: d,
		ignored: metagraph.IgnoredLabels,
		logger:  zap.NewNop(),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Load runs every read and bundles the results.
func (l *Loader) Load(ctx context.Context) (*Snapshot, error) {
	props, err := l.PropertyMetadata(ctx)
	if err != nil {
		return nil, err
	}

	classes, err := l.ClassMetadata(ctx)
	if err != nil {
		return nil, err
	}

	synonyms, err := l.Synonyms(ctx)
	if err != nil {
		return nil, err
	}

	edges, err := l.SchemaEdges(ctx)
	if err != nil {
		return nil, err
	}

	nodeProps, err := l.NodeProperties(ctx)
	if err != nil {
		return nil, err
	}

	l.logger.Info("Loaded ontology metadata",
		zap.Int("properties", len(props)),
		zap.Int("classes", len(classes)),
		zap.Int("synonyms", len(synonyms)),
		zap.Int("edges", len(edges)),
		zap.Int("labels", len(nodeProps)))

	return &Snapshot{
		Properties:     props,
		Classes:        classes,
		Synonyms:       synonyms,
		Edges:          edges,
		NodeProperties: nodeProps,
	}, nil
}

// PropertyMetadata reads the annotations of every datatype property. Rows
// without a name are skipped.
func (l *Loader) PropertyMetadata(ctx context.Context) (map[string]graphplan.PropertyMetadata, error) {
	rows, err := l.dialect.Execute(ctx, propertyMetadataQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("ontology: load property metadata: %w", err)
	}

	out := make(map[string]graphplan.PropertyMetadata, len(rows))

	for _, row := range rows {
		name := stringColumn(row, "propName")
		if name == "" {
			continue
		}

		out[name] = graphplan.PropertyMetadata{
			NormalizationType: graphplan.ParseNormalizationType(firstString(column(row, "normType"))),
			Priority:          priority(column(row, "priority")),
			Examples:          splitList(column(row, "examplePattern"), "|"),
		}
	}

	return out, nil
}

// ClassMetadata reads the annotations of every named class. Important
// properties are comma separated, composite examples pipe separated; both may
// be stored as strings or lists.
func (l *Loader) ClassMetadata(ctx context.Context) (map[string]graphplan.ClassMetadata, error) {
	rows, err := l.dialect.Execute(ctx, classMetadataQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("ontology: load class metadata: %w", err)
	}

	out := make(map[string]graphplan.ClassMetadata, len(rows))

	for _, row := range rows {
		name := stringColumn(row, "className")
		if name == "" {
			continue
		}

		out[name] = graphplan.ClassMetadata{
			ImportantProperties: splitList(column(row, "importantProps"), ","),
			CompositeExamples:   splitList(column(row, "compositePattern"), "|"),
		}
	}

	return out, nil
}

// Synonyms reads the comma separated synonym lists attached to labels and
// properties.
func (l *Loader) Synonyms(ctx context.Context) (map[string][]string, error) {
	rows, err := l.dialect.Execute(ctx, synonymsQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("ontology: load synonyms: %w", err)
	}

	out := make(map[string][]string, len(rows))

	for _, row := range rows {
		name := stringColumn(row, "className")
		if name == "" {
			continue
		}

		syns := splitList(column(row, "synonyms"), ",")
		if len(syns) > 0 {
			out[name] = syns
		}
	}

	return out, nil
}

// SchemaEdges reads the distinct label-level triples of the graph. Ignored
// labels are filtered by the store and again here.
func (l *Loader) SchemaEdges(ctx context.Context) ([]graphplan.SchemaEdge, error) {
	ignored := make([]string, 0, len(l.ignored))
	for label := range l.ignored {
		ignored = append(ignored, label)
	}

	slices.Sort(ignored)

	rows, err := l.dialect.Execute(ctx, schemaEdgesQuery, map[string]any{"ignored": ignored})
	if err != nil {
		return nil, fmt.Errorf("ontology: load schema edges: %w", err)
	}

	edges := make([]graphplan.SchemaEdge, 0, len(rows))
	seen := make(map[graphplan.SchemaEdge]bool, len(rows))

	for _, row := range rows {
		e := graphplan.SchemaEdge{
			From: stringColumn(row, "fromLabel"),
			Rel:  stringColumn(row, "relType"),
			To:   stringColumn(row, "toLabel"),
		}

		if e.From == "" || e.To == "" || l.ignored[e.From] || l.ignored[e.To] || seen[e] {
			continue
		}

		seen[e] = true
		edges = append(edges, e)
	}

	return edges, nil
}

// NodeProperties reads the properties observed on each label, in the order
// the store reports them, skipping ignored labels and bookkeeping properties.
func (l *Loader) NodeProperties(ctx context.Context) ([]graphplan.LabelProperties, error) {
	rows, err := l.dialect.Execute(ctx, nodePropertiesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("ontology: load node properties: %w", err)
	}

	var out []graphplan.LabelProperties

	index := make(map[string]int)

	for _, row := range rows {
		prop := stringColumn(row, "propertyName")
		if ignoredProperty(prop) {
			continue
		}

		for _, label := range toStrings(column(row, "nodeLabels")) {
			if l.ignored[label] {
				continue
			}

			i, ok := index[label]
			if !ok {
				i = len(out)
				index[label] = i
				out = append(out, graphplan.LabelProperties{Label: label})
			}

			if !slices.Contains(out[i].Properties, prop) {
				out[i].Properties = append(out[i].Properties, prop)
			}
		}
	}

	return out, nil
}

func ignoredProperty(prop string) bool {
	if prop == "" || IgnoredProperties[prop] {
		return true
	}

	for _, pfx := range IgnoredPropertyPrefixes {
		if strings.HasPrefix(prop, pfx) {
			return true
		}
	}

	return false
}
