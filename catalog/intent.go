// Package catalog holds the generated intent catalog: the query templates the
// planner classifies against, and their persisted JSON form.
package catalog

import (
	"regexp"
	"strings"
)

// ValueParam is the single parameter every template binds.
const ValueParam = "value"

// ResultAlias is the column every template returns.
const ResultAlias = "resultado"

// Step counts.
const (
	PropertySteps  = 1
	CompositeSteps = 2
)

// Intent is one classification target: a pre-built query template plus the
// example phrasings used to recognise it. Intents are immutable once a catalog
// is loaded.
type Intent struct {
	ID          string       `json:"intent_id"`
	Category    string       `json:"category"`
	Description string       `json:"description"`
	EntityType  string       `json:"entity_type,omitempty"`
	PathNodes   []string     `json:"path_nodes,omitempty"`
	PathRels    []string     `json:"path_rels,omitempty"`
	Property    string       `json:"property"`
	Examples    []string     `json:"examples"`
	Template    string       `json:"cypher_template"`
	Steps       int          `json:"steps"`
	EntityKinds []EntityKind `json:"entity_kinds,omitempty"`
}

// IsComposite reports whether the intent traverses a multi-hop path.
func (i *Intent) IsComposite() bool {
	return len(i.PathNodes) > 0
}

// Kinds returns the entity kinds of the intent. Catalogs written before kinds
// were stored get them inferred from the intent fields.
func (i *Intent) Kinds() []EntityKind {
	if i.EntityKinds != nil {
		return i.EntityKinds
	}

	return InferKinds(i.EntityType, i.Property, i.Category)
}

var paramRef = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)

// Params returns the distinct parameter names referenced by a template, in
// order of first use.
func Params(template string) []string {
	var names []string

	seen := make(map[string]bool)

	for _, m := range paramRef.FindAllStringSubmatch(template, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}

	return names
}

// EntityKind tags the kind of literal an intent expects to bind. The
// extractor dispatches its typed recognizers on these tags.
type EntityKind string

// Entity kinds, in the order the extractor tries them.
const (
	KindNationalID EntityKind = "national_id"
	KindPlate      EntityKind = "plate"
	KindPhone      EntityKind = "phone"
	KindDevice     EntityKind = "device"
)

// KindOrder is the evaluation order of typed recognizers.
var KindOrder = []EntityKind{KindNationalID, KindPlate, KindPhone, KindDevice}

// InferKinds derives the entity kinds of an intent from its entity type,
// property and category. It runs once at generation time.
func InferKinds(entityType, property, category string) []EntityKind {
	et := strings.ToLower(entityType)
	prop := strings.ToLower(property)
	cat := strings.ToLower(category)

	signals := map[EntityKind]bool{
		KindNationalID: strings.Contains(prop, "cpf") || strings.Contains(et, "person"),
		KindPlate: strings.Contains(et, "vehicle") || strings.Contains(et, "plate") ||
			strings.Contains(prop, "plate"),
		KindPhone: strings.Contains(et, "phone") || strings.Contains(et, "telephone") ||
			strings.Contains(cat, "whatsapp"),
		KindDevice: strings.Contains(prop, "imei") || strings.Contains(et, "device"),
	}

	kinds := []EntityKind{}

	for _, k := range KindOrder {
		if signals[k] {
			kinds = append(kinds, k)
		}
	}

	return kinds
}
