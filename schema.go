package graphplan

import "fmt"

// NormalizationType is the comparison strategy declared for a property in the
// ontology. It decides the shape of the WHERE clause a template uses.
type NormalizationType string

// Normalization types.
const (
	NormalizeNumeric      NormalizationType = "numeric"       // digits only
	NormalizeAlphanumeric NormalizationType = "alphanumeric"  // hyphens and spaces removed
	NormalizeTextContains NormalizationType = "text_contains" // case-insensitive substring
	NormalizeText         NormalizationType = "text"          // exact equality
)

// ParseNormalizationType maps a stored string to a NormalizationType.
// Unknown and empty values fall back to NormalizeText.
func ParseNormalizationType(s string) NormalizationType {
	switch NormalizationType(s) {
	case NormalizeNumeric, NormalizeAlphanumeric, NormalizeTextContains:
		return NormalizationType(s)
	default:
		return NormalizeText
	}
}

// Property priorities. Lower numbers sort first.
const (
	HighestPriority = 1
	LowestPriority  = 3
)

// PropertyMetadata is the ontology metadata attached to a datatype property.
type PropertyMetadata struct {
	NormalizationType NormalizationType `json:"normalizationType" yaml:"normalization_type"`
	Priority          int               `json:"priority"          yaml:"priority"`
	Examples          []string          `json:"examples"          yaml:"examples,omitempty"`
}

// DefaultPropertyMetadata is used for properties the ontology says nothing about.
func DefaultPropertyMetadata() PropertyMetadata {
	return PropertyMetadata{
		NormalizationType: NormalizeText,
		Priority:          LowestPriority,
	}
}

// ClassMetadata is the ontology metadata attached to a class (node label).
type ClassMetadata struct {
	ImportantProperties []string `json:"importantProperties" yaml:"important_properties,omitempty"`
	CompositeExamples   []string `json:"compositeExamples"   yaml:"composite_examples,omitempty"`
}

// SchemaEdge is one directed (fromLabel, relType, toLabel) triple observed in
// the graph.
type SchemaEdge struct {
	From string `json:"from"`
	Rel  string `json:"rel"`
	To   string `json:"to"`
}

func (e SchemaEdge) String() string {
	return fmt.Sprintf("(%s)-[:%s]->(%s)", e.From, e.Rel, e.To)
}

// LabelProperties lists the properties observed on one label, in discovery order.
type LabelProperties struct {
	Label      string   `json:"label"`
	Properties []string `json:"properties"`
}
