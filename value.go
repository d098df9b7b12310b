package graphplan

import "fmt"

// ValueKind tags the shape of a column value returned by a dialect.
type ValueKind int

// Value kinds.
const (
	// ValueRaw is a scalar, list or anything without a property mapping.
	ValueRaw ValueKind = iota
	// ValueEntity is a node or relationship exposing a property mapping.
	ValueEntity
	// ValueMap is a plain mapping (e.g. a map projection).
	ValueMap
)

func (k ValueKind) String() string {
	switch k {
	case ValueEntity:
		return "entity"
	case ValueMap:
		return "map"
	default:
		return "raw"
	}
}

// Entity is a graph element as seen through the dialect boundary.
type Entity struct {
	ID     string
	Labels []string
	Props  map[string]any
}

// Value is a tagged union produced by dialects. Exactly one of Entity, Map or
// Raw is meaningful, selected by Kind.
type Value struct {
	Kind   ValueKind
	Entity *Entity
	Map    map[string]any
	Raw    any
}

// EntityValue wraps a graph element.
func EntityValue(e Entity) Value {
	return Value{Kind: ValueEntity, Entity: &e}
}

// MapValue wraps a plain mapping.
func MapValue(m map[string]any) Value {
	return Value{Kind: ValueMap, Map: m}
}

// RawValue wraps anything else.
func RawValue(v any) Value {
	return Value{Kind: ValueRaw, Raw: v}
}

// IsNull reports whether the value is a raw null.
func (v Value) IsNull() bool {
	return v.Kind == ValueRaw && v.Raw == nil
}

// Record flattens the value into a field mapping: entities become their
// properties, maps pass through, and anything else is wrapped under "raw".
func (v Value) Record() Record {
	switch v.Kind {
	case ValueEntity:
		rec := make(Record, len(v.Entity.Props))
		for k, p := range v.Entity.Props {
			rec[k] = p
		}

		return rec
	case ValueMap:
		return Record(v.Map)
	default:
		return Record{"raw": fmt.Sprint(v.Raw)}
	}
}

// Row is one result row with its columns in query order.
type Row struct {
	Keys   []string
	Values []Value
}

// Get returns the value of the named column.
func (r Row) Get(key string) (Value, bool) {
	for i, k := range r.Keys {
		if k == key && i < len(r.Values) {
			return r.Values[i], true
		}
	}

	return Value{}, false
}

// Record is a flattened result record handed to callers.
type Record map[string]any
