package ontology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rlch/graphplan"
)

// column returns the raw value of a column, or nil when it is absent or null.
func column(row graphplan.Row, key string) any {
	v, ok := row.Get(key)
	if !ok {
		return nil
	}

	switch v.Kind {
	case graphplan.ValueMap:
		return v.Map
	case graphplan.ValueEntity:
		return v.Entity.Props
	default:
		return v.Raw
	}
}

func stringColumn(row graphplan.Row, key string) string {
	switch s := column(row, key).(type) {
	case string:
		return s
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}

// splitList normalizes a stored list value. Strings are split on sep; lists
// have each string element split on sep. Parts are trimmed, empty parts are
// dropped and order is kept.
func splitList(v any, sep string) []string {
	out := []string{}

	add := func(s string) {
		for _, part := range strings.Split(s, sep) {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}

	switch vv := v.(type) {
	case string:
		add(vv)
	case []string:
		for _, s := range vv {
			add(s)
		}
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}

	return out
}

// priority coerces a stored priority. Missing, zero and unparseable values
// become the lowest priority.
func priority(v any) int {
	var p int

	switch vv := v.(type) {
	case int64:
		p = int(vv)
	case int:
		p = vv
	case float64:
		p = int(vv)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(vv), 64)
		if err == nil {
			p = int(n)
		}
	case []any:
		if len(vv) > 0 {
			return priority(vv[0])
		}
	}

	if p == 0 {
		return graphplan.LowestPriority
	}

	return p
}

// firstString returns v when it is a string, or the first string element of a
// list (multi-valued properties imported as arrays).
func firstString(v any) string {
	switch vv := v.(type) {
	case string:
		return vv
	case []any:
		for _, item := range vv {
			if s, ok := item.(string); ok {
				return s
			}
		}
	case []string:
		if len(vv) > 0 {
			return vv[0]
		}
	}

	return ""
}

// toStrings returns the string elements of a list value. A single string is a
// one-element list.
func toStrings(v any) []string {
	switch vv := v.(type) {
	case string:
		return []string{vv}
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, item := range vv {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}

		return out
	}

	return nil
}
