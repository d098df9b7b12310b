package runner

import (
	"errors"
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/rlch/graphplan"
)

// ErrExprNotBool is returned when a filter expression does not yield a boolean.
var ErrExprNotBool = errors.New("expression did not return a boolean")

// Filter is a compiled boolean expression over result records, e.g.
// `city == "Recife" && age > 30`. Fields a record lacks evaluate to nil.
type Filter struct {
	source  string
	program *vm.Program
}

// CompileFilter compiles source. An empty source yields a nil filter, which
// matches everything.
func CompileFilter(source string) (*Filter, error) {
	if strings.TrimSpace(source) == "" {
		return nil, nil //nolint:nilnil
	}

	program, err := expr.Compile(source, expr.AllowUndefinedVariables(), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile filter %q: %w", source, err)
	}

	return &Filter{source: source, program: program}, nil
}

// String returns the filter source.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}

	return f.source
}

// Match reports whether rec satisfies the filter.
func (f *Filter) Match(rec graphplan.Record) (bool, error) {
	if f == nil {
		return true, nil
	}

	output, err := expr.Run(f.program, map[string]any(rec))
	if err != nil {
		return false, fmt.Errorf("evaluate filter %q: %w", f.source, err)
	}

	passed, ok := output.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q returned %T", ErrExprNotBool, f.source, output)
	}

	return passed, nil
}
