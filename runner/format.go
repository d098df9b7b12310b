package runner

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rlch/graphplan"
)

// ErrUnknownFormat is returned for an output format other than text or json.
var ErrUnknownFormat = errors.New("unknown output format")

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// hiddenFields are technical ontology fields left out of text output.
var hiddenFields = map[string]bool{
	"uri":       true,
	"localName": true,
}

// Formatter writes result records.
type Formatter interface {
	Format(w io.Writer, records []graphplan.Record) error
}

// NewFormatter returns the formatter for format. Text output is styled with
// styles; nil means plain.
func NewFormatter(format string, styles *Styles) (Formatter, error) { //nolint:ireturn
	switch format {
	case "", FormatText:
		if styles == nil {
			styles = PlainStyles()
		}

		return &TextFormatter{styles: styles}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// TextFormatter renders records as a numbered list of "key: value" lines,
// keys sorted.
type TextFormatter struct {
	styles *Styles
}

// NewTextFormatter creates a text formatter.
func NewTextFormatter(styles *Styles) *TextFormatter {
	if styles == nil {
		styles = PlainStyles()
	}

	return &TextFormatter{styles: styles}
}

// Format writes records to w.
func (f *TextFormatter) Format(w io.Writer, records []graphplan.Record) error {
	_, err := io.WriteString(w, f.Render(records))

	return err
}

// Render returns the text for records.
func (f *TextFormatter) Render(records []graphplan.Record) string {
	s := f.styles

	if len(records) == 0 {
		return s.Dim.Render("No data found.") + "\n"
	}

	var b strings.Builder

	for i, rec := range records {
		b.WriteString(s.Index.Render(fmt.Sprintf("%d:", i+1)))
		b.WriteString("\n")

		data := unwrap(rec)

		for _, key := range sortedKeys(data) {
			if hiddenFields[key] {
				continue
			}

			fmt.Fprintf(&b, "  %s %s %s\n",
				s.Dim.Render(s.SymbolBullet),
				s.Key.Render(prettyKey(key)+":"),
				s.Value.Render(formatValue(data[key])))
		}
	}

	return b.String()
}

// unwrap returns the inner mapping of a record holding a single nested map.
func unwrap(rec graphplan.Record) map[string]any {
	if len(rec) == 1 {
		for _, v := range rec {
			if inner, ok := v.(map[string]any); ok {
				return inner
			}
		}
	}

	return rec
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

func prettyKey(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

// formatValue shows a single-element list as its element and longer lists
// joined by commas.
func formatValue(v any) string {
	switch list := v.(type) {
	case []any:
		if len(list) == 1 {
			return fmt.Sprint(list[0])
		}

		parts := make([]string, len(list))
		for i, e := range list {
			parts[i] = fmt.Sprint(e)
		}

		return strings.Join(parts, ", ")
	case []string:
		return strings.Join(list, ", ")
	default:
		return fmt.Sprint(v)
	}
}

// JSONFormatter writes records as an indented JSON array.
type JSONFormatter struct{}

// Format writes records to w.
func (f *JSONFormatter) Format(w io.Writer, records []graphplan.Record) error {
	if records == nil {
		records = []graphplan.Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	err := enc.Encode(records)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}

	return nil
}
