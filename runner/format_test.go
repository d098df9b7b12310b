//nolint:testpackage // Tests need access to internal types
package runner

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/rlch/graphplan"
)

func TestTextFormatter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := NewTextFormatter(nil)

	err := f.Format(&buf, []graphplan.Record{
		{"name": "Maria Silva", "cpf": []any{"12345678900"}, "uri": "http://x/1", "birth_date": "1980-01-01"},
		{"resultado": map[string]any{"plate": []any{"ABC1234", "XYZ9K88"}, "localName": "v1"}},
		{"raw": "3"},
	})
	if err != nil {
		t.Fatal(err)
	}

	want := `1:
  - birth date: 1980-01-01
  - cpf: 12345678900
  - name: Maria Silva
2:
  - plate: ABC1234, XYZ9K88
3:
  - raw: 3
`
	if got := buf.String(); got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestTextFormatter_Empty(t *testing.T) {
	t.Parallel()

	if got, want := NewTextFormatter(nil).Render(nil), "No data found.\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestJSONFormatter_Format(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	f := &JSONFormatter{}

	err := f.Format(&buf, []graphplan.Record{{"name": "João", "age": int64(41)}})
	if err != nil {
		t.Fatal(err)
	}

	var got []map[string]any

	err = json.Unmarshal(buf.Bytes(), &got)
	if err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	want := []map[string]any{{"name": "João", "age": float64(41)}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Format() mismatch (-want +got):\n%s", diff)
	}

	buf.Reset()

	_ = f.Format(&buf, nil)

	if got := buf.String(); got != "[]\n" {
		t.Errorf("empty records = %q, want %q", got, "[]\n")
	}
}

func TestNewFormatter(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"", FormatText, FormatJSON} {
		if _, err := NewFormatter(name, nil); err != nil {
			t.Errorf("NewFormatter(%q) error: %v", name, err)
		}
	}

	_, err := NewFormatter("yaml", nil)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("NewFormatter(yaml) error = %v, want ErrUnknownFormat", err)
	}
}
