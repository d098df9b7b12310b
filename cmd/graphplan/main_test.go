//nolint:testpackage
package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/classify"
	"github.com/rlch/graphplan/planner"
	"github.com/rlch/graphplan/runner"
)

func configFrom(t *testing.T, args ...string) *graphplan.Config {
	t.Helper()

	var cfg *graphplan.Config

	app := &cli.Command{
		Name:  "graphplan",
		Flags: globalFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			var err error

			cfg, err = loadConfig(cmd)

			return err
		},
	}

	require.NoError(t, app.Run(context.Background(), append([]string{"graphplan"}, args...)))

	return cfg
}

func TestLoadConfig_FileAndOverrides(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), ".graphplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
catalog: from-file.json
connection:
  uri: bolt://file:7687
planner:
  min_score: 0.5
`), 0o600))

	cfg := configFrom(t, "--config", path, "--uri", "bolt://flag:7687", "--embedder", "hash")

	assert.Equal(t, "from-file.json", cfg.Catalog)
	assert.Equal(t, "bolt://flag:7687", cfg.Connection.URI)
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.InDelta(t, 0.5, cfg.Planner.MinScore, 1e-9)
	// Keys absent from the file keep their defaults.
	assert.InDelta(t, 0.55, cfg.Planner.GraphThreshold, 1e-9)
	assert.Equal(t, 1, cfg.Planner.TopK)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Parallel()

	app := &cli.Command{
		Name:  "graphplan",
		Flags: globalFlags(),
		Action: func(_ context.Context, cmd *cli.Command) error {
			_, err := loadConfig(cmd)

			return err
		},
	}

	err := app.Run(context.Background(), []string{"graphplan", "--config", filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	_, err := newLogger("debug")
	require.NoError(t, err)

	_, err = newLogger("loud")
	assert.Error(t, err)
}

func TestEmbedder_Providers(t *testing.T) {
	t.Parallel()

	cfg := graphplan.DefaultConfig()
	e := &env{cfg: cfg}

	for _, provider := range []string{"ollama", "hash"} {
		cfg.Embedding.Provider = provider

		_, err := e.embedder()
		require.NoError(t, err, provider)
	}

	cfg.Embedding.Provider = "word2vec"

	_, err := e.embedder()
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestEnvPlanner_ReturnsClassifierCatalog(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.json")
	saved := catalog.New("5.2-metadata", "", []*catalog.Intent{
		{
			ID:          "intent_1",
			Description: "Search Vehicle by plate",
			Examples:    []string{"placa <VALOR>"},
			Template:    "MATCH (n:Vehicle) WHERE n.plate[0] = $value RETURN n AS resultado",
		},
		{
			ID:          "intent_2",
			Description: "Search Person by cpf",
			Examples:    []string{"cpf <VALOR>"},
			Template:    "MATCH (n:Person) WHERE n.cpf[0] = $value RETURN n AS resultado",
		},
	})
	require.NoError(t, saved.Save(path))

	cfg := graphplan.DefaultConfig()
	cfg.Catalog = path
	cfg.Embedding.Provider = "hash"

	e := &env{cfg: cfg, logger: zap.NewNop()}

	p, cat, err := e.planner(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, cat.Len())

	matches, err := p.Classify(context.Background(), "placa ABC1234", 2)
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, m := range matches {
		in, ok := cat.Lookup(m.Intent.ID)
		require.True(t, ok, m.Intent.ID)
		assert.Same(t, in, m.Intent)
	}
}

// fixedRanker returns the same ranking for every query and counts calls.
type fixedRanker struct {
	matches []classify.Match
	calls   int
}

func (f *fixedRanker) Classify(_ context.Context, _ string, topK int) ([]classify.Match, error) {
	f.calls++

	return f.matches[:min(topK, len(f.matches))], nil
}

// fakeStore answers every query with one record.
type fakeStore struct {
	queries []string
}

func (s *fakeStore) Name() string { return "fake" }

func (s *fakeStore) Close() error { return nil }

func (s *fakeStore) Execute(_ context.Context, query string, params map[string]any) ([]graphplan.Row, error) {
	s.queries = append(s.queries, query)

	return []graphplan.Row{{
		Keys:   []string{catalog.ResultAlias},
		Values: []graphplan.Value{graphplan.MapValue(map[string]any{"plate": params[catalog.ValueParam]})},
	}}, nil
}

func TestAskFunc(t *testing.T) {
	t.Parallel()

	intent := &catalog.Intent{
		ID:          "intent_1",
		Description: "Search Vehicle by plate",
		EntityType:  "Vehicle",
		Property:    "plate",
		Template:    "MATCH (n:Vehicle) WHERE n.plate[0] = $value RETURN n AS resultado",
	}
	cat := catalog.New("test", "", []*catalog.Intent{intent})

	tests := []struct {
		name        string
		score       float64
		wantNote    bool
		wantRecords []graphplan.Record
	}{
		{
			name:        "graph question",
			score:       0.9,
			wantRecords: []graphplan.Record{{"plate": "HHH8I88"}},
		},
		{
			name:     "at the threshold",
			score:    0.55,
			wantNote: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := &fakeStore{}
			ranker := &fixedRanker{matches: []classify.Match{{Intent: intent, Score: tt.score}}}
			p := planner.New(ranker)
			r := runner.New(runner.WithDialect(store), runner.WithCatalog(cat))

			got, err := askFunc(p, r)(context.Background(), "placa HHH8I88")
			require.NoError(t, err)
			assert.Equal(t, 1, ranker.calls, "each question is classified once")

			if tt.wantNote {
				assert.Nil(t, got.Plan)
				assert.Contains(t, got.Note, "0.55")
				assert.Empty(t, store.queries)

				return
			}

			require.NotNil(t, got.Plan)
			assert.Equal(t, "HHH8I88", got.Plan.Steps[0].Value)

			if diff := cmp.Diff(tt.wantRecords, got.Records); diff != "" {
				t.Errorf("records mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
