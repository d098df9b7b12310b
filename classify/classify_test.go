package classify_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/classify"
	"github.com/rlch/graphplan/embed"
)

// keywordEmbedder counts vocabulary words; component i is the number of
// occurrences of vocab[i].
type keywordEmbedder struct {
	vocab []string
	calls atomic.Int32
	err   error
}

func (k *keywordEmbedder) Model() string { return "keywords" }

func (k *keywordEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	k.calls.Add(1)

	if k.err != nil {
		return nil, k.err
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(k.vocab))
		for _, w := range strings.Fields(strings.ToLower(t)) {
			for j, kw := range k.vocab {
				if w == kw {
					v[j]++
				}
			}
		}

		out[i] = v
	}

	return out, nil
}

func testCatalog() *catalog.Catalog {
	return catalog.New("v", "", []*catalog.Intent{
		{ID: "intent_1", Examples: []string{"placa <VALOR>", "buscar placa"}},
		{ID: "intent_2", Examples: []string{"cpf <VALOR>", "pessoa cpf"}},
		{ID: "intent_3", Examples: []string{"telefone <VALOR>"}},
		{ID: "intent_4", Examples: []string{"telefone <VALOR>"}},
		{ID: "intent_5"},
	})
}

func newEmbedder() *keywordEmbedder {
	return &keywordEmbedder{vocab: []string{"placa", "cpf", "pessoa", "telefone", "buscar"}}
}

func ids(matches []classify.Match) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Intent.ID
	}

	return out
}

func TestClassify_Ranking(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c, err := classify.New(ctx, testCatalog(), newEmbedder(), classify.WithConcurrency(2))
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())

	got, err := c.Classify(ctx, "qual a placa ABC1234", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "intent_1", got[0].Intent.ID)
	assert.Greater(t, got[0].Score, got[1].Score)

	all, err := c.Classify(ctx, "cpf", 100)
	require.NoError(t, err)
	assert.Len(t, all, 5, "topK is clamped to the catalog size")
	assert.Equal(t, "intent_2", all[0].Intent.ID)

	for i := 1; i < len(all); i++ {
		assert.GreaterOrEqual(t, all[i-1].Score, all[i].Score)
	}
}

func TestClassify_TiesKeepCatalogOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c, err := classify.New(ctx, testCatalog(), newEmbedder())
	require.NoError(t, err)

	got, err := c.Classify(ctx, "telefone", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"intent_3", "intent_4"}, ids(got))
	assert.InDelta(t, got[0].Score, got[1].Score, 1e-12)
}

func TestClassify_ZeroVectors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c, err := classify.New(ctx, testCatalog(), newEmbedder())
	require.NoError(t, err)

	// No vocabulary word: the query vector is zero, every score is 0 and
	// ordering falls back to the catalog.
	got, err := c.Classify(ctx, "nada a ver", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "intent_1", got[0].Intent.ID)
	assert.Zero(t, got[0].Score)
}

func TestClassify_EmptyCatalog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	c, err := classify.New(ctx, catalog.Empty(), newEmbedder())
	require.NoError(t, err)

	_, err = c.Classify(ctx, "placa", 1)
	assert.ErrorIs(t, err, graphplan.ErrNoIntents)
}

func TestClassifier_Catalog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cat := testCatalog()

	c, err := classify.New(ctx, cat, newEmbedder())
	require.NoError(t, err)
	assert.Same(t, cat, c.Catalog())

	// Every intent Classify returns belongs to that catalog.
	got, err := c.Classify(ctx, "buscar placa", 5)
	require.NoError(t, err)

	for _, m := range got {
		in, ok := c.Catalog().Lookup(m.Intent.ID)
		require.True(t, ok, m.Intent.ID)
		assert.Same(t, in, m.Intent)
	}

	nilCat, err := classify.New(ctx, nil, newEmbedder())
	require.NoError(t, err)
	assert.Zero(t, nilCat.Catalog().Len())
}

func TestNew_EmbedderError(t *testing.T) {
	t.Parallel()

	boom := errors.New("ollama down")
	e := newEmbedder()
	e.err = boom

	_, err := classify.New(context.Background(), testCatalog(), e)
	assert.ErrorIs(t, err, boom)
}

func TestNew_UsesCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	cache, err := embed.OpenBadgerCache("", 0, nil)
	require.NoError(t, err)

	t.Cleanup(func() { _ = cache.Close() })

	first := newEmbedder()
	_, err = classify.New(ctx, testCatalog(), first, classify.WithCache(cache))
	require.NoError(t, err)
	assert.Equal(t, int32(4), first.calls.Load(), "one call per intent with examples")

	second := newEmbedder()
	c, err := classify.New(ctx, testCatalog(), second, classify.WithCache(cache))
	require.NoError(t, err)
	assert.Zero(t, second.calls.Load(), "vectors come from the cache")

	got, err := c.Classify(ctx, "placa", 1)
	require.NoError(t, err)
	assert.Equal(t, "intent_1", got[0].Intent.ID)
}

func TestCorpusHash(t *testing.T) {
	t.Parallel()

	intents := testCatalog().Intents

	a := classify.CorpusHash("m", intents)
	assert.Equal(t, a, classify.CorpusHash("m", intents))
	assert.NotEqual(t, a, classify.CorpusHash("other", intents))
	assert.NotEqual(t, a, classify.CorpusHash("m", intents[:2]))
}
