// Package classify ranks catalog intents against a query by cosine similarity
// between the query embedding and each intent's averaged example embedding.
package classify

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rlch/graphplan"
	"github.com/rlch/graphplan/catalog"
	"github.com/rlch/graphplan/embed"
)

// DefaultConcurrency bounds parallel embedding calls while building vectors.
const DefaultConcurrency = 8

// Match is one ranked intent.
type Match struct {
	Intent *catalog.Intent
	Score  float64
}

// Classifier holds one vector per intent. It is immutable after New and safe
// for concurrent use.
type Classifier struct {
	cat      *catalog.Catalog
	intents  []*catalog.Intent
	vectors  [][]float32
	embedder embed.Embedder
	logger   *zap.Logger
}

type options struct {
	concurrency int
	cache       embed.Cache
	logger      *zap.Logger
}

// Option configures New.
type Option func(*options)

// WithConcurrency bounds parallel embedding calls.
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithCache enables the persistent vector cache.
func WithCache(c embed.Cache) Option {
	return func(o *options) {
		o.cache = c
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New embeds the examples of every intent in cat and averages them into one
// vector per intent. Intents without examples get the zero vector and always
// score 0.
func New(ctx context.Context, cat *catalog.Catalog, e embed.Embedder, opts ...Option) (*Classifier, error) {
	o := options{concurrency: DefaultConcurrency, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Classifier{embedder: e, logger: o.logger}
	if cat == nil {
		cat = catalog.Empty()
	}

	c.cat = cat
	c.intents = cat.Intents

	key := CorpusHash(e.Model(), c.intents)

	if o.cache != nil {
		cached, err := o.cache.Load(ctx, key)
		if err != nil {
			o.logger.Warn("Vector cache load failed, embedding intents", zap.Error(err))
		} else if vecs, ok := c.fromCache(cached); ok {
			c.vectors = vecs
			o.logger.Info("Loaded intent vectors from cache", zap.Int("intents", len(vecs)))

			return c, nil
		}
	}

	c.vectors = make([][]float32, len(c.intents))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.concurrency, 1))

	for i, in := range c.intents {
		g.Go(func() error {
			if len(in.Examples) == 0 {
				c.vectors[i] = []float32{}

				return nil
			}

			vecs, err := e.Embed(gctx, in.Examples)
			if err != nil {
				return fmt.Errorf("embed examples of %s: %w", in.ID, err)
			}

			c.vectors[i] = embed.Mean(vecs)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("build intent vectors: %w", err)
	}

	o.logger.Info("Embedded intent examples",
		zap.Int("intents", len(c.intents)),
		zap.String("model", e.Model()))

	if o.cache != nil {
		err := o.cache.Save(ctx, key, c.toCache())
		if err != nil {
			o.logger.Warn("Vector cache save failed", zap.Error(err))
		}
	}

	return c, nil
}

func (c *Classifier) fromCache(cached map[string][]float32) ([][]float32, bool) {
	if len(cached) != len(c.intents) || len(cached) == 0 {
		return nil, false
	}

	vecs := make([][]float32, len(c.intents))

	for i, in := range c.intents {
		v, ok := cached[in.ID]
		if !ok {
			return nil, false
		}

		vecs[i] = v
	}

	return vecs, true
}

func (c *Classifier) toCache() map[string][]float32 {
	out := make(map[string][]float32, len(c.intents))
	for i, in := range c.intents {
		out[in.ID] = c.vectors[i]
	}

	return out
}

// Catalog returns the catalog the vectors were built from. Templates for the
// intents Classify returns must be looked up here.
func (c *Classifier) Catalog() *catalog.Catalog {
	return c.cat
}

// Len returns the number of intents.
func (c *Classifier) Len() int {
	return len(c.intents)
}

// Classify returns the min(topK, n) intents most similar to query, best
// first. Ties keep catalog order. A topK below 1 is treated as 1.
func (c *Classifier) Classify(ctx context.Context, query string, topK int) ([]Match, error) {
	if len(c.intents) == 0 {
		return nil, graphplan.NewError("classify.Classify", graphplan.ErrNoIntents,
			"no intents are loaded; generate the intent catalog first", nil)
	}

	qv, err := embed.EmbedOne(ctx, c.embedder, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches := make([]Match, len(c.intents))
	for i, in := range c.intents {
		matches[i] = Match{Intent: in, Score: embed.Cosine(qv, c.vectors[i])}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Score, a.Score)
	})

	topK = min(max(topK, 1), len(matches))

	c.logger.Debug("Classified query",
		zap.String("best", matches[0].Intent.ID),
		zap.Float64("score", matches[0].Score))

	return matches[:topK], nil
}

// CorpusHash identifies a set of intent vectors: it covers the embedding model
// and every intent id and example, in order.
func CorpusHash(model string, intents []*catalog.Intent) string {
	h := sha256.New()

	_, _ = fmt.Fprintf(h, "model=%s\n", model)

	for _, in := range intents {
		_, _ = fmt.Fprintf(h, "intent=%s\n", in.ID)

		for _, ex := range in.Examples {
			_, _ = fmt.Fprintf(h, "ex=%s\n", ex)
		}
	}

	return hex.EncodeToString(h.Sum(nil))
}
