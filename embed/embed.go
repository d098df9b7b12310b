// Package embed provides the text embedding functions the classifier uses,
// plus the vector math shared by them.
package embed

import (
	"context"
	"errors"
	"math"
)

// ErrEmptyVector is returned when a service answers with no vector.
var ErrEmptyVector = errors.New("embed: empty vector")

// Embedder maps texts to vectors. Implementations must return one vector per
// input text, in input order, all of the same length.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Model identifies the embedding function. It is part of cache keys.
	Model() string
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vecs, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}

	if len(vecs) == 0 || len(vecs[0]) == 0 {
		return nil, ErrEmptyVector
	}

	return vecs[0], nil
}

// Mean returns the component-wise mean of vecs. Vectors shorter than the first
// contribute zeros to the missing components.
func Mean(vecs [][]float32) []float32 {
	if len(vecs) == 0 {
		return nil
	}

	sum := make([]float64, len(vecs[0]))

	for _, v := range vecs {
		for i := 0; i < len(sum) && i < len(v); i++ {
			sum[i] += float64(v[i])
		}
	}

	out := make([]float32, len(sum))
	for i, s := range sum {
		out[i] = float32(s / float64(len(vecs)))
	}

	return out
}

// Norm returns the L2 norm of v.
func Norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}

	return math.Sqrt(sum)
}

// Normalize returns v scaled to unit length. The zero vector is returned as is.
func Normalize(v []float32) []float32 {
	n := Norm(v)
	out := make([]float32, len(v))

	if n == 0 {
		copy(out, v)

		return out
	}

	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}

	return out
}

// Cosine returns the cosine similarity of a and b. It is 0 when either vector
// has zero norm. Mismatched lengths use the shorter.
func Cosine(a, b []float32) float64 {
	na, nb := Norm(a), Norm(b)
	if na == 0 || nb == 0 {
		return 0
	}

	n := min(len(a), len(b))

	var dot float64
	for i := range n {
		dot += float64(a[i]) * float64(b[i])
	}

	return dot / (na * nb)
}
