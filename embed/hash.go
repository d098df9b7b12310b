package embed

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions is the vector length of the hashing embedder.
const DefaultDimensions = 256

// Hash is an offline embedder using feature hashing over lowercase word
// tokens and their character trigrams. It needs no model and is deterministic.
type Hash struct {
	dims int
}

// NewHash creates a hashing embedder with the given vector length.
func NewHash(dims int) *Hash {
	if dims <= 0 {
		dims = DefaultDimensions
	}

	return &Hash{dims: dims}
}

// Model implements Embedder.
func (h *Hash) Model() string {
	return fmt.Sprintf("hash:%d", h.dims)
}

// Embed implements Embedder.
func (h *Hash) Embed(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}

	return out, nil
}

func (h *Hash) vector(text string) []float32 {
	v := make([]float32, h.dims)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, tok := range tokens {
		h.add(v, "w:"+tok, 1)

		runes := []rune("^" + tok + "$")
		for i := 0; i+3 <= len(runes); i++ {
			h.add(v, "c:"+string(runes[i:i+3]), 0.5)
		}
	}

	return Normalize(v)
}

func (h *Hash) add(v []float32, feature string, weight float32) {
	f := fnv.New64a()
	_, _ = f.Write([]byte(feature))
	sum := f.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum&(1<<63) != 0 {
		weight = -weight
	}

	v[idx] += weight
}
