// Package index implements an exact inner-product search structure over
// L2-normalized embeddings. Inner product of normalized vectors equals
// cosine similarity.
package index

import (
	"fmt"
	"math"
	"sort"

	"github.com/xhad/tier0/internal/models"
)

// Flat holds chunk metadata plus a dense row-major matrix of their
// normalized embeddings. Append-only during build, read-only afterwards:
// rebuilding always constructs a new Flat, which keeps the chunk-row
// coupling trivially intact and makes concurrent reads lock-free.
type Flat struct {
	dim    int
	matrix []float32 // len = dim * len(chunks), row i belongs to chunks[i]
	chunks []models.Chunk
}

// Hit is one search result: the chunk ordinal and its cosine similarity.
type Hit struct {
	Index      int
	Similarity float32
}

// Build normalizes each embedding and stacks them into a new index.
// Every vector must have dimension dim, and vectors[i] must belong to
// chunks[i].
func Build(chunks []models.Chunk, vectors [][]float32, dim int) (*Flat, error) {
	if dim < 1 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	if len(chunks) != len(vectors) {
		return nil, fmt.Errorf("chunk/vector count mismatch: %d vs %d", len(chunks), len(vectors))
	}

	f := &Flat{
		dim:    dim,
		matrix: make([]float32, 0, dim*len(vectors)),
		chunks: append([]models.Chunk(nil), chunks...),
	}
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("vector %d has dimension %d, want %d", i, len(v), dim)
		}
		f.matrix = append(f.matrix, normalize(v)...)
	}
	return f, nil
}

// Len reports the number of indexed chunks.
func (f *Flat) Len() int { return len(f.chunks) }

// Dimension reports the embedding dimension.
func (f *Flat) Dimension() int { return f.dim }

// Chunk returns the chunk at ordinal i.
func (f *Flat) Chunk(i int) models.Chunk { return f.chunks[i] }

// Search returns the topK most similar chunks by descending cosine
// similarity. Ties keep insertion order (lower ordinal first); topK is
// clamped to the index size.
func (f *Flat) Search(query []float32, topK int) ([]Hit, error) {
	if len(query) != f.dim {
		return nil, fmt.Errorf("query has dimension %d, want %d", len(query), f.dim)
	}
	if topK < 1 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}
	if topK > len(f.chunks) {
		topK = len(f.chunks)
	}

	q := normalize(query)
	hits := make([]Hit, len(f.chunks))
	for i := range f.chunks {
		row := f.matrix[i*f.dim : (i+1)*f.dim]
		var dot float32
		for j, x := range row {
			dot += x * q[j]
		}
		hits[i] = Hit{Index: i, Similarity: dot}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Similarity > hits[b].Similarity
	})
	return hits[:topK], nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := float32(math.Sqrt(sum))
	if norm == 0 {
		return append([]float32(nil), v...)
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}
