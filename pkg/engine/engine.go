// Package engine is the document retrieval core: it builds and owns the
// vector index and answers document questions by blending vector,
// pattern, and keyword retrieval.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
	"github.com/xhad/tier0/pkg/cache"
	"github.com/xhad/tier0/pkg/chunker"
	"github.com/xhad/tier0/pkg/index"
	"github.com/xhad/tier0/pkg/keyword"
	"github.com/xhad/tier0/pkg/pattern"
)

// vectorScale maps cosine similarity (0..1) onto the relevance scale
// shared with pattern and keyword scores. Tunable policy: the contract
// is pattern > strong vector match > weak vector match > keyword.
const vectorScale = 30.0

const vectorTopK = 10

type EngineConfig struct {
	ChunkSize int
	Overlap   int
	// OnProgress, when set, is called after each chunk during an index
	// build with (embedded, total).
	OnProgress func(done, total int)
}

// Engine answers document-domain questions. The index is swapped in
// atomically once built and is immutable afterwards, so queries never
// take a lock.
type Engine struct {
	config   EngineConfig
	provider types.Provider // nil when no AI vendor is configured
	store    cache.Store    // nil disables persistence
	chunker  chunker.Chunker
	keyword  keyword.Retriever
	docs     []models.Document
	logger   *zap.Logger

	idx atomic.Pointer[index.Flat]
}

func NewWithConfig(config EngineConfig, provider types.Provider, store cache.Store, docs []models.Document, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c, err := chunker.NewWithConfig(chunker.ChunkerConfig{ChunkSize: config.ChunkSize, Overlap: config.Overlap})
	if err != nil {
		return nil, err
	}
	return &Engine{
		config:   config,
		provider: provider,
		store:    store,
		chunker:  c,
		keyword:  keyword.New(c),
		docs:     docs,
		logger:   logger,
	}, nil
}

func (e *Engine) Name() string { return "search_documents" }

// Ready reports whether vector search is available.
func (e *Engine) Ready() bool { return e.idx.Load() != nil }

// DocumentCount reports the size of the loaded corpus.
func (e *Engine) DocumentCount() int { return len(e.docs) }

// IndexSize reports the number of indexed chunks, 0 before the index is
// ready.
func (e *Engine) IndexSize() int {
	if f := e.idx.Load(); f != nil {
		return f.Len()
	}
	return 0
}

// LoadOrBuild restores a cached index if one exists and matches the
// provider's dimension; otherwise it rebuilds from scratch. Query
// serving stays degraded (pattern/keyword only) until this returns.
func (e *Engine) LoadOrBuild(ctx context.Context) error {
	if e.provider == nil {
		e.logger.Warn("no AI provider configured, skipping vector index")
		return nil
	}

	if e.store != nil {
		f, err := index.Load(ctx, e.store)
		switch {
		case err == nil && f.Dimension() == e.provider.Dimension():
			e.idx.Store(f)
			e.logger.Info("loaded cached vector index", zap.Int("chunks", f.Len()))
			return nil
		case err == nil:
			e.logger.Warn("cached index dimension mismatch, rebuilding",
				zap.Int("cached", f.Dimension()),
				zap.Int("provider", e.provider.Dimension()))
		case errors.Is(err, cache.ErrNoCache):
			e.logger.Info("no usable cached index, rebuilding", zap.Error(err))
		default:
			return err
		}
	}

	return e.BuildIndex(ctx)
}

// BuildIndex chunks the corpus and embeds it sequentially. Throughput is
// bounded by the provider's request-rate ceiling, not CPU, so a large
// corpus legitimately takes tens of minutes. A chunk whose embedding
// fails is logged and skipped; the index proceeds with fewer vectors.
func (e *Engine) BuildIndex(ctx context.Context) error {
	if e.provider == nil {
		return fmt.Errorf("cannot build index without a provider")
	}

	var all []models.Chunk
	for _, doc := range e.docs {
		all = append(all, e.chunker.ChunkDocument(doc)...)
	}
	if len(all) == 0 {
		e.logger.Warn("no chunks to index")
		return nil
	}

	e.logger.Info("building vector index",
		zap.Int("chunks", len(all)),
		zap.String("provider", e.provider.Name()),
		zap.Int("dimension", e.provider.Dimension()))

	start := time.Now()
	kept := make([]models.Chunk, 0, len(all))
	vectors := make([][]float32, 0, len(all))

	for i, chunk := range all {
		vec, err := e.provider.Embed(ctx, chunk.Text)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			e.logger.Warn("embedding failed, skipping chunk",
				zap.String("chunk_id", chunk.ChunkID), zap.Error(err))
		} else {
			kept = append(kept, chunk)
			vectors = append(vectors, vec)
		}

		if e.config.OnProgress != nil {
			e.config.OnProgress(i+1, len(all))
		}
		if (i+1)%10 == 0 {
			elapsed := time.Since(start)
			rate := float64(i+1) / elapsed.Seconds()
			e.logger.Info("embedding progress",
				zap.Int("done", i+1),
				zap.Int("total", len(all)),
				zap.Duration("eta", time.Duration(float64(len(all)-i-1)/rate)*time.Second))
		}
	}

	if len(vectors) == 0 {
		e.logger.Warn("no embeddings generated, vector search unavailable")
		return nil
	}

	f, err := index.Build(kept, vectors, e.provider.Dimension())
	if err != nil {
		return err
	}
	e.idx.Store(f)
	e.logger.Info("vector index ready",
		zap.Int("vectors", f.Len()),
		zap.Duration("took", time.Since(start)))

	if e.store != nil {
		if err := index.Save(ctx, e.store, f); err != nil {
			e.logger.Error("failed to persist index", zap.Error(err))
		}
	}
	return nil
}

// VectorSearch embeds the question and returns the topK nearest chunks
// as candidates. An unavailable provider or index yields (nil, error) so
// the caller can fall back to non-vector retrieval.
func (e *Engine) VectorSearch(ctx context.Context, question string, topK int) ([]models.Candidate, error) {
	f := e.idx.Load()
	if e.provider == nil || f == nil {
		return nil, fmt.Errorf("vector search unavailable")
	}

	vec, err := e.provider.Embed(ctx, question)
	if err != nil {
		return nil, err
	}
	hits, err := f.Search(vec, topK)
	if err != nil {
		return nil, err
	}

	out := make([]models.Candidate, 0, len(hits))
	for i, h := range hits {
		chunk := f.Chunk(h.Index)
		out = append(out, models.Candidate{
			Text:            chunk.Text,
			Source:          chunk.Source,
			Year:            chunk.Year,
			ChunkID:         chunk.ChunkID,
			SimilarityScore: float64(h.Similarity),
			Relevance:       float64(h.Similarity) * vectorScale,
			Rank:            i + 1,
			MatchType:       models.MatchVector,
		})
	}
	return out, nil
}

// Query answers a document question with hybrid retrieval. It never
// returns an error: with no provider and no index the worst outcome is a
// template or no-match answer.
func (e *Engine) Query(ctx context.Context, question string) *models.Result {
	vectorResults, err := e.VectorSearch(ctx, question, vectorTopK)
	if err != nil {
		e.logger.Info("vector search unavailable for query", zap.Error(err))
	}

	var patternResults []models.Candidate
	for _, doc := range e.docs {
		patternResults = append(patternResults, pattern.Extract(doc)...)
	}

	var keywordResults []models.Candidate
	if len(vectorResults) == 0 {
		keywordResults = e.keyword.Search(question, e.docs)
	}

	merged := Merge(vectorResults, patternResults, keywordResults)
	e.logger.Info("hybrid search complete",
		zap.Int("vector", len(vectorResults)),
		zap.Int("pattern", len(patternResults)),
		zap.Int("keyword", len(keywordResults)),
		zap.Int("unique", len(merged)))

	if len(merged) == 0 {
		return &models.Result{
			Answer:      "No relevant information found in the document corpus for this query.",
			Type:        models.TypeNoMatch,
			Synthesized: false,
		}
	}

	top := merged
	if len(top) > synthesisSnippets {
		top = top[:synthesisSnippets]
	}

	if e.provider != nil {
		if answer, err := e.synthesize(ctx, question, top); err == nil {
			return &models.Result{
				Answer:      answer,
				Sources:     top,
				Type:        models.TypeDocuments,
				Synthesized: true,
			}
		} else {
			e.logger.Warn("synthesis failed, using template answer", zap.Error(err))
		}
	}

	return &models.Result{
		Answer:      templateAnswer(merged),
		Sources:     top,
		Type:        models.TypeDocuments,
		Synthesized: false,
	}
}
