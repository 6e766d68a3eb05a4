package engine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/internal/types"
	"github.com/xhad/tier0/pkg/cache"
	"github.com/xhad/tier0/pkg/engine"
	"github.com/xhad/tier0/pkg/llm"
)

// fakeProvider embeds by looking up canned vectors keyed on a substring
// of the text. Chat always fails so engine answers stay deterministic.
type fakeProvider struct {
	vectors map[string][]float32
	dim     int
}

func (f *fakeProvider) Name() string   { return "fake" }
func (f *fakeProvider) Dimension() int { return f.dim }

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	for key, vec := range f.vectors {
		if key != "" && containsFold(text, key) {
			return vec, nil
		}
	}
	return nil, llm.ErrProviderUnavailable
}

func (f *fakeProvider) Chat(context.Context, string, string, int) (string, error) {
	return "", llm.ErrProviderUnavailable
}

func (f *fakeProvider) SelectTools(context.Context, string, []types.Tool) ([]types.ToolCall, error) {
	return nil, llm.ErrToolsUnsupported
}

func containsFold(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		match := true
		for j := 0; j < len(needle); j++ {
			a, b := haystack[i+j], needle[j]
			if a >= 'A' && a <= 'Z' {
				a += 'a' - 'A'
			}
			if b >= 'A' && b <= 'Z' {
				b += 'a' - 'A'
			}
			if a != b {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func safetyCorpus() []models.Document {
	return []models.Document{{
		ID:       "annual_report_2024",
		Filename: "annual_report_2024.txt",
		Year:     2024,
		Text: "Operational overview: drilling activity continued across all regions with steady throughput. " +
			"In 2024 we recorded 38 Tier 1 and Tier 2 process safety events, a decrease from the prior year. " +
			"Compliance training hours increased and the hazard reporting process was simplified for field crews.",
	}}
}

func TestQuery_NoProviderFallsBackToPatternAndKeyword(t *testing.T) {
	e, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 200, Overlap: 40}, nil, nil, safetyCorpus(), nil)
	require.NoError(t, err)

	result := e.Query(context.Background(), "How many Tier 1 and Tier 2 events were recorded?")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeDocuments, result.Type)
	assert.False(t, result.Synthesized)
	assert.Contains(t, result.Answer, "38 Tier 1 and Tier 2")
	require.NotEmpty(t, result.Sources)
	// Pattern match outranks keyword hits.
	assert.Equal(t, models.MatchPattern, result.Sources[0].MatchType)
}

func TestQuery_NoMatchIsTerminalSuccess(t *testing.T) {
	docs := []models.Document{{
		ID:       "memo",
		Filename: "memo.txt",
		Text:     "Office relocation timeline and parking assignments for the new building.",
	}}
	e, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 200, Overlap: 40}, nil, nil, docs, nil)
	require.NoError(t, err)

	result := e.Query(context.Background(), "anything at all")

	require.NotNil(t, result)
	assert.Equal(t, models.TypeNoMatch, result.Type)
	assert.False(t, result.Synthesized)
}

func TestBuildAndVectorSearch(t *testing.T) {
	provider := &fakeProvider{
		dim: 3,
		vectors: map[string][]float32{
			"drilling": {1, 0, 0},
			"38 Tier":  {0, 1, 0},
			"training": {0, 0, 1},
		},
	}

	docs := []models.Document{{
		ID:       "r",
		Filename: "r.txt",
		// Two chunks of 60 with no overlap.
		Text: "drilling activity continued across every single region ok. " +
			"38 Tier 1 and Tier 2 process safety events were recorded.",
	}}

	e, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 59, Overlap: 0}, provider, nil, docs, nil)
	require.NoError(t, err)
	require.NoError(t, e.BuildIndex(context.Background()))
	require.True(t, e.Ready())
	assert.Equal(t, 2, e.IndexSize())

	// Query embedding closest to chunk 2.
	hits, err := e.VectorSearch(context.Background(), "38 Tier questions", 1)
	require.NoError(t, err)

	require.Len(t, hits, 1)
	assert.Equal(t, "r_chunk_1", hits[0].ChunkID)
	assert.Equal(t, 1, hits[0].Rank)
	assert.Equal(t, models.MatchVector, hits[0].MatchType)
	// relevance = similarity x scale
	assert.InDelta(t, hits[0].SimilarityScore*30, hits[0].Relevance, 1e-9)
}

func TestBuildIndex_SkipsFailedChunks(t *testing.T) {
	provider := &fakeProvider{
		dim: 2,
		vectors: map[string][]float32{
			"alpha": {1, 0},
		},
	}
	docs := []models.Document{{
		ID:       "d",
		Filename: "d.txt",
		Text:     "alpha section text beta section text",
	}}

	// Chunk size splits "alpha..." and "beta..." apart; only alpha embeds.
	e, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 18, Overlap: 0}, provider, nil, docs, nil)
	require.NoError(t, err)
	require.NoError(t, e.BuildIndex(context.Background()))

	assert.Equal(t, 1, e.IndexSize())
}

func TestLoadOrBuild_UsesCachedIndex(t *testing.T) {
	store, err := cache.NewDir(cache.DirConfig{Path: t.TempDir()})
	require.NoError(t, err)

	provider := &fakeProvider{
		dim:     2,
		vectors: map[string][]float32{"alpha": {1, 0}, "beta": {0, 1}},
	}
	docs := []models.Document{{ID: "d", Filename: "d.txt", Text: "alpha half here. beta half here."}}

	first, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 16, Overlap: 0}, provider, store, docs, nil)
	require.NoError(t, err)
	require.NoError(t, first.LoadOrBuild(context.Background()))
	require.True(t, first.Ready())

	// A fresh engine with an empty corpus still comes up ready from cache.
	second, err := engine.NewWithConfig(engine.EngineConfig{ChunkSize: 16, Overlap: 0}, provider, store, nil, nil)
	require.NoError(t, err)
	require.NoError(t, second.LoadOrBuild(context.Background()))

	assert.True(t, second.Ready())
	assert.Equal(t, first.IndexSize(), second.IndexSize())
}
