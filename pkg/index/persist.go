package index

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"fmt"

	"github.com/xhad/tier0/internal/models"
	"github.com/xhad/tier0/pkg/cache"
)

// Artifact keys within the cache store. The pair is written index first;
// a reader that finds either half missing or undecodable rebuilds.
const (
	KeyIndex  = "index.gob"
	KeyChunks = "chunks.gob"
)

type indexArtifact struct {
	BuildID string
	Dim     int
	Matrix  []float32
}

type chunkArtifact struct {
	BuildID string
	Chunks  []models.Chunk
}

// newBuildID tags both halves of one Save so a crash between the two
// writes cannot pair a new matrix with stale chunks unnoticed.
func newBuildID() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("failed to generate build id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}

// Save persists the index as a pair of artifacts. The matrix is stored
// post-normalization, so a loaded index searches bit-identically to the
// one that was saved.
func Save(ctx context.Context, store cache.Store, f *Flat) error {
	buildID, err := newBuildID()
	if err != nil {
		return err
	}

	var idxBuf bytes.Buffer
	if err := gob.NewEncoder(&idxBuf).Encode(indexArtifact{BuildID: buildID, Dim: f.dim, Matrix: f.matrix}); err != nil {
		return fmt.Errorf("failed to encode index artifact: %w", err)
	}
	var chunkBuf bytes.Buffer
	if err := gob.NewEncoder(&chunkBuf).Encode(chunkArtifact{BuildID: buildID, Chunks: f.chunks}); err != nil {
		return fmt.Errorf("failed to encode chunk artifact: %w", err)
	}

	if err := store.Put(ctx, KeyIndex, idxBuf.Bytes()); err != nil {
		return err
	}
	return store.Put(ctx, KeyChunks, chunkBuf.Bytes())
}

// Load restores a persisted index. Missing, undecodable, or mutually
// inconsistent artifacts all surface as cache.ErrNoCache so the caller
// falls back to a full rebuild.
func Load(ctx context.Context, store cache.Store) (*Flat, error) {
	idxData, err := store.Get(ctx, KeyIndex)
	if err != nil {
		return nil, err
	}
	chunkData, err := store.Get(ctx, KeyChunks)
	if err != nil {
		return nil, err
	}

	var art indexArtifact
	if err := gob.NewDecoder(bytes.NewReader(idxData)).Decode(&art); err != nil {
		return nil, fmt.Errorf("%w: malformed index artifact: %v", cache.ErrNoCache, err)
	}
	var chunkArt chunkArtifact
	if err := gob.NewDecoder(bytes.NewReader(chunkData)).Decode(&chunkArt); err != nil {
		return nil, fmt.Errorf("%w: malformed chunk artifact: %v", cache.ErrNoCache, err)
	}

	if art.BuildID != chunkArt.BuildID {
		return nil, fmt.Errorf("%w: artifact pair is from different builds (%s vs %s)",
			cache.ErrNoCache, art.BuildID, chunkArt.BuildID)
	}
	chunks := chunkArt.Chunks
	if art.Dim < 1 || len(art.Matrix) != art.Dim*len(chunks) {
		return nil, fmt.Errorf("%w: artifact pair is inconsistent (%d floats for %d chunks of dim %d)",
			cache.ErrNoCache, len(art.Matrix), len(chunks), art.Dim)
	}

	return &Flat{dim: art.Dim, matrix: art.Matrix, chunks: chunks}, nil
}
