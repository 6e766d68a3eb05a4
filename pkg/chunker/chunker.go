package chunker

import (
	"fmt"
	"strings"

	"github.com/xhad/tier0/internal/models"
)

type ChunkerConfig struct {
	ChunkSize int
	Overlap   int
}

// Chunker splits document text into overlapping fixed-size spans.
type Chunker struct {
	config ChunkerConfig
}

// NewWithConfig validates the window geometry. A zero-value config gets
// the default 1500/300 windows; an explicit ChunkSize with Overlap 0 is
// honored as non-overlapping.
func NewWithConfig(config ChunkerConfig) (Chunker, error) {
	if config.ChunkSize == 0 {
		config.ChunkSize = 1500
		if config.Overlap == 0 {
			config.Overlap = 300
		}
	}
	if config.ChunkSize < 1 {
		return Chunker{}, fmt.Errorf("chunk size must be positive, got %d", config.ChunkSize)
	}
	if config.Overlap < 0 || config.Overlap >= config.ChunkSize {
		return Chunker{}, fmt.Errorf("overlap must be in [0, %d), got %d", config.ChunkSize, config.Overlap)
	}
	return Chunker{config: config}, nil
}

// Split emits text[start:start+size] windows advancing by size-overlap,
// so adjacent chunks share exactly Overlap characters. Whitespace-only
// windows are skipped. Deterministic for a given text and config.
func (c *Chunker) Split(text string) []string {
	var chunks []string

	step := c.config.ChunkSize - c.config.Overlap
	for start := 0; start < len(text); start += step {
		end := start + c.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		chunk := text[start:end]
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	return chunks
}

// ChunkDocument splits one document and attaches source metadata. Chunk
// ids are "{document_id}_chunk_{ordinal}".
func (c *Chunker) ChunkDocument(doc models.Document) []models.Chunk {
	parts := c.Split(doc.Text)

	chunks := make([]models.Chunk, 0, len(parts))
	for i, text := range parts {
		chunks = append(chunks, models.Chunk{
			Text:    text,
			Source:  doc.Filename,
			Year:    doc.Year,
			ChunkID: fmt.Sprintf("%s_chunk_%d", doc.ID, i),
		})
	}
	return chunks
}
