package chunkers

import (
	"context"
	"strings"
	"time"
)

// FixedSizeChunker merges separator-delimited pieces of text into chunks
// of at most ChunkSize bytes with a piece-aligned overlap between
// consecutive chunks.
//
// Overlap policy: only whole pieces are carried. Trailing pieces of the
// previous chunk are prepended to the next one while their combined
// length stays within ChunkOverlap; a piece larger than the overlap
// budget is never split, so the overlap at that boundary is skipped
// entirely. Overlap is also skipped when carrying it would push the next
// chunk past ChunkSize; the only chunks that exceed ChunkSize are single
// pieces that are themselves oversized. Each chunk records the carried
// prefix length under overlap_prefix_len; stripping that prefix from
// every chunk and concatenating the remainders restores the input byte
// for byte.
type FixedSizeChunker struct {
	config *ChunkerConfig

	// Token estimation function
	tokenEstimator func(string) int
}

// NewFixedSizeChunker creates a new fixed-size chunker
func NewFixedSizeChunker(config *ChunkerConfig) (*FixedSizeChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	if config.Separator == "" {
		config.Separator = "\n\n"
	}

	return &FixedSizeChunker{
		config:         config,
		tokenEstimator: estimatorForConfig(config),
	}, nil
}

// Chunk splits text into fixed-size chunks
func (fc *FixedSizeChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return fc.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits text into chunks with additional metadata
func (fc *FixedSizeChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	startTime := time.Now()

	pieces := splitKeepingSeparator(text, fc.config.Separator)

	chunks := []*Chunk{}
	var currentPieces []string
	currentLen := 0 // length of the current chunk text
	prefixLen := 0  // carried overlap at the head of the current chunk
	newPos := 0     // offset in text of the next unconsumed piece

	for _, piece := range pieces {
		if currentLen+len(piece) > fc.config.ChunkSize && len(currentPieces) > 0 {
			chunks = append(chunks, fc.createChunk(currentPieces, prefixLen, newPos, metadata))
			newPos += currentLen - prefixLen

			overlap := fc.calculateOverlap(currentPieces)
			currentPieces = overlap
			currentLen = 0
			for _, p := range overlap {
				currentLen += len(p)
			}
			prefixLen = currentLen

			// Carrying overlap that would push the next chunk past the
			// limit defeats the size bound, so skip it at this boundary
			if currentLen+len(piece) > fc.config.ChunkSize {
				currentPieces = nil
				currentLen = 0
				prefixLen = 0
			}
		}

		currentPieces = append(currentPieces, piece)
		currentLen += len(piece)
	}

	if len(currentPieces) > 0 {
		chunks = append(chunks, fc.createChunk(currentPieces, prefixLen, newPos, metadata))
	}

	applyRecordMetadata(chunks, "fixed-size")

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeFixed, fc.config, stats)

	return chunks, nil
}

// createChunk builds a chunk from accumulated pieces. newPos is the
// offset of the first piece that is not carried overlap; the chunk
// therefore starts prefixLen bytes earlier in the original text.
func (fc *FixedSizeChunker) createChunk(pieces []string, prefixLen, newPos int, metadata map[string]interface{}) *Chunk {
	chunkText := strings.Join(pieces, "")

	chunk := newChunk(metadata)
	chunk.Text = chunkText
	chunk.TokenCount = fc.EstimateTokens(chunkText)
	chunk.StartIndex = newPos - prefixLen
	chunk.EndIndex = chunk.StartIndex + len(chunkText)
	chunk.Metadata["overlap_prefix_len"] = prefixLen

	for _, piece := range pieces {
		if trimmed := strings.TrimSpace(piece); trimmed != "" {
			chunk.Sentences = append(chunk.Sentences, trimmed)
		}
	}

	return chunk
}

// calculateOverlap selects the trailing whole pieces to carry into the
// next chunk, working backwards while the overlap budget allows
func (fc *FixedSizeChunker) calculateOverlap(pieces []string) []string {
	if fc.config.ChunkOverlap <= 0 || len(pieces) == 0 {
		return nil
	}

	overlapTarget := fc.config.ChunkOverlap
	var overlapPieces []string
	currentOverlap := 0

	for i := len(pieces) - 1; i >= 0; i-- {
		if currentOverlap+len(pieces[i]) > overlapTarget {
			break
		}
		overlapPieces = append([]string{pieces[i]}, overlapPieces...)
		currentOverlap += len(pieces[i])
	}

	return overlapPieces
}

// splitKeepingSeparator splits text on separator with the separator kept
// attached to the piece it terminates, so joining the pieces restores the
// input exactly
func splitKeepingSeparator(text, separator string) []string {
	if separator == "" {
		return []string{text}
	}

	pieces := strings.SplitAfter(text, separator)
	if n := len(pieces); n > 0 && pieces[n-1] == "" {
		pieces = pieces[:n-1]
	}
	return pieces
}

// EstimateTokens estimates the number of tokens in text
func (fc *FixedSizeChunker) EstimateTokens(text string) int {
	return fc.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (fc *FixedSizeChunker) GetConfig() *ChunkerConfig {
	return fc.config.Clone()
}

// SetConfig updates the chunker configuration
func (fc *FixedSizeChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	if config.Separator == "" {
		config.Separator = "\n\n"
	}

	fc.config = config
	return nil
}

// GetChunkSize returns the configured chunk size
func (fc *FixedSizeChunker) GetChunkSize() int {
	return fc.config.ChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (fc *FixedSizeChunker) GetChunkOverlap() int {
	return fc.config.ChunkOverlap
}

// GetSupportedLanguages returns supported languages for this chunker
func (fc *FixedSizeChunker) GetSupportedLanguages() []string {
	return []string{"*"}
}
