// Package chunkers provides the text chunking strategies for chunklab:
// fixed-size, semantic, adaptive, AI-driven, context-enriched, and
// code-aware splitting, plus the shared sentence splitting, token
// estimation, and run statistics they build on.
package chunkers

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/chunklab/chunklab/pkg/errors"
)

// Chunk represents a processed text chunk with metadata
type Chunk struct {
	// Text content of the chunk
	Text string `json:"text"`

	// TokenCount is the number of tokens in this chunk
	TokenCount int `json:"token_count"`

	// Sentences contains the sentences that make up this chunk
	Sentences []string `json:"sentences"`

	// StartIndex is the starting position in the original text
	StartIndex int `json:"start_index"`

	// EndIndex is the ending position in the original text
	EndIndex int `json:"end_index"`

	// Metadata contains additional information about the chunk
	Metadata map[string]interface{} `json:"metadata,omitempty"`

	// CreatedAt is when this chunk was created
	CreatedAt time.Time `json:"created_at"`
}

// ChunkerConfig represents configuration shared by all chunking strategies.
// Sizes and overlaps are measured in bytes of the source text, which for
// the ASCII documents the strategies were tuned on equals characters.
type ChunkerConfig struct {
	// ChunkSize is the maximum size of a chunk
	ChunkSize int `json:"chunk_size"`

	// ChunkOverlap is the amount of text carried over between chunks
	ChunkOverlap int `json:"chunk_overlap"`

	// Separator is the piece boundary used by the fixed-size strategy
	Separator string `json:"separator,omitempty"`

	// Separators is the ordered hierarchy used by the semantic strategy
	// and the recursive fallback splitters
	Separators []string `json:"separators,omitempty"`

	// MinChunkSize and MaxChunkSize bound the adaptive target size
	MinChunkSize int `json:"min_chunk_size,omitempty"`
	MaxChunkSize int `json:"max_chunk_size,omitempty"`

	// MinOverlap and MaxOverlap bound the adaptive target overlap
	MinOverlap int `json:"min_overlap,omitempty"`
	MaxOverlap int `json:"max_overlap,omitempty"`

	// MaxChunks caps how many chunks the AI-driven strategy requests
	MaxChunks int `json:"max_chunks,omitempty"`

	// WindowSize is the neighbor radius for context enrichment
	WindowSize int `json:"window_size,omitempty"`

	// Workers bounds concurrent summary requests during context enrichment
	Workers int `json:"workers,omitempty"`

	// Language selects the separator preset for code-aware chunking
	Language string `json:"language,omitempty"`

	// Tokenizer selects the token counting backend ("simple" or "tiktoken")
	Tokenizer string `json:"tokenizer,omitempty"`
}

// DefaultChunkerConfig returns the defaults the strategies were tuned with
func DefaultChunkerConfig() *ChunkerConfig {
	return &ChunkerConfig{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Separator:    "\n\n",
		MinChunkSize: 300,
		MaxChunkSize: 1000,
		MinOverlap:   30,
		MaxOverlap:   150,
		MaxChunks:    5,
		WindowSize:   1,
		Workers:      4,
		Language:     "python",
		Tokenizer:    TokenizerProviderSimple,
	}
}

// Clone returns a deep copy of the configuration
func (c *ChunkerConfig) Clone() *ChunkerConfig {
	clone := *c
	if c.Separators != nil {
		clone.Separators = make([]string, len(c.Separators))
		copy(clone.Separators, c.Separators)
	}
	return &clone
}

// validateChunkerConfig enforces the bounds every strategy relies on.
// It runs before any text is processed so bad bounds never chunk.
func validateChunkerConfig(config *ChunkerConfig) error {
	if config == nil {
		return errors.NewChunkingConfigError("config cannot be nil")
	}

	if config.ChunkSize <= 0 {
		return errors.NewChunkingConfigError("chunk size must be positive")
	}

	if config.ChunkOverlap < 0 {
		return errors.NewChunkingConfigError("chunk overlap cannot be negative")
	}

	if config.ChunkOverlap >= config.ChunkSize {
		return errors.NewChunkingConfigError("chunk overlap must be less than chunk size")
	}

	if config.MinChunkSize < 0 || config.MaxChunkSize < 0 {
		return errors.NewChunkingConfigError("chunk size bounds cannot be negative")
	}

	if config.MaxChunkSize > 0 && config.MinChunkSize > config.MaxChunkSize {
		return errors.NewChunkingConfigError("minimum chunk size cannot exceed maximum chunk size")
	}

	if config.MinOverlap < 0 || config.MaxOverlap < 0 {
		return errors.NewChunkingConfigError("overlap bounds cannot be negative")
	}

	if config.MinOverlap > config.MaxOverlap {
		return errors.NewChunkingConfigError("minimum overlap cannot exceed maximum overlap")
	}

	if config.MaxChunks < 0 {
		return errors.NewChunkingConfigError("max chunks cannot be negative")
	}

	if config.WindowSize < 0 {
		return errors.NewChunkingConfigError("window size cannot be negative")
	}

	if config.Workers < 0 {
		return errors.NewChunkingConfigError("workers cannot be negative")
	}

	return nil
}

// Chunker defines the interface for all text chunking implementations
type Chunker interface {
	// Chunk splits text into chunks based on the chunker's strategy
	Chunk(ctx context.Context, text string) ([]*Chunk, error)

	// ChunkWithMetadata splits text into chunks with additional metadata
	ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error)

	// EstimateTokens estimates the number of tokens in text
	EstimateTokens(text string) int

	// GetConfig returns the current chunker configuration
	GetConfig() *ChunkerConfig

	// SetConfig updates the chunker configuration
	SetConfig(config *ChunkerConfig) error

	// GetChunkSize returns the configured chunk size
	GetChunkSize() int

	// GetChunkOverlap returns the configured chunk overlap
	GetChunkOverlap() int

	// GetSupportedLanguages returns supported languages for this chunker
	GetSupportedLanguages() []string
}

// ChunkerType represents different chunking strategies
type ChunkerType string

const (
	// ChunkerTypeFixed merges separator-delimited pieces into size-bounded chunks
	ChunkerTypeFixed ChunkerType = "fixed"

	// ChunkerTypeSemantic splits along a separator hierarchy and scores density
	ChunkerTypeSemantic ChunkerType = "semantic"

	// ChunkerTypeAdaptive sizes chunks from a running complexity score
	ChunkerTypeAdaptive ChunkerType = "adaptive"

	// ChunkerTypeAIDriven asks an LLM to propose chunk boundaries
	ChunkerTypeAIDriven ChunkerType = "aidriven"

	// ChunkerTypeContextual enriches chunks with neighbor-window summaries
	ChunkerTypeContextual ChunkerType = "contextual"

	// ChunkerTypeCode splits source code along language-aware separators
	ChunkerTypeCode ChunkerType = "code"
)

// SupportedChunkerTypes returns all supported chunker types
func SupportedChunkerTypes() []ChunkerType {
	return []ChunkerType{
		ChunkerTypeFixed,
		ChunkerTypeSemantic,
		ChunkerTypeAdaptive,
		ChunkerTypeAIDriven,
		ChunkerTypeContextual,
		ChunkerTypeCode,
	}
}

// IsValidChunkerType checks if a chunker type is supported
func IsValidChunkerType(chunkerType ChunkerType) bool {
	for _, supported := range SupportedChunkerTypes() {
		if supported == chunkerType {
			return true
		}
	}
	return false
}

// wordPattern matches word tokens the way the complexity and density
// scores count them
var wordPattern = regexp.MustCompile(`\b\w+\b`)

// extractWords lowercases text and returns its word tokens
func extractWords(text string) []string {
	return wordPattern.FindAllString(strings.ToLower(text), -1)
}

// countUnique returns the number of distinct words in the slice
func countUnique(words []string) int {
	seen := make(map[string]struct{}, len(words))
	for _, word := range words {
		seen[word] = struct{}{}
	}
	return len(seen)
}

// roundTo rounds a value to the given number of decimal places
func roundTo(value float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(value*factor) / factor
}

// newChunk creates an empty chunk pre-populated with caller metadata
func newChunk(metadata map[string]interface{}) *Chunk {
	chunk := &Chunk{
		Metadata:  make(map[string]interface{}),
		CreatedAt: time.Now(),
	}
	for k, v := range metadata {
		chunk.Metadata[k] = v
	}
	return chunk
}

// applyRecordMetadata stamps the per-run record keys onto every chunk:
// chunk_id follows output order, total_chunks reflects the emitted count,
// and chunk_size is the byte length of the chunk text. A strategy that
// pre-set chunk_type or chunk_size keeps its value.
func applyRecordMetadata(chunks []*Chunk, chunkType string) {
	for i, chunk := range chunks {
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]interface{})
		}
		chunk.Metadata["chunk_id"] = i
		chunk.Metadata["total_chunks"] = len(chunks)
		if _, ok := chunk.Metadata["chunk_size"]; !ok {
			chunk.Metadata["chunk_size"] = len(chunk.Text)
		}
		if _, ok := chunk.Metadata["chunk_type"]; !ok {
			chunk.Metadata["chunk_type"] = chunkType
		}
	}
}

// attachRunStats records the shared run-level metadata on every chunk
func attachRunStats(chunks []*Chunk, chunkerType ChunkerType, config *ChunkerConfig, stats *ChunkingStats) {
	for _, chunk := range chunks {
		chunk.Metadata["chunking_stats"] = stats
		chunk.Metadata["chunker_type"] = string(chunkerType)
		chunk.Metadata["chunk_config"] = config
	}
}

// ChunkingStats provides statistics about the chunking process
type ChunkingStats struct {
	// OriginalTextLength is the length of the original text
	OriginalTextLength int `json:"original_text_length"`

	// TotalChunks is the number of chunks created
	TotalChunks int `json:"total_chunks"`

	// AverageChunkSize is the average chunk size in characters
	AverageChunkSize float64 `json:"average_chunk_size"`

	// MinChunkSize is the size of the smallest chunk in characters
	MinChunkSize int `json:"min_chunk_size"`

	// MaxChunkSize is the size of the largest chunk in characters
	MaxChunkSize int `json:"max_chunk_size"`

	// TotalTokens is the total number of tokens across all chunks
	TotalTokens int `json:"total_tokens"`

	// ProcessingTime is the time taken to perform chunking
	ProcessingTime time.Duration `json:"processing_time"`
}

// CalculateStats computes statistics for a set of chunks
func CalculateStats(chunks []*Chunk, originalLength int, processingTime time.Duration) *ChunkingStats {
	if len(chunks) == 0 {
		return &ChunkingStats{
			OriginalTextLength: originalLength,
			ProcessingTime:     processingTime,
		}
	}

	stats := &ChunkingStats{
		OriginalTextLength: originalLength,
		TotalChunks:        len(chunks),
		ProcessingTime:     processingTime,
	}

	totalSize := 0
	totalTokens := 0
	minSize := len(chunks[0].Text)
	maxSize := len(chunks[0].Text)

	for _, chunk := range chunks {
		size := len(chunk.Text)
		totalSize += size
		totalTokens += chunk.TokenCount
		if size < minSize {
			minSize = size
		}
		if size > maxSize {
			maxSize = size
		}
	}

	stats.TotalTokens = totalTokens
	stats.MinChunkSize = minSize
	stats.MaxChunkSize = maxSize
	stats.AverageChunkSize = float64(totalSize) / float64(len(chunks))

	return stats
}
