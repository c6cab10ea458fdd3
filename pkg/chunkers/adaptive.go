package chunkers

import (
	"context"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/chunklab/chunklab/pkg/errors"
)

// sentenceDelimiters marks the measurement units for the sentence-length
// half of the complexity score
var sentenceDelimiters = regexp.MustCompile(`[.!?]+`)

// AdaptiveChunker sizes chunks by text complexity: denser, harder text
// gets smaller chunks with more overlap. A running complexity score in
// [0, 1] is mapped onto a target size between MinChunkSize and
// MaxChunkSize and a target overlap between MinOverlap and MaxOverlap,
// and sentences are accumulated greedily against those targets.
//
// A chunk is only closed once it holds at least MinChunkSize of text,
// and a remainder smaller than MinChunkSize is folded into the previous
// chunk when the merged text still fits MaxChunkSize. Two documented
// exceptions remain: a single sentence longer than MaxChunkSize is
// emitted alone rather than split mid-sentence, and a trailing remainder
// that cannot merge is emitted below MinChunkSize.
type AdaptiveChunker struct {
	config *ChunkerConfig

	// Token estimation function
	tokenEstimator func(string) int

	sentenceSplitter *SentenceSplitter
}

// NewAdaptiveChunker creates a new adaptive chunker
func NewAdaptiveChunker(config *ChunkerConfig) (*AdaptiveChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	if config.MinChunkSize <= 0 || config.MaxChunkSize <= 0 {
		return nil, errors.NewChunkingConfigError("adaptive chunking requires positive minimum and maximum chunk sizes")
	}

	if config.MaxOverlap >= config.MinChunkSize {
		return nil, errors.NewChunkingConfigError("maximum overlap must be smaller than minimum chunk size")
	}

	return &AdaptiveChunker{
		config:           config,
		tokenEstimator:   estimatorForConfig(config),
		sentenceSplitter: NewSentenceSplitter(),
	}, nil
}

// Chunk splits text into complexity-sized chunks
func (ac *AdaptiveChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return ac.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits text into chunks with additional metadata
func (ac *AdaptiveChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	startTime := time.Now()

	sentences := ac.sentenceSplitter.Split(text)
	if len(sentences) == 0 {
		return []*Chunk{}, nil
	}

	chunkTexts := ac.accumulate(sentences)

	totalSize := 0
	for _, chunkText := range chunkTexts {
		totalSize += len(chunkText)
	}
	avgSize := float64(totalSize) / float64(len(chunkTexts))

	chunks := make([]*Chunk, 0, len(chunkTexts))
	for _, chunkText := range chunkTexts {
		chunk := newChunk(metadata)
		chunk.Text = chunkText
		chunk.TokenCount = ac.EstimateTokens(chunkText)
		chunk.Sentences = ac.sentenceSplitter.Split(chunkText)
		chunk.StartIndex = ac.findTextPosition(text, chunkText)
		chunk.EndIndex = chunk.StartIndex + len(chunkText)
		if chunk.EndIndex > len(text) {
			chunk.EndIndex = len(text)
		}

		chunk.Metadata["text_complexity"] = roundTo(ac.AnalyzeComplexity(chunkText), 3)
		chunk.Metadata["avg_chunk_size"] = roundTo(avgSize, 1)
		chunk.Metadata["size_vs_avg"] = roundTo(float64(len(chunkText))/avgSize, 2)

		chunks = append(chunks, chunk)
	}

	applyRecordMetadata(chunks, "adaptive")

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeAdaptive, ac.config, stats)

	return chunks, nil
}

// accumulate walks the sentences once, closing a chunk whenever the next
// sentence would push it past the current complexity target
func (ac *AdaptiveChunker) accumulate(sentences []string) []string {
	var chunkTexts []string
	var currentSentences []string
	currentSize := 0
	overlapCount := 0 // leading sentences carried from the previous chunk
	currentComplexity := 0.5

	for _, sentence := range sentences {
		sentenceComplexity := ac.AnalyzeComplexity(sentence)
		if len(currentSentences) > 0 {
			currentComplexity = (currentComplexity + sentenceComplexity) / 2
		} else {
			currentComplexity = sentenceComplexity
		}

		spread := float64(ac.config.MaxChunkSize - ac.config.MinChunkSize)
		targetSize := float64(ac.config.MaxChunkSize) - currentComplexity*spread
		targetOverlap := float64(ac.config.MinOverlap) + currentComplexity*float64(ac.config.MaxOverlap-ac.config.MinOverlap)

		overBudget := float64(currentSize+len(sentence)) > targetSize
		if overBudget && len(currentSentences) > 0 && currentSize >= ac.config.MinChunkSize {
			chunkTexts = append(chunkTexts, strings.Join(currentSentences, " "))

			overlap, overlapSize := ac.calculateOverlap(currentSentences, int(targetOverlap))
			currentSentences = append(overlap, sentence)
			currentSize = overlapSize + len(sentence)
			overlapCount = len(overlap)
			continue
		}

		currentSentences = append(currentSentences, sentence)
		currentSize += len(sentence)
	}

	if len(currentSentences) > 0 {
		if len(chunkTexts) > 0 && currentSize < ac.config.MinChunkSize {
			// Fold an undersized remainder into the previous chunk,
			// skipping the sentences it already holds as overlap
			remainder := strings.Join(currentSentences[overlapCount:], " ")
			merged := chunkTexts[len(chunkTexts)-1] + " " + remainder
			if len(merged) <= ac.config.MaxChunkSize {
				chunkTexts[len(chunkTexts)-1] = merged
				return chunkTexts
			}
		}
		chunkTexts = append(chunkTexts, strings.Join(currentSentences, " "))
	}

	return chunkTexts
}

// calculateOverlap selects trailing sentences to carry forward, newest
// first, while the target overlap allows
func (ac *AdaptiveChunker) calculateOverlap(sentences []string, targetOverlap int) ([]string, int) {
	var overlap []string
	overlapSize := 0

	for i := len(sentences) - 1; i >= 0; i-- {
		if overlapSize+len(sentences[i]) > targetOverlap {
			break
		}
		overlap = append([]string{sentences[i]}, overlap...)
		overlapSize += len(sentences[i])
	}

	return overlap, overlapSize
}

// AnalyzeComplexity scores text in [0, 1] as the mean of two signals:
// lexical density (unique words over total, normalized against 0.8) and
// average sentence length (normalized against 200 characters).
func (ac *AdaptiveChunker) AnalyzeComplexity(text string) float64 {
	words := extractWords(text)
	if len(words) == 0 {
		return 0
	}

	lexicalDensity := math.Min(1.0, (float64(countUnique(words))/float64(len(words)))/0.8)

	parts := sentenceDelimiters.Split(text, -1)
	totalLen := 0
	sentenceCount := 0
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		totalLen += len(part)
		sentenceCount++
	}

	sentenceComplexity := 0.0
	if sentenceCount > 0 {
		avgSentenceLen := float64(totalLen) / float64(sentenceCount)
		sentenceComplexity = math.Min(1.0, avgSentenceLen/200.0)
	}

	return (lexicalDensity + sentenceComplexity) / 2
}

// findTextPosition locates a chunk in the original text; joined chunks
// that no longer match verbatim fall back to their first sentence
func (ac *AdaptiveChunker) findTextPosition(text, chunkText string) int {
	if pos := strings.Index(text, chunkText); pos >= 0 {
		return pos
	}

	if idx := strings.IndexAny(chunkText, ".!?"); idx > 0 {
		if pos := strings.Index(text, chunkText[:idx]); pos >= 0 {
			return pos
		}
	}

	return 0
}

// EstimateTokens estimates the number of tokens in text
func (ac *AdaptiveChunker) EstimateTokens(text string) int {
	return ac.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (ac *AdaptiveChunker) GetConfig() *ChunkerConfig {
	return ac.config.Clone()
}

// SetConfig updates the chunker configuration
func (ac *AdaptiveChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	if config.MinChunkSize <= 0 || config.MaxChunkSize <= 0 {
		return errors.NewChunkingConfigError("adaptive chunking requires positive minimum and maximum chunk sizes")
	}

	ac.config = config
	return nil
}

// GetChunkSize returns the configured chunk size
func (ac *AdaptiveChunker) GetChunkSize() int {
	return ac.config.MaxChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (ac *AdaptiveChunker) GetChunkOverlap() int {
	return ac.config.MaxOverlap
}

// GetSupportedLanguages returns supported languages for this chunker
func (ac *AdaptiveChunker) GetSupportedLanguages() []string {
	return []string{"en", "es", "fr", "de", "it", "pt"}
}
