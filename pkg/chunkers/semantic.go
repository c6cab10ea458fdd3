package chunkers

import (
	"context"
	"strings"
	"time"

	"github.com/chunklab/chunklab/pkg/errors"
)

// defaultSemanticSeparators is the boundary hierarchy tried in order:
// paragraphs, lines, sentences, words, and finally raw character runs
var defaultSemanticSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// semanticStopWords are excluded from the content-word ratio when
// scoring chunk density
var semanticStopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true,
	"but": true, "if": true, "then": true, "else": true, "when": true,
	"is": true, "are": true, "was": true, "were": true, "be": true,
	"been": true, "being": true, "of": true, "to": true, "in": true,
	"on": true, "at": true, "for": true, "with": true, "by": true,
	"from": true, "as": true, "it": true, "its": true, "this": true,
	"that": true, "these": true, "those": true, "he": true, "she": true,
	"they": true, "we": true, "you": true, "i": true, "not": true,
	"no": true, "do": true, "does": true, "did": true, "have": true,
	"has": true, "had": true, "will": true, "would": true, "can": true,
	"could": true, "should": true, "there": true, "their": true,
}

// SemanticChunker splits text along a separator hierarchy, descending to
// finer boundaries only when a segment exceeds the chunk size, and
// scores every chunk with a semantic density in [0, 1]: the mean of its
// unique-word ratio and its content-word (non-stop-word) ratio.
type SemanticChunker struct {
	config *ChunkerConfig

	// Token estimation function
	tokenEstimator func(string) int

	sentenceSplitter *SentenceSplitter

	// Separators in order of preference, coarse to fine
	separators []string
}

// segment is an intermediate piece of text positioned in the original
type segment struct {
	text   string
	offset int
}

// NewSemanticChunker creates a new semantic chunker
func NewSemanticChunker(config *ChunkerConfig) (*SemanticChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	separators := config.Separators
	if len(separators) == 0 {
		separators = defaultSemanticSeparators
	}

	return &SemanticChunker{
		config:           config,
		tokenEstimator:   estimatorForConfig(config),
		sentenceSplitter: NewSentenceSplitter(),
		separators:       separators,
	}, nil
}

// Chunk splits text into semantically bounded chunks
func (sc *SemanticChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return sc.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits text into chunks with additional metadata
func (sc *SemanticChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	startTime := time.Now()

	segments := sc.splitRecursive(text, 0, 0)

	chunks := []*Chunk{}
	var current []segment
	currentLen := 0

	for _, seg := range segments {
		if currentLen+len(seg.text) > sc.config.ChunkSize && len(current) > 0 {
			chunks = append(chunks, sc.createChunk(current, metadata))

			overlap := sc.calculateOverlap(current)
			current = overlap
			currentLen = 0
			for _, o := range overlap {
				currentLen += len(o.text)
			}

			// Carried overlap that would push the next chunk past the
			// limit is dropped rather than emitted oversized
			if currentLen+len(seg.text) > sc.config.ChunkSize {
				current = nil
				currentLen = 0
			}
		}

		current = append(current, seg)
		currentLen += len(seg.text)
	}

	if len(current) > 0 {
		chunks = append(chunks, sc.createChunk(current, metadata))
	}

	applyRecordMetadata(chunks, string(ChunkerTypeSemantic))

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeSemantic, sc.config, stats)

	return chunks, nil
}

// splitRecursive breaks text into segments no larger than ChunkSize,
// trying each separator in the hierarchy and descending a level for any
// piece that is still too large
func (sc *SemanticChunker) splitRecursive(text string, level, offset int) []segment {
	if len(text) <= sc.config.ChunkSize {
		return []segment{{text: text, offset: offset}}
	}

	if level >= len(sc.separators) || sc.separators[level] == "" {
		return sc.splitByCharacterCount(text, offset)
	}

	parts := splitKeepingSeparator(text, sc.separators[level])
	if len(parts) <= 1 {
		return sc.splitRecursive(text, level+1, offset)
	}

	var segments []segment
	pos := offset
	for _, part := range parts {
		if len(part) > sc.config.ChunkSize {
			segments = append(segments, sc.splitRecursive(part, level+1, pos)...)
		} else {
			segments = append(segments, segment{text: part, offset: pos})
		}
		pos += len(part)
	}

	return segments
}

// splitByCharacterCount cuts text into ChunkSize slices as a last resort
func (sc *SemanticChunker) splitByCharacterCount(text string, offset int) []segment {
	var segments []segment
	for i := 0; i < len(text); i += sc.config.ChunkSize {
		end := i + sc.config.ChunkSize
		if end > len(text) {
			end = len(text)
		}
		segments = append(segments, segment{text: text[i:end], offset: offset + i})
	}
	return segments
}

// calculateOverlap selects trailing segments to carry into the next
// chunk, working backwards while the overlap budget allows
func (sc *SemanticChunker) calculateOverlap(segments []segment) []segment {
	if sc.config.ChunkOverlap <= 0 || len(segments) == 0 {
		return nil
	}

	var overlap []segment
	currentOverlap := 0

	for i := len(segments) - 1; i >= 0; i-- {
		if currentOverlap+len(segments[i].text) > sc.config.ChunkOverlap {
			break
		}
		overlap = append([]segment{segments[i]}, overlap...)
		currentOverlap += len(segments[i].text)
	}

	return overlap
}

// createChunk assembles accumulated segments into a scored chunk
func (sc *SemanticChunker) createChunk(segments []segment, metadata map[string]interface{}) *Chunk {
	var builder strings.Builder
	for _, seg := range segments {
		builder.WriteString(seg.text)
	}
	chunkText := strings.TrimSpace(builder.String())

	chunk := newChunk(metadata)
	chunk.Text = chunkText
	chunk.TokenCount = sc.EstimateTokens(chunkText)
	chunk.Sentences = sc.sentenceSplitter.Split(chunkText)
	chunk.StartIndex = segments[0].offset
	chunk.EndIndex = segments[len(segments)-1].offset + len(segments[len(segments)-1].text)

	chunk.Metadata["semantic_density"] = sc.semanticDensity(chunkText)
	chunk.Metadata["sentence_count"] = len(chunk.Sentences)

	return chunk
}

// semanticDensity scores how information-dense a chunk is: the mean of
// its unique-word ratio and its content-word ratio, rounded to three
// decimal places
func (sc *SemanticChunker) semanticDensity(text string) float64 {
	words := extractWords(text)
	if len(words) == 0 {
		return 0
	}

	contentWords := 0
	for _, word := range words {
		if !semanticStopWords[word] {
			contentWords++
		}
	}

	uniqueRatio := float64(countUnique(words)) / float64(len(words))
	contentRatio := float64(contentWords) / float64(len(words))

	return roundTo((uniqueRatio+contentRatio)/2, 3)
}

// EstimateTokens estimates the number of tokens in text
func (sc *SemanticChunker) EstimateTokens(text string) int {
	return sc.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (sc *SemanticChunker) GetConfig() *ChunkerConfig {
	return sc.config.Clone()
}

// SetConfig updates the chunker configuration
func (sc *SemanticChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	sc.config = config
	if len(config.Separators) > 0 {
		sc.separators = config.Separators
	}
	return nil
}

// GetChunkSize returns the configured chunk size
func (sc *SemanticChunker) GetChunkSize() int {
	return sc.config.ChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (sc *SemanticChunker) GetChunkOverlap() int {
	return sc.config.ChunkOverlap
}

// GetSupportedLanguages returns supported languages for this chunker
func (sc *SemanticChunker) GetSupportedLanguages() []string {
	return []string{"en", "es", "fr", "de", "it", "pt"}
}

// SetSeparators overrides the separator hierarchy
func (sc *SemanticChunker) SetSeparators(separators []string) error {
	if len(separators) == 0 {
		return errors.NewChunkingConfigError("separators list cannot be empty")
	}

	sc.separators = make([]string, len(separators))
	copy(sc.separators, separators)
	return nil
}

// GetSeparators returns the current separator hierarchy
func (sc *SemanticChunker) GetSeparators() []string {
	result := make([]string, len(sc.separators))
	copy(result, sc.separators)
	return result
}
