package chunkers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/interfaces"
	"github.com/chunklab/chunklab/pkg/types"
)

// chunkPlanPrompt asks the model for a complete segmentation of the
// document as a JSON array of chunk strings. The document goes last so
// that instruction text never bleeds into the material being split.
const chunkPlanPrompt = `You are a document processing expert. Analyze the following document and split it into at most %d meaningful chunks.

Guidelines:
1. Each chunk should contain complete ideas and make sense on its own
2. Complex sections should be split into smaller chunks
3. Preserve headers together with their content
4. Keep related information in the same chunk
5. Maintain the original order of the document

Return ONLY a valid JSON array of strings, where each string is one chunk:
` + "```json" + `
["chunk 1 text", "chunk 2 text", "chunk 3 text"]
` + "```" + `

Do not include any explanations or additional text outside the JSON array.

Document:
%s`

// chunkPlanPattern extracts the JSON array from a model response that
// may wrap it in code fences or prose
var chunkPlanPattern = regexp.MustCompile(`(?s)\[\s*".*"\s*\]`)

// fallbackSeparators drive the recursive splitter used when the model
// response is unusable
var fallbackSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// AIDrivenChunker delegates chunk boundary selection to an LLM: the
// whole document is sent in a single prompt and the model returns the
// chunks as a JSON array. When the call fails or the response cannot be
// parsed, the chunker degrades to recursive character splitting and
// records the reason on every emitted chunk under fallback_reason, so a
// degraded run is always distinguishable from a clean one.
type AIDrivenChunker struct {
	config *ChunkerConfig

	llmProvider interfaces.LLM

	// Token estimation function
	tokenEstimator func(string) int

	sentenceSplitter *SentenceSplitter
}

// NewAIDrivenChunker creates a new AI-driven chunker backed by the given LLM
func NewAIDrivenChunker(config *ChunkerConfig, llmProvider interfaces.LLM) (*AIDrivenChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	if llmProvider == nil {
		return nil, errors.NewChunkingConfigError("AI-driven chunking requires an LLM provider")
	}

	if config.MaxChunks <= 0 {
		config.MaxChunks = DefaultChunkerConfig().MaxChunks
	}

	return &AIDrivenChunker{
		config:           config,
		llmProvider:      llmProvider,
		tokenEstimator:   estimatorForConfig(config),
		sentenceSplitter: NewSentenceSplitter(),
	}, nil
}

// Chunk splits text using LLM-planned boundaries
func (ai *AIDrivenChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return ai.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits text into chunks with additional metadata
func (ai *AIDrivenChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	prompt := fmt.Sprintf(chunkPlanPrompt, ai.config.MaxChunks, text)
	response, err := ai.llmProvider.Generate(ctx, types.MessageList{
		{Role: types.MessageRoleUser, Content: prompt},
	})
	if err != nil {
		reason := errors.NewLLMAPIError("chunk plan generation failed", err)
		return ai.fallbackChunks(text, metadata, reason, startTime)
	}

	plan, err := parseChunkPlan(response)
	if err != nil {
		return ai.fallbackChunks(text, metadata, err, startTime)
	}

	chunkType := "ai_driven"
	if ai.llmProvider.GetProviderName() == "mock" {
		chunkType = "mock_ai_driven"
	}

	chunks := make([]*Chunk, 0, len(plan))
	searchFrom := 0
	for i, chunkText := range plan {
		chunk := newChunk(metadata)
		chunk.Text = chunkText
		chunk.TokenCount = ai.EstimateTokens(chunkText)
		chunk.Sentences = ai.sentenceSplitter.Split(chunkText)

		// The model may reword boundaries; a miss leaves the chunk at
		// the cursor rather than rewinding earlier positions
		if pos := strings.Index(text[searchFrom:], chunkText); pos >= 0 {
			chunk.StartIndex = searchFrom + pos
			chunk.EndIndex = chunk.StartIndex + len(chunkText)
			searchFrom = chunk.EndIndex
		} else {
			chunk.StartIndex = searchFrom
			chunk.EndIndex = searchFrom + len(chunkText)
			if chunk.EndIndex > len(text) {
				chunk.EndIndex = len(text)
			}
		}

		words := extractWords(chunkText)
		uniqueWords := countUnique(words)
		wordTotal := len(words)
		if wordTotal < 1 {
			wordTotal = 1
		}

		chunk.Metadata["document_position"] = roundTo(float64(i)/float64(len(plan)), 2)
		chunk.Metadata["word_count"] = len(words)
		chunk.Metadata["unique_words"] = uniqueWords
		chunk.Metadata["word_density"] = roundTo(float64(uniqueWords)/float64(wordTotal), 2)

		chunks = append(chunks, chunk)
	}

	applyRecordMetadata(chunks, chunkType)

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeAIDriven, ai.config, stats)

	return chunks, nil
}

// fallbackChunks recovers from an unusable model response with plain
// recursive splitting, stamping every chunk with the failure reason
func (ai *AIDrivenChunker) fallbackChunks(text string, metadata map[string]interface{}, reason error, startTime time.Time) ([]*Chunk, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(ai.config.ChunkSize),
		textsplitter.WithChunkOverlap(ai.config.ChunkOverlap),
		textsplitter.WithSeparators(fallbackSeparators),
		textsplitter.WithKeepSeparator(true),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, errors.NewChunkingError(fmt.Sprintf("fallback splitting failed after %v: %v", reason, err))
	}

	chunks := make([]*Chunk, 0, len(pieces))
	searchFrom := 0
	for i, piece := range pieces {
		chunk := newChunk(metadata)
		chunk.Text = piece
		chunk.TokenCount = ai.EstimateTokens(piece)
		chunk.Sentences = ai.sentenceSplitter.Split(piece)

		if pos := strings.Index(text[searchFrom:], piece); pos >= 0 {
			chunk.StartIndex = searchFrom + pos
			chunk.EndIndex = chunk.StartIndex + len(piece)
			// Overlapping pieces rewind, so only advance past the
			// non-overlapped head of this piece
			searchFrom = chunk.StartIndex + 1
		} else {
			chunk.StartIndex = searchFrom
			chunk.EndIndex = searchFrom + len(piece)
			if chunk.EndIndex > len(text) {
				chunk.EndIndex = len(text)
			}
		}

		chunk.Metadata["document_position"] = roundTo(float64(i)/float64(len(pieces)), 2)
		chunk.Metadata["fallback_reason"] = reason.Error()

		chunks = append(chunks, chunk)
	}

	applyRecordMetadata(chunks, "fallback")

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeAIDriven, ai.config, stats)

	return chunks, nil
}

// parseChunkPlan pulls the JSON array out of the model response and
// decodes it into the planned chunk texts
func parseChunkPlan(response string) ([]string, error) {
	match := chunkPlanPattern.FindString(response)
	if match == "" {
		return nil, errors.NewLLMResponseParseError("no JSON array found in model response", nil)
	}

	var plan []string
	if err := json.Unmarshal([]byte(match), &plan); err != nil {
		return nil, errors.NewLLMResponseParseError("model response is not a valid JSON array of strings", err)
	}

	trimmed := make([]string, 0, len(plan))
	for _, chunkText := range plan {
		if strings.TrimSpace(chunkText) == "" {
			continue
		}
		trimmed = append(trimmed, chunkText)
	}

	if len(trimmed) == 0 {
		return nil, errors.NewLLMResponseParseError("model returned an empty chunk plan", nil)
	}

	return trimmed, nil
}

// EstimateTokens estimates the number of tokens in text
func (ai *AIDrivenChunker) EstimateTokens(text string) int {
	return ai.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (ai *AIDrivenChunker) GetConfig() *ChunkerConfig {
	return ai.config.Clone()
}

// SetConfig updates the chunker configuration
func (ai *AIDrivenChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	if config.MaxChunks <= 0 {
		config.MaxChunks = DefaultChunkerConfig().MaxChunks
	}

	ai.config = config
	return nil
}

// GetChunkSize returns the configured chunk size
func (ai *AIDrivenChunker) GetChunkSize() int {
	return ai.config.ChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (ai *AIDrivenChunker) GetChunkOverlap() int {
	return ai.config.ChunkOverlap
}

// GetSupportedLanguages returns supported languages for this chunker
func (ai *AIDrivenChunker) GetSupportedLanguages() []string {
	return []string{"*"}
}
