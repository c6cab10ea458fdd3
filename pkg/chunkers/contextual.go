package chunkers

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/textsplitter"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/interfaces"
	"github.com/chunklab/chunklab/pkg/types"
)

// summaryPrompt wraps the neighbor text for summarization. The trailing
// "Summary:" cue keeps completion-style models from restating the task.
const summaryPrompt = `Provide a brief summary of the following text:

%s

Summary:`

// contextualSeparators drive the base split before enrichment
var contextualSeparators = []string{"\n\n", "\n", ".", " ", ""}

// defaultContextualChunkSize and defaultContextualOverlap apply when no
// configuration is given; enrichment works best on small base chunks
const (
	defaultContextualChunkSize = 500
	defaultContextualOverlap   = 50
)

// ContextualChunker enriches each chunk with a summary of its neighbors.
// Text is first split into base chunks, then for every chunk the
// surrounding window (WindowSize chunks on each side, excluding the
// chunk itself) is summarized by the LLM and prepended as context.
//
// Summaries run on a bounded pool of Workers goroutines and results keep
// base-chunk order. When a summary call fails, or no LLM provider is
// configured, the chunk falls back to carrying the raw neighbor text and
// records the failure under summary_error. The chunk_size metadata always
// reflects the base chunk, not the enriched text.
type ContextualChunker struct {
	config *ChunkerConfig

	llmProvider interfaces.LLM

	// Token estimation function
	tokenEstimator func(string) int

	sentenceSplitter *SentenceSplitter
}

// NewContextualChunker creates a new context-enriched chunker. A nil
// llmProvider is allowed and degrades every window to raw neighbor text.
func NewContextualChunker(config *ChunkerConfig, llmProvider interfaces.LLM) (*ContextualChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
		config.ChunkSize = defaultContextualChunkSize
		config.ChunkOverlap = defaultContextualOverlap
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	if config.WindowSize <= 0 {
		config.WindowSize = 1
	}
	if config.Workers <= 0 {
		config.Workers = DefaultChunkerConfig().Workers
	}

	return &ContextualChunker{
		config:           config,
		llmProvider:      llmProvider,
		tokenEstimator:   estimatorForConfig(config),
		sentenceSplitter: NewSentenceSplitter(),
	}, nil
}

// Chunk splits text into context-enriched chunks
func (cc *ContextualChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return cc.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits text into chunks with additional metadata
func (cc *ContextualChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	startTime := time.Now()

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cc.config.ChunkSize),
		textsplitter.WithChunkOverlap(cc.config.ChunkOverlap),
		textsplitter.WithSeparators(contextualSeparators),
		textsplitter.WithKeepSeparator(true),
	)

	baseChunks, err := splitter.SplitText(text)
	if err != nil {
		return nil, errors.NewChunkingError(fmt.Sprintf("base splitting failed: %v", err))
	}
	if len(baseChunks) == 0 {
		return []*Chunk{}, nil
	}

	contextTexts := cc.neighborTexts(baseChunks)
	summaries, summaryErrs := cc.summarizeAll(ctx, contextTexts)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	windowSize := cc.config.WindowSize
	chunks := make([]*Chunk, 0, len(baseChunks))
	searchFrom := 0
	for i, baseText := range baseChunks {
		windowStart := i - windowSize
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := i + windowSize + 1
		if windowEnd > len(baseChunks) {
			windowEnd = len(baseChunks)
		}

		chunk := newChunk(metadata)
		chunk.Sentences = cc.sentenceSplitter.Split(baseText)

		if pos := strings.Index(text[searchFrom:], baseText); pos >= 0 {
			chunk.StartIndex = searchFrom + pos
			chunk.EndIndex = chunk.StartIndex + len(baseText)
			// Overlapping base chunks rewind, so advance one byte only
			searchFrom = chunk.StartIndex + 1
		} else {
			chunk.StartIndex = searchFrom
			chunk.EndIndex = searchFrom + len(baseText)
			if chunk.EndIndex > len(text) {
				chunk.EndIndex = len(text)
			}
		}

		chunk.Metadata["chunk_size"] = len(baseText)
		chunk.Metadata["window_start_idx"] = windowStart
		chunk.Metadata["window_end_idx"] = windowEnd - 1
		chunk.Metadata["has_context"] = contextTexts[i] != ""

		switch {
		case contextTexts[i] == "":
			chunk.Text = baseText
			chunk.Metadata["context"] = ""
			chunk.Metadata["context_type"] = "none"
		case summaryErrs[i] != nil:
			chunk.Text = baseText
			chunk.Metadata["context"] = contextTexts[i]
			chunk.Metadata["context_type"] = "raw_text"
			chunk.Metadata["summary_error"] = summaryErrs[i].Error()
		default:
			chunk.Text = fmt.Sprintf("Context: %s\n\nContent: %s", summaries[i], baseText)
			chunk.Metadata["context"] = summaries[i]
			chunk.Metadata["context_type"] = "summary"
		}

		chunk.TokenCount = cc.EstimateTokens(chunk.Text)
		chunks = append(chunks, chunk)
	}

	applyRecordMetadata(chunks, "context_enriched")

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeContextual, cc.config, stats)

	return chunks, nil
}

// neighborTexts joins, for each base chunk, the window around it with
// the chunk itself excluded
func (cc *ContextualChunker) neighborTexts(baseChunks []string) []string {
	windowSize := cc.config.WindowSize
	texts := make([]string, len(baseChunks))

	for i := range baseChunks {
		windowStart := i - windowSize
		if windowStart < 0 {
			windowStart = 0
		}
		windowEnd := i + windowSize + 1
		if windowEnd > len(baseChunks) {
			windowEnd = len(baseChunks)
		}

		neighbors := make([]string, 0, windowEnd-windowStart-1)
		for j := windowStart; j < windowEnd; j++ {
			if j == i {
				continue
			}
			neighbors = append(neighbors, baseChunks[j])
		}
		texts[i] = strings.Join(neighbors, " ")
	}

	return texts
}

// summarizeAll runs the summary calls on a bounded worker pool, keeping
// results aligned with their base-chunk index
func (cc *ContextualChunker) summarizeAll(ctx context.Context, contextTexts []string) ([]string, []error) {
	summaries := make([]string, len(contextTexts))
	summaryErrs := make([]error, len(contextTexts))

	sem := make(chan struct{}, cc.config.Workers)
	var wg sync.WaitGroup

	for i, contextText := range contextTexts {
		if contextText == "" {
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(i int, contextText string) {
			defer wg.Done()
			defer func() { <-sem }()
			summaries[i], summaryErrs[i] = cc.summarizeContext(ctx, contextText)
		}(i, contextText)
	}

	wg.Wait()
	return summaries, summaryErrs
}

// summarizeContext asks the LLM for a brief summary of the neighbor text
func (cc *ContextualChunker) summarizeContext(ctx context.Context, contextText string) (string, error) {
	if cc.llmProvider == nil {
		return "", errors.NewLLMAPIError("no LLM provider configured", nil)
	}

	prompt := fmt.Sprintf(summaryPrompt, contextText)
	response, err := cc.llmProvider.Generate(ctx, types.MessageList{
		{Role: types.MessageRoleUser, Content: prompt},
	})
	if err != nil {
		return "", errors.NewLLMAPIError("context summary generation failed", err)
	}

	summary := strings.TrimSpace(response)
	if summary == "" {
		return "", errors.NewLLMResponseParseError("model returned an empty summary", nil)
	}

	return summary, nil
}

// EstimateTokens estimates the number of tokens in text
func (cc *ContextualChunker) EstimateTokens(text string) int {
	return cc.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (cc *ContextualChunker) GetConfig() *ChunkerConfig {
	return cc.config.Clone()
}

// SetConfig updates the chunker configuration
func (cc *ContextualChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	if config.WindowSize <= 0 {
		config.WindowSize = 1
	}
	if config.Workers <= 0 {
		config.Workers = DefaultChunkerConfig().Workers
	}

	cc.config = config
	return nil
}

// GetChunkSize returns the configured chunk size
func (cc *ContextualChunker) GetChunkSize() int {
	return cc.config.ChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (cc *ContextualChunker) GetChunkOverlap() int {
	return cc.config.ChunkOverlap
}

// GetSupportedLanguages returns supported languages for this chunker
func (cc *ContextualChunker) GetSupportedLanguages() []string {
	return []string{"*"}
}
