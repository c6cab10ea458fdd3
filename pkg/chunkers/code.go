package chunkers

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/tmc/langchaingo/textsplitter"
)

// languageSeparators holds the separator ladder for each supported
// language, ordered from structural boundaries down to characters
var languageSeparators = map[string][]string{
	"python": {"\nclass ", "\ndef ", "\n\tdef ", "\n\n", "\n", " ", ""},
	"javascript": {
		"\nfunction ", "\nconst ", "\nlet ", "\nvar ", "\nclass ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ", "\ndefault ",
		"\n\n", "\n", " ", "",
	},
	"java": {
		"\nclass ", "\npublic ", "\nprotected ", "\nprivate ", "\nstatic ",
		"\nif ", "\nfor ", "\nwhile ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"go": {
		"\nfunc ", "\nvar ", "\nconst ", "\ntype ",
		"\nif ", "\nfor ", "\nswitch ", "\ncase ",
		"\n\n", "\n", " ", "",
	},
	"rust": {
		"\nfn ", "\nconst ", "\nlet ",
		"\nif ", "\nwhile ", "\nfor ", "\nloop ", "\nmatch ",
		"\n\n", "\n", " ", "",
	},
}

// genericCodeSeparators cover unknown languages
var genericCodeSeparators = []string{"\nclass ", "\ndef ", "\n\n", "\n", " ", ""}

// Structure patterns; the first match wins in the order function,
// class, import
var (
	pythonFunctionPattern = regexp.MustCompile(`def\s+([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)
	jsFunctionPattern     = regexp.MustCompile(`function\s+([a-zA-Z_$][a-zA-Z0-9_$]*)`)
	goFunctionPattern     = regexp.MustCompile(`func\s+(?:\([^)]*\)\s*)?([a-zA-Z_][a-zA-Z0-9_]*)\s*\(`)
	rustFunctionPattern   = regexp.MustCompile(`fn\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	classPattern          = regexp.MustCompile(`class\s+([a-zA-Z_][a-zA-Z0-9_]*)`)
	importPattern         = regexp.MustCompile(`import\s+([a-zA-Z_][a-zA-Z0-9_.]*)`)
)

// functionPatterns maps languages to their function declaration syntax;
// languages without an entry use the python pattern
var functionPatterns = map[string]*regexp.Regexp{
	"python":     pythonFunctionPattern,
	"javascript": jsFunctionPattern,
	"go":         goFunctionPattern,
	"rust":       rustFunctionPattern,
}

// defaultCodeChunkSize and defaultCodeOverlap apply when no
// configuration is given; code splits are deliberately small so each
// chunk stays close to a single declaration
const (
	defaultCodeChunkSize = 100
	defaultCodeOverlap   = 15
)

// CodeChunker splits source code along language-aware boundaries and
// labels each chunk with the structure it opens with. Splitting uses
// the recursive character splitter with a per-language separator ladder
// (class and function declarations before blank lines and lines), and a
// generic ladder for languages without a preset. Each chunk is then
// classified as function, class, import, or code_segment by the first
// matching declaration pattern, with the captured identifier recorded
// as structure_name.
type CodeChunker struct {
	config *ChunkerConfig

	// Token estimation function
	tokenEstimator func(string) int

	sentenceSplitter *SentenceSplitter
}

// NewCodeChunker creates a new code-aware chunker
func NewCodeChunker(config *ChunkerConfig) (*CodeChunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
		config.ChunkSize = defaultCodeChunkSize
		config.ChunkOverlap = defaultCodeOverlap
	}

	if err := validateChunkerConfig(config); err != nil {
		return nil, err
	}

	if config.Language == "" {
		config.Language = DefaultChunkerConfig().Language
	}

	return &CodeChunker{
		config:           config,
		tokenEstimator:   estimatorForConfig(config),
		sentenceSplitter: NewSentenceSplitter(),
	}, nil
}

// Chunk splits source code into structure-labeled chunks
func (cs *CodeChunker) Chunk(ctx context.Context, text string) ([]*Chunk, error) {
	return cs.ChunkWithMetadata(ctx, text, nil)
}

// ChunkWithMetadata splits source code into chunks with additional metadata
func (cs *CodeChunker) ChunkWithMetadata(ctx context.Context, text string, metadata map[string]interface{}) ([]*Chunk, error) {
	if text == "" {
		return []*Chunk{}, nil
	}

	startTime := time.Now()
	language := strings.ToLower(cs.config.Language)

	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(cs.config.ChunkSize),
		textsplitter.WithChunkOverlap(cs.config.ChunkOverlap),
		textsplitter.WithSeparators(separatorsForLanguage(language)),
		textsplitter.WithKeepSeparator(true),
	)

	pieces, err := splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("code splitting failed: %w", err)
	}

	chunks := make([]*Chunk, 0, len(pieces))
	searchFrom := 0
	for i, piece := range pieces {
		structureType, structureName := detectStructure(language, piece, i)

		chunk := newChunk(metadata)
		chunk.Text = piece
		chunk.TokenCount = cs.EstimateTokens(piece)
		chunk.Sentences = cs.sentenceSplitter.Split(piece)

		if pos := strings.Index(text[searchFrom:], piece); pos >= 0 {
			chunk.StartIndex = searchFrom + pos
			chunk.EndIndex = chunk.StartIndex + len(piece)
			// Overlapping pieces rewind, so advance one byte only
			searchFrom = chunk.StartIndex + 1
		} else {
			chunk.StartIndex = searchFrom
			chunk.EndIndex = searchFrom + len(piece)
			if chunk.EndIndex > len(text) {
				chunk.EndIndex = len(text)
			}
		}

		chunk.Metadata["chunk_type"] = structureType
		chunk.Metadata["structure_name"] = structureName
		chunk.Metadata["language"] = language
		chunk.Metadata["lines"] = strings.Count(piece, "\n") + 1

		chunks = append(chunks, chunk)
	}

	applyRecordMetadata(chunks, "code_segment")

	processingTime := time.Since(startTime)
	stats := CalculateStats(chunks, len(text), processingTime)
	attachRunStats(chunks, ChunkerTypeCode, cs.config, stats)

	return chunks, nil
}

// separatorsForLanguage returns the separator ladder for a language,
// falling back to the generic ladder
func separatorsForLanguage(language string) []string {
	if separators, ok := languageSeparators[language]; ok {
		return separators
	}
	return genericCodeSeparators
}

// detectStructure classifies a chunk by the first declaration it
// contains and names it after the captured identifier
func detectStructure(language, piece string, index int) (string, string) {
	functionPattern, ok := functionPatterns[language]
	if !ok {
		functionPattern = pythonFunctionPattern
	}

	if match := functionPattern.FindStringSubmatch(piece); match != nil {
		return "function", match[1]
	}
	if match := classPattern.FindStringSubmatch(piece); match != nil {
		return "class", match[1]
	}
	if match := importPattern.FindStringSubmatch(piece); match != nil {
		return "import", match[1]
	}

	return "code_segment", fmt.Sprintf("segment_%d", index)
}

// EstimateTokens estimates the number of tokens in text
func (cs *CodeChunker) EstimateTokens(text string) int {
	return cs.tokenEstimator(text)
}

// GetConfig returns the current chunker configuration
func (cs *CodeChunker) GetConfig() *ChunkerConfig {
	return cs.config.Clone()
}

// SetConfig updates the chunker configuration
func (cs *CodeChunker) SetConfig(config *ChunkerConfig) error {
	if err := validateChunkerConfig(config); err != nil {
		return err
	}

	if config.Language == "" {
		config.Language = DefaultChunkerConfig().Language
	}

	cs.config = config
	return nil
}

// GetChunkSize returns the configured chunk size
func (cs *CodeChunker) GetChunkSize() int {
	return cs.config.ChunkSize
}

// GetChunkOverlap returns the configured chunk overlap
func (cs *CodeChunker) GetChunkOverlap() int {
	return cs.config.ChunkOverlap
}

// GetSupportedLanguages returns languages with a dedicated separator preset
func (cs *CodeChunker) GetSupportedLanguages() []string {
	return []string{"python", "javascript", "java", "go", "rust"}
}
