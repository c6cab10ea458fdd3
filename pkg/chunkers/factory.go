package chunkers

import (
	"fmt"
	"strings"

	"github.com/chunklab/chunklab/pkg/interfaces"
)

// ChunkerFactory provides a factory for creating different types of chunkers
type ChunkerFactory struct{}

// NewChunkerFactory creates a new chunker factory
func NewChunkerFactory() *ChunkerFactory {
	return &ChunkerFactory{}
}

// CreateChunker creates a chunker instance based on the specified type and configuration
func (cf *ChunkerFactory) CreateChunker(chunkerType ChunkerType, config *ChunkerConfig) (Chunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	// Validate chunker type
	if !IsValidChunkerType(chunkerType) {
		return nil, fmt.Errorf("unsupported chunker type: %s. Supported types: %v",
			chunkerType, SupportedChunkerTypes())
	}

	switch chunkerType {
	case ChunkerTypeFixed:
		return NewFixedSizeChunker(config)

	case ChunkerTypeSemantic:
		return NewSemanticChunker(config)

	case ChunkerTypeAdaptive:
		return NewAdaptiveChunker(config)

	case ChunkerTypeCode:
		return NewCodeChunker(config)

	case ChunkerTypeAIDriven:
		// AI-driven chunker requires LLM provider - return error with guidance
		return nil, fmt.Errorf("AI-driven chunker requires LLM provider, use CreateAIDrivenChunker() instead")

	case ChunkerTypeContextual:
		// Contextual chunker requires LLM provider - return error with guidance
		return nil, fmt.Errorf("contextual chunker requires LLM provider, use CreateContextualChunker() instead")

	default:
		return nil, fmt.Errorf("chunker type %s is not implemented yet", chunkerType)
	}
}

// CreateChunkerFromString creates a chunker from a string type name
func (cf *ChunkerFactory) CreateChunkerFromString(chunkerTypeName string, config *ChunkerConfig) (Chunker, error) {
	chunkerType, err := ParseChunkerType(chunkerTypeName)
	if err != nil {
		return nil, err
	}

	return cf.CreateChunker(chunkerType, config)
}

// ParseChunkerType resolves a string type name, accepting the common
// aliases used in configuration files and reports
func ParseChunkerType(chunkerTypeName string) (ChunkerType, error) {
	chunkerTypeName = strings.ToLower(strings.TrimSpace(chunkerTypeName))

	switch chunkerTypeName {
	case "fixed", "fixed-size", "fixed_size":
		return ChunkerTypeFixed, nil
	case "semantic":
		return ChunkerTypeSemantic, nil
	case "adaptive":
		return ChunkerTypeAdaptive, nil
	case "aidriven", "ai-driven", "ai_driven":
		return ChunkerTypeAIDriven, nil
	case "contextual", "context-enriched", "context_enriched":
		return ChunkerTypeContextual, nil
	case "code":
		return ChunkerTypeCode, nil
	default:
		return "", fmt.Errorf("unknown chunker type: %s", chunkerTypeName)
	}
}

// GetDefaultChunker returns a default fixed-size chunker with standard configuration
func (cf *ChunkerFactory) GetDefaultChunker() (Chunker, error) {
	return cf.CreateChunker(ChunkerTypeFixed, DefaultChunkerConfig())
}

// GetSupportedTypes returns a list of all supported chunker types
func (cf *ChunkerFactory) GetSupportedTypes() []ChunkerType {
	return SupportedChunkerTypes()
}

// ValidateConfig validates a chunker configuration
func (cf *ChunkerFactory) ValidateConfig(config *ChunkerConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if config.ChunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive, got: %d", config.ChunkSize)
	}

	if config.ChunkOverlap < 0 {
		return fmt.Errorf("chunk overlap cannot be negative, got: %d", config.ChunkOverlap)
	}

	if config.ChunkOverlap >= config.ChunkSize {
		return fmt.Errorf("chunk overlap (%d) must be less than chunk size (%d)",
			config.ChunkOverlap, config.ChunkSize)
	}

	if config.MinChunkSize < 0 {
		return fmt.Errorf("minimum chunk size cannot be negative, got: %d", config.MinChunkSize)
	}

	if config.MaxChunkSize < 0 {
		return fmt.Errorf("maximum chunk size cannot be negative, got: %d", config.MaxChunkSize)
	}

	if config.MinChunkSize > config.MaxChunkSize {
		return fmt.Errorf("minimum chunk size (%d) cannot be greater than maximum chunk size (%d)",
			config.MinChunkSize, config.MaxChunkSize)
	}

	if config.MinOverlap > config.MaxOverlap {
		return fmt.Errorf("minimum overlap (%d) cannot be greater than maximum overlap (%d)",
			config.MinOverlap, config.MaxOverlap)
	}

	if config.MaxChunks < 0 {
		return fmt.Errorf("maximum chunk count cannot be negative, got: %d", config.MaxChunks)
	}

	if config.WindowSize < 0 {
		return fmt.Errorf("context window size cannot be negative, got: %d", config.WindowSize)
	}

	if config.Workers < 0 {
		return fmt.Errorf("worker count cannot be negative, got: %d", config.Workers)
	}

	if config.Language == "" {
		return fmt.Errorf("language cannot be empty")
	}

	return nil
}

// BuildConfigFromMap creates a chunker configuration from a map of parameters
func (cf *ChunkerFactory) BuildConfigFromMap(params map[string]interface{}) (*ChunkerConfig, error) {
	config := DefaultChunkerConfig()

	intFields := map[string]*int{
		"chunk_size":     &config.ChunkSize,
		"chunk_overlap":  &config.ChunkOverlap,
		"min_chunk_size": &config.MinChunkSize,
		"max_chunk_size": &config.MaxChunkSize,
		"min_overlap":    &config.MinOverlap,
		"max_overlap":    &config.MaxOverlap,
		"max_chunks":     &config.MaxChunks,
		"window_size":    &config.WindowSize,
		"workers":        &config.Workers,
	}
	for key, target := range intFields {
		if val, ok := params[key]; ok {
			num, ok := val.(int)
			if !ok {
				return nil, fmt.Errorf("%s must be an integer", key)
			}
			*target = num
		}
	}

	if val, ok := params["language"]; ok {
		lang, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("language must be a string")
		}
		config.Language = lang
	}

	if val, ok := params["tokenizer"]; ok {
		tokenizer, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("tokenizer must be a string")
		}
		config.Tokenizer = tokenizer
	}

	if val, ok := params["separator"]; ok {
		separator, ok := val.(string)
		if !ok {
			return nil, fmt.Errorf("separator must be a string")
		}
		config.Separator = separator
	}

	// Validate the built configuration
	if err := cf.ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// ChunkerDescriptor provides information about a chunker type
type ChunkerDescriptor struct {
	Type        ChunkerType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Features    []string    `json:"features"`
	UseCases    []string    `json:"use_cases"`
}

// GetChunkerDescriptors returns descriptive information about all chunker types
func (cf *ChunkerFactory) GetChunkerDescriptors() []ChunkerDescriptor {
	return []ChunkerDescriptor{
		{
			Type:        ChunkerTypeFixed,
			Name:        "Fixed-Size Chunker",
			Description: "Splits text into fixed-size chunks on separator boundaries with whole-piece overlap",
			Features: []string{
				"Predictable chunk sizes",
				"Separator-aligned boundaries",
				"Whole-piece overlap",
				"Byte-exact reconstruction",
			},
			UseCases: []string{
				"Baseline RAG pipelines",
				"Batch processing",
				"Simple text splitting",
			},
		},
		{
			Type:        ChunkerTypeSemantic,
			Name:        "Semantic Chunker",
			Description: "Splits text along a separator hierarchy and scores each chunk's semantic density",
			Features: []string{
				"Hierarchical separator descent",
				"Semantic density scoring",
				"Sentence-aware output",
			},
			UseCases: []string{
				"Embedding generation",
				"Semantic search",
				"General document processing",
			},
		},
		{
			Type:        ChunkerTypeAdaptive,
			Name:        "Adaptive Chunker",
			Description: "Sizes chunks by text complexity, with denser text producing smaller chunks",
			Features: []string{
				"Complexity-driven sizing",
				"Dynamic overlap",
				"Bounded chunk sizes",
			},
			UseCases: []string{
				"Mixed-density documents",
				"Technical content",
				"Quality-sensitive retrieval",
			},
		},
		{
			Type:        ChunkerTypeAIDriven,
			Name:        "AI-Driven Chunker",
			Description: "Delegates chunk boundary selection to an LLM with automatic recursive fallback",
			Features: []string{
				"LLM-planned boundaries",
				"JSON chunk plans",
				"Automatic fallback on failure",
				"Word-level analytics",
			},
			UseCases: []string{
				"High-quality document processing",
				"Premium RAG systems",
				"Content curation",
			},
		},
		{
			Type:        ChunkerTypeContextual,
			Name:        "Contextual Chunker",
			Description: "Enriches each chunk with an LLM summary of its neighboring chunks",
			Features: []string{
				"Neighbor window summarization",
				"Concurrent summary generation",
				"Graceful degradation to raw context",
			},
			UseCases: []string{
				"Advanced RAG systems",
				"Context-aware search",
				"Knowledge base construction",
			},
		},
		{
			Type:        ChunkerTypeCode,
			Name:        "Code Chunker",
			Description: "Splits source code along language-aware boundaries and labels detected structures",
			Features: []string{
				"Per-language separator presets",
				"Function and class detection",
				"Import tracking",
			},
			UseCases: []string{
				"Code search",
				"Repository indexing",
				"Code documentation",
			},
		},
	}
}

// CreateAIDrivenChunker creates an AI-driven chunker with LLM provider
func (cf *ChunkerFactory) CreateAIDrivenChunker(config *ChunkerConfig, llmProvider interfaces.LLM) (Chunker, error) {
	if llmProvider == nil {
		return nil, fmt.Errorf("LLM provider is required for AI-driven chunker")
	}

	return NewAIDrivenChunker(config, llmProvider)
}

// CreateContextualChunker creates a contextual chunker with LLM provider
func (cf *ChunkerFactory) CreateContextualChunker(config *ChunkerConfig, llmProvider interfaces.LLM) (Chunker, error) {
	if llmProvider == nil {
		return nil, fmt.Errorf("LLM provider is required for contextual chunker")
	}

	return NewContextualChunker(config, llmProvider)
}

// CreateChunkerWithLLM creates any chunker type, routing LLM-backed
// types through their dedicated constructors
func (cf *ChunkerFactory) CreateChunkerWithLLM(chunkerType ChunkerType, config *ChunkerConfig, llmProvider interfaces.LLM) (Chunker, error) {
	if config == nil {
		config = DefaultChunkerConfig()
	}

	// Validate chunker type
	if !IsValidChunkerType(chunkerType) {
		return nil, fmt.Errorf("unsupported chunker type: %s. Supported types: %v",
			chunkerType, SupportedChunkerTypes())
	}

	switch chunkerType {
	case ChunkerTypeAIDriven:
		return cf.CreateAIDrivenChunker(config, llmProvider)

	case ChunkerTypeContextual:
		return cf.CreateContextualChunker(config, llmProvider)

	default:
		// For self-contained chunkers, use the regular factory method
		return cf.CreateChunker(chunkerType, config)
	}
}
