package chunkers

import (
	"fmt"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer provider names accepted in configuration
const (
	TokenizerProviderSimple   = "simple"
	TokenizerProviderTikToken = "tiktoken"
)

// DefaultTikTokenEncoding is the BPE encoding used when none is configured
const DefaultTikTokenEncoding = "cl100k_base"

// TokenizerProvider defines the interface for token counting backends
type TokenizerProvider interface {
	// CountTokens returns the number of tokens in the text
	CountTokens(text string) (int, error)

	// CountTokensBatch returns token counts for multiple texts
	CountTokensBatch(texts []string) ([]int, error)

	// GetModelInfo returns information about the tokenizer model
	GetModelInfo() TokenizerModelInfo

	// Close releases any resources held by the tokenizer
	Close() error
}

// TokenizerModelInfo contains information about a tokenizer model
type TokenizerModelInfo struct {
	// Name of the model or heuristic
	Name string `json:"name"`

	// Provider of the tokenizer ("tiktoken" or "simple")
	Provider string `json:"provider"`

	// Encoding is the BPE encoding name, when applicable
	Encoding string `json:"encoding,omitempty"`

	// Description of the tokenizer
	Description string `json:"description"`
}

// TokenizerConfig contains configuration for tokenizers
type TokenizerConfig struct {
	// Provider specifies which tokenizer provider to use
	Provider string `json:"provider"`

	// Encoding names the BPE encoding for the tiktoken provider
	Encoding string `json:"encoding,omitempty"`
}

// DefaultTokenizerConfig returns a default tokenizer configuration
func DefaultTokenizerConfig() *TokenizerConfig {
	return &TokenizerConfig{
		Provider: TokenizerProviderTikToken,
		Encoding: DefaultTikTokenEncoding,
	}
}

// TokenizerFactory creates tokenizer providers
type TokenizerFactory struct{}

// NewTokenizerFactory creates a new tokenizer factory
func NewTokenizerFactory() *TokenizerFactory {
	return &TokenizerFactory{}
}

// CreateTokenizer creates a tokenizer based on configuration
func (tf *TokenizerFactory) CreateTokenizer(config *TokenizerConfig) (TokenizerProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	switch config.Provider {
	case TokenizerProviderTikToken:
		return NewTikTokenProvider(config)
	case TokenizerProviderSimple, "":
		return NewSimpleTokenizerProvider(config)
	default:
		return nil, fmt.Errorf("unsupported tokenizer provider: %s", config.Provider)
	}
}

// GetSupportedProviders returns a list of supported tokenizer providers
func (tf *TokenizerFactory) GetSupportedProviders() []string {
	return []string{TokenizerProviderTikToken, TokenizerProviderSimple}
}

// TikTokenProvider counts tokens with a real BPE encoding via tiktoken-go
type TikTokenProvider struct {
	config    *TokenizerConfig
	encoding  *tiktoken.Tiktoken
	modelInfo TokenizerModelInfo
}

// NewTikTokenProvider creates a new tiktoken provider. The encoding
// dictionary is fetched and cached by the tiktoken library on first use.
func NewTikTokenProvider(config *TokenizerConfig) (*TikTokenProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	encodingName := config.Encoding
	if encodingName == "" {
		encodingName = DefaultTikTokenEncoding
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}

	return &TikTokenProvider{
		config:   config,
		encoding: encoding,
		modelInfo: TokenizerModelInfo{
			Name:        encodingName,
			Provider:    TokenizerProviderTikToken,
			Encoding:    encodingName,
			Description: "BPE token counts via tiktoken",
		},
	}, nil
}

// CountTokens returns the number of tokens in the text
func (p *TikTokenProvider) CountTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return len(p.encoding.Encode(text, nil, nil)), nil
}

// CountTokensBatch returns token counts for multiple texts
func (p *TikTokenProvider) CountTokensBatch(texts []string) ([]int, error) {
	counts := make([]int, len(texts))
	for i, text := range texts {
		count, err := p.CountTokens(text)
		if err != nil {
			return nil, fmt.Errorf("failed to count tokens for text %d: %w", i, err)
		}
		counts[i] = count
	}
	return counts, nil
}

// GetModelInfo returns information about the tokenizer model
func (p *TikTokenProvider) GetModelInfo() TokenizerModelInfo {
	return p.modelInfo
}

// Close releases any resources held by the tokenizer
func (p *TikTokenProvider) Close() error {
	return nil
}

// SimpleTokenizerProvider wraps the heuristic estimator in the provider
// interface so both backends are interchangeable
type SimpleTokenizerProvider struct {
	config    *TokenizerConfig
	modelInfo TokenizerModelInfo
}

// NewSimpleTokenizerProvider creates a new heuristic tokenizer provider
func NewSimpleTokenizerProvider(config *TokenizerConfig) (*SimpleTokenizerProvider, error) {
	if config == nil {
		config = DefaultTokenizerConfig()
	}

	return &SimpleTokenizerProvider{
		config: config,
		modelInfo: TokenizerModelInfo{
			Name:        "simple",
			Provider:    TokenizerProviderSimple,
			Description: "Word and punctuation count heuristic",
		},
	}, nil
}

// CountTokens returns the heuristic token count for the text
func (p *SimpleTokenizerProvider) CountTokens(text string) (int, error) {
	return defaultTokenEstimator(text), nil
}

// CountTokensBatch returns token counts for multiple texts
func (p *SimpleTokenizerProvider) CountTokensBatch(texts []string) ([]int, error) {
	counts := make([]int, len(texts))
	for i, text := range texts {
		counts[i] = defaultTokenEstimator(text)
	}
	return counts, nil
}

// GetModelInfo returns information about the tokenizer model
func (p *SimpleTokenizerProvider) GetModelInfo() TokenizerModelInfo {
	return p.modelInfo
}

// Close releases any resources held by the tokenizer
func (p *SimpleTokenizerProvider) Close() error {
	return nil
}

// EstimatorFromProvider adapts a TokenizerProvider to the estimator
// function the chunkers carry, falling back to the heuristic when the
// provider errors.
func EstimatorFromProvider(provider TokenizerProvider) func(string) int {
	return func(text string) int {
		count, err := provider.CountTokens(text)
		if err != nil {
			return defaultTokenEstimator(text)
		}
		return count
	}
}

// estimatorForConfig resolves the token estimator for a chunker config,
// preferring the configured provider and degrading to the heuristic when
// the provider cannot be built.
func estimatorForConfig(config *ChunkerConfig) func(string) int {
	if config == nil || config.Tokenizer == "" || config.Tokenizer == TokenizerProviderSimple {
		return defaultTokenEstimator
	}

	provider, err := NewTokenizerFactory().CreateTokenizer(&TokenizerConfig{Provider: config.Tokenizer})
	if err != nil {
		return defaultTokenEstimator
	}
	return EstimatorFromProvider(provider)
}
