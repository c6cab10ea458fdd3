// Package llm provides LLM (Large Language Model) client implementations
// used by the AI-driven and context-enriched chunking strategies.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chunklab/chunklab/pkg/interfaces"
	"github.com/chunklab/chunklab/pkg/types"
)

// BaseLLM provides common functionality for all LLM implementations
type BaseLLM struct {
	modelName   string
	maxTokens   int
	temperature float64
	topP        float64
	timeout     time.Duration
	metrics     map[string]interface{}
}

// NewBaseLLM creates a new base LLM instance
func NewBaseLLM(modelName string) *BaseLLM {
	return &BaseLLM{
		modelName:   modelName,
		maxTokens:   1024,
		temperature: 0.7,
		topP:        0.9,
		timeout:     30 * time.Second,
		metrics:     make(map[string]interface{}),
	}
}

// SetMaxTokens sets the maximum number of tokens
func (b *BaseLLM) SetMaxTokens(maxTokens int) {
	b.maxTokens = maxTokens
}

// SetTemperature sets the temperature for generation
func (b *BaseLLM) SetTemperature(temperature float64) {
	b.temperature = temperature
}

// SetTopP sets the top-p value for nucleus sampling
func (b *BaseLLM) SetTopP(topP float64) {
	b.topP = topP
}

// SetTimeout sets the request timeout
func (b *BaseLLM) SetTimeout(timeout time.Duration) {
	b.timeout = timeout
}

// GetMaxTokens returns the maximum number of tokens
func (b *BaseLLM) GetMaxTokens() int {
	return b.maxTokens
}

// GetTemperature returns the temperature
func (b *BaseLLM) GetTemperature() float64 {
	return b.temperature
}

// GetTopP returns the top-p value
func (b *BaseLLM) GetTopP() float64 {
	return b.topP
}

// GetTimeout returns the request timeout
func (b *BaseLLM) GetTimeout() time.Duration {
	return b.timeout
}

// GetModelName returns the model name
func (b *BaseLLM) GetModelName() string {
	return b.modelName
}

// GetModelInfo returns model information
func (b *BaseLLM) GetModelInfo() map[string]interface{} {
	return map[string]interface{}{
		"model":       b.modelName,
		"max_tokens":  b.maxTokens,
		"temperature": b.temperature,
		"top_p":       b.topP,
		"timeout":     b.timeout.String(),
		"metrics":     b.metrics,
	}
}

// ValidateMessages validates the message list
func (b *BaseLLM) ValidateMessages(messages types.MessageList) error {
	if len(messages) == 0 {
		return fmt.Errorf("empty message list")
	}

	for i, msg := range messages {
		if msg.Role == "" {
			return fmt.Errorf("message %d: role is required", i)
		}
		if msg.Content == "" {
			return fmt.Errorf("message %d: content is required", i)
		}
		if msg.Role != types.MessageRoleUser &&
			msg.Role != types.MessageRoleAssistant &&
			msg.Role != types.MessageRoleSystem {
			return fmt.Errorf("message %d: invalid role %s", i, msg.Role)
		}
	}

	return nil
}

// FormatMessages formats messages for API consumption
func (b *BaseLLM) FormatMessages(messages types.MessageList) []map[string]interface{} {
	formatted := make([]map[string]interface{}, len(messages))
	for i, msg := range messages {
		formatted[i] = map[string]interface{}{
			"role":    string(msg.Role),
			"content": msg.Content,
		}
	}
	return formatted
}

// RecordMetrics records usage metrics
func (b *BaseLLM) RecordMetrics(metric string, value interface{}) {
	b.metrics[metric] = value
}

// GetMetrics returns accumulated metrics
func (b *BaseLLM) GetMetrics() map[string]interface{} {
	return b.metrics
}

// TokenCount estimates token count for text (simple heuristic)
func (b *BaseLLM) TokenCount(text string) int {
	// ~4 characters per token
	return len(text) / 4
}

// TruncateToTokens truncates text to fit within token limit
func (b *BaseLLM) TruncateToTokens(text string, maxTokens int) string {
	if maxTokens <= 0 {
		return ""
	}

	maxChars := maxTokens * 4
	if len(text) <= maxChars {
		return text
	}

	return text[:maxChars]
}

// BuildPrompt builds a flat prompt from a message list
func (b *BaseLLM) BuildPrompt(messages types.MessageList) string {
	var builder strings.Builder

	for _, msg := range messages {
		switch msg.Role {
		case types.MessageRoleSystem:
			builder.WriteString(fmt.Sprintf("System: %s\n", msg.Content))
		case types.MessageRoleUser:
			builder.WriteString(fmt.Sprintf("User: %s\n", msg.Content))
		case types.MessageRoleAssistant:
			builder.WriteString(fmt.Sprintf("Assistant: %s\n", msg.Content))
		}
	}

	return builder.String()
}

// Close provides default close implementation
func (b *BaseLLM) Close() error {
	return nil
}

// LLMConfig represents configuration for LLM instances
type LLMConfig struct {
	Provider    string                 `json:"provider"`
	Model       string                 `json:"model"`
	APIKey      string                 `json:"api_key"`
	BaseURL     string                 `json:"base_url"`
	MaxTokens   int                    `json:"max_tokens"`
	Temperature float64                `json:"temperature"`
	TopP        float64                `json:"top_p"`
	Timeout     time.Duration          `json:"timeout"`
	Extra       map[string]interface{} `json:"extra"`
}

// Validate validates the LLM configuration
func (c *LLMConfig) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.TopP < 0 || c.TopP > 1 {
		return fmt.Errorf("top_p must be between 0 and 1")
	}
	return nil
}

// DefaultLLMConfig returns the default LLM configuration. The mock
// provider keeps every strategy runnable without network access.
func DefaultLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:    "mock",
		Model:       "mock-chunker",
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
		Timeout:     30 * time.Second,
		Extra:       make(map[string]interface{}),
	}
}

// LLMProvider defines the interface for LLM provider implementations
type LLMProvider interface {
	interfaces.LLM
	GetSupportedModels() []string
	HealthCheck(ctx context.Context) error
	SetConfig(config *LLMConfig) error
	GetConfig() *LLMConfig
}
