package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/chunklab/chunklab/pkg/types"
)

// Markers the mock uses to recognize the prompts issued by the chunking
// strategies. They must stay in sync with the prompt templates in
// pkg/chunkers.
const (
	chunkPlanMarker = "Return ONLY a valid JSON array"
	summaryMarker   = "Provide a brief summary of the following text:"
	documentMarker  = "Document:\n"
	summaryTrailer  = "\n\nSummary:"
)

var maxChunksRe = regexp.MustCompile(`at most (\d+)`)

// MockLLM is a deterministic offline provider. It recognizes the chunk-plan
// and summary prompts and produces the same output a hosted model is asked
// for, so every strategy runs without network access.
type MockLLM struct {
	*BaseLLM
	config    *LLMConfig
	mu        sync.Mutex
	callCount int

	// FailGenerate forces Generate to return an error, for exercising
	// fallback paths.
	FailGenerate bool

	// FixedResponse overrides prompt recognition when non-empty.
	FixedResponse string
}

// NewMockLLM creates a new mock LLM instance
func NewMockLLM(config *LLMConfig) (LLMProvider, error) {
	if config == nil {
		config = DefaultLLMConfig()
	}

	model := config.Model
	if model == "" {
		model = "mock-chunker"
	}

	llm := &MockLLM{
		BaseLLM: NewBaseLLM(model),
		config:  config,
	}

	if config.MaxTokens > 0 {
		llm.SetMaxTokens(config.MaxTokens)
	}
	llm.SetTemperature(config.Temperature)
	llm.SetTopP(config.TopP)
	if config.Timeout > 0 {
		llm.SetTimeout(config.Timeout)
	}

	return llm, nil
}

// Generate produces a deterministic response for the recognized prompts
func (m *MockLLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := m.ValidateMessages(messages); err != nil {
		return "", fmt.Errorf("invalid messages: %w", err)
	}

	m.mu.Lock()
	m.callCount++
	failing := m.FailGenerate
	fixed := m.FixedResponse
	m.mu.Unlock()

	if failing {
		return "", fmt.Errorf("mock generate failure")
	}
	if fixed != "" {
		return fixed, nil
	}

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	prompt := messages[len(messages)-1].Content

	switch {
	case strings.Contains(prompt, chunkPlanMarker):
		return m.generateChunkPlan(prompt)
	case strings.Contains(prompt, summaryMarker):
		return m.generateSummary(prompt), nil
	default:
		return "Mock response for: " + firstSentence(prompt, 60), nil
	}
}

// generateChunkPlan reproduces the offline chunk plan: merge paragraphs
// while the running chunk stays under 500 characters, then group down to
// the requested maximum, and return the result as a JSON array of strings.
func (m *MockLLM) generateChunkPlan(prompt string) (string, error) {
	document := prompt
	if idx := strings.LastIndex(prompt, documentMarker); idx >= 0 {
		document = prompt[idx+len(documentMarker):]
	}

	maxChunks := 5
	if match := maxChunksRe.FindStringSubmatch(prompt); len(match) == 2 {
		if n, err := strconv.Atoi(match[1]); err == nil && n > 0 {
			maxChunks = n
		}
	}

	chunks := PlanChunks(document, maxChunks)

	data, err := json.Marshal(chunks)
	if err != nil {
		return "", fmt.Errorf("failed to encode chunk plan: %w", err)
	}

	return string(data), nil
}

// PlanChunks builds the deterministic paragraph-merge chunk plan
func PlanChunks(text string, maxChunks int) []string {
	var paragraphs []string
	for _, p := range strings.Split(text, "\n\n") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			paragraphs = append(paragraphs, trimmed)
		}
	}

	var chunks []string
	current := ""
	for _, para := range paragraphs {
		if current != "" && len(current)+len(para) < 500 {
			current += "\n\n" + para
		} else {
			if current != "" {
				chunks = append(chunks, current)
			}
			current = para
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}

	if maxChunks > 0 && len(chunks) > maxChunks {
		perGroup := len(chunks)/maxChunks + 1
		var grouped []string
		for i := 0; i < len(chunks); i += perGroup {
			end := i + perGroup
			if end > len(chunks) {
				end = len(chunks)
			}
			grouped = append(grouped, strings.Join(chunks[i:end], "\n\n"))
		}
		chunks = grouped
	}

	return chunks
}

// generateSummary reproduces the offline summary: the leading sentence of
// the text, truncated to 100 characters.
func (m *MockLLM) generateSummary(prompt string) string {
	text := prompt
	if idx := strings.Index(prompt, summaryMarker); idx >= 0 {
		text = prompt[idx+len(summaryMarker):]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), strings.TrimSpace(summaryTrailer))
	text = strings.TrimSpace(text)

	return "Summary: " + firstSentence(text, 100) + "..."
}

func firstSentence(text string, limit int) string {
	sentence := text
	if idx := strings.Index(text, "."); idx >= 0 {
		sentence = text[:idx]
	}
	if len(sentence) > limit {
		sentence = sentence[:limit]
	}
	return strings.TrimSpace(sentence)
}

// GenerateStream sends the full generated response as a single chunk
func (m *MockLLM) GenerateStream(ctx context.Context, messages types.MessageList, stream chan<- string) error {
	response, err := m.Generate(ctx, messages)
	if err != nil {
		return err
	}

	select {
	case stream <- response:
	case <-ctx.Done():
		return ctx.Err()
	}

	return nil
}

// GetCallCount returns how many Generate calls the mock has served
func (m *MockLLM) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// GetProviderName returns the provider name
func (m *MockLLM) GetProviderName() string {
	return "mock"
}

// GetSupportedModels returns supported models
func (m *MockLLM) GetSupportedModels() []string {
	return []string{"mock-chunker"}
}

// HealthCheck performs health check
func (m *MockLLM) HealthCheck(ctx context.Context) error {
	return nil
}

// SetConfig sets the configuration
func (m *MockLLM) SetConfig(config *LLMConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}
	m.config = config
	return nil
}

// GetConfig returns the configuration
func (m *MockLLM) GetConfig() *LLMConfig {
	return m.config
}

// GetModelInfo returns detailed model information
func (m *MockLLM) GetModelInfo() map[string]interface{} {
	info := m.BaseLLM.GetModelInfo()
	info["provider"] = m.GetProviderName()
	info["calls"] = m.GetCallCount()

	return info
}
