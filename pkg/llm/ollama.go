package llm

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// OllamaLLM implements the LLM interface for Ollama models
type OllamaLLM struct {
	*BaseLLM
	client  *resty.Client
	config  *LLMConfig
	baseURL string
}

// OllamaRequest represents a request to the Ollama API
type OllamaRequest struct {
	Model     string                   `json:"model"`
	Messages  []map[string]interface{} `json:"messages,omitempty"`
	Stream    bool                     `json:"stream"`
	Options   map[string]interface{}   `json:"options,omitempty"`
	KeepAlive string                   `json:"keep_alive,omitempty"`
}

// OllamaChatResponse represents a chat response from the Ollama API
type OllamaChatResponse struct {
	Model           string                 `json:"model"`
	CreatedAt       string                 `json:"created_at"`
	Message         map[string]interface{} `json:"message"`
	Done            bool                   `json:"done"`
	TotalDuration   int64                  `json:"total_duration,omitempty"`
	PromptEvalCount int                    `json:"prompt_eval_count,omitempty"`
	EvalCount       int                    `json:"eval_count,omitempty"`
	EvalDuration    int64                  `json:"eval_duration,omitempty"`
}

// OllamaModelInfo represents model information
type OllamaModelInfo struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	Digest     string `json:"digest"`
	ModifiedAt string `json:"modified_at"`
}

// OllamaModelsResponse represents the models list response
type OllamaModelsResponse struct {
	Models []OllamaModelInfo `json:"models"`
}

// NewOllamaLLM creates a new Ollama LLM instance
func NewOllamaLLM(config *LLMConfig) (LLMProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if config.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetTimeout(config.Timeout)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(10 * time.Second)

	client.SetHeader("Content-Type", "application/json")
	client.SetHeader("User-Agent", "chunklab/1.0")

	llm := &OllamaLLM{
		BaseLLM: NewBaseLLM(config.Model),
		client:  client,
		config:  config,
		baseURL: baseURL,
	}

	llm.SetMaxTokens(config.MaxTokens)
	llm.SetTemperature(config.Temperature)
	llm.SetTopP(config.TopP)
	llm.SetTimeout(config.Timeout)

	return llm, nil
}

// Generate generates text based on messages
func (o *OllamaLLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := o.ValidateMessages(messages); err != nil {
		return "", fmt.Errorf("invalid messages: %w", err)
	}

	req := OllamaRequest{
		Model:    o.GetModelName(),
		Messages: o.FormatMessages(messages),
		Stream:   false,
		Options: map[string]interface{}{
			"num_predict": o.GetMaxTokens(),
			"temperature": o.GetTemperature(),
			"top_p":       o.GetTopP(),
		},
		KeepAlive: "5m",
	}

	var resp OllamaChatResponse
	var err error

	err = retry.Do(
		func() error {
			response, reqErr := o.client.R().
				SetContext(ctx).
				SetBody(req).
				SetResult(&resp).
				Post("/api/chat")

			if reqErr != nil {
				return reqErr
			}

			if response.StatusCode() != 200 {
				return fmt.Errorf("HTTP %d: %s", response.StatusCode(), response.String())
			}

			return nil
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
	)

	if err != nil {
		return "", errors.NewLLMAPIError("Ollama API request failed", err)
	}

	if message, ok := resp.Message["content"].(string); ok {
		o.RecordMetrics("eval_count", resp.EvalCount)
		o.RecordMetrics("eval_duration", resp.EvalDuration)
		o.RecordMetrics("prompt_eval_count", resp.PromptEvalCount)
		o.RecordMetrics("total_duration", resp.TotalDuration)

		return message, nil
	}

	return "", errors.NewLLMError("no content in response message")
}

// GenerateStream generates text with streaming support
func (o *OllamaLLM) GenerateStream(ctx context.Context, messages types.MessageList, stream chan<- string) error {
	if err := o.ValidateMessages(messages); err != nil {
		return fmt.Errorf("invalid messages: %w", err)
	}

	req := OllamaRequest{
		Model:    o.GetModelName(),
		Messages: o.FormatMessages(messages),
		Stream:   true,
		Options: map[string]interface{}{
			"num_predict": o.GetMaxTokens(),
			"temperature": o.GetTemperature(),
			"top_p":       o.GetTopP(),
		},
		KeepAlive: "5m",
	}

	response, err := o.client.R().
		SetContext(ctx).
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/api/chat")

	if err != nil {
		return errors.NewLLMAPIError("failed to create streaming request", err)
	}
	defer response.RawBody().Close()

	if response.StatusCode() != 200 {
		return fmt.Errorf("HTTP %d: %s", response.StatusCode(), response.String())
	}

	scanner := bufio.NewScanner(response.RawBody())
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}

		var resp OllamaChatResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			continue // Skip invalid JSON lines
		}

		if message, ok := resp.Message["content"].(string); ok && message != "" {
			select {
			case stream <- message:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if resp.Done {
			break
		}
	}

	return scanner.Err()
}

// GetProviderName returns the provider name
func (o *OllamaLLM) GetProviderName() string {
	return "ollama"
}

// GetSupportedModels returns supported models
func (o *OllamaLLM) GetSupportedModels() []string {
	return []string{
		"llama2",
		"llama3",
		"mistral",
		"mixtral",
		"phi3",
		"gemma",
		"codellama",
		"qwen2",
	}
}

// ListModels lists models installed on the Ollama server
func (o *OllamaLLM) ListModels(ctx context.Context) ([]string, error) {
	var resp OllamaModelsResponse
	response, err := o.client.R().
		SetContext(ctx).
		SetResult(&resp).
		Get("/api/tags")

	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	if response.StatusCode() != 200 {
		return nil, fmt.Errorf("HTTP %d: %s", response.StatusCode(), response.String())
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// HealthCheck performs health check
func (o *OllamaLLM) HealthCheck(ctx context.Context) error {
	response, err := o.client.R().
		SetContext(ctx).
		Get("/api/tags")

	if err != nil {
		return fmt.Errorf("Ollama health check failed: %w", err)
	}

	if response.StatusCode() != 200 {
		return fmt.Errorf("Ollama health check failed: HTTP %d", response.StatusCode())
	}

	return nil
}

// SetConfig sets the configuration
func (o *OllamaLLM) SetConfig(config *LLMConfig) error {
	if config == nil {
		return fmt.Errorf("config cannot be nil")
	}

	o.config = config

	o.SetMaxTokens(config.MaxTokens)
	o.SetTemperature(config.Temperature)
	o.SetTopP(config.TopP)
	o.SetTimeout(config.Timeout)

	return nil
}

// GetConfig returns the configuration
func (o *OllamaLLM) GetConfig() *LLMConfig {
	return o.config
}

// GetModelInfo returns detailed model information
func (o *OllamaLLM) GetModelInfo() map[string]interface{} {
	info := o.BaseLLM.GetModelInfo()
	info["provider"] = o.GetProviderName()
	info["base_url"] = o.baseURL

	return info
}

// Close closes the Ollama client
func (o *OllamaLLM) Close() error {
	return o.BaseLLM.Close()
}
