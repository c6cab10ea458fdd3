package llm

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/avast/retry-go"
	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"github.com/sashabaranov/go-openai"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// OpenAILLM implements the LLM interface for OpenAI models
type OpenAILLM struct {
	*BaseLLM
	client     *openai.Client
	config     *LLMConfig
	httpClient *resty.Client
}

// NewOpenAILLM creates a new OpenAI LLM instance
func NewOpenAILLM(config *LLMConfig) (LLMProvider, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	openaiConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		openaiConfig.BaseURL = config.BaseURL
	}

	client := openai.NewClientWithConfig(openaiConfig)

	// HTTP client for custom requests
	httpClient := resty.New()
	httpClient.SetTimeout(config.Timeout)
	httpClient.SetRetryCount(3)
	httpClient.SetRetryWaitTime(1 * time.Second)
	httpClient.SetRetryMaxWaitTime(5 * time.Second)

	httpClient.SetHeader("Authorization", "Bearer "+config.APIKey)
	httpClient.SetHeader("Content-Type", "application/json")
	httpClient.SetHeader("User-Agent", "chunklab/1.0")

	llm := &OpenAILLM{
		BaseLLM:    NewBaseLLM(config.Model),
		client:     client,
		config:     config,
		httpClient: httpClient,
	}

	llm.SetMaxTokens(config.MaxTokens)
	llm.SetTemperature(config.Temperature)
	llm.SetTopP(config.TopP)
	llm.SetTimeout(config.Timeout)

	return llm, nil
}

// Generate generates text based on messages
func (o *OpenAILLM) Generate(ctx context.Context, messages types.MessageList) (string, error) {
	if err := o.ValidateMessages(messages); err != nil {
		return "", fmt.Errorf("invalid messages: %w", err)
	}

	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.GetModelName(),
		Messages:    openaiMessages,
		MaxTokens:   o.GetMaxTokens(),
		Temperature: float32(o.GetTemperature()),
		TopP:        float32(o.GetTopP()),
		Stream:      false,
	}

	var resp openai.ChatCompletionResponse
	var err error

	err = retry.Do(
		func() error {
			resp, err = o.client.CreateChatCompletion(ctx, req)
			return err
		},
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
	)

	if err != nil {
		return "", errors.NewLLMAPIError("OpenAI API request failed", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.NewLLMError("no response choices returned")
	}

	o.RecordMetrics("tokens_used", resp.Usage.TotalTokens)
	o.RecordMetrics("prompt_tokens", resp.Usage.PromptTokens)
	o.RecordMetrics("completion_tokens", resp.Usage.CompletionTokens)
	o.RecordMetrics("model", resp.Model)

	return resp.Choices[0].Message.Content, nil
}

// GenerateStream generates text with streaming support
func (o *OpenAILLM) GenerateStream(ctx context.Context, messages types.MessageList, stream chan<- string) error {
	if err := o.ValidateMessages(messages); err != nil {
		return fmt.Errorf("invalid messages: %w", err)
	}

	openaiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		openaiMessages[i] = openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       o.GetModelName(),
		Messages:    openaiMessages,
		MaxTokens:   o.GetMaxTokens(),
		Temperature: float32(o.GetTemperature()),
		TopP:        float32(o.GetTopP()),
		Stream:      true,
	}

	streamResp, err := o.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return errors.NewLLMAPIError("failed to create streaming response", err)
	}
	defer streamResp.Close()

	for {
		response, err := streamResp.Recv()
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("stream error: %w", err)
		}

		if len(response.Choices) > 0 {
			content := response.Choices[0].Delta.Content
			if content != "" {
				select {
				case stream <- content:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}

	return nil
}

// GetProviderName returns the provider name
func (o *OpenAILLM) GetProviderName() string {
	return "openai"
}

// GetSupportedModels returns supported models
func (o *OpenAILLM) GetSupportedModels() []string {
	return []string{
		"gpt-4",
		"gpt-4-32k",
		"gpt-4-1106-preview",
		"gpt-4-turbo-preview",
		"gpt-4o",
		"gpt-4o-mini",
		"gpt-3.5-turbo",
		"gpt-3.5-turbo-16k",
		"gpt-3.5-turbo-1106",
	}
}

// HealthCheck performs health check
func (o *OpenAILLM) HealthCheck(ctx context.Context) error {
	_, err := o.client.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("OpenAI health check failed: %w", err)
	}
	return nil
}

// SetConfig sets the configuration
func (o *OpenAILLM) SetConfig(config *LLMConfig) error {
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
func (o *OpenAILLM) GetConfig() *LLMConfig {
	return o.config
}

// Close closes the OpenAI client
func (o *OpenAILLM) Close() error {
	return o.BaseLLM.Close()
}

// ListModels lists available models
func (o *OpenAILLM) ListModels(ctx context.Context) ([]string, error) {
	models, err := o.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	var modelNames []string
	for _, model := range models.Models {
		modelNames = append(modelNames, model.ID)
	}

	return modelNames, nil
}

// GetModelInfo returns detailed model information
func (o *OpenAILLM) GetModelInfo() map[string]interface{} {
	info := o.BaseLLM.GetModelInfo()
	info["provider"] = o.GetProviderName()
	info["supported_models"] = o.GetSupportedModels()
	info["api_key_set"] = o.config.APIKey != ""
	info["base_url"] = o.config.BaseURL

	return info
}

// IsModelSupported checks if a model is supported
func (o *OpenAILLM) IsModelSupported(model string) bool {
	for _, supported := range o.GetSupportedModels() {
		if strings.EqualFold(supported, model) {
			return true
		}
	}
	return false
}

// WithRetry configures retry settings
func (o *OpenAILLM) WithRetry(maxRetries int, backoffStrategy backoff.BackOff) *OpenAILLM {
	o.httpClient.SetRetryCount(maxRetries)
	return o
}

// WithTimeout sets request timeout
func (o *OpenAILLM) WithTimeout(timeout time.Duration) *OpenAILLM {
	o.httpClient.SetTimeout(timeout)
	o.SetTimeout(timeout)
	return o
}
