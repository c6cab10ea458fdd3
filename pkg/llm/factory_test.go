package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLLMFactory(t *testing.T) {
	factory := NewLLMFactory()

	assert.ElementsMatch(t, []string{"openai", "ollama", "mock"}, factory.ListProviders())
}

func TestGetProvider(t *testing.T) {
	factory := NewLLMFactory()

	_, exists := factory.GetProvider("mock")
	assert.True(t, exists)

	// Lookup is case-insensitive.
	_, exists = factory.GetProvider("MOCK")
	assert.True(t, exists)

	_, exists = factory.GetProvider("anthropic")
	assert.False(t, exists)
}

func TestCreateLLM(t *testing.T) {
	factory := NewLLMFactory()

	t.Run("Mock", func(t *testing.T) {
		llm, err := factory.CreateLLM(DefaultLLMConfig())
		require.NoError(t, err)
		defer llm.Close()

		assert.Equal(t, "mock", llm.GetProviderName())
	})

	t.Run("CaseInsensitiveProvider", func(t *testing.T) {
		config := DefaultLLMConfig()
		config.Provider = "Mock"

		llm, err := factory.CreateLLM(config)
		require.NoError(t, err)
		defer llm.Close()

		assert.Equal(t, "mock", llm.GetProviderName())
	})

	t.Run("NilConfig", func(t *testing.T) {
		_, err := factory.CreateLLM(nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config cannot be nil")
	})

	t.Run("InvalidConfig", func(t *testing.T) {
		config := DefaultLLMConfig()
		config.Model = ""

		_, err := factory.CreateLLM(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("UnsupportedProvider", func(t *testing.T) {
		config := DefaultLLMConfig()
		config.Provider = "anthropic"

		_, err := factory.CreateLLM(config)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")
	})
}

func TestRegisterProvider(t *testing.T) {
	factory := NewLLMFactory()
	factory.RegisterProvider("Echo", NewMockLLM)

	assert.Contains(t, factory.ListProviders(), "echo")

	config := DefaultLLMConfig()
	config.Provider = "echo"

	llm, err := factory.CreateLLM(config)
	require.NoError(t, err)
	defer llm.Close()

	assert.Equal(t, "mock", llm.GetProviderName())
}

func TestCreateLLMFromMap(t *testing.T) {
	factory := NewLLMFactory()

	llm, err := factory.CreateLLMFromMap(map[string]interface{}{
		"provider":    "mock",
		"model":       "mock-chunker",
		"api_key":     "unused",
		"base_url":    "http://localhost:9999",
		"max_tokens":  256,
		"temperature": 0.5,
		"top_p":       0.8,
		"trace":       true,
	})
	require.NoError(t, err)
	defer llm.Close()

	config := llm.GetConfig()
	assert.Equal(t, "mock", config.Provider)
	assert.Equal(t, "mock-chunker", config.Model)
	assert.Equal(t, "unused", config.APIKey)
	assert.Equal(t, "http://localhost:9999", config.BaseURL)
	assert.Equal(t, 256, config.MaxTokens)
	assert.Equal(t, 0.5, config.Temperature)
	assert.Equal(t, 0.8, config.TopP)

	// Non-standard keys land in Extra, standard keys do not.
	assert.Equal(t, true, config.Extra["trace"])
	assert.NotContains(t, config.Extra, "provider")
	assert.NotContains(t, config.Extra, "model")
}

func TestNewOpenAILLMRequiresKey(t *testing.T) {
	_, err := NewOpenAILLM(&LLMConfig{Provider: "openai", Model: "gpt-4o-mini"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is required")

	_, err = NewOpenAILLM(nil)
	require.Error(t, err)
}

func TestNewOpenAILLM(t *testing.T) {
	llm, err := NewOpenAILLM(&LLMConfig{
		Provider:    "openai",
		Model:       "gpt-4o-mini",
		APIKey:      "sk-test",
		MaxTokens:   512,
		Temperature: 0.3,
		TopP:        0.9,
	})
	require.NoError(t, err)
	defer llm.Close()

	assert.Equal(t, "openai", llm.GetProviderName())
	assert.Contains(t, llm.GetSupportedModels(), "gpt-4o-mini")

	info := llm.GetModelInfo()
	assert.Equal(t, "gpt-4o-mini", info["model"])
	assert.Equal(t, true, info["api_key_set"])
}

func TestNewOllamaLLMRequiresModel(t *testing.T) {
	_, err := NewOllamaLLM(&LLMConfig{Provider: "ollama"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model name is required")

	_, err = NewOllamaLLM(nil)
	require.Error(t, err)
}

func TestNewOllamaLLM(t *testing.T) {
	llm, err := NewOllamaLLM(&LLMConfig{
		Provider:    "ollama",
		Model:       "llama3",
		MaxTokens:   512,
		Temperature: 0.3,
		TopP:        0.9,
	})
	require.NoError(t, err)
	defer llm.Close()

	assert.Equal(t, "ollama", llm.GetProviderName())
	assert.Contains(t, llm.GetSupportedModels(), "llama3")

	// The default server address is filled in when none is configured.
	info := llm.GetModelInfo()
	assert.Equal(t, "http://localhost:11434", info["base_url"])
}

func TestNewFromConfig(t *testing.T) {
	llm, err := NewFromConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "mock", llm.GetProviderName())
}

func TestGlobalFactory(t *testing.T) {
	assert.Same(t, GetGlobalFactory(), GetGlobalFactory())

	llm, err := CreateLLM(DefaultLLMConfig())
	require.NoError(t, err)
	defer llm.Close()

	assert.Equal(t, "mock", llm.GetProviderName())
	assert.Contains(t, ListProviders(), "mock")
}

func TestValidateProviderConfig(t *testing.T) {
	t.Run("OpenAIRequiresKey", func(t *testing.T) {
		err := ValidateProviderConfig("openai", map[string]interface{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "api_key")

		err = ValidateProviderConfig("openai", map[string]interface{}{"api_key": "sk-test"})
		assert.NoError(t, err)
	})

	t.Run("OllamaDefaultsBaseURL", func(t *testing.T) {
		config := map[string]interface{}{}
		err := ValidateProviderConfig("ollama", config)
		require.NoError(t, err)
		assert.Equal(t, "http://localhost:11434", config["base_url"])
	})

	t.Run("Mock", func(t *testing.T) {
		assert.NoError(t, ValidateProviderConfig("mock", map[string]interface{}{}))
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := ValidateProviderConfig("anthropic", map[string]interface{}{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unsupported provider")
	})
}

func TestProviderDefaults(t *testing.T) {
	openaiDefaults := ProviderDefaults("openai")
	assert.Equal(t, "gpt-3.5-turbo", openaiDefaults["model"])
	assert.Equal(t, "https://api.openai.com/v1", openaiDefaults["base_url"])

	ollamaDefaults := ProviderDefaults("ollama")
	assert.Equal(t, "llama2", ollamaDefaults["model"])
	assert.Equal(t, "http://localhost:11434", ollamaDefaults["base_url"])

	mockDefaults := ProviderDefaults("mock")
	assert.Equal(t, "mock-chunker", mockDefaults["model"])

	unknownDefaults := ProviderDefaults("anthropic")
	assert.Equal(t, "anthropic", unknownDefaults["provider"])
	assert.NotContains(t, unknownDefaults, "model")
}

func TestMergeConfigWithDefaults(t *testing.T) {
	merged := MergeConfigWithDefaults("ollama", map[string]interface{}{
		"model":    "mistral",
		"base_url": "http://ollama.internal:11434",
	})

	assert.Equal(t, "ollama", merged["provider"])
	assert.Equal(t, "mistral", merged["model"])
	assert.Equal(t, "http://ollama.internal:11434", merged["base_url"])
	assert.Equal(t, 1024, merged["max_tokens"])
}
