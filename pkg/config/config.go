// Package config provides configuration management for chunklab
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/interfaces"
)

// BaseConfig provides common configuration functionality
type BaseConfig struct {
	mu        sync.RWMutex
	validator *validator.Validate
}

// NewBaseConfig creates a new base configuration
func NewBaseConfig() *BaseConfig {
	return &BaseConfig{
		validator: validator.New(),
	}
}

// FromJSONFile loads configuration into target from a JSON file
func (c *BaseConfig) FromJSONFile(path string, target interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return v.Unmarshal(target, decodeWithTag("json"))
}

// FromYAMLFile loads configuration into target from a YAML file
func (c *BaseConfig) FromYAMLFile(path string, target interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return v.Unmarshal(target, decodeWithTag("yaml"))
}

// decodeWithTag makes viper bind keys through the given struct tag so
// that snake_case file keys reach their fields
func decodeWithTag(tag string) viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = tag
	}
}

// ToYAMLFile saves the given configuration to a YAML file
func (c *BaseConfig) ToYAMLFile(path string, source interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	data, err := yaml.Marshal(source)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// ToJSONFile saves the given configuration to a JSON file
func (c *BaseConfig) ToJSONFile(path string, source interface{}) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	v := viper.New()
	v.SetConfigType("json")
	c.setViperValues(v, source)

	return v.WriteConfigAs(path)
}

// setViperValues uses reflection to set viper values
func (c *BaseConfig) setViperValues(v *viper.Viper, config interface{}) {
	val := reflect.ValueOf(config)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanInterface() {
			continue
		}

		tagName := fieldType.Tag.Get("json")
		if tagName == "" {
			tagName = strings.ToLower(fieldType.Name)
		} else {
			tagName = strings.Split(tagName, ",")[0]
		}

		if tagName != "" && tagName != "-" {
			v.Set(tagName, field.Interface())
		}
	}
}

// LoggerConfig represents logging configuration
type LoggerConfig struct {
	Level  string `yaml:"level" json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `yaml:"format" json:"format" validate:"omitempty,oneof=text json"`
}

// NewLoggerConfig creates a new logger configuration
func NewLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:  "info",
		Format: "text",
	}
}

// LLMConfig represents LLM provider configuration
type LLMConfig struct {
	Provider    string        `yaml:"provider" json:"provider" validate:"required,oneof=openai ollama mock"`
	Model       string        `yaml:"model" json:"model" validate:"required"`
	APIKey      string        `yaml:"api_key,omitempty" json:"api_key,omitempty"`
	BaseURL     string        `yaml:"base_url,omitempty" json:"base_url,omitempty"`
	MaxTokens   int           `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
	Temperature float64       `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	TopP        float64       `yaml:"top_p,omitempty" json:"top_p,omitempty"`
	Timeout     time.Duration `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// NewLLMConfig creates a new LLM configuration defaulting to the offline mock
func NewLLMConfig() *LLMConfig {
	return &LLMConfig{
		Provider:    "mock",
		Model:       "mock-chunker",
		MaxTokens:   1024,
		Temperature: 0.7,
		TopP:        0.9,
		Timeout:     30 * time.Second,
	}
}

// FixedChunkerConfig configures the fixed-size strategy
type FixedChunkerConfig struct {
	ChunkSize    int    `yaml:"chunk_size" json:"chunk_size" validate:"required,gt=0"`
	ChunkOverlap int    `yaml:"chunk_overlap" json:"chunk_overlap" validate:"gte=0"`
	Separator    string `yaml:"separator,omitempty" json:"separator,omitempty"`
}

// SemanticChunkerConfig configures the semantic strategy
type SemanticChunkerConfig struct {
	ChunkSize    int      `yaml:"chunk_size" json:"chunk_size" validate:"required,gt=0"`
	ChunkOverlap int      `yaml:"chunk_overlap" json:"chunk_overlap" validate:"gte=0"`
	Separators   []string `yaml:"separators,omitempty" json:"separators,omitempty"`
}

// AdaptiveChunkerConfig configures the complexity-driven strategy
type AdaptiveChunkerConfig struct {
	MinChunkSize int `yaml:"min_chunk_size" json:"min_chunk_size" validate:"required,gt=0"`
	MaxChunkSize int `yaml:"max_chunk_size" json:"max_chunk_size" validate:"required,gtefield=MinChunkSize"`
	MinOverlap   int `yaml:"min_overlap" json:"min_overlap" validate:"gte=0"`
	MaxOverlap   int `yaml:"max_overlap" json:"max_overlap" validate:"gtefield=MinOverlap"`
}

// AIDrivenChunkerConfig configures the LLM-planned strategy
type AIDrivenChunkerConfig struct {
	MaxChunks         int `yaml:"max_chunks" json:"max_chunks" validate:"required,gt=0"`
	FallbackChunkSize int `yaml:"fallback_chunk_size" json:"fallback_chunk_size" validate:"required,gt=0"`
	FallbackOverlap   int `yaml:"fallback_overlap" json:"fallback_overlap" validate:"gte=0"`
}

// ContextualChunkerConfig configures the context-enriched strategy
type ContextualChunkerConfig struct {
	ChunkSize    int `yaml:"chunk_size" json:"chunk_size" validate:"required,gt=0"`
	ChunkOverlap int `yaml:"chunk_overlap" json:"chunk_overlap" validate:"gte=0"`
	WindowSize   int `yaml:"window_size" json:"window_size" validate:"gte=0"`
	Workers      int `yaml:"workers,omitempty" json:"workers,omitempty" validate:"omitempty,gt=0"`
}

// CodeChunkerConfig configures the code-aware strategy
type CodeChunkerConfig struct {
	ChunkSize    int    `yaml:"chunk_size" json:"chunk_size" validate:"required,gt=0"`
	ChunkOverlap int    `yaml:"chunk_overlap" json:"chunk_overlap" validate:"gte=0"`
	Language     string `yaml:"language,omitempty" json:"language,omitempty"`
}

// ChunkersConfig groups the per-strategy sections. Tokenizer selects the
// token counting backend shared by all strategies.
type ChunkersConfig struct {
	Tokenizer  string                   `yaml:"tokenizer,omitempty" json:"tokenizer,omitempty" validate:"omitempty,oneof=simple tiktoken"`
	Fixed      *FixedChunkerConfig      `yaml:"fixed" json:"fixed"`
	Semantic   *SemanticChunkerConfig   `yaml:"semantic" json:"semantic"`
	Adaptive   *AdaptiveChunkerConfig   `yaml:"adaptive" json:"adaptive"`
	AIDriven   *AIDrivenChunkerConfig   `yaml:"aidriven" json:"aidriven"`
	Contextual *ContextualChunkerConfig `yaml:"contextual" json:"contextual"`
	Code       *CodeChunkerConfig       `yaml:"code" json:"code"`
}

// NewChunkersConfig creates chunker sections with the stock defaults
func NewChunkersConfig() *ChunkersConfig {
	return &ChunkersConfig{
		Tokenizer: "simple",
		Fixed: &FixedChunkerConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			Separator:    "\n\n",
		},
		Semantic: &SemanticChunkerConfig{
			ChunkSize:    1000,
			ChunkOverlap: 100,
		},
		Adaptive: &AdaptiveChunkerConfig{
			MinChunkSize: 300,
			MaxChunkSize: 1000,
			MinOverlap:   30,
			MaxOverlap:   150,
		},
		AIDriven: &AIDrivenChunkerConfig{
			MaxChunks:         5,
			FallbackChunkSize: 1000,
			FallbackOverlap:   100,
		},
		Contextual: &ContextualChunkerConfig{
			ChunkSize:    500,
			ChunkOverlap: 50,
			WindowSize:   1,
			Workers:      4,
		},
		Code: &CodeChunkerConfig{
			ChunkSize:    100,
			ChunkOverlap: 15,
			Language:     "python",
		},
	}
}

// IOConfig represents input/output configuration
type IOConfig struct {
	InputPath string `yaml:"input_path,omitempty" json:"input_path,omitempty"`
	OutputDir string `yaml:"output_dir" json:"output_dir" validate:"required"`
	Generate  bool   `yaml:"generate" json:"generate"`
	Seed      int64  `yaml:"seed,omitempty" json:"seed,omitempty"`
}

// NewIOConfig creates a new IO configuration
func NewIOConfig() *IOConfig {
	return &IOConfig{
		OutputDir: "output",
		Generate:  true,
		Seed:      42,
	}
}

// ChunkLabConfig is the root configuration
type ChunkLabConfig struct {
	base     *BaseConfig
	Logger   *LoggerConfig   `yaml:"logger" json:"logger"`
	LLM      *LLMConfig      `yaml:"llm" json:"llm" validate:"required"`
	Chunkers *ChunkersConfig `yaml:"chunkers" json:"chunkers" validate:"required"`
	IO       *IOConfig       `yaml:"io" json:"io" validate:"required"`
}

// NewChunkLabConfig creates a configuration with full defaults
func NewChunkLabConfig() *ChunkLabConfig {
	return &ChunkLabConfig{
		base:     NewBaseConfig(),
		Logger:   NewLoggerConfig(),
		LLM:      NewLLMConfig(),
		Chunkers: NewChunkersConfig(),
		IO:       NewIOConfig(),
	}
}

// FromJSONFile loads the configuration from a JSON file
func (c *ChunkLabConfig) FromJSONFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.NewConfigNotFoundError(path)
	}
	return c.ensureBase().FromJSONFile(path, c)
}

// FromYAMLFile loads the configuration from a YAML file
func (c *ChunkLabConfig) FromYAMLFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.NewConfigNotFoundError(path)
	}
	return c.ensureBase().FromYAMLFile(path, c)
}

// ToYAMLFile saves the configuration to a YAML file
func (c *ChunkLabConfig) ToYAMLFile(path string) error {
	return c.ensureBase().ToYAMLFile(path, c)
}

func (c *ChunkLabConfig) ensureBase() *BaseConfig {
	if c.base == nil {
		c.base = NewBaseConfig()
	}
	return c.base
}

// ApplyEnv overlays CHUNKLAB_-prefixed environment variables onto the config.
// Only the secret-bearing and frequently overridden keys are mapped.
func (c *ChunkLabConfig) ApplyEnv() {
	v := LoadFromEnv("CHUNKLAB")
	if key := v.GetString("llm_api_key"); key != "" {
		c.LLM.APIKey = key
	}
	if url := v.GetString("llm_base_url"); url != "" {
		c.LLM.BaseURL = url
	}
	if provider := v.GetString("llm_provider"); provider != "" {
		c.LLM.Provider = provider
	}
	if model := v.GetString("llm_model"); model != "" {
		c.LLM.Model = model
	}
	if level := v.GetString("log_level"); level != "" {
		c.Logger.Level = level
	}
}

// Validate checks the configuration before any processing starts
func (c *ChunkLabConfig) Validate() error {
	if err := c.ensureBase().validator.Struct(c); err != nil {
		return errors.NewConfigInvalidError(err.Error())
	}

	ch := c.Chunkers
	if ch.Fixed != nil && ch.Fixed.ChunkOverlap >= ch.Fixed.ChunkSize {
		return errors.NewConfigInvalidError(fmt.Sprintf(
			"fixed: overlap %d must be smaller than chunk size %d",
			ch.Fixed.ChunkOverlap, ch.Fixed.ChunkSize))
	}
	if ch.Semantic != nil && ch.Semantic.ChunkOverlap >= ch.Semantic.ChunkSize {
		return errors.NewConfigInvalidError(fmt.Sprintf(
			"semantic: overlap %d must be smaller than chunk size %d",
			ch.Semantic.ChunkOverlap, ch.Semantic.ChunkSize))
	}
	if ch.Adaptive != nil {
		if ch.Adaptive.MinChunkSize > ch.Adaptive.MaxChunkSize {
			return errors.NewConfigInvalidError(fmt.Sprintf(
				"adaptive: min chunk size %d must not exceed max chunk size %d",
				ch.Adaptive.MinChunkSize, ch.Adaptive.MaxChunkSize))
		}
		if ch.Adaptive.MinOverlap > ch.Adaptive.MaxOverlap {
			return errors.NewConfigInvalidError(fmt.Sprintf(
				"adaptive: min overlap %d must not exceed max overlap %d",
				ch.Adaptive.MinOverlap, ch.Adaptive.MaxOverlap))
		}
		if ch.Adaptive.MaxOverlap >= ch.Adaptive.MinChunkSize {
			return errors.NewConfigInvalidError(fmt.Sprintf(
				"adaptive: max overlap %d must be smaller than min chunk size %d",
				ch.Adaptive.MaxOverlap, ch.Adaptive.MinChunkSize))
		}
	}
	if ch.Contextual != nil && ch.Contextual.ChunkOverlap >= ch.Contextual.ChunkSize {
		return errors.NewConfigInvalidError(fmt.Sprintf(
			"contextual: overlap %d must be smaller than chunk size %d",
			ch.Contextual.ChunkOverlap, ch.Contextual.ChunkSize))
	}
	if ch.Code != nil && ch.Code.ChunkOverlap >= ch.Code.ChunkSize {
		return errors.NewConfigInvalidError(fmt.Sprintf(
			"code: overlap %d must be smaller than chunk size %d",
			ch.Code.ChunkOverlap, ch.Code.ChunkSize))
	}
	if ch.AIDriven != nil && ch.AIDriven.FallbackOverlap >= ch.AIDriven.FallbackChunkSize {
		return errors.NewConfigInvalidError(fmt.Sprintf(
			"aidriven: fallback overlap %d must be smaller than fallback chunk size %d",
			ch.AIDriven.FallbackOverlap, ch.AIDriven.FallbackChunkSize))
	}

	return nil
}

// ConfigManager implements the configuration manager interface
type ConfigManager struct {
	config map[string]interface{}
	mu     sync.RWMutex
	viper  *viper.Viper
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() interfaces.ConfigManager {
	return &ConfigManager{
		config: make(map[string]interface{}),
		viper:  viper.New(),
	}
}

// Load loads configuration from a file
func (cm *ConfigManager) Load(ctx context.Context, path string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.viper.SetConfigFile(path)

	if err := cm.viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	cm.config = cm.viper.AllSettings()
	return nil
}

// Get retrieves a configuration value
func (cm *ConfigManager) Get(key string) interface{} {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.viper.Get(key)
}

// Set sets a configuration value
func (cm *ConfigManager) Set(key string, value interface{}) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.viper.Set(key, value)
	cm.config[key] = value
	return nil
}

// Save saves configuration to a file
func (cm *ConfigManager) Save(ctx context.Context, path string) error {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	return cm.viper.WriteConfigAs(path)
}

// Watch watches for configuration changes
func (cm *ConfigManager) Watch(ctx context.Context, callback func(key string, value interface{})) error {
	cm.viper.WatchConfig()
	cm.viper.OnConfigChange(func(e fsnotify.Event) {
		cm.mu.Lock()
		defer cm.mu.Unlock()

		cm.config = cm.viper.AllSettings()

		for key, value := range cm.config {
			callback(key, value)
		}
	})

	return nil
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(prefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	return v
}

// MergeConfigs merges multiple configurations
func MergeConfigs(configs ...map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{})

	for _, config := range configs {
		for key, value := range config {
			result[key] = value
		}
	}

	return result
}
