// Package interfaces defines the core interfaces for chunklab components
package interfaces

import (
	"context"

	"github.com/chunklab/chunklab/pkg/types"
)

// LLM defines the interface for Large Language Model implementations
type LLM interface {
	// Generate generates text based on messages
	Generate(ctx context.Context, messages types.MessageList) (string, error)

	// GenerateStream generates text with streaming support
	GenerateStream(ctx context.Context, messages types.MessageList, stream chan<- string) error

	// GetProviderName returns the provider identifier
	GetProviderName() string

	// GetModelInfo returns model information
	GetModelInfo() map[string]interface{}

	// Close closes the LLM connection
	Close() error
}

// DocumentLoader defines the interface for loading source documents
type DocumentLoader interface {
	// Load reads and extracts plain text from the file at path
	Load(ctx context.Context, path string) (*types.Document, error)

	// SupportedExtensions returns the file extensions this loader handles
	SupportedExtensions() []string
}

// ConfigManager defines the interface for runtime configuration access
type ConfigManager interface {
	// Load loads configuration from a file
	Load(ctx context.Context, path string) error

	// Get retrieves a configuration value
	Get(key string) interface{}

	// Set sets a configuration value
	Set(key string, value interface{}) error

	// Save saves configuration to a file
	Save(ctx context.Context, path string) error

	// Watch watches for configuration changes
	Watch(ctx context.Context, callback func(key string, value interface{})) error
}

// Logger defines the interface for logging implementations
type Logger interface {
	// Debug logs debug level messages
	Debug(msg string, fields ...map[string]interface{})

	// Info logs info level messages
	Info(msg string, fields ...map[string]interface{})

	// Warn logs warning level messages
	Warn(msg string, fields ...map[string]interface{})

	// Error logs error level messages
	Error(msg string, err error, fields ...map[string]interface{})

	// Fatal logs fatal level messages and exits
	Fatal(msg string, err error, fields ...map[string]interface{})

	// WithFields returns a logger with additional fields
	WithFields(fields map[string]interface{}) Logger
}
