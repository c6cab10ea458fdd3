// Package types defines the core types shared across chunklab
package types

import (
	"strings"
	"time"
)

// MessageRole represents the role of a message in a conversation
type MessageRole string

const (
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
	MessageRoleSystem    MessageRole = "system"
)

// MessageDict represents a single message in a conversation
type MessageDict struct {
	Role    MessageRole `json:"role" validate:"required,oneof=user assistant system"`
	Content string      `json:"content" validate:"required"`
}

// MessageList represents a list of messages in a conversation
type MessageList []MessageDict

// DocumentFormat identifies the source format of a document
type DocumentFormat string

const (
	DocumentFormatText      DocumentFormat = "text"
	DocumentFormatMarkdown  DocumentFormat = "markdown"
	DocumentFormatHTML      DocumentFormat = "html"
	DocumentFormatPDF       DocumentFormat = "pdf"
	DocumentFormatGenerated DocumentFormat = "generated"
)

// Document represents a loaded or generated source document
type Document struct {
	Name     string                 `json:"name"`
	Path     string                 `json:"path,omitempty"`
	Format   DocumentFormat         `json:"format"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	LoadedAt time.Time              `json:"loaded_at"`
}

// Size returns the document content length in bytes
func (d *Document) Size() int {
	return len(d.Content)
}

// WordCount returns the number of whitespace-delimited words in the document
func (d *Document) WordCount() int {
	return len(strings.Fields(d.Content))
}

// ErrorType categorizes errors for structured handling
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeInternal   ErrorType = "internal"
	ErrorTypeExternal   ErrorType = "external"
)

// StrategyType identifies a chunking strategy
type StrategyType string

const (
	StrategyFixed      StrategyType = "fixed"
	StrategySemantic   StrategyType = "semantic"
	StrategyAdaptive   StrategyType = "adaptive"
	StrategyAIDriven   StrategyType = "aidriven"
	StrategyContextual StrategyType = "contextual"
	StrategyCode       StrategyType = "code"
)

// AllStrategies lists every supported chunking strategy in run order
func AllStrategies() []StrategyType {
	return []StrategyType{
		StrategyFixed,
		StrategySemantic,
		StrategyAdaptive,
		StrategyAIDriven,
		StrategyContextual,
		StrategyCode,
	}
}

// IsValidStrategy reports whether s names a supported strategy
func IsValidStrategy(s StrategyType) bool {
	for _, st := range AllStrategies() {
		if st == s {
			return true
		}
	}
	return false
}
