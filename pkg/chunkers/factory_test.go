package chunkers

import (
	"strings"
	"testing"
)

func TestFactoryCreateChunker(t *testing.T) {
	factory := NewChunkerFactory()

	chunker, err := factory.CreateChunker(ChunkerTypeFixed, nil)
	if err != nil {
		t.Fatalf("CreateChunker(fixed) failed: %v", err)
	}
	if _, ok := chunker.(*FixedSizeChunker); !ok {
		t.Errorf("Expected *FixedSizeChunker, got %T", chunker)
	}

	chunker, err = factory.CreateChunker(ChunkerTypeSemantic, nil)
	if err != nil {
		t.Fatalf("CreateChunker(semantic) failed: %v", err)
	}
	if _, ok := chunker.(*SemanticChunker); !ok {
		t.Errorf("Expected *SemanticChunker, got %T", chunker)
	}

	chunker, err = factory.CreateChunker(ChunkerTypeAdaptive, nil)
	if err != nil {
		t.Fatalf("CreateChunker(adaptive) failed: %v", err)
	}
	if _, ok := chunker.(*AdaptiveChunker); !ok {
		t.Errorf("Expected *AdaptiveChunker, got %T", chunker)
	}

	chunker, err = factory.CreateChunker(ChunkerTypeCode, nil)
	if err != nil {
		t.Fatalf("CreateChunker(code) failed: %v", err)
	}
	if _, ok := chunker.(*CodeChunker); !ok {
		t.Errorf("Expected *CodeChunker, got %T", chunker)
	}
}

// Test that LLM-backed types refuse plain creation and point at their
// dedicated constructors
func TestFactoryLLMRequiredTypes(t *testing.T) {
	factory := NewChunkerFactory()

	if _, err := factory.CreateChunker(ChunkerTypeAIDriven, nil); err == nil || !strings.Contains(err.Error(), "CreateAIDrivenChunker") {
		t.Errorf("Expected guidance error for aidriven, got %v", err)
	}
	if _, err := factory.CreateChunker(ChunkerTypeContextual, nil); err == nil || !strings.Contains(err.Error(), "CreateContextualChunker") {
		t.Errorf("Expected guidance error for contextual, got %v", err)
	}
	if _, err := factory.CreateChunker("paragraph", nil); err == nil {
		t.Error("Expected error for unsupported chunker type")
	}
}

func TestFactoryCreateChunkerWithLLM(t *testing.T) {
	factory := NewChunkerFactory()
	mockLLM := newTestMockLLM(t)

	chunker, err := factory.CreateChunkerWithLLM(ChunkerTypeAIDriven, nil, mockLLM)
	if err != nil {
		t.Fatalf("CreateChunkerWithLLM(aidriven) failed: %v", err)
	}
	if _, ok := chunker.(*AIDrivenChunker); !ok {
		t.Errorf("Expected *AIDrivenChunker, got %T", chunker)
	}

	chunker, err = factory.CreateChunkerWithLLM(ChunkerTypeContextual, nil, mockLLM)
	if err != nil {
		t.Fatalf("CreateChunkerWithLLM(contextual) failed: %v", err)
	}
	if _, ok := chunker.(*ContextualChunker); !ok {
		t.Errorf("Expected *ContextualChunker, got %T", chunker)
	}

	// Non-LLM types route through the plain factory path
	chunker, err = factory.CreateChunkerWithLLM(ChunkerTypeFixed, nil, mockLLM)
	if err != nil {
		t.Fatalf("CreateChunkerWithLLM(fixed) failed: %v", err)
	}
	if _, ok := chunker.(*FixedSizeChunker); !ok {
		t.Errorf("Expected *FixedSizeChunker, got %T", chunker)
	}

	if _, err := factory.CreateAIDrivenChunker(nil, nil); err == nil {
		t.Error("Expected error for nil LLM provider")
	}
	if _, err := factory.CreateContextualChunker(nil, nil); err == nil {
		t.Error("Expected error for nil LLM provider")
	}
}

func TestParseChunkerType(t *testing.T) {
	tests := []struct {
		name     string
		expected ChunkerType
		wantErr  bool
	}{
		{"fixed", ChunkerTypeFixed, false},
		{"fixed-size", ChunkerTypeFixed, false},
		{"fixed_size", ChunkerTypeFixed, false},
		{"semantic", ChunkerTypeSemantic, false},
		{"adaptive", ChunkerTypeAdaptive, false},
		{"aidriven", ChunkerTypeAIDriven, false},
		{"ai-driven", ChunkerTypeAIDriven, false},
		{"ai_driven", ChunkerTypeAIDriven, false},
		{"contextual", ChunkerTypeContextual, false},
		{"context-enriched", ChunkerTypeContextual, false},
		{"context_enriched", ChunkerTypeContextual, false},
		{"code", ChunkerTypeCode, false},
		{" Fixed-Size ", ChunkerTypeFixed, false},
		{"recursive", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseChunkerType(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseChunkerType(%q): expected error, got %s", tt.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseChunkerType(%q): unexpected error: %v", tt.name, err)
			continue
		}
		if got != tt.expected {
			t.Errorf("ParseChunkerType(%q) = %s, expected %s", tt.name, got, tt.expected)
		}
	}
}

func TestCreateChunkerFromString(t *testing.T) {
	factory := NewChunkerFactory()

	chunker, err := factory.CreateChunkerFromString("semantic", nil)
	if err != nil {
		t.Fatalf("CreateChunkerFromString(semantic) failed: %v", err)
	}
	if _, ok := chunker.(*SemanticChunker); !ok {
		t.Errorf("Expected *SemanticChunker, got %T", chunker)
	}

	if _, err := factory.CreateChunkerFromString("recursive", nil); err == nil {
		t.Error("Expected error for unknown type name")
	}
}

func TestFactoryValidateConfig(t *testing.T) {
	factory := NewChunkerFactory()

	if err := factory.ValidateConfig(nil); err == nil {
		t.Error("Expected error for nil config")
	}
	if err := factory.ValidateConfig(DefaultChunkerConfig()); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}

	config := DefaultChunkerConfig()
	config.ChunkOverlap = config.ChunkSize
	if err := factory.ValidateConfig(config); err == nil {
		t.Error("Expected error when overlap reaches chunk size")
	}

	config = DefaultChunkerConfig()
	config.MinChunkSize = config.MaxChunkSize + 1
	if err := factory.ValidateConfig(config); err == nil {
		t.Error("Expected error when minimum exceeds maximum chunk size")
	}

	config = DefaultChunkerConfig()
	config.Language = ""
	if err := factory.ValidateConfig(config); err == nil {
		t.Error("Expected error for empty language")
	}
}

func TestBuildConfigFromMap(t *testing.T) {
	factory := NewChunkerFactory()

	config, err := factory.BuildConfigFromMap(map[string]interface{}{
		"chunk_size":    300,
		"chunk_overlap": 60,
		"max_chunks":    8,
		"language":      "go",
		"tokenizer":     "simple",
		"separator":     "\n",
	})
	if err != nil {
		t.Fatalf("BuildConfigFromMap failed: %v", err)
	}

	if config.ChunkSize != 300 {
		t.Errorf("Expected chunk size 300, got %d", config.ChunkSize)
	}
	if config.ChunkOverlap != 60 {
		t.Errorf("Expected chunk overlap 60, got %d", config.ChunkOverlap)
	}
	if config.MaxChunks != 8 {
		t.Errorf("Expected max chunks 8, got %d", config.MaxChunks)
	}
	if config.Language != "go" {
		t.Errorf("Expected language go, got %s", config.Language)
	}
	if config.Separator != "\n" {
		t.Errorf("Expected separator %q, got %q", "\n", config.Separator)
	}

	if _, err := factory.BuildConfigFromMap(map[string]interface{}{"chunk_size": "big"}); err == nil {
		t.Error("Expected error for non-integer chunk_size")
	}
	if _, err := factory.BuildConfigFromMap(map[string]interface{}{"chunk_size": 100, "chunk_overlap": 100}); err == nil {
		t.Error("Expected error for overlap equal to chunk size")
	}
}

func TestGetChunkerDescriptors(t *testing.T) {
	factory := NewChunkerFactory()

	descriptors := factory.GetChunkerDescriptors()
	if len(descriptors) != len(SupportedChunkerTypes()) {
		t.Fatalf("Expected %d descriptors, got %d", len(SupportedChunkerTypes()), len(descriptors))
	}

	seen := make(map[ChunkerType]bool)
	for _, descriptor := range descriptors {
		if !IsValidChunkerType(descriptor.Type) {
			t.Errorf("Descriptor has invalid type %s", descriptor.Type)
		}
		if seen[descriptor.Type] {
			t.Errorf("Duplicate descriptor for type %s", descriptor.Type)
		}
		seen[descriptor.Type] = true

		if descriptor.Name == "" || descriptor.Description == "" {
			t.Errorf("Descriptor %s missing name or description", descriptor.Type)
		}
		if len(descriptor.Features) == 0 || len(descriptor.UseCases) == 0 {
			t.Errorf("Descriptor %s missing features or use cases", descriptor.Type)
		}
	}
}

func TestGetDefaultChunker(t *testing.T) {
	factory := NewChunkerFactory()

	chunker, err := factory.GetDefaultChunker()
	if err != nil {
		t.Fatalf("GetDefaultChunker failed: %v", err)
	}
	if _, ok := chunker.(*FixedSizeChunker); !ok {
		t.Errorf("Expected *FixedSizeChunker, got %T", chunker)
	}
	if chunker.GetChunkSize() != 1000 {
		t.Errorf("Expected default chunk size 1000, got %d", chunker.GetChunkSize())
	}

	if len(factory.GetSupportedTypes()) != 6 {
		t.Errorf("Expected 6 supported types, got %d", len(factory.GetSupportedTypes()))
	}
}
