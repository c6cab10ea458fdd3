package chunkers

import (
	"context"
	"testing"
)

func adaptiveTestConfig() *ChunkerConfig {
	config := DefaultChunkerConfig()
	config.MinChunkSize = 150
	config.MaxChunkSize = 400
	config.MinOverlap = 10
	config.MaxOverlap = 60
	return config
}

func TestAdaptiveChunkerBasic(t *testing.T) {
	chunker, err := NewAdaptiveChunker(adaptiveTestConfig())
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}
	if len(chunks) < 2 {
		t.Fatalf("Expected multiple chunks, got %d", len(chunks))
	}

	for i, chunk := range chunks {
		if len(chunk.Text) > 400 {
			t.Errorf("Chunk %d: size %d exceeds maximum 400", i, len(chunk.Text))
		}
		// The trailing chunk may stay below the minimum when it cannot
		// merge into its predecessor
		if i < len(chunks)-1 && len(chunk.Text) < 150 {
			t.Errorf("Chunk %d: size %d below minimum 150", i, len(chunk.Text))
		}
		if chunk.Metadata["chunk_type"] != "adaptive" {
			t.Errorf("Chunk %d: expected chunk_type adaptive, got %v", i, chunk.Metadata["chunk_type"])
		}
	}
}

func TestAdaptiveChunkerComplexityMetadata(t *testing.T) {
	chunker, err := NewAdaptiveChunker(adaptiveTestConfig())
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}

	for i, chunk := range chunks {
		complexity, ok := chunk.Metadata["text_complexity"].(float64)
		if !ok {
			t.Fatalf("Chunk %d: missing text_complexity", i)
		}
		if complexity < 0 || complexity > 1 {
			t.Errorf("Chunk %d: complexity %f out of range [0,1]", i, complexity)
		}

		avg, ok := chunk.Metadata["avg_chunk_size"].(float64)
		if !ok || avg <= 0 {
			t.Errorf("Chunk %d: invalid avg_chunk_size %v", i, chunk.Metadata["avg_chunk_size"])
		}

		ratio, ok := chunk.Metadata["size_vs_avg"].(float64)
		if !ok || ratio <= 0 {
			t.Errorf("Chunk %d: invalid size_vs_avg %v", i, chunk.Metadata["size_vs_avg"])
		}

		if chunk.StartIndex < 0 || chunk.EndIndex > len(testText) || chunk.StartIndex >= chunk.EndIndex {
			t.Errorf("Chunk %d: position [%d:%d] out of range", i, chunk.StartIndex, chunk.EndIndex)
		}
	}
}

// Test that a handful of short sentences stays together instead of
// becoming one chunk per sentence
func TestAdaptiveChunkerShortText(t *testing.T) {
	config := DefaultChunkerConfig()
	config.MinChunkSize = 10
	config.MaxChunkSize = 100
	config.MinOverlap = 1
	config.MaxOverlap = 5

	chunker, err := NewAdaptiveChunker(config)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), "A. B. C.")
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != "A. B. C." {
		t.Errorf("Expected chunk text %q, got %q", "A. B. C.", chunks[0].Text)
	}
}

func TestAdaptiveChunkerEmptyText(t *testing.T) {
	chunker, err := NewAdaptiveChunker(nil)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), "")
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}
	if len(chunks) != 0 {
		t.Errorf("Expected no chunks for empty text, got %d", len(chunks))
	}
}

func TestAnalyzeComplexity(t *testing.T) {
	chunker, err := NewAdaptiveChunker(nil)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	if got := chunker.AnalyzeComplexity(""); got != 0 {
		t.Errorf("Expected complexity 0 for empty text, got %f", got)
	}

	repetitive := chunker.AnalyzeComplexity("go go go go go go go go. go go go go go go go go.")
	varied := chunker.AnalyzeComplexity("Stochastic gradient descent optimizes differentiable objectives. Convergence depends on curvature.")

	for _, complexity := range []float64{repetitive, varied} {
		if complexity < 0 || complexity > 1 {
			t.Errorf("Complexity %f out of range [0,1]", complexity)
		}
	}
	if repetitive >= varied {
		t.Errorf("Expected repetitive text (%f) to score below varied text (%f)", repetitive, varied)
	}
}

func TestAdaptiveChunkerConfigValidation(t *testing.T) {
	config := DefaultChunkerConfig()
	config.MinChunkSize = 0
	config.MaxChunkSize = 0
	if _, err := NewAdaptiveChunker(config); err == nil {
		t.Error("Expected error for zero size bounds")
	}

	config = DefaultChunkerConfig()
	config.MinChunkSize = 100
	config.MaxChunkSize = 200
	config.MinOverlap = 50
	config.MaxOverlap = 120
	if _, err := NewAdaptiveChunker(config); err == nil {
		t.Error("Expected error when max overlap reaches the minimum chunk size")
	}
}

func TestAdaptiveChunkerAccessors(t *testing.T) {
	chunker, err := NewAdaptiveChunker(adaptiveTestConfig())
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	if chunker.GetChunkSize() != 400 {
		t.Errorf("Expected chunk size 400, got %d", chunker.GetChunkSize())
	}
	if chunker.GetChunkOverlap() != 60 {
		t.Errorf("Expected chunk overlap 60, got %d", chunker.GetChunkOverlap())
	}
}
