package chunkers

import (
	"context"
	"strings"
	"testing"

	"github.com/chunklab/chunklab/pkg/llm"
)

func newTestMockLLM(t *testing.T) *llm.MockLLM {
	t.Helper()

	provider, err := llm.NewMockLLM(nil)
	if err != nil {
		t.Fatalf("Failed to create mock LLM: %v", err)
	}
	return provider.(*llm.MockLLM)
}

func TestAIDrivenChunkerWithMockPlan(t *testing.T) {
	chunker, err := NewAIDrivenChunker(nil, newTestMockLLM(t))
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected chunks, got none")
	}
	if len(chunks) > chunker.GetConfig().MaxChunks {
		t.Errorf("Expected at most %d chunks, got %d", chunker.GetConfig().MaxChunks, len(chunks))
	}

	// The mock plan partitions the paragraphs in order, so joining the
	// chunk texts reconstructs the document
	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	if strings.Join(texts, "\n\n") != testText {
		t.Error("Joined chunk texts do not reconstruct the document")
	}

	for i, chunk := range chunks {
		if chunk.Metadata["chunk_type"] != "mock_ai_driven" {
			t.Errorf("Chunk %d: expected chunk_type mock_ai_driven, got %v", i, chunk.Metadata["chunk_type"])
		}
		if chunk.Metadata["chunk_id"] != i {
			t.Errorf("Chunk %d: expected chunk_id %d, got %v", i, i, chunk.Metadata["chunk_id"])
		}
		if chunk.Metadata["total_chunks"] != len(chunks) {
			t.Errorf("Chunk %d: expected total_chunks %d, got %v", i, len(chunks), chunk.Metadata["total_chunks"])
		}
		if testText[chunk.StartIndex:chunk.EndIndex] != chunk.Text {
			t.Errorf("Chunk %d: text does not match its recorded position", i)
		}

		wordCount, ok := chunk.Metadata["word_count"].(int)
		if !ok || wordCount == 0 {
			t.Errorf("Chunk %d: invalid word_count %v", i, chunk.Metadata["word_count"])
		}
		uniqueWords, ok := chunk.Metadata["unique_words"].(int)
		if !ok || uniqueWords > wordCount {
			t.Errorf("Chunk %d: invalid unique_words %v", i, chunk.Metadata["unique_words"])
		}
		density, ok := chunk.Metadata["word_density"].(float64)
		if !ok || density <= 0 || density > 1 {
			t.Errorf("Chunk %d: invalid word_density %v", i, chunk.Metadata["word_density"])
		}
		position, ok := chunk.Metadata["document_position"].(float64)
		if !ok || position < 0 || position >= 1 {
			t.Errorf("Chunk %d: invalid document_position %v", i, chunk.Metadata["document_position"])
		}
	}
}

// Test that planned chunks are located verbatim in the document
func TestAIDrivenChunkerPlannedPositions(t *testing.T) {
	mockLLM := newTestMockLLM(t)
	mockLLM.FixedResponse = `["Retrieval augmented generation combines search with language models.", "Evaluation closes the loop."]`

	chunker, err := NewAIDrivenChunker(nil, mockLLM)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Chunking failed: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("Expected 2 chunks, got %d", len(chunks))
	}

	if chunks[0].StartIndex != 0 {
		t.Errorf("Expected first chunk at position 0, got %d", chunks[0].StartIndex)
	}
	if chunks[1].StartIndex <= chunks[0].StartIndex {
		t.Error("Expected chunk positions to advance through the document")
	}
	for i, chunk := range chunks {
		if testText[chunk.StartIndex:chunk.EndIndex] != chunk.Text {
			t.Errorf("Chunk %d: text does not match its recorded position", i)
		}
	}
}

func TestAIDrivenChunkerFallbackOnError(t *testing.T) {
	mockLLM := newTestMockLLM(t)
	mockLLM.FailGenerate = true

	chunker, err := NewAIDrivenChunker(nil, mockLLM)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Expected fallback chunks, got error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected fallback chunks, got none")
	}

	for i, chunk := range chunks {
		if chunk.Metadata["chunk_type"] != "fallback" {
			t.Errorf("Chunk %d: expected chunk_type fallback, got %v", i, chunk.Metadata["chunk_type"])
		}
		reason, ok := chunk.Metadata["fallback_reason"].(string)
		if !ok || !strings.Contains(reason, "chunk plan generation failed") {
			t.Errorf("Chunk %d: unexpected fallback_reason %v", i, chunk.Metadata["fallback_reason"])
		}
		if chunk.Metadata["chunk_id"] != i {
			t.Errorf("Chunk %d: expected chunk_id %d, got %v", i, i, chunk.Metadata["chunk_id"])
		}
	}
}

func TestAIDrivenChunkerFallbackOnBadResponse(t *testing.T) {
	mockLLM := newTestMockLLM(t)
	mockLLM.FixedResponse = "The document has three sections covering different topics."

	chunker, err := NewAIDrivenChunker(nil, mockLLM)
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	chunks, err := chunker.Chunk(context.Background(), testText)
	if err != nil {
		t.Fatalf("Expected fallback chunks, got error: %v", err)
	}
	if len(chunks) == 0 {
		t.Fatal("Expected fallback chunks, got none")
	}

	for i, chunk := range chunks {
		if chunk.Metadata["chunk_type"] != "fallback" {
			t.Errorf("Chunk %d: expected chunk_type fallback, got %v", i, chunk.Metadata["chunk_type"])
		}
		reason, ok := chunk.Metadata["fallback_reason"].(string)
		if !ok || !strings.Contains(reason, "no JSON array found") {
			t.Errorf("Chunk %d: unexpected fallback_reason %v", i, chunk.Metadata["fallback_reason"])
		}
	}
}

func TestParseChunkPlan(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     int
		wantErr  string
	}{
		{
			name:     "fenced array",
			response: "```json\n[\"alpha\", \"beta\"]\n```",
			want:     2,
		},
		{
			name:     "array inside prose",
			response: "Here is the split: [\"only chunk\"] as requested.",
			want:     1,
		},
		{
			name:     "no array",
			response: "I cannot split this document.",
			wantErr:  "no JSON array found",
		},
		{
			name:     "mixed element types",
			response: `["alpha", 3, "beta"]`,
			wantErr:  "not a valid JSON array",
		},
		{
			name:     "only blank chunks",
			response: `["", "   "]`,
			wantErr:  "empty chunk plan",
		},
	}

	for _, tt := range tests {
		plan, err := parseChunkPlan(tt.response)
		if tt.wantErr != "" {
			if err == nil {
				t.Errorf("%s: expected error, got plan %v", tt.name, plan)
			} else if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("%s: expected error containing %q, got %v", tt.name, tt.wantErr, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.name, err)
			continue
		}
		if len(plan) != tt.want {
			t.Errorf("%s: expected %d chunks, got %d", tt.name, tt.want, len(plan))
		}
	}
}

func TestAIDrivenChunkerRequiresProvider(t *testing.T) {
	if _, err := NewAIDrivenChunker(nil, nil); err == nil {
		t.Error("Expected error for nil LLM provider")
	}
}

func TestAIDrivenChunkerEmptyText(t *testing.T) {
	chunker, err := NewAIDrivenChunker(nil, newTestMockLLM(t))
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

func TestAIDrivenChunkerCanceledContext(t *testing.T) {
	chunker, err := NewAIDrivenChunker(nil, newTestMockLLM(t))
	if err != nil {
		t.Fatalf("Failed to create chunker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := chunker.Chunk(ctx, testText); err == nil {
		t.Error("Expected error for canceled context")
	}
}
