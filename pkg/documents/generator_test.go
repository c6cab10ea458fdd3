package documents

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chunklab/chunklab/pkg/types"
)

func TestGeneratorDeterministic(t *testing.T) {
	first := NewGenerator(DefaultGeneratorConfig()).Generate()
	second := NewGenerator(DefaultGeneratorConfig()).Generate()
	assert.Equal(t, first.Content, second.Content)

	reseeded := NewGenerator(&GeneratorConfig{
		Sections:                 5,
		MaxParagraphsPerSection:  4,
		MaxSentencesPerParagraph: 8,
		Seed:                     7,
	}).Generate()
	assert.NotEqual(t, first.Content, reseeded.Content)
}

func TestGeneratorStructure(t *testing.T) {
	doc := NewGenerator(nil).Generate()

	assert.Equal(t, types.DocumentFormatGenerated, doc.Format)
	assert.True(t, strings.HasPrefix(doc.Content, "# RAG Chunking Test Document\n\n"))

	for section := 1; section <= 5; section++ {
		assert.Contains(t, doc.Content, fmt.Sprintf("## Section %d:", section))
	}
	assert.Equal(t, 5, strings.Count(doc.Content, "---\n\n"))

	injected, ok := doc.Metadata["facts_injected"].(int)
	require.True(t, ok)
	assert.GreaterOrEqual(t, injected, 0)
	assert.LessOrEqual(t, injected, len(TargetFacts()))
	assert.Equal(t, injected, strings.Count(doc.Content, "[TARGET FACT:"))
}

func TestGeneratorSentences(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig())

	for i := 0; i < 20; i++ {
		sentence := strings.TrimSpace(g.sentence())
		assert.True(t, strings.HasSuffix(sentence, "."), sentence)

		words := strings.Fields(sentence)
		assert.GreaterOrEqual(t, len(words), 6)
		assert.LessOrEqual(t, len(words), 13)
		assert.Equal(t, strings.ToUpper(words[0][:1]), words[0][:1])
	}
}

func TestGeneratorList(t *testing.T) {
	g := NewGenerator(DefaultGeneratorConfig())

	list := g.list()
	assert.True(t, strings.HasSuffix(list, "\n\n"))

	lines := strings.Split(strings.TrimRight(list, "\n"), "\n")
	assert.GreaterOrEqual(t, len(lines), 3)
	assert.LessOrEqual(t, len(lines), 6)
	for _, line := range lines {
		numbered := strings.HasPrefix(line, "1.") || strings.HasPrefix(line, "2.") ||
			strings.HasPrefix(line, "3.") || strings.HasPrefix(line, "4.") ||
			strings.HasPrefix(line, "5.") || strings.HasPrefix(line, "6.")
		assert.True(t, numbered || strings.HasPrefix(line, "* "), line)
	}
}

func TestTargetFactsCopy(t *testing.T) {
	facts := TargetFacts()
	require.Len(t, facts, 5)

	facts[0] = "mutated"
	assert.NotEqual(t, "mutated", TargetFacts()[0])
}

func TestGeneratorToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus", "generated.md")

	doc, err := NewGenerator(nil).GenerateToFile(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Content, string(data))
	assert.Equal(t, "generated.md", doc.Name)
	assert.Equal(t, path, doc.Path)
}

func TestGeneratedDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "generated.md")
	generated, err := NewGenerator(nil).GenerateToFile(path)
	require.NoError(t, err)

	loaded, err := NewLoaderFactory().Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, types.DocumentFormatMarkdown, loaded.Format)
	assert.Contains(t, loaded.Content, "RAG Chunking Test Document")

	if generated.Metadata["facts_injected"].(int) > 0 {
		assert.Contains(t, loaded.Content, "[TARGET FACT:")
	}
}
