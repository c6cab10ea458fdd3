package documents

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// Vocabulary for the synthetic corpus. Sentences alternate nouns and
// adjectives with a verb spliced in after the subject, which reads just
// technical enough to chunk like real documentation.
var (
	generatorWords = []string{
		"data", "system", "model", "network", "cloud", "user", "process",
		"server", "application", "database", "api", "infrastructure",
		"security", "latency", "throughput", "algorithm", "deployment",
		"container",
	}
	generatorVerbs = []string{
		"manages", "optimizes", "processes", "transmits", "stores",
		"authenticates", "computes", "analyzes",
	}
	generatorAdjectives = []string{
		"distributed", "scalable", "secure", "efficient", "redundant",
		"automated", "virtualized", "hybrid",
	}

	// targetFacts are needles planted into generated documents so that
	// retrieval over the chunked output can be scored
	targetFacts = []string{
		"The primary database password is 'Tr0ub4dour&3'.",
		"Project Alpha is scheduled to launch on October 12th, 2026.",
		"The emergency shutoff code for the main reactor is 881-ZULU.",
		"CEO Jane Doe announced a 15% increase in Q3 revenue.",
		"The legacy mainframe uses COBOL and is hosted in the basement server room.",
	}
)

// TargetFacts returns the facts planted into generated documents
func TargetFacts() []string {
	facts := make([]string, len(targetFacts))
	copy(facts, targetFacts)
	return facts
}

// GeneratorConfig controls the shape of generated documents
type GeneratorConfig struct {
	Sections                 int   `json:"sections" yaml:"sections"`
	MaxParagraphsPerSection  int   `json:"max_paragraphs_per_section" yaml:"max_paragraphs_per_section"`
	MaxSentencesPerParagraph int   `json:"max_sentences_per_paragraph" yaml:"max_sentences_per_paragraph"`
	Seed                     int64 `json:"seed" yaml:"seed"`
}

// DefaultGeneratorConfig returns the generator defaults
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Sections:                 5,
		MaxParagraphsPerSection:  4,
		MaxSentencesPerParagraph: 8,
		Seed:                     42,
	}
}

// Generator produces synthetic markdown documents with planted target
// facts for exercising chunking strategies. Output is deterministic for
// a given config and seed.
type Generator struct {
	config *GeneratorConfig
	rng    *rand.Rand
}

// NewGenerator creates a generator seeded from the config
func NewGenerator(config *GeneratorConfig) *Generator {
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	return &Generator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds a synthetic markdown document. Each section gets an H2
// header, a run of paragraphs, an optional key components list, and a
// trailing thematic break. Up to five target facts are injected into
// paragraph middles.
func (g *Generator) Generate() *types.Document {
	var b strings.Builder

	b.WriteString("# RAG Chunking Test Document\n\n")
	b.WriteString("This document contains synthetic data and specific target facts to test retrieval and chunking strategies.\n\n")

	factIndex := 0
	for section := 1; section <= g.config.Sections; section++ {
		fmt.Fprintf(&b, "## Section %d: %s %s\n\n", section,
			capitalize(g.pick(generatorAdjectives)), capitalize(g.pick(generatorWords)))

		paragraphs := 2
		if g.config.MaxParagraphsPerSection > 2 {
			paragraphs += g.rng.Intn(g.config.MaxParagraphsPerSection - 1)
		}
		for p := 0; p < paragraphs; p++ {
			paragraph := g.paragraph()
			if factIndex < len(targetFacts) && g.rng.Float64() > 0.6 {
				mid := len(paragraph) / 2
				fmt.Fprintf(&b, "%s [TARGET FACT: %s] %s\n\n",
					paragraph[:mid], targetFacts[factIndex], paragraph[mid:])
				factIndex++
			} else {
				b.WriteString(paragraph)
				b.WriteString("\n\n")
			}
		}

		if g.rng.Float64() > 0.5 {
			fmt.Fprintf(&b, "### Key Components of Section %d\n\n", section)
			b.WriteString(g.list())
		}

		b.WriteString("---\n\n")
	}

	return &types.Document{
		Name:    "rag_chunking_test_doc.md",
		Format:  types.DocumentFormatGenerated,
		Content: b.String(),
		Metadata: map[string]interface{}{
			"sections":       g.config.Sections,
			"facts_injected": factIndex,
			"seed":           g.config.Seed,
		},
		LoadedAt: time.Now(),
	}
}

// GenerateToFile writes a generated document to path, creating parent
// directories as needed, and returns the document
func (g *Generator) GenerateToFile(path string) (*types.Document, error) {
	doc := g.Generate()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.NewWriteFailedError(path, err)
		}
	}
	if err := os.WriteFile(path, []byte(doc.Content), 0644); err != nil {
		return nil, errors.NewWriteFailedError(path, err)
	}

	doc.Path = path
	doc.Name = filepath.Base(path)
	return doc, nil
}

// sentence builds one technical sounding sentence ending in a period and
// a trailing space
func (g *Generator) sentence() string {
	length := 5 + g.rng.Intn(8)
	parts := make([]string, 0, length+1)
	for i := 0; i < length; i++ {
		if i%2 == 0 {
			parts = append(parts, g.pick(generatorWords))
		} else {
			parts = append(parts, g.pick(generatorAdjectives))
		}
		if i == 0 {
			parts = append(parts, g.pick(generatorVerbs))
		}
	}
	return capitalize(strings.Join(parts, " ")) + ". "
}

// paragraph builds a run of random sentences
func (g *Generator) paragraph() string {
	count := 3
	if g.config.MaxSentencesPerParagraph > 3 {
		count += g.rng.Intn(g.config.MaxSentencesPerParagraph - 2)
	}
	var b strings.Builder
	for i := 0; i < count; i++ {
		b.WriteString(g.sentence())
	}
	return strings.TrimRight(b.String(), " ")
}

// list builds a markdown list of three to six items, numbered or
// bulleted at random
func (g *Generator) list() string {
	items := 3 + g.rng.Intn(4)
	numbered := g.rng.Intn(2) == 0

	var b strings.Builder
	for i := 1; i <= items; i++ {
		if numbered {
			fmt.Fprintf(&b, "%d. %s\n", i, strings.TrimSpace(g.sentence()))
		} else {
			fmt.Fprintf(&b, "* %s\n", strings.TrimSpace(g.sentence()))
		}
	}
	b.WriteString("\n")
	return b.String()
}

func (g *Generator) pick(choices []string) string {
	return choices[g.rng.Intn(len(choices))]
}

// capitalize upper cases the first byte of s. The generator vocabulary
// is ASCII only.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
