// Package main provides the chunklab command line interface. It loads or
// generates a document, runs the selected chunking strategies over it, and
// writes one chunk report per run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/chunklab/chunklab/pkg/chunkers"
	"github.com/chunklab/chunklab/pkg/config"
	"github.com/chunklab/chunklab/pkg/documents"
	"github.com/chunklab/chunklab/pkg/interfaces"
	"github.com/chunklab/chunklab/pkg/llm"
	"github.com/chunklab/chunklab/pkg/logger"
	"github.com/chunklab/chunklab/pkg/types"
)

// Version information (set by build process)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Command line flags
var (
	strategyName = flag.String("strategy", "all", "Chunking strategy to run (fixed, semantic, adaptive, aidriven, contextual, code, all)")
	configFile   = flag.String("config", "", "Path to configuration file (.yaml, .yml or .json)")
	inputFile    = flag.String("input", "", "Path to the document to chunk (disables generation)")
	outputDir    = flag.String("output", "", "Directory for chunk reports and generated documents")
	generate     = flag.Bool("generate", false, "Generate the synthetic test document even when an input is set")
	providerName = flag.String("provider", "", "LLM provider for the AI-backed strategies (openai, ollama, mock)")
	logLevel     = flag.String("log-level", "", "Log level (debug, info, warn, error)")
	showVersion  = flag.Bool("version", false, "Show version information")
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	// Show version if requested
	if *showVersion {
		fmt.Printf("chunklab %s\n", Version)
		fmt.Printf("Build Time: %s\n", BuildTime)
		fmt.Printf("Git Commit: %s\n", GitCommit)
		os.Exit(0)
	}

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("chunklab failed: %v", err)
	}
}

func printUsage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "Usage: chunklab [flags]\n\n")
	fmt.Fprintf(out, "Splits a document with one or all chunking strategies and writes a report per run.\n\n")
	fmt.Fprintf(out, "Strategies:\n")
	for _, desc := range chunkers.NewChunkerFactory().GetChunkerDescriptors() {
		fmt.Fprintf(out, "  %-12s %s\n", desc.Type, desc.Description)
	}
	fmt.Fprintf(out, "\nFlags:\n")
	flag.PrintDefaults()
}

func run(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logg := logger.New(&logger.Config{
		Level: cfg.Logger.Level,
		JSON:  cfg.Logger.Format == "json",
	})

	logg.Info("Starting chunklab", map[string]interface{}{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	})

	strategies, err := resolveStrategies(*strategyName)
	if err != nil {
		return err
	}

	doc, err := resolveDocument(ctx, cfg, logg)
	if err != nil {
		return err
	}

	logg.Info("Document ready", map[string]interface{}{
		"name":   doc.Name,
		"format": string(doc.Format),
		"size":   len(doc.Content),
	})

	llmProvider, err := buildLLMProvider(cfg, strategies)
	if err != nil {
		return fmt.Errorf("failed to create LLM provider: %w", err)
	}

	factory := chunkers.NewChunkerFactory()
	writer := documents.NewReportWriter()

	for _, strategy := range strategies {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := runStrategy(ctx, factory, writer, cfg, doc, strategy, llmProvider, logg); err != nil {
			return fmt.Errorf("strategy %s failed: %w", strategy, err)
		}
	}

	logg.Info("All runs complete", map[string]interface{}{
		"strategies": len(strategies),
		"output_dir": cfg.IO.OutputDir,
	})

	return nil
}

// runStrategy executes one load-chunk-report cycle
func runStrategy(ctx context.Context, factory *chunkers.ChunkerFactory, writer *documents.ReportWriter,
	cfg *config.ChunkLabConfig, doc *types.Document, strategy chunkers.ChunkerType,
	llmProvider interfaces.LLM, logg interfaces.Logger) error {

	chunkerConfig := chunkerConfigFor(cfg.Chunkers, strategy)

	chunker, err := factory.CreateChunkerWithLLM(strategy, chunkerConfig, llmProvider)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	logg.Info("Running strategy", map[string]interface{}{
		"strategy":      string(strategy),
		"chunk_size":    chunkerConfig.ChunkSize,
		"chunk_overlap": chunkerConfig.ChunkOverlap,
	})

	start := time.Now()
	chunks, err := chunker.Chunk(ctx, doc.Content)
	if err != nil {
		return err
	}

	report := documents.NewRunReport(types.StrategyType(strategy), doc.Name, chunks)
	outputPath := filepath.Join(cfg.IO.OutputDir, fmt.Sprintf("%s_chunks.txt", strategy))
	if err := writer.Write(outputPath, report); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	totalSize := 0
	for _, chunk := range chunks {
		totalSize += len(chunk.Text)
	}
	avgSize := 0
	if len(chunks) > 0 {
		avgSize = totalSize / len(chunks)
	}

	logg.Info("Strategy complete", map[string]interface{}{
		"strategy":       string(strategy),
		"chunks":         len(chunks),
		"avg_chunk_size": avgSize,
		"duration":       time.Since(start).String(),
		"output":         outputPath,
	})

	return nil
}

func loadConfig() (*config.ChunkLabConfig, error) {
	cfg := config.NewChunkLabConfig()

	// Load from file if specified
	if *configFile != "" {
		ext := filepath.Ext(*configFile)
		switch ext {
		case ".json":
			if err := cfg.FromJSONFile(*configFile); err != nil {
				return nil, fmt.Errorf("failed to load JSON config: %w", err)
			}
		case ".yaml", ".yml":
			if err := cfg.FromYAMLFile(*configFile); err != nil {
				return nil, fmt.Errorf("failed to load YAML config: %w", err)
			}
		default:
			return nil, fmt.Errorf("unsupported config file format: %s", ext)
		}
	}

	// Environment overrides file values, flags override both
	cfg.ApplyEnv()

	if *inputFile != "" {
		cfg.IO.InputPath = *inputFile
		cfg.IO.Generate = false
	}
	if *generate {
		cfg.IO.Generate = true
	}
	if *outputDir != "" {
		cfg.IO.OutputDir = *outputDir
	}
	if *providerName != "" {
		cfg.LLM.Provider = *providerName
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}

	// Validate configuration before any processing
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// resolveStrategies expands the strategy flag into the run list
func resolveStrategies(name string) ([]chunkers.ChunkerType, error) {
	if name == "" || name == "all" {
		return chunkers.SupportedChunkerTypes(), nil
	}

	strategy, err := chunkers.ParseChunkerType(name)
	if err != nil {
		return nil, err
	}
	return []chunkers.ChunkerType{strategy}, nil
}

// resolveDocument generates the synthetic test document or loads the
// configured input file
func resolveDocument(ctx context.Context, cfg *config.ChunkLabConfig, logg interfaces.Logger) (*types.Document, error) {
	if cfg.IO.Generate {
		generatorConfig := documents.DefaultGeneratorConfig()
		if cfg.IO.Seed != 0 {
			generatorConfig.Seed = cfg.IO.Seed
		}

		generator := documents.NewGenerator(generatorConfig)
		docPath := filepath.Join(cfg.IO.OutputDir, "rag_chunking_test_doc.md")
		doc, err := generator.GenerateToFile(docPath)
		if err != nil {
			return nil, fmt.Errorf("failed to generate document: %w", err)
		}

		logg.Info("Generated synthetic document", map[string]interface{}{
			"path":           docPath,
			"sections":       doc.Metadata["sections"],
			"facts_injected": doc.Metadata["facts_injected"],
			"seed":           generatorConfig.Seed,
		})
		return doc, nil
	}

	if cfg.IO.InputPath == "" {
		return nil, fmt.Errorf("no input document: pass -input or enable generation")
	}

	return documents.NewLoaderFactory().Load(ctx, cfg.IO.InputPath)
}

// buildLLMProvider creates the shared provider when an AI-backed strategy
// is selected
func buildLLMProvider(cfg *config.ChunkLabConfig, strategies []chunkers.ChunkerType) (interfaces.LLM, error) {
	needed := false
	for _, strategy := range strategies {
		if strategy == chunkers.ChunkerTypeAIDriven || strategy == chunkers.ChunkerTypeContextual {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	return llm.NewFromConfig(&llm.LLMConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		Timeout:     cfg.LLM.Timeout,
	})
}

// chunkerConfigFor maps the per-strategy configuration section onto the
// chunker configuration, leaving untouched fields at their defaults
func chunkerConfigFor(cfg *config.ChunkersConfig, chunkerType chunkers.ChunkerType) *chunkers.ChunkerConfig {
	out := chunkers.DefaultChunkerConfig()
	if cfg == nil {
		return out
	}
	if cfg.Tokenizer != "" {
		out.Tokenizer = cfg.Tokenizer
	}

	switch chunkerType {
	case chunkers.ChunkerTypeFixed:
		if c := cfg.Fixed; c != nil {
			out.ChunkSize = c.ChunkSize
			out.ChunkOverlap = c.ChunkOverlap
			if c.Separator != "" {
				out.Separator = c.Separator
			}
		}

	case chunkers.ChunkerTypeSemantic:
		if c := cfg.Semantic; c != nil {
			out.ChunkSize = c.ChunkSize
			out.ChunkOverlap = c.ChunkOverlap
			if len(c.Separators) > 0 {
				out.Separators = append([]string(nil), c.Separators...)
			}
		}

	case chunkers.ChunkerTypeAdaptive:
		if c := cfg.Adaptive; c != nil {
			out.MinChunkSize = c.MinChunkSize
			out.MaxChunkSize = c.MaxChunkSize
			out.MinOverlap = c.MinOverlap
			out.MaxOverlap = c.MaxOverlap
		}

	case chunkers.ChunkerTypeAIDriven:
		if c := cfg.AIDriven; c != nil {
			out.MaxChunks = c.MaxChunks
			out.ChunkSize = c.FallbackChunkSize
			out.ChunkOverlap = c.FallbackOverlap
		}

	case chunkers.ChunkerTypeContextual:
		if c := cfg.Contextual; c != nil {
			out.ChunkSize = c.ChunkSize
			out.ChunkOverlap = c.ChunkOverlap
			out.WindowSize = c.WindowSize
			if c.Workers > 0 {
				out.Workers = c.Workers
			}
		}

	case chunkers.ChunkerTypeCode:
		if c := cfg.Code; c != nil {
			out.ChunkSize = c.ChunkSize
			out.ChunkOverlap = c.ChunkOverlap
			if c.Language != "" {
				out.Language = c.Language
			}
		}
	}

	return out
}
