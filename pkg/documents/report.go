package documents

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chunklab/chunklab/pkg/chunkers"
	"github.com/chunklab/chunklab/pkg/errors"
	"github.com/chunklab/chunklab/pkg/types"
)

// RunReport describes one chunking run for the plain text report
type RunReport struct {
	RunID     string
	Strategy  types.StrategyType
	Source    string
	CreatedAt time.Time
	Chunks    []*chunkers.Chunk
}

// NewRunReport creates a report for one strategy run with a fresh run ID
func NewRunReport(strategy types.StrategyType, source string, chunks []*chunkers.Chunk) *RunReport {
	return &RunReport{
		RunID:     uuid.New().String(),
		Strategy:  strategy,
		Source:    source,
		CreatedAt: time.Now(),
		Chunks:    chunks,
	}
}

// ReportWriter renders chunking runs as plain text reports
type ReportWriter struct{}

// NewReportWriter creates a report writer
func NewReportWriter() *ReportWriter {
	return &ReportWriter{}
}

// Write renders the report to path, creating parent directories as
// needed
func (rw *ReportWriter) Write(path string, report *RunReport) error {
	content, err := rw.Render(report)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewWriteFailedError(path, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return errors.NewWriteFailedError(path, err)
	}
	return nil
}

// Render produces the report text. The fixed strategy reports chunk text
// only; every other strategy appends each chunk's metadata as indented
// JSON.
func (rw *ReportWriter) Render(report *RunReport) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "Run: %s\n", report.RunID)
	fmt.Fprintf(&b, "Strategy: %s\n", report.Strategy)
	fmt.Fprintf(&b, "Source: %s\n", report.Source)
	fmt.Fprintf(&b, "Generated: %s\n", report.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "Chunks: %d\n\n", len(report.Chunks))

	includeMetadata := report.Strategy != types.StrategyFixed

	for i, chunk := range report.Chunks {
		fmt.Fprintf(&b, "--- Chunk %d ---\n\n", i)
		b.WriteString(chunk.Text)
		b.WriteString("\n\n")

		if includeMetadata && len(chunk.Metadata) > 0 {
			encoded, err := json.MarshalIndent(chunk.Metadata, "", "    ")
			if err != nil {
				return "", errors.NewWithCause(types.ErrorTypeInternal, errors.ErrCodeFileError,
					fmt.Sprintf("failed to encode metadata for chunk %d", i), err)
			}
			b.WriteString("Metadata:\n")
			b.Write(encoded)
			b.WriteString("\n\n")
		}
	}

	return b.String(), nil
}
